// Package codec decodes the summit contract's binary-packed wire formats:
// bit-packed 256-bit stats records and positional felt-array events. It is
// decode-only; the encode helpers exist for tests.
package codec

import (
	"fmt"
	"math/big"

	"github.com/summit-games/summit-indexer/internal/domain"
)

// feltReader walks an ordered felt array, decoding fields by position.
// Every read is attributed to a field name so a short or malformed array
// produces a DecodeError pointing at the exact field.
type feltReader struct {
	eventType string
	values    []string
	pos       int
}

func newFeltReader(eventType string, values []string) *feltReader {
	return &feltReader{eventType: eventType, values: values}
}

// ReadFelt reads the next raw felt as a big.Int
func (r *feltReader) ReadFelt(field string) (*big.Int, error) {
	if r.pos >= len(r.values) {
		return nil, domain.NewDecodeError(r.eventType, field,
			fmt.Sprintf("array too short: want index %d, have %d elements", r.pos, len(r.values)))
	}
	n := domain.ParseFelt(r.values[r.pos])
	if n == nil {
		return nil, domain.NewDecodeError(r.eventType, field,
			fmt.Sprintf("invalid felt %q at index %d", r.values[r.pos], r.pos))
	}
	r.pos++
	return n, nil
}

// ReadUint64 reads the next felt as a uint64
func (r *feltReader) ReadUint64(field string) (uint64, error) {
	n, err := r.ReadFelt(field)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, domain.NewDecodeError(r.eventType, field, "value exceeds 64 bits")
	}
	return n.Uint64(), nil
}

// ReadBool reads the next felt as a boolean (0 or 1)
func (r *feltReader) ReadBool(field string) (bool, error) {
	n, err := r.ReadUint64(field)
	if err != nil {
		return false, err
	}
	if n > 1 {
		return false, domain.NewDecodeError(r.eventType, field,
			fmt.Sprintf("boolean felt out of range: %d", n))
	}
	return n == 1, nil
}

// ReadAddress reads the next felt as a normalized unpadded lowercase hex address
func (r *feltReader) ReadAddress(field string) (string, error) {
	if r.pos >= len(r.values) {
		return "", domain.NewDecodeError(r.eventType, field,
			fmt.Sprintf("array too short: want index %d, have %d elements", r.pos, len(r.values)))
	}
	raw := r.values[r.pos]
	if domain.ParseFelt(raw) == nil {
		return "", domain.NewDecodeError(r.eventType, field,
			fmt.Sprintf("invalid address felt %q at index %d", raw, r.pos))
	}
	r.pos++
	return domain.NormalizeAddress(raw), nil
}

// remaining reports how many felts are left to read
func (r *feltReader) remaining() uint64 {
	return uint64(len(r.values) - r.pos)
}

// ReadSpanU32 reads a length-prefixed span of uint32 values ([length, elem...])
func (r *feltReader) ReadSpanU32(field string) ([]uint64, error) {
	length, err := r.ReadUint64(field + ".len")
	if err != nil {
		return nil, err
	}
	// guard the allocation: the wire length is untrusted
	if length > r.remaining() {
		return nil, domain.NewDecodeError(r.eventType, field+".len",
			fmt.Sprintf("span length %d exceeds %d remaining elements", length, r.remaining()))
	}
	out := make([]uint64, 0, length)
	for i := uint64(0); i < length; i++ {
		v, err := r.ReadUint64(fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		if v > 0xFFFFFFFF {
			return nil, domain.NewDecodeError(r.eventType, fmt.Sprintf("%s[%d]", field, i),
				"value exceeds 32 bits")
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadSpanFelt reads a length-prefixed span of raw felts ([length, elem...])
func (r *feltReader) ReadSpanFelt(field string) ([]string, error) {
	length, err := r.ReadUint64(field + ".len")
	if err != nil {
		return nil, err
	}
	if length > r.remaining() {
		return nil, domain.NewDecodeError(r.eventType, field+".len",
			fmt.Sprintf("span length %d exceeds %d remaining elements", length, r.remaining()))
	}
	out := make([]string, 0, length)
	for i := uint64(0); i < length; i++ {
		out = append(out, r.values[r.pos])
		r.pos++
	}
	return out, nil
}
