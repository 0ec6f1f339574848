package domain

import (
	"math/big"
	"strings"
)

const (
	// ZeroAddress is the burn/mint sentinel address in normalized form
	ZeroAddress = "0x0"
)

// NormalizeAddress normalizes a felt-encoded address to unpadded lowercase
// hex ("0x" + minimal digits). Different producers pad addresses with a
// varying number of leading zeros; equality comparisons against stored
// addresses only hold on the normalized form.
func NormalizeAddress(address string) string {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(address)), "0x")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return ZeroAddress
	}
	return "0x" + s
}

// NormalizeAddresses normalizes a list of addresses in place
func NormalizeAddresses(addresses []string) []string {
	for i, address := range addresses {
		addresses[i] = NormalizeAddress(address)
	}
	return addresses
}

// IsZeroAddress reports whether the address normalizes to the burn address
func IsZeroAddress(address string) bool {
	return NormalizeAddress(address) == ZeroAddress
}

// ParseFelt parses a felt-encoded hex (or decimal) string into a big.Int.
// Returns nil if the value is not a valid non-negative integer; felts are
// field elements and carry no sign.
func ParseFelt(value string) *big.Int {
	s := strings.TrimSpace(value)
	n := new(big.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, ok := n.SetString(s[2:], 16); !ok {
			return nil
		}
	} else if _, ok := n.SetString(s, 10); !ok {
		return nil
	}
	if n.Sign() < 0 {
		return nil
	}
	return n
}
