package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/summit-games/summit-indexer/internal/adapter"
	"github.com/summit-games/summit-indexer/internal/domain"
)

// Client defines the interface for metadata service operations to enable
// test fakes
type Client interface {
	// GetBeastMetadata resolves the immutable metadata for a beast
	GetBeastMetadata(ctx context.Context, tokenID uint64) (*domain.BeastMetadata, error)
}

// beastResponse is the metadata service's beast document
type beastResponse struct {
	TokenID uint64 `json:"token_id"`
	Name    string `json:"name"`
	Prefix  string `json:"prefix"`
	Suffix  string `json:"suffix"`
	Tier    uint64 `json:"tier"`
	Level   uint64 `json:"level"`
	Type    string `json:"type"`
	Power   uint64 `json:"power"`
}

// MetadataClient implements Client against the beast metadata HTTP service
type MetadataClient struct {
	httpClient adapter.HTTPClient
	baseURL    string
}

// NewClient creates a new metadata client
func NewClient(httpClient adapter.HTTPClient, baseURL string) Client {
	return &MetadataClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// GetBeastMetadata resolves the immutable metadata for a beast. A failure is
// returned as-is; the caller treats it as a per-event error and may ask
// again on a later event for the same beast.
func (c *MetadataClient) GetBeastMetadata(ctx context.Context, tokenID uint64) (*domain.BeastMetadata, error) {
	var response beastResponse
	url := fmt.Sprintf("%s/beasts/%d", c.baseURL, tokenID)
	if err := c.httpClient.Get(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for beast %d: %w", tokenID, err)
	}

	return &domain.BeastMetadata{
		TokenID: tokenID,
		Name:    response.Name,
		Prefix:  response.Prefix,
		Suffix:  response.Suffix,
		Tier:    response.Tier,
		Level:   response.Level,
		Type:    response.Type,
		Power:   response.Power,
	}, nil
}
