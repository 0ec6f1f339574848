package metadata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-games/summit-indexer/internal/adapter"
	"github.com/summit-games/summit-indexer/internal/logger"
	"github.com/summit-games/summit-indexer/internal/metadata"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestClient_GetBeastMetadata_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/beasts/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"token_id": 42,
			"name": "Warlock",
			"prefix": "Agony",
			"suffix": "Bane",
			"tier": 1,
			"level": 19,
			"type": "magic",
			"power": 95
		}`))
	}))
	defer server.Close()

	client := metadata.NewClient(adapter.NewHTTPClient(5*time.Second), server.URL)

	result, err := client.GetBeastMetadata(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), result.TokenID)
	assert.Equal(t, "Warlock", result.Name)
	assert.Equal(t, "Agony", result.Prefix)
	assert.Equal(t, "Bane", result.Suffix)
	assert.Equal(t, uint64(1), result.Tier)
	assert.Equal(t, uint64(19), result.Level)
	assert.Equal(t, "magic", result.Type)
	assert.Equal(t, uint64(95), result.Power)
}

func TestClient_GetBeastMetadata_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "beast not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := metadata.NewClient(adapter.NewHTTPClient(5*time.Second), server.URL)

	result, err := client.GetBeastMetadata(context.Background(), 999)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "status code 404")
}

func TestClient_GetBeastMetadata_TrailingSlashBase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/beasts/7", r.URL.Path)
		_, _ = w.Write([]byte(`{"token_id": 7, "name": "Bear", "tier": 4, "level": 2, "type": "bludgeon", "power": 10}`))
	}))
	defer server.Close()

	client := metadata.NewClient(adapter.NewHTTPClient(5*time.Second), server.URL+"/")

	result, err := client.GetBeastMetadata(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Bear", result.Name)
}
