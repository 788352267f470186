package s3

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", endpointURL("localhost:9000", false))
	assert.Equal(t, "https://s3.example.com", endpointURL("s3.example.com", true))
}

func TestNewPhotoStoreRequiresCredentials(t *testing.T) {
	_, err := NewPhotoStore(context.Background(), Config{Bucket: "photos"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
