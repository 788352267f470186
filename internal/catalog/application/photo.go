package application

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/google/uuid"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// PhotoIngester validates, resizes and stores an uploaded photo. The write completes before
// Ingest returns so a store is never saved pointing at a missing file.
type PhotoIngester struct {
	blobs   BlobStore
	resizer ImageResizer
	newID   func() string
	logger  *slog.Logger
}

func NewPhotoIngester(blobs BlobStore, resizer ImageResizer, logger *slog.Logger) *PhotoIngester {
	return &PhotoIngester{
		blobs:   blobs,
		resizer: resizer,
		newID:   uuid.NewString,
		logger:  logger,
	}
}

// Ingest returns the stored filename, or "" when upload is nil. A nil ingester rejects uploads.
func (p *PhotoIngester) Ingest(ctx context.Context, upload *PhotoUpload) (string, error) {
	if upload == nil {
		return "", nil
	}
	if p == nil {
		return "", fmt.Errorf("%w: photo storage is not configured", domain.ErrStorage)
	}

	mediaType, subtype, err := imageSubtype(upload.MimeType)
	if err != nil {
		return "", err
	}
	if len(upload.Data) == 0 {
		return "", domain.Validationf("photo is empty")
	}

	filename := fmt.Sprintf("%s.%s", p.newID(), subtype)

	resized, err := p.resizer.Resize(upload.Data, subtype, MaxPhotoWidth)
	if err != nil {
		return "", err
	}

	if err := p.blobs.Write(ctx, filename, mediaType, bytes.NewReader(resized)); err != nil {
		return "", fmt.Errorf("%w: write photo %s: %w", domain.ErrStorage, filename, err)
	}

	p.logger.Debug("photo stored", "filename", filename, "bytes", len(resized))
	return filename, nil
}

// imageSubtype accepts only image/* media types and returns the normalized type and subtype.
func imageSubtype(mimeType string) (string, string, error) {
	raw := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(raw); err == nil {
		raw = parsed
	}
	subtype, ok := strings.CutPrefix(raw, "image/")
	if !ok || subtype == "" || strings.ContainsAny(subtype, "/\\") {
		return "", "", fmt.Errorf("%w: %q is not an image", domain.ErrUnsupportedMediaType, mimeType)
	}
	return raw, subtype, nil
}
