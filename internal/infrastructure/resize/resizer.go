package resize

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// Resizer scales images down to a maximum width using Lanczos resampling.
type Resizer struct{}

func NewResizer() *Resizer {
	return &Resizer{}
}

var subtypeAliases = map[string]string{
	"pjpeg":    "jpeg",
	"x-png":    "png",
	"x-ms-bmp": "bmp",
}

// Resize re-encodes data in the format named by subtype. Images at or below maxWidth keep their
// dimensions.
func (r *Resizer) Resize(data []byte, subtype string, maxWidth int) ([]byte, error) {
	if alias, ok := subtypeAliases[subtype]; ok {
		subtype = alias
	}
	format, err := imaging.FormatFromExtension(subtype)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot encode image/%s", domain.ErrUnsupportedMediaType, subtype)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.Validationf("decode photo: %v", err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
