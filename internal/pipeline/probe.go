package pipeline

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	"restyle-service/internal/domain"
)

// probeImage validates that the bytes decode as an image and reports the
// pixel dimensions recorded on the photo document.
func probeImage(data []byte) (width, height int, err error) {
	if len(data) == 0 {
		return 0, 0, domain.ErrInvalidImage
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}
