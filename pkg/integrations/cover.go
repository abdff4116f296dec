package integrations

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// maxCoverWidth keeps e-reader covers small; site covers come in much larger.
const maxCoverWidth = 600

// downscaleCover re-encodes the cover as JPEG, scaling it down when it is
// wider than maxCoverWidth. Smaller images pass through a re-encode only.
func downscaleCover(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > maxCoverWidth {
		height := bounds.Dy() * maxCoverWidth / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, maxCoverWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), nil
}
