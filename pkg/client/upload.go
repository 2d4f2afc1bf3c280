package client

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

const (
	uploadMaxWidth  = 800
	uploadMaxHeight = 600
	uploadQuality   = 80
)

// PrepareUpload shrinks a photo to fit within 800x600 and re-encodes it as JPEG at quality 80
// before upload. Images are never enlarged. The server still applies its own resize.
func PrepareUpload(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	scaled := resize.Thumbnail(uploadMaxWidth, uploadMaxHeight, src, resize.Lanczos3)

	// Flatten onto white so transparent pixels do not turn black in JPEG.
	bounds := scaled.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), scaled, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: uploadQuality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
