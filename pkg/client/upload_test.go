package client

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPrepareUploadShrinks(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1600, 1600))
	out, err := PrepareUpload(encodePNG(t, src))
	if err != nil {
		t.Fatalf("PrepareUpload: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if cfg.Width != 600 || cfg.Height != 600 {
		t.Fatalf("got %dx%d, want 600x600", cfg.Width, cfg.Height)
	}
}

func TestPrepareUploadKeepsSmallImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 30))
	out, err := PrepareUpload(encodePNG(t, src))
	if err != nil {
		t.Fatalf("PrepareUpload: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 50 || cfg.Height != 30 {
		t.Fatalf("got %dx%d, want 50x30", cfg.Width, cfg.Height)
	}
}

func TestPrepareUploadFlattensTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	out, err := PrepareUpload(encodePNG(t, src))
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(10, 10).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("transparent pixel became %v", color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255})
	}
}

func TestPrepareUploadRejectsGarbage(t *testing.T) {
	if _, err := PrepareUpload([]byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}
