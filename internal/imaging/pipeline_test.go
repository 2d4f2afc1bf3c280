package imaging

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/Shreyas165/Find-My-Teacher/internal/apperr"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(w, h, color.RGBA{R: 200, G: 30, B: 30, A: 255}), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func newTestPipeline(t *testing.T, fit Fit) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	return NewPipeline(Options{Width: 200, Height: 267, Fit: fit, Quality: 90, MaxBytes: 5 << 20, TmpDir: dir}), dir
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp files left behind: %d", len(entries))
	}
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return img
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 240 && g>>8 > 240 && b>>8 > 240
}

func TestProcessContainPadsToBox(t *testing.T) {
	p, dir := newTestPipeline(t, FitContain)

	res, err := p.Process(context.Background(), Upload{
		Data:     bytes.NewReader(encodeJPEG(t, 1200, 900)),
		MimeType: "image/jpeg",
		Filename: "asha.jpg",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.MimeType != "image/jpeg" || res.Width != 200 || res.Height != 267 {
		t.Fatalf("Process() = %s %dx%d", res.MimeType, res.Width, res.Height)
	}

	img := decode(t, res.Data)
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 267 {
		t.Fatalf("decoded bounds = %v", b)
	}
	// 1200x900 fits as 200x150, so the top rows are padding and the centre is the photo.
	if !isWhite(img.At(100, 5)) {
		t.Errorf("expected white padding at top, got %v", img.At(100, 5))
	}
	if isWhite(img.At(100, 133)) {
		t.Errorf("expected photo content at centre")
	}
	assertNoTempFiles(t, dir)
}

func TestProcessContainDoesNotEnlarge(t *testing.T) {
	p, _ := newTestPipeline(t, FitContain)

	res, err := p.Process(context.Background(), Upload{Data: bytes.NewReader(encodeJPEG(t, 40, 40)), MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	img := decode(t, res.Data)
	if !isWhite(img.At(10, 10)) {
		t.Errorf("small image should not be enlarged; corner is %v", img.At(10, 10))
	}
	if isWhite(img.At(100, 133)) {
		t.Errorf("expected small image centred")
	}
}

func TestProcessFillStretchesToBox(t *testing.T) {
	p, dir := newTestPipeline(t, FitFill)

	res, err := p.Process(context.Background(), Upload{Data: bytes.NewReader(encodeJPEG(t, 1200, 900)), MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	img := decode(t, res.Data)
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 267 {
		t.Fatalf("decoded bounds = %v", b)
	}
	if isWhite(img.At(100, 5)) || isWhite(img.At(2, 2)) {
		t.Errorf("fill should leave no padding")
	}
	assertNoTempFiles(t, dir)
}

func TestProcessFlattensTransparentPNG(t *testing.T) {
	p, _ := newTestPipeline(t, FitFill)

	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(300, 400, color.RGBA{})); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	res, err := p.Process(context.Background(), Upload{Data: &buf, MimeType: "image/png"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !isWhite(decode(t, res.Data).At(100, 100)) {
		t.Errorf("transparent pixels should become white")
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h RGBA pixels, with no pixel data.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 6, 0, 0, 0) // 8-bit RGBA, no interlace

	_ = binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestProcessRejections(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		mimeType string
		maxBytes  int64
		maxPixels int64
		want      *apperr.Error
	}{
		{name: "non image declared type", data: []byte("hello"), mimeType: "text/plain", want: apperr.ErrInvalidMediaType},
		{name: "malformed declared type", data: []byte("hello"), mimeType: "", want: apperr.ErrInvalidMediaType},
		{name: "text disguised as jpeg", data: []byte(strings.Repeat("not an image ", 20)), mimeType: "image/jpeg", want: apperr.ErrInvalidMediaType},
		{name: "truncated jpeg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, mimeType: "image/jpeg", want: apperr.ErrInvalidMediaType},
		{name: "empty upload", data: nil, mimeType: "image/jpeg", want: apperr.ErrInvalidRequest},
		{name: "over ceiling", data: bytes.Repeat([]byte{0xFF}, 2048), mimeType: "image/jpeg", maxBytes: 1024, want: apperr.ErrPayloadTooLarge},
		{name: "huge declared canvas", data: pngHeader(30000, 30000), mimeType: "image/png", want: apperr.ErrPayloadTooLarge},
		{name: "over pixel cap", data: encodeJPEG(t, 100, 100), mimeType: "image/jpeg", maxPixels: 5000, want: apperr.ErrPayloadTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			p := NewPipeline(Options{Width: 200, Height: 267, MaxBytes: tt.maxBytes, MaxPixels: tt.maxPixels, TmpDir: dir})
			_, err := p.Process(context.Background(), Upload{Data: bytes.NewReader(tt.data), MimeType: tt.mimeType})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Process() error = %v, want %s", err, tt.want.Code)
			}
			assertNoTempFiles(t, dir)
		})
	}
}

func TestProcessHonoursCancelledContext(t *testing.T) {
	p, dir := newTestPipeline(t, FitContain)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, Upload{Data: bytes.NewReader(encodeJPEG(t, 100, 100)), MimeType: "image/jpeg"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Process() error = %v, want context.Canceled", err)
	}
	assertNoTempFiles(t, dir)
}

func TestNewPipelineDefaults(t *testing.T) {
	opts := NewPipeline(Options{}).Options()
	if opts.Width != 200 || opts.Height != 267 || opts.Fit != FitContain || opts.Quality != 90 || opts.MaxBytes != DefaultMaxBytes || opts.MaxPixels != DefaultMaxPixels {
		t.Fatalf("defaults = %+v", opts)
	}
}
