// Package imaging normalises uploaded photos to the directory's fixed portrait box.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"

	"github.com/Shreyas165/Find-My-Teacher/internal/apperr"
	"github.com/Shreyas165/Find-My-Teacher/internal/observability"
)

// Fit selects how an image is mapped onto the target box.
type Fit string

const (
	// FitContain scales down preserving aspect ratio and pads to the box with white.
	FitContain Fit = "contain"
	// FitFill stretches to exactly the box.
	FitFill Fit = "fill"
)

const OutputMimeType = "image/jpeg"

// DefaultMaxBytes is the upload ceiling.
const DefaultMaxBytes = 20 << 20

// DefaultMaxPixels caps decoded dimensions; a small compressed file can declare a huge canvas.
const DefaultMaxPixels = 40_000_000

var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

type Options struct {
	Width    int
	Height   int
	Fit      Fit
	Quality  int
	MaxBytes int64
	TmpDir   string
	// MaxPixels bounds width*height as declared in the image header.
	MaxPixels int64
}

// Upload is a raw image as received from a client.
type Upload struct {
	Data     io.Reader
	MimeType string
	Filename string
}

// Result is the normalised image.
type Result struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

type Pipeline struct {
	opts Options
}

func NewPipeline(opts Options) *Pipeline {
	if opts.Width <= 0 {
		opts.Width = 200
	}
	if opts.Height <= 0 {
		opts.Height = 267
	}
	if opts.Fit == "" {
		opts.Fit = FitContain
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &Pipeline{opts: opts}
}

func (p *Pipeline) Options() Options {
	return p.opts
}

// Process validates, decodes, resizes and re-encodes an upload.
// The spooled upload never outlives the call.
func (p *Pipeline) Process(ctx context.Context, up Upload) (*Result, error) {
	if err := checkDeclaredType(up.MimeType); err != nil {
		observability.ImageRejections.WithLabelValues("declared_type").Inc()
		return nil, err
	}

	var result *Result
	err := withTempFile(p.opts.TmpDir, "upload-*", func(f *os.File) error {
		src, err := p.spool(f, up.Data)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		out := p.fit(src)
		observability.ImagePipelineDuration.WithLabelValues("resize").Observe(time.Since(start).Seconds())

		start = time.Now()
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.opts.Quality}); err != nil {
			return apperr.Wrap(apperr.CodeInternal, "encode image", err)
		}
		observability.ImagePipelineDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())

		size := out.Bounds().Size()
		result = &Result{Data: buf.Bytes(), MimeType: OutputMimeType, Width: size.X, Height: size.Y}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("image processed", "filename", up.Filename, "bytes", len(result.Data),
		"width", result.Width, "height", result.Height, "fit", p.opts.Fit)
	return result, nil
}

func checkDeclaredType(declared string) error {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return apperr.InvalidMediaType("Invalid file type. Only images are allowed.")
	}
	return nil
}

// spool copies at most MaxBytes+1 bytes into f, sniffs the content and decodes it.
func (p *Pipeline) spool(f *os.File, r io.Reader) (image.Image, error) {
	if r == nil {
		return nil, apperr.InvalidRequest("An image is required.")
	}
	start := time.Now()
	n, err := io.Copy(f, io.LimitReader(r, p.opts.MaxBytes+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "spool upload", err)
	}
	if n > p.opts.MaxBytes {
		observability.ImageRejections.WithLabelValues("too_large").Inc()
		return nil, apperr.PayloadTooLarge(fmt.Sprintf("Image exceeds the %d MiB limit.", p.opts.MaxBytes>>20))
	}
	if n == 0 {
		return nil, apperr.InvalidRequest("An image is required.")
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "rewind upload", err)
	}
	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "detect image type", err)
	}
	if !decodable[detected.String()] {
		observability.ImageRejections.WithLabelValues("content_type").Inc()
		return nil, apperr.InvalidMediaType(fmt.Sprintf("Unsupported image content %s.", detected.String()))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "rewind upload", err)
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		observability.ImageRejections.WithLabelValues("decode").Inc()
		return nil, apperr.InvalidMediaType("The uploaded image could not be decoded.")
	}
	if int64(cfg.Width)*int64(cfg.Height) > p.opts.MaxPixels {
		observability.ImageRejections.WithLabelValues("dimensions").Inc()
		return nil, apperr.PayloadTooLarge(fmt.Sprintf("Image dimensions %dx%d are too large.", cfg.Width, cfg.Height))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "rewind upload", err)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		observability.ImageRejections.WithLabelValues("decode").Inc()
		return nil, apperr.InvalidMediaType("The uploaded image could not be decoded.")
	}
	observability.ImagePipelineDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())
	return img, nil
}

// fit maps src onto the target box and flattens it on white so JPEG encoding drops no alpha to black.
func (p *Pipeline) fit(src image.Image) image.Image {
	w, h := p.opts.Width, p.opts.Height
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	var scaled image.Image
	switch p.opts.Fit {
	case FitFill:
		scaled = resize.Resize(uint(w), uint(h), src, resize.Lanczos3)
	default:
		// Thumbnail never enlarges.
		scaled = resize.Thumbnail(uint(w), uint(h), src, resize.Lanczos3)
	}

	size := scaled.Bounds().Size()
	offset := image.Pt((w-size.X)/2, (h-size.Y)/2)
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(size)}, scaled, scaled.Bounds().Min, draw.Over)
	return canvas
}
