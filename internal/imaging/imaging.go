// Package imaging normalizes uploaded item photos and stores them in the
// blob store.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/blob"
)

// Limits and output settings for item photos.
const (
	MaxDimension  = 1024
	JPEGQuality   = 85
	MaxUploadSize = 10 << 20
	KeyPrefix     = "photos/"
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ErrUnsupportedImage is returned for uploads that are not JPEG or PNG.
var ErrUnsupportedImage = apperr.Validation(apperr.ErrInvalidField, "photo must be a JPEG or PNG image")

// Normalize reads an uploaded photo, checks its format by sniffing the
// bytes, shrinks it to fit MaxDimension and re-encodes it as JPEG.
func Normalize(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, apperr.Validation(apperr.ErrInvalidField, "photo is larger than 10 MiB")
	}
	if !allowedMIME[http.DetectContentType(data)] {
		return nil, ErrUnsupportedImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Backend(ErrUnsupportedImage, "photo could not be decoded", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(img, MaxDimension), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}
	return buf.Bytes(), nil
}

// Store normalizes the photo and writes it under a fresh key. It returns the
// URL the photo can be fetched from.
func Store(ctx context.Context, blobs blob.Store, r io.Reader) (string, error) {
	data, err := Normalize(r)
	if err != nil {
		return "", err
	}

	key := KeyPrefix + uuid.NewString() + ".jpg"
	if err := blobs.Put(ctx, key, bytes.NewReader(data), "image/jpeg"); err != nil {
		return "", fmt.Errorf("storing photo: %w", err)
	}
	return blobs.URL(key), nil
}

// fit scales img down so neither side exceeds maxDim, keeping the aspect
// ratio. Smaller images are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	nw, nh := maxDim, h*maxDim/w
	if h > w {
		nw, nh = w*maxDim/h, maxDim
	}
	nw, nh = max(nw, 1), max(nh, 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
