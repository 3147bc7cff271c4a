// Package normalize prepares raw images for transmission to a vision model:
// fixed 3-channel color, bounded working resolution, JPEG payload. The scale
// record produced here is what later maps model coordinates back to the
// original image.
package normalize

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/graspmind/graspmind/pkg/coords"
	"github.com/graspmind/graspmind/pkg/types"
)

// Normalized is the output of one normalization: the working image, its
// compressed payload, and the scale record needed for inverse mapping.
type Normalized struct {
	Image image.Image
	JPEG  []byte
	Scale coords.ScaleRecord
}

// Normalizer converts arbitrary input images into the bounded working form.
type Normalizer struct {
	bound   int
	quality int
}

// New creates a Normalizer. Bound is the maximum long side of the working
// image in pixels; quality is the JPEG quality (1-100).
func New(bound, quality int) (*Normalizer, error) {
	if bound <= 0 {
		return nil, &types.InvalidInputError{Reason: "normalization bound must be positive"}
	}
	if quality < 1 || quality > 100 {
		return nil, &types.InvalidInputError{Reason: "jpeg quality must be between 1 and 100"}
	}
	return &Normalizer{bound: bound, quality: quality}, nil
}

// NormalizeFile reads and normalizes an image file.
func (n *Normalizer) NormalizeFile(path string) (*Normalized, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.UnreadableImageError{Source: path, Err: err}
	}
	norm, err := n.Normalize(data)
	if err != nil {
		if ue, ok := err.(*types.UnreadableImageError); ok {
			ue.Source = path
		}
		return nil, err
	}
	return norm, nil
}

// Normalize decodes raw image bytes and normalizes them.
func (n *Normalizer) Normalize(data []byte) (*Normalized, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return n.NormalizeImage(img)
}

// NormalizeImage normalizes an already decoded image: flatten to opaque RGB,
// resize within the bound, encode to JPEG.
func (n *Normalizer) NormalizeImage(img image.Image) (*Normalized, error) {
	img = flatten(img)

	b := img.Bounds()
	rec, err := coords.ComputeScale(b.Dx(), b.Dy(), n.bound)
	if err != nil {
		return nil, err
	}
	if rec.Factor < 1.0 {
		img = imaging.Resize(img, rec.WorkingWidth, rec.WorkingHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.quality}); err != nil {
		return nil, err
	}

	return &Normalized{Image: img, JPEG: buf.Bytes(), Scale: rec}, nil
}

// decode tries the registered decoders first, then explicit WebP.
func decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &types.UnreadableImageError{Err: err}
	}
	return img, nil
}

// flatten composites any transparency onto an opaque white background
// instead of discarding the alpha channel.
func flatten(img image.Image) *image.NRGBA {
	background := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.NRGBA{255, 255, 255, 255})
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}
