// Package render draws grasp results onto the original image for human
// inspection: the segmentation mask as a tinted region and the part boxes
// as outlines. Everything here consumes original-space data only.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/graspmind/graspmind/pkg/mask"
	"github.com/graspmind/graspmind/pkg/types"
)

var (
	maskTint   = color.NRGBA{255, 0, 0, 255}   // part region
	regionLine = color.NRGBA{0, 255, 0, 255}   // part boxes
	targetLine = color.NRGBA{255, 204, 0, 255} // target object box
)

// Overlay renders the mask, the part regions, and the target object box
// onto a copy of the original image.
func Overlay(img image.Image, m *mask.Mask, regions []types.Region, target types.Box) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))

	if m != nil {
		tintMask(out, m, 0.45)
	}
	for _, r := range regions {
		drawBox(out, r.Box, stroke, regionLine)
	}
	if target.Area() > 0 {
		drawBox(out, target, stroke, targetLine)
	}
	return out
}

// tintMask alpha-blends the tint color over every set mask pixel.
func tintMask(img *image.NRGBA, m *mask.Mask, alpha float64) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h && y < m.Height; y++ {
		row := m.Pixels[y]
		for x := 0; x < w && x < m.Width; x++ {
			if row[x] == 0 {
				continue
			}
			i := y*img.Stride + x*4
			img.Pix[i+0] = blend(img.Pix[i+0], maskTint.R, alpha)
			img.Pix[i+1] = blend(img.Pix[i+1], maskTint.G, alpha)
			img.Pix[i+2] = blend(img.Pix[i+2], maskTint.B, alpha)
		}
	}
}

func blend(base, tint uint8, alpha float64) uint8 {
	return uint8(float64(base)*(1-alpha) + float64(tint)*alpha)
}

func drawBox(img *image.NRGBA, b types.Box, stroke int, c color.NRGBA) {
	x1, y1, x2, y2 := b.Canonical().Ints()
	if x2 <= x1 {
		x2 = x1 + 1
	}
	if y2 <= y1 {
		y2 = y1 + 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y1+s, x1, x2, c)
		drawHLine(img, y2-1-s, x1, x2, c)
		drawVLine(img, x1+s, y1, y2, c)
		drawVLine(img, x2-1-s, y1, y2, c)
	}
}

func drawHLine(img *image.NRGBA, y, x1, x2 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if x2 <= 0 || x1 >= img.Bounds().Dx() {
		return
	}
	if x1 < 0 {
		x1 = 0
	}
	if x2 > img.Bounds().Dx() {
		x2 = img.Bounds().Dx()
	}
	i := y*img.Stride + x1*4
	for x := x1; x < x2; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y1, y2 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	if y2 <= 0 || y1 >= img.Bounds().Dy() {
		return
	}
	if y1 < 0 {
		y1 = 0
	}
	if y2 > img.Bounds().Dy() {
		y2 = img.Bounds().Dy()
	}
	i := y1*img.Stride + x*4
	for y := y1; y < y2; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
