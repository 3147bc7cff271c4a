// Package mask represents pixel regions as binary grids in original-image
// coordinates. By the time a mask leaves the pipeline it is always in
// original space, never in the working resolution.
package mask

import (
	"image"

	"github.com/graspmind/graspmind/pkg/types"
)

// Mask is a binary segmentation grid. An all-zero grid is a valid result
// meaning "no region found", distinct from an absent or error result.
type Mask struct {
	Pixels     [][]uint8 `json:"pixels"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	ObjectID   string    `json:"object_id"`
	PartName   string    `json:"part_name"`
	Confidence float64   `json:"confidence"`
}

// New creates an all-zero mask of the given dimensions.
func New(width, height int, objectID, partName string) *Mask {
	pixels := make([][]uint8, height)
	for y := range pixels {
		pixels[y] = make([]uint8, width)
	}
	return &Mask{
		Pixels:   pixels,
		Width:    width,
		Height:   height,
		ObjectID: objectID,
		PartName: partName,
	}
}

// FromRegions rasterizes original-space regions into a mask of the given
// dimensions. Confidence is the mean of the region confidences.
func FromRegions(width, height int, regions []types.Region, objectID, partName string) *Mask {
	m := New(width, height, objectID, partName)
	var confSum float64
	for _, r := range regions {
		m.FillBox(r.Box)
		confSum += r.Confidence
	}
	if len(regions) > 0 {
		m.Confidence = confSum / float64(len(regions))
	}
	return m
}

// FillBox sets every pixel covered by the box to 1. Float coordinates are
// truncated to integers here, at the grid boundary.
func (m *Mask) FillBox(b types.Box) {
	x1, y1, x2, y2 := b.Canonical().Clamp(float64(m.Width), float64(m.Height)).Ints()
	if x2 > m.Width {
		x2 = m.Width
	}
	if y2 > m.Height {
		y2 = m.Height
	}
	for y := y1; y < y2; y++ {
		row := m.Pixels[y]
		for x := x1; x < x2; x++ {
			row[x] = 1
		}
	}
}

// Empty reports whether no pixel is set.
func (m *Mask) Empty() bool {
	for _, row := range m.Pixels {
		for _, v := range row {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// Coverage returns the fraction of pixels set, in [0,1].
func (m *Mask) Coverage() float64 {
	if m.Width == 0 || m.Height == 0 {
		return 0
	}
	var count int
	for _, row := range m.Pixels {
		for _, v := range row {
			if v != 0 {
				count++
			}
		}
	}
	return float64(count) / float64(m.Width*m.Height)
}

// ToImage renders the mask as an 8-bit grayscale image, set pixels white.
func (m *Mask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y, row := range m.Pixels {
		for x, v := range row {
			if v != 0 {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}
