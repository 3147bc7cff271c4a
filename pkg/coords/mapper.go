// Package coords maps boxes between the bounded working resolution sent to
// the vision model and the pixel space of the unmodified input image.
package coords

import (
	"fmt"
	"math"

	"github.com/graspmind/graspmind/pkg/types"
)

// ScaleRecord captures the uniform scale applied when an image was resized
// into the working resolution. It is created once per normalization and is
// the single source of truth for every inverse transform in the same
// request; it is never recomputed from the working image.
type ScaleRecord struct {
	OriginalWidth  int     `json:"original_width"`
	OriginalHeight int     `json:"original_height"`
	WorkingWidth   int     `json:"working_width"`
	WorkingHeight  int     `json:"working_height"`
	Factor         float64 `json:"scale_factor"`
}

// ComputeScale determines the scale that fits width x height into
// bound x bound while preserving aspect ratio. Images already within the
// bound keep factor 1.0 and their original dimensions, avoiding a needless
// resample.
func ComputeScale(width, height, bound int) (ScaleRecord, error) {
	if bound <= 0 {
		return ScaleRecord{}, &types.InvalidInputError{Reason: fmt.Sprintf("bound must be positive, got %d", bound)}
	}
	if width <= 0 || height <= 0 {
		return ScaleRecord{}, &types.InvalidInputError{Reason: fmt.Sprintf("image dimensions must be positive, got %dx%d", width, height)}
	}

	rec := ScaleRecord{
		OriginalWidth:  width,
		OriginalHeight: height,
		WorkingWidth:   width,
		WorkingHeight:  height,
		Factor:         1.0,
	}
	if width <= bound && height <= bound {
		return rec, nil
	}

	// Scale by the binding (larger) dimension.
	if width >= height {
		rec.Factor = float64(bound) / float64(width)
		rec.WorkingWidth = bound
		rec.WorkingHeight = int(math.Round(float64(height) * rec.Factor))
	} else {
		rec.Factor = float64(bound) / float64(height)
		rec.WorkingHeight = bound
		rec.WorkingWidth = int(math.Round(float64(width) * rec.Factor))
	}
	return rec, nil
}

// ToOriginal maps a working-space box back to original-image pixel
// coordinates, clamped to the original bounds. Swapped corners are
// normalized before mapping. Coordinates remain floating point; truncation
// belongs to the output boundary, not the mapper.
func ToOriginal(b types.Box, rec *ScaleRecord) (types.Box, error) {
	if rec == nil || rec.Factor <= 0 {
		return types.Box{}, &types.InvalidStateError{Reason: "no scale record available for inverse coordinate transform"}
	}

	b = b.Canonical()
	out := types.Box{
		X1: b.X1 / rec.Factor,
		Y1: b.Y1 / rec.Factor,
		X2: b.X2 / rec.Factor,
		Y2: b.Y2 / rec.Factor,
	}
	return out.Clamp(float64(rec.OriginalWidth), float64(rec.OriginalHeight)), nil
}

// ToOriginalRegions maps a slice of working-space regions to original space.
// Output order matches input order exactly; downstream code relies on index
// correspondence with labels.
func ToOriginalRegions(regions []types.Region, rec *ScaleRecord) ([]types.Region, error) {
	out := make([]types.Region, 0, len(regions))
	for _, r := range regions {
		box, err := ToOriginal(r.Box, rec)
		if err != nil {
			return nil, err
		}
		r.Box = box
		out = append(out, r)
	}
	return out, nil
}
