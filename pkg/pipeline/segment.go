package pipeline

import (
	"context"
	"log/slog"

	"github.com/graspmind/graspmind/pkg/coords"
	"github.com/graspmind/graspmind/pkg/gateway"
	"github.com/graspmind/graspmind/pkg/mask"
	"github.com/graspmind/graspmind/pkg/respparse"
	"github.com/graspmind/graspmind/pkg/types"
)

// partRegion mirrors one element of the JSON array the part prompt
// requests.
type partRegion struct {
	Bbox       [4]float64 `json:"bbox_2d"`
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
}

// extractRegion runs the region-extraction stage: one recognition call
// localizing the chosen part in the working image, inverse-mapped through
// the request's scale record into original space, then rasterized into a
// binary mask at original dimensions. An empty region list yields a valid
// all-zero mask.
func extractRegion(ctx context.Context, gw gateway.Client, imageJPEG []byte, strat *types.Strategy, rec *coords.ScaleRecord) (*mask.Mask, []types.Region, error) {
	raw, err := gw.Invoke(ctx, gateway.Request{
		Image:            imageJPEG,
		Instruction:      partPrompt(strat),
		ExpectStructured: true,
	})
	if err != nil {
		return nil, nil, err
	}

	var parts []partRegion
	if err := respparse.ParseInto(raw, &parts); err != nil {
		return nil, nil, err
	}

	workingW := float64(rec.WorkingWidth)
	workingH := float64(rec.WorkingHeight)

	working := make([]types.Region, 0, len(parts))
	for _, p := range parts {
		label := p.Label
		if label == "" {
			label = strat.TargetPart.Name
		}
		confidence := p.Confidence
		if confidence == 0 {
			confidence = 1.0
		}
		working = append(working, types.Region{
			Box: types.Box{
				X1: p.Bbox[0], Y1: p.Bbox[1],
				X2: p.Bbox[2], Y2: p.Bbox[3],
			}.Canonical().Clamp(workingW, workingH),
			Label:      label,
			Confidence: clampUnit(confidence),
		})
	}

	original, err := coords.ToOriginalRegions(working, rec)
	if err != nil {
		return nil, nil, err
	}

	m := mask.FromRegions(rec.OriginalWidth, rec.OriginalHeight, original,
		strat.TargetObject.ID, strat.TargetPart.Name)

	slog.Debug("region extraction completed",
		"regions", len(original),
		"mask_coverage", m.Coverage())
	return m, original, nil
}
