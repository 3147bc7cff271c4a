package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/graspmind/graspmind/pkg/coords"
	"github.com/graspmind/graspmind/pkg/gateway"
	"github.com/graspmind/graspmind/pkg/knowledge"
	"github.com/graspmind/graspmind/pkg/respparse"
	"github.com/graspmind/graspmind/pkg/types"
)

// scenePayload mirrors the JSON the scene prompt requests.
type scenePayload struct {
	Objects []struct {
		ObjectID    string `json:"object_id"`
		Label       string `json:"label"`
		Description string `json:"description"`
		BoundingBox struct {
			X1         float64 `json:"x1"`
			Y1         float64 `json:"y1"`
			X2         float64 `json:"x2"`
			Y2         float64 `json:"y2"`
			Confidence float64 `json:"confidence"`
		} `json:"bounding_box"`
		Confidence float64 `json:"confidence"`
	} `json:"objects"`
	TotalObjects int `json:"total_objects"`
}

// analyzeScene runs the scene-analysis stage: one recognition call over the
// working image, parsed into a validated object list. Boxes are kept in
// working space; they are only reference data for later stages, never the
// final output. An empty object list is a valid result.
func analyzeScene(ctx context.Context, gw gateway.Client, imageJPEG []byte, rec coords.ScaleRecord) (*types.SceneResult, error) {
	raw, err := gw.Invoke(ctx, gateway.Request{
		Image:            imageJPEG,
		Instruction:      scenePrompt,
		ExpectStructured: true,
	})
	if err != nil {
		return nil, err
	}

	var payload scenePayload
	if err := respparse.ParseInto(raw, &payload); err != nil {
		return nil, err
	}

	workingW := float64(rec.WorkingWidth)
	workingH := float64(rec.WorkingHeight)

	objects := make([]types.DetectedObject, 0, len(payload.Objects))
	for i, obj := range payload.Objects {
		id := obj.ObjectID
		if id == "" {
			id = fmt.Sprintf("obj_%d", i+1)
		}
		box := types.Box{
			X1: obj.BoundingBox.X1,
			Y1: obj.BoundingBox.Y1,
			X2: obj.BoundingBox.X2,
			Y2: obj.BoundingBox.Y2,
		}.Canonical().Clamp(workingW, workingH)

		confidence := obj.Confidence
		if confidence == 0 && obj.BoundingBox.Confidence > 0 {
			confidence = obj.BoundingBox.Confidence
		}

		objects = append(objects, types.DetectedObject{
			ID:          id,
			Label:       obj.Label,
			Category:    knowledge.Classify(obj.Label),
			Box:         box,
			Confidence:  clampUnit(confidence),
			Description: obj.Description,
		})
	}

	slog.Debug("scene analysis completed", "objects_found", len(objects))
	return &types.SceneResult{Objects: objects}, nil
}

// clampUnit limits a model-reported confidence to [0,1]. Models sometimes
// emit values outside the range; downstream averaging and best-confidence
// selection assume the unit interval.
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
