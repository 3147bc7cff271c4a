package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graspmind/graspmind/pkg/gateway"
	"github.com/graspmind/graspmind/pkg/knowledge"
	"github.com/graspmind/graspmind/pkg/types"
)

// fakeGateway replays scripted responses in call order.
type fakeGateway struct {
	responses []string
	errs      []error
	calls     []gateway.Request
}

func (f *fakeGateway) Invoke(_ context.Context, req gateway.Request) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("unexpected gateway call %d", i)
}

// blockingGateway waits for the context to expire.
type blockingGateway struct{}

func (b *blockingGateway) Invoke(ctx context.Context, _ gateway.Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func testImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x % 251), uint8(y % 241), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const sceneCupJSON = `{
  "objects": [
    {
      "object_id": "obj_1",
      "label": "red cup",
      "description": "ceramic mug with a handle",
      "bounding_box": {"x1": 80, "y1": 90, "x2": 240, "y2": 260, "confidence": 0.9},
      "confidence": 0.92
    }
  ],
  "total_objects": 1
}`

const intentDrinkJSON = `{
  "intent_type": "drink",
  "target_object_id": "obj_1",
  "confidence": 0.95,
  "reasoning": "the user is thirsty",
  "priority_level": 2,
  "safety_requirements": ["check for hot liquid"]
}`

const partHandleJSON = `[{"bbox_2d": [100, 100, 200, 200], "label": "handle", "confidence": 0.88}]`

func newTestPipeline(t *testing.T, gw gateway.Client) *Pipeline {
	t.Helper()
	p, err := New(gw, knowledge.NewTable(), Options{Bound: 1024, Quality: 85})
	require.NoError(t, err)
	return p
}

func TestProcessEndToEnd(t *testing.T) {
	gw := &fakeGateway{responses: []string{sceneCupJSON, intentDrinkJSON, partHandleJSON}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 1600, 1200), "I want to drink some water")
	require.NoError(t, err)
	require.True(t, result.Success, "pipeline failed: %s", result.ErrorMessage)

	assert.Equal(t, []string{"SceneAnalysis", "StrategyResolution", "RegionExtraction"}, result.Completed)
	assert.Empty(t, result.Errors)

	// Strategy picked the cup's handle.
	require.NotNil(t, result.Strategy)
	assert.Equal(t, "obj_1", result.Strategy.TargetObject.ID)
	assert.Equal(t, types.CategoryCup, result.Strategy.TargetObject.Category)
	assert.Equal(t, "handle", result.Strategy.TargetPart.Name)
	assert.Equal(t, "drink", result.Strategy.Intent.IntentType)

	// 1600x1200 bound 1024 gives scale 0.64; the working-space box
	// (100,100,200,200) maps to (156.25,156.25,312.5,312.5).
	require.Len(t, result.Regions, 1)
	box := result.Regions[0].Box
	assert.InDelta(t, 156.25, box.X1, 1e-9)
	assert.InDelta(t, 156.25, box.Y1, 1e-9)
	assert.InDelta(t, 312.5, box.X2, 1e-9)
	assert.InDelta(t, 312.5, box.Y2, 1e-9)

	// Mask is in original-image dimensions.
	require.NotNil(t, result.Mask)
	assert.Equal(t, 1600, result.Mask.Width)
	assert.Equal(t, 1200, result.Mask.Height)
	assert.Equal(t, uint8(1), result.Mask.Pixels[200][200])
	assert.Equal(t, uint8(0), result.Mask.Pixels[100][100])
	assert.Equal(t, "obj_1", result.Mask.ObjectID)
	assert.Equal(t, "handle", result.Mask.PartName)

	// Stage calls: image for scene and part localization, text-only for intent.
	require.Len(t, gw.calls, 3)
	assert.NotEmpty(t, gw.calls[0].Image)
	assert.Empty(t, gw.calls[1].Image)
	assert.NotEmpty(t, gw.calls[2].Image)
	assert.Contains(t, gw.calls[1].Instruction, "I want to drink some water")
	assert.Contains(t, gw.calls[2].Instruction, "handle")
}

func TestProcessShortCircuitsOnSceneFailure(t *testing.T) {
	gw := &fakeGateway{errs: []error{errors.New("model offline")}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "hand me the cup")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "SceneAnalysis", result.FailedStage)
	assert.Equal(t, []string{}, result.Completed)
	assert.Equal(t, []string{"SceneAnalysis: model offline"}, result.Errors)
	assert.Nil(t, result.Strategy)
	assert.Nil(t, result.Mask)
	// Later stages were never invoked.
	assert.Len(t, gw.calls, 1)
}

func TestProcessEmptySceneReachesStrategist(t *testing.T) {
	gw := &fakeGateway{responses: []string{
		`{"objects": [], "total_objects": 0}`,
		`{"intent_type": "drink", "target_object_id": null, "confidence": 0.4, "priority_level": 1}`,
	}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "I want to drink some water")
	require.NoError(t, err)

	// An empty scene is a successful analysis; the strategist is the one
	// that fails for lack of a candidate.
	assert.False(t, result.Success)
	assert.Equal(t, []string{"SceneAnalysis"}, result.Completed)
	assert.Equal(t, "StrategyResolution", result.FailedStage)
	assert.Contains(t, result.ErrorMessage, "no candidate object")
	assert.Len(t, gw.calls, 2)
}

func TestProcessMalformedSceneResponse(t *testing.T) {
	gw := &fakeGateway{responses: []string{"not json at all"}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "hand me the cup")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "SceneAnalysis", result.FailedStage)
	assert.Contains(t, result.ErrorMessage, "malformed")
	assert.Empty(t, result.Completed)
}

func TestProcessMalformedPartResponse(t *testing.T) {
	gw := &fakeGateway{responses: []string{sceneCupJSON, intentDrinkJSON, "I cannot find it, sorry"}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "I want to drink some water")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "RegionExtraction", result.FailedStage)
	assert.Equal(t, []string{"SceneAnalysis", "StrategyResolution"}, result.Completed)
	// No partial outputs on failure.
	assert.Nil(t, result.Strategy)
	assert.Nil(t, result.Mask)
}

func TestProcessEmptyPartListYieldsAllZeroMask(t *testing.T) {
	gw := &fakeGateway{responses: []string{sceneCupJSON, intentDrinkJSON, "[]"}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "I want to drink some water")
	require.NoError(t, err)

	require.True(t, result.Success)
	require.NotNil(t, result.Mask)
	assert.True(t, result.Mask.Empty())
	assert.Empty(t, result.Regions)
	assert.Equal(t, 400, result.Mask.Width)
	assert.Equal(t, 300, result.Mask.Height)
}

func TestProcessSwappedPartCorners(t *testing.T) {
	swapped := `[{"bbox_2d": [200, 200, 100, 100], "label": "handle", "confidence": 0.8}]`
	gw := &fakeGateway{responses: []string{sceneCupJSON, intentDrinkJSON, swapped}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "I want to drink some water")
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Len(t, result.Regions, 1)
	box := result.Regions[0].Box
	assert.Equal(t, 100.0, box.X1)
	assert.Equal(t, 100.0, box.Y1)
	assert.Equal(t, 200.0, box.X2)
	assert.Equal(t, 200.0, box.Y2)
}

func TestProcessStageTimeout(t *testing.T) {
	p, err := New(&blockingGateway{}, knowledge.NewTable(), Options{
		Bound:        1024,
		Quality:      85,
		StageTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "hand me the cup")
	require.NoError(t, err)

	// A timeout fails the stage exactly like a wrong answer would.
	assert.False(t, result.Success)
	assert.Equal(t, "SceneAnalysis", result.FailedStage)
	assert.Empty(t, result.Completed)
}

func TestProcessValidatesInputs(t *testing.T) {
	p := newTestPipeline(t, &fakeGateway{})

	var invalid *types.InvalidInputError
	_, err := p.Process(context.Background(), nil, "hand me the cup")
	require.ErrorAs(t, err, &invalid)

	_, err = p.Process(context.Background(), testImage(t, 10, 10), "   ")
	require.ErrorAs(t, err, &invalid)

	var unreadable *types.UnreadableImageError
	_, err = p.Process(context.Background(), []byte("garbage"), "hand me the cup")
	require.ErrorAs(t, err, &unreadable)
}

func TestProcessIntentRoutingWithoutExplicitID(t *testing.T) {
	scene := `{
	  "objects": [
	    {"object_id": "obj_1", "label": "notebook", "bounding_box": {"x1": 0, "y1": 0, "x2": 50, "y2": 50}, "confidence": 0.99},
	    {"object_id": "obj_2", "label": "steel scissors", "bounding_box": {"x1": 60, "y1": 60, "x2": 120, "y2": 120}, "confidence": 0.7}
	  ],
	  "total_objects": 2
	}`
	intent := `{"intent_type": "cut", "target_object_id": null, "confidence": 0.8, "priority_level": 1}`
	part := `[{"bbox_2d": [70, 70, 90, 110], "label": "handles", "confidence": 0.9}]`

	gw := &fakeGateway{responses: []string{scene, intent, part}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "I need to cut this ribbon")
	require.NoError(t, err)
	require.True(t, result.Success, "pipeline failed: %s", result.ErrorMessage)

	// Category routing beats raw confidence: the scissors win over the
	// higher-confidence notebook.
	assert.Equal(t, "obj_2", result.Strategy.TargetObject.ID)
	assert.Equal(t, "handles", result.Strategy.TargetPart.Name)
}

func TestProcessClampsModelConfidences(t *testing.T) {
	scene := `{
	  "objects": [
	    {"object_id": "obj_1", "label": "red cup", "bounding_box": {"x1": 10, "y1": 10, "x2": 100, "y2": 100}, "confidence": 1.5},
	    {"object_id": "obj_2", "label": "garden gnome", "bounding_box": {"x1": 110, "y1": 10, "x2": 200, "y2": 100}, "confidence": 0.9}
	  ],
	  "total_objects": 2
	}`
	intent := `{"intent_type": "admire", "target_object_id": null, "confidence": 0.8, "priority_level": 1}`
	part := `[{"bbox_2d": [20, 20, 60, 60], "label": "handle", "confidence": 2.0}, {"bbox_2d": [10, 10, 15, 15], "label": "handle", "confidence": -0.5}]`

	gw := &fakeGateway{responses: []string{scene, intent, part}}
	p := newTestPipeline(t, gw)

	result, err := p.Process(context.Background(), testImage(t, 400, 300), "look at that")
	require.NoError(t, err)
	require.True(t, result.Success, "pipeline failed: %s", result.ErrorMessage)

	// The 1.5 is clamped to 1.0, which still beats the gnome's 0.9 in the
	// best-confidence fallback, but never leaves the unit interval.
	assert.Equal(t, "obj_1", result.Strategy.TargetObject.ID)
	assert.Equal(t, 1.0, result.Strategy.TargetObject.Confidence)

	require.Len(t, result.Regions, 2)
	assert.Equal(t, 1.0, result.Regions[0].Confidence)
	assert.Equal(t, 0.0, result.Regions[1].Confidence)
	assert.InDelta(t, 0.5, result.Mask.Confidence, 1e-9)
}

func TestStatus(t *testing.T) {
	p := newTestPipeline(t, &fakeGateway{})
	status := p.Status()
	assert.Equal(t, 1024, status.Bound)
	assert.Equal(t, 85, status.Quality)
}
