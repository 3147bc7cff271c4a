package pipeline

import (
	"fmt"
	"strings"

	"github.com/graspmind/graspmind/pkg/types"
)

// scenePrompt asks the model to enumerate every visible object with pixel
// coordinates relative to the supplied (working-resolution) image.
const scenePrompt = `You are an image scene analyst for a robotic grasping assistant.

Identify every main object visible in this image, with particular attention
to objects a person might ask for: cups, scissors, bottles, knives, cutlery,
plates, bowls, books, pens, phones.

For each object give a tight bounding box in pixel coordinates of THIS image,
a short description (color, shape, material), and a confidence in [0,1].

Return JSON only, no markdown, no code fences, no comments:
{
  "objects": [
    {
      "object_id": "obj_1",
      "label": "object name",
      "description": "short description",
      "bounding_box": {"x1": 0, "y1": 0, "x2": 0, "y2": 0, "confidence": 0.0},
      "confidence": 0.0
    }
  ],
  "total_objects": 0
}

If no objects are visible, return {"objects": [], "total_objects": 0}.`

// intentPrompt asks the model to read the user's instruction against the
// detected objects. Text-only; no image is attached.
func intentPrompt(instruction string, scene *types.SceneResult) string {
	var objects strings.Builder
	for _, obj := range scene.Objects {
		fmt.Fprintf(&objects, "- %s (id: %s, category: %s)\n", obj.Label, obj.ID, obj.Category)
	}
	objectsText := objects.String()
	if objectsText == "" {
		objectsText = "(none)\n"
	}

	return fmt.Sprintf(`You are an interaction strategist for a robotic grasping assistant.

User instruction: %q

Objects in the scene:
%s
Determine the user's intent and which object they most likely want.
Intent types include: drink, eat, cut, write, read, call. Use another short
verb if none fits.

Return JSON only, no markdown, no code fences:
{
  "intent_type": "intent type",
  "target_object_id": "object id or null",
  "confidence": 0.0,
  "reasoning": "short reasoning",
  "priority_level": 1,
  "safety_requirements": ["requirement"]
}`, instruction, objectsText)
}

// partPrompt asks the model to localize the chosen functional part of the
// target object, again in pixel coordinates of the supplied image.
func partPrompt(strat *types.Strategy) string {
	return fmt.Sprintf(`You are a precision part locator for a robotic grasping assistant.

Locate the %q of the %q in this image (%s). Report every region that belongs
to that part as a tight bounding box in pixel coordinates of THIS image.

Return a JSON array only, no markdown, no code fences:
[{"bbox_2d": [x1, y1, x2, y2], "label": "part name", "confidence": 0.0}]

If the part is not visible, return [].`,
		strat.TargetPart.Name, strat.TargetObject.Label, strat.TargetPart.Function)
}
