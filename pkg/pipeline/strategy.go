package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/graspmind/graspmind/pkg/gateway"
	"github.com/graspmind/graspmind/pkg/knowledge"
	"github.com/graspmind/graspmind/pkg/respparse"
	"github.com/graspmind/graspmind/pkg/types"
)

// errNoCandidate is the strategy stage's answer to a scene that offers
// nothing to act on. An empty scene reaches this stage as data; deciding
// it is unworkable happens here, not during scene analysis.
var errNoCandidate = errors.New("no candidate object in scene")

// intentPayload mirrors the JSON the intent prompt requests.
type intentPayload struct {
	IntentType         string   `json:"intent_type"`
	TargetObjectID     string   `json:"target_object_id"`
	Confidence         float64  `json:"confidence"`
	Reasoning          string   `json:"reasoning"`
	PriorityLevel      int      `json:"priority_level"`
	SafetyRequirements []string `json:"safety_requirements"`
}

// resolveStrategy runs the strategy-resolution stage: a text-only
// recognition call to read the user's intent, then object and part
// selection against the knowledge table.
func resolveStrategy(ctx context.Context, gw gateway.Client, table *knowledge.Table, instruction string, scene *types.SceneResult) (*types.Strategy, error) {
	raw, err := gw.Invoke(ctx, gateway.Request{
		Instruction:      intentPrompt(instruction, scene),
		ExpectStructured: true,
	})
	if err != nil {
		return nil, err
	}

	var payload intentPayload
	if err := respparse.ParseInto(raw, &payload); err != nil {
		return nil, err
	}

	intent := types.UserIntent{
		RawInstruction:     instruction,
		IntentType:         payload.IntentType,
		TargetObjectID:     payload.TargetObjectID,
		PriorityLevel:      payload.PriorityLevel,
		SafetyRequirements: payload.SafetyRequirements,
	}
	if intent.PriorityLevel < 1 {
		intent.PriorityLevel = 1
	}

	target, err := selectTarget(intent, scene)
	if err != nil {
		return nil, err
	}
	part := table.SelectPart(target.Category)

	slog.Debug("strategy resolved",
		"intent", intent.IntentType,
		"target", target.Label,
		"part", part.Name)

	return &types.Strategy{
		TargetObject: *target,
		TargetPart:   part,
		Intent:       intent,
		Rationale:    rationale(intent, target, part),
		SafetyNotes:  safetyNotes(target, part),
		Execution:    executionPlan(target, part),
	}, nil
}

// selectTarget picks the object to grasp: the intent's explicit id first,
// then intent-to-category routing, then the highest-confidence object.
func selectTarget(intent types.UserIntent, scene *types.SceneResult) (*types.DetectedObject, error) {
	if len(scene.Objects) == 0 {
		return nil, errNoCandidate
	}

	if intent.TargetObjectID != "" && intent.TargetObjectID != "null" {
		for i := range scene.Objects {
			if scene.Objects[i].ID == intent.TargetObjectID {
				return &scene.Objects[i], nil
			}
		}
	}

	for _, cat := range knowledge.CategoriesForIntent(intent.IntentType) {
		for i := range scene.Objects {
			if scene.Objects[i].Category == cat {
				return &scene.Objects[i], nil
			}
		}
	}

	best := &scene.Objects[0]
	for i := range scene.Objects[1:] {
		if scene.Objects[i+1].Confidence > best.Confidence {
			best = &scene.Objects[i+1]
		}
	}
	return best, nil
}

func rationale(intent types.UserIntent, target *types.DetectedObject, part types.FunctionalPart) string {
	return fmt.Sprintf(
		"Intent %q is served by the %s; grasping its %s because it is the %s (safety %.2f, ergonomics %.2f).",
		intent.IntentType, target.Label, part.Name, part.Function, part.SafetyScore, part.ErgonomicScore)
}

func safetyNotes(target *types.DetectedObject, part types.FunctionalPart) []string {
	notes := []string{
		fmt.Sprintf("grasp the %s to keep the manipulation safe", part.Name),
		"avoid contact with hazardous sections of the object",
		"use moderate grip force to avoid damaging the object",
	}
	switch target.Category {
	case types.CategoryScissors:
		notes = append(notes,
			"never contact the blades",
			"hand over with the tips pointing down and the handles toward the user")
	case types.CategoryKnife:
		notes = append(notes,
			"never contact the blade",
			"hand over with the handle toward the user and the edge pointing down")
	case types.CategoryCup:
		notes = append(notes,
			"check for hot liquid before lifting",
			"keep the cup level to avoid spilling")
	}
	return notes
}

func executionPlan(target *types.DetectedObject, part types.FunctionalPart) string {
	return fmt.Sprintf(
		"Locate the %s of the %s, extract its pixel region, and present the object so the user can receive it safely.",
		part.Name, target.Label)
}
