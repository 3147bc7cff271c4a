package types

// Box is an axis-aligned rectangle in pixel coordinates with (X1,Y1) as the
// top-left corner and (X2,Y2) as the bottom-right corner.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Canonical returns the box with corners reordered so that X1 <= X2 and
// Y1 <= Y2. Vision models occasionally emit swapped corners; those are
// corrected rather than rejected.
func (b Box) Canonical() Box {
	if b.X1 > b.X2 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y1 > b.Y2 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

// Clamp limits the box to [0,width] x [0,height].
func (b Box) Clamp(width, height float64) Box {
	b.X1 = clamp(b.X1, 0, width)
	b.Y1 = clamp(b.Y1, 0, height)
	b.X2 = clamp(b.X2, 0, width)
	b.Y2 = clamp(b.Y2, 0, height)
	return b
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Area returns the area of the box.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// Center returns the center point of the box.
func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Ints truncates the box coordinates to integers. Coordinates stay floating
// point through every internal transform; truncation happens only here, at
// the boundary handed to external consumers.
func (b Box) Ints() (x1, y1, x2, y2 int) {
	return int(b.X1), int(b.Y1), int(b.X2), int(b.Y2)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Region is a labeled box with a detection confidence.
type Region struct {
	Box        Box     `json:"box"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ObjectCategory classifies a detected object against the functional-part
// knowledge table.
type ObjectCategory string

const (
	CategoryCup      ObjectCategory = "cup"
	CategoryScissors ObjectCategory = "scissors"
	CategoryBottle   ObjectCategory = "bottle"
	CategoryKnife    ObjectCategory = "knife"
	CategoryFork     ObjectCategory = "fork"
	CategorySpoon    ObjectCategory = "spoon"
	CategoryPlate    ObjectCategory = "plate"
	CategoryBowl     ObjectCategory = "bowl"
	CategoryBook     ObjectCategory = "book"
	CategoryPen      ObjectCategory = "pen"
	CategoryPhone    ObjectCategory = "phone"
	CategoryUnknown  ObjectCategory = "unknown"
)

// DetectedObject is one object reported by the scene-analysis stage. ID is
// unique within one scene result and is the join key later stages use to
// refer back to the object.
type DetectedObject struct {
	ID          string         `json:"object_id"`
	Label       string         `json:"label"`
	Category    ObjectCategory `json:"category"`
	Box         Box            `json:"box"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description,omitempty"`
}

// SceneResult is the validated output of the scene-analysis stage. An empty
// object list is a valid scene result, not a failure.
type SceneResult struct {
	Objects []DetectedObject `json:"objects"`
}

// FunctionalPart names a sub-region of an object that is preferable (or
// unsafe) to grasp. Lower GraspPriority means more preferred.
type FunctionalPart struct {
	Name           string  `json:"name"`
	Function       string  `json:"function"`
	SafetyScore    float64 `json:"safety_score"`
	ErgonomicScore float64 `json:"ergonomic_score"`
	GraspPriority  int     `json:"grasp_priority"`
}

// UserIntent is the structured reading of the user's instruction produced
// during strategy resolution.
type UserIntent struct {
	RawInstruction     string   `json:"raw_instruction"`
	IntentType         string   `json:"intent_type"`
	TargetObjectID     string   `json:"target_object_id,omitempty"`
	PriorityLevel      int      `json:"priority_level"`
	SafetyRequirements []string `json:"safety_requirements,omitempty"`
}

// Strategy binds a target object to the functional part chosen for grasping.
// Created once per request by the strategy stage and immutable afterward.
type Strategy struct {
	TargetObject DetectedObject `json:"target_object"`
	TargetPart   FunctionalPart `json:"target_part"`
	Intent       UserIntent     `json:"intent"`
	Rationale    string         `json:"rationale"`
	SafetyNotes  []string       `json:"safety_notes"`
	Execution    string         `json:"execution_instructions"`
}
