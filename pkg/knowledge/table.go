// Package knowledge holds the static functional-part table: for each object
// category, the named sub-regions that are safe or unsafe to grasp. The
// table is built once at process start, is read-only afterward, and is
// passed explicitly to the strategy stage so tests can substitute fixtures.
package knowledge

import (
	"strings"

	"github.com/graspmind/graspmind/pkg/types"
)

// GenericPart is the fallback when a category has no table entry.
var GenericPart = types.FunctionalPart{
	Name:           "body",
	Function:       "main section of the object",
	SafetyScore:    0.7,
	ErgonomicScore: 0.7,
	GraspPriority:  1,
}

// Table maps object categories to their known functional parts.
type Table struct {
	parts map[types.ObjectCategory][]types.FunctionalPart
}

// NewTable builds the default functional-part table.
func NewTable() *Table {
	return &Table{parts: map[types.ObjectCategory][]types.FunctionalPart{
		types.CategoryCup: {
			{Name: "handle", Function: "safe grip point that avoids contact with hot liquid", SafetyScore: 0.95, ErgonomicScore: 0.9, GraspPriority: 1},
			{Name: "body", Function: "main vessel holding the liquid, may be hot", SafetyScore: 0.3, ErgonomicScore: 0.5, GraspPriority: 3},
		},
		types.CategoryScissors: {
			{Name: "handles", Function: "finger rings providing a safe grip", SafetyScore: 0.9, ErgonomicScore: 0.95, GraspPriority: 1},
			{Name: "blades", Function: "cutting edges", SafetyScore: 0.1, ErgonomicScore: 0.1, GraspPriority: 5},
		},
		types.CategoryKnife: {
			{Name: "handle", Function: "hand-held section giving safe control", SafetyScore: 0.85, ErgonomicScore: 0.9, GraspPriority: 1},
			{Name: "blade", Function: "cutting edge", SafetyScore: 0.05, ErgonomicScore: 0.1, GraspPriority: 5},
		},
		types.CategoryBottle: {
			{Name: "body", Function: "cylindrical section sized for a hand", SafetyScore: 0.9, ErgonomicScore: 0.85, GraspPriority: 1},
			{Name: "neck", Function: "narrow section below the cap", SafetyScore: 0.7, ErgonomicScore: 0.6, GraspPriority: 2},
		},
		types.CategoryFork: {
			{Name: "handle", Function: "hand-held section", SafetyScore: 0.9, ErgonomicScore: 0.9, GraspPriority: 1},
			{Name: "tines", Function: "pointed prongs", SafetyScore: 0.3, ErgonomicScore: 0.2, GraspPriority: 4},
		},
		types.CategorySpoon: {
			{Name: "handle", Function: "hand-held section", SafetyScore: 0.95, ErgonomicScore: 0.9, GraspPriority: 1},
			{Name: "bowl", Function: "scooping end, may carry food", SafetyScore: 0.6, ErgonomicScore: 0.4, GraspPriority: 3},
		},
		types.CategoryPlate: {
			{Name: "rim", Function: "outer edge clear of food", SafetyScore: 0.85, ErgonomicScore: 0.8, GraspPriority: 1},
		},
		types.CategoryBowl: {
			{Name: "rim", Function: "outer edge clear of contents", SafetyScore: 0.8, ErgonomicScore: 0.75, GraspPriority: 1},
			{Name: "base", Function: "bottom support", SafetyScore: 0.7, ErgonomicScore: 0.5, GraspPriority: 2},
		},
		types.CategoryBook: {
			{Name: "spine", Function: "bound edge keeping pages together", SafetyScore: 0.95, ErgonomicScore: 0.85, GraspPriority: 1},
		},
		types.CategoryPen: {
			{Name: "barrel", Function: "shaft above the tip", SafetyScore: 0.95, ErgonomicScore: 0.9, GraspPriority: 1},
			{Name: "tip", Function: "writing end, may leak ink", SafetyScore: 0.5, ErgonomicScore: 0.3, GraspPriority: 3},
		},
		types.CategoryPhone: {
			{Name: "edges", Function: "side frame clear of the screen", SafetyScore: 0.9, ErgonomicScore: 0.85, GraspPriority: 1},
		},
	}}
}

// NewFixtureTable builds a table from explicit entries, for tests.
func NewFixtureTable(parts map[types.ObjectCategory][]types.FunctionalPart) *Table {
	return &Table{parts: parts}
}

// PartsFor returns the known parts of a category, nil when unrecognized.
func (t *Table) PartsFor(cat types.ObjectCategory) []types.FunctionalPart {
	return t.parts[cat]
}

// SelectPart picks the grasp target for a category: among parts with
// safety score above 0.5 the lowest grasp priority wins; if nothing is
// safe, the relatively safest part wins; unknown categories get the
// generic fallback part.
func (t *Table) SelectPart(cat types.ObjectCategory) types.FunctionalPart {
	available := t.parts[cat]
	if len(available) == 0 {
		return GenericPart
	}

	var safe []types.FunctionalPart
	for _, p := range available {
		if p.SafetyScore > 0.5 {
			safe = append(safe, p)
		}
	}
	if len(safe) > 0 {
		best := safe[0]
		for _, p := range safe[1:] {
			if p.GraspPriority < best.GraspPriority {
				best = p
			}
		}
		return best
	}

	best := available[0]
	for _, p := range available[1:] {
		if p.SafetyScore > best.SafetyScore {
			best = p
		}
	}
	return best
}

// categoryKeywords maps label substrings to categories. Order matters for
// ambiguous labels ("knife" before "fork" is irrelevant, but "teacup"
// should hit cup, so broader words come last).
var categoryKeywords = []struct {
	keyword  string
	category types.ObjectCategory
}{
	{"scissor", types.CategoryScissors},
	{"shears", types.CategoryScissors},
	{"bottle", types.CategoryBottle},
	{"knife", types.CategoryKnife},
	{"fork", types.CategoryFork},
	{"spoon", types.CategorySpoon},
	{"plate", types.CategoryPlate},
	{"dish", types.CategoryPlate},
	{"bowl", types.CategoryBowl},
	{"book", types.CategoryBook},
	{"pencil", types.CategoryPen},
	{"pen", types.CategoryPen},
	{"phone", types.CategoryPhone},
	{"mug", types.CategoryCup},
	{"cup", types.CategoryCup},
	{"glass", types.CategoryCup},
}

// Classify maps a free-text object label to a category, falling back to
// unknown.
func Classify(label string) types.ObjectCategory {
	lower := strings.ToLower(label)
	for _, entry := range categoryKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.category
		}
	}
	return types.CategoryUnknown
}

// intentCategories routes an intent type to the object categories that
// typically satisfy it.
var intentCategories = map[string][]types.ObjectCategory{
	"drink": {types.CategoryCup, types.CategoryBottle},
	"eat":   {types.CategoryFork, types.CategorySpoon, types.CategoryKnife, types.CategoryBowl, types.CategoryPlate},
	"cut":   {types.CategoryScissors, types.CategoryKnife},
	"write": {types.CategoryPen},
	"read":  {types.CategoryBook},
	"call":  {types.CategoryPhone},
}

// CategoriesForIntent returns the categories that match an intent type,
// nil for unrecognized intents.
func CategoriesForIntent(intentType string) []types.ObjectCategory {
	return intentCategories[strings.ToLower(strings.TrimSpace(intentType))]
}
