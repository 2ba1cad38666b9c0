package models

import "time"

// Point represents one judged scenario plotted on the morality graph.
// X is intent purity, Y is action weight, both in [-1, 1].
type Point struct {
	ID     string `json:"id" db:"id"`
	Action string `json:"action" db:"action"`
	Intent string `json:"intent" db:"intent"`

	// Coordinates
	X float64 `json:"x" db:"x"`
	Y float64 `json:"y" db:"y"`

	// Uncertainty bounds (nil when the model returned a point estimate only)
	XMin *float64 `json:"x_min,omitempty" db:"x_min"`
	XMax *float64 `json:"x_max,omitempty" db:"x_max"`
	YMin *float64 `json:"y_min,omitempty" db:"y_min"`
	YMax *float64 `json:"y_max,omitempty" db:"y_max"`

	// Display
	Label           string `json:"label" db:"label"`
	Mode            string `json:"mode" db:"mode"`
	ShowUncertainty bool   `json:"show_uncertainty" db:"show_uncertainty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Judgement mode constants. The mode selects which prompt template the model
// is judged under.
const (
	ModeDeontic     = "deontic"
	ModeUtilitarian = "utilitarian"
)

// IsValidMode reports whether s names a known judgement mode.
func IsValidMode(s string) bool {
	return s == ModeDeontic || s == ModeUtilitarian
}

// HasXBounds reports whether the point carries a full x uncertainty range.
func (p *Point) HasXBounds() bool {
	return p.XMin != nil && p.XMax != nil
}

// HasYBounds reports whether the point carries a full y uncertainty range.
func (p *Point) HasYBounds() bool {
	return p.YMin != nil && p.YMax != nil
}
