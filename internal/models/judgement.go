package models

import "time"

// Judgement is the normalized result of one model call: a coordinate pair with
// optional per-axis bounds, already clamped to the plot domain.
type Judgement struct {
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	XMin *float64 `json:"x_min,omitempty"`
	XMax *float64 `json:"x_max,omitempty"`
	YMin *float64 `json:"y_min,omitempty"`
	YMax *float64 `json:"y_max,omitempty"`
}

// CacheEntry holds the cached y-axis verdict for an action under one mode.
// Only the action weight and its bounds are cached; intent purity (x) is
// re-queried on every submission.
type CacheEntry struct {
	Key       string    `json:"key" db:"key"`
	Y         float64   `json:"y" db:"y"`
	YMin      *float64  `json:"y_min,omitempty" db:"y_min"`
	YMax      *float64  `json:"y_max,omitempty" db:"y_max"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
