package viz

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/moralgraph/moralgraph-backend-go/internal/models"
)

// Plot-plane constants. Marks and ellipses are expressed in the [-1,1] data
// domain; scaling to pixels is the page's job.
const (
	markRadius = 0.02
)

// Mark is one drawable point on the morality graph
type Mark struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Color   string  `json:"color"`
	Label   string  `json:"label"`
	Tooltip string  `json:"tooltip"`
}

// Ellipse is the uncertainty region of one mark
type Ellipse struct {
	PointID string  `json:"point_id"`
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	RX      float64 `json:"rx"`
	RY      float64 `json:"ry"`
	Color   string  `json:"color"`
}

// Axis describes one plot axis for the page to label
type Axis struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Quadrant labels the four regions of the graph
type Quadrant struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Scene is everything the page needs to draw the current store declaratively
type Scene struct {
	XAxis     Axis       `json:"x_axis"`
	YAxis     Axis       `json:"y_axis"`
	Quadrants []Quadrant `json:"quadrants"`
	Marks     []Mark     `json:"marks"`
	Ellipses  []Ellipse  `json:"ellipses"`
}

// BuildScene maps the point store to visual marks and uncertainty regions.
// It is a pure function of its input; hover state stays on the client.
func BuildScene(points []*models.Point) *Scene {
	scene := &Scene{
		XAxis: Axis{Name: "intent purity", Min: -1, Max: 1},
		YAxis: Axis{Name: "action weight", Min: -1, Max: 1},
		Quadrants: []Quadrant{
			{Label: "noble deed", X: 0.5, Y: 0.5},
			{Label: "lucky accident", X: -0.5, Y: 0.5},
			{Label: "honest mistake", X: 0.5, Y: -0.5},
			{Label: "malice", X: -0.5, Y: -0.5},
		},
		Marks:    make([]Mark, 0, len(points)),
		Ellipses: make([]Ellipse, 0),
	}

	for _, p := range points {
		scene.Marks = append(scene.Marks, Mark{
			ID:      p.ID,
			X:       p.X,
			Y:       p.Y,
			Radius:  markRadius,
			Color:   colorFor(p.Mode),
			Label:   p.Label,
			Tooltip: tooltipFor(p),
		})

		if e, ok := ellipseFor(p); ok {
			scene.Ellipses = append(scene.Ellipses, e)
		}
	}

	return scene
}

// ellipseFor builds the uncertainty region of a point. A point contributes an
// ellipse only when its flag is on and at least one bound pair is present; a
// missing or zero-width axis collapses to the mark radius.
func ellipseFor(p *models.Point) (Ellipse, bool) {
	if !p.ShowUncertainty {
		return Ellipse{}, false
	}
	if !p.HasXBounds() && !p.HasYBounds() {
		return Ellipse{}, false
	}

	lo := r2.Point{X: p.X - markRadius, Y: p.Y - markRadius}
	hi := r2.Point{X: p.X + markRadius, Y: p.Y + markRadius}
	if p.HasXBounds() {
		lo.X, hi.X = *p.XMin, *p.XMax
	}
	if p.HasYBounds() {
		lo.Y, hi.Y = *p.YMin, *p.YMax
	}

	rect := r2.RectFromPoints(lo, hi)
	center := rect.Center()
	size := rect.Size()

	rx := size.X / 2
	if rx < markRadius {
		rx = markRadius
	}
	ry := size.Y / 2
	if ry < markRadius {
		ry = markRadius
	}

	return Ellipse{
		PointID: p.ID,
		CX:      center.X,
		CY:      center.Y,
		RX:      rx,
		RY:      ry,
		Color:   colorFor(p.Mode),
	}, true
}

// colorFor maps a judgement mode to the page's color class
func colorFor(mode string) string {
	if mode == models.ModeUtilitarian {
		return "utilitarian"
	}
	return "deontic"
}

// tooltipFor builds the hover text for a mark
func tooltipFor(p *models.Point) string {
	return fmt.Sprintf("%s — %s (x=%.2f, y=%.2f)", p.Action, p.Intent, p.X, p.Y)
}
