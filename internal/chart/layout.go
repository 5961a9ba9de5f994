package chart

import (
	"fmt"
	"math"
	"strconv"
)

// StartAngle is where the first slice begins: 12 o'clock on a y-down surface.
const StartAngle = -math.Pi / 2

const fullTurn = 2 * math.Pi

// Slice is one wedge of the pie. Angles are radians on a y-down surface, so
// increasing angles run clockwise.
type Slice struct {
	StartAngle float64
	EndAngle   float64
	Name       string
	Seconds    int64
	Percentage string
}

// Width returns the angular width of the slice.
func (s Slice) Width() float64 {
	return s.EndAngle - s.StartAngle
}

// Mid returns the bisecting angle of the slice.
func (s Slice) Mid() float64 {
	return (s.StartAngle + s.EndAngle) / 2
}

// Layout turns aggregated categories into contiguous slices covering a full
// turn, in input order. It returns nil when there is nothing to draw (no
// categories, or all of them at zero seconds); callers show a placeholder.
func Layout(cats []AggregatedCategory) []Slice {
	total := Total(cats)
	if len(cats) == 0 || total <= 0 {
		return nil
	}

	slices := make([]Slice, 0, len(cats))
	current := StartAngle
	for _, c := range cats {
		frac := float64(c.TotalSeconds) / float64(total)
		angle := frac * fullTurn
		slices = append(slices, Slice{
			StartAngle: current,
			EndAngle:   current + angle,
			Name:       c.Name,
			Seconds:    c.TotalSeconds,
			Percentage: strconv.FormatFloat(frac*100, 'f', 1, 64),
		})
		current += angle
	}
	return slices
}

// FormatTime renders whole seconds as HH:MM:SS. Hours are not capped at 24.
func FormatTime(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
