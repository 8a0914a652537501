package viewstate

import "math"

// MinPanelFraction is the live floor applied to each panel during
// interactive resize, the proportional stand-in for a minimum pixel width.
const MinPanelFraction = 0.1

// PanelLayout holds three panel proportions summing to 1.
type PanelLayout struct {
	Left   float64 `json:"left"`
	Middle float64 `json:"middle"`
	Right  float64 `json:"right"`
}

// DefaultLayout splits the three panels evenly.
func DefaultLayout() PanelLayout {
	third := 1.0 / 3.0
	return PanelLayout{Left: third, Middle: third, Right: third}
}

// Valid reports whether all proportions are positive and sum to 1 within
// floating point tolerance.
func (l PanelLayout) Valid() bool {
	if l.Left <= 0 || l.Middle <= 0 || l.Right <= 0 {
		return false
	}
	return math.Abs(l.Left+l.Middle+l.Right-1) < 1e-6
}

// Normalize rescales the proportions to sum to 1. Non-positive layouts
// fall back to the default split.
func (l PanelLayout) Normalize() PanelLayout {
	sum := l.Left + l.Middle + l.Right
	if sum <= 0 || l.Left < 0 || l.Middle < 0 || l.Right < 0 {
		return DefaultLayout()
	}
	return PanelLayout{Left: l.Left / sum, Middle: l.Middle / sum, Right: l.Right / sum}
}

// ClampMin raises any panel below minFrac to minFrac, taking the excess
// proportionally from the panels above the floor. Applied live during
// interactive resize.
func (l PanelLayout) ClampMin(minFrac float64) PanelLayout {
	if minFrac <= 0 || minFrac > 1.0/3.0 {
		minFrac = MinPanelFraction
	}
	out := l.Normalize()

	panels := [3]*float64{&out.Left, &out.Middle, &out.Right}
	deficit := 0.0
	surplus := 0.0
	for _, p := range panels {
		if *p < minFrac {
			deficit += minFrac - *p
			*p = minFrac
		} else {
			surplus += *p - minFrac
		}
	}
	if deficit == 0 || surplus <= 0 {
		return out
	}
	for _, p := range panels {
		if *p > minFrac {
			*p -= deficit * (*p - minFrac) / surplus
		}
	}
	return out
}
