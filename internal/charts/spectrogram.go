package charts

// TimeRange is an absolute time window in milliseconds.
type TimeRange struct {
	Start float64
	End   float64
}

// clickWindowMs is the full width of the window opened around a click.
const clickWindowMs = 2000

// ClickTime maps a horizontal click fraction onto the recording range by
// linear interpolation. Fractions outside [0,1] clamp to the edges.
func ClickTime(r TimeRange, fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return r.Start + fraction*(r.End-r.Start)
}

// ClickWindow returns the symmetric window around the clicked position,
// clamped to the recording range.
func ClickWindow(r TimeRange, fraction float64) TimeRange {
	center := ClickTime(r, fraction)
	half := float64(clickWindowMs) / 2
	out := TimeRange{Start: center - half, End: center + half}
	if out.Start < r.Start {
		out.Start = r.Start
	}
	if out.End > r.End {
		out.End = r.End
	}
	return out
}
