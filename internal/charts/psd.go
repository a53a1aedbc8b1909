package charts

import (
	"fmt"
	"math"

	"neurosense-client/internal/analysis"
)

// FreqRange is an inclusive frequency window in Hz.
type FreqRange struct {
	Name string
	Low  float64
	High float64
}

// Named PSD view ranges.
var (
	RangeFull  = FreqRange{Name: "full", Low: 0, High: 50}
	RangeAlpha = FreqRange{Name: "alpha", Low: 8, High: 13}
	RangeBeta  = FreqRange{Name: "beta", Low: 13, High: 30}
	RangeGamma = FreqRange{Name: "gamma", Low: 30, High: 50}
)

// PSDPoint is one frequency/power sample.
type PSDPoint struct {
	Frequency float64
	Power     float64
}

// PSDSeries is a drawable PSD curve filtered to a frequency range.
type PSDSeries struct {
	Range    FreqRange
	LogScale bool
	Unit     string
	Points   []PSDPoint
	Empty    bool
}

// PSDView filters the PSD curve to the given range, preserving sample order.
// Bounds are inclusive. An empty filter result is a valid view with Empty
// set, never an error. Filtering is idempotent for identical bounds.
func PSDView(psd *analysis.PSD, r FreqRange, logScale bool) PSDSeries {
	out := PSDSeries{Range: r, LogScale: logScale, Unit: "µV²/Hz"}
	if logScale {
		out.Unit = "dB"
	}
	if psd == nil {
		out.Empty = true
		return out
	}
	for i, freq := range psd.Frequencies {
		if i >= len(psd.Power) {
			break
		}
		if freq < r.Low || freq > r.High {
			continue
		}
		out.Points = append(out.Points, PSDPoint{Frequency: freq, Power: psd.Power[i]})
	}
	out.Empty = len(out.Points) == 0
	return out
}

// Display formats a power value in the series unit.
func (s PSDSeries) Display(power float64) string {
	if s.LogScale {
		if power <= 0 {
			return "-inf dB"
		}
		return fmt.Sprintf("%.1f dB", 10*math.Log10(power))
	}
	return fmt.Sprintf("%.3f µV²/Hz", power)
}

// Peak returns the sample with the highest power, or false when the series
// is empty.
func (s PSDSeries) Peak() (PSDPoint, bool) {
	if len(s.Points) == 0 {
		return PSDPoint{}, false
	}
	best := s.Points[0]
	for _, p := range s.Points[1:] {
		if p.Power > best.Power {
			best = p
		}
	}
	return best, true
}
