// Package charts adapts normalized analysis results into drawable series for
// the band power, PSD and spectrogram views.
package charts

import "neurosense-client/internal/analysis"

// Band display palette, matching the product's visualization colors.
var bandColors = map[string]string{
	analysis.BandDelta: "#FF6B6B",
	analysis.BandTheta: "#4ECDC4",
	analysis.BandAlpha: "#45B7D1",
	analysis.BandBeta:  "#96CEB4",
	analysis.BandGamma: "#FFEAA7",
}

var bandLabels = map[string]string{
	analysis.BandDelta: "Delta (0.5-4 Hz)",
	analysis.BandTheta: "Theta (4-8 Hz)",
	analysis.BandAlpha: "Alpha (8-13 Hz)",
	analysis.BandBeta:  "Beta (13-30 Hz)",
	analysis.BandGamma: "Gamma (30-50 Hz)",
}

// BandPoint is one sample on a band power curve.
type BandPoint struct {
	Time  float64
	Value float64
}

// BandSeries is one drawable band power curve.
type BandSeries struct {
	Band   string
	Label  string
	Color  string
	Fill   bool
	Points []BandPoint
}

// BandPower builds drawable series for the visible bands, aligned to the
// time axis. A nil visible set means all bands are visible. Bands appear in
// canonical order; bands absent from the result are skipped.
func BandPower(bands map[string][]float64, times []float64, visible map[string]bool, area bool) []BandSeries {
	out := make([]BandSeries, 0, len(analysis.CanonicalBands))
	for _, name := range analysis.CanonicalBands {
		if visible != nil && !visible[name] {
			continue
		}
		values, ok := bands[name]
		if !ok {
			continue
		}
		length := len(values)
		if len(times) < length {
			length = len(times)
		}
		points := make([]BandPoint, length)
		for i := 0; i < length; i++ {
			points[i] = BandPoint{Time: times[i], Value: values[i]}
		}
		out = append(out, BandSeries{
			Band:   name,
			Label:  bandLabels[name],
			Color:  bandColors[name],
			Fill:   area,
			Points: points,
		})
	}
	return out
}

// DominantBand returns the visible band with the highest power at the given
// sample index. Ties resolve to the band earliest in canonical order. The
// second return is false when no visible band has a sample at that index.
func DominantBand(bands map[string][]float64, visible map[string]bool, index int) (string, bool) {
	best := ""
	bestValue := 0.0
	for _, name := range analysis.CanonicalBands {
		if visible != nil && !visible[name] {
			continue
		}
		values, ok := bands[name]
		if !ok || index < 0 || index >= len(values) {
			continue
		}
		if best == "" || values[index] > bestValue {
			best = name
			bestValue = values[index]
		}
	}
	return best, best != ""
}
