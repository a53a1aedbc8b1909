package charts

import (
	"testing"

	"neurosense-client/internal/analysis"
)

func sampleBands() map[string][]float64 {
	return map[string][]float64{
		analysis.BandDelta: {0.5, 0.1, 0.3},
		analysis.BandTheta: {0.2, 0.1, 0.3},
		analysis.BandAlpha: {0.1, 0.6, 0.3},
		analysis.BandBeta:  {0.3, 0.2, 0.1},
		analysis.BandGamma: {0.1, 0.1, 0.1},
	}
}

func TestBandPowerAlignsPointsToTimes(t *testing.T) {
	series := BandPower(sampleBands(), []float64{0, 0.5, 1}, nil, true)
	if len(series) != 5 {
		t.Fatalf("expected all bands, got %d", len(series))
	}
	if series[0].Band != analysis.BandDelta || series[4].Band != analysis.BandGamma {
		t.Fatalf("expected canonical ordering, got %s..%s", series[0].Band, series[4].Band)
	}
	alpha := series[2]
	if alpha.Color != "#45B7D1" {
		t.Fatalf("unexpected alpha color: %s", alpha.Color)
	}
	if !alpha.Fill {
		t.Fatalf("expected area fill flag")
	}
	if len(alpha.Points) != 3 || alpha.Points[1].Time != 0.5 || alpha.Points[1].Value != 0.6 {
		t.Fatalf("unexpected alpha points: %+v", alpha.Points)
	}
}

func TestBandPowerTruncatesToTimeAxis(t *testing.T) {
	bands := map[string][]float64{analysis.BandAlpha: {1, 2, 3, 4}}
	series := BandPower(bands, []float64{0, 1}, nil, false)
	if len(series) != 1 || len(series[0].Points) != 2 {
		t.Fatalf("expected points clipped to times, got %+v", series)
	}
}

func TestBandPowerVisibilityFilter(t *testing.T) {
	visible := map[string]bool{analysis.BandAlpha: true, analysis.BandBeta: true}
	series := BandPower(sampleBands(), []float64{0, 0.5, 1}, visible, false)
	if len(series) != 2 {
		t.Fatalf("expected 2 visible bands, got %d", len(series))
	}
	if series[0].Band != analysis.BandAlpha || series[1].Band != analysis.BandBeta {
		t.Fatalf("unexpected visible bands: %+v", series)
	}
}

func TestDominantBand(t *testing.T) {
	band, ok := DominantBand(sampleBands(), nil, 0)
	if !ok || band != analysis.BandDelta {
		t.Fatalf("expected delta at index 0, got %s ok=%v", band, ok)
	}
	band, ok = DominantBand(sampleBands(), nil, 1)
	if !ok || band != analysis.BandAlpha {
		t.Fatalf("expected alpha at index 1, got %s ok=%v", band, ok)
	}
}

func TestDominantBandTieBreaksCanonically(t *testing.T) {
	bands := map[string][]float64{
		analysis.BandAlpha: {0.3},
		analysis.BandTheta: {0.3},
		analysis.BandGamma: {0.3},
	}
	band, ok := DominantBand(bands, nil, 0)
	if !ok || band != analysis.BandTheta {
		t.Fatalf("expected theta by canonical order, got %s ok=%v", band, ok)
	}
}

func TestDominantBandRespectsVisibility(t *testing.T) {
	visible := map[string]bool{analysis.BandGamma: true}
	band, ok := DominantBand(sampleBands(), visible, 0)
	if !ok || band != analysis.BandGamma {
		t.Fatalf("expected gamma when only gamma is visible, got %s ok=%v", band, ok)
	}
}

func TestDominantBandOutOfRange(t *testing.T) {
	if _, ok := DominantBand(sampleBands(), nil, 99); ok {
		t.Fatalf("expected no dominant band past the series end")
	}
	if _, ok := DominantBand(map[string][]float64{}, nil, 0); ok {
		t.Fatalf("expected no dominant band without series")
	}
}
