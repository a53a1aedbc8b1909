package analysis

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func decodeRaw(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return out
}

const validPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func TestNormalizeNestedChartsShape(t *testing.T) {
	raw := decodeRaw(t, `{
		"charts": {
			"bands": {"alpha": [0.1, 0.2, 0.3], "beta": [0.4, 0.5, 0.6]},
			"times": [0, 0.5, 1],
			"psd": {"frequencies": [1, 2, 3], "power": [0.5, 0.6, 0.7]},
			"spectrogram": "`+validPNG+`"
		},
		"fusion_results": {"risk_level": "moderate", "confidence": 0.82},
		"completed_at": "2025-03-01T10:00:00Z"
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := result.BandsTimeSeries["alpha"]; len(got) != 3 || got[1] != 0.2 {
		t.Fatalf("unexpected alpha series: %v", got)
	}
	if len(result.Times) != 3 {
		t.Fatalf("expected 3 times, got %v", result.Times)
	}
	if result.PSD == nil || len(result.PSD.Frequencies) != 3 {
		t.Fatalf("unexpected psd: %+v", result.PSD)
	}
	if result.SpectrogramImage == "" {
		t.Fatalf("expected spectrogram to be kept")
	}
	if result.Fusion == nil || result.Fusion.Risk != RiskModerate || result.Fusion.Confidence != 0.82 {
		t.Fatalf("unexpected fusion: %+v", result.Fusion)
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !result.CompletedAt.Equal(want) {
		t.Fatalf("unexpected completedAt: %v", result.CompletedAt)
	}
}

func TestNormalizeFlattenedShape(t *testing.T) {
	raw := decodeRaw(t, `{
		"bands_timeseries": {
			"times": [0, 1],
			"data": {"delta": [0.3, 0.4], "theta": [0.1, 0.2]}
		},
		"psd": {"frequencies": [10, 11], "power": [1.5, 1.2]},
		"spectrogram_base64": "`+validPNG+`",
		"fusion": {"risk": "mild", "confidence": 0.5}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := result.BandsTimeSeries["delta"]; len(got) != 2 || got[0] != 0.3 {
		t.Fatalf("unexpected delta series: %v", got)
	}
	if result.Fusion == nil || result.Fusion.Risk != RiskMild {
		t.Fatalf("unexpected fusion: %+v", result.Fusion)
	}
	if result.SpectrogramImage == "" {
		t.Fatalf("expected spectrogram to be kept")
	}
}

func TestNormalizeChartsDataEnvelope(t *testing.T) {
	raw := decodeRaw(t, `{
		"charts_data": {
			"bands_timeseries": {"times": [0], "data": {"alpha": [0.9]}}
		}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := result.BandsTimeSeries["alpha"]; len(got) != 1 || got[0] != 0.9 {
		t.Fatalf("unexpected alpha series: %v", got)
	}
}

func TestNormalizeTopLevelBands(t *testing.T) {
	raw := decodeRaw(t, `{"bands": {"alpha": [1, 2, 3]}, "times": [0, 1, 2]}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := result.BandsTimeSeries["alpha"]; len(got) != 3 {
		t.Fatalf("unexpected alpha series: %v", got)
	}
	if len(result.Times) != 3 {
		t.Fatalf("unexpected times: %v", result.Times)
	}
}

func TestNormalizeTruncatesToShortestSeries(t *testing.T) {
	raw := decodeRaw(t, `{
		"charts": {
			"bands": {"alpha": [1, 2, 3, 4], "beta": [1, 2]},
			"times": [0, 1, 2]
		}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for name, series := range result.BandsTimeSeries {
		if len(series) != 2 {
			t.Fatalf("band %s not truncated: %v", name, series)
		}
	}
	if len(result.Times) != 2 {
		t.Fatalf("times not truncated: %v", result.Times)
	}
}

func TestNormalizeMalformedBandSeriesFails(t *testing.T) {
	raw := decodeRaw(t, `{"charts": {"bands": {"alpha": [1, "not-a-number-x", 3]}, "times": [0, 1, 2]}}`)

	_, err := Normalize(raw)
	var normErr *NormalizationError
	if !errors.As(err, &normErr) {
		t.Fatalf("expected NormalizationError, got %v", err)
	}
	if normErr.Field != "bands.alpha" {
		t.Fatalf("unexpected field: %s", normErr.Field)
	}
}

func TestNormalizeStringNumbersCoerce(t *testing.T) {
	raw := decodeRaw(t, `{"charts": {"bands": {"alpha": ["0.5", 1]}, "times": ["0", "1"]}}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := result.BandsTimeSeries["alpha"]; got[0] != 0.5 {
		t.Fatalf("expected string coercion, got %v", got)
	}
}

func TestNormalizeMissingSectionsDegrade(t *testing.T) {
	result, err := Normalize(map[string]any{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if result.Fusion != nil || result.Emotion != nil || result.Anxiety != nil {
		t.Fatalf("expected absent sections to stay nil")
	}
	if result.BandsTimeSeries == nil || result.Times == nil {
		t.Fatalf("expected empty containers, got nil")
	}
	if result.Recommendations == nil || result.SafetyAlerts == nil || result.Explanations == nil {
		t.Fatalf("expected empty containers, got nil")
	}
	if result.CompletedAt.IsZero() {
		t.Fatalf("expected completedAt fallback")
	}
}

func TestNormalizeMalformedOptionalPSDDegrades(t *testing.T) {
	raw := decodeRaw(t, `{
		"charts": {"bands": {"alpha": [1]}, "times": [0]},
		"psd": {"frequencies": ["bad"], "power": [1]}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("expected optional section to degrade, got %v", err)
	}
	if result.PSD != nil {
		t.Fatalf("expected psd to be dropped, got %+v", result.PSD)
	}
}

func TestNormalizeClampsAndRiskFallback(t *testing.T) {
	raw := decodeRaw(t, `{
		"fusion_results": {"risk_level": "catastrophic", "confidence": 1.7},
		"anxiety_results": {"label": "high", "score": -0.2},
		"emotion_results": {"label": "calm", "probabilities": {"calm": 1.4}}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if result.Fusion.Risk != RiskStable {
		t.Fatalf("expected unknown risk to fall back to stable, got %s", result.Fusion.Risk)
	}
	if result.Fusion.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", result.Fusion.Confidence)
	}
	if result.Anxiety.Score != 0 {
		t.Fatalf("expected score clamped to 0, got %v", result.Anxiety.Score)
	}
	if result.Emotion.Probabilities["calm"] != 1 {
		t.Fatalf("expected probability clamped to 1, got %v", result.Emotion.Probabilities["calm"])
	}
}

func TestNormalizeRejectsNonPNGSpectrogram(t *testing.T) {
	for name, value := range map[string]string{
		"invalid base64": "%%%not-base64%%%",
		"not a png":      "aGVsbG8gd29ybGQsIHRoaXMgaXMgbm90IGEgcG5n",
	} {
		result, err := Normalize(map[string]any{"charts": map[string]any{"spectrogram": value}})
		if err != nil {
			t.Fatalf("%s: Normalize: %v", name, err)
		}
		if result.SpectrogramImage != "" {
			t.Fatalf("%s: expected spectrogram to be dropped", name)
		}
	}
}

func TestNormalizeSafetyFlagsAddCrisisAlert(t *testing.T) {
	raw := decodeRaw(t, `{
		"safety_flags": {"has_crisis_indicators": true, "crisis_keywords_found": ["self-harm"]}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.SafetyAlerts) != 1 {
		t.Fatalf("expected one derived alert, got %+v", result.SafetyAlerts)
	}
	if result.SafetyAlerts[0].Severity != SeverityCrisis {
		t.Fatalf("expected crisis severity, got %s", result.SafetyAlerts[0].Severity)
	}
}

func TestNormalizeExplicitAlertsNormalizeSeverity(t *testing.T) {
	raw := decodeRaw(t, `{
		"safety_alerts": [
			{"severity": "critical", "message": "seek help"},
			{"severity": "unknown", "message": "note"}
		],
		"safety_flags": {"has_crisis_indicators": true}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.SafetyAlerts) != 2 {
		t.Fatalf("crisis alert should not be duplicated, got %+v", result.SafetyAlerts)
	}
	if result.SafetyAlerts[0].Severity != SeverityCrisis {
		t.Fatalf("expected critical to map to crisis, got %s", result.SafetyAlerts[0].Severity)
	}
	if result.SafetyAlerts[1].Severity != SeverityInfo {
		t.Fatalf("expected unknown to map to info, got %s", result.SafetyAlerts[1].Severity)
	}
}

func TestNormalizeRecommendations(t *testing.T) {
	raw := decodeRaw(t, `{
		"recommendations": [
			{"title": "Box breathing", "description": "4x4", "duration_minutes": 4},
			"take a walk",
			{"description": "no title, skipped"}
		]
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("unexpected recommendations: %+v", result.Recommendations)
	}
	if result.Recommendations[0].DurationMinutes != 4 {
		t.Fatalf("expected duration 4, got %d", result.Recommendations[0].DurationMinutes)
	}
	if result.Recommendations[1].Title != "take a walk" {
		t.Fatalf("expected bare string recommendation, got %+v", result.Recommendations[1])
	}
}

func TestNormalizeSectionAliases(t *testing.T) {
	raw := decodeRaw(t, `{
		"emotion": {"dominant_emotion": "calm"},
		"anxiety": {"level": "low", "score": 0.1},
		"depression_analysis": {"text": "no significant markers"}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if result.Emotion == nil || result.Emotion.Label != "calm" {
		t.Fatalf("unexpected emotion: %+v", result.Emotion)
	}
	if result.Anxiety == nil || result.Anxiety.Label != "low" {
		t.Fatalf("unexpected anxiety: %+v", result.Anxiety)
	}
	if result.DepressionText == nil || result.DepressionText.Summary != "no significant markers" {
		t.Fatalf("unexpected depression section: %+v", result.DepressionText)
	}
}

func TestNormalizeDepressionLabelAndProbabilities(t *testing.T) {
	raw := decodeRaw(t, `{
		"depression_results": {
			"label": "moderate",
			"probabilities": {"minimal": 0.1, "mild": 0.2, "Moderate": 1.3},
			"confidence": 0.7
		}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if result.DepressionText == nil {
		t.Fatalf("expected depression section")
	}
	if result.DepressionText.Label != "moderate" {
		t.Fatalf("unexpected label: %q", result.DepressionText.Label)
	}
	if got := result.DepressionText.Probabilities["moderate"]; got != 1 {
		t.Fatalf("expected probability key lowered and clamped, got %v", got)
	}
	if got := result.DepressionText.Probabilities["mild"]; got != 0.2 {
		t.Fatalf("unexpected probability: %v", got)
	}
}

func TestNormalizeExplanationsListKeepsOrder(t *testing.T) {
	raw := decodeRaw(t, `{
		"explanations": ["EEG shows elevated beta activity", "Text sentiment leans negative", ""]
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []string{"EEG shows elevated beta activity", "Text sentiment leans negative"}
	if len(result.Explanations) != len(want) {
		t.Fatalf("unexpected explanations: %v", result.Explanations)
	}
	for i, text := range want {
		if result.Explanations[i] != text {
			t.Fatalf("order not preserved at %d: %v", i, result.Explanations)
		}
	}
}

func TestNormalizeExplanationsKeyedVariantFlattensSorted(t *testing.T) {
	raw := decodeRaw(t, `{
		"explanations": {"emotion": "Dominant emotion is calm", "anxiety": "Low beta/alpha ratio"}
	}`)

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.Explanations) != 2 {
		t.Fatalf("unexpected explanations: %v", result.Explanations)
	}
	if result.Explanations[0] != "Low beta/alpha ratio" || result.Explanations[1] != "Dominant emotion is calm" {
		t.Fatalf("expected deterministic key order, got %v", result.Explanations)
	}
}
