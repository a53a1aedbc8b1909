package analysis

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Normalize converts a raw backend payload into the canonical Result. It
// accepts every payload variant the backend has been observed to emit:
// nested charts ({"charts": {"bands": ..., "times": ...}}), flattened
// series ({"bands_timeseries": {"times": ..., "data": ...}}, optionally
// wrapped in a "charts_data" envelope) and bare top-level bands/times.
// Missing sections degrade to empty values; only malformed required series
// fail, with a *NormalizationError.
func Normalize(raw map[string]any) (Result, error) {
	out := Result{
		BandsTimeSeries: map[string][]float64{},
		Times:           []float64{},
		Explanations:    []string{},
		Recommendations: []Recommendation{},
		SafetyAlerts:    []SafetyAlert{},
	}
	if raw == nil {
		out.CompletedAt = time.Now().UTC()
		return out, nil
	}

	if err := normalizeCharts(raw, &out); err != nil {
		return Result{}, err
	}

	out.Fusion = normalizeFusion(sectionValue(raw, "fusion_results", "fusion"))
	out.Emotion = normalizeEmotion(sectionValue(raw, "emotion_results", "emotion"))
	out.Anxiety = normalizeAnxiety(sectionValue(raw, "anxiety_results", "anxiety"))
	out.DepressionText = normalizeDepression(sectionValue(raw, "depression_results", "depression_analysis"))

	out.Explanations = normalizeExplanations(raw["explanations"])
	out.NaturalLanguageExplanation = stringValue(raw["natural_language_explanation"])
	out.Recommendations = normalizeRecommendations(raw["recommendations"])
	out.SafetyAlerts = normalizeSafetyAlerts(raw)
	out.CompletedAt = completedAt(raw["completed_at"])
	return out, nil
}

// normalizeCharts resolves the chart series from whichever shape the payload
// uses and writes bands, times, psd and spectrogram into out.
func normalizeCharts(raw map[string]any, out *Result) error {
	source := raw
	if envelope := mapValue(raw["charts_data"]); envelope != nil {
		source = envelope
	}

	var (
		bandsRaw   map[string]any
		timesRaw   any
		psdRaw     any
		spectroRaw any
	)
	switch {
	case mapValue(source["charts"]) != nil:
		charts := mapValue(source["charts"])
		bandsRaw = mapValue(charts["bands"])
		timesRaw = charts["times"]
		psdRaw = charts["psd"]
		spectroRaw = charts["spectrogram"]
	case mapValue(source["bands_timeseries"]) != nil:
		series := mapValue(source["bands_timeseries"])
		bandsRaw = mapValue(series["data"])
		timesRaw = series["times"]
		psdRaw = source["psd"]
		spectroRaw = source["spectrogram_base64"]
	default:
		bandsRaw = mapValue(source["bands"])
		timesRaw = source["times"]
		psdRaw = source["psd"]
		spectroRaw = source["spectrogram"]
		if spectroRaw == nil {
			spectroRaw = source["spectrogram_base64"]
		}
	}

	for name, values := range bandsRaw {
		series, err := floatSlice(values)
		if err != nil {
			return &NormalizationError{Field: "bands." + name, Reason: err.Error()}
		}
		out.BandsTimeSeries[strings.ToLower(strings.TrimSpace(name))] = series
	}
	if timesRaw != nil {
		times, err := floatSlice(timesRaw)
		if err != nil {
			return &NormalizationError{Field: "times", Reason: err.Error()}
		}
		out.Times = times
	}
	truncateToShortest(out)

	out.PSD = normalizePSD(psdRaw)
	out.SpectrogramImage = normalizeSpectrogram(spectroRaw)
	return nil
}

// truncateToShortest aligns all band series and the time axis to the shortest
// non-empty length among them.
func truncateToShortest(out *Result) {
	if len(out.BandsTimeSeries) == 0 {
		return
	}
	shortest := len(out.Times)
	if shortest == 0 {
		shortest = -1
	}
	for _, series := range out.BandsTimeSeries {
		if shortest < 0 || len(series) < shortest {
			shortest = len(series)
		}
	}
	if shortest < 0 {
		shortest = 0
	}
	for name, series := range out.BandsTimeSeries {
		if len(series) > shortest {
			out.BandsTimeSeries[name] = series[:shortest]
		}
	}
	if len(out.Times) > shortest {
		out.Times = out.Times[:shortest]
	}
}

func normalizeFusion(section map[string]any) *Fusion {
	if section == nil {
		return nil
	}
	risk := normalizeRisk(stringValue(section["risk_level"]))
	if risk == "" {
		risk = normalizeRisk(stringValue(section["risk"]))
	}
	if risk == "" {
		risk = RiskStable
	}
	confidence, _ := floatValue(section["confidence"])
	return &Fusion{Risk: risk, Confidence: clamp01(confidence)}
}

func normalizeRisk(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case RiskStable, RiskMild, RiskModerate, RiskHigh:
		return strings.ToLower(strings.TrimSpace(raw))
	case "":
		return ""
	default:
		return RiskStable
	}
}

func normalizeEmotion(section map[string]any) *Emotion {
	if section == nil {
		return nil
	}
	emotion := &Emotion{
		Label: fallbackString(stringValue(section["label"]), stringValue(section["dominant_emotion"])),
	}
	if probs := mapValue(section["probabilities"]); probs != nil {
		emotion.Probabilities = make(map[string]float64, len(probs))
		for name, value := range probs {
			if parsed, ok := floatValue(value); ok {
				emotion.Probabilities[strings.ToLower(strings.TrimSpace(name))] = clamp01(parsed)
			}
		}
	}
	return emotion
}

func normalizeAnxiety(section map[string]any) *Anxiety {
	if section == nil {
		return nil
	}
	score, _ := floatValue(section["score"])
	return &Anxiety{
		Label: fallbackString(stringValue(section["label"]), stringValue(section["level"])),
		Score: clamp01(score),
	}
}

func normalizeDepression(section map[string]any) *DepressionText {
	if section == nil {
		return nil
	}
	depression := &DepressionText{
		Label:   fallbackString(stringValue(section["label"]), stringValue(section["level"])),
		Summary: fallbackString(stringValue(section["summary"]), stringValue(section["text"])),
	}
	if probs := mapValue(section["probabilities"]); probs != nil {
		depression.Probabilities = make(map[string]float64, len(probs))
		for name, value := range probs {
			if parsed, ok := floatValue(value); ok {
				depression.Probabilities[strings.ToLower(strings.TrimSpace(name))] = clamp01(parsed)
			}
		}
	}
	return depression
}

func normalizePSD(raw any) *PSD {
	section := mapValue(raw)
	if section == nil {
		return nil
	}
	frequencies, err := floatSlice(section["frequencies"])
	if err != nil {
		return nil
	}
	power, err := floatSlice(section["power"])
	if err != nil {
		return nil
	}
	if len(frequencies) == 0 || len(power) == 0 {
		return nil
	}
	if len(power) > len(frequencies) {
		power = power[:len(frequencies)]
	}
	if len(frequencies) > len(power) {
		frequencies = frequencies[:len(power)]
	}
	return &PSD{Frequencies: frequencies, Power: power}
}

// normalizeSpectrogram keeps the image only when it is valid base64 for a PNG.
func normalizeSpectrogram(raw any) string {
	encoded := strings.TrimSpace(stringValue(raw))
	if encoded == "" {
		return ""
	}
	if idx := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && idx >= 0 {
		encoded = encoded[idx+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if len(decoded) < len(pngMagic) {
		return ""
	}
	for i, b := range pngMagic {
		if decoded[i] != b {
			return ""
		}
	}
	return encoded
}

// normalizeExplanations keeps the backend's explanation order. The keyed
// variant some payload versions emit flattens by sorted key so the output
// stays deterministic.
func normalizeExplanations(raw any) []string {
	out := []string{}
	switch values := raw.(type) {
	case []any:
		for _, value := range values {
			if text := stringValue(value); text != "" {
				out = append(out, text)
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if text := stringValue(values[key]); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

func normalizeRecommendations(raw any) []Recommendation {
	items, ok := raw.([]any)
	if !ok {
		return []Recommendation{}
	}
	out := make([]Recommendation, 0, len(items))
	for _, item := range items {
		entry := mapValue(item)
		if entry == nil {
			if text := stringValue(item); text != "" {
				out = append(out, Recommendation{Title: text})
			}
			continue
		}
		rec := Recommendation{
			Title:       fallbackString(stringValue(entry["title"]), stringValue(entry["name"])),
			Description: stringValue(entry["description"]),
		}
		if minutes, ok := floatValue(entry["duration_minutes"]); ok && minutes > 0 {
			rec.DurationMinutes = int(minutes)
		}
		if rec.Title == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// normalizeSafetyAlerts merges explicit safety_alerts with the crisis flag
// the text classifier sets in safety_flags.
func normalizeSafetyAlerts(raw map[string]any) []SafetyAlert {
	out := []SafetyAlert{}
	if items, ok := raw["safety_alerts"].([]any); ok {
		for _, item := range items {
			entry := mapValue(item)
			if entry == nil {
				continue
			}
			alert := SafetyAlert{
				Severity: normalizeSeverity(stringValue(entry["severity"])),
				Title:    stringValue(entry["title"]),
				Message:  stringValue(entry["message"]),
			}
			if alert.Message == "" && alert.Title == "" {
				continue
			}
			out = append(out, alert)
		}
	}
	if flags := mapValue(raw["safety_flags"]); flags != nil {
		if crisis, ok := flags["has_crisis_indicators"].(bool); ok && crisis && !hasCrisisAlert(out) {
			out = append(out, SafetyAlert{
				Severity: SeverityCrisis,
				Title:    "Immediate support recommended",
				Message:  "Your responses suggest you may be in distress. If you are in crisis, please reach out to a mental health professional or a crisis line right away.",
			})
		}
	}
	return out
}

func hasCrisisAlert(alerts []SafetyAlert) bool {
	for _, alert := range alerts {
		if alert.Severity == SeverityCrisis {
			return true
		}
	}
	return false
}

func normalizeSeverity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SeverityCrisis, "critical", "emergency":
		return SeverityCrisis
	case SeverityWarning, "warn":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func completedAt(raw any) time.Time {
	if text := stringValue(raw); text != "" {
		if parsed, err := time.Parse(time.RFC3339, text); err == nil {
			return parsed.UTC()
		}
	}
	return time.Now().UTC()
}

func sectionValue(raw map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if section := mapValue(raw[key]); section != nil {
			return section
		}
	}
	return nil
}

func mapValue(raw any) map[string]any {
	if m, ok := raw.(map[string]any); ok {
		return m
	}
	return nil
}

func stringValue(raw any) string {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func fallbackString(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func floatValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func floatSlice(raw any) ([]float64, error) {
	if raw == nil {
		return []float64{}, nil
	}
	switch values := raw.(type) {
	case []float64:
		return append([]float64(nil), values...), nil
	case []any:
		out := make([]float64, 0, len(values))
		for i, value := range values {
			parsed, ok := floatValue(value)
			if !ok {
				return nil, fmt.Errorf("element %d is not numeric", i)
			}
			out = append(out, parsed)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a numeric array, got %T", raw)
	}
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
