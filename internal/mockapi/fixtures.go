package mockapi

import (
	"hash/fnv"
	"math"
	"math/bits"
	"strings"
	"time"
)

// spectrogramPNG is a 1x1 PNG, base64-encoded. The client treats the image
// as an opaque blob, so any valid PNG works for fixtures.
const spectrogramPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

var bandNames = []string{"delta", "theta", "alpha", "beta", "gamma"}

var riskLevels = []string{"stable", "mild", "moderate", "high"}

var emotionLabels = []string{"calm", "happy", "sad", "angry", "fear"}

var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"self-harm",
	"hurt myself",
	"no reason to live",
}

type recommendationFixture struct {
	title       string
	description string
	minutes     int
}

var recommendationLibrary = []recommendationFixture{
	{"Box breathing", "Inhale, hold, exhale and hold again for four counts each.", 4},
	{"Progressive muscle relaxation", "Tense and release each muscle group from toes to head.", 10},
	{"Gratitude journaling", "Write down three things that went well today and why.", 5},
	{"Short walk outside", "A brisk walk in daylight helps regulate mood and sleep.", 15},
	{"5-4-3-2-1 grounding", "Name five things you see, four you feel, three you hear, two you smell, one you taste.", 3},
}

// eegFixture builds a deterministic raw result payload for a session. Seeds
// with an even bit count emit the nested charts shape, the rest the
// flattened one, so both observed payload variants stay exercised over any
// family of session ids.
func eegFixture(sessionID string) map[string]any {
	seed := hashSeed(sessionID)

	const samples = 16
	times := make([]any, samples)
	for i := 0; i < samples; i++ {
		times[i] = float64(i) * 0.5
	}
	bands := make(map[string]any, len(bandNames))
	for b, name := range bandNames {
		series := make([]any, samples)
		for i := 0; i < samples; i++ {
			phase := float64(seed%(uint32(b)+7)) / 7
			series[i] = round3(0.15 + 0.1*float64(b)/4 + 0.08*math.Sin(float64(i)/3+phase))
		}
		bands[name] = series
	}

	const freqs = 51
	frequencies := make([]any, freqs)
	power := make([]any, freqs)
	for i := 0; i < freqs; i++ {
		f := float64(i)
		frequencies[i] = f
		// Alpha-dominant spectrum with a peak near 10 Hz.
		power[i] = round3(0.05 + 1.2/(1+math.Abs(f-10)) + 0.3/(1+math.Abs(f-20)))
	}
	psd := map[string]any{"frequencies": frequencies, "power": power}

	out := map[string]any{
		"fusion_results": map[string]any{
			"risk_level": riskLevels[seed%uint32(len(riskLevels))],
			"confidence": round3(0.6 + float64(seed%35)/100),
		},
		"emotion_results": map[string]any{
			"label": emotionLabels[seed%uint32(len(emotionLabels))],
			"probabilities": map[string]any{
				"calm":  0.4,
				"happy": 0.3,
				"sad":   0.2,
				"angry": 0.1,
			},
		},
		"anxiety_results": map[string]any{
			"label": "mild",
			"score": round3(0.2 + float64(seed%40)/100),
		},
		"explanations": []any{
			"Dominant emotion inferred from band power distribution.",
			"Anxiety score derived from beta/alpha ratio.",
		},
		"recommendations": pickRecommendations(seed),
		"completed_at":    time.Now().UTC().Format(time.RFC3339),
	}

	if bits.OnesCount32(seed)%2 == 0 {
		out["charts"] = map[string]any{
			"bands":       bands,
			"times":       times,
			"psd":         psd,
			"spectrogram": spectrogramPNG,
		}
	} else {
		out["bands_timeseries"] = map[string]any{
			"times": times,
			"data":  bands,
		}
		out["psd"] = psd
		out["spectrogram_base64"] = spectrogramPNG
		out["spectrogram_extent"] = []any{0.0, float64(samples-1) * 0.5, 0.0, 50.0}
	}
	return out
}

// textFixture builds a raw result for a text-only analysis, including safety
// flags when the text contains crisis wording.
func textFixture(text string) map[string]any {
	seed := hashSeed(text)
	lowered := strings.ToLower(text)
	found := []any{}
	for _, kw := range crisisKeywords {
		if strings.Contains(lowered, kw) {
			found = append(found, kw)
		}
	}
	risk := riskLevels[seed%uint32(len(riskLevels))]
	if len(found) > 0 {
		risk = "high"
	}
	return map[string]any{
		"fusion_results": map[string]any{
			"risk_level": risk,
			"confidence": round3(0.55 + float64(seed%30)/100),
		},
		"depression_results": map[string]any{
			"label": "mild",
			"probabilities": map[string]any{
				"minimal":  0.35,
				"mild":     0.4,
				"moderate": 0.2,
				"severe":   0.05,
			},
			"summary": "Language patterns show mild negative affect without persistent hopelessness.",
		},
		"safety_flags": map[string]any{
			"has_crisis_indicators": len(found) > 0,
			"crisis_keywords_found": found,
		},
		"natural_language_explanation": "This assessment reflects wording patterns in the submitted text and is not a diagnosis.",
		"recommendations":              pickRecommendations(seed),
		"completed_at":                 time.Now().UTC().Format(time.RFC3339),
	}
}

// combinedFixture merges the EEG charts with the text sections.
func combinedFixture(sessionID, text string) map[string]any {
	out := eegFixture(sessionID)
	fromText := textFixture(text)
	out["depression_results"] = fromText["depression_results"]
	out["safety_flags"] = fromText["safety_flags"]
	out["natural_language_explanation"] = fromText["natural_language_explanation"]
	if flags, ok := fromText["safety_flags"].(map[string]any); ok {
		if crisis, ok := flags["has_crisis_indicators"].(bool); ok && crisis {
			out["fusion_results"] = fromText["fusion_results"]
		}
	}
	return out
}

func pickRecommendations(seed uint32) []any {
	out := make([]any, 0, 3)
	for i := 0; i < 3; i++ {
		item := recommendationLibrary[(int(seed)+i*2)%len(recommendationLibrary)]
		out = append(out, map[string]any{
			"title":            item.title,
			"description":      item.description,
			"duration_minutes": item.minutes,
		})
	}
	return out
}

func hashSeed(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
