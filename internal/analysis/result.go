package analysis

import "time"

// Canonical EEG frequency band names, in display order.
const (
	BandDelta = "delta"
	BandTheta = "theta"
	BandAlpha = "alpha"
	BandBeta  = "beta"
	BandGamma = "gamma"
)

// CanonicalBands lists the band names in canonical order. The order doubles
// as the tie-break priority when comparing band power.
var CanonicalBands = []string{BandDelta, BandTheta, BandAlpha, BandBeta, BandGamma}

// Risk labels produced by the fusion model.
const (
	RiskStable   = "stable"
	RiskMild     = "mild"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// Safety alert severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityCrisis  = "crisis"
)

// Fusion is the combined multi-modal risk assessment.
type Fusion struct {
	Risk       string  `json:"risk"`
	Confidence float64 `json:"confidence"`
}

// Emotion is the emotion classifier output.
type Emotion struct {
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

// Anxiety is the anxiety classifier output.
type Anxiety struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// DepressionText is the depression text classifier output.
type DepressionText struct {
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Summary       string             `json:"summary,omitempty"`
}

// PSD holds the power spectral density curve.
type PSD struct {
	Frequencies []float64 `json:"frequencies"`
	Power       []float64 `json:"power"`
}

// Recommendation is a single self-care suggestion.
type Recommendation struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

// SafetyAlert is a user-facing safety notice.
type SafetyAlert struct {
	Severity string `json:"severity"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message"`
}

// Result is the canonical normalized analysis result the UI layers consume.
// All raw payload variants normalize into this one shape.
type Result struct {
	Fusion                     *Fusion              `json:"fusion,omitempty"`
	Emotion                    *Emotion             `json:"emotion,omitempty"`
	Anxiety                    *Anxiety             `json:"anxiety,omitempty"`
	DepressionText             *DepressionText      `json:"depressionText,omitempty"`
	BandsTimeSeries            map[string][]float64 `json:"bandsTimeSeries"`
	Times                      []float64            `json:"times"`
	PSD                        *PSD                 `json:"psd,omitempty"`
	SpectrogramImage           string               `json:"spectrogramImage,omitempty"`
	Explanations               []string             `json:"explanations"`
	NaturalLanguageExplanation string               `json:"naturalLanguageExplanation,omitempty"`
	Recommendations            []Recommendation     `json:"recommendations"`
	SafetyAlerts               []SafetyAlert        `json:"safetyAlerts"`
	CompletedAt                time.Time            `json:"completedAt"`
}
