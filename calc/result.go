package calc

import "time"

// Accuracy classifies a result by how long it took to compute. Slow
// computations tend to be iterative approximations cut short, so duration is
// used as a proxy for confidence in the reported numbers.
type Accuracy string

const (
	AccuracyHigh   Accuracy = "high"
	AccuracyMedium Accuracy = "medium"
	AccuracyLow    Accuracy = "low"
)

// Accuracy classification thresholds. Durations below HighAccuracyMax
// classify as high, below MediumAccuracyMax as medium, everything else as
// low.
const (
	HighAccuracyMax   = 100 * time.Millisecond
	MediumAccuracyMax = 500 * time.Millisecond
)

// ClassifyAccuracy maps a computation duration to an accuracy class.
func ClassifyAccuracy(d time.Duration) Accuracy {
	switch {
	case d < HighAccuracyMax:
		return AccuracyHigh
	case d < MediumAccuracyMax:
		return AccuracyMedium
	default:
		return AccuracyLow
	}
}

// BreakdownItem is one line of a result breakdown. Order is significant and
// preserved as produced by the algorithm.
type BreakdownItem struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	DurationMs float64   `json:"duration_ms"`
	Accuracy   Accuracy  `json:"accuracy"`
	ComputedAt time.Time `json:"computed_at"`
}

// Result is the outcome of a calculation.
//
// Contract:
// - Ownership: results are cached and shared by reference; they must be
//   treated as immutable once produced.
type Result struct {
	Value           float64         `json:"value"`
	Unit            string          `json:"unit,omitempty"`
	Label           string          `json:"label,omitempty"`
	Breakdown       []BreakdownItem `json:"breakdown,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Meta            Metadata        `json:"meta"`
}
