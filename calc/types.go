package calc

import "time"

// InputKind identifies the declared type of a calculator input.
type InputKind string

const (
	KindNumber  InputKind = "number"
	KindSelect  InputKind = "select"
	KindText    InputKind = "text"
	KindBoolean InputKind = "boolean"
)

// InputMap holds raw form values keyed by input ID. Key order carries no
// meaning: two maps with the same pairs are the same input.
type InputMap map[string]any

// Rule is a custom validation rule attached to a descriptor. Check receives
// the value of the input it guards (nil when absent) plus the full input map,
// and returns a non-empty message on violation.
type Rule struct {
	InputID string
	Check   func(value any, inputs InputMap) string
}

// InputSpec declares one calculator input and its constraints.
type InputSpec struct {
	ID       string
	Label    string
	Kind     InputKind
	Required bool
	Min      *float64 // number kind only
	Max      *float64 // number kind only
	Options  []string // select kind only
}

// DisplayName returns the label for user-facing messages, falling back to
// the input ID.
func (s InputSpec) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}

// Descriptor is the declarative schema for a calculator: its identity, the
// inputs it accepts, and any custom validation rules. It is distinct from
// the algorithm that computes the result.
type Descriptor struct {
	ID       string
	Name     string
	Category string
	Inputs   []InputSpec
	Rules    []Rule

	// ResultTTL overrides the cache policy's default TTL for this
	// calculator. Zero means use the policy default.
	ResultTTL time.Duration
}

// Float64 returns a pointer to v, for building InputSpec min/max bounds.
func Float64(v float64) *float64 {
	return &v
}
