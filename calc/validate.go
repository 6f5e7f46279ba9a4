package calc

import (
	"fmt"
	"strconv"
	"strings"
)

// Issue is a single validation failure for one input.
type Issue struct {
	InputID string
	Message string
}

func (i Issue) String() string {
	return i.InputID + ": " + i.Message
}

// Validate checks inputs against the descriptor's declared constraints and
// custom rules. It never short-circuits: the returned slice contains one
// entry per violated constraint so a form can highlight every bad field at
// once. An empty slice means the input map is fully valid.
func Validate(desc Descriptor, inputs InputMap) []Issue {
	var issues []Issue

	for _, spec := range desc.Inputs {
		raw, present := inputs[spec.ID]
		if !present || raw == nil {
			if spec.Required {
				issues = append(issues, Issue{
					InputID: spec.ID,
					Message: fmt.Sprintf("%s is required", spec.DisplayName()),
				})
			}
			continue
		}

		switch spec.Kind {
		case KindNumber:
			n, ok := ToNumber(raw)
			if !ok {
				issues = append(issues, Issue{
					InputID: spec.ID,
					Message: fmt.Sprintf("%s must be a number", spec.DisplayName()),
				})
				continue
			}
			if spec.Min != nil && n < *spec.Min {
				issues = append(issues, Issue{
					InputID: spec.ID,
					Message: fmt.Sprintf("%s must be at least %s", spec.DisplayName(), formatBound(*spec.Min)),
				})
			}
			if spec.Max != nil && n > *spec.Max {
				issues = append(issues, Issue{
					InputID: spec.ID,
					Message: fmt.Sprintf("%s must be at most %s", spec.DisplayName(), formatBound(*spec.Max)),
				})
			}

		case KindSelect:
			value := fmt.Sprintf("%v", raw)
			if len(spec.Options) > 0 && !containsString(spec.Options, value) {
				issues = append(issues, Issue{
					InputID: spec.ID,
					Message: fmt.Sprintf("%s must be one of: %s", spec.DisplayName(), strings.Join(spec.Options, ", ")),
				})
			}

		case KindBoolean:
			if _, ok := raw.(bool); !ok {
				issues = append(issues, Issue{
					InputID: spec.ID,
					Message: fmt.Sprintf("%s must be true or false", spec.DisplayName()),
				})
			}
		}
	}

	// Custom rules run after structural checks so they can assume declared
	// shapes when the structural checks pass.
	for _, rule := range desc.Rules {
		if rule.Check == nil {
			continue
		}
		if msg := rule.Check(inputs[rule.InputID], inputs); msg != "" {
			issues = append(issues, Issue{InputID: rule.InputID, Message: msg})
		}
	}

	return issues
}

// ToNumber coerces a raw form value to float64. Strings are parsed since
// HTML form inputs arrive as text.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Number reads a numeric input by ID, falling back to def when the value is
// absent or not coercible.
func (m InputMap) Number(id string, def float64) float64 {
	if n, ok := ToNumber(m[id]); ok {
		return n
	}
	return def
}

// Text reads a string input by ID, falling back to def when absent.
func (m InputMap) Text(id string, def string) string {
	if s, ok := m[id].(string); ok && s != "" {
		return s
	}
	return def
}

// formatBound renders a numeric bound without a trailing ".000000" so
// messages read naturally ("at most 50", "at least 0.1").
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func containsString(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}
