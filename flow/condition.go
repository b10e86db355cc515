// Package flow implements the response-flow engine: branch condition
// evaluation, next-question resolution and required-answer validation.
// Everything in here is pure and deterministic, so the same inputs produce
// the same navigation whether the caller runs client-side or server-side.
package flow

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "notEquals"
	OpContains       Operator = "contains"
	OpGreaterThan    Operator = "greaterThan"
	OpLessThan       Operator = "lessThan"
	OpOptionSelected Operator = "optionSelected"
	OpAnswered       Operator = "answered"
	OpNotAnswered    Operator = "notAnswered"

	// opInvalid marks a condition that failed to parse; it never matches.
	opInvalid Operator = "invalid"
)

// Condition is the stored branch condition: an operator plus either a
// literal comparison value or a referenced option id.
type Condition struct {
	Operator Operator `json:"operator"`
	Value    string   `json:"value,omitempty"`
	OptionID string   `json:"optionId,omitempty"`
}

// Answer is a respondent's answer to a single question: the raw text plus,
// for single- and multi-select types, the ids of the selected options.
type Answer struct {
	Text      string
	OptionIDs []string
}

// ParseCondition decodes a condition blob. A missing operator defaults to
// equals; a malformed blob yields a condition that evaluates false.
func ParseCondition(raw []byte) Condition {
	cond := Condition{Operator: OpEquals}
	if len(raw) == 0 {
		return Condition{Operator: opInvalid}
	}
	var parsed struct {
		Operator *string `json:"operator"`
		Value    *string `json:"value"`
		OptionID *string `json:"optionId"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Condition{Operator: opInvalid}
	}
	if parsed.Operator != nil {
		cond.Operator = Operator(*parsed.Operator)
	}
	if parsed.Value != nil {
		cond.Value = *parsed.Value
	}
	if parsed.OptionID != nil {
		cond.OptionID = *parsed.OptionID
	}
	return cond
}

// Evaluate reports whether the answer satisfies the condition. It is total:
// malformed literals and unknown operators degrade to false, never an error.
func (c Condition) Evaluate(ans Answer) bool {
	text := strings.TrimSpace(ans.Text)
	literal := strings.TrimSpace(c.Value)

	switch c.Operator {
	case OpEquals:
		return text == literal
	case OpNotEquals:
		return text != literal
	case OpContains:
		return strings.Contains(text, literal)
	case OpGreaterThan:
		a, b, ok := parseBoth(text, literal)
		return ok && a > b
	case OpLessThan:
		a, b, ok := parseBoth(text, literal)
		return ok && a < b
	case OpOptionSelected:
		if c.OptionID == "" {
			return false
		}
		for _, id := range ans.OptionIDs {
			if strings.EqualFold(id, c.OptionID) {
				return true
			}
		}
		return false
	case OpAnswered:
		return text != ""
	case OpNotAnswered:
		return text == ""
	default:
		return false
	}
}

// Numeric comparisons require both sides to parse; anything else fails the
// comparison rather than raising.
func parseBoth(a, b string) (na, nb float64, ok bool) {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	return na, nb, errA == nil && errB == nil
}
