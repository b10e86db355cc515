package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Condition
	}{
		{
			name: "full condition",
			raw:  `{"operator":"notEquals","value":"no"}`,
			want: Condition{Operator: OpNotEquals, Value: "no"},
		},
		{
			name: "option condition",
			raw:  `{"operator":"optionSelected","optionId":"abc-123"}`,
			want: Condition{Operator: OpOptionSelected, OptionID: "abc-123"},
		},
		{
			name: "missing operator defaults to equals",
			raw:  `{"value":"yes"}`,
			want: Condition{Operator: OpEquals, Value: "yes"},
		},
		{
			name: "empty blob never matches",
			raw:  "",
			want: Condition{Operator: opInvalid},
		},
		{
			name: "malformed blob never matches",
			raw:  `{"operator":`,
			want: Condition{Operator: opInvalid},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCondition([]byte(tt.raw)))
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		ans  Answer
		want bool
	}{
		{"equals match", Condition{Operator: OpEquals, Value: "yes"}, Answer{Text: "yes"}, true},
		{"equals trims whitespace", Condition{Operator: OpEquals, Value: "yes"}, Answer{Text: "  yes  "}, true},
		{"equals is case sensitive", Condition{Operator: OpEquals, Value: "yes"}, Answer{Text: "Yes"}, false},
		{"notEquals", Condition{Operator: OpNotEquals, Value: "yes"}, Answer{Text: "no"}, true},
		{"notEquals same value", Condition{Operator: OpNotEquals, Value: "yes"}, Answer{Text: "yes"}, false},
		{"contains", Condition{Operator: OpContains, Value: "dog"}, Answer{Text: "hot dogs"}, true},
		{"contains missing", Condition{Operator: OpContains, Value: "cat"}, Answer{Text: "hot dogs"}, false},

		{"greaterThan numeric", Condition{Operator: OpGreaterThan, Value: "5"}, Answer{Text: "7"}, true},
		{"greaterThan equal is false", Condition{Operator: OpGreaterThan, Value: "5"}, Answer{Text: "5"}, false},
		{"greaterThan non-numeric answer", Condition{Operator: OpGreaterThan, Value: "5"}, Answer{Text: "abc"}, false},
		{"greaterThan non-numeric value", Condition{Operator: OpGreaterThan, Value: "abc"}, Answer{Text: "7"}, false},
		{"lessThan numeric", Condition{Operator: OpLessThan, Value: "5"}, Answer{Text: "3"}, true},
		{"lessThan non-numeric answer", Condition{Operator: OpLessThan, Value: "5"}, Answer{Text: "abc"}, false},
		{"lessThan decimal", Condition{Operator: OpLessThan, Value: "5.5"}, Answer{Text: "5.25"}, true},

		{
			"optionSelected match",
			Condition{Operator: OpOptionSelected, OptionID: "opt-1"},
			Answer{OptionIDs: []string{"opt-2", "opt-1"}},
			true,
		},
		{
			"optionSelected ignores id case",
			Condition{Operator: OpOptionSelected, OptionID: "OPT-1"},
			Answer{OptionIDs: []string{"opt-1"}},
			true,
		},
		{
			"optionSelected no match",
			Condition{Operator: OpOptionSelected, OptionID: "opt-3"},
			Answer{OptionIDs: []string{"opt-1", "opt-2"}},
			false,
		},
		{
			"optionSelected empty option id",
			Condition{Operator: OpOptionSelected},
			Answer{OptionIDs: []string{"opt-1"}},
			false,
		},

		{"answered", Condition{Operator: OpAnswered}, Answer{Text: "anything"}, true},
		{"answered blank text", Condition{Operator: OpAnswered}, Answer{Text: "   "}, false},
		{"notAnswered", Condition{Operator: OpNotAnswered}, Answer{}, true},
		{"notAnswered with text", Condition{Operator: OpNotAnswered}, Answer{Text: "x"}, false},

		{"invalid operator never matches", Condition{Operator: opInvalid}, Answer{Text: "yes"}, false},
		{"unknown operator never matches", Condition{Operator: "between"}, Answer{Text: "yes"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Evaluate(tt.ans))
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	cond := Condition{Operator: OpGreaterThan, Value: "10"}
	ans := Answer{Text: "11"}
	for i := 0; i < 100; i++ {
		assert.True(t, cond.Evaluate(ans))
	}
}
