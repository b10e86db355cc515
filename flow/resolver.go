package flow

import (
	"sort"

	"github.com/gofrs/uuid"
)

type Action string

const (
	ActionSkipTo       Action = "SkipTo"
	ActionEndSurvey    Action = "EndSurvey"
	ActionShowQuestion Action = "ShowQuestion"
)

// Rule is a branch rule as seen by the resolver. Seq preserves insertion
// order so that equal priorities keep a stable, reproducible evaluation order.
type Rule struct {
	ID               uuid.UUID
	SourceQuestionID uuid.UUID
	Condition        Condition
	Action           Action
	TargetQuestionID uuid.UUID // uuid.Nil when the rule has no target
	Priority         int
	Seq              int
}

// Question is the resolver's view of a survey question: position in natural
// order plus what validation needs.
type Question struct {
	ID       uuid.UUID
	Order    int
	Text     string
	Required bool
}

type StepKind int

const (
	StepAdvance StepKind = iota
	StepEnd
	StepGoTo
)

// NextStep is the resolver's decision for one question transition.
type NextStep struct {
	Kind       StepKind
	QuestionID uuid.UUID // set for StepGoTo
}

func Advance() NextStep          { return NextStep{Kind: StepAdvance} }
func End() NextStep              { return NextStep{Kind: StepEnd} }
func GoTo(id uuid.UUID) NextStep { return NextStep{Kind: StepGoTo, QuestionID: id} }

// SortRules orders rules by ascending priority, keeping insertion order for
// equal priorities.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].Seq < rules[j].Seq
	})
}

// RulesBySource groups rules by source question, each group sorted for
// evaluation.
func RulesBySource(rules []Rule) map[uuid.UUID][]Rule {
	grouped := make(map[uuid.UUID][]Rule)
	for _, r := range rules {
		grouped[r.SourceQuestionID] = append(grouped[r.SourceQuestionID], r)
	}
	for id := range grouped {
		SortRules(grouped[id])
	}
	return grouped
}

// Resolve computes the next step after answering the current question.
// Rules are evaluated in priority order; the first match wins. A SkipTo or
// ShowQuestion whose target is not among the questions (e.g. it was deleted)
// falls back to advancing in natural order.
func Resolve(current uuid.UUID, ans Answer, rules []Rule, questions []Question) NextStep {
	applicable := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.SourceQuestionID == current {
			applicable = append(applicable, r)
		}
	}
	if len(applicable) == 0 {
		return Advance()
	}
	SortRules(applicable)

	for _, r := range applicable {
		if !r.Condition.Evaluate(ans) {
			continue
		}
		switch r.Action {
		case ActionEndSurvey:
			return End()
		case ActionSkipTo, ActionShowQuestion:
			if r.TargetQuestionID != uuid.Nil && questionExists(questions, r.TargetQuestionID) {
				return GoTo(r.TargetQuestionID)
			}
			return Advance()
		}
	}
	return Advance()
}

// Walk replays the resolver from the first question, producing the path a
// respondent with the given answers would visit. Ended reports whether the
// path hit an EndSurvey rule before the last question.
func Walk(questions []Question, rules []Rule, answers map[uuid.UUID]Answer) (visited []uuid.UUID, ended bool) {
	if len(questions) == 0 {
		return nil, false
	}
	byID := make(map[uuid.UUID]int, len(questions))
	for i, q := range questions {
		byID[q.ID] = i
	}

	seen := make(map[uuid.UUID]bool)
	for i := 0; i >= 0 && i < len(questions); {
		q := questions[i]
		if seen[q.ID] {
			// rule cycle; stop rather than loop forever
			break
		}
		seen[q.ID] = true
		visited = append(visited, q.ID)

		step := Resolve(q.ID, answers[q.ID], rules, questions)
		switch step.Kind {
		case StepEnd:
			return visited, true
		case StepGoTo:
			i = byID[step.QuestionID]
		default:
			i++
		}
	}
	return visited, false
}

func questionExists(questions []Question, id uuid.UUID) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}
