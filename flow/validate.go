package flow

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
)

// Violation names a required question that is missing an answer.
type Violation struct {
	QuestionID uuid.UUID `json:"questionId"`
	Message    string    `json:"message"`
}

// ValidateRequired enforces required questions up to the high-water mark:
// the position of the last question that has an entry in the answer map.
// Questions after that mark are treated as never reached (branch-driven
// early termination), so their required flag does not apply. An empty answer
// map raises no violations.
//
// Questions must be in natural order. All violations are collected so the
// caller can surface every problem at once.
func ValidateRequired(questions []Question, answers map[uuid.UUID]string) []Violation {
	lastAnswered := -1
	for i := len(questions) - 1; i >= 0; i-- {
		if _, ok := answers[questions[i].ID]; ok {
			lastAnswered = i
			break
		}
	}

	var violations []Violation
	for i := 0; i <= lastAnswered; i++ {
		q := questions[i]
		if !q.Required {
			continue
		}
		if strings.TrimSpace(answers[q.ID]) == "" {
			violations = append(violations, Violation{
				QuestionID: q.ID,
				Message:    fmt.Sprintf("Question '%s' is required.", q.Text),
			})
		}
	}
	return violations
}
