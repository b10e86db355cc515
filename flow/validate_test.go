package flow

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateRequired(t *testing.T) {
	questions := []Question{
		{ID: newID(t), Order: 1, Text: "Name", Required: true},
		{ID: newID(t), Order: 2, Text: "Age", Required: false},
		{ID: newID(t), Order: 3, Text: "Email", Required: true},
		{ID: newID(t), Order: 4, Text: "Feedback", Required: true},
	}

	t.Run("empty answer map raises nothing", func(t *testing.T) {
		assert.Empty(t, ValidateRequired(questions, nil))
		assert.Empty(t, ValidateRequired(questions, map[uuid.UUID]string{}))
	})

	t.Run("all required answered", func(t *testing.T) {
		answers := map[uuid.UUID]string{
			questions[0].ID: "Ada",
			questions[2].ID: "ada@example.com",
			questions[3].ID: "fine",
		}
		assert.Empty(t, ValidateRequired(questions, answers))
	})

	t.Run("required after the last answered question is not enforced", func(t *testing.T) {
		// only the first question answered: the respondent never reached
		// Email or Feedback, so they raise no violations
		answers := map[uuid.UUID]string{
			questions[0].ID: "Ada",
		}
		assert.Empty(t, ValidateRequired(questions, answers))
	})

	t.Run("required before the last answered question is enforced", func(t *testing.T) {
		answers := map[uuid.UUID]string{
			questions[3].ID: "fine",
		}
		violations := ValidateRequired(questions, answers)
		assert.Len(t, violations, 2)
		assert.Equal(t, questions[0].ID, violations[0].QuestionID)
		assert.Equal(t, "Question 'Name' is required.", violations[0].Message)
		assert.Equal(t, questions[2].ID, violations[1].QuestionID)
	})

	t.Run("blank answer counts as missing", func(t *testing.T) {
		answers := map[uuid.UUID]string{
			questions[0].ID: "   ",
			questions[2].ID: "ada@example.com",
		}
		violations := ValidateRequired(questions, answers)
		assert.Len(t, violations, 1)
		assert.Equal(t, questions[0].ID, violations[0].QuestionID)
	})

	t.Run("blank answer still moves the mark", func(t *testing.T) {
		// a key with a blank value marks the question as reached
		answers := map[uuid.UUID]string{
			questions[3].ID: "",
		}
		violations := ValidateRequired(questions, answers)
		assert.Len(t, violations, 3)
	})

	t.Run("optional questions never raise", func(t *testing.T) {
		answers := map[uuid.UUID]string{
			questions[0].ID: "Ada",
			questions[1].ID: "",
			questions[2].ID: "ada@example.com",
			questions[3].ID: "fine",
		}
		assert.Empty(t, ValidateRequired(questions, answers))
	})
}
