package authoring

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/roles"
	"github.com/websurvey/websurvey/store"
)

type QuestionInput struct {
	Text         string               `json:"text"`
	Type         model.QuestionType   `json:"type"`
	Required     bool                 `json:"required"`
	HelpText     string               `json:"helpText"`
	DefaultValue string               `json:"defaultValue"`
	Config       model.QuestionConfig `json:"config"`
	Options      []OptionInput        `json:"options"`
}

// OptionInput carries one choice option. A nil ID means a new option; an
// existing ID updates that option in place, preserving any answers that
// reference it.
type OptionInput struct {
	ID     *uuid.UUID `json:"id"`
	Text   string     `json:"text"`
	Value  string     `json:"value"`
	Active bool       `json:"active"`
}

var questionTypes = map[model.QuestionType]bool{
	model.ShortText: true, model.LongText: true, model.Number: true,
	model.Date: true, model.YesNo: true, model.Rating: true,
	model.NPS: true, model.Slider: true, model.MultipleChoice: true,
	model.Checkboxes: true, model.Dropdown: true, model.MultiSelectDropdown: true,
	model.Ranking: true, model.Likert: true, model.Matrix: true,
	model.Section: true, model.PageBreak: true,
}

func validateQuestionInput(in QuestionInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return invalid("Question text is required.")
	}
	if !questionTypes[in.Type] {
		return invalid("Unknown question type '" + string(in.Type) + "'.")
	}
	if in.Type.RequiresOptions() {
		active := 0
		for _, o := range in.Options {
			if strings.TrimSpace(o.Text) == "" {
				return invalid("Option text is required.")
			}
			if o.Active {
				active++
			}
		}
		if active == 0 {
			return invalid("This question type needs at least one active option.")
		}
	}
	return nil
}

// CreateQuestion appends a question at the end of the survey.
func (s *Service) CreateQuestion(ctx context.Context, userID, surveyID uuid.UUID, in QuestionInput) (*model.Question, error) {
	if err := validateQuestionInput(in); err != nil {
		return nil, err
	}

	var created *model.Question
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionEditQuestion); err != nil {
			return err
		}

		order, err := store.NextQuestionOrder(ctx, tx, surveyID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		question := model.Question{
			ID:           uuid.Must(uuid.NewV4()),
			SurveyID:     surveyID,
			Order:        order,
			Text:         strings.TrimSpace(in.Text),
			Type:         in.Type,
			Required:     in.Required,
			HelpText:     in.HelpText,
			DefaultValue: in.DefaultValue,
			Config:       in.Config,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.InsertQuestion(ctx, tx, question); err != nil {
			return err
		}

		if in.Type.RequiresOptions() {
			question.Options, err = insertOptions(ctx, tx, question.ID, in.Options)
			if err != nil {
				return err
			}
		}

		created = &question
		return logActivity(ctx, tx, userID, surveyID, "QuestionCreated", question.Text)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateQuestion rewrites a question and reconciles its options: inputs
// carrying an id update the stored option, the rest are inserted new, and
// stored options absent from the input are deleted. Switching to a type
// without options drops them all.
func (s *Service) UpdateQuestion(ctx context.Context, userID, surveyID, questionID uuid.UUID, in QuestionInput) (*model.Question, error) {
	if err := validateQuestionInput(in); err != nil {
		return nil, err
	}

	var updated *model.Question
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionEditQuestion); err != nil {
			return err
		}

		question, err := store.GetQuestion(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if question.SurveyID != surveyID {
			return store.ErrNotFound
		}

		question.Text = strings.TrimSpace(in.Text)
		question.Type = in.Type
		question.Required = in.Required
		question.HelpText = in.HelpText
		question.DefaultValue = in.DefaultValue
		question.Config = in.Config
		if err := store.UpdateQuestion(ctx, tx, *question); err != nil {
			return err
		}

		if in.Type.RequiresOptions() {
			question.Options, err = reconcileOptions(ctx, tx, questionID, in.Options)
			if err != nil {
				return err
			}
		} else {
			question.Options = nil
			if err := store.DeleteOptions(ctx, tx, questionID); err != nil {
				return err
			}
		}

		updated = question
		return logActivity(ctx, tx, userID, surveyID, "QuestionUpdated", question.Text)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteQuestion removes a question and renumbers the rest. Questions still
// referenced by a branching rule cannot be deleted; the rule has to go
// first or navigation would dangle.
func (s *Service) DeleteQuestion(ctx context.Context, userID, surveyID, questionID uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionEditQuestion); err != nil {
			return err
		}

		question, err := store.GetQuestion(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if question.SurveyID != surveyID {
			return store.ErrNotFound
		}

		referenced, err := store.QuestionReferencedByRule(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if referenced {
			return invalid("Question is referenced by a branching rule and cannot be deleted.")
		}

		if err := store.DeleteQuestion(ctx, tx, questionID); err != nil {
			return err
		}
		if err := store.CloseOrderGap(ctx, tx, surveyID, question.Order); err != nil {
			return err
		}
		return logActivity(ctx, tx, userID, surveyID, "QuestionDeleted", question.Text)
	})
}

// ReorderQuestions applies a full new ordering. The id list must be exactly
// the survey's questions, each once.
func (s *Service) ReorderQuestions(ctx context.Context, userID, surveyID uuid.UUID, ids []uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionEditQuestion); err != nil {
			return err
		}

		existing, err := store.ListQuestions(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		if len(ids) != len(existing) {
			return invalid("Reorder must include every question exactly once.")
		}
		known := make(map[uuid.UUID]bool, len(existing))
		for _, q := range existing {
			known[q.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return invalid("Reorder must include every question exactly once.")
			}
			delete(known, id)
		}

		if err := store.UpdateQuestionOrders(ctx, tx, surveyID, ids); err != nil {
			return err
		}
		return logActivity(ctx, tx, userID, surveyID, "QuestionsReordered", "")
	})
}

func (s *Service) ListQuestions(ctx context.Context, userID, surveyID uuid.UUID) ([]model.Question, error) {
	if err := requirePermission(ctx, s.db, userID, surveyID, roles.ActionViewReport); err != nil {
		return nil, err
	}
	questions, err := store.ListQuestions(ctx, s.db, surveyID)
	if err != nil {
		return nil, err
	}
	options, err := store.ListOptionsBySurvey(ctx, s.db, surveyID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].Options = options[questions[i].ID]
	}
	return questions, nil
}

func insertOptions(ctx context.Context, tx *sql.Tx, questionID uuid.UUID, inputs []OptionInput) ([]model.QuestionOption, error) {
	options := make([]model.QuestionOption, 0, len(inputs))
	for i, in := range inputs {
		o := model.QuestionOption{
			ID:       uuid.Must(uuid.NewV4()),
			Question: questionID,
			Order:    i + 1,
			Text:     strings.TrimSpace(in.Text),
			Value:    in.Value,
			Active:   in.Active,
		}
		if err := store.InsertOption(ctx, tx, o); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, nil
}

func reconcileOptions(ctx context.Context, tx *sql.Tx, questionID uuid.UUID, inputs []OptionInput) ([]model.QuestionOption, error) {
	keep := make([]uuid.UUID, 0, len(inputs))
	options := make([]model.QuestionOption, 0, len(inputs))
	for i, in := range inputs {
		o := model.QuestionOption{
			Question: questionID,
			Order:    i + 1,
			Text:     strings.TrimSpace(in.Text),
			Value:    in.Value,
			Active:   in.Active,
		}
		if in.ID != nil {
			o.ID = *in.ID
			if err := store.UpdateOption(ctx, tx, o); err != nil {
				return nil, err
			}
		} else {
			o.ID = uuid.Must(uuid.NewV4())
			if err := store.InsertOption(ctx, tx, o); err != nil {
				return nil, err
			}
		}
		keep = append(keep, o.ID)
		options = append(options, o)
	}
	if err := store.DeleteOptionsExcept(ctx, tx, questionID, keep); err != nil {
		return nil, err
	}
	return options, nil
}
