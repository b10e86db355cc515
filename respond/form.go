package respond

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/flow"
	"github.com/websurvey/websurvey/log"
	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/store"
)

// Form is everything a respondent-facing client needs to render and page
// through a survey: questions with their active options, plus the branch
// rules so the client pager can run the same resolver as the server.
type Form struct {
	SurveyID    uuid.UUID      `json:"surveyId"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	IsAnonymous bool           `json:"isAnonymous"`
	ChannelID   *uuid.UUID     `json:"channelId,omitempty"`
	Questions   []FormQuestion `json:"questions"`
	Rules       []FormRule     `json:"rules"`
}

type FormQuestion struct {
	ID       uuid.UUID              `json:"id"`
	Order    int                    `json:"order"`
	Text     string                 `json:"text"`
	Type     model.QuestionType     `json:"type"`
	Required bool                   `json:"required"`
	HelpText string                 `json:"helpText,omitempty"`
	Config   model.QuestionConfig   `json:"config,omitempty"`
	Options  []model.QuestionOption `json:"options,omitempty"`
}

type FormRule struct {
	SourceQuestionID uuid.UUID      `json:"sourceQuestionId"`
	Condition        flow.Condition `json:"condition"`
	TargetAction     flow.Action    `json:"targetAction"`
	TargetQuestionID *uuid.UUID     `json:"targetQuestionId,omitempty"`
	Priority         int            `json:"priority"`
}

// SurveyForResponse loads the form after running the same eligibility gates
// as submission. Inactive options are filtered out; rules come back in
// evaluation order.
func (p *Pipeline) SurveyForResponse(ctx context.Context, surveyID uuid.UUID, channelID uuid.NullUUID) (*Form, []string) {
	survey, err := store.GetSurvey(ctx, p.db, surveyID)
	if err == store.ErrNotFound {
		return nil, []string{"Survey not found."}
	}
	if err != nil {
		log.Errorf("respond.form.get_survey: %s", err)
		return nil, []string{ErrRetryable}
	}

	if msgs := p.checkEligibility(ctx, survey, channelID); len(msgs) > 0 {
		return nil, msgs
	}

	questions, err := store.ListQuestions(ctx, p.db, surveyID)
	if err != nil {
		log.Errorf("respond.form.list_questions: %s", err)
		return nil, []string{ErrRetryable}
	}
	if len(questions) == 0 {
		return nil, []string{"This survey has no questions."}
	}

	allOptions, err := store.ListOptionsBySurvey(ctx, p.db, surveyID)
	if err != nil {
		log.Errorf("respond.form.list_options: %s", err)
		return nil, []string{ErrRetryable}
	}

	rules, err := store.ListRulesBySurvey(ctx, p.db, surveyID)
	if err != nil {
		log.Errorf("respond.form.list_rules: %s", err)
		return nil, []string{ErrRetryable}
	}

	form := &Form{
		SurveyID:    survey.ID,
		Title:       survey.Title,
		Description: survey.Description,
		IsAnonymous: survey.IsAnonymous,
	}
	if channelID.Valid {
		id := channelID.UUID
		form.ChannelID = &id
	}

	for _, q := range questions {
		fq := FormQuestion{
			ID:       q.ID,
			Order:    q.Order,
			Text:     q.Text,
			Type:     q.Type,
			Required: q.Required,
			HelpText: q.HelpText,
			Config:   q.Config,
		}
		for _, o := range allOptions[q.ID] {
			if o.Active {
				fq.Options = append(fq.Options, o)
			}
		}
		form.Questions = append(form.Questions, fq)
	}

	for _, r := range rules {
		fr := FormRule{
			SourceQuestionID: r.SourceQuestionID,
			Condition:        r.Condition,
			TargetAction:     r.TargetAction,
			Priority:         r.Priority,
		}
		if r.TargetQuestionID.Valid {
			id := r.TargetQuestionID.UUID
			fr.TargetQuestionID = &id
		}
		form.Rules = append(form.Rules, fr)
	}

	return form, nil
}

// NextStep runs one resolver step server-side: given the current question
// and its answer, it returns the id of the next question to show, or end.
type NextStepResult struct {
	End            bool       `json:"end"`
	NextQuestionID *uuid.UUID `json:"nextQuestionId,omitempty"`
}

func (p *Pipeline) NextStep(ctx context.Context, surveyID, currentQuestionID uuid.UUID, answer flow.Answer) (*NextStepResult, []string) {
	questions, err := store.ListQuestions(ctx, p.db, surveyID)
	if err != nil {
		log.Errorf("respond.next.list_questions: %s", err)
		return nil, []string{ErrRetryable}
	}

	flowQuestions := model.FlowQuestions(questions)
	currentIdx := -1
	for i, q := range flowQuestions {
		if q.ID == currentQuestionID {
			currentIdx = i
			break
		}
	}
	if currentIdx < 0 {
		return nil, []string{"Question not found."}
	}

	stored, err := store.ListRulesBySource(ctx, p.db, currentQuestionID)
	if err != nil {
		log.Errorf("respond.next.list_rules: %s", err)
		return nil, []string{ErrRetryable}
	}
	rules := make([]flow.Rule, len(stored))
	for i, r := range stored {
		rules[i] = r.FlowRule()
	}

	step := flow.Resolve(currentQuestionID, answer, rules, flowQuestions)
	switch step.Kind {
	case flow.StepEnd:
		return &NextStepResult{End: true}, nil
	case flow.StepGoTo:
		id := step.QuestionID
		return &NextStepResult{NextQuestionID: &id}, nil
	default:
		if currentIdx+1 < len(flowQuestions) {
			id := flowQuestions[currentIdx+1].ID
			return &NextStepResult{NextQuestionID: &id}, nil
		}
		return &NextStepResult{End: true}, nil
	}
}
