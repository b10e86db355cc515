// Package respond implements the response submission pipeline: eligibility
// gates, required-answer validation, idempotent replay and the atomic
// persistence of a response with its answers and audit entry.
package respond

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/flow"
	"github.com/websurvey/websurvey/log"
	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/store"
)

const minTokenLength = 10

// ErrRetryable is the single message surfaced for persistence failures; no
// internal detail leaks to the respondent.
const ErrRetryable = "Failed to submit response. Please try again."

type Pipeline struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Pipeline {
	return &Pipeline{db: db, now: time.Now}
}

// NewWithClock injects the time source; submission tests use it to move the
// clock across a survey's schedule window.
func NewWithClock(db *sql.DB, now func() time.Time) *Pipeline {
	return &Pipeline{db: db, now: now}
}

type SubmitRequest struct {
	SurveyID         uuid.UUID
	ChannelID        uuid.NullUUID
	Answers          map[uuid.UUID]string
	SelectedOptions  map[uuid.UUID][]string
	RespondentEmail  string
	RespondentIP     string
	IdempotencyToken string
}

// mergedAnswers folds selected option ids into the answer map for questions
// answered by selection alone, so validation and storage see one view.
func (req SubmitRequest) mergedAnswers() map[uuid.UUID]string {
	merged := make(map[uuid.UUID]string, len(req.Answers)+len(req.SelectedOptions))
	for id, text := range req.Answers {
		merged[id] = text
	}
	for id, optionIDs := range req.SelectedOptions {
		if strings.TrimSpace(merged[id]) == "" && len(optionIDs) > 0 {
			merged[id] = strings.Join(optionIDs, ",")
		}
	}
	return merged
}

// Submit runs every gate in order and, when all pass, persists the response
// atomically. On failure it returns uuid.Nil and one or more messages; a
// replayed idempotency token returns the original response id as success.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (uuid.UUID, []string) {
	token := strings.TrimSpace(req.IdempotencyToken)
	if token != "" && len(token) < minTokenLength {
		return uuid.Nil, []string{"Invalid security token. Please refresh and try again."}
	}

	survey, err := store.GetSurvey(ctx, p.db, req.SurveyID)
	if err == store.ErrNotFound {
		return uuid.Nil, []string{"Survey not found."}
	}
	if err != nil {
		log.Errorf("respond.submit.get_survey: %s", err)
		return uuid.Nil, []string{ErrRetryable}
	}

	if msgs := p.checkEligibility(ctx, survey, req.ChannelID); len(msgs) > 0 {
		return uuid.Nil, msgs
	}

	questions, err := store.ListQuestions(ctx, p.db, survey.ID)
	if err != nil {
		log.Errorf("respond.submit.list_questions: %s", err)
		return uuid.Nil, []string{ErrRetryable}
	}
	if len(questions) == 0 {
		return uuid.Nil, []string{"Survey has no questions."}
	}

	answers := req.mergedAnswers()
	if violations := flow.ValidateRequired(model.FlowQuestions(questions), answers); len(violations) > 0 {
		var collected *multierror.Error
		for _, v := range violations {
			collected = multierror.Append(collected, errors.New(v.Message))
		}
		return uuid.Nil, messages(collected)
	}

	if token != "" {
		existing, err := store.FindResponseByToken(ctx, p.db, survey.ID, token)
		if err == nil {
			return existing, nil
		}
		if err != store.ErrNotFound {
			log.Errorf("respond.submit.find_replay: %s", err)
			return uuid.Nil, []string{ErrRetryable}
		}
	}

	responseID, err := p.persist(ctx, survey, questions, req, answers, token)
	if err != nil {
		// A concurrent retry may have won the unique (survey, token) race;
		// the loser reads back the winner's id.
		if token != "" {
			if existing, lookupErr := store.FindResponseByToken(ctx, p.db, survey.ID, token); lookupErr == nil {
				return existing, nil
			}
		}
		log.Errorf("respond.submit.persist: %s", err)
		return uuid.Nil, []string{ErrRetryable}
	}
	return responseID, nil
}

// checkEligibility re-checks status, schedule, quota and channel at
// submission time; earlier reads from form load are never trusted.
func (p *Pipeline) checkEligibility(ctx context.Context, survey *model.Survey, channelID uuid.NullUUID) []string {
	if survey.Status != model.StatusPublished {
		return []string{"This survey is not currently accepting responses."}
	}

	now := p.now().UTC()
	if survey.OpenAt != nil && now.Before(survey.OpenAt.UTC()) {
		return []string{"This survey is not yet open."}
	}
	if survey.CloseAt != nil && now.After(survey.CloseAt.UTC()) {
		return []string{"This survey has been closed."}
	}

	if survey.ResponseQuota != nil {
		count, err := store.CountCompletedResponses(ctx, p.db, survey.ID)
		if err != nil {
			log.Errorf("respond.eligibility.quota: %s", err)
			return []string{ErrRetryable}
		}
		if count >= *survey.ResponseQuota {
			return []string{"This survey has reached its response limit."}
		}
	}

	if channelID.Valid {
		channel, err := store.GetChannel(ctx, p.db, channelID.UUID)
		if err != nil && err != store.ErrNotFound {
			log.Errorf("respond.eligibility.channel: %s", err)
			return []string{ErrRetryable}
		}
		if err == store.ErrNotFound || channel.SurveyID != survey.ID || !channel.Active {
			return []string{"Invalid or inactive survey link."}
		}
	}

	return nil
}

// persist writes response, answers and audit entry in one transaction.
func (p *Pipeline) persist(ctx context.Context, survey *model.Survey, questions []model.Question, req SubmitRequest, submitted map[uuid.UUID]string, token string) (uuid.UUID, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	now := p.now().UTC()
	response := model.SurveyResponse{
		ID:               uuid.Must(uuid.NewV4()),
		SurveyID:         survey.ID,
		ChannelID:        req.ChannelID,
		SubmittedAt:      now,
		UpdatedAt:        now,
		Status:           model.ResponseCompleted,
		IdempotencyToken: token,
	}
	if survey.IsAnonymous {
		response.AnonToken = anonymousToken()
	} else {
		response.RespondentEmail = strings.TrimSpace(req.RespondentEmail)
		response.RespondentIP = req.RespondentIP
	}

	if err := store.InsertResponse(ctx, tx, response); err != nil {
		return uuid.Nil, err
	}

	byID := make(map[uuid.UUID]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answers := make([]model.ResponseAnswer, 0, len(submitted))
	for questionID, text := range submitted {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		question, ok := byID[questionID]
		if !ok {
			continue
		}
		answers = append(answers, coerceAnswer(response.ID, question, text, now))
	}
	if err := store.InsertAnswers(ctx, tx, answers); err != nil {
		return uuid.Nil, err
	}

	err = store.InsertActivity(ctx, tx, model.ActivityLog{
		SurveyID:   uuid.NullUUID{UUID: survey.ID, Valid: true},
		ResponseID: uuid.NullUUID{UUID: response.ID, Valid: true},
		ActionType: "ResponseSubmitted",
		Detail:     fmt.Sprintf("Response submitted. Anonymous=%t, Answers=%d", survey.IsAnonymous, len(answers)),
	})
	if err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return response.ID, nil
}

// coerceAnswer keeps the raw text and additionally derives a numeric or
// date value when the question type supports it and the literal parses;
// parse failure just leaves the typed field empty.
func coerceAnswer(responseID uuid.UUID, question model.Question, text string, now time.Time) model.ResponseAnswer {
	a := model.ResponseAnswer{
		ResponseID: responseID,
		QuestionID: question.ID,
		Text:       text,
		UpdatedAt:  now,
	}
	switch question.Type {
	case model.Number:
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			a.NumericValue = &v
		}
	case model.Date:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if v, err := time.Parse(layout, text); err == nil {
				v = v.UTC()
				a.DateValue = &v
				break
			}
		}
	}
	return a
}

// anonymousToken draws 32 bytes from a cryptographically secure source.
func anonymousToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func messages(merr *multierror.Error) []string {
	if merr == nil {
		return nil
	}
	msgs := make([]string, 0, len(merr.Errors))
	for _, err := range merr.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}
