package respond

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/websurvey/websurvey/config"
	"github.com/websurvey/websurvey/database"
	"github.com/websurvey/websurvey/flow"
	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/store"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(config.Config{
		DBUrl: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedOwner(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := db.Exec(
		"INSERT INTO user (id, username, password_hash) VALUES (?, ?, ?)",
		id, "owner-"+id.String()[:8], "x")
	require.NoError(t, err)
	return id
}

func seedSurvey(t *testing.T, db *sql.DB, mutate func(*model.Survey)) *model.Survey {
	t.Helper()
	openAt := testNow.Add(-time.Hour)
	survey := &model.Survey{
		ID:        uuid.Must(uuid.NewV4()),
		OwnerID:   seedOwner(t, db),
		Title:     "Customer feedback",
		Status:    model.StatusPublished,
		OpenAt:    &openAt,
		CreatedAt: testNow.Add(-24 * time.Hour),
		UpdatedAt: testNow.Add(-24 * time.Hour),
	}
	if mutate != nil {
		mutate(survey)
	}
	require.NoError(t, store.InsertSurvey(context.Background(), db, *survey))
	return survey
}

func seedQuestion(t *testing.T, db *sql.DB, surveyID uuid.UUID, order int, text string, qtype model.QuestionType, required bool) model.Question {
	t.Helper()
	q := model.Question{
		ID:        uuid.Must(uuid.NewV4()),
		SurveyID:  surveyID,
		Order:     order,
		Text:      text,
		Type:      qtype,
		Required:  required,
		CreatedAt: testNow.Add(-24 * time.Hour),
		UpdatedAt: testNow.Add(-24 * time.Hour),
	}
	require.NoError(t, store.InsertQuestion(context.Background(), db, q))
	return q
}

func fixedClock() time.Time { return testNow }

func TestSubmitStoresResponseAnswersAndAudit(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	name := seedQuestion(t, db, survey.ID, 1, "Your name", model.ShortText, true)
	age := seedQuestion(t, db, survey.ID, 2, "Your age", model.Number, false)

	p := NewWithClock(db, fixedClock)
	responseID, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers: map[uuid.UUID]string{
			name.ID: "Ada",
			age.ID:  "36",
		},
		RespondentEmail: "ada@example.com",
		RespondentIP:    "10.0.0.1",
	})
	require.Nil(t, msgs)
	require.NotEqual(t, uuid.Nil, responseID)

	responses, err := store.ListResponses(context.Background(), db, survey.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, responseID, responses[0].ID)
	assert.Equal(t, model.ResponseCompleted, responses[0].Status)
	assert.Equal(t, "ada@example.com", responses[0].RespondentEmail)
	assert.Equal(t, "10.0.0.1", responses[0].RespondentIP)
	assert.Empty(t, responses[0].AnonToken)

	answers, err := store.ListAnswers(context.Background(), db, responseID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	byQuestion := map[uuid.UUID]model.ResponseAnswer{}
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	assert.Equal(t, "Ada", byQuestion[name.ID].Text)
	require.NotNil(t, byQuestion[age.ID].NumericValue)
	assert.Equal(t, 36.0, *byQuestion[age.ID].NumericValue)

	var audited int
	err = db.QueryRow(
		"SELECT COUNT(*) FROM activity_log WHERE response_id = ? AND action_type = 'ResponseSubmitted'",
		responseID).Scan(&audited)
	require.NoError(t, err)
	assert.Equal(t, 1, audited)
}

func TestSubmitRollsBackOnPersistFailure(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	name := seedQuestion(t, db, survey.ID, 1, "Your name", model.ShortText, true)

	// abort the audit insert, the last statement of the transaction, so the
	// response and answer rows already written must be rolled back with it
	_, err := db.Exec(`CREATE TRIGGER fail_submit_audit
		BEFORE INSERT ON activity_log
		WHEN NEW.action_type = 'ResponseSubmitted'
		BEGIN SELECT RAISE(ABORT, 'induced failure'); END`)
	require.NoError(t, err)

	p := NewWithClock(db, fixedClock)
	responseID, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers:  map[uuid.UUID]string{name.ID: "Ada"},
	})
	assert.Equal(t, []string{ErrRetryable}, msgs)
	assert.Equal(t, uuid.Nil, responseID)

	for _, table := range []string{"survey_response", "response_answer", "activity_log"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	// once the fault is gone the same submission goes through whole
	_, err = db.Exec("DROP TRIGGER fail_submit_audit")
	require.NoError(t, err)

	responseID, msgs = p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers:  map[uuid.UUID]string{name.ID: "Ada"},
	})
	require.Nil(t, msgs)
	require.NotEqual(t, uuid.Nil, responseID)

	answers, err := store.ListAnswers(context.Background(), db, responseID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestSubmitAnonymousDiscardsIdentity(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, func(s *model.Survey) { s.IsAnonymous = true })
	q := seedQuestion(t, db, survey.ID, 1, "Feedback", model.LongText, false)

	p := NewWithClock(db, fixedClock)
	_, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID:        survey.ID,
		Answers:         map[uuid.UUID]string{q.ID: "all good"},
		RespondentEmail: "ada@example.com",
		RespondentIP:    "10.0.0.1",
	})
	require.Nil(t, msgs)

	responses, err := store.ListResponses(context.Background(), db, survey.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Empty(t, responses[0].RespondentEmail)
	assert.Empty(t, responses[0].RespondentIP)
	assert.GreaterOrEqual(t, len(responses[0].AnonToken), 40)

	_, msgs = p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers:  map[uuid.UUID]string{q.ID: "again"},
	})
	require.Nil(t, msgs)

	responses, err = store.ListResponses(context.Background(), db, survey.ID)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.NotEqual(t, responses[0].AnonToken, responses[1].AnonToken)
}

func TestSubmitDateCoercion(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	when := seedQuestion(t, db, survey.ID, 1, "Visit date", model.Date, false)

	p := NewWithClock(db, fixedClock)
	responseID, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers:  map[uuid.UUID]string{when.ID: "2026-02-01"},
	})
	require.Nil(t, msgs)

	answers, err := store.ListAnswers(context.Background(), db, responseID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].DateValue)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *answers[0].DateValue)
}

func TestSubmitCoercionFailureKeepsText(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	age := seedQuestion(t, db, survey.ID, 1, "Your age", model.Number, false)

	p := NewWithClock(db, fixedClock)
	responseID, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers:  map[uuid.UUID]string{age.ID: "thirty-six"},
	})
	require.Nil(t, msgs)

	answers, err := store.ListAnswers(context.Background(), db, responseID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "thirty-six", answers[0].Text)
	assert.Nil(t, answers[0].NumericValue)
}

func TestSubmitRequiredViolations(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	seedQuestion(t, db, survey.ID, 1, "Your name", model.ShortText, true)
	email := seedQuestion(t, db, survey.ID, 2, "Your email", model.ShortText, true)
	feedback := seedQuestion(t, db, survey.ID, 3, "Feedback", model.LongText, false)

	p := NewWithClock(db, fixedClock)
	_, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers: map[uuid.UUID]string{
			email.ID:    "  ",
			feedback.ID: "nice",
		},
	})
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs, "Question 'Your name' is required.")
	assert.Contains(t, msgs, "Question 'Your email' is required.")

	responses, err := store.ListResponses(context.Background(), db, survey.ID)
	require.NoError(t, err)
	assert.Empty(t, responses)
}

func TestSubmitSelectedOptionsSatisfyRequired(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	topics := seedQuestion(t, db, survey.ID, 1, "Topics", model.Checkboxes, true)

	p := NewWithClock(db, fixedClock)
	responseID, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		SelectedOptions: map[uuid.UUID][]string{
			topics.ID: {"opt-a", "opt-b"},
		},
	})
	require.Nil(t, msgs)

	answers, err := store.ListAnswers(context.Background(), db, responseID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "opt-a,opt-b", answers[0].Text)
}

func TestSubmitStatusGate(t *testing.T) {
	for _, status := range []model.SurveyStatus{model.StatusDraft, model.StatusClosed} {
		t.Run(string(status), func(t *testing.T) {
			db := testDB(t)
			survey := seedSurvey(t, db, func(s *model.Survey) { s.Status = status })
			q := seedQuestion(t, db, survey.ID, 1, "Q", model.ShortText, false)

			p := NewWithClock(db, fixedClock)
			_, msgs := p.Submit(context.Background(), SubmitRequest{
				SurveyID: survey.ID,
				Answers:  map[uuid.UUID]string{q.ID: "x"},
			})
			assert.Equal(t, []string{"This survey is not currently accepting responses."}, msgs)
		})
	}
}

func TestSubmitScheduleWindow(t *testing.T) {
	t.Run("not yet open", func(t *testing.T) {
		db := testDB(t)
		survey := seedSurvey(t, db, func(s *model.Survey) {
			openAt := testNow.Add(time.Hour)
			s.OpenAt = &openAt
		})
		q := seedQuestion(t, db, survey.ID, 1, "Q", model.ShortText, false)

		p := NewWithClock(db, fixedClock)
		_, msgs := p.Submit(context.Background(), SubmitRequest{
			SurveyID: survey.ID,
			Answers:  map[uuid.UUID]string{q.ID: "x"},
		})
		assert.Equal(t, []string{"This survey is not yet open."}, msgs)
	})

	t.Run("already closed", func(t *testing.T) {
		db := testDB(t)
		survey := seedSurvey(t, db, func(s *model.Survey) {
			closeAt := testNow.Add(-time.Minute)
			s.CloseAt = &closeAt
		})
		q := seedQuestion(t, db, survey.ID, 1, "Q", model.ShortText, false)

		p := NewWithClock(db, fixedClock)
		_, msgs := p.Submit(context.Background(), SubmitRequest{
			SurveyID: survey.ID,
			Answers:  map[uuid.UUID]string{q.ID: "x"},
		})
		assert.Equal(t, []string{"This survey has been closed."}, msgs)
	})
}

func TestSubmitQuota(t *testing.T) {
	db := testDB(t)
	quota := 1
	survey := seedSurvey(t, db, func(s *model.Survey) { s.ResponseQuota = &quota })
	q := seedQuestion(t, db, survey.ID, 1, "Q", model.ShortText, false)

	p := NewWithClock(db, fixedClock)
	_, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers:  map[uuid.UUID]string{q.ID: "first"},
	})
	require.Nil(t, msgs)

	_, msgs = p.Submit(context.Background(), SubmitRequest{
		SurveyID: survey.ID,
		Answers:  map[uuid.UUID]string{q.ID: "second"},
	})
	assert.Equal(t, []string{"This survey has reached its response limit."}, msgs)
}

func TestSubmitIdempotentReplay(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	q := seedQuestion(t, db, survey.ID, 1, "Q", model.ShortText, false)

	p := NewWithClock(db, fixedClock)
	req := SubmitRequest{
		SurveyID:         survey.ID,
		Answers:          map[uuid.UUID]string{q.ID: "once"},
		IdempotencyToken: "token-abcdef-123456",
	}

	first, msgs := p.Submit(context.Background(), req)
	require.Nil(t, msgs)

	second, msgs := p.Submit(context.Background(), req)
	require.Nil(t, msgs)
	assert.Equal(t, first, second)

	responses, err := store.ListResponses(context.Background(), db, survey.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
}

func TestSubmitShortTokenRejected(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	q := seedQuestion(t, db, survey.ID, 1, "Q", model.ShortText, false)

	p := NewWithClock(db, fixedClock)
	_, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID:         survey.ID,
		Answers:          map[uuid.UUID]string{q.ID: "x"},
		IdempotencyToken: "short",
	})
	assert.Equal(t, []string{"Invalid security token. Please refresh and try again."}, msgs)
}

func TestSubmitChannelGate(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	q := seedQuestion(t, db, survey.ID, 1, "Q", model.ShortText, false)

	channel := model.SurveyChannel{
		ID:        uuid.Must(uuid.NewV4()),
		SurveyID:  survey.ID,
		Type:      model.ChannelLink,
		Slug:      "abc123",
		Active:    false,
		CreatedAt: testNow,
	}
	require.NoError(t, store.InsertChannel(context.Background(), db, channel))

	p := NewWithClock(db, fixedClock)
	_, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID:  survey.ID,
		ChannelID: uuid.NullUUID{UUID: channel.ID, Valid: true},
		Answers:   map[uuid.UUID]string{q.ID: "x"},
	})
	assert.Equal(t, []string{"Invalid or inactive survey link."}, msgs)

	_, msgs = p.Submit(context.Background(), SubmitRequest{
		SurveyID:  survey.ID,
		ChannelID: uuid.NullUUID{UUID: uuid.Must(uuid.NewV4()), Valid: true},
		Answers:   map[uuid.UUID]string{q.ID: "x"},
	})
	assert.Equal(t, []string{"Invalid or inactive survey link."}, msgs)
}

func TestSubmitUnknownSurvey(t *testing.T) {
	db := testDB(t)
	p := NewWithClock(db, fixedClock)
	_, msgs := p.Submit(context.Background(), SubmitRequest{
		SurveyID: uuid.Must(uuid.NewV4()),
	})
	assert.Equal(t, []string{"Survey not found."}, msgs)
}

func TestSurveyForResponseFiltersInactiveOptions(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	choice := seedQuestion(t, db, survey.ID, 1, "Pick one", model.MultipleChoice, true)

	active := model.QuestionOption{
		ID: uuid.Must(uuid.NewV4()), Question: choice.ID, Order: 1, Text: "Yes", Active: true,
	}
	retired := model.QuestionOption{
		ID: uuid.Must(uuid.NewV4()), Question: choice.ID, Order: 2, Text: "Old", Active: false,
	}
	require.NoError(t, store.InsertOption(context.Background(), db, active))
	require.NoError(t, store.InsertOption(context.Background(), db, retired))

	p := NewWithClock(db, fixedClock)
	form, msgs := p.SurveyForResponse(context.Background(), survey.ID, uuid.NullUUID{})
	require.Nil(t, msgs)
	require.Len(t, form.Questions, 1)
	require.Len(t, form.Questions[0].Options, 1)
	assert.Equal(t, active.ID, form.Questions[0].Options[0].ID)
}

func TestSurveyForResponseIncludesRules(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	first := seedQuestion(t, db, survey.ID, 1, "First", model.YesNo, false)
	seedQuestion(t, db, survey.ID, 2, "Second", model.ShortText, false)

	rule := model.BranchRule{
		ID:               uuid.Must(uuid.NewV4()),
		SurveyID:         survey.ID,
		SourceQuestionID: first.ID,
		Condition:        flow.Condition{Operator: flow.OpEquals, Value: "no"},
		TargetAction:     flow.ActionEndSurvey,
		Priority:         1,
		CreatedAt:        testNow,
	}
	require.NoError(t, store.InsertRule(context.Background(), db, rule))

	p := NewWithClock(db, fixedClock)
	form, msgs := p.SurveyForResponse(context.Background(), survey.ID, uuid.NullUUID{})
	require.Nil(t, msgs)
	assert.Len(t, form.Questions, 2)
	require.Len(t, form.Rules, 1)
	assert.Equal(t, first.ID, form.Rules[0].SourceQuestionID)
	assert.Equal(t, flow.ActionEndSurvey, form.Rules[0].TargetAction)
}

func TestSurveyForResponseGates(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, func(s *model.Survey) { s.Status = model.StatusDraft })
	seedQuestion(t, db, survey.ID, 1, "Q", model.ShortText, false)

	p := NewWithClock(db, fixedClock)
	form, msgs := p.SurveyForResponse(context.Background(), survey.ID, uuid.NullUUID{})
	assert.Nil(t, form)
	assert.Equal(t, []string{"This survey is not currently accepting responses."}, msgs)
}

func TestNextStepFollowsRules(t *testing.T) {
	db := testDB(t)
	survey := seedSurvey(t, db, nil)
	first := seedQuestion(t, db, survey.ID, 1, "First", model.YesNo, false)
	second := seedQuestion(t, db, survey.ID, 2, "Second", model.ShortText, false)
	third := seedQuestion(t, db, survey.ID, 3, "Third", model.ShortText, false)

	rule := model.BranchRule{
		ID:               uuid.Must(uuid.NewV4()),
		SurveyID:         survey.ID,
		SourceQuestionID: first.ID,
		Condition:        flow.Condition{Operator: flow.OpEquals, Value: "yes"},
		TargetAction:     flow.ActionSkipTo,
		TargetQuestionID: uuid.NullUUID{UUID: third.ID, Valid: true},
		Priority:         1,
		CreatedAt:        testNow,
	}
	require.NoError(t, store.InsertRule(context.Background(), db, rule))

	p := NewWithClock(db, fixedClock)

	step, msgs := p.NextStep(context.Background(), survey.ID, first.ID, flow.Answer{Text: "yes"})
	require.Nil(t, msgs)
	require.NotNil(t, step.NextQuestionID)
	assert.Equal(t, third.ID, *step.NextQuestionID)

	step, msgs = p.NextStep(context.Background(), survey.ID, first.ID, flow.Answer{Text: "no"})
	require.Nil(t, msgs)
	require.NotNil(t, step.NextQuestionID)
	assert.Equal(t, second.ID, *step.NextQuestionID)

	step, msgs = p.NextStep(context.Background(), survey.ID, third.ID, flow.Answer{Text: "done"})
	require.Nil(t, msgs)
	assert.True(t, step.End)
}
