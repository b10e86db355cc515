package store

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
)

func CountCompletedResponses(ctx context.Context, q Querier, surveyID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM survey_response
		WHERE survey_id = ? AND status = ?`,
		surveyID, model.ResponseCompleted,
	).Scan(&n)
	return n, errors.Wrap(err, "store.count_responses")
}

// FindResponseByToken looks up an earlier submission with the same
// idempotency token; used for replay detection.
func FindResponseByToken(ctx context.Context, q Querier, surveyID uuid.UUID, token string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRowContext(ctx, `
		SELECT id FROM survey_response
		WHERE survey_id = ? AND idempotency_token = ?`,
		surveyID, token,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, notFoundOr(err, "store.find_response_by_token")
	}
	return id, nil
}

func InsertResponse(ctx context.Context, q Querier, r model.SurveyResponse) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO survey_response (
			id, survey_id, channel_id, submitted_at, updated_at, status,
			anon_token, respondent_email, respondent_ip, idempotency_token, locked
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SurveyID, r.ChannelID, r.SubmittedAt, r.UpdatedAt, r.Status,
		nullString(r.AnonToken), nullString(r.RespondentEmail),
		nullString(r.RespondentIP), nullString(r.IdempotencyToken), r.Locked,
	)
	return errors.Wrap(err, "store.insert_response")
}

// InsertAnswers bulk-inserts answer rows with one prepared statement.
func InsertAnswers(ctx context.Context, q Querier, answers []model.ResponseAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO response_answer (
			response_id, question_id, answer_text, numeric_value, date_value, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "store.insert_answers.prepare")
	}
	defer stmt.Close()

	for _, a := range answers {
		_, err := stmt.ExecContext(ctx,
			a.ResponseID, a.QuestionID, a.Text, a.NumericValue, a.DateValue, a.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "store.insert_answers.exec")
		}
	}
	return nil
}

// ListResponses returns a survey's responses, most recent first.
func ListResponses(ctx context.Context, q Querier, surveyID uuid.UUID) ([]model.SurveyResponse, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, survey_id, channel_id, submitted_at, updated_at, status,
			anon_token, respondent_email, respondent_ip, idempotency_token, locked
		FROM survey_response
		WHERE survey_id = ?
		ORDER BY submitted_at DESC`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_responses")
	}
	defer rows.Close()

	responses := []model.SurveyResponse{}
	for rows.Next() {
		r := model.SurveyResponse{}
		var anonToken, email, ip, token *string
		err = rows.Scan(
			&r.ID, &r.SurveyID, &r.ChannelID, &r.SubmittedAt, &r.UpdatedAt, &r.Status,
			&anonToken, &email, &ip, &token, &r.Locked,
		)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_responses.scan")
		}
		if anonToken != nil {
			r.AnonToken = *anonToken
		}
		if email != nil {
			r.RespondentEmail = *email
		}
		if ip != nil {
			r.RespondentIP = *ip
		}
		if token != nil {
			r.IdempotencyToken = *token
		}
		r.SubmittedAt = asUTC(r.SubmittedAt)
		responses = append(responses, r)
	}
	return responses, errors.Wrap(rows.Err(), "store.list_responses.rows")
}

// ListAnswers returns the answers of one response keyed by question id.
func ListAnswers(ctx context.Context, q Querier, responseID uuid.UUID) ([]model.ResponseAnswer, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT response_id, question_id, answer_text, numeric_value, date_value, updated_at
		FROM response_answer
		WHERE response_id = ?`,
		responseID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_answers")
	}
	defer rows.Close()

	answers := []model.ResponseAnswer{}
	for rows.Next() {
		a := model.ResponseAnswer{}
		err = rows.Scan(&a.ResponseID, &a.QuestionID, &a.Text, &a.NumericValue, &a.DateValue, &a.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_answers.scan")
		}
		a.DateValue = asUTCPtr(a.DateValue)
		answers = append(answers, a)
	}
	return answers, errors.Wrap(rows.Err(), "store.list_answers.rows")
}
