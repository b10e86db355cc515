package store

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
)

const surveyColumns = `
	id, owner_id, title, description, default_language, is_anonymous,
	status, open_at, close_at, response_quota, quota_behavior,
	created_at, updated_at`

func scanSurvey(row interface{ Scan(...any) error }) (*model.Survey, error) {
	s := model.Survey{}
	var description, language, quotaBehavior *string
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Title, &description, &language, &s.IsAnonymous,
		&s.Status, &s.OpenAt, &s.CloseAt, &s.ResponseQuota, &quotaBehavior,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description != nil {
		s.Description = *description
	}
	if language != nil {
		s.DefaultLanguage = *language
	}
	if quotaBehavior != nil {
		s.QuotaBehavior = *quotaBehavior
	}
	// stored timestamps carry no zone; they are UTC by policy
	s.CreatedAt = asUTC(s.CreatedAt)
	s.UpdatedAt = asUTC(s.UpdatedAt)
	s.OpenAt = asUTCPtr(s.OpenAt)
	s.CloseAt = asUTCPtr(s.CloseAt)
	return &s, nil
}

func asUTC(t time.Time) time.Time { return t.UTC() }

func asUTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func GetSurvey(ctx context.Context, q Querier, id uuid.UUID) (*model.Survey, error) {
	row := q.QueryRowContext(ctx, `SELECT`+surveyColumns+` FROM survey WHERE id = ?`, id)
	s, err := scanSurvey(row)
	if err != nil {
		return nil, notFoundOr(err, "store.get_survey")
	}
	return s, nil
}

func InsertSurvey(ctx context.Context, q Querier, s model.Survey) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO survey (
			id, owner_id, title, description, default_language, is_anonymous,
			status, open_at, close_at, response_quota, quota_behavior,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OwnerID, s.Title, nullString(s.Description), nullString(s.DefaultLanguage),
		s.IsAnonymous, s.Status, s.OpenAt, s.CloseAt, s.ResponseQuota,
		nullString(s.QuotaBehavior), s.CreatedAt, s.UpdatedAt,
	)
	return errors.Wrap(err, "store.insert_survey")
}

func UpdateSurveySettings(ctx context.Context, q Querier, s model.Survey) error {
	res, err := q.ExecContext(ctx, `
		UPDATE survey
		SET title = ?, description = ?, default_language = ?, is_anonymous = ?, updated_at = ?
		WHERE id = ?`,
		s.Title, nullString(s.Description), nullString(s.DefaultLanguage),
		s.IsAnonymous, time.Now().UTC(), s.ID,
	)
	if err != nil {
		return errors.Wrap(err, "store.update_survey_settings")
	}
	return requireRow(res)
}

func UpdateSurveySchedule(ctx context.Context, q Querier, id uuid.UUID, openAt, closeAt *time.Time, quota *int, quotaBehavior string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE survey
		SET open_at = ?, close_at = ?, response_quota = ?, quota_behavior = ?, updated_at = ?
		WHERE id = ?`,
		openAt, closeAt, quota, nullString(quotaBehavior), time.Now().UTC(), id,
	)
	if err != nil {
		return errors.Wrap(err, "store.update_survey_schedule")
	}
	return requireRow(res)
}

func UpdateSurveyStatus(ctx context.Context, q Querier, id uuid.UUID, status model.SurveyStatus, openAt, closeAt *time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE survey
		SET status = ?, open_at = ?, close_at = ?, updated_at = ?
		WHERE id = ?`,
		status, openAt, closeAt, time.Now().UTC(), id,
	)
	if err != nil {
		return errors.Wrap(err, "store.update_survey_status")
	}
	return requireRow(res)
}

// ListSurveysForUser returns surveys the user owns or collaborates on.
func ListSurveysForUser(ctx context.Context, q Querier, userID uuid.UUID) ([]model.Survey, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT`+surveyColumns+`
		FROM survey
		WHERE owner_id = ?
			OR id IN (SELECT survey_id FROM survey_collaborator WHERE user_id = ?)
		ORDER BY created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_surveys")
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_surveys.scan")
		}
		surveys = append(surveys, *s)
	}
	return surveys, errors.Wrap(rows.Err(), "store.list_surveys.rows")
}

func requireRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "store.rows_affected")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
