package store

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
)

func GetCollaborator(ctx context.Context, q Querier, surveyID, userID uuid.UUID) (*model.Collaborator, error) {
	c := model.Collaborator{}
	err := q.QueryRowContext(ctx, `
		SELECT survey_id, user_id, role, assigned_by, assigned_at
		FROM survey_collaborator
		WHERE survey_id = ? AND user_id = ?`,
		surveyID, userID,
	).Scan(&c.SurveyID, &c.UserID, &c.Role, &c.AssignedBy, &c.AssignedAt)
	if err != nil {
		return nil, notFoundOr(err, "store.get_collaborator")
	}
	c.AssignedAt = asUTC(c.AssignedAt)
	return &c, nil
}

func ListCollaborators(ctx context.Context, q Querier, surveyID uuid.UUID) ([]model.Collaborator, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT survey_id, user_id, role, assigned_by, assigned_at
		FROM survey_collaborator
		WHERE survey_id = ?
		ORDER BY assigned_at`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_collaborators")
	}
	defer rows.Close()

	collabs := []model.Collaborator{}
	for rows.Next() {
		c := model.Collaborator{}
		err = rows.Scan(&c.SurveyID, &c.UserID, &c.Role, &c.AssignedBy, &c.AssignedAt)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_collaborators.scan")
		}
		c.AssignedAt = asUTC(c.AssignedAt)
		collabs = append(collabs, c)
	}
	return collabs, errors.Wrap(rows.Err(), "store.list_collaborators.rows")
}

func UpsertCollaborator(ctx context.Context, q Querier, c model.Collaborator) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO survey_collaborator (survey_id, user_id, role, assigned_by, assigned_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (survey_id, user_id) DO UPDATE
		SET role = excluded.role, assigned_by = excluded.assigned_by, assigned_at = excluded.assigned_at`,
		c.SurveyID, c.UserID, c.Role, c.AssignedBy, time.Now().UTC(),
	)
	return errors.Wrap(err, "store.upsert_collaborator")
}

func DeleteCollaborator(ctx context.Context, q Querier, surveyID, userID uuid.UUID) error {
	res, err := q.ExecContext(ctx, `
		DELETE FROM survey_collaborator
		WHERE survey_id = ? AND user_id = ?`,
		surveyID, userID,
	)
	if err != nil {
		return errors.Wrap(err, "store.delete_collaborator")
	}
	return requireRow(res)
}
