// Package authoring implements the survey-builder side of the application:
// survey lifecycle, question and option editing, branching rules, delivery
// channels and collaborator management. Every mutation checks the caller's
// role, runs in a single transaction and leaves an activity log entry that
// commits or rolls back with it.
package authoring

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/roles"
	"github.com/websurvey/websurvey/store"
)

// DeniedError reports a permission failure. The reason is safe to show to
// the caller.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

// InvalidError reports a request that is well-formed but violates an
// authoring rule (empty title, delete of a rule-referenced question...).
type InvalidError struct {
	Msg string
}

func (e *InvalidError) Error() string { return e.Msg }

func denied(reason string) error { return &DeniedError{Reason: reason} }
func invalid(msg string) error   { return &InvalidError{Msg: msg} }

type Service struct {
	db      *sql.DB
	baseURL string
	now     func() time.Time
}

func New(db *sql.DB, baseURL string) *Service {
	return NewWithClock(db, baseURL, time.Now)
}

// NewWithClock exists for tests that need to pin the clock.
func NewWithClock(db *sql.DB, baseURL string, now func() time.Time) *Service {
	return &Service{db: db, baseURL: baseURL, now: now}
}

// withTx runs fn inside a transaction, committing on success.
func (s *Service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "authoring.begin_tx")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "authoring.commit_tx")
}

// requirePermission folds the permission check's denial reason into an
// error so callers deal with a single failure path.
func requirePermission(ctx context.Context, q store.Querier, userID, surveyID uuid.UUID, action string) error {
	allowed, reason, _, err := roles.CheckPermission(ctx, q, userID, surveyID, action)
	if err != nil {
		return err
	}
	if !allowed {
		return denied(reason)
	}
	return nil
}

func logActivity(ctx context.Context, q store.Querier, userID, surveyID uuid.UUID, action, detail string) error {
	return store.InsertActivity(ctx, q, model.ActivityLog{
		UserID:     uuid.NullUUID{UUID: userID, Valid: true},
		SurveyID:   uuid.NullUUID{UUID: surveyID, Valid: true},
		ActionType: action,
		Detail:     detail,
	})
}
