package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
)

// InsertActivity writes one audit entry. Callers pass the same Querier as
// the mutation being audited, so the entry commits or rolls back with it.
func InsertActivity(ctx context.Context, q Querier, entry model.ActivityLog) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO activity_log (user_id, survey_id, response_id, action_type, action_detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.SurveyID, entry.ResponseID,
		entry.ActionType, nullString(entry.Detail), time.Now().UTC(),
	)
	return errors.Wrap(err, "store.insert_activity")
}
