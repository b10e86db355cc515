package authoring

import (
	"context"
	"database/sql"

	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/roles"
	"github.com/websurvey/websurvey/store"
)

// AssignCollaborator grants or changes a user's role on the survey. Only
// Viewer and Editor can be granted; the Owner role belongs to the survey's
// owner alone.
func (s *Service) AssignCollaborator(ctx context.Context, userID, surveyID, collaboratorID uuid.UUID, role model.Role) error {
	if role != model.RoleViewer && role != model.RoleEditor {
		return invalid("Collaborator role must be Viewer or Editor.")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionManageSettings); err != nil {
			return err
		}

		survey, err := store.GetSurvey(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		if collaboratorID == survey.OwnerID {
			return invalid("The survey owner cannot be added as a collaborator.")
		}

		err = store.UpsertCollaborator(ctx, tx, model.Collaborator{
			SurveyID:   surveyID,
			UserID:     collaboratorID,
			Role:       role,
			AssignedBy: userID,
		})
		if err != nil {
			return err
		}
		return logActivity(ctx, tx, userID, surveyID, "CollaboratorAssigned", string(role))
	})
}

func (s *Service) RemoveCollaborator(ctx context.Context, userID, surveyID, collaboratorID uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionManageSettings); err != nil {
			return err
		}
		if err := store.DeleteCollaborator(ctx, tx, surveyID, collaboratorID); err != nil {
			return err
		}
		return logActivity(ctx, tx, userID, surveyID, "CollaboratorRemoved", "")
	})
}

func (s *Service) ListCollaborators(ctx context.Context, userID, surveyID uuid.UUID) ([]model.Collaborator, error) {
	if err := requirePermission(ctx, s.db, userID, surveyID, roles.ActionViewReport); err != nil {
		return nil, err
	}
	return store.ListCollaborators(ctx, s.db, surveyID)
}
