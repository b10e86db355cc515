// Package roles implements the per-survey permission model: the survey
// owner outranks collaborators, who hold either the Viewer or Editor role.
package roles

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/store"
)

const (
	ActionEditQuestion   = "EditQuestion"
	ActionEditSurvey     = "EditSurvey"
	ActionPublish        = "Publish"
	ActionManageSettings = "ManageSettings"
	ActionViewReport     = "ViewReport"
)

var roleRank = map[model.Role]int{
	model.RoleViewer: 1,
	model.RoleEditor: 2,
	model.RoleOwner:  4,
}

func requiredRank(action string) int {
	switch action {
	case ActionEditQuestion:
		return roleRank[model.RoleEditor]
	case ActionEditSurvey, ActionPublish, ActionManageSettings:
		return roleRank[model.RoleOwner]
	case ActionViewReport:
		return roleRank[model.RoleViewer]
	default:
		return roleRank[model.RoleViewer]
	}
}

// CheckPermission resolves the user's effective role on the survey and
// compares it to the rank the action requires. A denial comes back as a
// reason string, not an error; errors are reserved for storage failures.
func CheckPermission(ctx context.Context, q store.Querier, userID, surveyID uuid.UUID, action string) (allowed bool, reason string, role model.Role, err error) {
	survey, err := store.GetSurvey(ctx, q, surveyID)
	if errors.Is(err, store.ErrNotFound) {
		return false, "Survey not found.", "", nil
	}
	if err != nil {
		return false, "", "", err
	}

	if userID == survey.OwnerID {
		role = model.RoleOwner
	} else {
		collab, err := store.GetCollaborator(ctx, q, surveyID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return false, "Access denied.", "", nil
		}
		if err != nil {
			return false, "", "", err
		}
		role = collab.Role
	}

	if roleRank[role] >= requiredRank(action) {
		return true, "", role, nil
	}
	return false, fmt.Sprintf("Insufficient permission for action '%s'.", action), role, nil
}
