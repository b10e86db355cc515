package authoring

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/roles"
	"github.com/websurvey/websurvey/store"
)

func (s *Service) ListResponses(ctx context.Context, userID, surveyID uuid.UUID) ([]model.SurveyResponse, error) {
	if err := requirePermission(ctx, s.db, userID, surveyID, roles.ActionViewReport); err != nil {
		return nil, err
	}
	return store.ListResponses(ctx, s.db, surveyID)
}

func (s *Service) ListAnswers(ctx context.Context, userID, surveyID, responseID uuid.UUID) ([]model.ResponseAnswer, error) {
	if err := requirePermission(ctx, s.db, userID, surveyID, roles.ActionViewReport); err != nil {
		return nil, err
	}
	return store.ListAnswers(ctx, s.db, responseID)
}
