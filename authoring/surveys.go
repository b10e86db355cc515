package authoring

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/roles"
	"github.com/websurvey/websurvey/store"
)

// publishGrace is subtracted from the open time when a survey is published
// with no schedule, so the survey is immediately open despite clock skew
// between app servers.
const publishGrace = 30 * time.Second

type SurveyInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	DefaultLanguage string `json:"defaultLanguage"`
	IsAnonymous     bool   `json:"isAnonymous"`
}

type ScheduleInput struct {
	OpenAt        *time.Time `json:"openAt"`
	CloseAt       *time.Time `json:"closeAt"`
	ResponseQuota *int       `json:"responseQuota"`
	QuotaBehavior string     `json:"quotaBehavior"`
}

// CreateSurvey creates a new draft owned by the caller.
func (s *Service) CreateSurvey(ctx context.Context, ownerID uuid.UUID, in SurveyInput) (*model.Survey, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("Survey title is required.")
	}

	now := s.now().UTC()
	survey := model.Survey{
		ID:              uuid.Must(uuid.NewV4()),
		OwnerID:         ownerID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		DefaultLanguage: in.DefaultLanguage,
		IsAnonymous:     in.IsAnonymous,
		Status:          model.StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := store.InsertSurvey(ctx, tx, survey); err != nil {
			return err
		}
		return logActivity(ctx, tx, ownerID, survey.ID, "SurveyCreated", survey.Title)
	})
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (s *Service) GetSurvey(ctx context.Context, userID, surveyID uuid.UUID) (*model.Survey, error) {
	if err := requirePermission(ctx, s.db, userID, surveyID, roles.ActionViewReport); err != nil {
		return nil, err
	}
	return store.GetSurvey(ctx, s.db, surveyID)
}

func (s *Service) ListSurveys(ctx context.Context, userID uuid.UUID) ([]model.Survey, error) {
	return store.ListSurveysForUser(ctx, s.db, userID)
}

func (s *Service) UpdateSettings(ctx context.Context, userID, surveyID uuid.UUID, in SurveyInput) (*model.Survey, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("Survey title is required.")
	}

	var updated *model.Survey
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionManageSettings); err != nil {
			return err
		}
		survey, err := store.GetSurvey(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		survey.Title = strings.TrimSpace(in.Title)
		survey.Description = in.Description
		survey.DefaultLanguage = in.DefaultLanguage
		survey.IsAnonymous = in.IsAnonymous
		if err := store.UpdateSurveySettings(ctx, tx, *survey); err != nil {
			return err
		}
		updated = survey
		return logActivity(ctx, tx, userID, surveyID, "SurveySettingsUpdated", "")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateSchedule sets the response window and quota. The close time must
// come after the open time and may not lie in the past.
func (s *Service) UpdateSchedule(ctx context.Context, userID, surveyID uuid.UUID, in ScheduleInput) error {
	now := s.now().UTC()
	if in.CloseAt != nil {
		if in.OpenAt != nil && !in.CloseAt.After(*in.OpenAt) {
			return invalid("Close time must be after open time.")
		}
		if in.CloseAt.Before(now) {
			return invalid("Close time cannot be in the past.")
		}
	}
	if in.ResponseQuota != nil && *in.ResponseQuota < 1 {
		return invalid("Response quota must be at least 1.")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionManageSettings); err != nil {
			return err
		}
		err := store.UpdateSurveySchedule(ctx, tx, surveyID, in.OpenAt, in.CloseAt, in.ResponseQuota, in.QuotaBehavior)
		if err != nil {
			return err
		}
		return logActivity(ctx, tx, userID, surveyID, "SurveyScheduleUpdated", "")
	})
}

// Publish moves a draft survey to Published. A survey needs at least one
// question to go live; when no open time is set, the survey opens
// immediately. Closed surveys go back through Reopen, which clears the
// stale close time.
func (s *Service) Publish(ctx context.Context, userID, surveyID uuid.UUID) (*model.Survey, error) {
	var published *model.Survey
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionPublish); err != nil {
			return err
		}
		survey, err := store.GetSurvey(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		if survey.Status == model.StatusPublished {
			return invalid("Survey is already published.")
		}
		if survey.Status == model.StatusClosed {
			return invalid("Cannot publish a closed survey. Reopen it instead.")
		}

		n, err := store.CountQuestions(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		if n == 0 {
			return invalid("A survey needs at least one question before it can be published.")
		}

		if survey.OpenAt == nil {
			openAt := s.now().UTC().Add(-publishGrace)
			survey.OpenAt = &openAt
		}
		survey.Status = model.StatusPublished
		if err := store.UpdateSurveyStatus(ctx, tx, surveyID, survey.Status, survey.OpenAt, survey.CloseAt); err != nil {
			return err
		}
		published = survey
		return logActivity(ctx, tx, userID, surveyID, "SurveyPublished", "")
	})
	if err != nil {
		return nil, err
	}
	return published, nil
}

// Close stops response collection, stamping the close time.
func (s *Service) Close(ctx context.Context, userID, surveyID uuid.UUID) (*model.Survey, error) {
	var closed *model.Survey
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionPublish); err != nil {
			return err
		}
		survey, err := store.GetSurvey(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		if survey.Status != model.StatusPublished {
			return invalid("Only a published survey can be closed.")
		}

		closeAt := s.now().UTC()
		survey.Status = model.StatusClosed
		survey.CloseAt = &closeAt
		if err := store.UpdateSurveyStatus(ctx, tx, surveyID, survey.Status, survey.OpenAt, survey.CloseAt); err != nil {
			return err
		}
		closed = survey
		return logActivity(ctx, tx, userID, surveyID, "SurveyClosed", "")
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// Reopen puts a closed survey back into collection. The stale close time is
// cleared so the schedule gate does not immediately reject respondents.
func (s *Service) Reopen(ctx context.Context, userID, surveyID uuid.UUID) (*model.Survey, error) {
	var reopened *model.Survey
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionPublish); err != nil {
			return err
		}
		survey, err := store.GetSurvey(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		if survey.Status != model.StatusClosed {
			return invalid("Only a closed survey can be reopened.")
		}

		survey.Status = model.StatusPublished
		survey.CloseAt = nil
		if err := store.UpdateSurveyStatus(ctx, tx, surveyID, survey.Status, survey.OpenAt, nil); err != nil {
			return err
		}
		reopened = survey
		return logActivity(ctx, tx, userID, surveyID, "SurveyReopened", "")
	})
	if err != nil {
		return nil, err
	}
	return reopened, nil
}
