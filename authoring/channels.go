package authoring

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/roles"
	"github.com/websurvey/websurvey/store"
)

const slugBytes = 6

type ChannelInput struct {
	Type         model.ChannelType `json:"type"`
	EmailSubject string            `json:"emailSubject"`
	EmailBody    string            `json:"emailBody"`
}

// CreateChannel opens a new delivery channel. Link and QR channels get a
// random slug unique across all surveys; the public URL is derived from it.
func (s *Service) CreateChannel(ctx context.Context, userID, surveyID uuid.UUID, in ChannelInput) (*model.SurveyChannel, error) {
	switch in.Type {
	case model.ChannelLink, model.ChannelQR, model.ChannelEmail:
	default:
		return nil, invalid("Unknown channel type '" + string(in.Type) + "'.")
	}
	if in.Type == model.ChannelEmail && strings.TrimSpace(in.EmailSubject) == "" {
		return nil, invalid("An email channel needs a subject.")
	}

	var created *model.SurveyChannel
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionManageSettings); err != nil {
			return err
		}

		channel := model.SurveyChannel{
			ID:           uuid.Must(uuid.NewV4()),
			SurveyID:     surveyID,
			Type:         in.Type,
			EmailSubject: in.EmailSubject,
			EmailBody:    in.EmailBody,
			Active:       true,
			CreatedAt:    s.now().UTC(),
		}
		if in.Type == model.ChannelLink || in.Type == model.ChannelQR {
			slug, err := s.newSlug(ctx, tx)
			if err != nil {
				return err
			}
			channel.Slug = slug
			channel.FullURL = strings.TrimRight(s.baseURL, "/") + "/s/" + slug
		}

		if err := store.InsertChannel(ctx, tx, channel); err != nil {
			return err
		}
		created = &channel
		return logActivity(ctx, tx, userID, surveyID, "ChannelCreated", string(in.Type))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) SetChannelActive(ctx context.Context, userID, surveyID, channelID uuid.UUID, active bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionManageSettings); err != nil {
			return err
		}

		channel, err := store.GetChannel(ctx, tx, channelID)
		if err != nil {
			return err
		}
		if channel.SurveyID != surveyID {
			return store.ErrNotFound
		}

		if err := store.SetChannelActive(ctx, tx, channelID, active); err != nil {
			return err
		}
		action := "ChannelDeactivated"
		if active {
			action = "ChannelActivated"
		}
		return logActivity(ctx, tx, userID, surveyID, action, string(channel.Type))
	})
}

func (s *Service) ListChannels(ctx context.Context, userID, surveyID uuid.UUID) ([]model.SurveyChannel, error) {
	if err := requirePermission(ctx, s.db, userID, surveyID, roles.ActionViewReport); err != nil {
		return nil, err
	}
	return store.ListChannels(ctx, s.db, surveyID)
}

// newSlug draws random slugs until one is free. Collisions at this length
// are rare; a handful of retries is plenty.
func (s *Service) newSlug(ctx context.Context, tx *sql.Tx) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		buf := make([]byte, slugBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "authoring.new_slug")
		}
		slug := base64.RawURLEncoding.EncodeToString(buf)
		exists, err := store.SlugExists(ctx, tx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
	}
	return "", errors.New("authoring.new_slug: could not find a free slug")
}
