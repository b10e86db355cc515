package store

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
)

const channelColumns = `
	id, survey_id, channel_type, slug, full_url, qr_image_path,
	email_subject, email_body, sent_at, active, created_at`

func scanChannel(row interface{ Scan(...any) error }) (*model.SurveyChannel, error) {
	c := model.SurveyChannel{}
	var slug, fullURL, qrPath, subject, body *string
	err := row.Scan(
		&c.ID, &c.SurveyID, &c.Type, &slug, &fullURL, &qrPath,
		&subject, &body, &c.SentAt, &c.Active, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if slug != nil {
		c.Slug = *slug
	}
	if fullURL != nil {
		c.FullURL = *fullURL
	}
	if qrPath != nil {
		c.QRImagePath = *qrPath
	}
	if subject != nil {
		c.EmailSubject = *subject
	}
	if body != nil {
		c.EmailBody = *body
	}
	c.SentAt = asUTCPtr(c.SentAt)
	c.CreatedAt = asUTC(c.CreatedAt)
	return &c, nil
}

func GetChannel(ctx context.Context, q Querier, id uuid.UUID) (*model.SurveyChannel, error) {
	row := q.QueryRowContext(ctx, `SELECT`+channelColumns+` FROM survey_channel WHERE id = ?`, id)
	c, err := scanChannel(row)
	if err != nil {
		return nil, notFoundOr(err, "store.get_channel")
	}
	return c, nil
}

func GetChannelBySlug(ctx context.Context, q Querier, slug string) (*model.SurveyChannel, error) {
	row := q.QueryRowContext(ctx, `SELECT`+channelColumns+` FROM survey_channel WHERE slug = ?`, slug)
	c, err := scanChannel(row)
	if err != nil {
		return nil, notFoundOr(err, "store.get_channel_by_slug")
	}
	return c, nil
}

func SlugExists(ctx context.Context, q Querier, slug string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM survey_channel WHERE slug = ?)`, slug,
	).Scan(&exists)
	return exists, errors.Wrap(err, "store.slug_exists")
}

func ListChannels(ctx context.Context, q Querier, surveyID uuid.UUID) ([]model.SurveyChannel, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT`+channelColumns+`
		FROM survey_channel
		WHERE survey_id = ?
		ORDER BY created_at DESC`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_channels")
	}
	defer rows.Close()

	channels := []model.SurveyChannel{}
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_channels.scan")
		}
		channels = append(channels, *c)
	}
	return channels, errors.Wrap(rows.Err(), "store.list_channels.rows")
}

func InsertChannel(ctx context.Context, q Querier, c model.SurveyChannel) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO survey_channel (
			id, survey_id, channel_type, slug, full_url, qr_image_path,
			email_subject, email_body, sent_at, active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SurveyID, c.Type, nullString(c.Slug), nullString(c.FullURL),
		nullString(c.QRImagePath), nullString(c.EmailSubject), nullString(c.EmailBody),
		c.SentAt, c.Active, c.CreatedAt,
	)
	return errors.Wrap(err, "store.insert_channel")
}

func SetChannelActive(ctx context.Context, q Querier, id uuid.UUID, active bool) error {
	res, err := q.ExecContext(ctx,
		`UPDATE survey_channel SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return errors.Wrap(err, "store.set_channel_active")
	}
	return requireRow(res)
}
