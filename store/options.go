package store

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
)

func scanOption(row interface{ Scan(...any) error }) (*model.QuestionOption, error) {
	o := model.QuestionOption{}
	var value *string
	err := row.Scan(&o.ID, &o.Question, &o.Order, &o.Text, &value, &o.Active)
	if err != nil {
		return nil, err
	}
	if value != nil {
		o.Value = *value
	}
	return &o, nil
}

func ListOptions(ctx context.Context, q Querier, questionID uuid.UUID) ([]model.QuestionOption, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, question_id, option_order, option_text, option_value, active
		FROM question_option
		WHERE question_id = ?
		ORDER BY option_order`,
		questionID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_options")
	}
	defer rows.Close()

	options := []model.QuestionOption{}
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_options.scan")
		}
		options = append(options, *o)
	}
	return options, errors.Wrap(rows.Err(), "store.list_options.rows")
}

// ListOptionsBySurvey loads options for every question of a survey in one
// query, keyed by question id.
func ListOptionsBySurvey(ctx context.Context, q Querier, surveyID uuid.UUID) (map[uuid.UUID][]model.QuestionOption, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.option_order, o.option_text, o.option_value, o.active
		FROM question_option o
		INNER JOIN question qu ON (qu.id = o.question_id)
		WHERE qu.survey_id = ?
		ORDER BY o.question_id, o.option_order`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_survey_options")
	}
	defer rows.Close()

	grouped := map[uuid.UUID][]model.QuestionOption{}
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_survey_options.scan")
		}
		grouped[o.Question] = append(grouped[o.Question], *o)
	}
	return grouped, errors.Wrap(rows.Err(), "store.list_survey_options.rows")
}

func InsertOption(ctx context.Context, q Querier, o model.QuestionOption) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO question_option (id, question_id, option_order, option_text, option_value, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.Question, o.Order, o.Text, nullString(o.Value), o.Active,
	)
	return errors.Wrap(err, "store.insert_option")
}

func UpdateOption(ctx context.Context, q Querier, o model.QuestionOption) error {
	res, err := q.ExecContext(ctx, `
		UPDATE question_option
		SET option_order = ?, option_text = ?, option_value = ?, active = ?
		WHERE id = ?`,
		o.Order, o.Text, nullString(o.Value), o.Active, o.ID,
	)
	if err != nil {
		return errors.Wrap(err, "store.update_option")
	}
	return requireRow(res)
}

// DeleteOptionsExcept removes every option of the question not in keep.
func DeleteOptionsExcept(ctx context.Context, q Querier, questionID uuid.UUID, keep []uuid.UUID) error {
	kept := make(map[uuid.UUID]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}

	existing, err := ListOptions(ctx, q, questionID)
	if err != nil {
		return err
	}
	for _, o := range existing {
		if kept[o.ID] {
			continue
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM question_option WHERE id = ?`, o.ID); err != nil {
			return errors.Wrap(err, "store.delete_option")
		}
	}
	return nil
}

func DeleteOptions(ctx context.Context, q Querier, questionID uuid.UUID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM question_option WHERE question_id = ?`, questionID)
	return errors.Wrap(err, "store.delete_options")
}
