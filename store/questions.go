package store

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/model"
)

const questionColumns = `
	id, survey_id, question_order, question_text, question_type, required,
	config, help_text, default_value, created_at, updated_at`

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	q := model.Question{}
	var config, help, def *string
	err := row.Scan(
		&q.ID, &q.SurveyID, &q.Order, &q.Text, &q.Type, &q.Required,
		&config, &help, &def, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if config != nil {
		q.Config = model.ParseConfig(*config)
	}
	if help != nil {
		q.HelpText = *help
	}
	if def != nil {
		q.DefaultValue = *def
	}
	q.CreatedAt = asUTC(q.CreatedAt)
	q.UpdatedAt = asUTC(q.UpdatedAt)
	return &q, nil
}

func GetQuestion(ctx context.Context, q Querier, id uuid.UUID) (*model.Question, error) {
	row := q.QueryRowContext(ctx, `SELECT`+questionColumns+` FROM question WHERE id = ?`, id)
	question, err := scanQuestion(row)
	if err != nil {
		return nil, notFoundOr(err, "store.get_question")
	}
	return question, nil
}

// ListQuestions returns the survey's questions in natural order.
func ListQuestions(ctx context.Context, q Querier, surveyID uuid.UUID) ([]model.Question, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT`+questionColumns+`
		FROM question
		WHERE survey_id = ?
		ORDER BY question_order`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_questions")
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_questions.scan")
		}
		questions = append(questions, *question)
	}
	return questions, errors.Wrap(rows.Err(), "store.list_questions.rows")
}

func CountQuestions(ctx context.Context, q Querier, surveyID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM question WHERE survey_id = ?`, surveyID,
	).Scan(&n)
	return n, errors.Wrap(err, "store.count_questions")
}

// NextQuestionOrder returns the next dense order value for the survey.
func NextQuestionOrder(ctx context.Context, q Querier, surveyID uuid.UUID) (int, error) {
	var max int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(question_order), 0) FROM question WHERE survey_id = ?`, surveyID,
	).Scan(&max)
	return max + 1, errors.Wrap(err, "store.next_question_order")
}

func InsertQuestion(ctx context.Context, q Querier, question model.Question) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO question (
			id, survey_id, question_order, question_text, question_type, required,
			config, help_text, default_value, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		question.ID, question.SurveyID, question.Order, question.Text, question.Type,
		question.Required, nullString(model.EncodeConfig(question.Type, question.Config)),
		nullString(question.HelpText), nullString(question.DefaultValue),
		question.CreatedAt, question.UpdatedAt,
	)
	return errors.Wrap(err, "store.insert_question")
}

func UpdateQuestion(ctx context.Context, q Querier, question model.Question) error {
	res, err := q.ExecContext(ctx, `
		UPDATE question
		SET question_text = ?, question_type = ?, required = ?,
			config = ?, help_text = ?, default_value = ?, updated_at = ?
		WHERE id = ?`,
		question.Text, question.Type, question.Required,
		nullString(model.EncodeConfig(question.Type, question.Config)),
		nullString(question.HelpText), nullString(question.DefaultValue),
		time.Now().UTC(), question.ID,
	)
	if err != nil {
		return errors.Wrap(err, "store.update_question")
	}
	return requireRow(res)
}

func DeleteQuestion(ctx context.Context, q Querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM question WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "store.delete_question")
	}
	return requireRow(res)
}

// CloseOrderGap shifts questions after a deleted position down by one,
// keeping orders dense.
func CloseOrderGap(ctx context.Context, q Querier, surveyID uuid.UUID, deletedOrder int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE question
		SET question_order = question_order - 1, updated_at = ?
		WHERE survey_id = ? AND question_order > ?`,
		time.Now().UTC(), surveyID, deletedOrder,
	)
	return errors.Wrap(err, "store.close_order_gap")
}

// UpdateQuestionOrders applies a full reordering; ids are assigned order
// 1..len(ids) in sequence.
func UpdateQuestionOrders(ctx context.Context, q Querier, surveyID uuid.UUID, ids []uuid.UUID) error {
	stmt, err := q.PrepareContext(ctx, `
		UPDATE question SET question_order = ?, updated_at = ?
		WHERE id = ? AND survey_id = ?`)
	if err != nil {
		return errors.Wrap(err, "store.update_orders.prepare")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i+1, now, id, surveyID); err != nil {
			return errors.Wrap(err, "store.update_orders.exec")
		}
	}
	return nil
}
