package store

import (
	"context"
	"encoding/json"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/flow"
	"github.com/websurvey/websurvey/model"
)

// Rules are always read ordered by (source question, priority, rowid) so
// that evaluation order is stable across repeated loads.
const ruleColumns = `
	id, survey_id, source_question_id, condition, target_action,
	target_question_id, priority, created_at`

func scanRule(row interface{ Scan(...any) error }, seq int) (*model.BranchRule, error) {
	r := model.BranchRule{Seq: seq}
	var condition string
	err := row.Scan(
		&r.ID, &r.SurveyID, &r.SourceQuestionID, &condition, &r.TargetAction,
		&r.TargetQuestionID, &r.Priority, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Condition = flow.ParseCondition([]byte(condition))
	r.CreatedAt = asUTC(r.CreatedAt)
	return &r, nil
}

func GetRule(ctx context.Context, q Querier, id uuid.UUID) (*model.BranchRule, error) {
	row := q.QueryRowContext(ctx, `SELECT`+ruleColumns+` FROM branch_rule WHERE id = ?`, id)
	r, err := scanRule(row, 0)
	if err != nil {
		return nil, notFoundOr(err, "store.get_rule")
	}
	return r, nil
}

func ListRulesBySource(ctx context.Context, q Querier, sourceQuestionID uuid.UUID) ([]model.BranchRule, error) {
	return listRules(ctx, q, `
		SELECT`+ruleColumns+`
		FROM branch_rule
		WHERE source_question_id = ?
		ORDER BY priority, rowid`,
		sourceQuestionID)
}

func ListRulesBySurvey(ctx context.Context, q Querier, surveyID uuid.UUID) ([]model.BranchRule, error) {
	return listRules(ctx, q, `
		SELECT`+ruleColumns+`
		FROM branch_rule
		WHERE survey_id = ?
		ORDER BY source_question_id, priority, rowid`,
		surveyID)
}

func listRules(ctx context.Context, q Querier, query string, arg any) ([]model.BranchRule, error) {
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_rules")
	}
	defer rows.Close()

	rules := []model.BranchRule{}
	for rows.Next() {
		r, err := scanRule(rows, len(rules))
		if err != nil {
			return nil, errors.Wrap(err, "store.list_rules.scan")
		}
		rules = append(rules, *r)
	}
	return rules, errors.Wrap(rows.Err(), "store.list_rules.rows")
}

func InsertRule(ctx context.Context, q Querier, r model.BranchRule) error {
	condition, err := json.Marshal(r.Condition)
	if err != nil {
		return errors.Wrap(err, "store.insert_rule.condition")
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO branch_rule (
			id, survey_id, source_question_id, condition, target_action,
			target_question_id, priority, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SurveyID, r.SourceQuestionID, string(condition), r.TargetAction,
		r.TargetQuestionID, r.Priority, r.CreatedAt,
	)
	return errors.Wrap(err, "store.insert_rule")
}

func UpdateRule(ctx context.Context, q Querier, r model.BranchRule) error {
	condition, err := json.Marshal(r.Condition)
	if err != nil {
		return errors.Wrap(err, "store.update_rule.condition")
	}
	res, err := q.ExecContext(ctx, `
		UPDATE branch_rule
		SET condition = ?, target_action = ?, target_question_id = ?, priority = ?
		WHERE id = ?`,
		string(condition), r.TargetAction, r.TargetQuestionID, r.Priority, r.ID,
	)
	if err != nil {
		return errors.Wrap(err, "store.update_rule")
	}
	return requireRow(res)
}

func DeleteRule(ctx context.Context, q Querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM branch_rule WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "store.delete_rule")
	}
	return requireRow(res)
}

// QuestionReferencedByRule reports whether any rule uses the question as
// source or target; such questions must not be deleted.
func QuestionReferencedByRule(ctx context.Context, q Querier, questionID uuid.UUID) (bool, error) {
	var referenced bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM branch_rule
			WHERE source_question_id = ? OR target_question_id = ?
		)`,
		questionID, questionID,
	).Scan(&referenced)
	return referenced, errors.Wrap(err, "store.rule_references")
}
