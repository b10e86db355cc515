package authoring

import (
	"context"
	"database/sql"

	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/flow"
	"github.com/websurvey/websurvey/model"
	"github.com/websurvey/websurvey/roles"
	"github.com/websurvey/websurvey/store"
)

type RuleInput struct {
	SourceQuestionID uuid.UUID      `json:"sourceQuestionId"`
	Condition        flow.Condition `json:"condition"`
	TargetAction     flow.Action    `json:"targetAction"`
	TargetQuestionID *uuid.UUID     `json:"targetQuestionId"`
	Priority         int            `json:"priority"`
}

var operators = map[flow.Operator]bool{
	flow.OpEquals: true, flow.OpNotEquals: true, flow.OpContains: true,
	flow.OpGreaterThan: true, flow.OpLessThan: true, flow.OpOptionSelected: true,
	flow.OpAnswered: true, flow.OpNotAnswered: true,
}

// validateRule checks the rule's shape against the survey's questions:
// source and target must both belong to the survey, navigation actions need
// a target and end-survey must not carry one.
func validateRule(ctx context.Context, tx *sql.Tx, surveyID uuid.UUID, in RuleInput) error {
	if in.Priority < 1 {
		return invalid("Rule priority must be at least 1.")
	}
	if !operators[in.Condition.Operator] {
		return invalid("Unknown condition operator '" + string(in.Condition.Operator) + "'.")
	}
	if in.Condition.Operator == flow.OpOptionSelected && in.Condition.OptionID == "" {
		return invalid("An option-selected condition needs an option.")
	}

	source, err := store.GetQuestion(ctx, tx, in.SourceQuestionID)
	if err != nil {
		return err
	}
	if source.SurveyID != surveyID {
		return invalid("Source question does not belong to this survey.")
	}

	switch in.TargetAction {
	case flow.ActionSkipTo, flow.ActionShowQuestion:
		if in.TargetQuestionID == nil {
			return invalid("This rule action needs a target question.")
		}
		target, err := store.GetQuestion(ctx, tx, *in.TargetQuestionID)
		if err != nil {
			return err
		}
		if target.SurveyID != surveyID {
			return invalid("Target question does not belong to this survey.")
		}
	case flow.ActionEndSurvey:
		if in.TargetQuestionID != nil {
			return invalid("An end-survey rule cannot have a target question.")
		}
	default:
		return invalid("Unknown rule action '" + string(in.TargetAction) + "'.")
	}
	return nil
}

func ruleFromInput(surveyID uuid.UUID, in RuleInput) model.BranchRule {
	r := model.BranchRule{
		SurveyID:         surveyID,
		SourceQuestionID: in.SourceQuestionID,
		Condition:        in.Condition,
		TargetAction:     in.TargetAction,
		Priority:         in.Priority,
	}
	if in.TargetQuestionID != nil {
		r.TargetQuestionID = uuid.NullUUID{UUID: *in.TargetQuestionID, Valid: true}
	}
	return r
}

func (s *Service) CreateRule(ctx context.Context, userID, surveyID uuid.UUID, in RuleInput) (*model.BranchRule, error) {
	var created *model.BranchRule
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionEditQuestion); err != nil {
			return err
		}
		if err := validateRule(ctx, tx, surveyID, in); err != nil {
			return err
		}

		rule := ruleFromInput(surveyID, in)
		rule.ID = uuid.Must(uuid.NewV4())
		rule.CreatedAt = s.now().UTC()
		if err := store.InsertRule(ctx, tx, rule); err != nil {
			return err
		}
		created = &rule
		return logActivity(ctx, tx, userID, surveyID, "RuleCreated", "")
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) UpdateRule(ctx context.Context, userID, surveyID, ruleID uuid.UUID, in RuleInput) (*model.BranchRule, error) {
	var updated *model.BranchRule
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionEditQuestion); err != nil {
			return err
		}

		existing, err := store.GetRule(ctx, tx, ruleID)
		if err != nil {
			return err
		}
		if existing.SurveyID != surveyID {
			return store.ErrNotFound
		}
		// the source question of a rule is fixed at creation
		in.SourceQuestionID = existing.SourceQuestionID

		if err := validateRule(ctx, tx, surveyID, in); err != nil {
			return err
		}

		rule := ruleFromInput(surveyID, in)
		rule.ID = ruleID
		rule.CreatedAt = existing.CreatedAt
		if err := store.UpdateRule(ctx, tx, rule); err != nil {
			return err
		}
		updated = &rule
		return logActivity(ctx, tx, userID, surveyID, "RuleUpdated", "")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteRule(ctx context.Context, userID, surveyID, ruleID uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requirePermission(ctx, tx, userID, surveyID, roles.ActionEditQuestion); err != nil {
			return err
		}

		existing, err := store.GetRule(ctx, tx, ruleID)
		if err != nil {
			return err
		}
		if existing.SurveyID != surveyID {
			return store.ErrNotFound
		}

		if err := store.DeleteRule(ctx, tx, ruleID); err != nil {
			return err
		}
		return logActivity(ctx, tx, userID, surveyID, "RuleDeleted", "")
	})
}

func (s *Service) ListRules(ctx context.Context, userID, surveyID uuid.UUID) ([]model.BranchRule, error) {
	if err := requirePermission(ctx, s.db, userID, surveyID, roles.ActionViewReport); err != nil {
		return nil, err
	}
	return store.ListRulesBySurvey(ctx, s.db, surveyID)
}
