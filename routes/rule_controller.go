package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/websurvey/websurvey/app"
	"github.com/websurvey/websurvey/authoring"
	"github.com/websurvey/websurvey/httpx"
	"github.com/websurvey/websurvey/log"
)

func ListRules(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		rules, err := app.Authoring.ListRules(r.Context(), userID, surveyID)
		if err != nil {
			serviceError(w, "rule.list", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"rules": rules,
		})
	}
}

func CreateRule(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		input := authoring.RuleInput{}
		if err := render.DecodeJSON(r.Body, &input); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		rule, err := app.Authoring.CreateRule(r.Context(), userID, surveyID, input)
		if err != nil {
			serviceError(w, "rule.create", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, rule)
	}
}

func UpdateRule(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		ruleID, ok := uuidParam(w, r, "ruleId")
		if !ok {
			return
		}

		input := authoring.RuleInput{}
		if err := render.DecodeJSON(r.Body, &input); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		rule, err := app.Authoring.UpdateRule(r.Context(), userID, surveyID, ruleID, input)
		if err != nil {
			serviceError(w, "rule.update", err)
			return
		}
		render.JSON(w, r, rule)
	}
}

func DeleteRule(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		ruleID, ok := uuidParam(w, r, "ruleId")
		if !ok {
			return
		}

		if err := app.Authoring.DeleteRule(r.Context(), userID, surveyID, ruleID); err != nil {
			serviceError(w, "rule.delete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
