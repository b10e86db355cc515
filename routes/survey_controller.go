package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/app"
	"github.com/websurvey/websurvey/authoring"
	"github.com/websurvey/websurvey/httpx"
	"github.com/websurvey/websurvey/log"
	"github.com/websurvey/websurvey/model"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		input := authoring.SurveyInput{}
		if err := render.DecodeJSON(r.Body, &input); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := app.Authoring.CreateSurvey(r.Context(), userID, input)
		if err != nil {
			serviceError(w, "survey.create", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, survey)
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		surveys, err := app.Authoring.ListSurveys(r.Context(), userID)
		if err != nil {
			serviceError(w, "survey.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		survey, err := app.Authoring.GetSurvey(r.Context(), userID, surveyID)
		if err != nil {
			serviceError(w, "survey.get", err)
			return
		}
		render.JSON(w, r, survey)
	}
}

func UpdateSurveySettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		input := authoring.SurveyInput{}
		if err := render.DecodeJSON(r.Body, &input); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := app.Authoring.UpdateSettings(r.Context(), userID, surveyID, input)
		if err != nil {
			serviceError(w, "survey.update_settings", err)
			return
		}
		render.JSON(w, r, survey)
	}
}

func UpdateSurveySchedule(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		input := authoring.ScheduleInput{}
		if err := render.DecodeJSON(r.Body, &input); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := app.Authoring.UpdateSchedule(r.Context(), userID, surveyID, input); err != nil {
			serviceError(w, "survey.update_schedule", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func PublishSurvey(app app.App) http.HandlerFunc {
	return transitionSurvey("survey.publish", app.Authoring.Publish)
}

func CloseSurvey(app app.App) http.HandlerFunc {
	return transitionSurvey("survey.close", app.Authoring.Close)
}

func ReopenSurvey(app app.App) http.HandlerFunc {
	return transitionSurvey("survey.reopen", app.Authoring.Reopen)
}

func transitionSurvey(code string, fn func(context.Context, uuid.UUID, uuid.UUID) (*model.Survey, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		survey, err := fn(r.Context(), userID, surveyID)
		if err != nil {
			serviceError(w, code, err)
			return
		}
		render.JSON(w, r, survey)
	}
}
