package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/websurvey/websurvey/app"
)

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		responses, err := app.Authoring.ListResponses(r.Context(), userID, surveyID)
		if err != nil {
			serviceError(w, "report.list_responses", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func ListResponseAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		responseID, ok := uuidParam(w, r, "responseId")
		if !ok {
			return
		}

		answers, err := app.Authoring.ListAnswers(r.Context(), userID, surveyID, responseID)
		if err != nil {
			serviceError(w, "report.list_answers", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"answers": answers,
		})
	}
}
