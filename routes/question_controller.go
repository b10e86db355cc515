package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/app"
	"github.com/websurvey/websurvey/authoring"
	"github.com/websurvey/websurvey/httpx"
	"github.com/websurvey/websurvey/log"
)

func ListQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		questions, err := app.Authoring.ListQuestions(r.Context(), userID, surveyID)
		if err != nil {
			serviceError(w, "question.list", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"questions": questions,
		})
	}
}

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		input := authoring.QuestionInput{}
		if err := render.DecodeJSON(r.Body, &input); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		question, err := app.Authoring.CreateQuestion(r.Context(), userID, surveyID, input)
		if err != nil {
			serviceError(w, "question.create", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, question)
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		questionID, ok := uuidParam(w, r, "questionId")
		if !ok {
			return
		}

		input := authoring.QuestionInput{}
		if err := render.DecodeJSON(r.Body, &input); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		question, err := app.Authoring.UpdateQuestion(r.Context(), userID, surveyID, questionID, input)
		if err != nil {
			serviceError(w, "question.update", err)
			return
		}
		render.JSON(w, r, question)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		questionID, ok := uuidParam(w, r, "questionId")
		if !ok {
			return
		}

		if err := app.Authoring.DeleteQuestion(r.Context(), userID, surveyID, questionID); err != nil {
			serviceError(w, "question.delete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reorderBody struct {
	QuestionIDs []uuid.UUID `json:"questionIds"`
}

func ReorderQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		body := reorderBody{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := app.Authoring.ReorderQuestions(r.Context(), userID, surveyID, body.QuestionIDs); err != nil {
			serviceError(w, "question.reorder", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
