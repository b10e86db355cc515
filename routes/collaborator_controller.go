package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/websurvey/websurvey/app"
	"github.com/websurvey/websurvey/httpx"
	"github.com/websurvey/websurvey/log"
	"github.com/websurvey/websurvey/model"
)

func ListCollaborators(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		collaborators, err := app.Authoring.ListCollaborators(r.Context(), userID, surveyID)
		if err != nil {
			serviceError(w, "collaborator.list", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"collaborators": collaborators,
		})
	}
}

type assignCollaboratorBody struct {
	Role model.Role `json:"role"`
}

func AssignCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		collaboratorID, ok := uuidParam(w, r, "userId")
		if !ok {
			return
		}

		body := assignCollaboratorBody{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := app.Authoring.AssignCollaborator(r.Context(), userID, surveyID, collaboratorID, body.Role); err != nil {
			serviceError(w, "collaborator.assign", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RemoveCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		collaboratorID, ok := uuidParam(w, r, "userId")
		if !ok {
			return
		}

		if err := app.Authoring.RemoveCollaborator(r.Context(), userID, surveyID, collaboratorID); err != nil {
			serviceError(w, "collaborator.remove", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
