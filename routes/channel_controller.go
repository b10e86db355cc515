package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/websurvey/websurvey/app"
	"github.com/websurvey/websurvey/authoring"
	"github.com/websurvey/websurvey/httpx"
	"github.com/websurvey/websurvey/log"
)

func ListChannels(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		channels, err := app.Authoring.ListChannels(r.Context(), userID, surveyID)
		if err != nil {
			serviceError(w, "channel.list", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"channels": channels,
		})
	}
}

func CreateChannel(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		input := authoring.ChannelInput{}
		if err := render.DecodeJSON(r.Body, &input); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		channel, err := app.Authoring.CreateChannel(r.Context(), userID, surveyID, input)
		if err != nil {
			serviceError(w, "channel.create", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, channel)
	}
}

type channelActiveBody struct {
	Active bool `json:"active"`
}

func SetChannelActive(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		channelID, ok := uuidParam(w, r, "channelId")
		if !ok {
			return
		}

		body := channelActiveBody{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := app.Authoring.SetChannelActive(r.Context(), userID, surveyID, channelID, body.Active); err != nil {
			serviceError(w, "channel.set_active", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
