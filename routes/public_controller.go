package routes

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/app"
	"github.com/websurvey/websurvey/flow"
	"github.com/websurvey/websurvey/httpx"
	"github.com/websurvey/websurvey/log"
	"github.com/websurvey/websurvey/respond"
	"github.com/websurvey/websurvey/store"
)

// PublicSurveyForm serves the respondent-facing form: questions, active
// options and branch rules, after the same eligibility gates a submission
// goes through. An optional channel query parameter ties the session to a
// delivery channel.
func PublicSurveyForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		channelID := uuid.NullUUID{}
		if raw := r.URL.Query().Get("channel"); raw != "" {
			id, err := uuid.FromString(raw)
			if err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.channel")
				return
			}
			channelID = uuid.NullUUID{UUID: id, Valid: true}
		}

		form, msgs := app.Respond.SurveyForResponse(r.Context(), surveyID, channelID)
		if msgs != nil {
			publicErrors(w, r, msgs)
			return
		}
		render.JSON(w, r, form)
	}
}

type submitBody struct {
	ChannelID        *uuid.UUID          `json:"channelId"`
	Answers          map[string]string   `json:"answers"`
	SelectedOptions  map[string][]string `json:"selectedOptions"`
	RespondentEmail  string              `json:"respondentEmail"`
	IdempotencyToken string              `json:"idempotencyToken"`
}

func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		body := submitBody{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		req := respond.SubmitRequest{
			SurveyID:         surveyID,
			Answers:          map[uuid.UUID]string{},
			SelectedOptions:  map[uuid.UUID][]string{},
			RespondentEmail:  body.RespondentEmail,
			RespondentIP:     clientIP(r),
			IdempotencyToken: body.IdempotencyToken,
		}
		if body.ChannelID != nil {
			req.ChannelID = uuid.NullUUID{UUID: *body.ChannelID, Valid: true}
		}
		for key, value := range body.Answers {
			questionID, err := uuid.FromString(key)
			if err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body.answers")
				return
			}
			req.Answers[questionID] = value
		}
		for key, value := range body.SelectedOptions {
			questionID, err := uuid.FromString(key)
			if err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body.selected_options")
				return
			}
			req.SelectedOptions[questionID] = value
		}

		responseID, msgs := app.Respond.Submit(r.Context(), req)
		if msgs != nil {
			publicErrors(w, r, msgs)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"responseId": responseID,
		})
	}
}

type flowNextBody struct {
	CurrentQuestionID uuid.UUID `json:"currentQuestionId"`
	Answer            struct {
		Text      string   `json:"text"`
		OptionIDs []string `json:"optionIds"`
	} `json:"answer"`
}

// PublicFlowNext resolves one navigation step server-side, for clients that
// do not evaluate branch rules themselves.
func PublicFlowNext(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		body := flowNextBody{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		answer := flow.Answer{Text: body.Answer.Text, OptionIDs: body.Answer.OptionIDs}
		step, msgs := app.Respond.NextStep(r.Context(), surveyID, body.CurrentQuestionID, answer)
		if msgs != nil {
			publicErrors(w, r, msgs)
			return
		}
		render.JSON(w, r, step)
	}
}

// OpenChannelLink resolves a shareable slug to its survey form.
func OpenChannelLink(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		channel, err := store.GetChannelBySlug(r.Context(), app.DB, slug)
		if err == store.ErrNotFound {
			httpx.LogNotFound(w, "channel.slug", slug)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_channel_by_slug", err)
			return
		}
		if !channel.Active {
			httpx.LogNotFound(w, "channel.slug.inactive", slug)
			return
		}

		channelID := uuid.NullUUID{UUID: channel.ID, Valid: true}
		form, msgs := app.Respond.SurveyForResponse(r.Context(), channel.SurveyID, channelID)
		if msgs != nil {
			publicErrors(w, r, msgs)
			return
		}
		render.JSON(w, r, form)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
