package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/websurvey/websurvey/authoring"
	"github.com/websurvey/websurvey/httpx"
	"github.com/websurvey/websurvey/log"
	"github.com/websurvey/websurvey/respond"
	"github.com/websurvey/websurvey/routes/middlewares"
	"github.com/websurvey/websurvey/store"
)

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param."+name)
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middlewares.UserID(r.Context())
	if !ok {
		httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "request.user_id")
		return uuid.Nil, false
	}
	return userID, true
}

// serviceError maps authoring failures to HTTP statuses: denials to 403,
// rule violations to 422, missing rows to 404, everything else to 500.
func serviceError(w http.ResponseWriter, code string, err error) {
	var deniedErr *authoring.DeniedError
	var invalidErr *authoring.InvalidError
	switch {
	case errors.As(err, &deniedErr):
		if deniedErr.Reason == "Survey not found." {
			httpx.LogNotFound(w, code, deniedErr.Reason)
			return
		}
		httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, code, "%s", deniedErr.Reason)
	case errors.As(err, &invalidErr):
		httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, code, "%s", invalidErr.Msg)
	case errors.Is(err, store.ErrNotFound):
		httpx.LogNotFound(w, code, "")
	default:
		httpx.LogInternalError(w, code, err)
	}
}

// publicErrors writes gate failures from the response pipeline as a JSON
// error list. Persistence failures are already logged by the pipeline.
func publicErrors(w http.ResponseWriter, r *http.Request, msgs []string) {
	status := http.StatusUnprocessableEntity
	for _, msg := range msgs {
		switch msg {
		case respond.ErrRetryable:
			status = http.StatusServiceUnavailable
		case "Survey not found.", "Question not found.":
			status = http.StatusNotFound
		}
	}
	w.WriteHeader(status)
	render.JSON(w, r, map[string]any{"errors": msgs})
}
