package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/websurvey/websurvey/app"
	"github.com/websurvey/websurvey/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Get("/s/{slug}", OpenChannelLink(app))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// respondent-facing, no auth
	api.Get("/surveys/{id}/form", PublicSurveyForm(app))
	api.Post("/surveys/{id}/responses", PublicSubmitResponse(app))
	api.Post("/surveys/{id}/flow/next", PublicFlowNext(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.Config))

		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get("/surveys/{id}", GetSurveyById(app))
		r.Put("/surveys/{id}/settings", UpdateSurveySettings(app))
		r.Put("/surveys/{id}/schedule", UpdateSurveySchedule(app))
		r.Post("/surveys/{id}/publish", PublishSurvey(app))
		r.Post("/surveys/{id}/close", CloseSurvey(app))
		r.Post("/surveys/{id}/reopen", ReopenSurvey(app))

		r.Get("/surveys/{id}/questions", ListQuestions(app))
		r.Post("/surveys/{id}/questions", CreateQuestion(app))
		r.Put("/surveys/{id}/questions/order", ReorderQuestions(app))
		r.Put("/surveys/{id}/questions/{questionId}", UpdateQuestion(app))
		r.Delete("/surveys/{id}/questions/{questionId}", DeleteQuestion(app))

		r.Get("/surveys/{id}/rules", ListRules(app))
		r.Post("/surveys/{id}/rules", CreateRule(app))
		r.Put("/surveys/{id}/rules/{ruleId}", UpdateRule(app))
		r.Delete("/surveys/{id}/rules/{ruleId}", DeleteRule(app))

		r.Get("/surveys/{id}/channels", ListChannels(app))
		r.Post("/surveys/{id}/channels", CreateChannel(app))
		r.Put("/surveys/{id}/channels/{channelId}/active", SetChannelActive(app))

		r.Get("/surveys/{id}/collaborators", ListCollaborators(app))
		r.Put("/surveys/{id}/collaborators/{userId}", AssignCollaborator(app))
		r.Delete("/surveys/{id}/collaborators/{userId}", RemoveCollaborator(app))

		r.Get("/surveys/{id}/responses", ListResponses(app))
		r.Get("/surveys/{id}/responses/{responseId}/answers", ListResponseAnswers(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
