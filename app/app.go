package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/websurvey/websurvey/authoring"
	"github.com/websurvey/websurvey/config"
	"github.com/websurvey/websurvey/respond"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Authoring *authoring.Service
	Respond   *respond.Pipeline
}

func New(db *sql.DB, bearerServer *oauth.BearerServer, cfg config.Config) App {
	return App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Authoring:    authoring.New(db, cfg.BaseUrl),
		Respond:      respond.New(db),
	}
}
