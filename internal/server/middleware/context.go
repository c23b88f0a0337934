package middleware

import (
	"mesctx/internal/history"
	"mesctx/pkg/graph"
	"mesctx/pkg/source"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
)

type AppUser struct {
	Subject     string
	Role        string
	Permissions []string
}

type App struct {
	Router         *source.Router
	Builder        *graph.Builder
	Aggregator     *graph.Aggregator
	Queue          *amqp091.Channel
	History        *history.Store
	Key            *keyfunc.Keyfunc
	MasterAPIKey   string
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
