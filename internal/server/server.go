package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mesctx/internal/config"
	"mesctx/internal/history"
	"mesctx/internal/queue"
	mid "mesctx/internal/server/middleware"
	"mesctx/internal/util"
	"mesctx/pkg/graph"
	"mesctx/pkg/logger"
	"mesctx/pkg/source"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	jwksUrl := util.GetEnv("AUTH_URL") + "/jwks"
	k, err := keyfunc.NewDefault([]string{jwksUrl})
	if err != nil {
		logger.Fatal("Failed to load jwks keys", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := source.NewRouter(config.Sources()...)
	builder := graph.NewBuilder(graph.NewBuilderParams{
		Source: router,
		TTL:    config.GraphTTL(),
	})
	aggregator := graph.NewAggregator(builder)

	store, err := history.NewStore(ctx, util.GetEnv("DATABASE_URL"), util.GetEnvString("MIGRATIONS_DIR", "migrations"))
	if err != nil {
		logger.Fatal("Failed to init history store", "err", err)
	}
	defer store.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	err = queue.SetupQueues(ch, []string{queue.ValueUpdateQueue})
	if err != nil {
		logger.Fatal("Failed to setup queues", "err", err)
	}

	app := &mid.App{
		Router:         router,
		Builder:        builder,
		Aggregator:     aggregator,
		Queue:          ch,
		History:        store,
		Key:            &k,
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
		MasterUserRole: util.GetEnv("MASTER_USER_ROLE"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)

	if util.GetEnvBool("DISCOVER_ON_START", true) {
		go func() {
			if _, err := builder.Discover(ctx, false); err != nil {
				logger.Warn("Initial discovery aborted", "err", err)
			}
		}()
	}

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
