package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mesctx/internal/history"
	"mesctx/internal/server/middleware"
	"mesctx/pkg/common"
	"mesctx/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/labstack/echo/v4"
)

func GetContextHandler(c echo.Context) error {
	type getContextParams struct {
		ID      string `param:"id" validate:"required"`
		Refresh bool   `query:"refresh"`
	}

	params := new(getContextParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if params.Refresh {
		if !middleware.HasPermission(user, "graph.refresh") {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing permission graph.refresh"})
		}
		if _, err := app.Builder.Discover(ctx, true); err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
	}

	started := time.Now()
	result, err := app.Aggregator.BuildContext(ctx, params.ID)
	if err != nil {
		if errors.Is(err, common.ErrInvalidID) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid entity id"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	var filled []string
	for _, role := range common.AllRoles() {
		if entity := result.Slot(role); entity != nil {
			filled = append(filled, string(role)+"="+entity.ID)
		}
	}

	if app.History.Enabled() {
		correlationID, _ := gonanoid.New()
		req := history.Request{
			StartID:       params.ID,
			CorrelationID: correlationID,
			RequestedBy:   user.Subject,
			FilledSlots:   filled,
			DurationMs:    time.Since(started).Milliseconds(),
		}
		go func() {
			recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			app.History.Record(recordCtx, req)
		}()
	}

	logger.Debug("[Server] Context assembled",
		"start_id", params.ID,
		"filled", len(filled),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return c.JSON(http.StatusOK, result)
}

func GetContextHistoryHandler(c echo.Context) error {
	type getContextHistoryParams struct {
		ID    string `param:"id" validate:"required"`
		Limit int    `query:"limit"`
	}

	params := new(getContextHistoryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	if !app.History.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Audit trail is not configured"})
	}

	requests, err := app.History.Recent(c.Request().Context(), params.ID, params.Limit)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, requests)
}
