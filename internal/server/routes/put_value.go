package routes

import (
	"encoding/json"
	"net/http"

	"mesctx/internal/queue"
	"mesctx/internal/server/middleware"
	"mesctx/pkg/common"
	"mesctx/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/labstack/echo/v4"
)

// PutEntityValueHandler accepts an attribute replacement and queues it
// for the worker instead of writing through. The caller gets a
// correlation id back immediately.
func PutEntityValueHandler(c echo.Context) error {
	type putValueParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(putValueParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	attrs := make(map[string]common.AttrValue)
	if err := json.NewDecoder(c.Request().Body).Decode(&attrs); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if len(attrs) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Empty attribute update"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	msg := queue.ValueUpdateMsg{
		EntityID:      params.ID,
		Attributes:    attrs,
		CorrelationID: correlationID,
		RequestedBy:   user.Subject,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	app := c.(*middleware.AppContext).App
	if err := queue.PublishFIFO(app.Queue, queue.ValueUpdateQueue, msgBytes); err != nil {
		logger.Error("[Server] Failed to queue value update", "entity_id", params.ID, "err", err)
		return c.String(http.StatusInternalServerError, err.Error())
	}

	logger.Info("[Server] Value update queued",
		"entity_id", params.ID,
		"correlation_id", correlationID,
		"requested_by", user.Subject,
	)

	return c.JSON(http.StatusAccepted, map[string]string{
		"status":         "queued",
		"correlation_id": correlationID,
	})
}
