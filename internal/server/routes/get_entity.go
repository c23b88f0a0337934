package routes

import (
	"errors"
	"net/http"
	"time"

	"mesctx/internal/server/middleware"
	"mesctx/pkg/common"

	"github.com/labstack/echo/v4"
)

func GetEntityHandler(c echo.Context) error {
	type getEntityParams struct {
		ID       string `param:"id" validate:"required"`
		Metadata bool   `query:"metadata"`
	}

	params := new(getEntityParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App

	entity, err := app.Router.GetEntity(c.Request().Context(), params.ID, params.Metadata)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, entity)
}

func GetEntityRelatedHandler(c echo.Context) error {
	type getRelatedParams struct {
		ID           string `param:"id" validate:"required"`
		Relationship string `query:"relationship" validate:"required"`
	}

	params := new(getRelatedParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App

	related, err := app.Router.GetRelated(c.Request().Context(), params.ID, params.Relationship)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, related)
}

func GetEntityChildrenHandler(c echo.Context) error {
	type getChildrenParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getChildrenParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App

	children, err := app.Router.GetChildren(c.Request().Context(), params.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, children)
}

func GetEntityValueHandler(c echo.Context) error {
	type getValueParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getValueParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App

	attrs, err := app.Router.GetValue(c.Request().Context(), params.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, attrs)
}

func GetEntityHistoryHandler(c echo.Context) error {
	type getHistoryParams struct {
		ID    string `param:"id" validate:"required"`
		Hours int    `query:"hours" validate:"omitempty,min=1,max=720"`
	}

	params := new(getHistoryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.Hours == 0 {
		params.Hours = 24
	}

	app := c.(*middleware.AppContext).App

	to := time.Now()
	from := to.Add(-time.Duration(params.Hours) * time.Hour)

	snapshots, err := app.Router.GetHistory(c.Request().Context(), params.ID, from, to)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, snapshots)
}
