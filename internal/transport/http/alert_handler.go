package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/faredrop/faredrop-backend/internal/service"
	"github.com/faredrop/faredrop-backend/internal/util"
)

type AlertHandler struct {
	alerts *service.AlertService
}

func RegisterAlerts(e *echo.Echo, alerts *service.AlertService) {
	handler := &AlertHandler{alerts: alerts}

	group := e.Group("/api/v1/alerts", RequireUser())
	group.GET("", handler.listAlerts)
	group.GET("/:alert_id", handler.getAlert)
}

func (h *AlertHandler) listAlerts(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	page, perPage := paginationParams(c)
	alerts, total, err := h.alerts.ListForUser(c.Request().Context(), userID, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list alerts"))
	}
	return c.JSON(http.StatusOK, util.Paginated("alerts", alerts, page, perPage, total))
}

func (h *AlertHandler) getAlert(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	alertID, err := parseUUIDParam(c, "alert_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("alert_id must be a valid UUID"))
	}

	alert, err := h.alerts.GetByID(c.Request().Context(), userID, alertID)
	if err != nil {
		if errors.Is(err, service.ErrAlertNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("alert not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not load alert"))
	}
	return c.JSON(http.StatusOK, util.Data("alert", alert))
}
