package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/faredrop/faredrop-backend/internal/service"
	"github.com/faredrop/faredrop-backend/internal/util"
)

type WatchHandler struct {
	watches *service.PriceWatchService
	scrapes *service.ScrapeService
	alerts  *service.AlertService
}

type watchCreateRequest struct {
	TripID               uuid.UUID `json:"trip_id"`
	Provider             string    `json:"provider"`
	TargetPrice          int64     `json:"target_price"`
	Currency             string    `json:"currency"`
	CabinClass           string    `json:"cabin_class"`
	CheckIntervalMinutes int       `json:"check_interval_minutes"`
	CooldownMinutes      int       `json:"cooldown_minutes"`
}

type watchUpdateRequest struct {
	Provider             *string `json:"provider"`
	TargetPrice          *int64  `json:"target_price"`
	Currency             *string `json:"currency"`
	CabinClass           *string `json:"cabin_class"`
	IsActive             *bool   `json:"is_active"`
	CheckIntervalMinutes *int    `json:"check_interval_minutes"`
	CooldownMinutes      *int    `json:"cooldown_minutes"`
}

func RegisterWatches(e *echo.Echo, watches *service.PriceWatchService, scrapes *service.ScrapeService, alerts *service.AlertService) {
	handler := &WatchHandler{watches: watches, scrapes: scrapes, alerts: alerts}

	group := e.Group("/api/v1/watches", RequireUser())
	group.POST("", handler.createWatch)
	group.GET("", handler.listWatches)
	group.GET("/:watch_id", handler.getWatch)
	group.PATCH("/:watch_id", handler.updateWatch)
	group.DELETE("/:watch_id", handler.deleteWatch)
	group.POST("/:watch_id/scrape", handler.scrapeWatch)
	group.GET("/:watch_id/alerts", handler.listWatchAlerts)

	e.GET("/api/v1/trips/:trip_id/watches", handler.listTripWatches, RequireUser())
}

func (h *WatchHandler) createWatch(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	var req watchCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	watch, err := h.watches.Create(c.Request().Context(), userID, service.PriceWatchCreateInput{
		TripID:               req.TripID,
		Provider:             req.Provider,
		TargetPrice:          req.TargetPrice,
		Currency:             req.Currency,
		CabinClass:           req.CabinClass,
		CheckIntervalMinutes: req.CheckIntervalMinutes,
		CooldownMinutes:      req.CooldownMinutes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTripNotFound):
			return c.JSON(http.StatusNotFound, util.Error("trip not found"))
		case errors.Is(err, service.ErrWatchValidation):
			return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, util.Error("could not create watch"))
		}
	}
	return c.JSON(http.StatusCreated, util.Data("watch", watch))
}

func (h *WatchHandler) listWatches(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	page, perPage := paginationParams(c)
	watches, total, err := h.watches.ListForUser(c.Request().Context(), userID, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list watches"))
	}
	return c.JSON(http.StatusOK, util.Paginated("watches", watches, page, perPage, total))
}

func (h *WatchHandler) listTripWatches(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	tripID, err := parseUUIDParam(c, "trip_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("trip_id must be a valid UUID"))
	}

	page, perPage := paginationParams(c)
	watches, total, err := h.watches.ListForTrip(c.Request().Context(), userID, tripID, page, perPage)
	if err != nil {
		if errors.Is(err, service.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("trip not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not list watches"))
	}
	return c.JSON(http.StatusOK, util.Paginated("watches", watches, page, perPage, total))
}

func (h *WatchHandler) getWatch(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	watchID, err := parseUUIDParam(c, "watch_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("watch_id must be a valid UUID"))
	}

	watch, err := h.watches.GetByID(c.Request().Context(), userID, watchID)
	if err != nil {
		if errors.Is(err, service.ErrWatchNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("watch not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not load watch"))
	}
	return c.JSON(http.StatusOK, util.Data("watch", watch))
}

func (h *WatchHandler) updateWatch(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	watchID, err := parseUUIDParam(c, "watch_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("watch_id must be a valid UUID"))
	}

	var req watchUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	watch, err := h.watches.Update(c.Request().Context(), userID, watchID, service.PriceWatchUpdateInput{
		Provider:             req.Provider,
		TargetPrice:          req.TargetPrice,
		Currency:             req.Currency,
		CabinClass:           req.CabinClass,
		IsActive:             req.IsActive,
		CheckIntervalMinutes: req.CheckIntervalMinutes,
		CooldownMinutes:      req.CooldownMinutes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWatchNotFound):
			return c.JSON(http.StatusNotFound, util.Error("watch not found"))
		case errors.Is(err, service.ErrWatchValidation):
			return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, util.Error("could not update watch"))
		}
	}
	return c.JSON(http.StatusOK, util.Data("watch", watch))
}

func (h *WatchHandler) deleteWatch(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	watchID, err := parseUUIDParam(c, "watch_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("watch_id must be a valid UUID"))
	}

	if err := h.watches.Delete(c.Request().Context(), userID, watchID); err != nil {
		if errors.Is(err, service.ErrWatchNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("watch not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not delete watch"))
	}
	return c.NoContent(http.StatusNoContent)
}

// scrapeWatch runs one immediate scrape cycle for the watch, outside the
// scheduler. The outcome reports rate-limit deferrals and provider failures
// rather than mapping them to error statuses.
func (h *WatchHandler) scrapeWatch(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	watchID, err := parseUUIDParam(c, "watch_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("watch_id must be a valid UUID"))
	}

	outcome, err := h.scrapes.RunWatchByID(c.Request().Context(), userID, watchID)
	if err != nil {
		if errors.Is(err, service.ErrWatchNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("watch not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not scrape watch"))
	}
	return c.JSON(http.StatusOK, util.Data("outcome", outcome))
}

func (h *WatchHandler) listWatchAlerts(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	watchID, err := parseUUIDParam(c, "watch_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("watch_id must be a valid UUID"))
	}

	page, perPage := paginationParams(c)
	alerts, total, err := h.alerts.ListForWatch(c.Request().Context(), userID, watchID, page, perPage)
	if err != nil {
		if errors.Is(err, service.ErrWatchNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("watch not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not list alerts"))
	}
	return c.JSON(http.StatusOK, util.Paginated("alerts", alerts, page, perPage, total))
}
