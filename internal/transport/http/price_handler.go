package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/faredrop/faredrop-backend/internal/scraper"
	"github.com/faredrop/faredrop-backend/internal/service"
	"github.com/faredrop/faredrop-backend/internal/util"
)

type PriceHandler struct {
	scrapes *service.ScrapeService
}

type tripScrapeRequest struct {
	Provider   string `json:"provider"`
	CabinClass string `json:"cabin_class"`
}

func RegisterPrices(e *echo.Echo, scrapes *service.ScrapeService) {
	handler := &PriceHandler{scrapes: scrapes}

	group := e.Group("/api/v1/trips/:trip_id", RequireUser())
	group.GET("/prices", handler.priceHistory)
	group.POST("/scrape", handler.scrapeTrip)
}

func (h *PriceHandler) priceHistory(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	tripID, err := parseUUIDParam(c, "trip_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("trip_id must be a valid UUID"))
	}

	var provider *string
	if raw := strings.TrimSpace(c.QueryParam("provider")); raw != "" {
		provider = &raw
	}

	page, perPage := paginationParams(c)
	snapshots, total, err := h.scrapes.PriceHistory(c.Request().Context(), userID, tripID, provider, page, perPage)
	if err != nil {
		if errors.Is(err, service.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("trip not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not load price history"))
	}
	return c.JSON(http.StatusOK, util.Paginated("snapshots", snapshots, page, perPage, total))
}

// scrapeTrip performs an on-demand fetch for the trip and evaluates every
// active watch against the new snapshots. Alerts fired as a side effect are
// returned alongside the snapshots.
func (h *PriceHandler) scrapeTrip(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	tripID, err := parseUUIDParam(c, "trip_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("trip_id must be a valid UUID"))
	}

	var req tripScrapeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	snapshots, alerts, err := h.scrapes.ScrapeTrip(c.Request().Context(), userID, tripID, req.Provider, req.CabinClass)
	if err != nil {
		var unknown *scraper.UnknownProviderError
		switch {
		case errors.Is(err, service.ErrTripNotFound):
			return c.JSON(http.StatusNotFound, util.Error("trip not found"))
		case errors.Is(err, service.ErrScrapeRateLimited):
			return c.JSON(http.StatusTooManyRequests, util.Error("provider rate limit reached, try again shortly"))
		case errors.As(err, &unknown):
			return c.JSON(http.StatusUnprocessableEntity, util.Error(unknown.Error()))
		default:
			return c.JSON(http.StatusBadGateway, util.Error("provider scrape failed"))
		}
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"snapshots": snapshots,
		"alerts":    alerts,
	})
}
