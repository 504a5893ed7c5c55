package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/faredrop/faredrop-backend/internal/service"
	"github.com/faredrop/faredrop-backend/internal/util"
)

type TripHandler struct {
	trips *service.TripService
}

type tripCreateRequest struct {
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureDate string  `json:"departure_date"`
	ReturnDate    *string `json:"return_date"`
	Travelers     int     `json:"travelers"`
	TripType      string  `json:"trip_type"`
	Notes         *string `json:"notes"`
}

type tripUpdateRequest struct {
	Origin        *string `json:"origin"`
	Destination   *string `json:"destination"`
	DepartureDate *string `json:"departure_date"`
	ReturnDate    *string `json:"return_date"`
	Travelers     *int    `json:"travelers"`
	TripType      *string `json:"trip_type"`
	Notes         *string `json:"notes"`
}

func RegisterTrips(e *echo.Echo, trips *service.TripService) {
	handler := &TripHandler{trips: trips}

	group := e.Group("/api/v1/trips", RequireUser())
	group.POST("", handler.createTrip)
	group.GET("", handler.listTrips)
	group.GET("/:trip_id", handler.getTrip)
	group.PATCH("/:trip_id", handler.updateTrip)
	group.DELETE("/:trip_id", handler.deleteTrip)
}

func (h *TripHandler) createTrip(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	var req tripCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	departure, err := parseDate(req.DepartureDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("departure_date must be YYYY-MM-DD"))
	}
	returnDate, err := parseOptionalDate(req.ReturnDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("return_date must be YYYY-MM-DD"))
	}

	trip, err := h.trips.Create(c.Request().Context(), userID, service.TripCreateInput{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: departure,
		ReturnDate:    returnDate,
		Travelers:     req.Travelers,
		TripType:      req.TripType,
		Notes:         req.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrTripValidation) {
			return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not create trip"))
	}
	return c.JSON(http.StatusCreated, util.Data("trip", trip))
}

func (h *TripHandler) listTrips(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	page, perPage := paginationParams(c)
	trips, total, err := h.trips.List(c.Request().Context(), userID, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list trips"))
	}
	return c.JSON(http.StatusOK, util.Paginated("trips", trips, page, perPage, total))
}

func (h *TripHandler) getTrip(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	tripID, err := parseUUIDParam(c, "trip_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("trip_id must be a valid UUID"))
	}

	trip, err := h.trips.GetByID(c.Request().Context(), userID, tripID)
	if err != nil {
		if errors.Is(err, service.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("trip not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not load trip"))
	}
	return c.JSON(http.StatusOK, util.Data("trip", trip))
}

func (h *TripHandler) updateTrip(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	tripID, err := parseUUIDParam(c, "trip_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("trip_id must be a valid UUID"))
	}

	var req tripUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	input := service.TripUpdateInput{
		Origin:      req.Origin,
		Destination: req.Destination,
		Travelers:   req.Travelers,
		TripType:    req.TripType,
		Notes:       req.Notes,
	}
	if req.DepartureDate != nil {
		departure, err := parseDate(*req.DepartureDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("departure_date must be YYYY-MM-DD"))
		}
		input.DepartureDate = &departure
	}
	if req.ReturnDate != nil {
		returnDate, err := parseOptionalDate(req.ReturnDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("return_date must be YYYY-MM-DD"))
		}
		input.ReturnDate = returnDate
	}

	trip, err := h.trips.Update(c.Request().Context(), userID, tripID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTripNotFound):
			return c.JSON(http.StatusNotFound, util.Error("trip not found"))
		case errors.Is(err, service.ErrTripValidation):
			return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, util.Error("could not update trip"))
		}
	}
	return c.JSON(http.StatusOK, util.Data("trip", trip))
}

func (h *TripHandler) deleteTrip(c echo.Context) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	tripID, err := parseUUIDParam(c, "trip_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("trip_id must be a valid UUID"))
	}

	if err := h.trips.Delete(c.Request().Context(), userID, tripID); err != nil {
		if errors.Is(err, service.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("trip not found"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("could not delete trip"))
	}
	return c.NoContent(http.StatusNoContent)
}

// --- shared handler helpers ---

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Param(name)))
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(value))
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := parseDate(*value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func paginationParams(c echo.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.QueryParam("per_page"))
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
