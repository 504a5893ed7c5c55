package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/faredrop/faredrop-backend/internal/service"
	"github.com/faredrop/faredrop-backend/internal/util"
)

type OpsHandler struct {
	scheduler *service.Scheduler
}

// RegisterOps mounts the operational endpoints. Tick triggering is meant for
// operators and integration environments where waiting for the timer is
// impractical; it shares the overlap guard with the timer-driven loop.
func RegisterOps(e *echo.Echo, scheduler *service.Scheduler) {
	handler := &OpsHandler{scheduler: scheduler}

	group := e.Group("/api/v1/ops")
	group.POST("/scheduler/tick", handler.runTick)
}

func (h *OpsHandler) runTick(c echo.Context) error {
	summary, err := h.scheduler.RunTick(c.Request().Context())
	if err != nil {
		if errors.Is(err, service.ErrTickInProgress) {
			return c.JSON(http.StatusConflict, util.Error("a scheduler tick is already running"))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("scheduler tick failed"))
	}
	return c.JSON(http.StatusOK, util.Data("summary", summary))
}
