package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/faredrop/faredrop-backend/internal/util"
)

const contextUserIDKey = "faredrop.user_id"

// userIDHeader carries the caller's identity. Authentication itself is the
// job of the gateway in front of this service; by the time a request lands
// here the header is trusted.
const userIDHeader = "X-User-ID"

func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(userIDHeader))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing "+userIDHeader+" header"))
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Error(userIDHeader+" must be a valid UUID"))
			}
			c.Set(contextUserIDKey, userID)
			return next(c)
		}
	}
}

func CurrentUserID(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(contextUserIDKey).(uuid.UUID)
	return userID, ok
}
