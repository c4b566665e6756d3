package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/sabyjs3-beep/tctp/internal/errors"
)

// deviceIDHeader carries the anonymous device token clients generate on
// first launch. There are no accounts; the token is the whole identity.
const deviceIDHeader = "X-Device-ID"

func deviceIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(deviceIDHeader)
			if raw == "" {
				return next(c)
			}

			deviceID, err := uuid.Parse(raw)
			if err != nil {
				return apperrors.ValidationError("invalid device ID").WithField("device_id", raw)
			}

			c.Set("deviceID", deviceID)
			return next(c)
		}
	}
}

// deviceID returns the parsed device token, or uuid.Nil when the request
// carried none.
func deviceID(c echo.Context) uuid.UUID {
	if id, ok := c.Get("deviceID").(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// requireDevice is for endpoints that write on behalf of a device.
func requireDevice(c echo.Context) (uuid.UUID, error) {
	id := deviceID(c)
	if id == uuid.Nil {
		return uuid.Nil, apperrors.ValidationError("X-Device-ID header is required")
	}
	return id, nil
}
