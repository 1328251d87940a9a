package middleware

import (
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

// RequestID adds a unique request ID to each request. An incoming
// X-Request-ID header is kept; otherwise a UUID is generated. The id is
// echoed on the response so clients can correlate logs.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            requestID := c.Request().Header.Get(echo.HeaderXRequestID)
            if requestID == "" {
                requestID = uuid.New().String()
                c.Request().Header.Set(echo.HeaderXRequestID, requestID)
            }
            c.Response().Header().Set(echo.HeaderXRequestID, requestID)
            return next(c)
        }
    }
}
