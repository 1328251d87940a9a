package handler // handler defines http handlers

import (
    "context"
    "errors"   // errors provides sentinel values used in getUserID
    "net/http" // status codes
    "strconv"  // strconv converts strings to numeric types
    "time"

    "github.com/labstack/echo/v4" // echo defines request context types
    "go.uber.org/zap"

    "github.com/iliyamo/startup-ecosystem/internal/logger"
    "github.com/iliyamo/startup-ecosystem/internal/model"
    "github.com/iliyamo/startup-ecosystem/internal/repository"
    "github.com/iliyamo/startup-ecosystem/internal/service"
)

// dbTimeout bounds every database round trip made on behalf of a request.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the user_id set by JWTAuth and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim set by JWTAuth.
func getRole(c echo.Context) model.Role {
    s, _ := c.Get("role").(string)
    return model.Role(s)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// respondError maps service and repository errors onto HTTP statuses.
func respondError(c echo.Context, err error) error {
    var ve *service.ValidationError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error(), "field": ve.Field})
    case errors.Is(err, model.ErrInvalidTransition):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrInvalidCredentials):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrUnavailable):
        logger.FromEcho(c).Warn("database unavailable", zap.Error(err))
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
    }
    logger.FromEcho(c).Error("request failed", zap.Error(err))
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
