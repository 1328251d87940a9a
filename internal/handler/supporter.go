package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/startup-ecosystem/internal/model"
    "github.com/iliyamo/startup-ecosystem/internal/service"
)

// SupporterHandler serves the investor and mentor dashboards. The caller's
// role claim selects which kind of request is listed and decided.
type SupporterHandler struct {
    Requests *service.RequestService
}

func NewSupporterHandler(requests *service.RequestService) *SupporterHandler {
    return &SupporterHandler{Requests: requests}
}

// Pending lists requests awaiting the caller's decision.
func (h *SupporterHandler) Pending(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Requests.Pending(ctx, uid, getRole(c))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *SupporterHandler) Accept(c echo.Context) error { return h.decide(c, model.DecisionAccept) }

func (h *SupporterHandler) Reject(c echo.Context) error { return h.decide(c, model.DecisionReject) }

func (h *SupporterHandler) decide(c echo.Context, d model.Decision) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Requests.Decide(ctx, uid, getRole(c), id, d)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}
