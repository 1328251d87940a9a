package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/startup-ecosystem/internal/model"
    "github.com/iliyamo/startup-ecosystem/internal/service"
)

// AdminHandler serves user management, event management and the funding
// report. Every route sits behind RequireRole(Admin).
type AdminHandler struct {
    Identity   *service.IdentityService
    Requests   *service.RequestService
    Events     EventStore
    Invalidate Invalidator
}

func NewAdminHandler(identity *service.IdentityService, requests *service.RequestService, events EventStore, invalidate Invalidator) *AdminHandler {
    return &AdminHandler{Identity: identity, Requests: requests, Events: events, Invalidate: invalidate}
}

// ----- users -----

type adminUserReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"`
}

// ListUsers lists accounts of the role given by ?role=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Identity.ListByRole(ctx, c.QueryParam("role"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
    var req adminUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Identity.CreateByAdmin(ctx, req.Name, req.Email, req.Password, req.Role)
    if err != nil {
        return respondError(c, err)
    }
    h.Invalidate.run(ctx)
    return c.JSON(http.StatusCreated, u)
}

// UpdateUser changes an account's name and email; role is immutable.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    var req adminUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Identity.UpdateByAdmin(ctx, id, req.Name, req.Email)
    if err != nil {
        return respondError(c, err)
    }
    h.Invalidate.run(ctx)
    return c.JSON(http.StatusOK, u)
}

// DeleteUser removes an account, its profile, and (by cascade) its
// requests and refresh tokens.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Identity.DeleteByAdmin(ctx, id); err != nil {
        return respondError(c, err)
    }
    h.Invalidate.run(ctx)
    return c.NoContent(http.StatusNoContent)
}

// ----- events -----

type eventReq struct {
    Title       string `json:"title"`
    Description string `json:"description"`
    EventDate   string `json:"event_date"` // YYYY-MM-DD
    Location    string `json:"location"`
}

// toEvent validates the body. Title and date are required.
func (r eventReq) toEvent() (model.Event, string) {
    title := strings.TrimSpace(r.Title)
    if title == "" {
        return model.Event{}, "title"
    }
    d, err := time.Parse(model.DateLayout, strings.TrimSpace(r.EventDate))
    if err != nil {
        return model.Event{}, "event_date"
    }
    return model.Event{
        Title:       title,
        Description: strings.TrimSpace(r.Description),
        Date:        d,
        Location:    strings.TrimSpace(r.Location),
    }, ""
}

func badEventField(c echo.Context, field string) error {
    msg := field + " is required"
    if field == "event_date" {
        msg = "event_date must be YYYY-MM-DD"
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "field": field})
}

func (h *AdminHandler) ListEvents(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Events.List(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toEventResps(list))
}

func (h *AdminHandler) CreateEvent(c echo.Context) error {
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    e, field := req.toEvent()
    if field != "" {
        return badEventField(c, field)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Events.Create(ctx, &e); err != nil {
        return respondError(c, err)
    }
    h.Invalidate.run(ctx)
    return c.JSON(http.StatusCreated, toEventResp(e))
}

func (h *AdminHandler) UpdateEvent(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    e, field := req.toEvent()
    if field != "" {
        return badEventField(c, field)
    }
    e.ID = id
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Events.Update(ctx, e); err != nil {
        return respondError(c, err)
    }
    h.Invalidate.run(ctx)
    return c.JSON(http.StatusOK, toEventResp(e))
}

func (h *AdminHandler) DeleteEvent(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Events.Delete(ctx, id); err != nil {
        return respondError(c, err)
    }
    h.Invalidate.run(ctx)
    return c.NoContent(http.StatusNoContent)
}

// FundingReport returns the total requested amount per funding status.
func (h *AdminHandler) FundingReport(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    totals, err := h.Requests.FundingSummary(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, totals)
}
