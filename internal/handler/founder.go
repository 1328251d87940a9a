package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/startup-ecosystem/internal/model"
    "github.com/iliyamo/startup-ecosystem/internal/service"
)

// FounderHandler serves the founder dashboard: browsing mentors, investors
// and events, and submitting requests.
type FounderHandler struct {
    Requests *service.RequestService
    Profiles ProfileStore
    Events   EventStore
}

func NewFounderHandler(requests *service.RequestService, profiles ProfileStore, events EventStore) *FounderHandler {
    if requests == nil || profiles == nil || events == nil {
        panic("nil dependency passed to NewFounderHandler")
    }
    return &FounderHandler{Requests: requests, Profiles: profiles, Events: events}
}

// eventResp renders an event with its date as YYYY-MM-DD.
type eventResp struct {
    ID          uint64 `json:"id"`
    Title       string `json:"title"`
    Description string `json:"description"`
    EventDate   string `json:"event_date"`
    Location    string `json:"location"`
}

func toEventResp(e model.Event) eventResp {
    return eventResp{ID: e.ID, Title: e.Title, Description: e.Description, EventDate: e.DateString(), Location: e.Location}
}

func toEventResps(es []model.Event) []eventResp {
    out := make([]eventResp, 0, len(es))
    for _, e := range es {
        out = append(out, toEventResp(e))
    }
    return out
}

func (h *FounderHandler) ListMentors(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Profiles.ListMentors(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *FounderHandler) ListInvestors(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Profiles.ListInvestors(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// ListEvents returns events ordered by date, earliest first.
func (h *FounderHandler) ListEvents(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Events.List(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toEventResps(list))
}

// MyRequests lists the founder's submitted requests with current status.
func (h *FounderHandler) MyRequests(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Requests.ForFounder(ctx, uid)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

type fundingReq struct {
    InvestorID   uint64 `json:"investor_id"`
    InvestorName string `json:"investor_name"`
    IdeaDesc     string `json:"idea_desc"`
    Stage        string `json:"stage"`
    AmountCents  uint64 `json:"amount_cents"`
}

type mentorshipReq struct {
    MentorID   uint64 `json:"mentor_id"`
    MentorName string `json:"mentor_name"`
    IdeaDesc   string `json:"idea_desc"`
    Stage      string `json:"stage"`
}

// SubmitFunding creates a funding request addressed to an investor given
// by id or by exact name.
func (h *FounderHandler) SubmitFunding(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req fundingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Requests.SubmitFunding(ctx, uid, service.SubmitInput{
        SupporterID:   req.InvestorID,
        SupporterName: req.InvestorName,
        IdeaDesc:      req.IdeaDesc,
        Stage:         req.Stage,
        AmountCents:   req.AmountCents,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

// SubmitMentorship creates a mentorship request addressed to a mentor.
func (h *FounderHandler) SubmitMentorship(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req mentorshipReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    out, err := h.Requests.SubmitMentorship(ctx, uid, service.SubmitInput{
        SupporterID:   req.MentorID,
        SupporterName: req.MentorName,
        IdeaDesc:      req.IdeaDesc,
        Stage:         req.Stage,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}
