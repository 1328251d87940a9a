package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/startup-ecosystem/internal/model"
    "github.com/iliyamo/startup-ecosystem/internal/repository"
)

// ProfileHandler lets founders, mentors and investors read and edit their
// own satellite profile.
type ProfileHandler struct {
    Profiles   ProfileStore
    Invalidate Invalidator
}

func NewProfileHandler(profiles ProfileStore, invalidate Invalidator) *ProfileHandler {
    return &ProfileHandler{Profiles: profiles, Invalidate: invalidate}
}

// profileReq carries the editable fields of every role; fields that do
// not belong to the caller's role are ignored.
type profileReq struct {
    StartupName          string `json:"startup_name"`
    Industry             string `json:"industry"`
    Location             string `json:"location"`
    TeamSize             uint32 `json:"team_size"`
    FundingNeededCents   uint64 `json:"funding_needed_cents"`
    Expertise            string `json:"expertise"`
    Availability         string `json:"availability"`
    ExpertiseArea        string `json:"expertise_area"`
    AvailableBudgetCents uint64 `json:"available_budget_cents"`
}

func (h *ProfileHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()

    var out any
    switch getRole(c) {
    case model.RoleFounder:
        out, err = h.Profiles.GetFounder(ctx, uid)
    case model.RoleMentor:
        out, err = h.Profiles.GetMentor(ctx, uid)
    case model.RoleInvestor:
        out, err = h.Profiles.GetInvestor(ctx, uid)
    default:
        err = repository.ErrForbidden
    }
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ProfileHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req profileReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()

    switch getRole(c) {
    case model.RoleFounder:
        if req.TeamSize == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "team_size must be at least 1", "field": "team_size"})
        }
        err = h.Profiles.UpdateFounder(ctx, model.FounderProfile{
            UserID:             uid,
            StartupName:        strings.TrimSpace(req.StartupName),
            Industry:           strings.TrimSpace(req.Industry),
            Location:           strings.TrimSpace(req.Location),
            TeamSize:           req.TeamSize,
            FundingNeededCents: req.FundingNeededCents,
        })
    case model.RoleMentor:
        err = h.Profiles.UpdateMentor(ctx, model.MentorProfile{
            UserID:       uid,
            Expertise:    strings.TrimSpace(req.Expertise),
            Availability: strings.TrimSpace(req.Availability),
        })
    case model.RoleInvestor:
        err = h.Profiles.UpdateInvestor(ctx, model.InvestorProfile{
            UserID:               uid,
            ExpertiseArea:        strings.TrimSpace(req.ExpertiseArea),
            AvailableBudgetCents: req.AvailableBudgetCents,
        })
    default:
        err = repository.ErrForbidden
    }
    if err != nil {
        return respondError(c, err)
    }
    h.Invalidate.run(ctx)
    return h.Get(c)
}
