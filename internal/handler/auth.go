package handler

import (
    "errors"
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // token expiry timestamps

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/startup-ecosystem/internal/config"
    "github.com/iliyamo/startup-ecosystem/internal/model"
    "github.com/iliyamo/startup-ecosystem/internal/repository"
    "github.com/iliyamo/startup-ecosystem/internal/service"
    "github.com/iliyamo/startup-ecosystem/internal/utils" // token issuing and hashing
)

// AuthHandler bundles dependencies for auth endpoints.
// Invalidate runs after a sign-up, since a new mentor or investor changes
// the founder browse lists.
type AuthHandler struct {
    Cfg        config.Config
    Identity   *service.IdentityService
    Tokens     TokenStore
    Invalidate Invalidator
}

func NewAuthHandler(cfg config.Config, identity *service.IdentityService, t TokenStore, invalidate Invalidator) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Identity: identity, Tokens: t, Invalidate: invalidate}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // Founder | Mentor | Investor
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64     `json:"id"`
    Name  string     `json:"name"`
    Email string     `json:"email"`
    Role  model.Role `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issue signs an access token, stores a fresh refresh token and builds the
// response body.
func (h *AuthHandler) issue(c echo.Context, u model.User) (authResp, error) {
    ctx, cancel := dbCtx(c)
    defer cancel()

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), u.Name, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Register: create user with its empty profile and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()

    u, err := h.Identity.Register(ctx, req.Name, req.Email, req.Password, req.Role)
    if err != nil {
        return respondError(c, err)
    }
    h.Invalidate.run(ctx)
    resp, err := h.issue(c, u)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, resp)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if strings.TrimSpace(req.Email) == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }
    ctx, cancel := dbCtx(c)
    defer cancel()

    u, err := h.Identity.Authenticate(ctx, req.Email, req.Password)
    if err != nil {
        return respondError(c, err)
    }
    resp, err := h.issue(c, u)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := dbCtx(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    // Revocation is the single-use check: a concurrent rotation of the
    // same token loses here.
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return respondError(c, err)
    }
    u, err := h.Identity.Get(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    resp, err := h.issue(c, u)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// RefreshAccess: validate a refresh token and return a new access token
// WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := dbCtx(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    u, err := h.Identity.Get(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), u.Name, h.Cfg.AccessTTLMin)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes one refresh token when `refresh_token` is in the body, or
// every session of the bearer's user when only an access token is sent.
// It does not sit behind JWTAuth so a client with an expired access token
// can still end its session.
func (h *AuthHandler) Logout(c echo.Context) error {
    var (
        uid       uint64
        hasBearer bool
    )
    if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
        if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
            uid, hasBearer = claims.UserID, true
        }
    }

    // Invalid JSON simply leaves the token empty; the bearer may suffice.
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := dbCtx(c)
    defer cancel()

    if refreshToken != "" {
        err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(refreshToken))
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err != nil {
            return respondError(c, err)
        }
        return c.NoContent(http.StatusNoContent)
    }
    if hasBearer {
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return respondError(c, err)
        }
        return c.NoContent(http.StatusNoContent)
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()

    u, err := h.Identity.Get(ctx, uid)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, u)
}
