package handler

import (
    "log/slog"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parish-events/internal/middleware"
    "github.com/iliyamo/parish-events/internal/model"
    "github.com/iliyamo/parish-events/internal/repository"
    "github.com/iliyamo/parish-events/internal/service"
    "github.com/iliyamo/parish-events/internal/utils"
)

// ModerationHandler serves the moderator login and the routes behind it.
type ModerationHandler struct {
    Suggestions  *service.SuggestionLedger
    Venues       *repository.VenueRepo
    JWTSecret    string
    AccessTTLMin int
    PasswordHash string // bcrypt hash of the shared moderator password
}

type loginRequest struct {
    Password string `json:"password"`
}

// Login handles POST /v1/moderation/login.  A correct password yields a
// short-lived MODERATOR access token.
func (h *ModerationHandler) Login(c echo.Context) error {
    var req loginRequest
    if err := c.Bind(&req); err != nil || req.Password == "" {
        return badRequest(c, "password is required")
    }
    if !utils.VerifyPassword(h.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, apiError{Error: "unauthorized", Message: "invalid credentials"})
    }
    tok, err := utils.NewModeratorToken(h.JWTSecret, h.AccessTTLMin)
    if err != nil {
        return respondError(c, err)
    }
    slog.Info("moderator logged in", "session", tok.Session)
    return c.JSON(http.StatusOK, tok)
}

// ListSuggestions handles GET /v1/moderation/suggestions?status&limit.
// status defaults to pending.
func (h *ModerationHandler) ListSuggestions(c echo.Context) error {
    status := model.StatusPending
    if raw := c.QueryParam("status"); raw != "" {
        s, ok := model.ParseSuggestionStatus(raw)
        if !ok {
            return badRequest(c, "status must be pending, accepted or rejected")
        }
        status = s
    }
    limit := 0
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 {
            return badRequest(c, "limit must be a positive integer")
        }
        limit = n
    }
    items, err := h.Suggestions.List(c.Request().Context(), status, limit)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

type resolveRequest struct {
    Outcome model.SuggestionStatus `json:"outcome"`
}

// ResolveSuggestion handles POST /v1/moderation/suggestions/:id/resolve.
func (h *ModerationHandler) ResolveSuggestion(c echo.Context) error {
    var req resolveRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid JSON body")
    }
    res, err := h.Suggestions.Resolve(c.Request().Context(), c.Param("id"), req.Outcome)
    if err != nil {
        return respondError(c, err)
    }
    slog.Info("suggestion resolved", "id", res.Suggestion.ID, "outcome", res.Suggestion.Status, "applied", res.Applied, "moderator", c.Get(middleware.ModeratorKey))
    return c.JSON(http.StatusOK, res)
}

// DeactivateVenue handles POST /v1/moderation/venues/:id/deactivate.
func (h *ModerationHandler) DeactivateVenue(c echo.Context) error {
    if err := h.Venues.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
