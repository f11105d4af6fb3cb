package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parish-events/internal/middleware"
    "github.com/iliyamo/parish-events/internal/model"
    "github.com/iliyamo/parish-events/internal/service"
)

// VoteHandler serves vote submission.
type VoteHandler struct {
    Votes *service.VoteLedger
}

type castVoteRequest struct {
    Direction model.VoteDirection `json:"direction"`
}

// CastVote handles POST /v1/events/:id/votes.  The voter id is resolved by
// middleware.RequireVoter.  A repeat vote returns 409 already_voted.
func (h *VoteHandler) CastVote(c echo.Context) error {
    var req castVoteRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid JSON body")
    }
    res, err := h.Votes.CastVote(c.Request().Context(), c.Param("id"), middleware.VoterID(c), req.Direction)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, res)
}
