package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parish-events/internal/middleware"
    "github.com/iliyamo/parish-events/internal/model"
    "github.com/iliyamo/parish-events/internal/service"
)

// SuggestionHandler serves public suggestion submission.
type SuggestionHandler struct {
    Suggestions *service.SuggestionLedger
}

type submitSuggestionRequest struct {
    Kind          model.SuggestionKind    `json:"kind"`
    EventID       *string                 `json:"event_id"`
    VenueID       *string                 `json:"venue_id"`
    ProposedValue string                  `json:"proposed_value"`
    Proposal      *service.ProposalFields `json:"proposal"`
}

// Submit handles POST /v1/suggestions.  new_parish and new_pastoral accept
// either a "proposal" object or its JSON text in proposed_value.
func (h *SuggestionHandler) Submit(c echo.Context) error {
    var req submitSuggestionRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid JSON body")
    }
    in := service.SubmitRequest{
        Kind:          req.Kind,
        EventID:       req.EventID,
        VenueID:       req.VenueID,
        SubmitterID:   middleware.VoterID(c),
        ProposedValue: req.ProposedValue,
    }
    if req.Proposal != nil && req.Kind.IsProposal() {
        p, err := service.NewProposal(req.Kind, *req.Proposal)
        if err != nil {
            return respondError(c, err)
        }
        in.Proposal = p
    }
    id, err := h.Suggestions.Submit(c.Request().Context(), in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id, "status": model.StatusPending})
}
