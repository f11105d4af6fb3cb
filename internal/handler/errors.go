package handler

import (
    "errors"
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parish-events/internal/repository"
)

// apiError is the JSON error body returned by every endpoint.
type apiError struct {
    Error   string `json:"error"`
    Message string `json:"message"`
    Field   string `json:"field,omitempty"`
}

// respondError maps ledger and repository errors onto HTTP statuses.
// Unexpected errors are logged and reported as 500 without detail.
func respondError(c echo.Context, err error) error {
    var ve *repository.ValidationError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusUnprocessableEntity, apiError{Error: "validation_error", Message: ve.Reason, Field: ve.Field})
    case errors.Is(err, repository.ErrInvalidInput):
        return c.JSON(http.StatusBadRequest, apiError{Error: "invalid_input", Message: err.Error()})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, apiError{Error: "not_found", Message: err.Error()})
    case errors.Is(err, repository.ErrDuplicateVote):
        return c.JSON(http.StatusConflict, apiError{Error: "already_voted", Message: "you already voted on this event"})
    case errors.Is(err, repository.ErrInvalidTransition):
        return c.JSON(http.StatusConflict, apiError{Error: "invalid_transition", Message: "suggestion is no longer pending"})
    case errors.Is(err, repository.ErrStorageUnavailable):
        return c.JSON(http.StatusServiceUnavailable, apiError{Error: "storage_unavailable", Message: "temporarily unavailable, retry later"})
    }
    slog.Error("unhandled error", "method", c.Request().Method, "path", c.Path(), "err", err)
    return c.JSON(http.StatusInternalServerError, apiError{Error: "internal", Message: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, apiError{Error: "invalid_input", Message: msg})
}
