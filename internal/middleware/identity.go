package middleware

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
)

// voterKey is the echo.Context key holding the resolved voter id.
const voterKey = "voter_id"

// ErrNoIdentity is returned by resolvers when the request carries no usable
// caller identifier.
var ErrNoIdentity = errors.New("missing voter identity")

// maxIdentityLen bounds the opaque identifier; it matches the column width.
const maxIdentityLen = 128

// IdentityResolver turns a request into the opaque voter/submitter id the
// ledgers record.  Ledgers never see where the id came from, so a stronger
// scheme can replace HeaderIdentity without touching them.
type IdentityResolver interface {
    Resolve(c echo.Context) (string, error)
}

// HeaderIdentity trusts a client-generated id sent in a request header.
// The id is stable per browser but not authenticated.
type HeaderIdentity struct {
    Header string
}

// Resolve returns the trimmed header value, or ErrNoIdentity when it is
// empty or longer than 128 characters.
func (h HeaderIdentity) Resolve(c echo.Context) (string, error) {
    v := strings.TrimSpace(c.Request().Header.Get(h.Header))
    if v == "" || len(v) > maxIdentityLen {
        return "", ErrNoIdentity
    }
    return v, nil
}

// RequireVoter resolves the caller id with r and stores it in the context.
// Requests without one are rejected with 400 before reaching the handler.
func RequireVoter(r IdentityResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, err := r.Resolve(c)
            if err != nil {
                return c.JSON(http.StatusBadRequest, echo.Map{
                    "error":   "invalid_input",
                    "message": err.Error(),
                })
            }
            c.Set(voterKey, id)
            return next(c)
        }
    }
}

// VoterID returns the id stored by RequireVoter, or "" when absent.
func VoterID(c echo.Context) string {
    if s, ok := c.Get(voterKey).(string); ok {
        return s
    }
    return ""
}
