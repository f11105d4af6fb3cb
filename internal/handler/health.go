package handler // declare the package name; contains HTTP handlers

import (
    "context"      // bounded ping
    "database/sql" // store handle to ping
    "net/http"     // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// HealthHandler reports liveness plus store reachability for load
// balancers.
type HealthHandler struct {
    DB *sql.DB
}

// Health returns 200 "ok" when the store answers a ping within two seconds
// and 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
    if h.DB != nil {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := h.DB.PingContext(ctx); err != nil {
            return c.String(http.StatusServiceUnavailable, "storage unavailable")
        }
    }
    return c.String(http.StatusOK, "ok")
}
