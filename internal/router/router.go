package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // Echo web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // metrics exposition

	"github.com/iliyamo/parish-events/internal/handler"    // HTTP handlers
	"github.com/iliyamo/parish-events/internal/middleware" // identity, JWT, role, cache and rate limit middleware
	"github.com/iliyamo/parish-events/internal/utils"      // role names
)

// Middlewares bundles the cross-cutting middleware built in main.  Cache
// wraps public reads and RateLimit guards the anonymous write routes; both
// may be pass-through when Redis is unavailable.
type Middlewares struct {
	Identity  middleware.IdentityResolver
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Load balancers probe /healthz; Prometheus scrapes /metrics.
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the catalog reads, vote submission and
// suggestion submission under /v1.
func RegisterPublic(e *echo.Echo, c *handler.CatalogHandler, v *handler.VoteHandler, s *handler.SuggestionHandler, mw Middlewares) {
	// Reads are open to everyone and may be served from the response cache.
	r := e.Group("/v1", mw.Cache)
	r.GET("/events", c.ListEvents)
	r.GET("/events/:id/score", c.EventScore)
	r.GET("/venues/nearest", c.NearestVenues)
	r.GET("/venues/:id", c.VenueProfile)
	r.GET("/venues/:id/calendar.ics", c.VenueCalendar)

	// Writes need an anonymous voter id.  RequireVoter runs before the rate
	// limiter so the opt-in voter key strategies can see it.
	w := e.Group("/v1", middleware.RequireVoter(mw.Identity), mw.RateLimit)
	w.POST("/events/:id/votes", v.CastVote)
	w.POST("/suggestions", s.Submit)
}

// RegisterModeration registers the moderator login and the MODERATOR-only
// queue endpoints.
func RegisterModeration(e *echo.Echo, m *handler.ModerationHandler, jwtSecret string) {
	e.POST("/v1/moderation/login", m.Login)

	g := e.Group(
		"/v1/moderation",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleModerator),
	)
	g.GET("/suggestions", m.ListSuggestions)
	g.POST("/suggestions/:id/resolve", m.ResolveSuggestion)
	g.POST("/venues/:id/deactivate", m.DeactivateVenue)
}
