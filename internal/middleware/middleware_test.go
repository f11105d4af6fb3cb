package middleware

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parish-events/internal/config"
    "github.com/iliyamo/parish-events/internal/utils"
)

func run(t *testing.T, mw []echo.MiddlewareFunc, req *http.Request, h echo.HandlerFunc) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    e.GET("/x", h, mw...)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestRequireVoter(t *testing.T) {
    mw := []echo.MiddlewareFunc{RequireVoter(HeaderIdentity{Header: "X-Voter-ID"})}
    echoVoter := func(c echo.Context) error { return c.String(http.StatusOK, VoterID(c)) }

    tests := []struct {
        name   string
        header string
        code   int
        body   string
    }{
        {"present", "  anon_123  ", http.StatusOK, "anon_123"},
        {"missing", "", http.StatusBadRequest, ""},
        {"too long", strings.Repeat("a", 129), http.StatusBadRequest, ""},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/x", nil)
            if tt.header != "" {
                req.Header.Set("X-Voter-ID", tt.header)
            }
            rec := run(t, mw, req, echoVoter)
            if rec.Code != tt.code {
                t.Fatalf("status = %d, want %d", rec.Code, tt.code)
            }
            if tt.body != "" && rec.Body.String() != tt.body {
                t.Errorf("voter = %q, want %q", rec.Body.String(), tt.body)
            }
        })
    }
}

func TestJWTAuthAndRole(t *testing.T) {
    const secret = "test-secret"
    mw := []echo.MiddlewareFunc{JWTAuth(secret), RequireRole(utils.RoleModerator)}
    ok := func(c echo.Context) error { return c.String(http.StatusOK, c.Get(ModeratorKey).(string)) }

    good, err := utils.NewModeratorToken(secret, 5)
    if err != nil {
        t.Fatalf("NewModeratorToken: %v", err)
    }
    wrongRole, _ := utils.NewAccessToken(secret, "someone", "VIEWER", 5)
    otherSecret, _ := utils.NewModeratorToken("other", 5)
    expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": "mod-x", "role": utils.RoleModerator, "exp": time.Now().Add(-time.Minute).Unix(),
    }).SignedString([]byte(secret))

    tests := []struct {
        name  string
        token string
        code  int
    }{
        {"valid", good.Token, http.StatusOK},
        {"no token", "", http.StatusUnauthorized},
        {"wrong secret", otherSecret.Token, http.StatusUnauthorized},
        {"expired", expired, http.StatusUnauthorized},
        {"wrong role", wrongRole.Token, http.StatusForbidden},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/x", nil)
            if tt.token != "" {
                req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
            }
            rec := run(t, mw, req, ok)
            if rec.Code != tt.code {
                t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
            }
            if tt.code == http.StatusOK && rec.Body.String() != good.Session {
                t.Errorf("moderator = %q, want %q", rec.Body.String(), good.Session)
            }
        })
    }
}

func TestRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/events/e1/votes", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/events/:id/votes")
    c.Set(voterKey, "anon_1")

    tests := map[string]string{
        "ip":             "rl:ip:10.0.0.1",
        "voter":          "rl:voter:anon_1",
        "ip_voter":       "rl:ip:10.0.0.1:voter:anon_1",
        "ip_voter_route": "rl:ip:10.0.0.1:voter:anon_1:route:POST /v1/events/:id/votes",
        "ip_route":       "rl:ip:10.0.0.1:route:POST /v1/events/:id/votes",
        "":               "rl:ip:10.0.0.1:route:POST /v1/events/:id/votes",
    }
    for strategy, want := range tests {
        got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
        if got != want {
            t.Errorf("%s: key = %q, want %q", strategy, got, want)
        }
    }
}

func TestDefaultRateKeyIgnoresVoterID(t *testing.T) {
    t.Setenv("RATE_LIMIT_KEY_STRATEGY", "")
    cfg := config.LoadRateLimitConfig()
    e := echo.New()
    keys := map[string]bool{}
    for _, voter := range []string{"a", "b", "c"} {
        req := httptest.NewRequest(http.MethodPost, "/v1/events/e1/votes", nil)
        req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
        c := e.NewContext(req, httptest.NewRecorder())
        c.SetPath("/v1/events/:id/votes")
        c.Set(voterKey, voter)
        keys[rateKey(cfg, c)] = true
    }
    if len(keys) != 1 {
        t.Errorf("strategy %q gave %d buckets for one IP, want 1: %v", cfg.KeyStrategy, len(keys), keys)
    }
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
    mw := []echo.MiddlewareFunc{
        NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil),
        NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil),
    }
    rec := run(t, mw, httptest.NewRequest(http.MethodGet, "/x", nil), func(c echo.Context) error {
        return c.NoContent(http.StatusNoContent)
    })
    if rec.Code != http.StatusNoContent {
        t.Errorf("status = %d", rec.Code)
    }
}
