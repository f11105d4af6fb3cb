package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"  // secure random number generation
    "encoding/hex" // hex encoding of session ids
    "time"         // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// RoleModerator is the only role the service issues.  Moderation routes
// require it.
const RoleModerator = "MODERATOR"

// AccessToken is a signed JWT plus its expiry.  Moderators send it in the
// Authorization header as a Bearer token.
type AccessToken struct {
    Token   string    `json:"access_token"`
    Exp     time.Time `json:"expires_at"`
    Session string    `json:"-"`
}

// NewModeratorToken signs an HS256 JWT for a fresh moderation session.
// The subject is a random session id so log lines from one login can be
// correlated without naming a person.
func NewModeratorToken(secret string, ttlMin int) (AccessToken, error) {
    session, err := randomHex(16)
    if err != nil {
        return AccessToken{}, err
    }
    return NewAccessToken(secret, "mod-"+session, RoleModerator, ttlMin)
}

// NewAccessToken builds and signs an HS256 JWT carrying sub, role, exp and
// iat claims.
func NewAccessToken(secret, subject, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  subject,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp, Session: subject}, nil
}

// randomHex returns n bytes of crypto/rand output, hex encoded.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
