package auth

import (
	"net/http"
	"strings"
)

// SessionCookie carries the JWT for browser clients; API clients may send a
// Bearer header instead.
const SessionCookie = "session"

// IdentityFromRequest resolves the authenticated username for an HTTP
// request, or "" when no valid token is present. The caller decides what an
// absent identity means; no state is touched here.
func (t *TokenIssuer) IdentityFromRequest(r *http.Request) string {
	var token string
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	} else if c, err := r.Cookie(SessionCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		return ""
	}

	claims, err := t.Validate(token)
	if err != nil {
		return ""
	}
	return claims.Username
}
