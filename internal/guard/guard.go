// Package guard decides whether a request may reach the print API.
// It is stateless: every decision depends only on its arguments.
package guard

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/MrSnakeDoc/printshare/internal/domain"
)

// Decision is the outcome of Authorize. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  domain.Kind
	Detail  string
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

func deny(kind domain.Kind, detail string) Decision {
	return Decision{Reason: kind, Detail: detail}
}

// Err converts a denial into a kinded error, nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.Errorf(d.Reason, "%s", d.Detail)
}

// Authorize applies the access policy in order: origin first, then the
// bearer credential. expected must be non-empty; an empty expected token
// denies every request.
func Authorize(origin Origin, authHeader, expected string) Decision {
	if !origin.Local() {
		return deny(domain.KindForbiddenOrigin, "only local network clients may access the server")
	}

	presented, ok := ParseBearer(authHeader)
	if !ok {
		return deny(domain.KindUnauthorized, "authorization header missing or invalid")
	}
	if expected == "" || !equal(presented, expected) {
		return deny(domain.KindUnauthorized, "invalid bearer token")
	}
	return Allow
}

// ParseBearer extracts the credential from "Bearer <token>". The scheme is
// case-insensitive; the token must be a single non-empty word.
func ParseBearer(header string) (string, bool) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(rest)
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", false
	}
	return tok, true
}

// equal compares digests so neither content nor length leaks through timing.
func equal(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
