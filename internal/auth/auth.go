package auth

import (
	"net/http"
	"strings"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
	Email   string
}

// Allow grants access for the given admin identity.
func Allow(email string) Decision {
	return Decision{Allowed: true, Email: email}
}

// Deny refuses access with a client-safe reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorizer gates admin requests. The dashboard aggregators never see
// a request that was not first passed through an Authorizer.
type Authorizer interface {
	Check(r *http.Request) Decision
}

// AllowAll is the development-mode gate. Never wire it up in
// production configuration.
type AllowAll struct{}

func (AllowAll) Check(*http.Request) Decision {
	return Allow("dev")
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}
