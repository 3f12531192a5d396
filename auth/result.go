package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ggoodman/accesstoken-go/accesstoken"
)

// OAuth error codes carried in challenges and JSON bodies.
const (
	ErrorInvalidGrant   = "invalid_grant"
	ErrorInvalidScope   = "invalid_scope"
	ErrorInvalidRequest = "invalid_request"
)

// DefaultRealm is advertised in challenges when no realm is configured.
const DefaultRealm = "AccessToken"

// AuthenticationChallenge describes an HTTP challenge: the status, the
// WWW-Authenticate header (empty when none should be sent) and the OAuth error
// pair for the response body.
type AuthenticationChallenge struct {
	Status           int
	WWWAuthenticate  string
	Error            string
	ErrorDescription string
}

// NewInvalidTokenChallenge builds the 401 challenge for a token that failed
// validation. An empty realm means DefaultRealm.
func NewInvalidTokenChallenge(realm string, description string) *AuthenticationChallenge {
	return &AuthenticationChallenge{
		Status: http.StatusUnauthorized,
		WWWAuthenticate: buildBearerChallenge(realm, map[string]string{
			"error":             ErrorInvalidGrant,
			"error_description": description,
		}),
		Error:            ErrorInvalidGrant,
		ErrorDescription: description,
	}
}

// NewInsufficientScopeChallenge builds the 403 challenge for a valid token
// whose audience does not include any of scopes. No WWW-Authenticate header is
// sent.
func NewInsufficientScopeChallenge(scopes []string) *AuthenticationChallenge {
	return &AuthenticationChallenge{
		Status:           http.StatusForbidden,
		Error:            ErrorInvalidScope,
		ErrorDescription: accesstoken.ForbiddenMessage(scopes),
	}
}

// NewInvalidAuthorizationHeader builds a challenge for a malformed Authorization header.
func NewInvalidAuthorizationHeader(realm string) *AuthenticationChallenge {
	const desc = "Invalid Authorization header"
	return &AuthenticationChallenge{
		Status: http.StatusBadRequest,
		WWWAuthenticate: buildBearerChallenge(realm, map[string]string{
			"error":             ErrorInvalidRequest,
			"error_description": desc,
		}),
		Error:            ErrorInvalidRequest,
		ErrorDescription: desc,
	}
}

// ChallengeFor maps an error returned by an Authenticator to a challenge.
// Errors that are not a *TokenError become a generic 401 (or 403 when they
// wrap ErrInsufficientScope).
func ChallengeFor(err error, realm string) *AuthenticationChallenge {
	var te *TokenError
	if errors.As(err, &te) {
		if te.Forbidden() {
			return NewInsufficientScopeChallenge(te.Scopes)
		}
		return NewInvalidTokenChallenge(realm, te.Error())
	}
	if errors.Is(err, ErrInsufficientScope) {
		return NewInsufficientScopeChallenge(nil)
	}
	return NewInvalidTokenChallenge(realm, accesstoken.ReasonUnknown.Message())
}

func buildBearerChallenge(realm string, params map[string]string) string {
	pieces := make([]string, 0, 1+len(params))
	esc := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace
	if realm == "" {
		realm = DefaultRealm
	}
	pieces = append(pieces, fmt.Sprintf(`realm="%s"`, esc(realm)))
	for _, k := range []string{"error", "error_description", "scope"} {
		if v, ok := params[k]; ok {
			pieces = append(pieces, fmt.Sprintf(`%s="%s"`, k, esc(v)))
		}
	}
	return "Bearer " + strings.Join(pieces, ", ")
}
