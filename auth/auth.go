package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized indicates authentication failed or no valid credentials were supplied.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInsufficientScope indicates the caller authenticated but lacks required scope.
var ErrInsufficientScope = errors.New("insufficient scope")

// Classified failures. A *TokenError matches exactly one of these in addition
// to ErrUnauthorized or ErrInsufficientScope.
var (
	ErrMalformedToken       = errors.New("malformed token")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrMissingRequiredClaim = errors.New("missing required claim")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenNotYetValid     = errors.New("token not yet valid")
	ErrUnknownIssuer        = errors.New("unknown issuer")
	ErrTokenRevoked         = errors.New("token revoked")
	ErrSubjectMismatch      = errors.New("subject mismatch")
	ErrAudienceMismatch     = errors.New("audience mismatch")
)

// UserInfo represents an authenticated principal.
// Implementations should be lightweight and safe for concurrent use.
type UserInfo interface {
	// UserID returns the unique identifier for the user.
	UserID() string
	// Claims unmarshalls the user's claims into the provided struct reference.
	Claims(ref any) error
	// Header returns the verified JOSE header.
	Header() map[string]any
}

// Authenticator validates bearer tokens and returns associated user info.
// It should return ErrUnauthorized for invalid credentials and
// ErrInsufficientScope when the token is valid but grants none of scopes.
type Authenticator interface {
	CheckAuthentication(ctx context.Context, tok string, scopes ...string) (UserInfo, error)
}
