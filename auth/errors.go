package auth

import (
	"net/http"

	"github.com/ggoodman/accesstoken-go/accesstoken"
)

// TokenError reports why a token was rejected.
//
// It matches ErrUnauthorized or ErrInsufficientScope with errors.Is, and also
// the classified sentinel for its reason (ErrTokenExpired, ErrUnknownIssuer and
// so on).
type TokenError struct {
	Reason accesstoken.Reason
	// Scopes requested by the caller. Only set for forbidden errors.
	Scopes []string
}

// InvalidTokenError builds the 401-class error for reason.
func InvalidTokenError(reason accesstoken.Reason) *TokenError {
	return &TokenError{Reason: reason}
}

// ForbiddenTokenError builds the 403-class error for a token that grants none
// of scopes.
func ForbiddenTokenError(reason accesstoken.Reason, scopes []string) *TokenError {
	return &TokenError{Reason: reason, Scopes: append([]string(nil), scopes...)}
}

func (e *TokenError) Error() string {
	if e.Forbidden() {
		return accesstoken.ForbiddenMessage(e.Scopes)
	}
	return e.Reason.Message()
}

// Forbidden reports whether the token was valid but lacked scope.
func (e *TokenError) Forbidden() bool { return e.Reason.Forbidden() }

// Status is the HTTP status the error maps to.
func (e *TokenError) Status() int {
	if e.Forbidden() {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func (e *TokenError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return !e.Forbidden()
	case ErrInsufficientScope:
		return e.Forbidden()
	}
	return false
}

func (e *TokenError) Unwrap() error { return classify(e.Reason) }

func classify(r accesstoken.Reason) error {
	if _, ok := r.MissingClaim(); ok {
		return ErrMissingRequiredClaim
	}
	switch r {
	case accesstoken.ReasonInvalidJWTToken:
		return ErrMalformedToken
	case accesstoken.ReasonInvalidSignature:
		return ErrInvalidSignature
	case accesstoken.ReasonInvalidExpClaim:
		return ErrTokenExpired
	case accesstoken.ReasonInvalidNbfClaim:
		return ErrTokenNotYetValid
	case accesstoken.ReasonInvalidIssClaim:
		return ErrUnknownIssuer
	case accesstoken.ReasonInvalidJtiClaim:
		return ErrTokenRevoked
	case accesstoken.ReasonInvalidSubClaim:
		return ErrSubjectMismatch
	case accesstoken.ReasonInvalidAudClaim:
		return ErrAudienceMismatch
	}
	return nil
}
