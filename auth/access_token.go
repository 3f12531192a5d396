package auth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ggoodman/accesstoken-go/accesstoken"
)

// AccessTokenAuthOption configures the RFC 9068 access token authenticator.
type AccessTokenAuthOption func(*accessTokenAuthenticator)

// WithRequiredScopes sets the scopes checked when CheckAuthentication is
// called without any. At least one must appear in the token's "aud" claim.
func WithRequiredScopes(scopes ...string) AccessTokenAuthOption {
	return func(a *accessTokenAuthenticator) {
		a.defaultScopes = append([]string(nil), scopes...)
	}
}

// NewAccessTokenAuthenticator returns an Authenticator that validates RFC 9068
// JWT access tokens against policy. The policy is validated up front.
func NewAccessTokenAuthenticator(policy *accesstoken.Policy, opts ...AccessTokenAuthOption) (Authenticator, error) {
	if policy == nil {
		return nil, errors.New("auth: policy is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	a := &accessTokenAuthenticator{policy: policy}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type accessTokenAuthenticator struct {
	policy        *accesstoken.Policy
	defaultScopes []string
}

func (a *accessTokenAuthenticator) CheckAuthentication(ctx context.Context, raw string, scopes ...string) (UserInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		scopes = a.defaultScopes
	}
	tok := a.policy.BuildAccessToken(raw)
	if !tok.IsAccessible() {
		return nil, InvalidTokenError(tok.InvalidReason())
	}
	if !tok.IsAcceptable(scopes) {
		return nil, ForbiddenTokenError(tok.ForbiddenReason(), scopes)
	}
	return &tokenUserInfo{header: tok.Header(), claims: tok.Payload()}, nil
}

type tokenUserInfo struct {
	header map[string]any
	claims map[string]any
}

func (u *tokenUserInfo) UserID() string {
	sub, _ := u.claims["sub"].(string)
	return sub
}

func (u *tokenUserInfo) Claims(ref any) error {
	b, err := json.Marshal(u.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}

func (u *tokenUserInfo) Header() map[string]any { return u.header }
