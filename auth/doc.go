// Package auth adapts the accesstoken validator to request handling. An
// Authenticator validates an incoming bearer token string for a set of scopes
// and returns a UserInfo (or an error). Transports extract the token from the
// request and turn errors into challenges with ChallengeFor.
//
// # Access Token Authentication
//
// NewAccessTokenAuthenticator wraps an accesstoken.Policy. SecurityConfig is
// the declarative alternative, loaded from ACCESS_TOKEN_* environment
// variables or a YAML file:
//
//	cfg, err := auth.SecurityConfigFromEnv()
//	if err != nil { log.Fatal(err) }
//	authn, err := cfg.NewAuthenticator()
//	if err != nil { log.Fatal(err) }
//
//	// Later inside request handling:
//	ui, err := authn.CheckAuthentication(r.Context(), bearerToken, "orders")
//	if err != nil {
//	    ch := auth.ChallengeFor(err, cfg.Realm)
//	    // ch.Status, ch.WWWAuthenticate, ch.Error, ch.ErrorDescription
//	}
//	userID := ui.UserID()
//
// # Scopes
//
// Scopes are compared with the token's "aud" claim. Access is granted when
// any requested scope equals any audience entry. With no scopes the audience
// is not consulted.
//
// # Errors
//
// ErrUnauthorized signals the token is invalid (401). ErrInsufficientScope
// signals a valid token without a matching audience (403). Every failure is a
// *TokenError, which also matches a classified sentinel such as
// ErrTokenExpired or ErrTokenRevoked.
package auth
