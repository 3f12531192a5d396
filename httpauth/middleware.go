// Package httpauth protects net/http handlers with RFC 9068 access tokens.
//
// A Guard extracts the bearer token from the Authorization header (or the
// access_token query parameter), checks it with an auth.Authenticator and
// answers failures with the matching 401 or 403 challenge:
//
//	guard := httpauth.New(authn, httpauth.WithRealm("orders"))
//	mux.Handle("/orders", guard.Require("orders:read")(ordersHandler))
//
// Handlers behind the guard read the caller with UserInfoFromContext.
package httpauth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ggoodman/accesstoken-go/accesstoken"
	"github.com/ggoodman/accesstoken-go/auth"
	"github.com/ggoodman/accesstoken-go/internal/logctx"
)

const (
	authorizationHeader   = "Authorization"
	wwwAuthenticateHeader = "WWW-Authenticate"
	accessTokenParam      = "access_token"
)

var (
	jsonMediaType  = contenttype.NewMediaType("application/json")
	jsonMediaTypes = []contenttype.MediaType{jsonMediaType}

	errMissingToken    = errors.New("no access token")
	errMalformedHeader = errors.New("malformed bearer authorization header")
)

// Guard authenticates requests before they reach the wrapped handler.
type Guard struct {
	authn auth.Authenticator
	log   *slog.Logger
	cfg   *config
}

// New returns a Guard backed by authn.
func New(authn auth.Authenticator, opts ...Option) *Guard {
	cfg := newConfig(opts)
	if cfg.realm == "" {
		if sd, ok := authn.(auth.SecurityDescriptor); ok {
			cfg.realm = sd.SecurityConfig().Realm
		}
	}
	if cfg.realm == "" {
		cfg.realm = auth.DefaultRealm
	}
	return &Guard{
		authn: authn,
		log:   slog.New(logctx.Handler{Handler: cfg.logger.Handler()}),
		cfg:   cfg,
	}
}

// Middleware guards every request with the default scopes.
func Middleware(authn auth.Authenticator, opts ...Option) func(http.Handler) http.Handler {
	return New(authn, opts...).Require()
}

// Require returns middleware that admits requests whose token grants at
// least one of scopes. Without scopes the guard's default scopes apply.
func (g *Guard) Require(scopes ...string) func(http.Handler) http.Handler {
	if len(scopes) == 0 {
		scopes = g.cfg.defaultScopes
	}
	scopes = append([]string(nil), scopes...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ctx, ok := g.authenticate(w, r, scopes); ok {
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

func (g *Guard) authenticate(w http.ResponseWriter, r *http.Request, scopes []string) (context.Context, bool) {
	start := time.Now()
	ctx := logctx.WithRequestData(r.Context(), logctx.NewRequestData(r))
	ctx, span := g.cfg.tracer.Start(ctx, "accesstoken.authenticate",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
			attribute.StringSlice("accesstoken.scopes", scopes),
		),
	)
	defer span.End()

	finish := func(outcome, reason string) {
		span.SetAttributes(
			attribute.String("accesstoken.outcome", outcome),
			attribute.String("accesstoken.reason", reason),
		)
		g.cfg.metrics.observe(outcome, reason, time.Since(start))
	}

	tok, err := bearerToken(r)
	switch {
	case errors.Is(err, errMalformedHeader):
		g.log.InfoContext(ctx, "auth.check.invalid", slog.String("err", err.Error()))
		finish(OutcomeMalformed, auth.ErrorInvalidRequest)
		writeChallenge(w, r, auth.NewInvalidAuthorizationHeader(g.cfg.realm))
		return nil, false
	case err != nil:
		g.log.InfoContext(ctx, "auth.check.missing", slog.String("err", err.Error()))
		finish(OutcomeMissing, accesstoken.ReasonUnknown.String())
		writeChallenge(w, r, auth.NewInvalidTokenChallenge(g.cfg.realm, accesstoken.ReasonUnknown.Message()))
		return nil, false
	}

	ui, err := g.authn.CheckAuthentication(ctx, tok, scopes...)
	if err != nil {
		outcome, reason := classify(err)
		g.log.InfoContext(ctx, "auth.check.fail",
			slog.String("outcome", outcome),
			slog.String("reason", reason),
			slog.String("err", err.Error()),
		)
		finish(outcome, reason)
		writeChallenge(w, r, auth.ChallengeFor(err, g.cfg.realm))
		return nil, false
	}

	td := tokenData(ui)
	ctx = logctx.WithTokenData(ctx, td)
	ctx = context.WithValue(ctx, userInfoKey{}, ui)
	span.SetAttributes(attribute.String("accesstoken.sub", td.Subject))
	finish(OutcomeOK, "")
	g.log.InfoContext(ctx, "auth.check.ok", slog.Duration("dur", time.Since(start)))
	return ctx, true
}

func classify(err error) (outcome, reason string) {
	var te *auth.TokenError
	if errors.As(err, &te) {
		if te.Forbidden() {
			return OutcomeForbidden, te.Reason.String()
		}
		return OutcomeInvalid, te.Reason.String()
	}
	if errors.Is(err, auth.ErrInsufficientScope) {
		return OutcomeForbidden, accesstoken.ReasonInvalidAudClaim.String()
	}
	return OutcomeInvalid, accesstoken.ReasonUnknown.String()
}

func tokenData(ui auth.UserInfo) *logctx.TokenData {
	var c struct {
		JTI string `json:"jti"`
		Iss string `json:"iss"`
	}
	_ = ui.Claims(&c)
	return &logctx.TokenData{Subject: ui.UserID(), JTI: c.JTI, Issuer: c.Iss}
}

// bearerToken reads the token from "Authorization: Bearer" or, when that
// header is absent, from the access_token query parameter.
func bearerToken(r *http.Request) (string, error) {
	if h := r.Header.Get(authorizationHeader); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		tok = strings.TrimSpace(tok)
		if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" {
			return "", errMalformedHeader
		}
		return tok, nil
	}
	if tok := r.URL.Query().Get(accessTokenParam); tok != "" {
		return tok, nil
	}
	return "", errMissingToken
}

func writeChallenge(w http.ResponseWriter, r *http.Request, ch *auth.AuthenticationChallenge) {
	w.Header().Set("Cache-Control", "no-store")
	if ch.WWWAuthenticate != "" {
		w.Header().Set(wwwAuthenticateHeader, ch.WWWAuthenticate)
	}
	if _, _, err := contenttype.GetAcceptableMediaType(r, jsonMediaTypes); err != nil {
		w.WriteHeader(ch.Status)
		return
	}
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(ch.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             ch.Error,
		"error_description": ch.ErrorDescription,
	})
}

type userInfoKey struct{}

// UserInfoFromContext returns the principal stored by a Guard.
func UserInfoFromContext(ctx context.Context) (auth.UserInfo, bool) {
	ui, ok := ctx.Value(userInfoKey{}).(auth.UserInfo)
	return ui, ok
}
