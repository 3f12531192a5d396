package httpauth

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ggoodman/accesstoken-go/accesstoken"
	"github.com/ggoodman/accesstoken-go/auth"
	"github.com/ggoodman/accesstoken-go/auth/authtest"
)

type fixture struct {
	kp      authtest.KeyPair
	guard   *Guard
	metrics *Metrics
	spans   *tracetest.SpanRecorder
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	kp := authtest.NewKeyPair(t, "RS256")
	policy, err := accesstoken.NewPolicy(kp.VerificationKey)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	authn, err := auth.NewAccessTokenAuthenticator(policy)
	if err != nil {
		t.Fatalf("NewAccessTokenAuthenticator: %v", err)
	}
	f := &fixture{
		kp:      kp,
		metrics: NewMetrics(prometheus.NewRegistry()),
		spans:   tracetest.NewSpanRecorder(),
		logs:    &bytes.Buffer{},
	}
	base := []Option{
		WithRealm("api"),
		WithMetrics(f.metrics),
		WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(f.spans))),
		WithLogger(slog.New(slog.NewJSONHandler(f.logs, nil))),
	}
	f.guard = New(authn, append(base, opts...)...)
	return f
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ui, ok := UserInfoFromContext(r.Context())
		if !ok {
			t.Errorf("user info missing from context")
			return
		}
		_, _ = w.Write([]byte(ui.UserID()))
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestGuard_Success(t *testing.T) {
	f := newFixture(t)
	h := f.guard.Require(authtest.DefaultAudience)(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+authtest.MintAccessToken(t, f.kp, jwt.MapClaims{"sub": "user-7"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "user-7" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
	if got := testutil.ToFloat64(f.metrics.Validations.WithLabelValues(OutcomeOK, "")); got != 1 {
		t.Fatalf("ok counter = %v", got)
	}
	if !strings.Contains(f.logs.String(), `"msg":"auth.check.ok"`) || !strings.Contains(f.logs.String(), `"sub":"user-7"`) {
		t.Fatalf("logs = %s", f.logs.String())
	}
}

func TestGuard_QueryParameter(t *testing.T) {
	f := newFixture(t)
	h := f.guard.Require()(okHandler(t))
	req := httptest.NewRequest(http.MethodGet, "/orders?access_token="+authtest.MintAccessToken(t, f.kp, nil), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestGuard_Unauthorized(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantHeader string
		wantError  string
		wantDesc   string
		outcome    string
		reason     string
	}{
		{
			name:       "missing token",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantHeader: `Bearer realm="api", error="invalid_grant", error_description="The access token is invalid."`,
			wantError:  "invalid_grant",
			wantDesc:   "The access token is invalid.",
			outcome:    OutcomeMissing,
			reason:     "unknown",
		},
		{
			name:       "wrong scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
			wantStatus: http.StatusBadRequest,
			wantHeader: `Bearer realm="api", error="invalid_request", error_description="Invalid Authorization header"`,
			wantError:  "invalid_request",
			wantDesc:   "Invalid Authorization header",
			outcome:    OutcomeMalformed,
			reason:     "invalid_request",
		},
		{
			name:       "garbage token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") },
			wantStatus: http.StatusUnauthorized,
			wantHeader: `Bearer realm="api", error="invalid_grant", error_description="The access token is not a valid JWT."`,
			wantError:  "invalid_grant",
			wantDesc:   "The access token is not a valid JWT.",
			outcome:    OutcomeInvalid,
			reason:     "invalid_jwt_token",
		},
		{
			name: "missing jti",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+authtest.MintAccessToken(t, f.kp, jwt.MapClaims{"jti": authtest.Omit}))
			},
			wantStatus: http.StatusUnauthorized,
			wantHeader: `Bearer realm="api", error="invalid_grant", error_description="The access token is missing a required jti claim."`,
			wantError:  "invalid_grant",
			wantDesc:   "The access token is missing a required jti claim.",
			outcome:    OutcomeInvalid,
			reason:     "missing_jti_claim",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := f.guard.Require()(okHandler(t))
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			req.Header.Set("Accept", "application/json")
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != tt.wantHeader {
				t.Fatalf("WWW-Authenticate = %q, want %q", got, tt.wantHeader)
			}
			if rec.Header().Get("Cache-Control") != "no-store" {
				t.Fatalf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
			}
			body := decodeBody(t, rec)
			if body["error"] != tt.wantError || body["error_description"] != tt.wantDesc {
				t.Fatalf("body = %v", body)
			}
			if got := testutil.ToFloat64(f.metrics.Validations.WithLabelValues(tt.outcome, tt.reason)); got != 1 {
				t.Fatalf("counter{%s,%s} = %v", tt.outcome, tt.reason, got)
			}
		})
	}
}

func TestGuard_Forbidden(t *testing.T) {
	f := newFixture(t)
	h := f.guard.Require("write", "admin")(okHandler(t))
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+authtest.MintAccessToken(t, f.kp, jwt.MapClaims{"aud": []string{"read"}}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "" {
		t.Fatalf("403 responses carry no challenge header")
	}
	body := decodeBody(t, rec)
	if body["error"] != "invalid_scope" || body["error_description"] != `Access to this resource requires audience "write admin".` {
		t.Fatalf("body = %v", body)
	}
	if got := testutil.ToFloat64(f.metrics.Validations.WithLabelValues(OutcomeForbidden, "invalid_aud_claim")); got != 1 {
		t.Fatalf("forbidden counter = %v", got)
	}
}

func TestGuard_DefaultScopes(t *testing.T) {
	f := newFixture(t, WithDefaultScopes("orders"))
	h := f.guard.Require()(okHandler(t))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+authtest.MintAccessToken(t, f.kp, nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for default scope", rec.Code)
	}
}

func TestGuard_NoBodyWhenJSONNotAccepted(t *testing.T) {
	f := newFixture(t)
	h := f.guard.Require()(okHandler(t))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || rec.Body.Len() != 0 {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestGuard_Span(t *testing.T) {
	f := newFixture(t)
	h := f.guard.Require()(okHandler(t))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+authtest.MintAccessToken(t, f.kp, jwt.MapClaims{"exp": authtest.Omit}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	ended := f.spans.Ended()
	if len(ended) != 1 || ended[0].Name() != "accesstoken.authenticate" {
		t.Fatalf("spans = %v", ended)
	}
	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["accesstoken.outcome"] != OutcomeInvalid || attrs["accesstoken.reason"] != "missing_exp_claim" {
		t.Fatalf("attributes = %v", attrs)
	}
}

func TestMiddleware_RealmFromSecurityConfig(t *testing.T) {
	kp := authtest.NewKeyPair(t, "HS256")
	cfg := auth.DefaultSecurityConfig()
	cfg.Algorithm = "HS256"
	cfg.Key = string(kp.Material(t))
	cfg.Realm = "from-config"
	authn, err := cfg.NewAuthenticator()
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	h := Middleware(authn)(okHandler(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, `Bearer realm="from-config"`) {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
}

func TestMiddleware_DefaultRealm(t *testing.T) {
	kp := authtest.NewKeyPair(t, "HS256")
	policy, err := accesstoken.NewPolicy(kp.VerificationKey, accesstoken.WithAlgorithm("HS256"))
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	authn, err := auth.NewAccessTokenAuthenticator(policy)
	if err != nil {
		t.Fatalf("NewAccessTokenAuthenticator: %v", err)
	}
	h := Middleware(authn)(okHandler(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	want := `Bearer realm="AccessToken", error="invalid_grant", error_description="The access token is invalid."`
	if got := rec.Header().Get("WWW-Authenticate"); got != want {
		t.Fatalf("WWW-Authenticate = %q, want %q", got, want)
	}
}

func TestUserInfoFromContext_Absent(t *testing.T) {
	if _, ok := UserInfoFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()); ok {
		t.Fatalf("expected no user info")
	}
}
