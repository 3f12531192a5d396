package accesstoken

import "time"

// Option configures a Policy built by NewPolicy.
type Option func(*Policy)

// WithAlgorithm sets the JWS algorithm tokens must be signed with. "ED25519"
// is accepted as an alias for "EdDSA".
func WithAlgorithm(alg string) Option {
	return func(p *Policy) { p.Algorithm = alg }
}

// WithHeaderTypes replaces the accepted "typ" header values.
func WithHeaderTypes(types ...string) Option {
	return func(p *Policy) { p.HeaderTypes = append([]string(nil), types...) }
}

// WithExpRequired controls whether "exp" must be present.
func WithExpRequired(required bool) Option {
	return func(p *Policy) { p.Expiry.Required = required }
}

// WithExpiryLeeway forgives clock skew when checking "exp".
func WithExpiryLeeway(d time.Duration) Option {
	return func(p *Policy) { p.Expiry.Leeway = d }
}

// WithNbfRequired controls whether "nbf" must be present.
func WithNbfRequired(required bool) Option {
	return func(p *Policy) { p.NotBefore.Required = required }
}

// WithNotBeforeLeeway forgives clock skew when checking "nbf".
func WithNotBeforeLeeway(d time.Duration) Option {
	return func(p *Policy) { p.NotBefore.Leeway = d }
}

// WithNbfLeeway is an alias of WithNotBeforeLeeway.
func WithNbfLeeway(d time.Duration) Option {
	return WithNotBeforeLeeway(d)
}

// WithIssRequired controls whether "iss" must be present. A required issuer
// also needs WithIssuers.
func WithIssRequired(required bool) Option {
	return func(p *Policy) { p.Issuer.Required = required }
}

// WithIssuers restricts "iss" to the given values.
func WithIssuers(issuers ...string) Option {
	return func(p *Policy) { p.Issuer.Allowed = append([]string(nil), issuers...) }
}

// WithAudRequired controls whether "aud" must be present.
func WithAudRequired(required bool) Option {
	return func(p *Policy) { p.Audience.Required = required }
}

// WithJtiRequired controls whether "jti" must be present.
func WithJtiRequired(required bool) Option {
	return func(p *Policy) { p.JWTID.Required = required }
}

// WithJtiVerifier installs the revocation predicate consulted for "jti". It
// must return false for revoked or replayed identifiers.
func WithJtiVerifier(verify func(jti string) bool) Option {
	return func(p *Policy) { p.JWTID.Verify = verify }
}

// WithIatRequired controls whether "iat" must be present.
func WithIatRequired(required bool) Option {
	return func(p *Policy) { p.IssuedAt.Required = required }
}

// WithSubRequired controls whether "sub" must be present.
func WithSubRequired(required bool) Option {
	return func(p *Policy) { p.Subject.Required = required }
}

// WithSubjects restricts "sub" to the given values. The sub claim must stay
// required.
func WithSubjects(subjects ...string) Option {
	return func(p *Policy) { p.Subject.Allowed = append([]string(nil), subjects...) }
}

// WithClock overrides the time source used for "exp" and "nbf".
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.Clock = now }
}
