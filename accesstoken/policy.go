package accesstoken

import (
	"errors"
	"time"

	"github.com/ggoodman/accesstoken-go/internal/jwtauth"
)

// DefaultAlgorithm is the signing algorithm assumed when none is configured.
const DefaultAlgorithm = "RS256"

// RequiredHeaderTypes are the "typ" header values registered by RFC 9068 for
// JWT access tokens. Resource servers must reject any other value.
var RequiredHeaderTypes = []string{"at+jwt", "application/at+jwt"}

// Configuration errors returned by Policy.Validate, in the order they are
// checked.
var (
	ErrSecretKeyRequired    = errors.New("accesstoken: secret key is required")
	ErrAlgorithmRequired    = errors.New("accesstoken: algorithm is required")
	ErrHeaderTypesRequired  = errors.New("accesstoken: header types cannot be empty")
	ErrSubjectNotRequired   = errors.New("accesstoken: subject is set but the sub claim is not required")
	ErrIssuersRequired      = errors.New("accesstoken: issuers are required when the iss claim is required")
	ErrUnsupportedAlgorithm = errors.New("accesstoken: unsupported algorithm")
)

// TimeClaim configures a NumericDate claim ("exp", "nbf").
type TimeClaim struct {
	Required bool
	// Leeway forgives clock skew around the boundary. It is applied in whole
	// seconds.
	Leeway time.Duration
}

// ValueClaim configures a string claim restricted to a set of values ("iss",
// "sub"). An empty Allowed set accepts any value.
type ValueClaim struct {
	Required bool
	Allowed  []string
}

// PresenceClaim configures a claim that is only checked for presence ("aud",
// "iat"). Audience values are matched against scopes, not here.
type PresenceClaim struct {
	Required bool
}

// JTIClaim configures the "jti" claim. Verify is consulted for every token that
// carries a jti; returning false marks the token as revoked.
type JTIClaim struct {
	Required bool
	Verify   func(jti string) bool
}

// Policy describes how access tokens are validated: the key and algorithm used
// to verify signatures, the accepted "typ" header values and the rules for each
// registered claim.
//
// A Policy is built once, validated, and then only read. It is safe to share
// between goroutines as long as nobody mutates it after Validate.
type Policy struct {
	SecretKeyOrPublicKey any
	Algorithm            string
	HeaderTypes          []string

	Expiry    TimeClaim
	NotBefore TimeClaim
	Issuer    ValueClaim
	Audience  PresenceClaim
	JWTID     JTIClaim
	IssuedAt  PresenceClaim
	Subject   ValueClaim

	// Clock returns the current time used for "exp" and "nbf". Defaults to
	// time.Now.
	Clock func() time.Time
}

// DefaultPolicy returns a Policy with the RFC 9068 defaults and no key.
func DefaultPolicy() *Policy {
	return &Policy{
		Algorithm:   DefaultAlgorithm,
		HeaderTypes: append([]string(nil), RequiredHeaderTypes...),
		Expiry:      TimeClaim{Required: true},
		NotBefore:   TimeClaim{Required: false},
		Issuer:      ValueClaim{Required: false},
		Audience:    PresenceClaim{Required: true},
		JWTID:       JTIClaim{Required: true, Verify: acceptAnyJTI},
		IssuedAt:    PresenceClaim{Required: true},
		Subject:     ValueClaim{Required: true},
		Clock:       time.Now,
	}
}

func acceptAnyJTI(string) bool { return true }

// NewPolicy builds a validated Policy for key from the defaults and opts.
func NewPolicy(key any, opts ...Option) (*Policy, error) {
	p := DefaultPolicy()
	p.SecretKeyOrPublicKey = key
	for _, opt := range opts {
		opt(p)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate returns the first violated configuration invariant, or nil.
func (p *Policy) Validate() error {
	if !hasKey(p.SecretKeyOrPublicKey) {
		return ErrSecretKeyRequired
	}
	if p.Algorithm == "" {
		return ErrAlgorithmRequired
	}
	if len(p.HeaderTypes) == 0 {
		return ErrHeaderTypesRequired
	}
	if len(p.Subject.Allowed) > 0 && !p.Subject.Required {
		return ErrSubjectNotRequired
	}
	if p.Issuer.Required && len(p.Issuer.Allowed) == 0 {
		return ErrIssuersRequired
	}
	if !jwtauth.Supported(p.Algorithm) {
		return ErrUnsupportedAlgorithm
	}
	return nil
}

// BuildAccessToken binds raw to this policy.
func (p *Policy) BuildAccessToken(raw string) *Token {
	return New(raw, p)
}

func (p *Policy) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock()
}

func (p *Policy) verifyJTI(jti string) bool {
	if p.JWTID.Verify == nil {
		return true
	}
	return p.JWTID.Verify(jti)
}

func hasKey(key any) bool {
	switch k := key.(type) {
	case nil:
		return false
	case string:
		return k != ""
	case []byte:
		return len(k) > 0
	}
	return true
}
