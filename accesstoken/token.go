package accesstoken

import (
	"slices"

	"github.com/ggoodman/accesstoken-go/internal/jwtauth"
)

type check uint8

const (
	checkHeader check = iota
	checkSignature
	checkExp
	checkNbf
	checkIss
	checkJti
	checkSub
)

// Token validates one raw access token against a Policy.
//
// Results are computed on first use and cached for the lifetime of the Token,
// so repeated calls agree even if the clock moves on. A Token is not safe for
// concurrent use; build one per request.
type Token struct {
	raw    string
	policy *Policy

	decodeDone bool
	decoded    *jwtauth.Decoded

	memo map[check]bool
}

// New binds raw to policy. Nothing is decoded until a method needs it.
func New(raw string, policy *Policy) *Token {
	return &Token{raw: raw, policy: policy, memo: make(map[check]bool, 7)}
}

// Raw returns the token string as presented.
func (t *Token) Raw() string { return t.raw }

// IsAccessible reports whether the token is a valid JWT carrying every
// required claim, with acceptable exp, nbf, iss, jti and sub values.
func (t *Token) IsAccessible() bool {
	return t.validJWT() &&
		t.requiredClaimsPresent() &&
		t.is(checkExp, t.expValid) &&
		t.is(checkNbf, t.nbfValid) &&
		t.is(checkIss, t.issValid) &&
		t.is(checkJti, t.jtiValid) &&
		t.is(checkSub, t.subValid)
}

// InvalidReason returns the first failing check in RFC 9068 claim order, or
// ReasonUnknown when nothing failed.
func (t *Token) InvalidReason() Reason {
	if !t.validJWT() {
		if t.is(checkHeader, t.headerValid) {
			return ReasonInvalidSignature
		}
		return ReasonInvalidJWTToken
	}
	switch {
	case t.missing("exp", t.policy.Expiry.Required):
		return ReasonMissingExpClaim
	case !t.is(checkExp, t.expValid):
		return ReasonInvalidExpClaim
	case t.missing("nbf", t.policy.NotBefore.Required):
		return ReasonMissingNbfClaim
	case !t.is(checkNbf, t.nbfValid):
		return ReasonInvalidNbfClaim
	case t.missing("iss", t.policy.Issuer.Required):
		return ReasonMissingIssClaim
	case !t.is(checkIss, t.issValid):
		return ReasonInvalidIssClaim
	case t.missing("aud", t.policy.Audience.Required):
		return ReasonMissingAudClaim
	case t.missing("jti", t.policy.JWTID.Required):
		return ReasonMissingJtiClaim
	case !t.is(checkJti, t.jtiValid):
		return ReasonInvalidJtiClaim
	case t.missing("iat", t.policy.IssuedAt.Required):
		return ReasonMissingIatClaim
	case t.missing("sub", t.policy.Subject.Required):
		return ReasonMissingSubClaim
	case !t.is(checkSub, t.subValid):
		return ReasonInvalidSubClaim
	}
	return ReasonUnknown
}

// IncludesScope reports whether the token is a valid JWT whose "aud" overlaps
// scopes. Claim checks are not applied. An empty scopes list always matches.
func (t *Token) IncludesScope(scopes []string) bool {
	if !t.validJWT() {
		return false
	}
	if len(scopes) == 0 {
		return true
	}
	return t.decoded.AudienceIntersects(scopes)
}

// IsAcceptable reports whether the token is accessible and grants at least one
// of scopes.
func (t *Token) IsAcceptable(scopes []string) bool {
	return t.IsAccessible() && t.IncludesScope(scopes)
}

// ForbiddenReason returns ReasonInvalidJWTToken for inaccessible tokens and
// ReasonInvalidAudClaim otherwise.
func (t *Token) ForbiddenReason() Reason {
	if !t.IsAccessible() {
		return ReasonInvalidJWTToken
	}
	return ReasonInvalidAudClaim
}

// Header returns a deep copy of the JOSE header, or nil unless the token is
// a valid JWT.
func (t *Token) Header() map[string]any {
	if !t.validJWT() {
		return nil
	}
	return cloneObject(t.decoded.Header)
}

// Payload returns a deep copy of the claims, or nil unless the token is a
// valid JWT.
func (t *Token) Payload() map[string]any {
	if !t.validJWT() {
		return nil
	}
	return cloneObject(t.decoded.Claims)
}

func cloneObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies decoded JSON; only objects and arrays are mutable.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneObject(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

func (t *Token) decode() *jwtauth.Decoded {
	if !t.decodeDone {
		t.decodeDone = true
		t.decoded, _ = jwtauth.Decode(t.raw)
	}
	return t.decoded
}

func (t *Token) is(c check, fn func() bool) bool {
	if v, ok := t.memo[c]; ok {
		return v
	}
	v := fn()
	t.memo[c] = v
	return v
}

func (t *Token) validJWT() bool {
	return t.is(checkHeader, t.headerValid) && t.is(checkSignature, t.signatureValid)
}

func (t *Token) headerValid() bool {
	d := t.decode()
	if d == nil || len(d.Header) == 0 {
		return false
	}
	typ, ok := d.HeaderString("typ")
	return ok && slices.Contains(t.policy.HeaderTypes, typ)
}

func (t *Token) signatureValid() bool {
	d := t.decode()
	return d != nil && d.VerifySignature(t.policy.Algorithm, t.policy.SecretKeyOrPublicKey)
}

func (t *Token) present(claim string) bool {
	d := t.decode()
	return d != nil && d.HasClaim(claim)
}

func (t *Token) missing(claim string, required bool) bool {
	return required && !t.present(claim)
}

func (t *Token) requiredClaimsPresent() bool {
	p := t.policy
	return !t.missing("exp", p.Expiry.Required) &&
		!t.missing("nbf", p.NotBefore.Required) &&
		!t.missing("iss", p.Issuer.Required) &&
		!t.missing("aud", p.Audience.Required) &&
		!t.missing("jti", p.JWTID.Required) &&
		!t.missing("iat", p.IssuedAt.Required) &&
		!t.missing("sub", p.Subject.Required)
}

func (t *Token) expValid() bool {
	d := t.decode()
	return d != nil && d.ExpiresValid(t.policy.now(), t.policy.Expiry.Leeway)
}

func (t *Token) nbfValid() bool {
	d := t.decode()
	return d != nil && d.NotBeforeValid(t.policy.now(), t.policy.NotBefore.Leeway)
}

func (t *Token) issValid() bool {
	d := t.decode()
	if d == nil {
		return false
	}
	if len(t.policy.Issuer.Allowed) == 0 {
		return true
	}
	return d.StringIn("iss", t.policy.Issuer.Allowed)
}

func (t *Token) jtiValid() bool {
	d := t.decode()
	if d == nil {
		return false
	}
	if !d.HasClaim("jti") {
		return true
	}
	jti, ok := d.StringClaim("jti")
	return ok && t.policy.verifyJTI(jti)
}

func (t *Token) subValid() bool {
	d := t.decode()
	if d == nil {
		return false
	}
	if len(t.policy.Subject.Allowed) == 0 {
		return true
	}
	return d.StringIn("sub", t.policy.Subject.Allowed)
}
