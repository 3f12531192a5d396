// Package jwtauth is the low-level JWT primitive used by the access token
// validator: it decodes compact tokens, verifies signatures for a
// caller-chosen algorithm and key, and evaluates individual registered claims.
//
// Nothing here decides whether a token is acceptable. Every helper answers a
// single question so the caller can order the checks itself.
package jwtauth

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed indicates the raw token is not a compact JWS with a JSON
// object header and payload.
var ErrMalformed = errors.New("jwtauth: malformed token")

// unverifiedParser decodes tokens without checking signatures or claims.
var unverifiedParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// maxNumericDate bounds the NumericDate values converted to time.Time. Larger
// magnitudes are compared as raw seconds so they cannot wrap.
const maxNumericDate = 1 << 53

// Decoded is the structural view of a compact JWT. Header and Claims are the
// decoded JSON objects; the signature has not been checked.
type Decoded struct {
	Header map[string]any
	Claims jwt.MapClaims

	signingInput string
	signature    []byte
}

// Decode parses raw without verifying it. Any structural problem is reported
// as ErrMalformed. An unknown "alg" is not structural; it only fails
// VerifySignature.
func Decode(raw string) (*Decoded, error) {
	claims := jwt.MapClaims{}
	tok, parts, err := unverifiedParser.ParseUnverified(raw, claims)
	if err != nil && (tok == nil || !errors.Is(err, jwt.ErrTokenUnverifiable)) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if tok.Header == nil {
		return nil, fmt.Errorf("%w: header is not a JSON object", ErrMalformed)
	}
	sig, err := unverifiedParser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrMalformed, err)
	}
	return &Decoded{
		Header:       tok.Header,
		Claims:       claims,
		signingInput: parts[0] + "." + parts[1],
		signature:    sig,
	}, nil
}

// HeaderString returns a string header parameter such as "typ" or "alg".
func (d *Decoded) HeaderString(name string) (string, bool) {
	s, ok := d.Header[name].(string)
	return s, ok
}

// VerifySignature reports whether the token carries a valid signature for
// alg under key. The header "alg" must name the same algorithm; a token
// signed with a different algorithm never verifies, even with the same key.
func (d *Decoded) VerifySignature(alg string, key any) bool {
	alg = CanonicalAlgorithm(alg)
	if !Supported(alg) {
		return false
	}
	if hdr, _ := d.HeaderString("alg"); CanonicalAlgorithm(hdr) != alg {
		return false
	}
	method := jwt.GetSigningMethod(alg)
	return method.Verify(d.signingInput, d.signature, verificationKey(key)) == nil
}

// HasClaim reports whether the payload contains name. A JSON null value still
// counts as present.
func (d *Decoded) HasClaim(name string) bool {
	_, ok := d.Claims[name]
	return ok
}

// StringClaim returns the claim value when it is a JSON string.
func (d *Decoded) StringClaim(name string) (string, bool) {
	s, ok := d.Claims[name].(string)
	return s, ok
}

// ExpiresValid reports whether now is at or before exp plus leeway, to the
// second. An absent "exp" passes; a non-numeric one fails.
func (d *Decoded) ExpiresValid(now time.Time, leeway time.Duration) bool {
	if !d.HasClaim("exp") {
		return true
	}
	if f, ok := d.Claims["exp"].(float64); ok && math.Abs(f) > maxNumericDate {
		return f > 0
	}
	exp, err := d.Claims.GetExpirationTime()
	if err != nil {
		return false
	}
	return now.Unix() <= numericTime(exp).Add(leeway.Truncate(time.Second)).Unix()
}

// NotBeforeValid reports whether now is at or after nbf minus leeway, to the
// second. An absent "nbf" passes; a non-numeric one fails.
func (d *Decoded) NotBeforeValid(now time.Time, leeway time.Duration) bool {
	if !d.HasClaim("nbf") {
		return true
	}
	if f, ok := d.Claims["nbf"].(float64); ok && math.Abs(f) > maxNumericDate {
		return f < 0
	}
	nbf, err := d.Claims.GetNotBefore()
	if err != nil {
		return false
	}
	return now.Unix() >= numericTime(nbf).Add(-leeway.Truncate(time.Second)).Unix()
}

// numericTime maps the nil golang-jwt returns for a zero NumericDate to the
// epoch.
func numericTime(nd *jwt.NumericDate) time.Time {
	if nd == nil {
		return time.Unix(0, 0)
	}
	return nd.Time
}

// StringIn reports whether the claim is a string contained in allowed.
func (d *Decoded) StringIn(name string, allowed []string) bool {
	s, ok := d.StringClaim(name)
	return ok && slices.Contains(allowed, s)
}

// AudienceIntersects reports whether any "aud" entry equals any of wants.
func (d *Decoded) AudienceIntersects(wants []string) bool {
	return audIntersects(d.Claims["aud"], wants)
}

func audIntersects(aud any, wants []string) bool {
	wantSet := map[string]struct{}{}
	for _, w := range wants {
		wantSet[w] = struct{}{}
	}
	switch v := aud.(type) {
	case string:
		_, ok := wantSet[v]
		return ok
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				if _, ok2 := wantSet[s]; ok2 {
					return true
				}
			}
		}
	case []string:
		for _, s := range v {
			if _, ok := wantSet[s]; ok {
				return true
			}
		}
	}
	return false
}
