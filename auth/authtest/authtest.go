// Package authtest provides helpers for testing code that validates access
// tokens: key pairs for every supported algorithm, token minting with RFC 9068
// defaults, and an Authenticator that accepts everything.
package authtest

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ggoodman/accesstoken-go/auth"
	"github.com/ggoodman/accesstoken-go/internal/jwtauth"
)

// Defaults used by Claims.
const (
	DefaultAudience = "resource"
	DefaultSubject  = "test-user"
	DefaultIssuer   = "https://issuer.test"
)

// Omit removes a default claim when used as a value in Claims overrides.
var Omit = omit{}

type omit struct{}

// KeyPair holds the signing and verification halves for one algorithm.
type KeyPair struct {
	Algorithm       string
	SigningKey      any
	VerificationKey any
}

// NewKeyPair generates a fresh key pair for alg. HMAC algorithms use a random
// hex secret for both halves.
func NewKeyPair(t testing.TB, alg string) KeyPair {
	t.Helper()
	alg = jwtauth.CanonicalAlgorithm(alg)
	kp := KeyPair{Algorithm: alg}
	var err error
	switch alg {
	case "HS256", "HS384", "HS512":
		raw := make([]byte, 32)
		_, err = rand.Read(raw)
		secret := []byte(hex.EncodeToString(raw))
		kp.SigningKey, kp.VerificationKey = secret, secret
	case "RS256", "RS384", "RS512", "PS256", "PS384", "PS512":
		var k *rsa.PrivateKey
		k, err = rsa.GenerateKey(rand.Reader, 2048)
		if err == nil {
			kp.SigningKey, kp.VerificationKey = k, &k.PublicKey
		}
	case "ES256", "ES384", "ES512":
		curve := map[string]elliptic.Curve{"ES256": elliptic.P256(), "ES384": elliptic.P384(), "ES512": elliptic.P521()}[alg]
		var k *ecdsa.PrivateKey
		k, err = ecdsa.GenerateKey(curve, rand.Reader)
		if err == nil {
			kp.SigningKey, kp.VerificationKey = k, &k.PublicKey
		}
	case "ES256K":
		var k *secp256k1.PrivateKey
		k, err = secp256k1.GeneratePrivateKey()
		if err == nil {
			kp.SigningKey, kp.VerificationKey = k, k.PubKey()
		}
	case "EdDSA":
		var pub ed25519.PublicKey
		var priv ed25519.PrivateKey
		pub, priv, err = ed25519.GenerateKey(rand.Reader)
		kp.SigningKey, kp.VerificationKey = priv, pub
	default:
		t.Fatalf("authtest: unsupported algorithm %q", alg)
	}
	if err != nil {
		t.Fatalf("authtest: generate %s key: %v", alg, err)
	}
	return kp
}

// Material encodes the verification key the way auth.ParseKey reads it: the
// raw secret for HMAC, hex SEC1 for ES256K and a PKIX PEM block otherwise.
func (kp KeyPair) Material(t testing.TB) []byte {
	t.Helper()
	switch k := kp.VerificationKey.(type) {
	case []byte:
		return append([]byte(nil), k...)
	case *secp256k1.PublicKey:
		return []byte(hex.EncodeToString(k.SerializeCompressed()))
	}
	der, err := x509.MarshalPKIXPublicKey(kp.VerificationKey)
	if err != nil {
		t.Fatalf("authtest: marshal public key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

// JWK encodes the verification key as a JSON Web Key.
func (kp KeyPair) JWK(t testing.TB) []byte {
	t.Helper()
	b, err := jose.JSONWebKey{Key: kp.VerificationKey, Algorithm: kp.Algorithm, Use: "sig"}.MarshalJSON()
	if err != nil {
		t.Fatalf("authtest: marshal jwk: %v", err)
	}
	return b
}

// Claims returns a claim set that passes the default policy at now: exp one
// minute ahead, iat now, a fresh jti, DefaultAudience and DefaultSubject.
// Overrides replace defaults; an Omit value deletes the claim.
func Claims(now time.Time, overrides jwt.MapClaims) jwt.MapClaims {
	c := jwt.MapClaims{
		"exp": now.Add(time.Minute).Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
		"aud": DefaultAudience,
		"sub": DefaultSubject,
	}
	for k, v := range overrides {
		if v == Omit {
			delete(c, k)
			continue
		}
		c[k] = v
	}
	return c
}

// MintOption adjusts the token header before signing.
type MintOption func(*jwt.Token)

// WithHeader sets a header parameter. A value of Omit removes it.
func WithHeader(name string, value any) MintOption {
	return func(tok *jwt.Token) {
		if value == Omit {
			delete(tok.Header, name)
			return
		}
		tok.Header[name] = value
	}
}

// Mint signs claims with kp and a "typ" header of "at+jwt".
func Mint(t testing.TB, kp KeyPair, claims jwt.MapClaims, opts ...MintOption) string {
	t.Helper()
	method := jwt.GetSigningMethod(kp.Algorithm)
	if method == nil {
		t.Fatalf("authtest: no signing method for %q", kp.Algorithm)
	}
	tok := jwt.NewWithClaims(method, claims)
	tok.Header["typ"] = "at+jwt"
	for _, opt := range opts {
		opt(tok)
	}
	s, err := tok.SignedString(kp.SigningKey)
	if err != nil {
		t.Fatalf("authtest: sign: %v", err)
	}
	return s
}

// MintAccessToken mints a token from Claims(time.Now(), overrides).
func MintAccessToken(t testing.TB, kp KeyPair, overrides jwt.MapClaims, opts ...MintOption) string {
	t.Helper()
	return Mint(t, kp, Claims(time.Now(), overrides), opts...)
}

// NoAuth is a test authenticator that always returns authenticated
// Used for testing and development environments where authentication is not required
type NoAuth struct {
	UserID string
}

var _ auth.Authenticator = (*NoAuth)(nil)

// NewNoAuth creates a new NoAuth authenticator with the specified user ID
// If userID is empty, it defaults to DefaultSubject
func NewNoAuth(userID string) *NoAuth {
	if userID == "" {
		userID = DefaultSubject
	}
	return &NoAuth{UserID: userID}
}

// CheckAuthentication accepts any token for any scopes.
func (n *NoAuth) CheckAuthentication(ctx context.Context, tok string, scopes ...string) (auth.UserInfo, error) {
	return noAuthUserInfo{userID: n.UserID}, nil
}

type noAuthUserInfo struct {
	userID string
}

func (n noAuthUserInfo) UserID() string { return n.userID }

func (n noAuthUserInfo) Claims(ref any) error {
	return nil // No claims to unmarshal
}

func (n noAuthUserInfo) Header() map[string]any { return nil }
