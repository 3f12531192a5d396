package jwtauth

import (
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/golang-jwt/jwt/v5"
)

// SigningMethodSecp256k1 implements ES256K (RFC 8812): ECDSA over secp256k1
// with SHA-256 and a fixed-width R||S signature.
type SigningMethodSecp256k1 struct{}

// SigningMethodES256K is registered with golang-jwt under "ES256K".
var SigningMethodES256K = &SigningMethodSecp256k1{}

const secp256k1ScalarSize = 32

func init() {
	jwt.RegisterSigningMethod(SigningMethodES256K.Alg(), func() jwt.SigningMethod {
		return SigningMethodES256K
	})
}

func (m *SigningMethodSecp256k1) Alg() string { return "ES256K" }

// Verify accepts a *secp256k1.PublicKey or *secp256k1.PrivateKey.
func (m *SigningMethodSecp256k1) Verify(signingString string, sig []byte, key any) error {
	var pub *secp256k1.PublicKey
	switch k := key.(type) {
	case *secp256k1.PublicKey:
		pub = k
	case *secp256k1.PrivateKey:
		pub = k.PubKey()
	default:
		return jwt.ErrInvalidKeyType
	}
	if len(sig) != 2*secp256k1ScalarSize {
		return jwt.ErrTokenSignatureInvalid
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:secp256k1ScalarSize]); overflow {
		return jwt.ErrTokenSignatureInvalid
	}
	if overflow := s.SetByteSlice(sig[secp256k1ScalarSize:]); overflow {
		return jwt.ErrTokenSignatureInvalid
	}

	digest := sha256.Sum256([]byte(signingString))
	if !secpecdsa.NewSignature(&r, &s).Verify(digest[:], pub) {
		return jwt.ErrTokenSignatureInvalid
	}
	return nil
}

// Sign requires a *secp256k1.PrivateKey.
func (m *SigningMethodSecp256k1) Sign(signingString string, key any) ([]byte, error) {
	priv, ok := key.(*secp256k1.PrivateKey)
	if !ok {
		return nil, jwt.ErrInvalidKeyType
	}
	digest := sha256.Sum256([]byte(signingString))
	// Compact form is recovery byte followed by R and S.
	compact := secpecdsa.SignCompact(priv, digest[:], false)
	return compact[1:], nil
}
