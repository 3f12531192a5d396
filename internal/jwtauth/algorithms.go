package jwtauth

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v5"
)

// CanonicalAlgorithm maps accepted algorithm spellings onto the JWS "alg"
// registry name. "ED25519" is the only alias.
func CanonicalAlgorithm(alg string) string {
	if strings.EqualFold(alg, "ed25519") {
		return jwt.SigningMethodEdDSA.Alg()
	}
	return alg
}

// Supported reports whether alg names a registered signing method other than
// "none".
func Supported(alg string) bool {
	alg = CanonicalAlgorithm(alg)
	if alg == "" || alg == jwt.SigningMethodNone.Alg() {
		return false
	}
	return jwt.GetSigningMethod(alg) != nil
}

// verificationKey reduces private keys to their public half and HMAC secrets
// given as strings to bytes, which is what the signing methods expect.
func verificationKey(key any) any {
	switch k := key.(type) {
	case string:
		return []byte(k)
	case *rsa.PrivateKey:
		return &k.PublicKey
	case *ecdsa.PrivateKey:
		return &k.PublicKey
	case ed25519.PrivateKey:
		return k.Public()
	case *secp256k1.PrivateKey:
		return k.PubKey()
	}
	return key
}
