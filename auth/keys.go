package auth

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ggoodman/accesstoken-go/internal/jwtauth"
)

// ErrKeyMaterial indicates key material could not be parsed for the algorithm.
var ErrKeyMaterial = errors.New("auth: unusable key material")

// ParseKey turns key material into a verification key for alg.
//
// Accepted forms:
//   - a JSON Web Key (any algorithm go-jose understands)
//   - the raw shared secret for HS256/384/512
//   - PEM public or private keys for RS*, PS*, ES256/384/512 and EdDSA
//   - a hex SEC1 public key (33 or 65 bytes) or 32-byte private scalar for ES256K
func ParseKey(alg string, material []byte) (any, error) {
	alg = jwtauth.CanonicalAlgorithm(alg)
	trimmed := bytes.TrimSpace(material)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrKeyMaterial)
	}
	if trimmed[0] == '{' {
		return parseJWK(trimmed)
	}

	switch {
	case strings.HasPrefix(alg, "HS"):
		return append([]byte(nil), material...), nil
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		if k, err := jwt.ParseRSAPublicKeyFromPEM(trimmed); err == nil {
			return k, nil
		}
		k, err := jwt.ParseRSAPrivateKeyFromPEM(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrKeyMaterial, alg, err)
		}
		return k, nil
	case alg == "ES256K":
		return parseSecp256k1(trimmed)
	case strings.HasPrefix(alg, "ES"):
		if k, err := jwt.ParseECPublicKeyFromPEM(trimmed); err == nil {
			return k, nil
		}
		k, err := jwt.ParseECPrivateKeyFromPEM(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrKeyMaterial, alg, err)
		}
		return k, nil
	case alg == "EdDSA":
		if k, err := jwt.ParseEdPublicKeyFromPEM(trimmed); err == nil {
			return k, nil
		}
		k, err := jwt.ParseEdPrivateKeyFromPEM(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrKeyMaterial, alg, err)
		}
		return k, nil
	}
	return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrKeyMaterial, alg)
}

func parseJWK(b []byte) (any, error) {
	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("%w: jwk: %v", ErrKeyMaterial, err)
	}
	if jwk.Key == nil {
		return nil, fmt.Errorf("%w: jwk: no key", ErrKeyMaterial)
	}
	return jwk.Key, nil
}

func parseSecp256k1(b []byte) (any, error) {
	raw, err := hex.DecodeString(string(b))
	if err != nil {
		return nil, fmt.Errorf("%w: ES256K: %v", ErrKeyMaterial, err)
	}
	if len(raw) == secp256k1.PrivKeyBytesLen {
		return secp256k1.PrivKeyFromBytes(raw), nil
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: ES256K: %v", ErrKeyMaterial, err)
	}
	return pub, nil
}
