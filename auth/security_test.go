package auth_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ggoodman/accesstoken-go/accesstoken"
	"github.com/ggoodman/accesstoken-go/auth"
	"github.com/ggoodman/accesstoken-go/auth/authtest"
)

func TestDefaultSecurityConfig(t *testing.T) {
	c := auth.DefaultSecurityConfig()
	if c.Algorithm != "RS256" || !reflect.DeepEqual(c.HeaderTypes, []string{"at+jwt", "application/at+jwt"}) {
		t.Fatalf("defaults = %+v", c)
	}
	if !c.RequireExp || c.RequireNbf || c.RequireIss || !c.RequireAud || !c.RequireJti || !c.RequireIat || !c.RequireSub {
		t.Fatalf("claim requirements = %+v", c)
	}
	if c.Realm != auth.DefaultRealm {
		t.Fatalf("Realm = %q, want %q", c.Realm, auth.DefaultRealm)
	}
}

func TestSecurityConfigFromEnv(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_ALGORITHM", "HS512")
	t.Setenv("ACCESS_TOKEN_KEY", "my$ecretK3y")
	t.Setenv("ACCESS_TOKEN_REQUIRE_ISS", "true")
	t.Setenv("ACCESS_TOKEN_ISSUERS", "https://a.example;https://b.example")
	t.Setenv("ACCESS_TOKEN_REQUIRE_JTI", "false")
	t.Setenv("ACCESS_TOKEN_EXPIRY_LEEWAY", "30s")
	t.Setenv("ACCESS_TOKEN_NBF_LEEWAY", "10s")
	t.Setenv("ACCESS_TOKEN_REALM", "orders")

	c, err := auth.SecurityConfigFromEnv()
	if err != nil {
		t.Fatalf("SecurityConfigFromEnv: %v", err)
	}
	if c.Algorithm != "HS512" || c.Key != "my$ecretK3y" || c.Realm != "orders" {
		t.Fatalf("config = %+v", c)
	}
	if !c.RequireIss || !reflect.DeepEqual(c.Issuers, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("issuers = %v (required %v)", c.Issuers, c.RequireIss)
	}
	if c.RequireJti || !c.RequireExp || !c.RequireSub {
		t.Fatalf("requirements = %+v", c)
	}
	if c.ExpiryLeeway != 30*time.Second || c.NotBeforeLeeway != 10*time.Second {
		t.Fatalf("leeways = %v / %v", c.ExpiryLeeway, c.NotBeforeLeeway)
	}

	p, err := c.Policy()
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	if p.Algorithm != "HS512" || p.JWTID.Required || p.NotBefore.Leeway != 10*time.Second {
		t.Fatalf("policy = %+v", p)
	}
}

func TestLoadSecurityConfig(t *testing.T) {
	kp := authtest.NewKeyPair(t, "EdDSA")
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "issuer.pem")
	if err := os.WriteFile(keyPath, kp.Material(t), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	cfgPath := filepath.Join(dir, "policy.yaml")
	yaml := "algorithm: ED25519\n" +
		"key_file: " + keyPath + "\n" +
		"require_nbf: true\n" +
		"not_before_leeway: 5s\n" +
		"subjects: [PadlockAuth]\n" +
		"realm: api\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := auth.LoadSecurityConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadSecurityConfig: %v", err)
	}
	if !c.RequireNbf || c.NotBeforeLeeway != 5*time.Second || !c.RequireSub || !c.RequireAud {
		t.Fatalf("config = %+v", c)
	}

	authn, err := c.NewAuthenticator()
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	if authn.SecurityConfig().Realm != "api" {
		t.Fatalf("SecurityConfig() = %+v", authn.SecurityConfig())
	}
	now := time.Now()
	ok := authtest.Mint(t, kp, authtest.Claims(now, jwt.MapClaims{"nbf": now.Unix(), "sub": "PadlockAuth"}))
	if _, err := authn.CheckAuthentication(context.Background(), ok); err != nil {
		t.Fatalf("CheckAuthentication: %v", err)
	}
	wrongSub := authtest.Mint(t, kp, authtest.Claims(now, jwt.MapClaims{"nbf": now.Unix(), "sub": "Invalid"}))
	if _, err := authn.CheckAuthentication(context.Background(), wrongSub); !errors.Is(err, auth.ErrSubjectMismatch) {
		t.Fatalf("err = %v, want ErrSubjectMismatch", err)
	}
}

func TestLoadSecurityConfig_Errors(t *testing.T) {
	if _, err := auth.LoadSecurityConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("require_exp: [not, a, bool]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := auth.LoadSecurityConfig(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSecurityConfig_Policy_Errors(t *testing.T) {
	c := auth.DefaultSecurityConfig()
	if _, err := c.Policy(); !errors.Is(err, accesstoken.ErrSecretKeyRequired) {
		t.Fatalf("err = %v, want ErrSecretKeyRequired", err)
	}
	c.Algorithm = "HS256"
	c.Key = "secret"
	c.RequireIss = true
	if _, err := c.Policy(); !errors.Is(err, accesstoken.ErrIssuersRequired) {
		t.Fatalf("err = %v, want ErrIssuersRequired", err)
	}
	c.RequireIss = false
	c.RequireSub = false
	c.Subjects = []string{"x"}
	if _, err := c.Policy(); !errors.Is(err, accesstoken.ErrSubjectNotRequired) {
		t.Fatalf("err = %v, want ErrSubjectNotRequired", err)
	}
}

func TestSecurityConfig_PolicyExtraOptions(t *testing.T) {
	kp := authtest.NewKeyPair(t, "HS256")
	c := auth.DefaultSecurityConfig()
	c.Algorithm = "HS256"
	c.Key = string(kp.Material(t))
	authn, err := c.NewAuthenticator(accesstoken.WithJtiVerifier(func(jti string) bool { return jti != "revoked" }))
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	tok := authtest.MintAccessToken(t, kp, jwt.MapClaims{"jti": "revoked"})
	if _, err := authn.CheckAuthentication(context.Background(), tok); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
}

func TestSecurityConfig_CopyAndNormalize(t *testing.T) {
	c := auth.SecurityConfig{Issuers: []string{"a"}, NbfLeeway: 3 * time.Second}
	dup := c.Copy()
	dup.Issuers[0] = "b"
	if c.Issuers[0] != "a" {
		t.Fatalf("Copy must not alias slices")
	}
	c.Normalize()
	if c.Algorithm != "RS256" || len(c.HeaderTypes) != 2 || c.NotBeforeLeeway != 3*time.Second || c.Realm != auth.DefaultRealm {
		t.Fatalf("Normalize() = %+v", c)
	}
}

func TestSecurityConfig_KeyFileTrailingNewline(t *testing.T) {
	kp := authtest.KeyPair{Algorithm: "HS256", SigningKey: []byte("my$ecretK3y"), VerificationKey: []byte("my$ecretK3y")}
	tests := []struct {
		name string
		file string
	}{
		{name: "lf", file: "my$ecretK3y\n"},
		{name: "crlf", file: "my$ecretK3y\r\n"},
		{name: "none", file: "my$ecretK3y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "secret")
			if err := os.WriteFile(path, []byte(tt.file), 0o600); err != nil {
				t.Fatalf("write key: %v", err)
			}
			c := auth.DefaultSecurityConfig()
			c.Algorithm = "HS256"
			c.KeyFile = path
			material, err := c.KeyMaterial()
			if err != nil || string(material) != "my$ecretK3y" {
				t.Fatalf("KeyMaterial() = %q, %v", material, err)
			}
			authn, err := c.NewAuthenticator()
			if err != nil {
				t.Fatalf("NewAuthenticator: %v", err)
			}
			if _, err := authn.CheckAuthentication(context.Background(), authtest.MintAccessToken(t, kp, nil)); err != nil {
				t.Fatalf("CheckAuthentication: %v", err)
			}
		})
	}
}

func TestSecurityConfig_AliasSpellings(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "policy.yaml")
	yaml := "algorithm: HS256\n" +
		"secret_key: my$ecretK3y\n" +
		"subject: [PadlockAuth]\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	c, err := auth.LoadSecurityConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadSecurityConfig: %v", err)
	}
	if c.Key != "my$ecretK3y" || !reflect.DeepEqual(c.Subjects, []string{"PadlockAuth"}) {
		t.Fatalf("config = %+v", c)
	}

	t.Setenv("ACCESS_TOKEN_ALGORITHM", "HS256")
	t.Setenv("ACCESS_TOKEN_SECRET_KEY", "from-env")
	t.Setenv("ACCESS_TOKEN_SUBJECT", "a;b")
	c, err = auth.SecurityConfigFromEnv()
	if err != nil {
		t.Fatalf("SecurityConfigFromEnv: %v", err)
	}
	if c.Key != "from-env" || !reflect.DeepEqual(c.Subjects, []string{"a", "b"}) {
		t.Fatalf("config = %+v", c)
	}

	c = auth.SecurityConfig{Key: "primary", SecretKey: "alias", Subjects: []string{"x"}, Subject: []string{"y"}}
	c.Normalize()
	if c.Key != "primary" || !reflect.DeepEqual(c.Subjects, []string{"x"}) {
		t.Fatalf("primary spellings must win: %+v", c)
	}
}
