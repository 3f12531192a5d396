package auth

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/ggoodman/accesstoken-go/accesstoken"
)

// SecurityConfig is the declarative form of an accesstoken.Policy. It can be
// read from the environment (ACCESS_TOKEN_* variables) or a YAML file and
// turned into a Policy or an Authenticator.
//
// List values in the environment are separated by semicolons, for example
// ACCESS_TOKEN_ISSUERS="https://a.example;https://b.example".
type SecurityConfig struct {
	Algorithm string `env:"ACCESS_TOKEN_ALGORITHM,default=RS256" yaml:"algorithm"`
	// Key holds inline key material. KeyFile is read when Key is empty.
	Key string `env:"ACCESS_TOKEN_KEY" yaml:"key"`
	// SecretKey is an alias of Key, used only when Key is empty.
	SecretKey   string   `env:"ACCESS_TOKEN_SECRET_KEY" yaml:"secret_key"`
	KeyFile     string   `env:"ACCESS_TOKEN_KEY_FILE" yaml:"key_file"`
	HeaderTypes []string `env:"ACCESS_TOKEN_HEADER_TYPES" yaml:"header_types"`

	RequireExp      bool          `env:"ACCESS_TOKEN_REQUIRE_EXP,default=true" yaml:"require_exp"`
	ExpiryLeeway    time.Duration `env:"ACCESS_TOKEN_EXPIRY_LEEWAY" yaml:"expiry_leeway"`
	RequireNbf      bool          `env:"ACCESS_TOKEN_REQUIRE_NBF,default=false" yaml:"require_nbf"`
	NotBeforeLeeway time.Duration `env:"ACCESS_TOKEN_NOT_BEFORE_LEEWAY" yaml:"not_before_leeway"`
	// NbfLeeway is an alias of NotBeforeLeeway, used only when the latter is zero.
	NbfLeeway time.Duration `env:"ACCESS_TOKEN_NBF_LEEWAY" yaml:"nbf_leeway"`

	RequireIss bool     `env:"ACCESS_TOKEN_REQUIRE_ISS,default=false" yaml:"require_iss"`
	Issuers    []string `env:"ACCESS_TOKEN_ISSUERS" yaml:"issuers"`
	RequireAud bool     `env:"ACCESS_TOKEN_REQUIRE_AUD,default=true" yaml:"require_aud"`
	RequireJti bool     `env:"ACCESS_TOKEN_REQUIRE_JTI,default=true" yaml:"require_jti"`
	RequireIat bool     `env:"ACCESS_TOKEN_REQUIRE_IAT,default=true" yaml:"require_iat"`
	RequireSub bool     `env:"ACCESS_TOKEN_REQUIRE_SUB,default=true" yaml:"require_sub"`
	Subjects   []string `env:"ACCESS_TOKEN_SUBJECTS" yaml:"subjects"`
	// Subject is an alias of Subjects, used only when Subjects is empty.
	Subject []string `env:"ACCESS_TOKEN_SUBJECT" yaml:"subject"`

	// Realm is advertised in WWW-Authenticate challenges.
	Realm string `env:"ACCESS_TOKEN_REALM,default=AccessToken" yaml:"realm"`
}

// DefaultSecurityConfig returns the RFC 9068 defaults with no key.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		Algorithm:   accesstoken.DefaultAlgorithm,
		HeaderTypes: append([]string(nil), accesstoken.RequiredHeaderTypes...),
		RequireExp:  true,
		RequireAud:  true,
		RequireJti:  true,
		RequireIat:  true,
		RequireSub:  true,
		Realm:       DefaultRealm,
	}
}

// SecurityConfigFromEnv reads ACCESS_TOKEN_* variables over the defaults.
func SecurityConfigFromEnv() (SecurityConfig, error) {
	cfg := DefaultSecurityConfig()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return SecurityConfig{}, fmt.Errorf("security: env: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// LoadSecurityConfig reads a YAML file over the defaults. A relative KeyFile
// is resolved by the process working directory.
func LoadSecurityConfig(path string) (SecurityConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SecurityConfig{}, fmt.Errorf("security: %w", err)
	}
	cfg := DefaultSecurityConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return SecurityConfig{}, fmt.Errorf("security: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize fills defaults without mutating caller copies elsewhere.
func (c *SecurityConfig) Normalize() {
	if c.Algorithm == "" {
		c.Algorithm = accesstoken.DefaultAlgorithm
	}
	if len(c.HeaderTypes) == 0 {
		c.HeaderTypes = append([]string(nil), accesstoken.RequiredHeaderTypes...)
	}
	if c.Realm == "" {
		c.Realm = DefaultRealm
	}
	if c.NotBeforeLeeway == 0 {
		c.NotBeforeLeeway = c.NbfLeeway
	}
	if c.Key == "" {
		c.Key = c.SecretKey
	}
	if len(c.Subjects) == 0 {
		c.Subjects = append([]string(nil), c.Subject...)
	}
}

// Copy returns a deep copy safe for mutation by the caller.
func (c SecurityConfig) Copy() SecurityConfig {
	dup := c
	dup.HeaderTypes = append([]string(nil), c.HeaderTypes...)
	dup.Issuers = append([]string(nil), c.Issuers...)
	dup.Subjects = append([]string(nil), c.Subjects...)
	dup.Subject = append([]string(nil), c.Subject...)
	return dup
}

// KeyMaterial returns Key (or SecretKey), or the contents of KeyFile when
// both are empty. A trailing line ending in the file is dropped.
func (c SecurityConfig) KeyMaterial() ([]byte, error) {
	if c.Key != "" {
		return []byte(c.Key), nil
	}
	if c.SecretKey != "" {
		return []byte(c.SecretKey), nil
	}
	if c.KeyFile == "" {
		return nil, accesstoken.ErrSecretKeyRequired
	}
	b, err := os.ReadFile(c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("security: key file: %w", err)
	}
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r")), nil
}

// Policy builds and validates the accesstoken.Policy described by c. Extra
// options are applied last, which is how a jti verifier is installed.
func (c SecurityConfig) Policy(extra ...accesstoken.Option) (*accesstoken.Policy, error) {
	cc := c.Copy()
	cc.Normalize()
	material, err := cc.KeyMaterial()
	if err != nil {
		return nil, err
	}
	key, err := ParseKey(cc.Algorithm, material)
	if err != nil {
		return nil, err
	}
	opts := []accesstoken.Option{
		accesstoken.WithAlgorithm(cc.Algorithm),
		accesstoken.WithHeaderTypes(cc.HeaderTypes...),
		accesstoken.WithExpRequired(cc.RequireExp),
		accesstoken.WithExpiryLeeway(cc.ExpiryLeeway),
		accesstoken.WithNbfRequired(cc.RequireNbf),
		accesstoken.WithNotBeforeLeeway(cc.NotBeforeLeeway),
		accesstoken.WithIssRequired(cc.RequireIss),
		accesstoken.WithIssuers(cc.Issuers...),
		accesstoken.WithAudRequired(cc.RequireAud),
		accesstoken.WithJtiRequired(cc.RequireJti),
		accesstoken.WithIatRequired(cc.RequireIat),
		accesstoken.WithSubRequired(cc.RequireSub),
		accesstoken.WithSubjects(cc.Subjects...),
	}
	return accesstoken.NewPolicy(key, append(opts, extra...)...)
}

// NewAuthenticator builds the Policy and wraps it in an access token
// authenticator that also describes this configuration.
func (c SecurityConfig) NewAuthenticator(extra ...accesstoken.Option) (SecurityProvider, error) {
	policy, err := c.Policy(extra...)
	if err != nil {
		return nil, err
	}
	a, err := NewAccessTokenAuthenticator(policy)
	if err != nil {
		return nil, err
	}
	cc := c.Copy()
	cc.Normalize()
	return &provider{Authenticator: a, sec: cc}, nil
}

// SecurityDescriptor exposes security configuration for transports to advertise.
type SecurityDescriptor interface{ SecurityConfig() SecurityConfig }

// SecurityProvider combines validation + descriptor. Returned by constructors.
type SecurityProvider interface {
	Authenticator
	SecurityDescriptor
}

type provider struct {
	Authenticator
	sec SecurityConfig
}

func (p *provider) SecurityConfig() SecurityConfig { return p.sec.Copy() }
