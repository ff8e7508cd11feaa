// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the verifier configuration from a JSON or YAML file,
// validates it against an embedded JSON schema and applies environment
// overrides.
package config

import (
	"crypto/x509"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509ocsp "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/ocsp"
	x509store "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/logger"
)

const (
	// EnvConfigFile names the configuration file when no path is given.
	EnvConfigFile = "X509_VERIFIER_CONFIG_FILE"
	// EnvOCSPCache overrides ocsp.cacheDir.
	EnvOCSPCache = "X509_VERIFIER_OCSP_CACHE"

	defaultTimeoutSeconds = 10
	defaultMaxHops        = 10
)

//go:embed schema.json
var schema string

// Schema returns the JSON schema configuration documents are validated against.
func Schema() string { return schema }

// ErrInvalidConfig is returned when a configuration document violates the schema.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// Config is the verifier configuration.
type Config struct {
	// Trust: Where trust anchors and revocation lists come from
	Trust struct {
		// SystemRoots: Trust the platform CA bundle, see SSL_CERT_FILE and SSL_CERT_DIR
		SystemRoots bool `json:"systemRoots" yaml:"systemRoots"`
		// RootFiles: PEM, DER or PKCS#7 files of trusted roots
		RootFiles []string `json:"rootFiles,omitempty" yaml:"rootFiles,omitempty"`
		// RootDirs: Directories of password-less PKCS#12 files with trusted roots
		RootDirs []string `json:"rootDirs,omitempty" yaml:"rootDirs,omitempty"`
		// CRLFiles: PEM or DER revocation lists
		CRLFiles []string `json:"crlFiles,omitempty" yaml:"crlFiles,omitempty"`
		// RevocationFlag: CRL scope; empty disables CRL checking
		RevocationFlag string `json:"revocationFlag,omitempty" yaml:"revocationFlag,omitempty"`
	} `json:"trust" yaml:"trust"`

	// Verify: Path validation parameters
	Verify struct {
		// MaxDepth: Maximum number of intermediates
		MaxDepth int `json:"maxDepth" yaml:"maxDepth"`
		// KeyUsages: Required extended key usages of the leaf
		KeyUsages []string `json:"keyUsages,omitempty" yaml:"keyUsages,omitempty"`
	} `json:"verify" yaml:"verify"`

	// OCSP: Response cache settings
	OCSP struct {
		// CacheDir: Cache directory, overridden by X509_VERIFIER_OCSP_CACHE
		CacheDir string `json:"cacheDir" yaml:"cacheDir"`
		// DefaultLifetimeSeconds: Lifetime of responses without nextUpdate
		DefaultLifetimeSeconds int `json:"defaultLifetimeSeconds" yaml:"defaultLifetimeSeconds"`
		// SkewSeconds: Tolerated responder clock skew
		SkewSeconds int `json:"skewSeconds" yaml:"skewSeconds"`
		// MemoryEntries: Size of the in-memory front cache
		MemoryEntries int `json:"memoryEntries" yaml:"memoryEntries"`
		// Query: Ask OCSP responders over the network on cache misses
		Query bool `json:"query" yaml:"query"`
	} `json:"ocsp" yaml:"ocsp"`

	// Network: HTTP behavior of issuer and OCSP downloads
	Network struct {
		// TimeoutSeconds: Per request timeout
		TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
		// UserAgent: Custom User-Agent, empty for the default
		UserAgent string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
		// FetchIssuers: Download missing issuers through AIA
		FetchIssuers bool `json:"fetchIssuers" yaml:"fetchIssuers"`
		// MaxHops: Limit on AIA downloads per certificate
		MaxHops int `json:"maxHops" yaml:"maxHops"`
	} `json:"network" yaml:"network"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.Trust.SystemRoots = true
	c.Verify.MaxDepth = 100
	c.OCSP.CacheDir = defaultCacheDir()
	c.OCSP.DefaultLifetimeSeconds = int(x509ocsp.DefaultLifetime / time.Second)
	c.OCSP.SkewSeconds = int(x509ocsp.DefaultSkew / time.Second)
	c.OCSP.MemoryEntries = x509ocsp.DefaultMemoryEntries
	c.OCSP.Query = true
	c.Network.TimeoutSeconds = defaultTimeoutSeconds
	c.Network.FetchIssuers = true
	c.Network.MaxHops = defaultMaxHops
	return c
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "x509-chain-verifier", "ocsp")
}

// detectConfigFormat determines the configuration file format based on file extension.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// Load reads configuration from path, or from the file named by
// X509_VERIFIER_CONFIG_FILE when path is empty, over [Default].
//
// Configuration Priority:
//  1. Default values are set
//  2. Config file values override defaults (if a file is named)
//  3. X509_VERIFIER_OCSP_CACHE overrides the cache directory
//
// Parameters:
//   - path: Configuration file (.json, .yaml or .yml), optional
//
// Returns:
//   - *Config: The effective configuration
//   - error: Read, parse or schema validation errors
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	if path != "" {
		data, err := gc.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data, detectConfigFormat(path)); err != nil {
			return nil, err
		}
	}

	if dir := os.Getenv(EnvOCSPCache); dir != "" {
		cfg.OCSP.CacheDir = dir
	}

	cfg.normalize()
	return cfg, nil
}

// decode validates data against the schema and merges it into c.
func (c *Config) decode(data []byte, format configFormat) error {
	var doc any
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	if doc == nil {
		return nil
	}

	if err := validate(gojsonschema.NewGoLoader(doc)); err != nil {
		return err
	}

	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

func validate(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// normalize replaces zero values that have no meaning with defaults.
func (c *Config) normalize() {
	d := Default()
	if c.Verify.MaxDepth <= 0 {
		c.Verify.MaxDepth = d.Verify.MaxDepth
	}
	if c.OCSP.CacheDir == "" {
		c.OCSP.CacheDir = d.OCSP.CacheDir
	}
	if c.OCSP.DefaultLifetimeSeconds <= 0 {
		c.OCSP.DefaultLifetimeSeconds = d.OCSP.DefaultLifetimeSeconds
	}
	if c.Network.TimeoutSeconds <= 0 {
		c.Network.TimeoutSeconds = d.Network.TimeoutSeconds
	}
	if c.Network.MaxHops <= 0 {
		c.Network.MaxHops = d.Network.MaxHops
	}
}

// Timeout returns the network timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

var keyUsages = map[string]x509.ExtKeyUsage{
	"any":             x509.ExtKeyUsageAny,
	"serverAuth":      x509.ExtKeyUsageServerAuth,
	"clientAuth":      x509.ExtKeyUsageClientAuth,
	"codeSigning":     x509.ExtKeyUsageCodeSigning,
	"emailProtection": x509.ExtKeyUsageEmailProtection,
	"timeStamping":    x509.ExtKeyUsageTimeStamping,
	"ocspSigning":     x509.ExtKeyUsageOCSPSigning,
}

// ExtKeyUsages converts names such as "serverAuth" to extended key usages.
func ExtKeyUsages(names []string) ([]x509.ExtKeyUsage, error) {
	out := make([]x509.ExtKeyUsage, 0, len(names))
	for _, n := range names {
		u, ok := keyUsages[n]
		if !ok {
			return nil, fmt.Errorf("%w: unknown key usage %q", ErrInvalidConfig, n)
		}
		out = append(out, u)
	}
	return out, nil
}

// CacheOptions returns the OCSP cache options this configuration selects.
func (c *Config) CacheOptions(log logger.Logger) []x509ocsp.Option {
	return []x509ocsp.Option{
		x509ocsp.WithDefaultLifetime(time.Duration(c.OCSP.DefaultLifetimeSeconds) * time.Second),
		x509ocsp.WithSkew(time.Duration(c.OCSP.SkewSeconds) * time.Second),
		x509ocsp.WithMemoryEntries(c.OCSP.MemoryEntries),
		x509ocsp.WithLogger(log),
	}
}

// LoadStore builds the trust store. The system source is the platform CA
// bundle (when trust.systemRoots is set) plus the root files; PKCS#12
// directories are the user source. CRL files are added and the revocation
// flag set when one is configured.
//
// A directory without usable archives is logged, not an error, and so is a
// platform without a CA bundle.
func (c *Config) LoadStore(log logger.Logger) (*x509store.Store, error) {
	log = logger.OrDiscard(log)
	decoder := x509certs.New()

	system := x509store.NewStack()
	if c.Trust.SystemRoots {
		roots := platformRoots(log)
		if len(roots) == 0 {
			log.Println("no platform CA bundle found, set SSL_CERT_FILE or SSL_CERT_DIR")
		}
		system.Push(roots...)
	}
	for _, path := range c.Trust.RootFiles {
		data, err := gc.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read root file: %w", err)
		}
		certs, err := decoder.DecodeMultiple(data)
		if err != nil {
			return nil, fmt.Errorf("config: decode root file %s: %w", path, err)
		}
		for _, cert := range certs {
			system.Push(cert)
		}
	}

	user := x509store.NewStack()
	for _, dir := range c.Trust.RootDirs {
		if n := x509store.AddDirectory(user, dir); n == 0 {
			log.Printf("no usable archives in %s", dir)
		}
	}

	store := x509store.New(system, user)
	for _, path := range c.Trust.CRLFiles {
		data, err := gc.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read CRL file: %w", err)
		}
		crl, err := decoder.DecodeCRL(data)
		if err != nil {
			return nil, fmt.Errorf("config: decode CRL file %s: %w", path, err)
		}
		if err := store.AddCRL(crl); err != nil {
			return nil, err
		}
	}

	if c.Trust.RevocationFlag != "" {
		flag, err := x509store.ParseRevocationFlag(c.Trust.RevocationFlag)
		if err != nil {
			return nil, err
		}
		if err := store.SetRevocationFlag(flag); err != nil {
			return nil, err
		}
	}
	return store, nil
}
