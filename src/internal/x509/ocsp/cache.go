// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ocsp

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/logger"
)

const (
	// DefaultLifetime is how long a response without nextUpdate stays cached.
	DefaultLifetime = 10 * time.Minute
	// DefaultSkew is the clock tolerance applied to thisUpdate and nextUpdate.
	DefaultSkew = 5 * time.Minute
	// DefaultMemoryEntries is the size of the in-memory front cache.
	DefaultMemoryEntries = 256

	entryExt = ".ocsp"
)

// ErrEmptyCacheDir is returned by [NewCache] when no directory is given.
var ErrEmptyCacheDir = errors.New("x509ocsp: empty cache directory")

// Result classifies a cache lookup.
type Result int

const (
	// Miss means no usable entry exists.
	Miss Result = iota
	// Hit means a verified status is cached and still valid.
	Hit
	// Expired means an entry exists but its expiration has passed.
	Expired
)

func (r Result) String() string {
	switch r {
	case Hit:
		return "hit"
	case Expired:
		return "expired"
	default:
		return "miss"
	}
}

// Lookup is the outcome of [Cache.Lookup]. Status is StatusOK or
// StatusCertRevoked on a hit and StatusUnableToGetCRL otherwise.
type Lookup struct {
	Result  Result
	Status  x509chain.VerifyStatus
	Expires time.Time
}

// Entry is the persisted form of a verified response.
type Entry struct {
	Status     string     `json:"status"`
	Serial     string     `json:"serial"`
	ThisUpdate time.Time  `json:"thisUpdate"`
	NextUpdate *time.Time `json:"nextUpdate,omitempty"`
	Expires    time.Time  `json:"expires"`
	Response   []byte     `json:"response"`
}

// Cache stores verified OCSP statuses under a directory.
//
// Cache is safe for concurrent use by multiple goroutines, and several
// processes may share one directory.
type Cache struct {
	fs       afero.Fs
	dir      string
	now      func() time.Time
	lifetime time.Duration
	skew     time.Duration
	entries  int
	log      logger.Logger
	mem      *expirable.LRU[string, Entry]
}

// Option configures a [Cache].
type Option func(*Cache)

// WithFs sets the filesystem holding the cache directory. Default is the OS filesystem.
func WithFs(fs afero.Fs) Option { return func(c *Cache) { c.fs = fs } }

// WithClock sets the time source used for freshness checks and expiration.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// WithDefaultLifetime sets the lifetime of responses that carry no nextUpdate.
func WithDefaultLifetime(d time.Duration) Option { return func(c *Cache) { c.lifetime = d } }

// WithMemoryEntries sizes the in-memory front cache; zero disables it.
func WithMemoryEntries(n int) Option { return func(c *Cache) { c.entries = n } }

// WithLogger sets the logger for cache writes and write failures.
func WithLogger(l logger.Logger) Option { return func(c *Cache) { c.log = l } }

// WithSkew sets the tolerated clock skew against the responder.
func WithSkew(d time.Duration) Option { return func(c *Cache) { c.skew = d } }

// NewCache opens the cache rooted at dir, creating the directory when needed.
//
// Parameters:
//   - dir: Cache directory
//   - opts: Optional settings
//
// Returns:
//   - *Cache: The cache
//   - error: ErrEmptyCacheDir, or an error creating dir
func NewCache(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, ErrEmptyCacheDir
	}

	c := &Cache{
		fs:       afero.NewOsFs(),
		dir:      dir,
		now:      time.Now,
		lifetime: DefaultLifetime,
		skew:     DefaultSkew,
		entries:  DefaultMemoryEntries,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.log = logger.OrDiscard(c.log)
	if c.lifetime <= 0 {
		c.lifetime = DefaultLifetime
	}
	if c.skew < 0 {
		c.skew = 0
	}
	if c.entries > 0 {
		c.mem = expirable.NewLRU[string, Entry](c.entries, nil, c.lifetime)
	}

	if err := c.fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("x509ocsp: create cache directory: %w", err)
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// entryName is the file name of the entry for subject as issued by issuer.
func entryName(subject, issuer *x509.Certificate) string {
	return x509certs.IdentityHash(issuer) + "." + subject.SerialNumber.Text(16) + entryExt
}

// Lookup consults the cache for the certificate at depth of ctx's chain.
//
// An entry whose expiration is not after the cache clock is reported as
// [Expired]; callers treat it like a miss and query the responder again.
func (c *Cache) Lookup(ctx *x509chain.Context, depth int) Lookup {
	miss := Lookup{Result: Miss, Status: x509chain.StatusUnableToGetCRL}
	if ctx == nil {
		return miss
	}

	subject, issuer := subjectAndIssuer(ctx.Chain(), depth)
	if subject == nil || issuer == nil {
		return miss
	}

	e, ok := c.load(entryName(subject, issuer))
	if !ok || e.Serial != subject.SerialNumber.Text(16) {
		return miss
	}

	status, ok := entryStatus(e.Status)
	if !ok {
		return miss
	}
	if !c.now().Before(e.Expires) {
		return Lookup{Result: Expired, Status: x509chain.StatusUnableToGetCRL, Expires: e.Expires}
	}
	return Lookup{Result: Hit, Status: status, Expires: e.Expires}
}

// VerifyResponse validates resp as the answer to req for the certificate at
// depth of ctx's chain and caches good and revoked answers.
//
// The entry expires at the response's nextUpdate, or DefaultLifetime after now
// when it has none. A failed cache write is logged and does not change the
// result.
//
// Returns:
//   - x509chain.VerifyStatus: StatusOK, StatusCertRevoked, or StatusUnableToGetCRL on any failure
//   - error: Why the response was not accepted
func (c *Cache) VerifyResponse(ctx *x509chain.Context, req *Request, resp []byte, depth int) (x509chain.VerifyStatus, error) {
	const failed = x509chain.StatusUnableToGetCRL

	if ctx == nil {
		return failed, ErrNilContext
	}
	if req == nil {
		return failed, ErrInvalidRequest
	}

	subject, issuer := subjectAndIssuer(ctx.Chain(), depth)
	if subject == nil || issuer == nil {
		return failed, fmt.Errorf("%w at depth %d", ErrIssuerUnresolved, depth)
	}
	if !x509certs.SameContent(subject, req.Subject) || !x509certs.SameContent(issuer, req.Issuer) {
		return failed, fmt.Errorf("%w at depth %d", ErrRequestMismatch, depth)
	}

	now := c.now()
	parsed, err := checkResponse(resp, req, now, c.skew)
	if err != nil {
		return failed, err
	}

	status, err := verifyStatus(parsed.Status)
	if err != nil {
		return failed, err
	}

	e := Entry{
		Status:     statusName(parsed.Status),
		Serial:     subject.SerialNumber.Text(16),
		ThisUpdate: parsed.ThisUpdate,
		Expires:    now.Add(c.lifetime),
		Response:   resp,
	}
	if !parsed.NextUpdate.IsZero() {
		next := parsed.NextUpdate
		e.NextUpdate = &next
		e.Expires = next
	}

	name := entryName(subject, issuer)
	if err := c.store(name, e); err != nil {
		c.log.Printf("ocsp cache: write %s: %v", name, err)
	} else {
		c.log.Printf("ocsp cache: stored %s (%s, expires %s)", name, e.Status, e.Expires.UTC().Format(time.RFC3339))
	}
	return status, nil
}

func statusName(status int) string {
	if status == ocsp.Revoked {
		return "revoked"
	}
	return "good"
}

func entryStatus(name string) (x509chain.VerifyStatus, bool) {
	switch name {
	case "good":
		return x509chain.StatusOK, true
	case "revoked":
		return x509chain.StatusCertRevoked, true
	default:
		return x509chain.StatusUnableToGetCRL, false
	}
}

// load returns the entry stored under name. The memory front only answers
// for entries that have not expired; anything else is read from disk, where
// another process may have refreshed it.
func (c *Cache) load(name string) (Entry, bool) {
	now := c.now()
	if c.mem != nil {
		if e, ok := c.mem.Get(name); ok {
			if now.Before(e.Expires) {
				return e, true
			}
			c.mem.Remove(name)
		}
	}

	f, err := c.fs.Open(filepath.Join(c.dir, name))
	if err != nil {
		return Entry{}, false
	}
	defer f.Close()

	data, err := gc.ReadAll(f)
	if err != nil {
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Printf("ocsp cache: ignoring unreadable entry %s: %v", name, err)
		return Entry{}, false
	}

	if c.mem != nil && now.Before(e.Expires) {
		c.mem.Add(name, e)
	}
	return e, true
}

// store writes e to a temporary file in the cache directory and renames it over name.
func (c *Cache) store(name string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(c.fs, c.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		c.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		c.fs.Remove(tmpName)
		return err
	}
	if err := c.fs.Rename(tmpName, filepath.Join(c.dir, name)); err != nil {
		c.fs.Remove(tmpName)
		return err
	}

	if c.mem != nil {
		c.mem.Add(name, e)
	}
	return nil
}
