// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"errors"
	"net"
	"sync"
	"time"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509store "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/store"
)

var (
	// ErrInvalidInput indicates that Init was called without a store or a target certificate.
	ErrInvalidInput = errors.New("x509chain: store and target certificate are required")

	// ErrNotInitialized indicates an operation on a context that was never initialized.
	ErrNotInitialized = errors.New("x509chain: context not initialized")

	// ErrResetFailed indicates that the context could not be returned to its pre-build state.
	ErrResetFailed = errors.New("x509chain: reset failed")

	// ErrNoChain indicates that no chain has been built yet.
	ErrNoChain = errors.New("x509chain: no chain has been built")

	// ErrNotSignatureError indicates that the last verification did not fail with a signature error.
	ErrNotSignatureError = errors.New("x509chain: last verification did not fail with a signature error")
)

const (
	// NoDepth is the error depth reported before any chain has been built.
	NoDepth = -1

	// DefaultMaxDepth is the longest path, in intermediates, accepted when Params.MaxDepth is zero.
	DefaultMaxDepth = 100
)

// Snapshot is the view of the verification handed to a [VerifyCallback].
// Chain is borrowed for the duration of the call and must not be retained or modified.
type Snapshot struct {
	Depth int
	Cert  *x509.Certificate
	Chain []*x509.Certificate
}

// VerifyCallback observes each verification outcome. It receives every failure
// and, while signatures are walked, one StatusOK per depth. Returning StatusOK
// accepts the outcome and verification continues; any other value halts
// verification with that status.
//
// The callback runs with the context locked and must not call back into it.
type VerifyCallback func(status VerifyStatus, snap Snapshot) VerifyStatus

// Params tunes a verification.
type Params struct {
	// Time is the verification instant. Zero means the current time.
	Time time.Time
	// MaxDepth bounds the number of intermediates. Zero means DefaultMaxDepth.
	MaxDepth int
	// Hostname, when set, must match the leaf.
	Hostname string
	// Email, when set, must match the leaf.
	Email string
	// IPAddress, when set, must match the leaf.
	IPAddress net.IP
	// KeyUsages lists extended key usages the chain must permit.
	KeyUsages []x509.ExtKeyUsage
}

func (p Params) at() time.Time {
	if p.Time.IsZero() {
		return time.Now()
	}
	return p.Time
}

func (p Params) maxDepth() int {
	if p.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return p.MaxDepth
}

// edge is an issuer relationship ruled out by chain repair.
type edge struct {
	subject x509certs.Fingerprint
	issuer  x509certs.Fingerprint
}

// Context is the state of one chain verification: the target certificate, the
// trust store, the untrusted certificates offered for path building, and the
// result of the last build.
//
// A Context is meant to be driven by one goroutine at a time; it is guarded by
// a mutex so accidental concurrent use cannot corrupt it.
type Context struct {
	mu sync.Mutex

	initialized bool
	store       *x509store.Store
	target      *x509.Certificate
	untrusted   *x509store.Stack
	callback    VerifyCallback
	params      Params
	stapled     []byte
	rejected    map[edge]struct{}

	built   bool
	chain   []*x509.Certificate
	status  VerifyStatus
	depth   int
	current *x509.Certificate
}

// NewContext returns an uninitialized context.
func NewContext() *Context {
	return &Context{depth: NoDepth}
}

// Init binds the context to store, the target leaf and the untrusted certificates.
// A nil untrusted stack is treated as empty. The untrusted stack is shared, not copied.
//
// Init discards any earlier build, parameters, stapled response and repair history.
// The verify callback is kept.
//
// Returns:
//   - error: [ErrInvalidInput] when store or leaf is nil
func (c *Context) Init(store *x509store.Store, leaf *x509.Certificate, untrusted *x509store.Stack) error {
	if store == nil || leaf == nil {
		return ErrInvalidInput
	}
	if untrusted == nil {
		untrusted = x509store.NewStack()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = store
	c.target = leaf
	c.untrusted = untrusted
	c.params = Params{}
	c.stapled = nil
	c.rejected = make(map[edge]struct{})
	c.initialized = true
	c.resetLocked()
	return nil
}

// SetVerifyCallback installs cb. A nil callback restores the default policy,
// which accepts nothing beyond what verification itself accepts.
func (c *Context) SetVerifyCallback(cb VerifyCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
}

// SetParams replaces the verification parameters.
func (c *Context) SetParams(p Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
}

// Params returns the verification parameters.
func (c *Context) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetStapledOCSP attaches the DER OCSP response the peer stapled for the target.
func (c *Context) SetStapledOCSP(resp []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stapled = append([]byte(nil), resp...)
}

// StapledOCSP returns the stapled OCSP response, if any.
func (c *Context) StapledOCSP() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stapled
}

// Chain returns a copy of the last built chain, leaf first. It is empty before
// any build or after a reset.
func (c *Context) Chain() []*x509.Certificate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*x509.Certificate{}, c.chain...)
}

// ChainAt returns the certificate at depth in the last built chain, or nil.
func (c *Context) ChainAt(depth int) *x509.Certificate {
	c.mu.Lock()
	defer c.mu.Unlock()

	if depth < 0 || depth >= len(c.chain) {
		return nil
	}
	return c.chain[depth]
}

// Built reports whether a chain has been built since the last Init or Reset.
func (c *Context) Built() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.built
}

// CurrentCert returns the certificate the verification was examining when it
// last reported an outcome.
func (c *Context) CurrentCert() *x509.Certificate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Target returns the certificate being verified.
func (c *Context) Target() *x509.Certificate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Untrusted returns the shared stack of untrusted certificates.
func (c *Context) Untrusted() *x509store.Stack {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.untrusted
}

// Store returns the trust store the context is bound to.
func (c *Context) Store() *x509store.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// Error returns the status recorded by the last verification.
func (c *Context) Error() VerifyStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ErrorDepth returns the chain depth of the last recorded outcome, or NoDepth before any build.
func (c *Context) ErrorDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}

// ErrorString returns the description of the last recorded status.
func (c *Context) ErrorString() string {
	return c.Error().String()
}

// Err returns the last recorded failure as a [*VerifyError], or nil.
func (c *Context) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusOK {
		return nil
	}
	return &VerifyError{Status: c.status, Depth: c.depth, Cert: c.current}
}

// Reset returns the context to its initialized, unbuilt state. The target,
// store, untrusted stack, callback, parameters, stapled response and repair
// history are kept.
//
// Returns:
//   - error: [ErrResetFailed] when the context was never initialized
func (c *Context) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return ErrResetFailed
	}
	c.resetLocked()
	return nil
}

func (c *Context) resetLocked() {
	c.built = false
	c.chain = nil
	c.status = StatusOK
	c.depth = NoDepth
	c.current = nil
}

// Rebuild resets the context and verifies again.
//
// Returns:
//   - VerifyStatus: as for [Context.Verify]
//   - error: [ErrResetFailed] when the reset could not be performed
func (c *Context) Rebuild() (VerifyStatus, error) {
	if err := c.Reset(); err != nil {
		return StatusOK, err
	}
	return c.Verify()
}

// Verify builds a path from the target to a trusted root and validates it.
//
// The returned status is StatusOK when the path was accepted, possibly because
// the verify callback accepted individual failures; [Context.Error] still
// reports the last failure seen in that case. Otherwise it is the status that
// halted verification.
//
// Returns:
//   - VerifyStatus: the verification outcome
//   - error: [ErrNotInitialized] on misuse; verification failures are never errors
func (c *Context) Verify() (VerifyStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return StatusOK, ErrNotInitialized
	}
	c.resetLocked()

	v := &verifier{
		ctx:        c,
		now:        c.params.at(),
		selfSigned: make(map[*x509.Certificate]bool),
	}
	return v.run(), nil
}
