// Copyright (C) 2025 CIPHERCHAT
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package pin gates local app and data access behind a short numeric PIN,
// independent of message encryption. Only a salted memory-hard hash of the
// PIN is ever persisted; keys derived from the PIN are recomputed on demand
// and never stored.
package pin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/json-iterator/go"

	"github.com/cipherchat/cipherchat-lib/crypto"
	"github.com/cipherchat/cipherchat-lib/data"
	"github.com/cipherchat/cipherchat-lib/store"
)

// Error returned if a PIN fails the complexity policy.
var ErrWeakPin = errors.New("weak pin")

// Error returned if PIN checks are in cooldown after too many failed attempts.
var ErrLockedOut = errors.New("locked out")

// Error returned if an operation needs a configured PIN and none is set.
var ErrPinNotSet = errors.New("pin not set")

// Error returned if an operation requiring a verified PIN got the wrong one.
var ErrPinIncorrect = errors.New("incorrect pin")

// LockoutError reports an active lockout and the remaining wait time. It
// unwraps to ErrLockedOut.
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("locked out: retry in %s", e.Remaining.Round(time.Second))
}

func (e *LockoutError) Unwrap() error {
	return ErrLockedOut
}

// Config holds the PIN policy. The zero value of a field falls back to its
// default.
type Config struct {
	// MaxAttempts is the number of consecutive failed checks before lockout.
	MaxAttempts int

	// LockoutTime is how long checks are refused after MaxAttempts failures.
	LockoutTime time.Duration

	// Digits is the exact required PIN length.
	Digits int

	// SkipComplexity disables the trivial-pattern checks. Complexity is
	// enforced unless a caller opts out, so the zero value keeps the
	// enforcing default.
	SkipComplexity bool
}

// DefaultConfig returns the default PIN policy: 6 digits, complexity
// enforced, 5 attempts, 5 minute lockout.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		LockoutTime: 5 * time.Minute,
		Digits:      6,
	}
}

const credentialID = "local"
const saltLength = 16

// keyContext domain-separates the encryption key derived from the PIN from
// the stored verification hash: the persisted hash must never equal usable
// key material.
var keyContext = []byte("cipherchat/pin-key/v1")

// credential is the locally persisted PIN record: salted hash plus salt,
// never the PIN itself.
type credential struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// Guard enforces the PIN policy: complexity on setup, attempt limiting and
// lockout on checks. All methods are safe for use from a single goroutine;
// the internal mutex only protects the counters against incidental
// concurrent reads.
type Guard struct {
	provider store.Provider
	cfg      Config
	kdf      *crypto.Argon2id
	random   crypto.RandomInterface
	now      func() time.Time

	mu          sync.Mutex
	attempts    int
	lockedUntil time.Time
	locked      bool
}

// Option configures a Guard.
type Option func(*Guard)

// WithRandom overrides the random source. Intended for tests.
func WithRandom(random crypto.RandomInterface) Option {
	return func(g *Guard) { g.random = random }
}

// WithClock overrides the time source the lockout countdown is measured
// against. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a Guard persisting its credential in the given storage
// Provider under the supplied policy.
func NewGuard(provider store.Provider, cfg Config, opts ...Option) *Guard {
	defaults := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.LockoutTime <= 0 {
		cfg.LockoutTime = defaults.LockoutTime
	}
	if cfg.Digits <= 0 {
		cfg.Digits = defaults.Digits
	}
	g := &Guard{
		provider: provider,
		cfg:      cfg,
		kdf:      crypto.NewArgon2id(),
		random:   &crypto.NativeRandom{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Setup sets or replaces the PIN. The PIN must pass the complexity policy.
// The attempt counter and any lockout are reset and the guard is unlocked.
func (g *Guard) Setup(ctx context.Context, pin string) error {
	if err := Validate(pin, g.cfg); err != nil {
		return err
	}

	salt, err := g.random.GetBytes(saltLength)
	if err != nil {
		return err
	}
	serialized, err := json.Marshal(credential{
		Hash: base64.StdEncoding.EncodeToString(g.kdf.Hash([]byte(pin), salt)),
		Salt: base64.StdEncoding.EncodeToString(salt),
	})
	if err != nil {
		return err
	}

	err = g.provider.Put(ctx, credentialID, store.DataTypePinCredential, serialized)
	if errors.Is(err, store.ErrAlreadyExists) {
		err = g.provider.Update(ctx, credentialID, store.DataTypePinCredential, serialized)
	}
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.attempts = 0
	g.lockedUntil = time.Time{}
	g.locked = false
	g.mu.Unlock()
	return nil
}

// Check verifies a PIN. During an active lockout it fails with a
// LockoutError regardless of the PIN's correctness. A mismatch increments
// the attempt counter and starts the lockout once MaxAttempts is reached; a
// match resets the counter and unlocks the guard. The counter is only reset
// by a successful check, Setup, or Delete; an expired lockout does not
// clear it.
func (g *Guard) Check(ctx context.Context, pin string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if remaining := g.lockoutRemaining(); remaining > 0 {
		return false, &LockoutError{Remaining: remaining}
	}

	cred, err := g.load(ctx)
	if err != nil {
		return false, err
	}

	if !g.matches(pin, cred) {
		g.attempts++
		if g.attempts >= g.cfg.MaxAttempts {
			g.lockedUntil = g.now().Add(g.cfg.LockoutTime)
		}
		return false, nil
	}

	g.attempts = 0
	g.lockedUntil = time.Time{}
	g.locked = false
	return true, nil
}

// Delete removes the PIN. The PIN must be re-entered and verified first; a
// deletion is refused during lockout like any other check.
func (g *Guard) Delete(ctx context.Context, pin string) error {
	ok, err := g.Check(ctx, pin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPinIncorrect
	}
	if err := g.provider.Delete(ctx, credentialID, store.DataTypePinCredential); err != nil {
		return err
	}

	g.mu.Lock()
	g.attempts = 0
	g.lockedUntil = time.Time{}
	g.locked = false
	g.mu.Unlock()
	return nil
}

// Lock locks the guard if a PIN is set; Check is then required to unlock.
func (g *Guard) Lock(ctx context.Context) error {
	has, err := g.HasPin(ctx)
	if err != nil {
		return err
	}
	if has {
		g.mu.Lock()
		g.locked = true
		g.mu.Unlock()
	}
	return nil
}

// DeriveEncryptionKey re-derives the local-data encryption key from a
// verified PIN and the stored salt. The key is domain-separated from the
// verification hash and is never persisted.
func (g *Guard) DeriveEncryptionKey(ctx context.Context, pin string) (*data.Key, error) {
	ok, err := g.Check(ctx, pin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPinIncorrect
	}

	cred, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	salt, err := base64.StdEncoding.DecodeString(cred.Salt)
	if err != nil {
		return nil, err
	}

	return &data.Key{
		Raw:                   g.kdf.Hash([]byte(pin), append(append([]byte(nil), salt...), keyContext...)),
		Algorithm:             data.AlgorithmAESGCM,
		Length:                256,
		CreatedAt:             g.now(),
		DerivedFromPassphrase: true,
		Salt:                  salt,
	}, nil
}

// HasPin reports whether a PIN credential is stored.
func (g *Guard) HasPin(ctx context.Context) (bool, error) {
	_, err := g.load(ctx)
	if errors.Is(err, ErrPinNotSet) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Locked reports whether the guard currently requires a PIN check.
func (g *Guard) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked || g.lockoutRemaining() > 0
}

// AttemptsRemaining returns how many failed checks remain before lockout.
func (g *Guard) AttemptsRemaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if remaining := g.cfg.MaxAttempts - g.attempts; remaining > 0 {
		return remaining
	}
	return 0
}

// LockoutRemaining returns the remaining lockout time, zero when checks are
// permitted.
func (g *Guard) LockoutRemaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lockoutRemaining()
}

// Callers must hold g.mu.
func (g *Guard) lockoutRemaining() time.Duration {
	if g.lockedUntil.IsZero() {
		return 0
	}
	if remaining := g.lockedUntil.Sub(g.now()); remaining > 0 {
		return remaining
	}
	return 0
}

func (g *Guard) load(ctx context.Context) (*credential, error) {
	serialized, err := g.provider.Get(ctx, credentialID, store.DataTypePinCredential)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPinNotSet
	}
	if err != nil {
		return nil, err
	}
	cred := &credential{}
	if err := json.Unmarshal(serialized, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func (g *Guard) matches(pin string, cred *credential) bool {
	salt, err := base64.StdEncoding.DecodeString(cred.Salt)
	if err != nil {
		return false
	}
	hash, err := base64.StdEncoding.DecodeString(cred.Hash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(g.kdf.Hash([]byte(pin), salt), hash) == 1
}
