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

/*
Package cipherchat provides client-side message and key encryption for the
chat application: key generation and caching, AES-GCM encryption and
decryption, password-based encryption, and key rotation with audit
bookkeeping. All functionality is exposed through methods on the Service
struct.
*/
package cipherchat

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/cipherchat/cipherchat-lib/crypto"
	"github.com/cipherchat/cipherchat-lib/data"
	"github.com/cipherchat/cipherchat-lib/log"
	"github.com/cipherchat/cipherchat-lib/store"
)

// FormatVersion is the version tag written into encryption result metadata.
const FormatVersion = "1.1"

// Service is the entry point of the library. It owns the key cache and the
// key history; both are injected or constructed at New and never shared
// through package state.
type Service struct {
	cache   *KeyCache
	history *KeyHistory
	policy  RotationPolicy
	trusted bool

	aead   *crypto.AESGCM
	kdf    *crypto.PBKDF2
	random crypto.RandomInterface
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRotationPolicy overrides the default key rotation policy.
func WithRotationPolicy(policy RotationPolicy) Option {
	return func(s *Service) { s.policy = policy }
}

// WithTrustedDeployment marks the deployment as the canonical, managed
// domain, which raises the recommended security levels.
func WithTrustedDeployment(trusted bool) Option {
	return func(s *Service) { s.trusted = trusted }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithKeyCache injects a caller-owned key cache, e.g. one shared with
// another Service bound to the same history.
func WithKeyCache(cache *KeyCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithRandom overrides the random source. Intended for tests.
func WithRandom(random crypto.RandomInterface) Option {
	return func(s *Service) { s.random = random }
}

// New creates a new Service. The key history and the PIN credential are kept
// in the given storage Provider; pass store.NewMem() for session-only
// bookkeeping or store.NewBolt(path) for a durable history.
func New(provider store.Provider, opts ...Option) (*Service, error) {
	s := &Service{
		cache:   NewKeyCache(),
		history: NewKeyHistory(provider),
		policy:  DefaultRotationPolicy(),
		random:  &crypto.NativeRandom{},
		kdf:     crypto.NewPBKDF2(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.validate(); err != nil {
		return nil, err
	}
	s.aead = &crypto.AESGCM{Random: s.random}
	return s, nil
}

// History exposes the key history for callers that schedule rotation or
// inspect audits.
func (s *Service) History() *KeyHistory {
	return s.history
}

// Cache exposes the session key cache.
func (s *Service) Cache() *KeyCache {
	return s.cache
}

// GenerateKey generates a fresh symmetric key for the given security level
// and encryption type, caches it, and records it in the key history.
func (s *Service) GenerateKey(ctx context.Context, level SecurityLevel, encryptionType EncryptionType) (*data.Key, error) {
	raw, err := crypto.GenerateKey(s.random, level.KeyBits())
	if err != nil {
		return nil, err
	}
	id, err := data.NewKeyID(s.random)
	if err != nil {
		return nil, err
	}
	key := &data.Key{
		ID:        id,
		Raw:       raw,
		Algorithm: data.AlgorithmAESGCM,
		Length:    level.KeyBits(),
		CreatedAt: time.Now(),
	}
	record, err := data.NewKeyRecord(key, string(level), string(encryptionType))
	if err != nil {
		return nil, err
	}
	if err := s.history.Record(ctx, record); err != nil {
		return nil, err
	}
	s.cache.Put(key)

	logger := s.logger.With().Logger()
	log.WithMethod(&logger, "GenerateKey")
	log.WithKeyID(&logger, key.ID)
	log.WithSecurityLevel(&logger, string(level))
	logger.Debug().Msg("key generated")
	return key, nil
}

// KeyByID resolves a key handle: the session cache first, then the key
// history. Returns ErrKeyNotFound if the key was pruned or never recorded.
func (s *Service) KeyByID(ctx context.Context, keyID string) (*data.Key, error) {
	if key, ok := s.cache.Get(keyID); ok {
		return key, nil
	}
	record, err := s.history.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}
	key, err := data.ParseKey(record.Key)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key)
	return key, nil
}

// DeriveKeyFromPassphrase derives a 256-bit key from a user passphrase.
// A fresh salt is generated when nil is passed; the salt in use is stored on
// the returned handle. The key is recorded in the history so it participates
// in rotation.
func (s *Service) DeriveKeyFromPassphrase(ctx context.Context, passphrase string, salt []byte) (*data.Key, error) {
	if salt == nil {
		var err error
		if salt, err = s.random.GetBytes(passwordSaltLength); err != nil {
			return nil, err
		}
	}
	id, err := data.NewKeyID(s.random)
	if err != nil {
		return nil, err
	}
	key := &data.Key{
		ID:                    id,
		Raw:                   s.kdf.DeriveKey(passphrase, salt),
		Algorithm:             data.AlgorithmAESGCM,
		Length:                256,
		CreatedAt:             time.Now(),
		DerivedFromPassphrase: true,
		Salt:                  salt,
	}
	record, err := data.NewKeyRecord(key, "", "")
	if err != nil {
		return nil, err
	}
	if err := s.history.Record(ctx, record); err != nil {
		return nil, err
	}
	s.cache.Put(key)
	return key, nil
}

type encryptConfig struct {
	key      *data.Key
	metadata map[string]any
}

// EncryptOption customizes a single Encrypt call.
type EncryptOption func(*encryptConfig)

// WithKey encrypts under a caller-managed key instead of generating one. No
// history record is written for the key.
func WithKey(key *data.Key) EncryptOption {
	return func(c *encryptConfig) { c.key = key }
}

// WithMetadata merges extra entries into the result metadata.
func WithMetadata(metadata map[string]any) EncryptOption {
	return func(c *encryptConfig) { c.metadata = metadata }
}

// EncryptionResult is the output of an encrypt operation. EncryptedData
// carries everything needed to attempt decryption except the key material.
type EncryptionResult struct {
	EncryptedData string         `json:"encryptedData"`
	KeyID         string         `json:"keyId"`
	SecurityLevel SecurityLevel  `json:"securityLevel"`
	Timestamp     time.Time      `json:"timestamp"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Encrypt encrypts a payload with the given security level and encryption
// type. String and []byte payloads are encrypted as-is, anything else is
// serialized to JSON first. Unless WithKey is given, a fresh key is generated
// and recorded in the key history.
func (s *Service) Encrypt(ctx context.Context, payload any, level SecurityLevel, encryptionType EncryptionType, opts ...EncryptOption) (*EncryptionResult, error) {
	cfg := encryptConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	plaintext, err := serializePayload(payload)
	if err != nil {
		return nil, err
	}

	key := cfg.key
	if key == nil {
		if key, err = s.GenerateKey(ctx, level, encryptionType); err != nil {
			return nil, err
		}
	}

	ciphertext, iv, err := s.aead.Encrypt(plaintext, key.Raw, nil)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	encrypted, err := data.NewEnvelope(ciphertext, iv, key.ID, string(encryptionType)).Marshal()
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"encryptionType": string(encryptionType),
		"version":        FormatVersion,
	}
	for k, v := range cfg.metadata {
		metadata[k] = v
	}

	return &EncryptionResult{
		EncryptedData: encrypted,
		KeyID:         key.ID,
		SecurityLevel: level,
		Timestamp:     time.Now(),
		Metadata:      metadata,
	}, nil
}

// Decrypt decrypts previously encrypted data. The result is the JSON value
// the plaintext parses to, or the raw plaintext string if it is not JSON;
// success is judged by the authenticated decryption alone, never by
// parseability. A nil key makes the Service resolve the key ID embedded in
// the ciphertext through the cache and history.
func (s *Service) Decrypt(ctx context.Context, encrypted string, key *data.Key) (any, error) {
	plaintext, _, err := s.decryptRaw(ctx, encrypted, key)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal(plaintext, &value); err != nil {
		return string(plaintext), nil
	}
	return value, nil
}

// DecryptAs decrypts into a concrete type. A string target receives the raw
// plaintext; any other target is decoded from JSON.
func DecryptAs[T any](ctx context.Context, s *Service, encrypted string, key *data.Key) (T, error) {
	var out T
	plaintext, _, err := s.decryptRaw(ctx, encrypted, key)
	if err != nil {
		return out, err
	}
	if target, ok := any(&out).(*string); ok {
		*target = string(plaintext)
		return out, nil
	}
	if err := json.Unmarshal(plaintext, &out); err != nil {
		return out, fmt.Errorf("decode plaintext: %w", err)
	}
	return out, nil
}

// VerifyKey reports whether the key can decrypt the data. It never returns
// an error; any failure reads as false.
func (s *Service) VerifyKey(ctx context.Context, encrypted string, key *data.Key) bool {
	_, _, err := s.decryptRaw(ctx, encrypted, key)
	return err == nil
}

// RecommendedSecurityLevel returns the security level to use for an
// encryption type on this deployment.
func (s *Service) RecommendedSecurityLevel(encryptionType EncryptionType) SecurityLevel {
	return RecommendedSecurityLevel(encryptionType, s.trusted)
}

func (s *Service) decryptRaw(ctx context.Context, encrypted string, key *data.Key) ([]byte, *data.Envelope, error) {
	envelope, err := data.ParseEnvelope(encrypted)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: malformed envelope", ErrDecryptionFailed)
	}

	if key == nil {
		if envelope.KeyID == "" {
			return nil, nil, ErrKeyNotFound
		}
		if key, err = s.KeyByID(ctx, envelope.KeyID); err != nil {
			return nil, nil, err
		}
	} else if key.ID != "" && envelope.KeyID != "" && key.ID != envelope.KeyID {
		return nil, nil, fmt.Errorf("%w: ciphertext was encrypted under %q", ErrKeyMismatch, envelope.KeyID)
	}

	ciphertext, iv, err := envelope.Payload()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: malformed envelope", ErrDecryptionFailed)
	}

	plaintext, err := s.aead.Decrypt(ciphertext, key.Raw, iv)
	if err != nil {
		if errors.Is(err, crypto.ErrUnavailable) {
			return nil, nil, err
		}
		return nil, nil, ErrDecryptionFailed
	}
	return plaintext, envelope, nil
}

func serializePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	default:
		return json.Marshal(payload)
	}
}
