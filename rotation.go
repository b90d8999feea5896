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

package cipherchat

import (
	"context"
	"errors"
	"time"

	"github.com/cipherchat/cipherchat-lib/data"
	"github.com/cipherchat/cipherchat-lib/log"
)

// RotationPolicy configures automatic key rotation.
type RotationPolicy struct {
	// IntervalDays is the age in days past which a key is due for rotation.
	IntervalDays int

	// AutoRotate tells the scheduling caller whether rotation should run
	// unattended. RotateKeys itself always rotates when invoked.
	AutoRotate bool

	// RetainPreviousKeys is the number of key records kept after pruning.
	RetainPreviousKeys int
}

// DefaultRotationPolicy returns the default policy: rotate keys older than
// 30 days, retaining the 3 newest records.
func DefaultRotationPolicy() RotationPolicy {
	return RotationPolicy{
		IntervalDays:       30,
		AutoRotate:         true,
		RetainPreviousKeys: 3,
	}
}

func (p RotationPolicy) validate() error {
	if p.IntervalDays < 0 {
		return errors.New("rotation interval must not be negative")
	}
	if p.RetainPreviousKeys < 0 {
		return errors.New("key retention must not be negative")
	}
	return nil
}

// RotationPolicy returns the active policy.
func (s *Service) RotationPolicy() RotationPolicy {
	return s.policy
}

// SetRotationPolicy replaces the active policy.
func (s *Service) SetRotationPolicy(policy RotationPolicy) error {
	if err := policy.validate(); err != nil {
		return err
	}
	s.policy = policy
	return nil
}

type reEncryptConfig struct {
	level  SecurityLevel
	typ    EncryptionType
	newKey *data.Key
}

// ReEncryptOption customizes a ReEncrypt call.
type ReEncryptOption func(*reEncryptConfig)

// ToSecurityLevel sets the security level of the new encryption.
func ToSecurityLevel(level SecurityLevel) ReEncryptOption {
	return func(c *reEncryptConfig) { c.level = level }
}

// ToEncryptionType sets the encryption type of the new encryption.
func ToEncryptionType(encryptionType EncryptionType) ReEncryptOption {
	return func(c *reEncryptConfig) { c.typ = encryptionType }
}

// WithNewKey re-encrypts under a caller-managed key instead of generating one.
func WithNewKey(key *data.Key) ReEncryptOption {
	return func(c *reEncryptConfig) { c.newKey = key }
}

// ReEncrypt decrypts data under its current key and encrypts it again under a
// newly generated key, defaulting to E2EE message encryption. The result
// metadata carries the rotation audit trail. The two steps are not atomic: a
// failure between them leaves the old ciphertext and key untouched.
func (s *Service) ReEncrypt(ctx context.Context, encrypted string, currentKey *data.Key, opts ...ReEncryptOption) (*EncryptionResult, error) {
	cfg := reEncryptConfig{level: SecurityE2EE, typ: TypeMessage}
	for _, opt := range opts {
		opt(&cfg)
	}

	plaintext, envelope, err := s.decryptRaw(ctx, encrypted, currentKey)
	if err != nil {
		return nil, err
	}

	fromLevel := s.levelForKey(ctx, envelope.KeyID, currentKey)
	audit := map[string]any{
		"rotatedFrom":       envelope.KeyID,
		"fromSecurityLevel": string(fromLevel),
		"toSecurityLevel":   string(cfg.level),
		"rotatedAt":         time.Now().UnixMilli(),
	}

	encryptOpts := []EncryptOption{WithMetadata(audit)}
	if cfg.newKey != nil {
		encryptOpts = append(encryptOpts, WithKey(cfg.newKey))
	}
	return s.Encrypt(ctx, plaintext, cfg.level, cfg.typ, encryptOpts...)
}

// RotationResult summarizes one rotation batch: the replacement keys by
// "<level>_<type>", and how many rotations succeeded and failed.
type RotationResult struct {
	Keys      map[string]*data.Key
	Succeeded int
	Failed    int
}

// RotateKeys replaces every key in the history older than the rotation
// interval with a freshly generated key of the same security level and
// encryption type, records a rotation audit per replacement, and prunes the
// history down to the retention limit. A failure on one key is logged and
// counted in the result but never aborts the batch.
//
// RotateKeys is meant to be driven by a single scheduler; concurrent
// invocations are not safe against each other.
func (s *Service) RotateKeys(ctx context.Context) (*RotationResult, error) {
	logger := s.logger.With().Logger()
	log.WithMethod(&logger, "RotateKeys")

	cutoff := time.Now().Add(-time.Duration(s.policy.IntervalDays) * 24 * time.Hour)
	stale, err := s.history.ListOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &RotationResult{Keys: make(map[string]*data.Key)}
	for _, record := range stale {
		level, encryptionType := inferKeyProfile(record)
		newKey, err := s.GenerateKey(ctx, level, encryptionType)
		if err == nil {
			var audit *data.RotationAudit
			audit, err = data.NewRotationAudit(newKey.ID, record.ID, string(level), string(level), string(encryptionType))
			if err == nil {
				err = s.history.RecordAudit(ctx, audit)
			}
		}
		if err != nil {
			result.Failed++
			keyLogger := logger.With().Logger()
			log.WithKeyID(&keyLogger, record.ID)
			keyLogger.Warn().Err(err).Msg("key rotation failed")
			continue
		}
		result.Keys[string(level)+"_"+string(encryptionType)] = newKey
		result.Succeeded++
	}

	pruned, err := s.history.Prune(ctx, s.policy.RetainPreviousKeys)
	if err != nil {
		return result, err
	}
	for _, keyID := range pruned {
		s.cache.Delete(keyID)
	}

	logger.Debug().Int("succeeded", result.Succeeded).Int("failed", result.Failed).Msg("key rotation complete")
	return result, nil
}

// inferKeyProfile recovers the security level and encryption type a key was
// issued under. Stored metadata is authoritative; when it is missing the
// profile is a best-effort guess from the key's shape, not an authoritative
// answer.
func inferKeyProfile(record *data.KeyRecord) (SecurityLevel, EncryptionType) {
	level := SecurityLevel(record.SecurityLevel)
	encryptionType := EncryptionType(record.EncryptionType)
	if level == "" {
		if record.Length == 128 {
			level = SecurityStandard
		} else {
			level = SecurityE2EE
		}
	}
	if encryptionType == "" {
		if record.DerivedFromPassphrase {
			encryptionType = TypeUserData
		} else {
			encryptionType = TypeMessage
		}
	}
	return level, encryptionType
}

// levelForKey reports the security level a ciphertext's key was issued
// under: the history record when available, otherwise inferred from the key
// length.
func (s *Service) levelForKey(ctx context.Context, keyID string, key *data.Key) SecurityLevel {
	if keyID != "" {
		if record, err := s.history.Get(ctx, keyID); err == nil && record.SecurityLevel != "" {
			return SecurityLevel(record.SecurityLevel)
		}
	}
	if key != nil && len(key.Raw) == 16 {
		return SecurityStandard
	}
	return SecurityE2EE
}
