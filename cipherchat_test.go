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
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cipherchat/cipherchat-lib/data"
	"github.com/cipherchat/cipherchat-lib/store"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	service, err := New(store.NewMem(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return service
}

func TestEncryptDecryptString(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	result, err := service.Encrypt(ctx, "hello there", SecurityE2EE, TypeMessage)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if result.KeyID == "" {
		t.Fatalf("result carries no key ID")
	}
	if result.SecurityLevel != SecurityE2EE {
		t.Fatalf("unexpected security level %q", result.SecurityLevel)
	}
	if result.Metadata["version"] != FormatVersion {
		t.Fatalf("unexpected version %v", result.Metadata["version"])
	}

	decrypted, err := service.Decrypt(ctx, result.EncryptedData, nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != "hello there" {
		t.Fatalf("plaintext doesn't match: %v", decrypted)
	}
}

func TestEncryptDecryptStructured(t *testing.T) {
	type message struct {
		Sender string `json:"sender"`
		Body   string `json:"body"`
		Seq    int    `json:"seq"`
	}

	service := newTestService(t)
	ctx := context.Background()
	original := message{Sender: "alice", Body: "structured payload", Seq: 42}

	result, err := service.Encrypt(ctx, original, SecurityE2EE, TypeMessage)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	decrypted, err := DecryptAs[message](ctx, service, result.EncryptedData, nil)
	if err != nil {
		t.Fatalf("DecryptAs: %v", err)
	}
	if decrypted != original {
		t.Fatalf("message doesn't match: %+v", decrypted)
	}

	// The untyped variant parses JSON into generic values.
	value, err := service.Decrypt(ctx, result.EncryptedData, nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	object, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("expected a JSON object, got %T", value)
	}
	if object["sender"] != "alice" {
		t.Fatalf("object doesn't match: %+v", object)
	}
}

func TestEncryptWithCallerKey(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	key, err := service.GenerateKey(ctx, SecurityE2EE, TypeMessage)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	before, err := service.History().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}

	result, err := service.Encrypt(ctx, "pinned key", SecurityE2EE, TypeMessage, WithKey(key))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if result.KeyID != key.ID {
		t.Fatalf("result references key %q, want %q", result.KeyID, key.ID)
	}
	after, err := service.History().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if after != before {
		t.Fatalf("encrypting under a caller key recorded %d extra keys", after-before)
	}

	decrypted, err := service.Decrypt(ctx, result.EncryptedData, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != "pinned key" {
		t.Fatalf("plaintext doesn't match: %v", decrypted)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	result, err := service.Encrypt(ctx, "secret", SecurityE2EE, TypeMessage)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	otherKey, err := service.GenerateKey(ctx, SecurityE2EE, TypeMessage)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	if _, err := service.Decrypt(ctx, result.EncryptedData, otherKey); !errors.Is(err, ErrKeyMismatch) {
		t.Fatalf("expected ErrKeyMismatch, got %v", err)
	}

	// A key without an ID cannot be checked against the envelope, so the
	// failure surfaces as a plain decryption failure.
	anonymous := &data.Key{Raw: otherKey.Raw, Length: otherKey.Length}
	if _, err := service.Decrypt(ctx, result.EncryptedData, anonymous); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptMalformedEnvelope(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()
	if _, err := service.Decrypt(ctx, "not an envelope", nil); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptUnknownKeyID(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	envelope := data.NewEnvelope([]byte("0123456789abcdef0123"), make([]byte, 12), "key_gone_missing", string(TypeMessage))
	serialized, err := envelope.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := service.Decrypt(ctx, serialized, nil); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestKeyByIDSharedHistory(t *testing.T) {
	provider := store.NewMem()
	first, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	result, err := first.Encrypt(ctx, "cross service", SecurityE2EE, TypeMessage)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// The second Service has a cold cache and resolves through the shared
	// history.
	key, err := second.KeyByID(ctx, result.KeyID)
	if err != nil {
		t.Fatalf("KeyByID: %v", err)
	}
	if key.ID != result.KeyID {
		t.Fatalf("resolved key %q, want %q", key.ID, result.KeyID)
	}
	decrypted, err := second.Decrypt(ctx, result.EncryptedData, nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != "cross service" {
		t.Fatalf("plaintext doesn't match: %v", decrypted)
	}
}

func TestKeyByIDMissing(t *testing.T) {
	service := newTestService(t)
	if _, err := service.KeyByID(context.Background(), "key_never_issued"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDeriveKeyFromPassphrase(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	key, err := service.DeriveKeyFromPassphrase(ctx, "correct horse battery staple", nil)
	if err != nil {
		t.Fatalf("DeriveKeyFromPassphrase: %v", err)
	}
	if !key.DerivedFromPassphrase || len(key.Salt) != 16 || len(key.Raw) != 32 {
		t.Fatalf("unexpected key shape: %+v", key)
	}

	// The same passphrase and salt always yield the same material.
	again, err := service.DeriveKeyFromPassphrase(ctx, "correct horse battery staple", key.Salt)
	if err != nil {
		t.Fatalf("DeriveKeyFromPassphrase: %v", err)
	}
	if !bytes.Equal(key.Raw, again.Raw) {
		t.Fatalf("derivation is not deterministic")
	}
	if key.ID == again.ID {
		t.Fatalf("derived keys share an ID")
	}

	// The salt survives the history round trip.
	record, err := service.History().Get(ctx, key.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	stored, err := data.ParseKey(record.Key)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if !bytes.Equal(stored.Salt, key.Salt) {
		t.Fatalf("salt doesn't survive the history round trip")
	}
}

func TestVerifyKey(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	result, err := service.Encrypt(ctx, "probe me", SecurityE2EE, TypeMessage)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	key, err := service.KeyByID(ctx, result.KeyID)
	if err != nil {
		t.Fatalf("KeyByID: %v", err)
	}
	if !service.VerifyKey(ctx, result.EncryptedData, key) {
		t.Fatalf("the issuing key should verify")
	}

	wrongKey, err := service.GenerateKey(ctx, SecurityE2EE, TypeMessage)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if service.VerifyKey(ctx, result.EncryptedData, wrongKey) {
		t.Fatalf("a different key should not verify")
	}
	if service.VerifyKey(ctx, "garbage", key) {
		t.Fatalf("garbage input should not verify")
	}
}

func TestRecommendedSecurityLevels(t *testing.T) {
	cases := []struct {
		encryptionType EncryptionType
		trusted        bool
		want           SecurityLevel
	}{
		{TypeMessage, true, SecurityE2EE},
		{TypeUserData, true, SecurityE2EE},
		{TypeFile, true, SecurityP2PE2EE},
		{TypeWholePage, true, SecurityP2PE2EE},
		{TypeMessage, false, SecurityE2EE},
		{TypeWholePage, false, SecurityE2EE},
		{TypeFile, false, SecurityE2EE},
		{TypeUserData, false, SecurityStandard},
	}
	for _, c := range cases {
		if got := RecommendedSecurityLevel(c.encryptionType, c.trusted); got != c.want {
			t.Fatalf("RecommendedSecurityLevel(%s, %v) = %s, want %s", c.encryptionType, c.trusted, got, c.want)
		}
	}

	trusted := newTestService(t, WithTrustedDeployment(true))
	if got := trusted.RecommendedSecurityLevel(TypeFile); got != SecurityP2PE2EE {
		t.Fatalf("trusted deployment recommends %s for files", got)
	}
}

func TestSecurityLevelProperties(t *testing.T) {
	if SecurityStandard.KeyBits() != 128 || SecurityE2EE.KeyBits() != 256 || SecurityP2PE2EE.KeyBits() != 256 {
		t.Fatalf("unexpected key lengths")
	}
	if SecurityStandard.Strength() != "standard" || SecurityE2EE.Strength() != "high" || SecurityP2PE2EE.Strength() != "ultra" {
		t.Fatalf("unexpected strength labels")
	}
}
