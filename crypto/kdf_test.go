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

package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// RFC 6070 style vectors for PBKDF2-HMAC-SHA256, 32 byte output.
func TestPBKDF2KnownVectors(t *testing.T) {
	vectors := []struct {
		password   string
		salt       string
		iterations int
		derivedKey string
	}{
		{"password", "salt", 1, "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b"},
		{"password", "salt", 2, "ae4d0c95af6b46d32d0adff928f06dd02a303f8ef3c251dfd6e2d85a95474c43"},
	}
	for _, vector := range vectors {
		kdf := &PBKDF2{vector.iterations}
		derivedKey := kdf.DeriveKey(vector.password, []byte(vector.salt))
		if hex.EncodeToString(derivedKey) != vector.derivedKey {
			t.Fatalf("derived key doesn't match:\n%s\n%s\n", vector.derivedKey, hex.EncodeToString(derivedKey))
		}
	}
}

func TestPBKDF2Deterministic(t *testing.T) {
	kdf := NewPBKDF2()
	salt := []byte("0123456789abcdef")
	first := kdf.DeriveKey("correct horse battery staple", salt)
	second := kdf.DeriveKey("correct horse battery staple", salt)
	if !bytes.Equal(first, second) {
		t.Fatalf("derivation is not deterministic")
	}
	if len(first) != DerivedKeyLength {
		t.Fatalf("unexpected derived key length %d", len(first))
	}

	otherSalt := kdf.DeriveKey("correct horse battery staple", []byte("fedcba9876543210"))
	if bytes.Equal(first, otherSalt) {
		t.Fatalf("different salts produced the same key")
	}
	otherPassword := kdf.DeriveKey("Correct horse battery staple", salt)
	if bytes.Equal(first, otherPassword) {
		t.Fatalf("different passwords produced the same key")
	}
}

func TestPBKDF2ZeroIterationsFallsBack(t *testing.T) {
	salt := []byte("0123456789abcdef")
	zero := (&PBKDF2{}).DeriveKey("pin", salt)
	standard := NewPBKDF2().DeriveKey("pin", salt)
	if !bytes.Equal(zero, standard) {
		t.Fatalf("zero iteration count should fall back to the default")
	}
}

func TestArgon2idDeterministic(t *testing.T) {
	kdf := NewArgon2id()
	salt := []byte("0123456789abcdef")
	first := kdf.Hash([]byte("284951"), salt)
	second := kdf.Hash([]byte("284951"), salt)
	if !bytes.Equal(first, second) {
		t.Fatalf("hashing is not deterministic")
	}
	if len(first) != DerivedKeyLength {
		t.Fatalf("unexpected hash length %d", len(first))
	}
	if bytes.Equal(first, kdf.Hash([]byte("284951"), []byte("fedcba9876543210"))) {
		t.Fatalf("different salts produced the same hash")
	}
	if bytes.Equal(first, kdf.Hash([]byte("951482"), salt)) {
		t.Fatalf("different secrets produced the same hash")
	}
}

func TestArgon2idDeriveKeyMatchesHash(t *testing.T) {
	kdf := NewArgon2id()
	salt := []byte("0123456789abcdef")
	if !bytes.Equal(kdf.DeriveKey("284951", salt), kdf.Hash([]byte("284951"), salt)) {
		t.Fatalf("DeriveKey and Hash disagree for identical inputs")
	}
}
