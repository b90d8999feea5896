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
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations is the PBKDF2 iteration count used for password-based
// encryption. Higher counts trade latency for brute-force resistance.
const DefaultIterations = 100000

// DerivedKeyLength is the size of derived key material in bytes.
const DerivedKeyLength = 32

// PBKDF2 implements KDFInterface using PBKDF2-HMAC-SHA256.
type PBKDF2 struct {
	Iterations int
}

// NewPBKDF2 creates a PBKDF2 KDF with the default iteration count.
func NewPBKDF2() *PBKDF2 {
	return &PBKDF2{DefaultIterations}
}

func (k *PBKDF2) DeriveKey(password string, salt []byte) []byte {
	iterations := k.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key([]byte(password), salt, iterations, DerivedKeyLength, sha256.New)
}

// Argon2id implements memory-hard key derivation for short, low-entropy
// secrets such as PINs, where PBKDF2's work factor is not enough.
type Argon2id struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// NewArgon2id creates an Argon2id KDF with the library defaults
// (t=3, m=64MiB, p=2).
func NewArgon2id() *Argon2id {
	return &Argon2id{
		Time:    3,
		Memory:  64 * 1024,
		Threads: 2,
	}
}

// Hash derives DerivedKeyLength bytes from the secret and salt.
func (a *Argon2id) Hash(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, a.Time, a.Memory, a.Threads, DerivedKeyLength)
}

func (a *Argon2id) DeriveKey(password string, salt []byte) []byte {
	return a.Hash([]byte(password), salt)
}
