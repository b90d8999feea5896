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

// Package crypto wraps the platform cryptographic primitives used by the
// library: authenticated symmetric encryption, asymmetric encryption, key
// derivation, and random generation. All implementations are stateless.
package crypto

import "crypto/rsa"

// AEADInterface represents an Authenticated Encryption scheme with a caller
// visible IV. The IV must be unique per (key, message) pair; implementations
// generate a fresh one when the caller passes nil.
type AEADInterface interface {
	// Encrypt encrypts and authenticates the plaintext with the key. Returns
	// the ciphertext (authentication tag included) and the IV that was used.
	Encrypt(plaintext, key, iv []byte) ([]byte, []byte, error)

	// Decrypt verifies the authenticity of the ciphertext and decrypts it.
	// The error never distinguishes a wrong key from corrupted input.
	Decrypt(ciphertext, key, iv []byte) ([]byte, error)
}

// KDFInterface derives key material from a low-entropy secret. Derivation is
// deterministic given identical inputs.
type KDFInterface interface {
	// DeriveKey stretches the password into key material using the salt.
	DeriveKey(password string, salt []byte) []byte
}

// AsymmetricInterface provides public-key encryption of small payloads, e.g.
// symmetric keys in transit between peers.
type AsymmetricInterface interface {
	// Encrypt encrypts the plaintext to the given public key.
	Encrypt(plaintext []byte, pub *rsa.PublicKey) ([]byte, error)

	// Decrypt decrypts a ciphertext with the private key.
	Decrypt(ciphertext []byte, priv *rsa.PrivateKey) ([]byte, error)
}

// RandomInterface provides an API for getting cryptographically secure random bytes.
type RandomInterface interface {
	// GetBytes generates the requested number of random bytes.
	GetBytes(n uint) ([]byte, error)
}
