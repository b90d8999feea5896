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
	"encoding/base64"
	"errors"

	"github.com/cipherchat/cipherchat-lib/crypto"
)

// Wire contract of password-encrypted blobs, fixed offsets:
//
//	base64( salt[16] || iv[12] || ciphertext[N, AES-256-GCM incl. 16 byte tag] )
const passwordSaltLength = 16

// EncryptWithPassword encrypts a text under a key derived from the password.
// A fresh salt and IV are generated per call; the output is a single opaque
// base64 blob holding both.
func (s *Service) EncryptWithPassword(text, password string) (string, error) {
	salt, err := s.random.GetBytes(passwordSaltLength)
	if err != nil {
		return "", err
	}

	key := s.kdf.DeriveKey(password, salt)
	ciphertext, iv, err := s.aead.Encrypt([]byte(text), key, nil)
	if err != nil {
		return "", err
	}

	blob := make([]byte, 0, len(salt)+len(iv)+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, iv...)
	blob = append(blob, ciphertext...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// GeneratePassword returns a random password of the given length, suitable
// as input to EncryptWithPassword when the caller has no password of its
// own (backup blobs, recovery codes).
func (s *Service) GeneratePassword(length uint) (string, error) {
	return crypto.RandomString(s.random, length)
}

// DecryptWithPassword reverses EncryptWithPassword. A wrong password and a
// corrupted blob both fail with ErrDecryptionFailed; the two are never
// distinguished.
func (s *Service) DecryptWithPassword(encrypted, password string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if len(blob) < passwordSaltLength+crypto.NonceLength+crypto.TagLength {
		return "", ErrDecryptionFailed
	}

	salt := blob[:passwordSaltLength]
	iv := blob[passwordSaltLength : passwordSaltLength+crypto.NonceLength]
	ciphertext := blob[passwordSaltLength+crypto.NonceLength:]

	key := s.kdf.DeriveKey(password, salt)
	plaintext, err := s.aead.Decrypt(ciphertext, key, iv)
	if err != nil {
		if errors.Is(err, crypto.ErrUnavailable) {
			return "", err
		}
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
