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
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// AESGCM implements AEADInterface with AES in GCM mode. Both 128 and 256 bit
// keys are accepted.
type AESGCM struct {
	Random RandomInterface
}

const NonceLength = 12
const TagLength = 16

// Error returned if the platform cipher cannot be constructed. Fatal for any
// crypto operation, not retryable.
var ErrUnavailable = errors.New("platform cipher unavailable")

var errInvalidKeyLength = errors.New("invalid key length")
var errInvalidNonceLength = errors.New("invalid nonce length")

// NewAESGCM creates an AESGCM backed by the platform random source.
func NewAESGCM() *AESGCM {
	return &AESGCM{&NativeRandom{}}
}

// GenerateKey generates fresh AES key material. The length must be 128 or 256 bits.
func GenerateKey(random RandomInterface, bits int) ([]byte, error) {
	if bits != 128 && bits != 256 {
		return nil, errInvalidKeyLength
	}
	return random.GetBytes(uint(bits / 8))
}

func (a *AESGCM) Encrypt(plaintext, key, iv []byte) ([]byte, []byte, error) {
	if len(key) != 16 && len(key) != 32 {
		return nil, nil, errInvalidKeyLength
	}
	if iv == nil {
		var err error
		iv, err = a.Random.GetBytes(NonceLength)
		if err != nil {
			return nil, nil, err
		}
	} else if len(iv) != NonceLength {
		return nil, nil, errInvalidNonceLength
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	return aesgcm.Seal(nil, iv, plaintext, nil), iv, nil
}

func (a *AESGCM) Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	if len(key) != 16 && len(key) != 32 {
		return nil, errInvalidKeyLength
	}
	if len(iv) != NonceLength {
		return nil, errInvalidNonceLength
	}
	if len(ciphertext) < TagLength {
		return nil, errors.New("invalid ciphertext length")
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return aesgcm.Open(nil, iv, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	aesblock, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	aesgcm, err := cipher.NewGCM(aesblock)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return aesgcm, nil
}
