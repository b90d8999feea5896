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
	"errors"

	"github.com/cipherchat/cipherchat-lib/crypto"
)

// Error returned if the platform cryptographic primitives are missing or
// cannot be initialized. Not retryable.
var ErrCryptoUnavailable = crypto.ErrUnavailable

// Error returned if authenticated decryption fails. The root cause (wrong
// key, wrong password, or corrupted input) is deliberately not distinguished.
var ErrDecryptionFailed = errors.New("decryption failed")

// Error returned if a referenced key ID has no corresponding key record.
var ErrKeyNotFound = errors.New("key not found")

// Error returned if the key ID embedded in a ciphertext disagrees with the
// key supplied for decryption.
var ErrKeyMismatch = errors.New("key mismatch")
