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
	"crypto/rand"
	"errors"
)

// NativeRandom implements RandomInterface.
type NativeRandom struct {
}

func (r *NativeRandom) GetBytes(n uint) ([]byte, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}

const randomStringChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_!@#$%^&*()"

// RandomString generates a password-safe random string of length n.
func RandomString(random RandomInterface, n uint) (string, error) {
	bytes, err := random.GetBytes(n)
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range bytes {
		out[i] = randomStringChars[int(b)%len(randomStringChars)]
	}
	return string(out), nil
}

// MockRandom is a mock implementation of RandomInterface for testing. It
// hands out the preloaded bytes in order and errors once they run out.
type MockRandom struct {
	bytes []byte
}

// NewMockRandom creates a MockRandom preloaded with the given bytes.
func NewMockRandom(bytes []byte) *MockRandom {
	return &MockRandom{bytes}
}

func (r *MockRandom) GetBytes(n uint) ([]byte, error) {
	if int(n) > len(r.bytes) {
		return nil, errors.New("No more random bytes")
	}
	var out []byte
	out, r.bytes = r.bytes[:n], r.bytes[n:]
	return out, nil
}
