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

// Package data contains the data types handled by the library and their
// serialized forms: key handles and records, ciphertext envelopes, and
// rotation audits.
package data

import (
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	json "github.com/json-iterator/go"

	"github.com/cipherchat/cipherchat-lib/crypto"
)

// AlgorithmAESGCM is the only symmetric algorithm issued by the library.
const AlgorithmAESGCM = "AES-GCM"

// Key is a live key handle. Raw is the key material; it never leaves the
// process except through Export.
type Key struct {
	// ID is the unique identifier of the key, of the form key_<ts36>_<random>.
	ID string

	// Raw is the key material.
	Raw []byte

	// Algorithm the key is intended for.
	Algorithm string

	// Length of the key in bits.
	Length int

	// CreatedAt is the time the key was issued.
	CreatedAt time.Time

	// DerivedFromPassphrase marks keys derived from a user passphrase.
	DerivedFromPassphrase bool

	// Salt used for derivation, if any.
	Salt []byte
}

// portableKey is the serialized form of a Key: a JWK-style export wrapped
// with metadata. Once created it is immutable; rotation issues new keys.
type portableKey struct {
	ID                    string      `json:"id"`
	JWK                   portableJWK `json:"jwk"`
	Algorithm             string      `json:"algorithm"`
	Length                int         `json:"length"`
	Timestamp             int64       `json:"timestamp"`
	DerivedFromPassphrase bool        `json:"derivedFromPassphrase,omitempty"`
	Salt                  string      `json:"salt,omitempty"`
}

type portableJWK struct {
	Kty string `json:"kty"`
	K   string `json:"k"`
	Alg string `json:"alg"`
}

// Export serializes the key to its portable form. The round trip through
// ParseKey is lossless.
func (k *Key) Export() ([]byte, error) {
	if len(k.Raw) == 0 {
		return nil, errors.New("key has no material")
	}
	portable := portableKey{
		ID: k.ID,
		JWK: portableJWK{
			Kty: "oct",
			K:   base64.RawURLEncoding.EncodeToString(k.Raw),
			Alg: "A" + strconv.Itoa(k.Length) + "GCM",
		},
		Algorithm:             k.Algorithm,
		Length:                k.Length,
		Timestamp:             k.CreatedAt.UnixMilli(),
		DerivedFromPassphrase: k.DerivedFromPassphrase,
	}
	if len(k.Salt) > 0 {
		portable.Salt = base64.StdEncoding.EncodeToString(k.Salt)
	}
	return json.Marshal(portable)
}

// ParseKey deserializes a portable key into a usable handle.
func ParseKey(serialized []byte) (*Key, error) {
	var portable portableKey
	if err := json.Unmarshal(serialized, &portable); err != nil {
		return nil, err
	}
	if portable.JWK.Kty != "oct" {
		return nil, errors.New("unsupported key type")
	}
	raw, err := base64.RawURLEncoding.DecodeString(portable.JWK.K)
	if err != nil {
		return nil, err
	}
	key := &Key{
		ID:                    portable.ID,
		Raw:                   raw,
		Algorithm:             portable.Algorithm,
		Length:                portable.Length,
		CreatedAt:             time.UnixMilli(portable.Timestamp),
		DerivedFromPassphrase: portable.DerivedFromPassphrase,
	}
	if key.Length == 0 {
		key.Length = len(raw) * 8
	}
	if portable.Salt != "" {
		if key.Salt, err = base64.StdEncoding.DecodeString(portable.Salt); err != nil {
			return nil, err
		}
	}
	return key, nil
}

const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewKeyID generates a unique key identifier of the form key_<ts36>_<random>.
func NewKeyID(random crypto.RandomInterface) (string, error) {
	bytes, err := random.GetBytes(8)
	if err != nil {
		return "", err
	}
	suffix := make([]byte, len(bytes))
	for i, b := range bytes {
		suffix[i] = base36Chars[int(b)%len(base36Chars)]
	}
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return "key_" + timestamp + "_" + string(suffix), nil
}

// KeyRecord is the bookkeeping entry for an issued key, as stored in the key
// history. The serialized key is immutable once recorded.
type KeyRecord struct {
	ID                    string          `json:"id"`
	Key                   json.RawMessage `json:"key"`
	CreatedAt             time.Time       `json:"createdAt"`
	SecurityLevel         string          `json:"securityLevel,omitempty"`
	EncryptionType        string          `json:"encryptionType,omitempty"`
	Algorithm             string          `json:"algorithm,omitempty"`
	Length                int             `json:"length,omitempty"`
	DerivedFromPassphrase bool            `json:"derivedFromPassphrase,omitempty"`
}

// NewKeyRecord builds the history record for a key issued under the given
// security level and encryption type.
func NewKeyRecord(key *Key, securityLevel, encryptionType string) (*KeyRecord, error) {
	serialized, err := key.Export()
	if err != nil {
		return nil, err
	}
	return &KeyRecord{
		ID:                    key.ID,
		Key:                   serialized,
		CreatedAt:             key.CreatedAt,
		SecurityLevel:         securityLevel,
		EncryptionType:        encryptionType,
		Algorithm:             key.Algorithm,
		Length:                key.Length,
		DerivedFromPassphrase: key.DerivedFromPassphrase,
	}, nil
}

// Marshal serializes the record for storage.
func (r *KeyRecord) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// ParseKeyRecord deserializes a stored key record.
func ParseKeyRecord(serialized []byte) (*KeyRecord, error) {
	record := &KeyRecord{}
	if err := json.Unmarshal(serialized, record); err != nil {
		return nil, err
	}
	return record, nil
}
