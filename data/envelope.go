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

package data

import (
	"encoding/base64"

	json "github.com/json-iterator/go"
)

// Envelope is the wire format of encrypted data. It carries everything needed
// to attempt decryption except the key material itself.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	KeyID      string `json:"keyId"`
	Algorithm  string `json:"algorithm"`
	Type       string `json:"type"`
}

// NewEnvelope wraps a ciphertext and IV for the wire.
func NewEnvelope(ciphertext, iv []byte, keyID, encryptionType string) *Envelope {
	return &Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		KeyID:      keyID,
		Algorithm:  AlgorithmAESGCM,
		Type:       encryptionType,
	}
}

// Marshal serializes the envelope to its JSON wire form.
func (e *Envelope) Marshal() (string, error) {
	serialized, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(serialized), nil
}

// ParseEnvelope deserializes an envelope from the wire.
func ParseEnvelope(serialized string) (*Envelope, error) {
	envelope := &Envelope{}
	if err := json.Unmarshal([]byte(serialized), envelope); err != nil {
		return nil, err
	}
	return envelope, nil
}

// Payload decodes the ciphertext and IV.
func (e *Envelope) Payload() (ciphertext, iv []byte, err error) {
	if ciphertext, err = base64.StdEncoding.DecodeString(e.Ciphertext); err != nil {
		return nil, nil, err
	}
	if iv, err = base64.StdEncoding.DecodeString(e.IV); err != nil {
		return nil, nil, err
	}
	return ciphertext, iv, nil
}
