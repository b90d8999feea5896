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
	"time"

	"github.com/gofrs/uuid"
	json "github.com/json-iterator/go"
)

// RotationAudit records one key replacement. Audits are stored alongside the
// new key and pruned together with it.
type RotationAudit struct {
	ID                uuid.UUID `json:"id"`
	KeyID             string    `json:"keyId"`
	RotatedFrom       string    `json:"rotatedFrom"`
	FromSecurityLevel string    `json:"fromSecurityLevel"`
	ToSecurityLevel   string    `json:"toSecurityLevel"`
	EncryptionType    string    `json:"encryptionType,omitempty"`
	RotatedAt         time.Time `json:"rotatedAt"`
}

// NewRotationAudit creates an audit entry for a rotation from one key to its
// replacement.
func NewRotationAudit(newKeyID, rotatedFrom, fromLevel, toLevel, encryptionType string) (*RotationAudit, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &RotationAudit{
		ID:                id,
		KeyID:             newKeyID,
		RotatedFrom:       rotatedFrom,
		FromSecurityLevel: fromLevel,
		ToSecurityLevel:   toLevel,
		EncryptionType:    encryptionType,
		RotatedAt:         time.Now(),
	}, nil
}

// Marshal serializes the audit for storage.
func (a *RotationAudit) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// ParseRotationAudit deserializes a stored audit entry.
func ParseRotationAudit(serialized []byte) (*RotationAudit, error) {
	audit := &RotationAudit{}
	if err := json.Unmarshal(serialized, audit); err != nil {
		return nil, err
	}
	return audit, nil
}
