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

// SecurityLevel is the policy tier applied to a key. It controls key strength
// and handling strategy, not the cipher itself.
type SecurityLevel string

const (
	// SecurityStandard is standard encryption with a 128-bit key.
	SecurityStandard SecurityLevel = "STANDARD"

	// SecurityE2EE is end-to-end encryption with a 256-bit key.
	SecurityE2EE SecurityLevel = "E2EE"

	// SecurityP2PE2EE is peer-to-peer end-to-end encryption. Same key length
	// as E2EE, stricter handling policy.
	SecurityP2PE2EE SecurityLevel = "P2P_E2EE"
)

// KeyBits returns the key length in bits for the level.
func (l SecurityLevel) KeyBits() int {
	if l == SecurityStandard {
		return 128
	}
	return 256
}

// Strength returns the policy label of the level.
func (l SecurityLevel) Strength() string {
	switch l {
	case SecurityStandard:
		return "standard"
	case SecurityE2EE:
		return "high"
	default:
		return "ultra"
	}
}

// EncryptionType describes what kind of payload a key protects.
type EncryptionType string

const (
	// TypeMessage is for individual messages.
	TypeMessage EncryptionType = "MESSAGE"

	// TypeWholePage is for entire pages.
	TypeWholePage EncryptionType = "WHOLE_PAGE"

	// TypeFile is for files and attachments.
	TypeFile EncryptionType = "FILE"

	// TypeUserData is for user profile data.
	TypeUserData EncryptionType = "USER_DATA"
)

// RecommendedSecurityLevel returns the security level to use for an
// encryption type. Trusted deployments (the canonical, managed domain) get
// the strictest defaults; elsewhere user data falls back to standard
// encryption while message content stays end-to-end encrypted.
func RecommendedSecurityLevel(encryptionType EncryptionType, trustedDeployment bool) SecurityLevel {
	if trustedDeployment {
		switch encryptionType {
		case TypeFile, TypeWholePage:
			return SecurityP2PE2EE
		default:
			return SecurityE2EE
		}
	}
	if encryptionType == TypeUserData {
		return SecurityStandard
	}
	return SecurityE2EE
}
