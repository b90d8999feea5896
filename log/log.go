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

package log

import (
	"github.com/rs/zerolog"
)

// WithMethod adds a method field to the log.
func WithMethod(l *zerolog.Logger, method string) {
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("method", method)
	})
}

// WithKeyID adds a key ID field to the log.
func WithKeyID(l *zerolog.Logger, keyID string) {
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("keyId", keyID)
	})
}

// WithSecurityLevel adds a security level field to the log.
func WithSecurityLevel(l *zerolog.Logger, level string) {
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("securityLevel", level)
	})
}
