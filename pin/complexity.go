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

package pin

import "fmt"

// Validate checks a PIN against the policy: exactly cfg.Digits numeric
// characters, and, for PINs of 6 digits or more unless the policy skips
// complexity, no window of 3 identical, strictly ascending, or strictly
// descending digits. All failures wrap ErrWeakPin.
func Validate(pin string, cfg Config) error {
	if len(pin) != cfg.Digits {
		return fmt.Errorf("%w: pin must be exactly %d digits", ErrWeakPin, cfg.Digits)
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: pin must contain only digits", ErrWeakPin)
		}
	}
	if cfg.SkipComplexity || len(pin) < 6 {
		return nil
	}

	for i := 0; i+2 < len(pin); i++ {
		a, b, c := pin[i], pin[i+1], pin[i+2]
		switch {
		case a == b && b == c:
			return fmt.Errorf("%w: repeated digits", ErrWeakPin)
		case b == a+1 && c == b+1:
			return fmt.Errorf("%w: ascending digit sequence", ErrWeakPin)
		case b == a-1 && c == b-1:
			return fmt.Errorf("%w: descending digit sequence", ErrWeakPin)
		}
	}
	return nil
}
