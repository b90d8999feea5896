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

// Package config provides library configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"

	cipherchat "github.com/cipherchat/cipherchat-lib"
	"github.com/cipherchat/cipherchat-lib/pin"
)

// Config holds all library configuration.
type Config struct {
	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// StorePath is the bolt database file for the key history and PIN
	// credential. Empty selects the in-memory store.
	StorePath string

	// TrustedDeployment marks this as the canonical, managed deployment
	// domain, raising the recommended security levels.
	TrustedDeployment bool

	// RotationIntervalDays is the key age in days that triggers rotation.
	RotationIntervalDays int
	// RotationAutoRotate enables scheduled rotation.
	RotationAutoRotate bool
	// RotationRetainKeys is the number of key records kept after pruning.
	RotationRetainKeys int

	// PinMaxAttempts is the number of failed PIN checks before lockout.
	PinMaxAttempts int
	// PinLockoutTime is the lockout duration after too many failed checks.
	PinLockoutTime time.Duration
	// PinDigits is the required PIN length.
	PinDigits int
	// PinEnforceComplexity rejects trivial digit patterns in new PINs.
	PinEnforceComplexity bool
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		LogLevel:          env.GetString("CIPHERCHAT_LOG_LEVEL", "info"),
		StorePath:         env.GetString("CIPHERCHAT_STORE_PATH", ""),
		TrustedDeployment: env.GetBool("CIPHERCHAT_TRUSTED_DEPLOYMENT", false),

		RotationIntervalDays: env.GetInt("CIPHERCHAT_ROTATION_INTERVAL_DAYS", 30),
		RotationAutoRotate:   env.GetBool("CIPHERCHAT_ROTATION_AUTO_ROTATE", true),
		RotationRetainKeys:   env.GetInt("CIPHERCHAT_ROTATION_RETAIN_KEYS", 3),

		PinMaxAttempts:       env.GetInt("CIPHERCHAT_PIN_MAX_ATTEMPTS", 5),
		PinLockoutTime:       env.GetDuration("CIPHERCHAT_PIN_LOCKOUT_SECONDS", 300, time.Second),
		PinDigits:            env.GetInt("CIPHERCHAT_PIN_DIGITS", 6),
		PinEnforceComplexity: env.GetBool("CIPHERCHAT_PIN_ENFORCE_COMPLEXITY", true),
	}
}

// RotationPolicy maps the configuration to a key rotation policy.
func (c *Config) RotationPolicy() cipherchat.RotationPolicy {
	return cipherchat.RotationPolicy{
		IntervalDays:       c.RotationIntervalDays,
		AutoRotate:         c.RotationAutoRotate,
		RetainPreviousKeys: c.RotationRetainKeys,
	}
}

// PinConfig maps the configuration to a PIN policy.
func (c *Config) PinConfig() pin.Config {
	return pin.Config{
		MaxAttempts:    c.PinMaxAttempts,
		LockoutTime:    c.PinLockoutTime,
		Digits:         c.PinDigits,
		SkipComplexity: !c.PinEnforceComplexity,
	}
}

// loadDotEnv searches for a .env file from the current directory up to the
// root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
			return
		}
		if dir == filepath.Dir(dir) {
			return
		}
	}
}
