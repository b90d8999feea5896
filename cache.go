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
	"sync"

	"github.com/cipherchat/cipherchat-lib/data"
)

// KeyCache holds live key handles for reuse within a session. It is purely an
// optimization: a miss is always recoverable by re-importing the key from its
// history record. Contents are in-memory only and never persisted.
type KeyCache struct {
	mu   sync.Mutex
	keys map[string]*data.Key

	// maxSize caps the number of entries; 0 means unbounded.
	maxSize int
}

// NewKeyCache creates an unbounded session-scoped key cache.
func NewKeyCache() *KeyCache {
	return &KeyCache{keys: make(map[string]*data.Key)}
}

// NewKeyCacheWithLimit creates a key cache that drops an arbitrary entry once
// maxSize is exceeded.
func NewKeyCacheWithLimit(maxSize int) *KeyCache {
	return &KeyCache{keys: make(map[string]*data.Key), maxSize: maxSize}
}

// Get returns the cached key handle for the ID, if present.
func (c *KeyCache) Get(keyID string) (*data.Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok := c.keys[keyID]
	return key, ok
}

// Put caches a key handle under its ID.
func (c *KeyCache) Put(key *data.Key) {
	if key == nil || key.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxSize > 0 && len(c.keys) >= c.maxSize {
		if _, ok := c.keys[key.ID]; !ok {
			for id := range c.keys {
				delete(c.keys, id)
				break
			}
		}
	}
	c.keys[key.ID] = key
}

// Delete removes a key handle from the cache.
func (c *KeyCache) Delete(keyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, keyID)
}

// Len returns the number of cached keys.
func (c *KeyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}
