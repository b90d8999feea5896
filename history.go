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
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cipherchat/cipherchat-lib/data"
	"github.com/cipherchat/cipherchat-lib/store"
)

// KeyHistory is the bookkeeping of issued keys for rotation and audit. It
// presents the same interface whether the backing Provider is in-memory or
// durable.
type KeyHistory struct {
	provider store.Provider
}

// NewKeyHistory creates a key history over the given storage Provider.
func NewKeyHistory(provider store.Provider) *KeyHistory {
	return &KeyHistory{provider}
}

// Record stores the record of an issued key. Records are immutable; recording
// the same key ID twice is an error.
func (h *KeyHistory) Record(ctx context.Context, record *data.KeyRecord) error {
	serialized, err := record.Marshal()
	if err != nil {
		return err
	}
	return h.provider.Put(ctx, record.ID, store.DataTypeKeyRecord, serialized)
}

// Get fetches a key record by ID. Returns ErrKeyNotFound if the key was
// pruned or never recorded.
func (h *KeyHistory) Get(ctx context.Context, keyID string) (*data.KeyRecord, error) {
	serialized, err := h.provider.Get(ctx, keyID, store.DataTypeKeyRecord)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	if err != nil {
		return nil, err
	}
	return data.ParseKeyRecord(serialized)
}

// List returns all key records, oldest first.
func (h *KeyHistory) List(ctx context.Context) ([]*data.KeyRecord, error) {
	entries, err := h.provider.List(ctx, store.DataTypeKeyRecord)
	if err != nil {
		return nil, err
	}
	records := make([]*data.KeyRecord, 0, len(entries))
	for _, entry := range entries {
		record, err := data.ParseKeyRecord(entry)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	sortRecords(records)
	return records, nil
}

// ListOlderThan returns all key records created before the cutoff, oldest
// first.
func (h *KeyHistory) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*data.KeyRecord, error) {
	records, err := h.List(ctx)
	if err != nil {
		return nil, err
	}
	older := records[:0]
	for _, record := range records {
		if record.CreatedAt.Before(cutoff) {
			older = append(older, record)
		}
	}
	return older, nil
}

// Prune deletes the oldest key records until at most retain remain, along
// with the rotation audits associated with the deleted keys. It never deletes
// anything when the record count is within the retention limit. Returns the
// IDs of the removed keys so callers can evict them elsewhere, e.g. from a
// session cache.
func (h *KeyHistory) Prune(ctx context.Context, retain int) ([]string, error) {
	if retain < 0 {
		retain = 0
	}
	records, err := h.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) <= retain {
		return nil, nil
	}

	audits, err := h.Audits(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, record := range records[:len(records)-retain] {
		if err := h.provider.Delete(ctx, record.ID, store.DataTypeKeyRecord); err != nil {
			return removed, err
		}
		for _, audit := range audits {
			if audit.KeyID == record.ID {
				if err := h.provider.Delete(ctx, audit.ID.String(), store.DataTypeRotationAudit); err != nil {
					return removed, err
				}
			}
		}
		removed = append(removed, record.ID)
	}
	return removed, nil
}

// RecordAudit stores a rotation audit entry.
func (h *KeyHistory) RecordAudit(ctx context.Context, audit *data.RotationAudit) error {
	serialized, err := audit.Marshal()
	if err != nil {
		return err
	}
	return h.provider.Put(ctx, audit.ID.String(), store.DataTypeRotationAudit, serialized)
}

// Audits returns all stored rotation audit entries.
func (h *KeyHistory) Audits(ctx context.Context) ([]*data.RotationAudit, error) {
	entries, err := h.provider.List(ctx, store.DataTypeRotationAudit)
	if err != nil {
		return nil, err
	}
	audits := make([]*data.RotationAudit, 0, len(entries))
	for _, entry := range entries {
		audit, err := data.ParseRotationAudit(entry)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, nil
}

// Count returns the number of key records in the history.
func (h *KeyHistory) Count(ctx context.Context) (int, error) {
	entries, err := h.provider.List(ctx, store.DataTypeKeyRecord)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Pruning order must be deterministic: strictly by creation time, with the
// key ID as a tie breaker.
func sortRecords(records []*data.KeyRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
