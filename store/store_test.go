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

package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// The Provider contract is identical across backings, so every implementation
// runs the same suite.
func providers(t *testing.T) map[string]Provider {
	boltStore, err := NewBolt(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBolt: %v", err)
	}
	t.Cleanup(func() { boltStore.Close() })
	return map[string]Provider{
		"mem":  NewMem(),
		"bolt": boltStore,
	}
}

func TestProviderPutGet(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := provider.Put(ctx, "id1", DataTypeKeyRecord, []byte("payload")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			out, err := provider.Get(ctx, "id1", DataTypeKeyRecord)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(out, []byte("payload")) {
				t.Fatalf("data doesn't match: %q", out)
			}
		})
	}
}

func TestProviderPutTwice(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := provider.Put(ctx, "id1", DataTypeKeyRecord, []byte("first")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := provider.Put(ctx, "id1", DataTypeKeyRecord, []byte("second")); !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}
		})
	}
}

func TestProviderGetMissing(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := provider.Get(context.Background(), "missing", DataTypeKeyRecord); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestProviderUpdate(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := provider.Update(ctx, "id1", DataTypeKeyRecord, []byte("data")); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := provider.Put(ctx, "id1", DataTypeKeyRecord, []byte("first")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := provider.Update(ctx, "id1", DataTypeKeyRecord, []byte("second")); err != nil {
				t.Fatalf("Update: %v", err)
			}
			out, err := provider.Get(ctx, "id1", DataTypeKeyRecord)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(out, []byte("second")) {
				t.Fatalf("data doesn't match: %q", out)
			}
		})
	}
}

func TestProviderDelete(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := provider.Put(ctx, "id1", DataTypeKeyRecord, []byte("data")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := provider.Delete(ctx, "id1", DataTypeKeyRecord); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := provider.Get(ctx, "id1", DataTypeKeyRecord); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			// Deleting data that was never stored is not an error.
			if err := provider.Delete(ctx, "missing", DataTypeKeyRecord); err != nil {
				t.Fatalf("Delete: %v", err)
			}
		})
	}
}

func TestProviderList(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"id1", "id2", "id3"} {
				if err := provider.Put(ctx, id, DataTypeKeyRecord, []byte(id)); err != nil {
					t.Fatalf("Put: %v", err)
				}
			}
			if err := provider.Put(ctx, "audit1", DataTypeRotationAudit, []byte("audit")); err != nil {
				t.Fatalf("Put: %v", err)
			}

			out, err := provider.List(ctx, DataTypeKeyRecord)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(out) != 3 {
				t.Fatalf("expected 3 entries, got %d", len(out))
			}
			audits, err := provider.List(ctx, DataTypeRotationAudit)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(audits) != 1 {
				t.Fatalf("expected 1 audit entry, got %d", len(audits))
			}
		})
	}
}

func TestProviderDataTypeIsolation(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := provider.Put(ctx, "shared", DataTypeKeyRecord, []byte("key")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := provider.Put(ctx, "shared", DataTypeRotationAudit, []byte("audit")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			out, err := provider.Get(ctx, "shared", DataTypeRotationAudit)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(out, []byte("audit")) {
				t.Fatalf("data types are not isolated: %q", out)
			}
		})
	}
}

func TestMemCopiesData(t *testing.T) {
	provider := NewMem()
	ctx := context.Background()
	data := []byte("mutable")
	if err := provider.Put(ctx, "id1", DataTypeKeyRecord, data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data[0] = 'X'

	out, err := provider.Get(ctx, "id1", DataTypeKeyRecord)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(out, []byte("mutable")) {
		t.Fatalf("stored data aliases the caller's buffer")
	}
	out[0] = 'Y'
	again, err := provider.Get(ctx, "id1", DataTypeKeyRecord)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(again, []byte("mutable")) {
		t.Fatalf("returned data aliases the stored buffer")
	}
}

func TestBoltReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	provider, err := NewBolt(path)
	if err != nil {
		t.Fatalf("NewBolt: %v", err)
	}
	ctx := context.Background()
	if err := provider.Put(ctx, "id1", DataTypeKeyRecord, []byte("durable")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := provider.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewBolt(path)
	if err != nil {
		t.Fatalf("NewBolt: %v", err)
	}
	defer reopened.Close()
	out, err := reopened.Get(ctx, "id1", DataTypeKeyRecord)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(out, []byte("durable")) {
		t.Fatalf("data doesn't survive reopen: %q", out)
	}
}
