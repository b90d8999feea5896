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
	"context"
	"strings"
	"sync"
)

// Mem implements an in-memory version of a storage Provider. Contents are
// lost when the process exits; callers must not assume durability.
type Mem struct {
	data sync.Map
}

// NewMem creates a new in-memory storage Provider.
func NewMem() *Mem {
	return &Mem{}
}

func memKey(id string, dataType DataType) string {
	return dataType.String() + ":" + id
}

func (m *Mem) Put(_ context.Context, id string, dataType DataType, data []byte) error {
	key := memKey(id, dataType)
	if _, loaded := m.data.LoadOrStore(key, append([]byte(nil), data...)); loaded {
		return ErrAlreadyExists
	}
	return nil
}

func (m *Mem) Get(_ context.Context, id string, dataType DataType) ([]byte, error) {
	out, ok := m.data.Load(memKey(id, dataType))
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), out.([]byte)...), nil
}

func (m *Mem) Update(_ context.Context, id string, dataType DataType, data []byte) error {
	key := memKey(id, dataType)
	if _, ok := m.data.Load(key); !ok {
		return ErrNotFound
	}
	m.data.Store(key, append([]byte(nil), data...))
	return nil
}

func (m *Mem) Delete(_ context.Context, id string, dataType DataType) error {
	m.data.Delete(memKey(id, dataType))
	return nil
}

func (m *Mem) List(_ context.Context, dataType DataType) ([][]byte, error) {
	prefix := dataType.String() + ":"
	var out [][]byte
	m.data.Range(func(key, value any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			out = append(out, append([]byte(nil), value.([]byte)...))
		}
		return true
	})
	return out, nil
}
