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
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt implements a storage Provider backed by the key/value database bolt.
type Bolt struct {
	store *bolt.DB
}

// NewBolt creates a new storage Provider that stores its data in the
// specified file. One bucket is created per data type.
func NewBolt(path string) (*Bolt, error) {
	store, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = store.Update(func(tx *bolt.Tx) error {
		for dataType := DataType(0); dataType < DataTypeEnd; dataType++ {
			if _, err := tx.CreateBucketIfNotExists([]byte(dataType.String())); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Bolt{store}, nil
}

// Close releases the underlying database file.
func (b *Bolt) Close() error {
	return b.store.Close()
}

func (b *Bolt) Put(_ context.Context, id string, dataType DataType, data []byte) error {
	return b.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dataType.String()))
		if bucket.Get([]byte(id)) != nil {
			return ErrAlreadyExists
		}
		return bucket.Put([]byte(id), data)
	})
}

func (b *Bolt) Get(_ context.Context, id string, dataType DataType) ([]byte, error) {
	var out []byte
	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dataType.String()))
		out = append(out, bucket.Get([]byte(id))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (b *Bolt) Update(_ context.Context, id string, dataType DataType, data []byte) error {
	return b.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dataType.String()))
		if bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bucket.Put([]byte(id), data)
	})
}

func (b *Bolt) Delete(_ context.Context, id string, dataType DataType) error {
	return b.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dataType.String()))
		return bucket.Delete([]byte(id))
	})
}

func (b *Bolt) List(_ context.Context, dataType DataType) ([][]byte, error) {
	var out [][]byte
	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dataType.String()))
		return bucket.ForEach(func(_, value []byte) error {
			out = append(out, append([]byte(nil), value...))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
