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

// Package store contains the definition of the storage Provider, as well as
// various implementations of the concept. The key history and the PIN
// credential are persisted through a Provider, so callers get one code path
// whether the backing is in-memory or durable.
package store

import (
	"context"
	"errors"
)

// Error returned if data is not found during a "Get" or "Update" call.
var ErrNotFound = errors.New("not found")

// Error returned if data is found during a "Put" call.
var ErrAlreadyExists = errors.New("already exists")

// Types of data supported by a storage Provider.
type DataType uint16

const (
	DataTypeKeyRecord DataType = iota
	DataTypeRotationAudit
	DataTypePinCredential
	DataTypeEnd
)

// String returns a string representation of a DataType.
func (d DataType) String() string {
	switch d {
	case DataTypeKeyRecord:
		return "key_record"
	case DataTypeRotationAudit:
		return "rotation_audit"
	case DataTypePinCredential:
		return "pin_credential"
	default:
		return "unknown"
	}
}

// Provider is the interface a storage backend must implement to hold the
// library's bookkeeping data. All methods take a Context as durable backings
// may block.
type Provider interface {
	// Put sends bytes to the Provider. The data is identified by an ID and a
	// data type. Errors with ErrAlreadyExists if the ID is taken.
	Put(ctx context.Context, id string, dataType DataType, data []byte) error

	// Get fetches data from the Provider.
	Get(ctx context.Context, id string, dataType DataType) ([]byte, error)

	// Update overwrites data previously sent to the Provider. Errors with
	// ErrNotFound if the data does not exist.
	Update(ctx context.Context, id string, dataType DataType, data []byte) error

	// Delete removes data previously sent to the Provider. Deleting data that
	// does not exist is not an error.
	Delete(ctx context.Context, id string, dataType DataType) error

	// List returns all stored entries of the given data type.
	List(ctx context.Context, dataType DataType) ([][]byte, error)
}
