// Copyright (C) 2025 CIPHERCHAT

package store

import "context"

// Proxy is a storage Provider that wraps other Providers.
// By default, it forwards calls directly to the implementation,
// but allows you to customize the behavior as you see fit by
// changing the individual functions.
type Proxy struct {
	Implementation Provider
	PutFunc        func(ctx context.Context, id string, dataType DataType, data []byte) error
	GetFunc        func(ctx context.Context, id string, dataType DataType) ([]byte, error)
	UpdateFunc     func(ctx context.Context, id string, dataType DataType, data []byte) error
	DeleteFunc     func(ctx context.Context, id string, dataType DataType) error
	ListFunc       func(ctx context.Context, dataType DataType) ([][]byte, error)
}

func (p *Proxy) Put(ctx context.Context, id string, dataType DataType, data []byte) error {
	return p.PutFunc(ctx, id, dataType, data)
}

func (p *Proxy) Get(ctx context.Context, id string, dataType DataType) ([]byte, error) {
	return p.GetFunc(ctx, id, dataType)
}

func (p *Proxy) Update(ctx context.Context, id string, dataType DataType, data []byte) error {
	return p.UpdateFunc(ctx, id, dataType, data)
}

func (p *Proxy) Delete(ctx context.Context, id string, dataType DataType) error {
	return p.DeleteFunc(ctx, id, dataType)
}

func (p *Proxy) List(ctx context.Context, dataType DataType) ([][]byte, error) {
	return p.ListFunc(ctx, dataType)
}

// NewProxy returns a basic implementation of Proxy that can be used as a
// basis for tests.
func NewProxy(implementation Provider) Proxy {
	return Proxy{
		Implementation: implementation,
		PutFunc:        implementation.Put,
		GetFunc:        implementation.Get,
		UpdateFunc:     implementation.Update,
		DeleteFunc:     implementation.Delete,
		ListFunc:       implementation.List,
	}
}
