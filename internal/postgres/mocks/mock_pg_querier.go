// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/tabmap/internal/postgres"
)

type Querier struct {
	QueryRowFn func(ctx context.Context, query string, args ...any) postgres.Row
	QueryFn    func(ctx context.Context, i uint, query string, args ...any) (postgres.Rows, error)
	PingFn     func(context.Context) error
	CloseFn    func(context.Context) error
	queryCalls uint32
}

func (m *Querier) QueryRow(ctx context.Context, query string, args ...any) postgres.Row {
	return m.QueryRowFn(ctx, query, args...)
}

func (m *Querier) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	calls := atomic.AddUint32(&m.queryCalls, 1)
	return m.QueryFn(ctx, uint(calls), query, args...)
}

func (m *Querier) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

func (m *Querier) Close(ctx context.Context) error {
	if m.CloseFn != nil {
		return m.CloseFn(ctx)
	}
	return nil
}

func (m *Querier) QueryCalls() uint {
	return uint(atomic.LoadUint32(&m.queryCalls))
}
