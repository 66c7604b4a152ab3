// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Querier interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

type Row interface {
	Scan(dest ...any) error
}

var _ Rows = (pgx.Rows)(nil)

type mappedRow struct {
	inner Row
}

func (mr *mappedRow) Scan(dest ...any) error {
	return MapError(mr.inner.Scan(dest...))
}
