// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{
			name:    "nil",
			err:     nil,
			wantErr: nil,
		},
		{
			name:    "generic error",
			err:     errors.New("some error"),
			wantErr: errors.New("some error"),
		},
		{
			name:    "no rows",
			err:     fmt.Errorf("scanning: %w", pgx.ErrNoRows),
			wantErr: ErrNoRows,
		},
		{
			name: "42P01 undefined_table",
			err: &pgconn.PgError{
				Code:    "42P01",
				Message: `relation "mappings" does not exist`,
			},
			wantErr: &ErrRelationDoesNotExist{Details: `relation "mappings" does not exist`},
		},
		{
			name: "42703 undefined_column",
			err: &pgconn.PgError{
				Code:    "42703",
				Message: `column "source_value" does not exist`,
			},
			wantErr: &ErrRelationDoesNotExist{Details: `column "source_value" does not exist`},
		},
		{
			name: "42501 insufficient_privilege",
			err: &pgconn.PgError{
				Code:    "42501",
				Message: "permission denied for table mappings",
			},
			wantErr: &ErrPermissionDenied{Details: "permission denied for table mappings"},
		},
		{
			name: "42601 syntax_error",
			err: &pgconn.PgError{
				Code:    "42601",
				Message: `syntax error at or near "FORM"`,
			},
			wantErr: &ErrSyntaxError{Details: `syntax error at or near "FORM"`},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.wantErr, MapError(tc.err))
		})
	}
}

func TestIsRetriable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "connection error",
			err:  errors.New("connection refused"),
			want: true,
		},
		{
			name: "undefined table",
			err:  &pgconn.PgError{Code: "42P01"},
			want: false,
		},
		{
			name: "context canceled",
			err:  fmt.Errorf("querying: %w", context.Canceled),
			want: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, IsRetriable(tc.err))
		})
	}
}
