// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	pglib "github.com/xataio/tabmap/internal/postgres"
	pgmocks "github.com/xataio/tabmap/internal/postgres/mocks"
	"github.com/xataio/tabmap/pkg/transformers"
)

type testRow struct {
	column string
	source *string
	target *string
}

func ptr(s string) *string { return &s }

func mockRows(rows []testRow) *pgmocks.Rows {
	return &pgmocks.Rows{
		NextFn: func(i uint) bool { return i <= uint(len(rows)) },
		ScanFn: func(i uint, dest ...any) error {
			row := rows[i-1]
			*dest[0].(*string) = row.column
			*dest[1].(**string) = row.source
			*dest[2].(**string) = row.target
			return nil
		},
	}
}

func TestNewLoader_config(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *Config

		wantTable     string
		wantValueType ValueType
		wantErr       error
	}{
		{
			name:          "ok - defaults",
			cfg:           &Config{},
			wantTable:     `"tabmap_mappings"`,
			wantValueType: StringValue,
		},
		{
			name:          "ok - qualified table",
			cfg:           &Config{Table: "lookups.values", ValueType: IntValue},
			wantTable:     `"lookups"."values"`,
			wantValueType: IntValue,
		},
		{
			name:    "error - unsupported value type",
			cfg:     &Config{ValueType: "date"},
			wantErr: ErrUnsupportedValueType,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l, err := newLoader(tc.cfg)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantErr != nil {
				return
			}
			require.Equal(t, tc.wantTable, l.table)
			require.Equal(t, tc.wantValueType, l.valueType)
		})
	}

	t.Run("error - invalid table", func(t *testing.T) {
		t.Parallel()

		_, err := newLoader(&Config{Table: "a.b.c"})
		require.Error(t, err)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name      string
		columns   []string
		valueType ValueType
		querier   *pgmocks.Querier

		wantMappings transformers.Mappings
		wantErr      error
	}{
		{
			name:      "ok - all columns",
			valueType: StringValue,
			querier: &pgmocks.Querier{
				QueryFn: func(_ context.Context, _ uint, query string, args ...any) (pglib.Rows, error) {
					require.Equal(t, `SELECT column_name, source_value, target_value FROM "tabmap_mappings" ORDER BY column_name`, query)
					require.Empty(t, args)
					return mockRows([]testRow{
						{column: "a", source: ptr("1"), target: ptr("one")},
						{column: "a", source: nil, target: ptr("none")},
						{column: "b", source: ptr("x"), target: nil},
					}), nil
				},
			},
			wantMappings: transformers.Mappings{
				"a": {"1": "one", nil: "none"},
				"b": {"x": nil},
			},
		},
		{
			name:      "ok - filtered columns with int values",
			columns:   []string{"b"},
			valueType: IntValue,
			querier: &pgmocks.Querier{
				QueryFn: func(_ context.Context, _ uint, query string, args ...any) (pglib.Rows, error) {
					require.Equal(t, `SELECT column_name, source_value, target_value FROM "tabmap_mappings" WHERE column_name = ANY($1) ORDER BY column_name`, query)
					require.Equal(t, []any{[]string{"b"}}, args)
					return mockRows([]testRow{
						{column: "b", source: ptr("a"), target: ptr("1")},
						{column: "b", source: ptr("b"), target: ptr("2")},
					}), nil
				},
			},
			wantMappings: transformers.Mappings{
				"b": {"a": 1, "b": 2},
			},
		},
		{
			name:      "ok - no rows",
			valueType: StringValue,
			querier: &pgmocks.Querier{
				QueryFn: func(_ context.Context, _ uint, _ string, _ ...any) (pglib.Rows, error) {
					return mockRows(nil), nil
				},
			},
			wantMappings: transformers.Mappings{},
		},
		{
			name:      "error - invalid target value",
			valueType: FloatValue,
			querier: &pgmocks.Querier{
				QueryFn: func(_ context.Context, _ uint, _ string, _ ...any) (pglib.Rows, error) {
					return mockRows([]testRow{
						{column: "a", source: ptr("1"), target: ptr("one")},
					}), nil
				},
			},
			wantErr: ErrInvalidTargetValue,
		},
		{
			name:      "error - querying",
			valueType: StringValue,
			querier: &pgmocks.Querier{
				QueryFn: func(_ context.Context, _ uint, _ string, _ ...any) (pglib.Rows, error) {
					return nil, errTest
				},
			},
			wantErr: errTest,
		},
		{
			name:      "error - scanning",
			valueType: StringValue,
			querier: &pgmocks.Querier{
				QueryFn: func(_ context.Context, _ uint, _ string, _ ...any) (pglib.Rows, error) {
					return &pgmocks.Rows{
						NextFn: func(i uint) bool { return i == 1 },
						ScanFn: func(_ uint, _ ...any) error { return errTest },
					}, nil
				},
			},
			wantErr: errTest,
		},
		{
			name:      "error - rows",
			valueType: StringValue,
			querier: &pgmocks.Querier{
				QueryFn: func(_ context.Context, _ uint, _ string, _ ...any) (pglib.Rows, error) {
					return &pgmocks.Rows{
						NextFn: func(uint) bool { return false },
						ErrFn:  func() error { return errTest },
					}, nil
				},
			},
			wantErr: errTest,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l, err := newLoader(&Config{Columns: tc.columns, ValueType: tc.valueType})
			require.NoError(t, err)
			l.querier = tc.querier

			got, err := l.Load(context.Background())
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantMappings, got)
			require.NoError(t, l.Close())
		})
	}
}

func TestLoader_convert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		valueType ValueType
		value     *string

		want    any
		wantErr error
	}{
		{valueType: StringValue, value: ptr("a"), want: "a"},
		{valueType: IntValue, value: ptr("42"), want: 42},
		{valueType: FloatValue, value: ptr("4.2"), want: 4.2},
		{valueType: BoolValue, value: ptr("true"), want: true},
		{valueType: IntValue, value: nil, want: nil},
		{valueType: BoolValue, value: ptr("maybe"), wantErr: ErrInvalidTargetValue},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(string(tc.valueType), func(t *testing.T) {
			t.Parallel()

			l := &Loader{valueType: tc.valueType}
			got, err := l.convert(tc.value)
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.want, got)
		})
	}
}
