// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"math"
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseMappings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any

		wantMappings Mappings
		wantErr      error
	}{
		{
			name:         "ok - nil",
			input:        nil,
			wantMappings: Mappings{},
		},
		{
			name:         "ok - typed mappings",
			input:        testMappings(),
			wantMappings: testMappings(),
		},
		{
			name: "ok - object lookups",
			input: map[string]any{
				"a": map[string]any{"x": 1, "y": 2},
				"b": map[string]string{"x": "z"},
			},
			wantMappings: Mappings{
				"a": {"x": 1, "y": 2},
				"b": {"x": "z"},
			},
		},
		{
			name: "ok - pair lookups",
			input: map[any]any{
				"a": []any{
					map[string]any{"from": 1, "to": "one"},
					map[string]any{"from": nil, "to": "none"},
					map[any]any{"from": true, "to": nil},
				},
			},
			wantMappings: Mappings{
				"a": {1: "one", nil: "none", true: nil},
			},
		},
		{
			name:    "error - not an object",
			input:   []any{"a"},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "error - non string column name",
			input:   map[any]any{1: map[string]any{"x": "y"}},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "error - invalid lookup",
			input:   map[string]any{"a": "x"},
			wantErr: ErrInvalidParameters,
		},
		{
			name: "error - pair missing target",
			input: map[string]any{
				"a": []any{map[string]any{"from": 1}},
			},
			wantErr: ErrInvalidParameters,
		},
		{
			name: "error - pair with unknown field",
			input: map[string]any{
				"a": []any{map[string]any{"from": 1, "to": 2, "other": 3}},
			},
			wantErr: ErrInvalidParameters,
		},
		{
			name: "error - pair with unhashable source",
			input: map[string]any{
				"a": []any{map[string]any{"from": []any{1}, "to": 2}},
			},
			wantErr: ErrInvalidParameters,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseMappings(tc.input)
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantMappings, got)
		})
	}
}

func TestParseMappings_yaml(t *testing.T) {
	t.Parallel()

	doc := `
a:
  "1": one
  "2": two
b:
  - from: 1
    to: true
  - from: 2.5
    to: false
`
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))

	got, err := ParseMappings(raw)
	require.NoError(t, err)
	require.Equal(t, Mappings{
		"a": {"1": "one", "2": "two"},
		"b": {1: true, 2.5: false},
	}, got)
}

func TestMappings_Clone(t *testing.T) {
	t.Parallel()

	m := testMappings()
	c := m.Clone()
	require.Equal(t, m, c)

	c["a"][1] = "z"
	delete(c, "b")
	require.Equal(t, testMappings(), m)

	require.Nil(t, Mappings(nil).Clone())
	require.ElementsMatch(t, []string{"a", "b"}, m.Columns())
}

func TestLookup_apply_collidingKeysAreDeterministic(t *testing.T) {
	t.Parallel()

	lookup := Lookup{1.0: "float", int64(1): "int64", uint8(1): "uint8", int32(1): "int32"}
	input := series.New([]int{1}, series.Int, "a")

	for i := 0; i < 200; i++ {
		got := lookup.apply(input)
		require.NoError(t, got.Err)
		require.Equal(t, []string{"float"}, got.Records())
	}
}

func TestNormaliseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any

		want any
	}{
		{name: "int64", value: int64(-5), want: -5},
		{name: "uint8", value: uint8(7), want: 7},
		{name: "uint64 in range", value: uint64(42), want: 42},
		{name: "uint64 max does not wrap", value: uint64(math.MaxUint64), want: float64(math.MaxUint64)},
		{name: "uint above max int", value: uint(math.MaxInt) + 1, want: float64(uint(math.MaxInt) + 1)},
		{name: "float32", value: float32(0.5), want: 0.5},
		{name: "bytes", value: []byte("x"), want: "x"},
		{name: "nil", value: nil, want: nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, normaliseValue(tc.value))
		})
	}
}

func TestLookup_apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lookup Lookup
		input  series.Series

		wantType    series.Type
		wantRecords []string
	}{
		{
			name:        "empty lookup keeps the series",
			lookup:      Lookup{},
			input:       series.New([]int{1, 2}, series.Int, "a"),
			wantType:    series.Int,
			wantRecords: []string{"1", "2"},
		},
		{
			name:        "bool and int become strings",
			lookup:      Lookup{1: true},
			input:       series.New([]int{1, 2}, series.Int, "a"),
			wantType:    series.String,
			wantRecords: []string{"true", "2"},
		},
		{
			name:        "float keys match integral cells",
			lookup:      Lookup{2.0: "two"},
			input:       series.New([]int{1, 2}, series.Int, "a"),
			wantType:    series.String,
			wantRecords: []string{"1", "two"},
		},
		{
			name:        "colliding keys prefer the cell type",
			lookup:      Lookup{1: "int", 1.0: "float", int64(1): "int64"},
			input:       series.New([]float64{1, 2}, series.Float, "a"),
			wantType:    series.String,
			wantRecords: []string{"float", "2"},
		},
		{
			name:        "colliding keys prefer float64 over other widths",
			lookup:      Lookup{int64(1): "int64", int8(1): "int8", 1.0: "float"},
			input:       series.New([]int{1, 5}, series.Int, "a"),
			wantType:    series.String,
			wantRecords: []string{"float", "5"},
		},
		{
			name:        "all values missing keeps the type",
			lookup:      Lookup{1: nil, 2: nil},
			input:       series.New([]int{1, 2}, series.Int, "a"),
			wantType:    series.Int,
			wantRecords: []string{"NaN", "NaN"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := tc.lookup.apply(tc.input)
			require.NoError(t, got.Err)
			require.Equal(t, "a", got.Name)
			require.Equal(t, tc.wantType, got.Type())
			require.Equal(t, tc.wantRecords, got.Records())
		})
	}
}
