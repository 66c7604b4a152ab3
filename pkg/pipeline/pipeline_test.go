// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
	"github.com/xataio/tabmap/pkg/mappings/file"
	"github.com/xataio/tabmap/pkg/transformers"
	"github.com/xataio/tabmap/pkg/transformers/mocks"
)

func testFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{1, 2, 3}, series.Int, "a"),
		series.New([]string{"x", "y", "z"}, series.String, "b"),
	)
}

// appendStep returns a transformer that appends the suffix to every value of
// column b.
func appendStep(suffix string) *mocks.Transformer {
	return &mocks.Transformer{
		TransformFn: func(x any) (*dataframe.DataFrame, error) {
			df := x.(*dataframe.DataFrame)
			values := df.Col("b").Records()
			for i := range values {
				values[i] += suffix
			}
			out := df.Mutate(series.New(values, series.String, "b"))
			return &out, nil
		},
	}
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name  string
		steps []Step

		wantB   []string
		wantErr error
	}{
		{
			name: "ok - steps applied in order",
			steps: []Step{
				{Name: "first", Transformer: appendStep("1")},
				{Name: "second", Transformer: appendStep("2")},
			},
			wantB: []string{"x12", "y12", "z12"},
		},
		{
			name:  "ok - no steps",
			steps: nil,
			wantB: []string{"x", "y", "z"},
		},
		{
			name: "error - stops at first failure",
			steps: []Step{
				{Name: "first", Transformer: &mocks.Transformer{
					TransformFn: func(any) (*dataframe.DataFrame, error) { return nil, errTest },
				}},
				{Name: "second", Transformer: &mocks.Transformer{
					TransformFn: func(any) (*dataframe.DataFrame, error) {
						return nil, errors.New("unexpected call")
					},
				}},
			},
			wantErr: errTest,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			input := testFrame()
			got, err := New(tc.steps).Run(context.Background(), &input)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantErr != nil {
				require.Nil(t, got)
				return
			}
			require.NotSame(t, &input, got)
			require.Equal(t, tc.wantB, got.Col("b").Records())
			require.Equal(t, []string{"x", "y", "z"}, input.Col("b").Records())
		})
	}
}

func TestPipeline_Run_errors(t *testing.T) {
	t.Parallel()

	p := New([]Step{{Name: "first", Transformer: appendStep("1")}})

	_, err := p.Run(context.Background(), nil)
	require.ErrorIs(t, err, errNilTable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	input := testFrame()
	_, err = p.Run(ctx, &input)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_RunAll(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	step := appendStep("!")
	counting := &mocks.Transformer{
		TransformFn: func(x any) (*dataframe.DataFrame, error) {
			calls.Add(1)
			return step.TransformFn(x)
		},
	}
	p := New([]Step{{Name: "exclaim", Transformer: counting}}, WithConcurrency(2))

	tables := make([]Table, 5)
	for i := range tables {
		df := testFrame()
		tables[i] = Table{Name: fmt.Sprintf("table_%d", i), Frame: &df}
	}

	got, err := p.RunAll(context.Background(), tables)
	require.NoError(t, err)
	require.Len(t, got, len(tables))
	require.Equal(t, int32(len(tables)), calls.Load())
	for i, table := range got {
		require.Equal(t, tables[i].Name, table.Name)
		require.Equal(t, []string{"x!", "y!", "z!"}, table.Frame.Col("b").Records())
	}

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		_, err := p.RunAll(context.Background(), []Table{{Name: "nil"}})
		require.ErrorIs(t, err, errNilTable)
	})
}

func TestPipeline_Fit(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")
	input := testFrame()

	p := New([]Step{
		{Name: "ok", Transformer: &mocks.Transformer{}},
		{Name: "failing", Transformer: &mocks.Transformer{
			FitFn: func(any, *series.Series) error { return errTest },
		}},
	})
	require.ErrorIs(t, p.Fit(context.Background(), &input, nil), errTest)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	mappingsFile := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(mappingsFile, []byte("b:\n  x: 10\n  y: 20\n  z: 30\n"), 0o600))

	tests := []struct {
		name string
		cfg  *Config

		wantA   []string
		wantB   []string
		wantErr error
	}{
		{
			name: "ok - inline and file mappings",
			cfg: &Config{
				Transformers: []TransformerConfig{
					{
						Name:       "recode",
						Type:       transformers.Mapping,
						Parameters: transformers.Parameters{"columns": []any{"a", "b"}},
					},
				},
				Mappings: MappingsConfig{
					Inline: transformers.Mappings{
						"a": {1: "one", 2: "two"},
						"b": {"x": "overridden"},
					},
					Files: []file.Config{{Path: mappingsFile}},
				},
			},
			wantA: []string{"one", "two", "3"},
			wantB: []string{"10", "20", "30"},
		},
		{
			name: "ok - chained transformers",
			cfg: &Config{
				Transformers: []TransformerConfig{
					{Type: transformers.Mapping, Parameters: transformers.Parameters{
						"columns":  "a",
						"mappings": map[string]any{"a": map[string]any{"1": "one"}},
					}},
					{Type: transformers.Mapping, Parameters: transformers.Parameters{
						"columns":  "a",
						"mappings": map[string]any{"a": map[string]any{"one": "uno"}},
					}},
				},
			},
			wantA: []string{"uno", "2", "3"},
			wantB: []string{"x", "y", "z"},
		},
		{
			name:    "error - no transformers",
			cfg:     &Config{},
			wantErr: errNoTransformers,
		},
		{
			name: "error - invalid transformer",
			cfg: &Config{
				Transformers: []TransformerConfig{
					{Type: "unknown"},
				},
			},
			wantErr: transformers.ErrUnsupportedTransformer,
		},
		{
			name: "error - invalid mappings file",
			cfg: &Config{
				Transformers: []TransformerConfig{
					{Type: transformers.Mapping, Parameters: transformers.Parameters{"columns": "a"}},
				},
				Mappings: MappingsConfig{
					Files: []file.Config{{Path: "mappings.txt"}},
				},
			},
			wantErr: file.ErrUnsupportedFormat,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewFromConfig(context.Background(), tc.cfg)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantErr != nil {
				return
			}

			input := testFrame()
			got, err := p.Run(context.Background(), &input)
			require.NoError(t, err)
			require.Equal(t, tc.wantA, got.Col("a").Records())
			require.Equal(t, tc.wantB, got.Col("b").Records())
		})
	}
}

func TestNewFromConfig_builder(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Transformers: []TransformerConfig{
			{Name: "first", Type: transformers.Mapping, Parameters: transformers.Parameters{"columns": "a"}},
			{Name: "second", Type: transformers.Mapping, Parameters: transformers.Parameters{"columns": "b"}},
		},
		Mappings: MappingsConfig{
			Inline: transformers.Mappings{"a": {1: "one"}},
		},
	}

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		var built []*transformers.Config
		b := &mocks.TransformerBuilder{
			NewFn: func(c *transformers.Config) (transformers.Transformer, error) {
				built = append(built, c)
				return appendStep("!"), nil
			},
		}

		p, err := NewFromConfig(context.Background(), cfg, WithTransformerBuilder(b))
		require.NoError(t, err)
		require.Len(t, p.Steps(), 2)
		require.Equal(t, "first", p.Steps()[0].Name)
		require.Equal(t, "second", p.Steps()[1].Name)

		require.Len(t, built, 2)
		for _, c := range built {
			require.Equal(t, transformers.Mapping, c.Name)
			require.Equal(t, transformers.Mappings{"a": {1: "one"}}, c.Mappings)
		}
		require.Equal(t, transformers.Parameters{"columns": "b"}, built[1].Parameters)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		errTest := errors.New("oh noes")
		b := &mocks.TransformerBuilder{
			NewFn: func(c *transformers.Config) (transformers.Transformer, error) {
				return nil, errTest
			},
		}

		_, err := NewFromConfig(context.Background(), cfg, WithTransformerBuilder(b))
		require.ErrorIs(t, err, errTest)
		require.ErrorContains(t, err, "building transformer 0 (first)")
	})
}
