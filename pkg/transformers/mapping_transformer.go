// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-gota/gota/dataframe"
)

// MappingTransformer replaces the values of the configured columns using a
// per column lookup table. Values without a lookup entry are left unchanged.
type MappingTransformer struct {
	*BaseTransformer
	mappings Mappings
}

const mappingTransformerName = "MappingTransformer"

var mappingParams = []Parameter{
	{
		Name:          "columns",
		Description:   "Columns whose values are replaced.",
		SupportedType: "array",
		Required:      true,
	},
	{
		Name:          "mappings",
		Description:   "Inline lookup tables keyed by column name.",
		SupportedType: "object",
		Required:      false,
	},
	{
		Name:          "verbose",
		Description:   "Log every fit and transform call.",
		SupportedType: "boolean",
		Default:       false,
		Required:      false,
	},
}

func NewMappingTransformer(columns []string, opts ...Option) (*MappingTransformer, error) {
	base, err := NewBaseTransformer(mappingTransformerName, columns, opts...)
	if err != nil {
		return nil, err
	}
	return &MappingTransformer{
		BaseTransformer: base,
		mappings:        Mappings{},
	}, nil
}

// NewMappingTransformerFromParameters builds the transformer from untyped
// parameters. Inline mappings are merged with the given ones, the latter take
// precedence per column.
func NewMappingTransformerFromParameters(params Parameters, mappings Mappings, opts ...Option) (*MappingTransformer, error) {
	columnsParam, found := params["columns"]
	if !found {
		return nil, fmt.Errorf("%w: columns parameter is required", ErrInvalidParameters)
	}
	columns, err := ParseColumns(mappingTransformerName, columnsParam)
	if err != nil {
		return nil, err
	}

	verbose, err := FindParameterWithDefault(params, "verbose", false)
	if err != nil {
		return nil, fmt.Errorf("mapping_transformer: verbose must be a boolean: %w", err)
	}

	inline, err := ParseMappings(params["mappings"])
	if err != nil {
		return nil, err
	}

	t, err := NewMappingTransformer(columns, append([]Option{WithVerbose(verbose)}, opts...)...)
	if err != nil {
		return nil, err
	}

	merged := inline.Clone()
	if merged == nil {
		merged = Mappings{}
	}
	for column, lookup := range mappings {
		merged[column] = lookup
	}
	t.SetMappings(merged)
	return t, nil
}

// SetMappings attaches the lookup tables. It must not be called concurrently
// with Transform.
func (t *MappingTransformer) SetMappings(m Mappings) {
	if m == nil {
		m = Mappings{}
	}
	t.mappings = m
}

func (t *MappingTransformer) Mappings() Mappings {
	return t.mappings
}

// Transform returns a copy of x where the values of every configured column
// with a lookup table are replaced. The mappings are never modified.
func (t *MappingTransformer) Transform(_ context.Context, x any) (*dataframe.DataFrame, error) {
	df, err := t.CheckFrame(x)
	if err != nil {
		return nil, err
	}

	names := df.Names()
	for _, column := range t.columns {
		lookup, found := t.mappings[column]
		if !found || !slices.Contains(names, column) {
			continue
		}

		mutated := df.Mutate(lookup.apply(df.Col(column)))
		if mutated.Err != nil {
			return nil, fmt.Errorf("%s: replacing values of column %q: %w", t.name, column, mutated.Err)
		}
		df = &mutated
	}

	return df, nil
}

func (t *MappingTransformer) Type() TransformerType {
	return Mapping
}

func MappingTransformerDefinition() *Definition {
	return &Definition{
		Description: "Replaces column values using a lookup table per column.",
		Parameters:  mappingParams,
	}
}
