// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	loglib "github.com/xataio/tabmap/pkg/log"
)

// BaseTransformer holds the behaviour shared by all transformers: column
// validation, input validation and copy of the input table.
type BaseTransformer struct {
	name    string
	columns []string
	verbose bool
	logger  loglib.Logger
}

type Option func(*BaseTransformer)

const frameTypeName = "dataframe.DataFrame"

// NewBaseTransformer validates the columns on input. Columns must be a
// non-empty list of unique, non-empty names.
func NewBaseTransformer(name string, columns []string, opts ...Option) (*BaseTransformer, error) {
	if err := validateColumns(name, columns); err != nil {
		return nil, err
	}

	b := &BaseTransformer{
		name:    name,
		columns: slices.Clone(columns),
		logger:  loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// WithVerbose makes the transformer log every fit and transform call.
func WithVerbose(verbose bool) Option {
	return func(b *BaseTransformer) {
		b.verbose = verbose
	}
}

func WithLogger(l loglib.Logger) Option {
	return func(b *BaseTransformer) {
		b.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField:      "transformers",
			loglib.TransformerField: b.name,
		})
	}
}

func (b *BaseTransformer) Name() string {
	return b.name
}

// Columns returns a copy of the configured columns.
func (b *BaseTransformer) Columns() []string {
	return slices.Clone(b.columns)
}

func (b *BaseTransformer) Verbose() bool {
	return b.verbose
}

// Fit validates the training data. x must be a dataframe with at least one
// row, and y, when provided, must not be empty.
func (b *BaseTransformer) Fit(_ context.Context, x any, y *series.Series) error {
	b.logCall("fit")

	df, err := b.asFrame(x)
	if err != nil {
		return err
	}
	if err := b.checkRows(df); err != nil {
		return err
	}

	if y != nil && y.Len() == 0 {
		return newValueError(b.name, "y is empty; (0,)")
	}
	return nil
}

// CheckFrame validates x is a dataframe with at least one row, and returns a
// deep copy of it. The type check happens before the row check.
func (b *BaseTransformer) CheckFrame(x any) (*dataframe.DataFrame, error) {
	b.logCall("transform")

	df, err := b.asFrame(x)
	if err != nil {
		return nil, err
	}
	if err := b.checkRows(df); err != nil {
		return nil, err
	}

	cp := df.Copy()
	return &cp, nil
}

func (b *BaseTransformer) asFrame(x any) (*dataframe.DataFrame, error) {
	var df *dataframe.DataFrame
	switch v := x.(type) {
	case dataframe.DataFrame:
		df = &v
	case *dataframe.DataFrame:
		df = v
	}

	if df == nil {
		return nil, newTypeError(b.name, "X should be a %s", frameTypeName)
	}
	if df.Err != nil {
		return nil, newTypeError(b.name, "X should be a %s, got invalid dataframe: %v", frameTypeName, df.Err)
	}
	return df, nil
}

func (b *BaseTransformer) checkRows(df *dataframe.DataFrame) error {
	rows, cols := df.Dims()
	if rows == 0 {
		return newValueError(b.name, "X has no rows; (%d, %d)", rows, cols)
	}
	return nil
}

func (b *BaseTransformer) logCall(method string) {
	if !b.verbose {
		return
	}
	b.logger.Info(b.name + "." + method + "() called")
}

// ParseColumns converts an untyped columns parameter into a list of column
// names. A single string is accepted as a one element list.
func ParseColumns(transformer string, columns any) ([]string, error) {
	var res []string
	switch v := columns.(type) {
	case string:
		res = []string{v}
	case []string:
		res = v
	case []any:
		res = make([]string, 0, len(v))
		for _, c := range v {
			name, ok := c.(string)
			if !ok {
				return nil, newTypeError(transformer, "each element of columns should be a single (string) column name")
			}
			res = append(res, name)
		}
	default:
		return nil, newTypeError(transformer, "columns must be a string or list with the columns to be pre-processed (if specified)")
	}

	if err := validateColumns(transformer, res); err != nil {
		return nil, err
	}
	return res, nil
}

func validateColumns(transformer string, columns []string) error {
	if len(columns) == 0 {
		return newValueError(transformer, "columns has no values")
	}

	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c == "" {
			return newValueError(transformer, "each element of columns should be a non-empty column name")
		}
		if _, found := seen[c]; found {
			return newValueError(transformer, "columns contains duplicate column name %q", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
