// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xataio/tabmap/pkg/transformers"
)

type Transformer struct {
	FitFn       func(x any, y *series.Series) error
	TransformFn func(x any) (*dataframe.DataFrame, error)
	ColumnsFn   func() []string
	TypeFn      func() transformers.TransformerType
}

func (m *Transformer) Fit(_ context.Context, x any, y *series.Series) error {
	if m.FitFn == nil {
		return nil
	}
	return m.FitFn(x, y)
}

func (m *Transformer) Transform(_ context.Context, x any) (*dataframe.DataFrame, error) {
	return m.TransformFn(x)
}

func (m *Transformer) Columns() []string {
	if m.ColumnsFn == nil {
		return nil
	}
	return m.ColumnsFn()
}

func (m *Transformer) Type() transformers.TransformerType {
	if m.TypeFn == nil {
		return "mock"
	}
	return m.TypeFn()
}
