// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/xataio/tabmap/pkg/transformers"
)

type Loader struct {
	LoadFn  func(ctx context.Context) (transformers.Mappings, error)
	CloseFn func() error
}

func (m *Loader) Load(ctx context.Context) (transformers.Mappings, error) {
	return m.LoadFn(ctx)
}

func (m *Loader) Close() error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn()
}
