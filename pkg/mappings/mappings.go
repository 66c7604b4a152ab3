// SPDX-License-Identifier: Apache-2.0

package mappings

import (
	"context"
	"errors"
	"fmt"

	"github.com/xataio/tabmap/pkg/transformers"
)

// Loader retrieves the lookup tables used by the mapping transformer. Loading
// them is the fit step of the mapping transformer, performed outside of it.
type Loader interface {
	Load(ctx context.Context) (transformers.Mappings, error)
	Close() error
}

type staticLoader struct {
	mappings transformers.Mappings
}

// NewStaticLoader returns a loader for mappings already in memory. Every load
// returns a copy of them.
func NewStaticLoader(m transformers.Mappings) Loader {
	return &staticLoader{mappings: m.Clone()}
}

func (l *staticLoader) Load(context.Context) (transformers.Mappings, error) {
	m := l.mappings.Clone()
	if m == nil {
		m = transformers.Mappings{}
	}
	return m, nil
}

func (l *staticLoader) Close() error { return nil }

type mergeLoader struct {
	loaders []Loader
}

// Merge combines the mappings of all the loaders on input. When more than one
// loader provides a lookup for the same column, the last one wins.
func Merge(loaders ...Loader) Loader {
	return &mergeLoader{loaders: loaders}
}

func (l *mergeLoader) Load(ctx context.Context) (transformers.Mappings, error) {
	res := transformers.Mappings{}
	for i, loader := range l.loaders {
		m, err := loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading mappings from source %d: %w", i, err)
		}
		for column, lookup := range m {
			res[column] = lookup
		}
	}
	return res, nil
}

func (l *mergeLoader) Close() error {
	var errs []error
	for _, loader := range l.loaders {
		if err := loader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
