// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"

	"github.com/xataio/tabmap/pkg/mappings/file"
	"github.com/xataio/tabmap/pkg/mappings/postgres"
	"github.com/xataio/tabmap/pkg/transformers"
)

type Config struct {
	Transformers []TransformerConfig
	Mappings     MappingsConfig
	// Concurrency limits the number of tables transformed at the same time.
	// Defaults to the number of tables.
	Concurrency int
}

type TransformerConfig struct {
	// Name identifies the step in logs, defaults to the transformer type.
	Name       string
	Type       transformers.TransformerType
	Parameters transformers.Parameters
}

// MappingsConfig lists the mapping sources. When a column is provided by
// more than one source, postgres overrides files, which override inline
// mappings.
type MappingsConfig struct {
	Inline   transformers.Mappings
	Files    []file.Config
	Postgres *postgres.Config
}

var (
	errNoTransformers = errors.New("at least one transformer must be configured")
	errNilTable       = errors.New("table must not be nil")
)

func (c *Config) validate() error {
	if len(c.Transformers) == 0 {
		return errNoTransformers
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("invalid concurrency %d, must be positive", c.Concurrency)
	}
	for i, t := range c.Transformers {
		if t.Type == "" {
			return fmt.Errorf("transformer %d: missing type", i)
		}
	}
	return nil
}

func (t *TransformerConfig) name() string {
	if t.Name != "" {
		return t.Name
	}
	return string(t.Type)
}
