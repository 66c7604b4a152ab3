// SPDX-License-Identifier: Apache-2.0

package builder

import (
	"fmt"

	loglib "github.com/xataio/tabmap/pkg/log"
	"github.com/xataio/tabmap/pkg/otel"
	"github.com/xataio/tabmap/pkg/transformers"
	"github.com/xataio/tabmap/pkg/transformers/instrumentation"
)

type TransformerBuilder struct {
	instrumentation *otel.Instrumentation
	logger          loglib.Logger
}

type Option func(b *TransformerBuilder)

func NewTransformerBuilder(opts ...Option) *TransformerBuilder {
	b := &TransformerBuilder{
		logger: loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(b *TransformerBuilder) {
		b.instrumentation = i
	}
}

// WithLogger sets the logger passed on to the transformers built.
func WithLogger(l loglib.Logger) Option {
	return func(b *TransformerBuilder) {
		b.logger = loglib.NewLogger(l)
	}
}

type buildFn func(cfg *transformers.Config, opts ...transformers.Option) (transformers.Transformer, error)

var TransformersMap = map[transformers.TransformerType]struct {
	Definition *transformers.Definition
	BuildFn    buildFn
}{
	transformers.Mapping: {
		Definition: transformers.MappingTransformerDefinition(),
		BuildFn: func(cfg *transformers.Config, opts ...transformers.Option) (transformers.Transformer, error) {
			return transformers.NewMappingTransformerFromParameters(cfg.Parameters, cfg.Mappings, opts...)
		},
	},
}

func (b *TransformerBuilder) New(cfg *transformers.Config) (t transformers.Transformer, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: missing transformer config", transformers.ErrUnsupportedTransformer)
	}

	transformer, ok := TransformersMap[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("%w: unexpected transformer name '%s'", transformers.ErrUnsupportedTransformer, cfg.Name)
	}

	if err := transformers.ValidateParameters(cfg.Parameters, transformer.Definition.ParameterNames()); err != nil {
		return nil, err
	}
	for _, name := range transformer.Definition.RequiredParameters() {
		if _, found := cfg.Parameters[name]; !found {
			return nil, fmt.Errorf("%w: missing required parameter '%s'", transformers.ErrInvalidParameters, name)
		}
	}

	t, err = transformer.BuildFn(cfg, transformers.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}

	return instrumentation.NewTransformer(t, b.instrumentation)
}
