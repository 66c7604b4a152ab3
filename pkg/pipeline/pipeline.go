// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	loglib "github.com/xataio/tabmap/pkg/log"
	"github.com/xataio/tabmap/pkg/mappings"
	"github.com/xataio/tabmap/pkg/mappings/file"
	"github.com/xataio/tabmap/pkg/mappings/postgres"
	"github.com/xataio/tabmap/pkg/otel"
	"github.com/xataio/tabmap/pkg/transformers"
	"github.com/xataio/tabmap/pkg/transformers/builder"
)

// Pipeline applies a sequence of transformers to tables. Every step receives
// the output of the previous one, the input table is never modified.
type Pipeline struct {
	steps           []Step
	concurrency     int
	logger          loglib.Logger
	instrumentation *otel.Instrumentation
	builder         transformerBuilder
}

type transformerBuilder interface {
	New(cfg *transformers.Config) (transformers.Transformer, error)
}

type Step struct {
	Name        string
	Transformer transformers.Transformer
}

// Table is a named input or output of the pipeline.
type Table struct {
	Name  string
	Frame *dataframe.DataFrame
}

type Option func(*Pipeline)

func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:  steps,
		logger: loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig loads the configured mappings and builds the transformers
// with them.
func NewFromConfig(ctx context.Context, cfg *Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := New(nil, opts...)
	if cfg.Concurrency > 0 {
		p.concurrency = cfg.Concurrency
	}

	loader, err := p.newMappingsLoader(ctx, &cfg.Mappings)
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	m, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading mappings: %w", err)
	}
	p.logger.Debug("mappings loaded", loglib.Fields{"columns": m.Columns()})

	b := p.builder
	if b == nil {
		b = builder.NewTransformerBuilder(
			builder.WithLogger(p.logger),
			builder.WithInstrumentation(p.instrumentation),
		)
	}
	for i, tcfg := range cfg.Transformers {
		t, err := b.New(&transformers.Config{
			Name:       tcfg.Type,
			Parameters: tcfg.Parameters,
			Mappings:   m,
		})
		if err != nil {
			return nil, fmt.Errorf("building transformer %d (%s): %w", i, tcfg.name(), err)
		}
		p.steps = append(p.steps, Step{Name: tcfg.name(), Transformer: t})
	}

	return p, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(p *Pipeline) {
		p.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "pipeline",
		})
	}
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(p *Pipeline) {
		p.instrumentation = i
	}
}

// WithTransformerBuilder replaces the builder used by NewFromConfig.
func WithTransformerBuilder(b transformerBuilder) Option {
	return func(p *Pipeline) {
		p.builder = b
	}
}

// WithConcurrency limits the number of tables transformed at the same time
// by RunAll.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Fit validates the training table against every step.
func (p *Pipeline) Fit(ctx context.Context, df *dataframe.DataFrame, y *series.Series) error {
	for _, step := range p.steps {
		if err := step.Transformer.Fit(ctx, df, y); err != nil {
			return fmt.Errorf("fitting step %s: %w", step.Name, err)
		}
	}
	return nil
}

// Run applies all the steps in order, stopping at the first error.
func (p *Pipeline) Run(ctx context.Context, df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if df == nil {
		return nil, errNilTable
	}

	runID := xid.New().String()
	logger := p.logger.WithFields(loglib.Fields{loglib.RunIDField: runID})

	rows, cols := df.Dims()
	logger.Debug("pipeline run started", loglib.Fields{"rows": rows, "columns": cols, "steps": len(p.steps)})

	current := df
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := step.Transformer.Transform(ctx, current)
		if err != nil {
			logger.Error(err, "pipeline step failed", loglib.Fields{"step": step.Name})
			return nil, fmt.Errorf("running step %s: %w", step.Name, err)
		}
		logger.Trace("pipeline step completed", loglib.Fields{"step": step.Name})
		current = next
	}

	if current == df {
		// no steps, the output must still be a new table
		cp := df.Copy()
		current = &cp
	}

	logger.Debug("pipeline run completed")
	return current, nil
}

// RunAll runs the pipeline on all the tables concurrently. The outputs are
// returned in the same order as the inputs.
func (p *Pipeline) RunAll(ctx context.Context, tables []Table) ([]Table, error) {
	results := make([]Table, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}

	for i, table := range tables {
		table := table
		i := i
		g.Go(func() error {
			out, err := p.Run(ctx, table.Frame)
			if err != nil {
				return fmt.Errorf("table %s: %w", table.Name, err)
			}
			results[i] = Table{Name: table.Name, Frame: out}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) newMappingsLoader(ctx context.Context, cfg *MappingsConfig) (mappings.Loader, error) {
	loaders := []mappings.Loader{mappings.NewStaticLoader(cfg.Inline)}
	for _, fcfg := range cfg.Files {
		l, err := file.NewLoader(&fcfg, file.WithLogger(p.logger))
		if err != nil {
			return nil, fmt.Errorf("creating file mappings loader: %w", err)
		}
		loaders = append(loaders, l)
	}
	if cfg.Postgres != nil {
		l, err := postgres.NewLoader(ctx, cfg.Postgres, postgres.WithLogger(p.logger))
		if err != nil {
			return nil, fmt.Errorf("creating postgres mappings loader: %w", err)
		}
		loaders = append(loaders, l)
	}
	return mappings.Merge(loaders...), nil
}
