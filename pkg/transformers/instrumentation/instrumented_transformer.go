// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xataio/tabmap/pkg/otel"
	"github.com/xataio/tabmap/pkg/transformers"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Transformer struct {
	inner   transformers.Transformer
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *metrics
}

type metrics struct {
	transformLatency metric.Int64Histogram
	transformRows    metric.Int64Counter
}

const typeAttributeKey = "transformer_type"

// NewTransformer wraps the transformer with metrics and traces. If the
// instrumentation is not enabled, the transformer is returned as is.
func NewTransformer(t transformers.Transformer, instrumentation *otel.Instrumentation) (transformers.Transformer, error) {
	if !instrumentation.IsEnabled() {
		return t, nil
	}

	transformer := &Transformer{
		inner:   t,
		tracer:  instrumentation.Tracer,
		meter:   instrumentation.Meter,
		metrics: &metrics{},
	}

	if err := transformer.initMetrics(); err != nil {
		return nil, fmt.Errorf("initialising transformer metrics: %w", err)
	}

	return transformer, nil
}

func (i *Transformer) Fit(ctx context.Context, x any, y *series.Series) (err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "transformer.Fit", trace.WithAttributes(i.typeAttribute()))
	defer func() { otel.CloseSpan(span, err) }()

	return i.inner.Fit(ctx, x, y)
}

func (i *Transformer) Transform(ctx context.Context, x any) (df *dataframe.DataFrame, err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "transformer.Transform", trace.WithAttributes(i.typeAttribute()))
	defer func() { otel.CloseSpan(span, err) }()

	if i.meter != nil {
		startTime := time.Now()
		defer func() {
			i.metrics.transformLatency.Record(ctx, time.Since(startTime).Milliseconds(), metric.WithAttributes(i.typeAttribute()))
			if df != nil {
				i.metrics.transformRows.Add(ctx, int64(df.Nrow()), metric.WithAttributes(i.typeAttribute()))
			}
		}()
	}
	return i.inner.Transform(ctx, x)
}

func (i *Transformer) Columns() []string {
	return i.inner.Columns()
}

func (i *Transformer) Type() transformers.TransformerType {
	return i.inner.Type()
}

// Unwrap returns the instrumented transformer.
func (i *Transformer) Unwrap() transformers.Transformer {
	return i.inner
}

func (i *Transformer) initMetrics() error {
	if i.meter == nil {
		return nil
	}

	var err error
	i.metrics.transformLatency, err = i.meter.Int64Histogram("tabmap.transformer.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Distribution of the time taken to transform a table"))
	if err != nil {
		return err
	}

	i.metrics.transformRows, err = i.meter.Int64Counter("tabmap.transformer.rows",
		metric.WithUnit("rows"),
		metric.WithDescription("Number of rows transformed"))
	if err != nil {
		return err
	}

	return nil
}

func (i *Transformer) typeAttribute() attribute.KeyValue {
	return attribute.KeyValue{
		Key:   typeAttributeKey,
		Value: attribute.StringValue(string(i.inner.Type())),
	}
}
