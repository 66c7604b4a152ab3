// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/xataio/tabmap/internal/backoff"
	pglib "github.com/xataio/tabmap/internal/postgres"
	"github.com/xataio/tabmap/internal/postgres/retrier"
	loglib "github.com/xataio/tabmap/pkg/log"
	"github.com/xataio/tabmap/pkg/transformers"
)

// Loader reads the mappings from a postgres table with one row per source
// value:
//
//	column_name text NOT NULL, source_value text NULL, target_value text NULL
//
// A NULL source value maps missing cells.
type Loader struct {
	querier   pglib.Querier
	table     string
	columns   []string
	valueType ValueType
	logger    loglib.Logger
}

type Config struct {
	URL string `mapstructure:"url" yaml:"url"`
	// Table holding the mappings, optionally schema qualified. Defaults to
	// tabmap_mappings.
	Table string `mapstructure:"table" yaml:"table"`
	// Columns limits the mappings loaded to the given columns. All columns
	// are loaded if empty.
	Columns []string `mapstructure:"columns" yaml:"columns"`
	// ValueType is the type target values are converted to. Defaults to
	// string.
	ValueType ValueType `mapstructure:"value_type" yaml:"value_type"`
	Backoff   *backoff.Config `mapstructure:"-" yaml:"-"`
}

type ValueType string

const (
	StringValue ValueType = "string"
	IntValue    ValueType = "int"
	FloatValue  ValueType = "float"
	BoolValue   ValueType = "bool"
)

type Option func(*Loader)

const defaultTable = "tabmap_mappings"

var (
	ErrUnsupportedValueType = errors.New("unsupported mappings value type")
	ErrInvalidTargetValue   = errors.New("invalid mappings target value")
)

func NewLoader(ctx context.Context, cfg *Config, opts ...Option) (*Loader, error) {
	l, err := newLoader(cfg, opts...)
	if err != nil {
		return nil, err
	}

	l.querier, err = retrier.NewQuerier(ctx, cfg.Backoff, func(ctx context.Context) (pglib.Querier, error) {
		return pglib.NewConnPool(ctx, cfg.URL)
	}, l.logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to mappings database: %w", err)
	}
	return l, nil
}

func newLoader(cfg *Config, opts ...Option) (*Loader, error) {
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	qualifiedTable, err := pglib.NewQualifiedName(table)
	if err != nil {
		return nil, fmt.Errorf("invalid mappings table %q: %w", table, err)
	}

	valueType := cfg.ValueType
	switch valueType {
	case "":
		valueType = StringValue
	case StringValue, IntValue, FloatValue, BoolValue:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedValueType, valueType)
	}

	l := &Loader{
		table:     qualifiedTable.String(),
		columns:   cfg.Columns,
		valueType: valueType,
		logger:    loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(pl *Loader) {
		pl.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "postgres_mappings_loader",
		})
	}
}

func (l *Loader) Load(ctx context.Context) (transformers.Mappings, error) {
	query := fmt.Sprintf("SELECT column_name, source_value, target_value FROM %s", l.table)
	args := []any{}
	if len(l.columns) > 0 {
		query += " WHERE column_name = ANY($1)"
		args = append(args, l.columns)
	}
	query += " ORDER BY column_name"

	rows, err := l.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying mappings table %s: %w", l.table, err)
	}
	defer rows.Close()

	m := transformers.Mappings{}
	count := 0
	for rows.Next() {
		var column string
		var source, target *string
		if err := rows.Scan(&column, &source, &target); err != nil {
			return nil, fmt.Errorf("scanning mappings row: %w", pglib.MapError(err))
		}

		value, err := l.convert(target)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}

		lookup, found := m[column]
		if !found {
			lookup = transformers.Lookup{}
			m[column] = lookup
		}
		if source == nil {
			lookup[nil] = value
		} else {
			lookup[*source] = value
		}
		count++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading mappings rows: %w", pglib.MapError(err))
	}

	l.logger.Debug("mappings loaded from postgres", loglib.Fields{
		"table":   l.table,
		"columns": m.Columns(),
		"values":  count,
	})
	return m, nil
}

func (l *Loader) Close() error {
	return l.querier.Close(context.Background())
}

func (l *Loader) convert(v *string) (any, error) {
	if v == nil {
		return nil, nil
	}

	var (
		res any
		err error
	)
	switch l.valueType {
	case IntValue:
		res, err = strconv.Atoi(*v)
	case FloatValue:
		res, err = strconv.ParseFloat(*v, 64)
	case BoolValue:
		res, err = strconv.ParseBool(*v)
	default:
		return *v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid %s", ErrInvalidTargetValue, *v, l.valueType)
	}
	return res, nil
}
