// SPDX-License-Identifier: Apache-2.0

package retrier

import (
	"context"
	"fmt"
	"time"

	"github.com/xataio/tabmap/internal/backoff"
	"github.com/xataio/tabmap/internal/postgres"
	loglib "github.com/xataio/tabmap/pkg/log"
)

// Querier retries queries that fail with retriable errors, rebuilding the
// underlying connection between attempts.
type Querier struct {
	connBuilder     ConnBuilder
	querier         postgres.Querier
	backoffProvider backoff.Provider
	logger          loglib.Logger
}

type ConnBuilder func(context.Context) (postgres.Querier, error)

func NewQuerier(ctx context.Context, cfg *backoff.Config, connBuilder ConnBuilder, logger loglib.Logger) (*Querier, error) {
	q := &Querier{
		connBuilder:     connBuilder,
		backoffProvider: backoff.NewProvider(cfg),
		logger:          loglib.NewLogger(logger),
	}

	// the initial connection is retried too, the mappings database might not
	// be up yet when the process starts
	err := q.backoffProvider(ctx).RetryNotify(func() error {
		return q.resetConn(ctx)
	}, q.notify)
	if err != nil {
		return nil, err
	}

	return q, nil
}

func (q *Querier) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	var rows postgres.Rows
	op := func() error {
		var err error
		rows, err = q.querier.Query(ctx, query, args...)
		return err
	}

	if err := q.withRetry(ctx, op); err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryRow is not retried, errors only surface when the row is scanned.
func (q *Querier) QueryRow(ctx context.Context, query string, args ...any) postgres.Row {
	return q.querier.QueryRow(ctx, query, args...)
}

func (q *Querier) Ping(ctx context.Context) error {
	return q.withRetry(ctx, func() error {
		return q.querier.Ping(ctx)
	})
}

func (q *Querier) Close(ctx context.Context) error {
	if q.querier == nil {
		return nil
	}
	return q.querier.Close(ctx)
}

func (q *Querier) withRetry(ctx context.Context, operation func() error) error {
	err := operation()
	if err == nil || !postgres.IsRetriable(err) {
		return err
	}

	// only initialise the backoff if the operation fails
	bo := q.backoffProvider(ctx)
	err = bo.RetryNotify(func() error {
		if connErr := q.resetConn(ctx); connErr != nil {
			return fmt.Errorf("unable to reset connection: %w", connErr)
		}

		err := operation()
		if err != nil && !postgres.IsRetriable(err) {
			return fmt.Errorf("%w: %w", err, backoff.ErrPermanent)
		}
		return err
	}, q.notify)

	if err == nil {
		q.logger.Info("retried Postgres operation succeeded")
	}
	return err
}

func (q *Querier) notify(err error, d time.Duration) {
	q.logger.Warn(err, "retrying Postgres operation after error", loglib.Fields{
		"retry_delay": d.String(),
	})
}

func (q *Querier) resetConn(ctx context.Context) error {
	conn, err := q.connBuilder(ctx)
	if err != nil {
		return err
	}
	if q.querier != nil {
		q.querier.Close(ctx)
	}
	q.querier = conn
	return nil
}
