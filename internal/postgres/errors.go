// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrConnTimeout = errors.New("connection timeout")
	ErrNoRows      = errors.New("no rows")
)

type ErrRelationDoesNotExist struct {
	Details string
}

func (e *ErrRelationDoesNotExist) Error() string {
	return fmt.Sprintf("relation does not exist: %s", e.Details)
}

type ErrPermissionDenied struct {
	Details string
}

func (e *ErrPermissionDenied) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Details)
}

type ErrSyntaxError struct {
	Details string
}

func (e *ErrSyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Details)
}

// MapError converts pgx errors into the package errors, so that callers don't
// need to depend on the driver.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if pgconn.Timeout(err) {
		return ErrConnTimeout
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UndefinedTable, pgerrcode.UndefinedColumn:
			return &ErrRelationDoesNotExist{Details: pgErr.Message}
		case pgerrcode.InsufficientPrivilege:
			return &ErrPermissionDenied{Details: pgErr.Message}
		case pgerrcode.SyntaxError:
			return &ErrSyntaxError{Details: pgErr.Message}
		}
	}

	return err
}

// IsRetriable returns false for errors that will not go away by retrying the
// same query.
func IsRetriable(err error) bool {
	mappedErr := MapError(err)

	var (
		doesNotExist     *ErrRelationDoesNotExist
		permissionDenied *ErrPermissionDenied
		syntaxErr        *ErrSyntaxError
	)
	switch {
	case errors.As(mappedErr, &doesNotExist),
		errors.As(mappedErr, &permissionDenied),
		errors.As(mappedErr, &syntaxErr),
		errors.Is(mappedErr, ErrNoRows),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
