// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidType is returned when an input is not of the expected type,
	// for instance a transform input that is not a dataframe.
	ErrInvalidType = errors.New("invalid type")
	// ErrInvalidValue is returned when an input has the right type but an
	// unusable value, for instance a dataframe with no rows.
	ErrInvalidValue = errors.New("invalid value")
)

// Error is returned by transformers when validating their configuration or
// inputs. The message is prefixed with the transformer name.
type Error struct {
	Transformer string
	Kind        error
	Msg         string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Transformer, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newTypeError(transformer, format string, args ...any) *Error {
	return &Error{
		Transformer: transformer,
		Kind:        ErrInvalidType,
		Msg:         fmt.Sprintf(format, args...),
	}
}

func newValueError(transformer, format string, args ...any) *Error {
	return &Error{
		Transformer: transformer,
		Kind:        ErrInvalidValue,
		Msg:         fmt.Sprintf(format, args...),
	}
}
