// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Transformer operates on whole tables. Transform never modifies its input,
// it always returns a new table.
type Transformer interface {
	Fit(ctx context.Context, x any, y *series.Series) error
	Transform(ctx context.Context, x any) (*dataframe.DataFrame, error)
	Columns() []string
	Type() TransformerType
}

type Config struct {
	Name       TransformerType
	Parameters Parameters
	// Mappings loaded by an external fit step, attached to the transformer
	// once it's built.
	Mappings Mappings
}

type TransformerType string

const (
	Mapping TransformerType = "mapping"
)

type Parameters map[string]any

var (
	ErrUnsupportedTransformer = errors.New("unsupported transformer config")
	ErrInvalidParameters      = errors.New("invalid transformer parameters")
)

func FindParameter[T any](params Parameters, name string) (T, bool, error) {
	valAny, found := params[name]
	if !found {
		return *new(T), false, nil
	}

	val, ok := valAny.(T)
	if !ok {
		return *new(T), true, ErrInvalidParameters
	}

	return val, true, nil
}

func FindParameterWithDefault[T any](params Parameters, name string, defaultVal T) (T, error) {
	val, found, err := FindParameter[T](params, name)
	if err != nil {
		return val, err
	}
	if !found {
		return defaultVal, nil
	}
	return val, nil
}

// FindParameterArray returns the array parameter with the given name. Arrays
// decoded from configuration files come as []any, each element is checked
// against the expected type.
func FindParameterArray[T any](params Parameters, name string) ([]T, bool, error) {
	valAny, found := params[name]
	if !found {
		return nil, false, nil
	}

	switch val := valAny.(type) {
	case []T:
		return val, true, nil
	case []any:
		res := make([]T, 0, len(val))
		for _, v := range val {
			vT, ok := v.(T)
			if !ok {
				return nil, true, ErrInvalidParameters
			}
			res = append(res, vT)
		}
		return res, true, nil
	default:
		return nil, true, ErrInvalidParameters
	}
}

// ValidateParameters makes sure all the parameters on input are part of the
// accepted parameter names.
func ValidateParameters(params Parameters, validParams []string) error {
	for name := range params {
		if !slices.Contains(validParams, name) {
			return fmt.Errorf("%w: unexpected parameter '%s'", ErrInvalidParameters, name)
		}
	}
	return nil
}
