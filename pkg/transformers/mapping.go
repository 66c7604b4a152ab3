// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/go-gota/gota/series"
	"github.com/mitchellh/mapstructure"
)

// Lookup maps source cell values to their replacement. A nil key matches
// missing (NA) cells.
type Lookup map[any]any

// Mappings holds the lookup for each column.
type Mappings map[string]Lookup

// Clone returns a deep copy of the mappings.
func (m Mappings) Clone() Mappings {
	if m == nil {
		return nil
	}
	c := make(Mappings, len(m))
	for column, lookup := range m {
		c[column] = maps.Clone(lookup)
	}
	return c
}

// Columns returns the columns with a lookup.
func (m Mappings) Columns() []string {
	columns := make([]string, 0, len(m))
	for c := range m {
		columns = append(columns, c)
	}
	return columns
}

// index normalises the lookup keys so that numeric keys match cells
// regardless of their width, and integral floats match integer cells. The
// lookup itself is left untouched. When several keys normalise to the same
// value, the one with the highest precedence wins, so the result does not
// depend on the map iteration order.
func (l Lookup) index() map[any]any {
	idx := make(map[any]any, len(l))
	winners := make(map[any]any, len(l))
	for k, v := range l {
		nk := normaliseKey(k)
		if prev, found := winners[nk]; found && !keyPrecedes(k, prev) {
			continue
		}
		winners[nk] = k
		idx[nk] = v
	}
	return idx
}

// keyPrecedes orders colliding keys: the engine types (int, then float64)
// come first, then any other type ordered by type name and textual form.
func keyPrecedes(a, b any) bool {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		return ra < rb
	}
	ta, tb := fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)
	if ta != tb {
		return ta < tb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func keyRank(k any) int {
	switch k.(type) {
	case nil, string, bool, int:
		return 0
	case float64:
		return 1
	default:
		return 2
	}
}

// apply returns a new series where each value found in the lookup is
// replaced. Values not found are kept as they are.
func (l Lookup) apply(s series.Series) series.Series {
	idx := l.index()
	values := make([]any, s.Len())
	for i := range values {
		elem := s.Elem(i)
		var v any
		if !elem.IsNA() {
			v = elem.Val()
		}
		values[i] = normaliseValue(v)

		// a key of the same type as the cell always wins
		if replacement, found := l[v]; found {
			values[i] = normaliseValue(replacement)
			continue
		}
		if replacement, found := idx[normaliseKey(v)]; found {
			values[i] = normaliseValue(replacement)
			continue
		}

		// string keys (JSON objects, postgres text columns) match the
		// textual form of non string cells
		if text, ok := textKey(v); ok {
			if replacement, found := idx[text]; found {
				values[i] = normaliseValue(replacement)
			}
		}
	}

	t := inferType(values, s.Type())
	if t == series.String {
		for i, v := range values {
			if text, ok := textKey(v); ok {
				values[i] = text
			}
		}
	}
	return series.New(values, t, s.Name)
}

func normaliseKey(v any) any {
	switch n := normaliseValue(v).(type) {
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) && math.Abs(n) < math.MaxInt64 {
			return int(n)
		}
		return n
	default:
		return n
	}
}

// normaliseValue converts values to the types understood by the dataframe
// engine: string, int, float64, bool or nil.
func normaliseValue(v any) any {
	switch n := v.(type) {
	case nil, string, int, float64, bool:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return float64(n)
		}
		return int(n)
	case uint:
		return uintValue(uint64(n))
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return uintValue(uint64(n))
	case uint64:
		return uintValue(n)
	case float32:
		return float64(n)
	case []byte:
		return string(n)
	case fmt.Stringer:
		return n.String()
	default:
		return fmt.Sprint(n)
	}
}

// uintValue converts to int when the value fits, to float64 otherwise.
func uintValue(n uint64) any {
	if n > math.MaxInt {
		return float64(n)
	}
	return int(n)
}

func textKey(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(n), true
	default:
		return "", false
	}
}

// inferType returns the series type that can hold all the values. A single
// kind keeps its type, ints and floats become floats, any other mix becomes
// a string series. If all values are missing, the fallback type is used.
func inferType(values []any, fallback series.Type) series.Type {
	var hasString, hasInt, hasFloat, hasBool bool
	for _, v := range values {
		switch v.(type) {
		case string:
			hasString = true
		case int:
			hasInt = true
		case float64:
			hasFloat = true
		case bool:
			hasBool = true
		}
	}

	switch {
	case hasString, hasBool && (hasInt || hasFloat):
		return series.String
	case hasBool:
		return series.Bool
	case hasFloat:
		return series.Float
	case hasInt:
		return series.Int
	default:
		return fallback
	}
}

type lookupPair struct {
	From any `mapstructure:"from"`
	To   any `mapstructure:"to"`
}

// ParseMappings converts untyped mappings, as decoded from YAML or JSON, into
// Mappings. Each column accepts either an object of source to replacement
// values, or a list of {from, to} pairs when the source values are not
// strings.
func ParseMappings(v any) (Mappings, error) {
	switch m := v.(type) {
	case nil:
		return Mappings{}, nil
	case Mappings:
		return m, nil
	case map[string]Lookup:
		return Mappings(m), nil
	case map[string]any:
		res := make(Mappings, len(m))
		for column, lookupAny := range m {
			lookup, err := parseLookup(lookupAny)
			if err != nil {
				return nil, fmt.Errorf("%w: mappings for column %q: %w", ErrInvalidParameters, column, err)
			}
			res[column] = lookup
		}
		return res, nil
	case map[any]any:
		res := make(Mappings, len(m))
		for columnAny, lookupAny := range m {
			column, ok := columnAny.(string)
			if !ok {
				return nil, fmt.Errorf("%w: mappings column names must be strings, got %T", ErrInvalidParameters, columnAny)
			}
			lookup, err := parseLookup(lookupAny)
			if err != nil {
				return nil, fmt.Errorf("%w: mappings for column %q: %w", ErrInvalidParameters, column, err)
			}
			res[column] = lookup
		}
		return res, nil
	default:
		return nil, fmt.Errorf("%w: mappings must be an object keyed by column name, got %T", ErrInvalidParameters, v)
	}
}

func parseLookup(v any) (Lookup, error) {
	switch l := v.(type) {
	case Lookup:
		return l, nil
	case map[any]any:
		return Lookup(l), nil
	case map[string]any:
		lookup := make(Lookup, len(l))
		for from, to := range l {
			lookup[from] = to
		}
		return lookup, nil
	case map[string]string:
		lookup := make(Lookup, len(l))
		for from, to := range l {
			lookup[from] = to
		}
		return lookup, nil
	case []any:
		lookup := make(Lookup, len(l))
		for i, pairAny := range l {
			pair, err := decodePair(pairAny)
			if err != nil {
				return nil, fmt.Errorf("pair %d: %w", i, err)
			}
			if !isHashable(pair.From) {
				return nil, fmt.Errorf("pair %d: unsupported source value type %T", i, pair.From)
			}
			lookup[pair.From] = pair.To
		}
		return lookup, nil
	default:
		return nil, fmt.Errorf("expected an object or a list of {from, to} pairs, got %T", v)
	}
}

func decodePair(v any) (*lookupPair, error) {
	pair := &lookupPair{}
	md := mapstructure.Metadata{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:    &md,
		ErrorUnused: true,
		Result:      pair,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v); err != nil {
		return nil, err
	}
	// a null value is accepted, it maps missing cells
	for _, key := range []string{"from", "to"} {
		if slices.Contains(md.Unset, key) {
			return nil, fmt.Errorf("missing %q", key)
		}
	}
	return pair, nil
}

func isHashable(v any) bool {
	switch v.(type) {
	case []any, map[string]any, map[any]any:
		return false
	default:
		return true
	}
}
