// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

type QualifiedName struct {
	schema string
	name   string
}

var errUnexpectedQualifiedName = errors.New("unexpected qualified name format")

// NewQualifiedName parses a `table` or `schema.table` name.
func NewQualifiedName(s string) (*QualifiedName, error) {
	parts := strings.Split(s, ".")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return &QualifiedName{name: removeQuotes(parts[0])}, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return &QualifiedName{
			schema: removeQuotes(parts[0]),
			name:   removeQuotes(parts[1]),
		}, nil
	default:
		return nil, errUnexpectedQualifiedName
	}
}

// String returns the quoted name, safe to use in a query.
func (qn *QualifiedName) String() string {
	if qn.schema == "" {
		return QuoteIdentifier(qn.name)
	}
	return QuoteQualifiedIdentifier(qn.schema, qn.name)
}

func (qn *QualifiedName) Schema() string {
	return qn.schema
}

func (qn *QualifiedName) Name() string {
	return qn.name
}

func QuoteIdentifier(s string) string {
	if IsQuotedIdentifier(s) {
		return s
	}
	return pq.QuoteIdentifier(s)
}

func QuoteQualifiedIdentifier(schema, table string) string {
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
}

func IsQuotedIdentifier(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

func removeQuotes(s string) string {
	return strings.Trim(s, `"`)
}
