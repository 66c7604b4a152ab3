// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/xataio/tabmap/internal/json"
)

// Format of a table file.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrInvalidDocument   = errors.New("invalid json table document")
)

// missing is the textual form of a missing value, detected as NA by the
// dataframe engine.
const missing = "NaN"

// FormatFromPath returns the table format matching the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func ReadFile(path string) (*dataframe.DataFrame, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table file: %w", err)
	}
	defer file.Close()

	return Read(file, f)
}

// WriteFile writes the table to the given path, creating or truncating the
// file. The format is inferred from the file extension.
func WriteFile(path string, df *dataframe.DataFrame) (err error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating table file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing table file: %w", closeErr)
		}
	}()

	return Write(file, df, f)
}

// Read parses a table. CSV input must have a header row. JSON input must be a
// list of records, columns are ordered by first appearance.
//
// In JSON input only null and absent keys are missing values. The one
// exception is the string "NaN", which the dataframe engine always reads as
// missing, so it is written back as null.
func Read(r io.Reader, f Format) (*dataframe.DataFrame, error) {
	var df dataframe.DataFrame
	switch f {
	case CSV:
		df = dataframe.ReadCSV(r)
	case JSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading json table: %w", err)
		}
		records, err := jsonRecords(data)
		if err != nil {
			return nil, err
		}
		df = dataframe.LoadRecords(records, dataframe.NaNValues([]string{missing}))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}

	if df.Err != nil {
		return nil, fmt.Errorf("loading %s table: %w", f, df.Err)
	}
	return &df, nil
}

func Write(w io.Writer, df *dataframe.DataFrame, f Format) error {
	switch f {
	case CSV:
		if err := df.WriteCSV(w); err != nil {
			return fmt.Errorf("writing csv table: %w", err)
		}
		return nil
	case JSON:
		doc, err := jsonDocument(df)
		if err != nil {
			return err
		}
		if _, err := w.Write(doc); err != nil {
			return fmt.Errorf("writing json table: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// jsonRecords converts a list of JSON objects into the header and rows the
// dataframe engine loads, keeping the column order of the document.
func jsonRecords(data []byte) ([][]string, error) {
	if !json.Valid(data) {
		return nil, ErrInvalidDocument
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: expected a list of records", ErrInvalidDocument)
	}

	header := []string{}
	rows := []map[string]string{}
	var err error
	doc.ForEach(func(_, record gjson.Result) bool {
		if !record.IsObject() {
			err = fmt.Errorf("%w: expected a record object, got %s", ErrInvalidDocument, record.Type)
			return false
		}
		row := map[string]string{}
		record.ForEach(func(key, value gjson.Result) bool {
			if !slices.Contains(header, key.String()) {
				header = append(header, key.String())
			}
			row[key.String()] = cellText(value)
			return true
		})
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range rows {
		record := make([]string, len(header))
		for i, column := range header {
			v, found := row[column]
			if !found {
				v = missing
			}
			record[i] = v
		}
		records = append(records, record)
	}
	return records, nil
}

func cellText(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return missing
	case gjson.String:
		return v.Str
	case gjson.True, gjson.False:
		return v.String()
	default:
		// numbers and nested documents keep their raw text
		return v.Raw
	}
}

// jsonDocument builds a list of records keeping the column order of the
// table. Missing values are written as null.
func jsonDocument(df *dataframe.DataFrame) ([]byte, error) {
	names := df.Names()
	rows, _ := df.Dims()

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < rows; i++ {
		record := []byte("{}")
		for j, name := range names {
			var value any
			if elem := df.Elem(i, j); !elem.IsNA() {
				value = elem.Val()
			}

			var err error
			record, err = sjson.SetBytes(record, escapePath(name), value)
			if err != nil {
				return nil, fmt.Errorf("setting column %q of record %d: %w", name, i, err)
			}
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(record)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

// escapePath makes a column name usable as a single sjson path component.
func escapePath(name string) string {
	return pathEscaper.Replace(name)
}
