// SPDX-License-Identifier: Apache-2.0

package json

import (
	json "github.com/bytedance/sonic"
)

// decoder keeps JSON integers as int64 when decoding into interface values,
// so that integral numbers are not turned into floats.
var decoder = json.Config{UseInt64: true}.Froze()

func Unmarshal(b []byte, v any) error {
	return decoder.Unmarshal(b, v)
}

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Valid reports whether b is a valid JSON document.
func Valid(b []byte) bool {
	return json.Valid(b)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}
