package jsonutil

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling upstreams
// and models that emit identifiers as numbers instead of strings.
// Returns empty string for null/empty. Objects, arrays and booleans are not
// identifiers and come back as their raw text so callers can reject them.
func FlexibleStringValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strings.TrimSpace(strVal)
	}

	// json.Number keeps integer ids exact beyond 2^53.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var numVal json.Number
	if err := dec.Decode(&numVal); err == nil {
		return canonicalNumber(numVal)
	}

	return string(raw)
}

// canonicalNumber renders 123, 123.0 and 1.23e2 identically.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// ID is a string identifier that also accepts a JSON number on decode.
// It always encodes as a JSON string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID(FlexibleStringValue(data))
	return nil
}

func (id ID) String() string {
	return string(id)
}
