package entries

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LogEntry holds the JSON keys of a record that are not claimed by a typed field.
// Values are decoded with json.Number, so numbers keep their original text.
type LogEntry map[string]any

// Decode reads a JSON object into a LogEntry, preserving numbers as json.Number.
func Decode(data []byte) (LogEntry, error) {
	entry := LogEntry{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DecodeValue reads any JSON value, preserving numbers as json.Number.
func DecodeValue(data []byte) (any, error) {
	var val any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&val); err != nil {
		return nil, err
	}
	return val, nil
}

func (e LogEntry) HasField(name string) bool {
	_, ok := e[name]
	return ok
}

// Take removes the named field and returns its value.
func (e LogEntry) Take(name string) (any, bool) {
	val, ok := e[name]
	if ok {
		delete(e, name)
	}
	return val, ok
}

// Keys returns the field names in sorted order.
func (e LogEntry) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToUint converts a decoded JSON value to a uint64.
// Only integral numbers and numeric strings convert, negative and fractional values don't.
func ToUint(val any) (uint64, bool) {
	switch v := val.(type) {
	case uint64:
		return v, true
	case json.Number:
		i, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	v := reflect.ValueOf(val)
	if v.CanUint() {
		return v.Uint(), true
	}
	return 0, false
}

// AsString returns the named field only if it holds a JSON string.
func (e LogEntry) AsString(name string) (string, bool) {
	if !e.HasField(name) {
		return "", false
	}
	s, ok := e[name].(string)
	return s, ok
}

func (e LogEntry) AsTime(name string, format ...string) (time.Time, bool) {
	var none time.Time
	s, ok := e.AsString(name)
	if !ok {
		return none, false
	}
	if len(format) == 0 {
		format = []string{time.RFC3339Nano}
	}
	for _, f := range format {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, true
		}
	}
	return none, false
}

// Stringify renders a decoded JSON value the way it's recorded in misc.
// Strings are returned as-is, arrays are joined with commas, and anything else is JSON text.
func Stringify(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case []any:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = Stringify(elem)
		}
		return strings.Join(parts, ",")
	case nil:
		return "null"
	}
	data, err := Marshal(val)
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return string(data)
}

// Marshal encodes v as JSON without HTML escaping and without a trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
