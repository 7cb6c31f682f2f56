package entries

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	entry, err := Decode([]byte(`{"n":12345678901234567890,"f":1.50,"s":"x","o":{"a":[1,null]}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), entry["n"])
	assert.Equal(t, json.Number("1.50"), entry["f"])
	assert.Equal(t, map[string]any{"a": []any{json.Number("1"), nil}}, entry["o"])

	_, err = Decode([]byte(`[1,2]`))
	assert.Error(t, err)

	val, err := DecodeValue([]byte(`"quoted"`))
	require.NoError(t, err)
	assert.Equal(t, "quoted", val)
}

func TestLogEntry_Take(t *testing.T) {
	entry := LogEntry{"a": 1, "b": 2}
	val, ok := entry.Take("a")
	assert.True(t, ok)
	assert.Equal(t, 1, val)
	assert.False(t, entry.HasField("a"))

	_, ok = entry.Take("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, entry.Keys())
}

func TestLogEntry_Keys(t *testing.T) {
	entry := LogEntry{"c": nil, "a": nil, "B": nil}
	assert.Equal(t, []string{"B", "a", "c"}, entry.Keys())
	assert.Empty(t, LogEntry{}.Keys())
}

func TestToUint(t *testing.T) {
	tests := map[string]struct {
		val      any
		expected uint64
		exists   bool
	}{
		"uint64": {
			val:      uint64(5),
			expected: 5,
			exists:   true,
		},
		"uint32": {
			val:      uint32(5),
			expected: 5,
			exists:   true,
		},
		"json number": {
			val:      json.Number("18446744073709551615"),
			expected: 18446744073709551615,
			exists:   true,
		},
		"negative json number": {
			val: json.Number("-1"),
		},
		"fractional json number": {
			val: json.Number("1.5"),
		},
		"int string": {
			val:      "5",
			expected: 5,
			exists:   true,
		},
		"something else": {
			val: "blah",
		},
		"signed int": {
			val: 5,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			got, ok := ToUint(tc.val)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.exists, ok)
		})
	}
}

func TestLogEntry_AsString(t *testing.T) {
	entry := LogEntry{"s": "x", "n": json.Number("1")}
	s, ok := entry.AsString("s")
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	_, ok = entry.AsString("n")
	assert.False(t, ok)
	_, ok = entry.AsString("missing")
	assert.False(t, ok)
}

func TestLogEntry_AsTime(t *testing.T) {
	var none time.Time
	now, err := time.Parse(time.RFC3339, time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)
	now822, err := time.Parse(time.RFC822, time.Now().UTC().Format(time.RFC822))
	require.NoError(t, err)
	tests := map[string]struct {
		val      any
		expected time.Time
		exists   bool
	}{
		"Time string RFC 3339": {
			val:      now.Format(time.RFC3339),
			expected: now,
			exists:   true,
		},
		"Time string RFC 822": {
			val:      now822.Format(time.RFC822),
			expected: now822,
			exists:   true,
		},
		"Time value": {
			val:      now,
			expected: none,
		},
		"something else": {
			val:      "blah",
			expected: none,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			entry := LogEntry{
				"val": tc.val,
			}
			got, ok := entry.AsTime("val", time.RFC3339, time.RFC822)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.exists, ok)
		})
	}
}

func TestStringify(t *testing.T) {
	tests := map[string]struct {
		val      any
		expected string
	}{
		"string":  {val: "a b", expected: "a b"},
		"number":  {val: json.Number("1.50"), expected: "1.50"},
		"array":   {val: []any{"a", json.Number("1"), true}, expected: "a,1,true"},
		"null":    {val: nil, expected: "null"},
		"bool":    {val: false, expected: "false"},
		"object":  {val: map[string]any{"b": "<x>", "a": json.Number("1")}, expected: `{"a":1,"b":"<x>"}`},
		"integer": {val: uint64(7), expected: "7"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Stringify(tc.val))
		})
	}
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(map[string]string{"html": "<a href=\"x\">&</a>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<a href=\"x\">&</a>"}`, string(data))
}
