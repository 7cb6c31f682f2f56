package ecs

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected string
	}{
		"empty object": {
			input:    `{}`,
			expected: `{}`,
		},
		"unknown keys sorted after typed fields": {
			input:    `{"zeta":1,"message":"hi","alpha":{"b":true}}`,
			expected: `{"message":"hi","alpha":{"b":true},"zeta":1}`,
		},
		"numbers keep their text": {
			input:    `{"big":12345678901234567890,"frac":1.50}`,
			expected: `{"big":12345678901234567890,"frac":1.50}`,
		},
		"sub-object keeps unknown fields": {
			input:    `{"host":{"hostname":"a","extra":1}}`,
			expected: `{"host":{"hostname":"a","extra":1}}`,
		},
		"timestamp keeps its offset": {
			input:    `{"@timestamp":"2023-11-16T13:27:38.555+01:00"}`,
			expected: `{"@timestamp":"2023-11-16T13:27:38.555+01:00"}`,
		},
		"free text event": {
			input:    `{"event":"sessionUp"}`,
			expected: `{"event":"sessionUp"}`,
		},
		"structured event": {
			input:    `{"event":{"kind":"event","category":["a","b"],"custom":"x"}}`,
			expected: `{"event":{"kind":"event","category":["a","b"],"custom":"x"}}`,
		},
		"wrong typed field moves to misc": {
			input:    `{"host":"x","misc":["a:b"]}`,
			expected: `{"misc":["a:b","host:x"]}`,
		},
		"number as event moves to misc": {
			input:    `{"event":5}`,
			expected: `{"misc":["event:5"]}`,
		},
		"unparseable timestamp moves to misc": {
			input:    `{"@timestamp":"yesterday"}`,
			expected: `{"misc":["@timestamp:yesterday"]}`,
		},
		"html is not escaped": {
			input:    `{"message":"<a> & <b>"}`,
			expected: `{"message":"<a> & <b>"}`,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.input))
			require.NoError(t, err)
			out, err := doc.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(out))
		})
	}
}

func TestParse_NotAnObject(t *testing.T) {
	tests := map[string]string{
		"array":   `[1,2]`,
		"string":  `"text"`,
		"garbage": `not json`,
		"empty":   ``,
		"broken":  `{"a":`,
	}

	for name, input := range tests {
		input := input
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.ErrorIs(t, err, ErrNotAnObject)
		})
	}
}

func TestDocument_Event(t *testing.T) {
	doc, err := Parse([]byte(`{"event":"started","error":"boom"}`))
	require.NoError(t, err)

	doc.Event().Kind = Ptr("event")
	doc.Error().Message = Ptr("failed")
	assert.Equal(t, []string{"event:started", "error:boom"}, doc.Misc)

	_, ok := doc.TakeEventText()
	assert.False(t, ok, "event text is gone once the object exists")
}

func TestParse_NullTypedFields(t *testing.T) {
	tests := map[string]struct {
		input string
		misc  []string
	}{
		"message": {
			input: `{"message":null}`,
			misc:  []string{"message:null"},
		},
		"event and host": {
			input: `{"event":null,"host":null,"other":null}`,
			misc:  []string{"event:null", "host:null"},
		},
		"misc": {
			input: `{"misc":null}`,
			misc:  []string{"misc:null"},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.input))
			require.NoError(t, err)
			assert.Nil(t, doc.Message)
			assert.False(t, doc.HasEvent())
			assert.Equal(t, tc.misc, doc.Misc)
		})
	}
}

func TestDocument_TakeEventText(t *testing.T) {
	doc, err := Parse([]byte(`{"event":"sessionDown"}`))
	require.NoError(t, err)

	text, ok := doc.TakeEventText()
	assert.True(t, ok)
	assert.Equal(t, "sessionDown", text)
	doc.Event().Action = Ptr(text)
	assert.Empty(t, doc.Misc)
}

func TestDocument_Log(t *testing.T) {
	doc, err := Parse([]byte(`{"log":"raw line"}`))
	require.NoError(t, err)

	doc.Log().Level = Ptr("info")
	text, ok := doc.TakeLogText()
	assert.True(t, ok)
	assert.Equal(t, "raw line", text)

	_, ok = doc.TakeLogText()
	assert.False(t, ok)

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"log":{"level":"info"}}`, string(out))
}

func TestDocument_LazyAccessors(t *testing.T) {
	doc := NewDocument()
	doc.Container().EnsureImage().EnsureHash().All = []string{"sha256:abc"}
	doc.Orchestrator().EnsureResource().EnsureParent().Type = Ptr("StatefulSet")
	doc.Log().EnsureOrigin().EnsureFile().Line = Ptr(uint32(12))
	doc.Process().EnsureThread().ID = Ptr(uint64(7))
	doc.Network()

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	expected := `{"container":{"image":{"hash":{"all":["sha256:abc"]}}},` +
		`"log":{"origin":{"file":{"line":12}}},` +
		`"network":{},` +
		`"orchestrator":{"resource":{"parent":{"type":"StatefulSet"}}},` +
		`"process":{"thread":{"id":7}}}`
	assert.Equal(t, expected, string(out))
}

func TestDocument_Take(t *testing.T) {
	doc, err := Parse([]byte(`{"name":"a","pid":12,"seq":"3","count":5,"neg":-1,"hash":[1,"b"]}`))
	require.NoError(t, err)

	s, ok := doc.TakeString("name")
	assert.True(t, ok)
	assert.Equal(t, "a", s)

	_, ok = doc.TakeString("pid")
	assert.False(t, ok)

	_, ok = doc.TakeUint("seq")
	assert.False(t, ok)

	n, ok := doc.TakeUint("count")
	assert.True(t, ok)
	assert.Equal(t, uint64(5), n)

	_, ok = doc.TakeUint("neg")
	assert.False(t, ok)

	_, ok = doc.TakeString("missing")
	assert.False(t, ok)

	doc.MoveKeyToMisc("hash")
	doc.MoveKeyToMisc("missing")

	assert.Empty(t, doc.Other)
	assert.Equal(t, []string{"pid:12", "seq:3", "neg:-1", "hash:1,b"}, doc.Misc)
}

func TestDocument_Timestamp(t *testing.T) {
	doc := NewDocument()
	ts := time.Date(2023, time.November, 16, 12, 27, 38, 0, time.UTC)
	doc.Timestamp = &ts
	doc.Event().Created = &ts

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"@timestamp":"2023-11-16T12:27:38Z","event":{"created":"2023-11-16T12:27:38Z"}}`, string(out))
}

func TestKubernetes_Unmarshal(t *testing.T) {
	doc, err := Parse([]byte(`{"kubernetes":{"pod_name":"p","labels":{"app":"etcd"},"annotations":{"fluent-ecs/parser":"postfix"},"extra":"x"}}`))
	require.NoError(t, err)
	require.NotNil(t, doc.Kubernetes)

	assert.Equal(t, "p", *doc.Kubernetes.PodName)
	label, ok := doc.Kubernetes.Label("app")
	assert.True(t, ok)
	assert.Equal(t, "etcd", label)
	annotation, ok := doc.Kubernetes.Annotation("fluent-ecs/parser")
	assert.True(t, ok)
	assert.Equal(t, "postfix", annotation)
	assert.Equal(t, "x", doc.Kubernetes.Other["extra"])

	var none *Kubernetes
	_, ok = none.Label("app")
	assert.False(t, ok)
}
