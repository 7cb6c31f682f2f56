package metallb

import (
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func convert(t *testing.T, input string) *ecs.Document {
	doc, err := ecs.Parse([]byte(input))
	require.NoError(t, err)
	require.NoError(t, Convert(doc, time.Now()))
	return doc
}

func TestConvert(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected string
	}{
		"session up": {
			input: `{"caller":"level.go:63","event":"sessionUp","level":"info","localASN":64512,"msg":"BGP session established",` +
				`"peer":"10.0.0.1:179","peerASN":64512,"ts":"2023-11-16T13:27:38.555Z","protocol":"bgp"}`,
			expected: `{"@timestamp":"2023-11-16T13:27:38.555Z","message":"BGP session established",` +
				`"event":{"module":"metallb","kind":"event","category":["network","session"],"type":["start"],"outcome":"success","action":"sessionUp","severity":200},` +
				`"log":{"level":"info","origin":{"file":{"name":"level.go","line":63}}},` +
				`"network":{"protocol":"bgp"},"service":{"type":"metallb"},` +
				`"localASN":64512,"peer":"10.0.0.1:179","peerASN":64512}`,
		},
		"error and msg": {
			input: `{"op":"connect","level":"error","error":"dial tcp: i/o timeout","msg":"failed to connect","ips":["10.0.0.1","10.0.0.2"]}`,
			expected: `{"message":"dial tcp: i/o timeout",` +
				`"event":{"module":"metallb","kind":"event","category":["network"],"outcome":"failure","action":"connect","severity":400},` +
				`"error":{"message":"dial tcp: i/o timeout"},"log":{"level":"error"},"service":{"type":"metallb"},` +
				`"misc":["msg:failed to connect","ips:10.0.0.1,10.0.0.2"]}`,
		},
		"error only": {
			input: `{"op":"getInterfaces","level":"error","error":"no such device"}`,
			expected: `{"message":"no such device",` +
				`"event":{"module":"metallb","kind":"event","category":["network"],"outcome":"failure","action":"getInterfaces","severity":400},` +
				`"error":{"message":"no such device"},"log":{"level":"error"},"service":{"type":"metallb"}}`,
		},
		"operation as message": {
			input: `{"op":"force service reload","level":"info","logger":"controller"}`,
			expected: `{"message":"force service reload",` +
				`"event":{"module":"metallb","kind":"event","category":["network"],"severity":200},` +
				`"log":{"level":"info","logger":"controller"},"service":{"type":"metallb"}}`,
		},
		"action as message": {
			input: `{"action":"reload","level":"debug","pool":"default"}`,
			expected: `{"message":"reload",` +
				`"event":{"module":"metallb","kind":"event","category":["network"],"severity":100},` +
				`"log":{"level":"debug"},"service":{"type":"metallb"},"misc":["pool:default"]}`,
		},
		"unused action": {
			input: `{"msg":"hi","action":"reload","ts":"never"}`,
			expected: `{"message":"hi","event":{"module":"metallb","kind":"event","category":["network"]},` +
				`"service":{"type":"metallb"},"misc":["ts:never","action:reload"]}`,
		},
		"existing message is kept": {
			input: `{"message":"collector text","msg":"hi"}`,
			expected: `{"message":"hi","event":{"module":"metallb","kind":"event","category":["network"]},` +
				`"service":{"type":"metallb"},"misc":["message:collector text"]}`,
		},
		"partial join": {
			input: `{"caller":"main.go:388","event":"partialJoin","expected":3,"joined":2,"level":"info","msg":"memberlist partial join"}`,
			expected: `{"message":"memberlist partial join",` +
				`"event":{"module":"metallb","kind":"event","category":["network"],"action":"partialJoin","severity":200},` +
				`"log":{"level":"info","origin":{"file":{"name":"main.go","line":388}}},"service":{"type":"metallb"},` +
				`"misc":["expected:3","joined:2"]}`,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			out, err := convert(t, tc.input).MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(out))
		})
	}
}

func TestSeverities(t *testing.T) {
	tests := map[string]struct {
		level    string
		severity uint32
		known    bool
	}{
		"debug":   {level: "debug", severity: 100, known: true},
		"info":    {level: "info", severity: 200, known: true},
		"warn":    {level: "warn", severity: 300, known: true},
		"error":   {level: "error", severity: 400, known: true},
		"warning": {level: "warning"},
		"fatal":   {level: "fatal"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			doc := ecs.NewDocument()
			doc.Other["level"] = tc.level
			require.NoError(t, Convert(doc, time.Now()))
			assert.Equal(t, tc.level, *doc.Log().Level)
			if !tc.known {
				assert.Nil(t, doc.Event().Severity)
				return
			}
			require.NotNil(t, doc.Event().Severity)
			assert.Equal(t, tc.severity, *doc.Event().Severity)
		})
	}
}

func TestConvert_Outcome(t *testing.T) {
	tests := map[string]struct {
		op      string
		level   string
		outcome string
	}{
		"announced info":   {op: "serviceAnnounced", level: "info", outcome: "success"},
		"announced error":  {op: "serviceAnnounced", level: "error"},
		"connect error":    {op: "connect", level: "error", outcome: "failure"},
		"connect info":     {op: "connect", level: "info"},
		"reload error":     {op: "reload", level: "error", outcome: "failure"},
		"peer added":       {op: "peerAdded", level: "info", outcome: "success"},
		"session down":     {op: "sessionDown", level: "info"},
		"unknown op":       {op: "setBalancer", level: "info"},
		"announced no lvl": {op: "serviceAnnounced"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			input := `{"op":"` + tc.op + `"`
			if tc.level != "" {
				input += `,"level":"` + tc.level + `"`
			}
			doc := convert(t, input+"}")
			if tc.outcome == "" {
				assert.Nil(t, doc.Event().Outcome)
				return
			}
			require.NotNil(t, doc.Event().Outcome)
			assert.Equal(t, tc.outcome, *doc.Event().Outcome)
		})
	}
}

func TestConvert_Types(t *testing.T) {
	tests := map[string]struct {
		op         string
		categories []string
		types      []string
	}{
		"service announced": {op: "serviceAnnounced", categories: []string{"network"}, types: []string{"start"}},
		"service withdrawn": {op: "serviceWithdrawn", categories: []string{"network"}, types: []string{"end"}},
		"session down":      {op: "sessionDown", categories: []string{"network", "session"}, types: []string{"end"}},
		"arp responder":     {op: "createARPResponder", categories: []string{"network"}, types: []string{"creation"}},
		"ndp responder":     {op: "createNDPResponder", categories: []string{"network"}, types: []string{"creation"}},
		"other":             {op: "setBalancer", categories: []string{"network"}},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			doc := convert(t, `{"event":"`+tc.op+`"}`)
			assert.Equal(t, tc.categories, doc.Event().Category)
			assert.Equal(t, tc.types, doc.Event().Type)
		})
	}
}
