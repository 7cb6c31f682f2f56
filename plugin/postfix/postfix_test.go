package postfix

import (
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	pfgrammar "github.com/saylorsolutions/fluentecs/pkg/grammar/postfix"
	"github.com/saylorsolutions/fluentecs/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

const prefix = "Nov 16 13:27:38 myhost postfix/"

var arrival = time.Date(2023, time.November, 16, 13, 27, 38, 555000000, time.FixedZone("", 3600))

func logDocument(t *testing.T, line string) *ecs.Document {
	quoted, err := entries.Marshal(line)
	require.NoError(t, err)
	doc, err := ecs.Parse([]byte(`{"log":` + string(quoted) + `}`))
	require.NoError(t, err)
	return doc
}

func TestConvert_Connect(t *testing.T) {
	line := prefix + "smtpd[1234]: connect from mail.example.com[10.0.0.1]"
	doc := logDocument(t, line)
	require.NoError(t, Convert(doc, arrival))

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	expected := `{"@timestamp":"2023-11-16T13:27:38Z","message":"connect from mail.example.com[10.0.0.1]",` +
		`"event":{"module":"postfix","category":["network"],"type":["connection","start"],"outcome":"success",` +
		`"original":"` + line + `","severity":200},` +
		`"host":{"name":"myhost"},"log":{"level":"info"},"network":{"protocol":"smtp"},` +
		`"process":{"name":"smtpd","pid":1234},"service":{"type":"postfix"},` +
		`"source":{"domain":"mail.example.com","ip":"10.0.0.1"}}`
	assert.Equal(t, expected, string(out))
}

func TestConvert_Shapes(t *testing.T) {
	tests := map[string]struct {
		line     string
		category []string
		types    []string
		outcome  string
		severity uint32
		misc     []string
		check    func(t *testing.T, doc *ecs.Document)
	}{
		"disconnect": {
			line:     "smtpd[1234]: disconnect from unknown[10.0.0.1] ehlo=1 quit=1 commands=2",
			category: []string{"network"},
			types:    []string{"connection", "end"},
			outcome:  plugin.OutcomeSuccess,
			severity: 200,
			misc:     []string{"ehlo:1", "quit:1", "commands:2"},
			check: func(t *testing.T, doc *ecs.Document) {
				assert.Nil(t, doc.Source().Domain)
				assert.Equal(t, "10.0.0.1", *doc.Source().IP)
			},
		},
		"lost connection": {
			line:     "smtpd[1234]: lost connection after AUTH from unknown[10.0.0.1]",
			category: []string{"network"},
			types:    []string{"connection", "end"},
			outcome:  plugin.OutcomeFailure,
			severity: 200,
			misc:     []string{"command:AUTH"},
		},
		"auth failed": {
			line:     "smtpd[1234]: warning: unknown[10.0.0.2]: SASL LOGIN authentication failed: UGFzc3dvcmQ6",
			category: []string{"authentication"},
			types:    []string{"info"},
			outcome:  plugin.OutcomeFailure,
			severity: 300,
			misc:     []string{"sasl_method:LOGIN"},
			check: func(t *testing.T, doc *ecs.Document) {
				assert.Equal(t, "UGFzc3dvcmQ6", *doc.Error().Message)
				assert.Equal(t, "warning", *doc.Log().Level)
				assert.Equal(t, "smtp", *doc.Network().Protocol)
				assert.Equal(t, "unknown[10.0.0.2]: SASL LOGIN authentication failed: UGFzc3dvcmQ6", *doc.Message)
			},
		},
		"auth failed without reason": {
			line:     "smtpd[1234]: warning: unknown[10.0.0.2]: SASL PLAIN authentication failed",
			category: []string{"authentication"},
			types:    []string{"info"},
			outcome:  plugin.OutcomeFailure,
			severity: 300,
			misc:     []string{"sasl_method:PLAIN"},
			check: func(t *testing.T, doc *ecs.Document) {
				out, err := doc.MarshalJSON()
				require.NoError(t, err)
				assert.NotContains(t, string(out), `"error"`)
			},
		},
		"mail open stream": {
			line:     "smtpd[1234]: warning: mail_open_stream: cannot create queue file",
			category: []string{"file"},
			types:    []string{"creation"},
			outcome:  plugin.OutcomeFailure,
			severity: 300,
			check: func(t *testing.T, doc *ecs.Document) {
				assert.Equal(t, "cannot create queue file", *doc.Error().Message)
			},
		},
		"script": {
			line:     "postfix-script[17]: stopping the Postfix mail system",
			category: []string{"process"},
			types:    []string{"end"},
			severity: 200,
		},
		"anvil": {
			line:     "anvil[5]: statistics: max connection rate 1/60s for (smtp:10.0.0.1) at Nov 16 13:20:01",
			category: []string{"network"},
			types:    []string{"info"},
			severity: 200,
			misc:     []string{"max_connection_rate:1/60s", "client:smtp:10.0.0.1", "at:2023-11-16T13:20:01Z"},
		},
		"master started": {
			line:     "master[1]: daemon started -- version 3.5.6, configuration /etc/postfix",
			category: []string{"process"},
			types:    []string{"start"},
			severity: 200,
			misc:     []string{"configuration:/etc/postfix"},
			check: func(t *testing.T, doc *ecs.Document) {
				assert.Equal(t, "3.5.6", *doc.Service().Version)
			},
		},
		"master terminating": {
			line:     "master[1]: terminating on signal 15",
			category: []string{"process"},
			types:    []string{"end"},
			severity: 200,
			misc:     []string{"signal:15"},
		},
		"generic": {
			line:     "qmgr[7]: 4F2A1: removed",
			severity: 200,
			check: func(t *testing.T, doc *ecs.Document) {
				assert.Equal(t, "qmgr", *doc.Process().Name)
				assert.Equal(t, "4F2A1: removed", *doc.Message)
				assert.Nil(t, doc.Event().Outcome)
			},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			doc := logDocument(t, prefix+tc.line)
			require.NoError(t, Convert(doc, arrival))
			ev := doc.Event()
			assert.Equal(t, tc.category, ev.Category)
			assert.Equal(t, tc.types, ev.Type)
			if tc.outcome == "" {
				assert.Nil(t, ev.Outcome)
			} else {
				require.NotNil(t, ev.Outcome)
				assert.Equal(t, tc.outcome, *ev.Outcome)
			}
			require.NotNil(t, ev.Severity)
			assert.Equal(t, tc.severity, *ev.Severity)
			assert.Equal(t, tc.misc, doc.Misc)
			assert.Equal(t, "postfix", *ev.Module)
			assert.Equal(t, prefix+tc.line, *ev.Original)
			if tc.check != nil {
				tc.check(t, doc)
			}
		})
	}
}

func TestConvert_KeepsMessage(t *testing.T) {
	tests := map[string]struct {
		input   string
		message string
		misc    []string
	}{
		"parsed line": {
			input:   `{"message":"from the collector","log":"` + prefix + `smtpd[1]: connect from a[10.0.0.1]"}`,
			message: "connect from a[10.0.0.1]",
			misc:    []string{"message:from the collector"},
		},
		"unparseable line": {
			input:   `{"message":"from the collector","log":"garbage"}`,
			message: "garbage",
			misc:    []string{"message:from the collector"},
		},
		"missing line": {
			input:   `{"message":"from the collector"}`,
			message: missingLogMessage,
			misc:    []string{"message:from the collector"},
		},
		"same text": {
			input:   `{"message":"garbage","log":"garbage"}`,
			message: "garbage",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			doc, err := ecs.Parse([]byte(tc.input))
			require.NoError(t, err)
			_ = Convert(doc, arrival)
			require.NotNil(t, doc.Message)
			assert.Equal(t, tc.message, *doc.Message)
			assert.Equal(t, tc.misc, doc.Misc)
		})
	}
}

func TestConvert_Unparseable(t *testing.T) {
	const line = "this is not a syslog line"
	doc := logDocument(t, line)
	err := Convert(doc, arrival)
	require.ErrorIs(t, err, plugin.ErrUnrecognized)

	assert.Equal(t, line, *doc.Message)
	assert.Equal(t, line, *doc.Error().Message)
	ev := doc.Event()
	assert.Equal(t, plugin.KindPipelineError, *ev.Kind)
	assert.Equal(t, uint32(300), *ev.Severity)
	assert.Equal(t, plugin.OutcomeFailure, *ev.Outcome)
	assert.Equal(t, line, *ev.Original)
	_, ok := doc.TakeLogText()
	assert.False(t, ok)
}

func TestConvert_MissingLog(t *testing.T) {
	doc := ecs.NewDocument()
	err := Convert(doc, arrival)
	require.ErrorIs(t, err, plugin.ErrUnrecognized)

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"message":"fluent-ecs postfix parser failed: no log line passed.",`+
		`"event":{"module":"postfix","kind":"pipeline_error","outcome":"failure","severity":300}}`, string(out))
}

func TestTimestamp(t *testing.T) {
	tests := map[string]struct {
		month, day string
		hour       string
		arrival    time.Time
		expected   time.Time
		ok         bool
	}{
		"same year": {
			month: "Nov", day: "16", hour: "13",
			arrival:  time.Date(2023, time.November, 16, 13, 27, 38, 0, time.UTC),
			expected: time.Date(2023, time.November, 16, 13, 0, 0, 0, time.UTC),
			ok:       true,
		},
		"december line in january": {
			month: "Dec", day: "31", hour: "23",
			arrival:  time.Date(2024, time.January, 1, 0, 0, 1, 0, time.UTC),
			expected: time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC),
			ok:       true,
		},
		"december line in december": {
			month: "Dec", day: "1", hour: "00",
			arrival:  time.Date(2023, time.December, 1, 0, 0, 1, 0, time.UTC),
			expected: time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		"january line in december": {
			month: "Jan", day: "1", hour: "00",
			arrival:  time.Date(2023, time.December, 31, 0, 0, 1, 0, time.UTC),
			expected: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		"november line in january": {
			month: "Nov", day: "30", hour: "10",
			arrival:  time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2024, time.November, 30, 10, 0, 0, 0, time.UTC),
			ok:       true,
		},
		"not a date": {
			month: "Feb", day: "30", hour: "10",
			arrival: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
		"bad hour": {
			month: "Feb", day: "3", hour: "xx",
			arrival: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
		"hour out of range": {
			month: "Feb", day: "3", hour: "24",
			arrival: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			ts := &pfgrammar.Timestamp{Month: tc.month, Day: tc.day, Hour: tc.hour, Minute: "00", Second: "00"}
			got, ok := Timestamp(ts, tc.arrival)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected, got)
			}
		})
	}
}
