package runtime

import (
	"context"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg), "collectors can only be registered once")

	r := NewRuntime(hclog.NewNullLogger(), AppPlugins()...)
	require.NoError(t, r.Configure(WithMetrics(m)))
	require.NoError(t, r.Start(context.Background()))
	defer func() {
		_ = r.Stop()
	}()

	r.Convert([]byte(`{"log":"`+postfixConnect+`","kubernetes":{"labels":{"app.kubernetes.io/name":"postfix"}}}`), arrival)
	r.Convert([]byte(`{"log":"garbage","kubernetes":{"labels":{"app.kubernetes.io/name":"postfix"}}}`), arrival)
	r.Convert([]byte(`{"log":"garbage","kubernetes":{"labels":{"app.kubernetes.io/name":"postfix"}}}`), arrival)
	r.Convert([]byte(`not json`), arrival)

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	var observations uint64
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			switch f.GetName() {
			case "fluentecs_documents_converted_total":
				counts[labels["app"]+"/"+labels["kind"]] = metric.GetCounter().GetValue()
			case "fluentecs_documents_conversion_duration_seconds":
				observations += metric.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, map[string]float64{
		"postfix/event":          1,
		"postfix/pipeline_error": 2,
		"none/pipeline_error":    1,
	}, counts)
	assert.Equal(t, uint64(4), observations)
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observe("postfix", "event", 0)
	})
}
