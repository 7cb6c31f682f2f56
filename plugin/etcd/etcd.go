// Package etcd converts the structured logs of etcd.
package etcd

import (
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/plugin"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	App = "etcd"

	categoryDatabase = "database"
)

var (
	severities = plugin.Severities{
		"debug": 100,
		"info":  200,
		"warn":  300,
		"error": 400,
	}
	miscKeys = []string{
		"hash",
		"compact-index",
		"compact-revision",
		"expected-duration",
		"prefix",
		"request",
		"response",
		"revision",
	}
)

func Plugin() plugin.Plugin {
	return new(etcdPlugin)
}

type etcdPlugin struct{}

func (*etcdPlugin) ID() string {
	return App
}

func (*etcdPlugin) Stopping() error {
	return nil
}

func (*etcdPlugin) Register(reg *plugin.Registration) {
	reg.RegisterConverter(App, Convert)
	reg.DocumentConverter(App, `etcd

Maps ts, msg, level, caller, and took of etcd's JSON logs.
The took duration is recorded as event.duration in nanoseconds when it ends in "ms" or "s".`)
}

// Convert maps the fields of an etcd log record.
func Convert(doc *ecs.Document, _ time.Time) error {
	plugin.TakeTimestamp(doc, "ts", "ts")
	if msg, ok := doc.TakeString("msg"); ok {
		plugin.SetMessage(doc, msg)
	}

	doc.Service().Type = ecs.Ptr(App)

	ev := doc.Event()
	ev.Kind = ecs.Ptr(plugin.KindEvent)
	ev.Module = ecs.Ptr(App)
	ev.AddCategory(categoryDatabase)
	severities.TakeLevel(doc, "level")
	if took, ok := doc.TakeString("took"); ok {
		// Durations with any other unit are dropped.
		if d, ok := ParseDuration(took); ok {
			ev.Duration = &d
		}
	}

	plugin.TakeCaller(doc, "caller")
	plugin.MoveToMisc(doc, miscKeys...)
	return nil
}

// ParseDuration converts a decimal number of milliseconds ("1.5ms") or seconds ("2s") to nanoseconds.
func ParseDuration(s string) (uint64, bool) {
	var (
		number string
		factor float64
	)
	switch {
	case strings.HasSuffix(s, "ms"):
		number, factor = strings.TrimSuffix(s, "ms"), 1e6
	case strings.HasSuffix(s, "s"):
		number, factor = strings.TrimSuffix(s, "s"), 1e9
	default:
		return 0, false
	}
	val, err := strconv.ParseFloat(number, 64)
	if err != nil || math.IsNaN(val) || val < 0 {
		return 0, false
	}
	ns := val * factor
	if math.IsInf(ns, 0) || ns >= math.MaxUint64 {
		return 0, false
	}
	return uint64(ns), true
}
