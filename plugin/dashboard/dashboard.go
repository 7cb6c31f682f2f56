// Package dashboard converts the logs of the Kubernetes dashboard metrics scraper.
package dashboard

import (
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"github.com/saylorsolutions/fluentecs/plugin"
	"time"
)

const (
	App    = "kubernetes-dashboard-metrics-scraper"
	Module = "kubernetes_dashboard"
)

var severities = plugin.Severities{
	"info":    200,
	"warning": 300,
	"error":   400,
	"fatal":   500,
}

func Plugin() plugin.Plugin {
	return new(dashboardPlugin)
}

type dashboardPlugin struct{}

func (*dashboardPlugin) ID() string {
	return "dashboard"
}

func (*dashboardPlugin) Stopping() error {
	return nil
}

func (*dashboardPlugin) Register(reg *plugin.Registration) {
	reg.RegisterConverter(App, Convert)
	reg.DocumentConverter(App, `kubernetes-dashboard-metrics-scraper

Maps time, msg, and level of the dashboard metrics scraper's logrus JSON logs.`)
}

// Convert maps the fields of a metrics scraper log record.
func Convert(doc *ecs.Document, _ time.Time) error {
	plugin.TakeTimestamp(doc, "time", "time")
	if msg, ok := doc.Other.Take("msg"); ok {
		plugin.SetMessage(doc, entries.Stringify(msg))
	}
	doc.Event().Module = ecs.Ptr(Module)
	severities.TakeLevel(doc, "level")
	return nil
}
