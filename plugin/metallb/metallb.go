// Package metallb converts the structured logs of the metallb controller and speaker.
package metallb

import (
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"github.com/saylorsolutions/fluentecs/plugin"
	"time"
)

const (
	App = "metallb"

	categoryNetwork = "network"
	categorySession = "session"
)

var (
	severities = plugin.Severities{
		"debug": 100,
		"info":  200,
		"warn":  300,
		"error": 400,
	}
	miscKeys = []string{
		"ips",
		"interface",
		"pool",
		"controller",
		"name",
		"gvk",
		"IPAdvertisement",
		"service",
		"localIfs",
		"reason",
		"expected",
		"joined",
	}

	eventTypes = map[string]string{
		"serviceAnnounced":   "start",
		"sessionUp":          "start",
		"serviceWithdrawn":   "end",
		"sessionDown":        "end",
		"createARPResponder": "creation",
		"createNDPResponder": "creation",
	}
	// outcomes is keyed by level, then by operation.
	outcomes = map[string]map[string]string{
		"info": {
			"serviceAnnounced":   plugin.OutcomeSuccess,
			"serviceWithdrawn":   plugin.OutcomeSuccess,
			"serviceDeleted":     plugin.OutcomeSuccess,
			"peerAdded":          plugin.OutcomeSuccess,
			"peerRemoved":        plugin.OutcomeSuccess,
			"sessionUp":          plugin.OutcomeSuccess,
			"createARPResponder": plugin.OutcomeSuccess,
			"createNDPResponder": plugin.OutcomeSuccess,
		},
		"error": {
			"updateServiceStatus": plugin.OutcomeFailure,
			"connect":             plugin.OutcomeFailure,
			"sendUpdate":          plugin.OutcomeFailure,
			"getInterfaces":       plugin.OutcomeFailure,
			"getAddresses":        plugin.OutcomeFailure,
			"reload-validate":     plugin.OutcomeFailure,
			"reload":              plugin.OutcomeFailure,
			"listenAndServe":      plugin.OutcomeFailure,
		},
	}
	// noAction lists operations that aren't recorded as event.action.
	noAction = map[string]bool{
		"force service reload": true,
	}
)

func Plugin() plugin.Plugin {
	return new(metallbPlugin)
}

type metallbPlugin struct{}

func (*metallbPlugin) ID() string {
	return App
}

func (*metallbPlugin) Stopping() error {
	return nil
}

func (*metallbPlugin) Register(reg *plugin.Registration) {
	reg.RegisterConverter(App, Convert)
	reg.DocumentConverter(App, `metallb

Maps the go-kit JSON logs of the metallb controller and speaker.
The operation, taken from a text event or the op field, decides the event category, type, outcome, and action.`)
}

// Convert maps the fields of a metallb log record.
func Convert(doc *ecs.Document, _ time.Time) error {
	op, hasOp := operation(doc)
	level, hasLevel := doc.TakeString("level")

	plugin.TakeTimestamp(doc, "ts", "ts")

	action, hasAction := doc.Other.Take("action")
	msg, hasMsg := doc.TakeString("msg")
	errText, hasErr := doc.TakeErrorText()
	switch {
	case hasMsg && hasErr:
		plugin.SetMessage(doc, errText)
		doc.Error().Message = ecs.Ptr(errText)
		doc.AppendMisc("msg", msg)
	case hasMsg:
		plugin.SetMessage(doc, msg)
	case hasErr:
		plugin.SetMessage(doc, errText)
		doc.Error().Message = ecs.Ptr(errText)
	case hasOp:
		plugin.SetMessage(doc, op)
	case hasAction:
		plugin.SetMessage(doc, entries.Stringify(action))
		hasAction = false
	}
	if hasAction {
		doc.AppendMisc("action", action)
	}

	doc.Service().Type = ecs.Ptr(App)

	ev := doc.Event()
	ev.Kind = ecs.Ptr(plugin.KindEvent)
	ev.Module = ecs.Ptr(App)
	ev.AddCategory(categoryNetwork)
	if hasOp {
		if op == "sessionUp" || op == "sessionDown" {
			ev.AddCategory(categorySession)
		}
		if typ, ok := eventTypes[op]; ok {
			ev.AddType(typ)
		}
		if outcome, ok := outcomes[level][op]; ok {
			ev.Outcome = ecs.Ptr(outcome)
		}
		if !noAction[op] {
			ev.Action = ecs.Ptr(op)
		}
	}
	if hasLevel {
		severities.Apply(doc, level)
	}

	plugin.TakeCaller(doc, "caller")
	if logger, ok := doc.TakeString("logger"); ok {
		doc.Log().Logger = ecs.Ptr(logger)
	}
	if protocol, ok := doc.TakeString("protocol"); ok {
		doc.Network().Protocol = ecs.Ptr(protocol)
	}

	plugin.MoveToMisc(doc, miscKeys...)
	return nil
}

// operation returns the operation name from a free text event, or else from the op field.
func operation(doc *ecs.Document) (string, bool) {
	if op, ok := doc.TakeEventText(); ok {
		return op, true
	}
	return doc.TakeString("op")
}

