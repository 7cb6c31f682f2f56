// Package keycloak converts the JSON logs of keycloak, including the bodies of its event logger.
package keycloak

import (
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	kcgrammar "github.com/saylorsolutions/fluentecs/pkg/grammar/keycloak"
	"github.com/saylorsolutions/fluentecs/plugin"
	"time"
)

const (
	App = "keycloak"

	EventsLogger = "org.keycloak.events"

	categoryIAM            = "iam"
	categoryAuthentication = "authentication"
)

var (
	severities = plugin.Severities{
		"TRACE": 50,
		"DEBUG": 100,
		"INFO":  200,
		"WARN":  300,
		"ERROR": 400,
		"FATAL": 500,
	}
	miscKeys = []string{
		"mdc",
		"ndc",
		"loggerClassName",
	}
)

type eventClass struct {
	category string
	typ      string
	outcome  string
}

// eventClasses maps the type of a keycloak event to its classification.
// LOGIN_ERROR keeps the success outcome it has always been mapped to.
var eventClasses = map[string]eventClass{
	"LOGIN_ERROR":   {category: categoryAuthentication, typ: "denied", outcome: plugin.OutcomeSuccess},
	"LOGIN":         {category: categoryAuthentication, typ: "allowed", outcome: plugin.OutcomeSuccess},
	"CODE_TO_TOKEN": {category: categoryAuthentication, outcome: plugin.OutcomeSuccess},
}

func Plugin() plugin.Plugin {
	return new(keycloakPlugin)
}

type keycloakPlugin struct{}

func (*keycloakPlugin) ID() string {
	return App
}

func (*keycloakPlugin) Stopping() error {
	return nil
}

func (*keycloakPlugin) Register(reg *plugin.Registration) {
	reg.RegisterConverter(App, Convert)
	reg.DocumentConverter(App, `keycloak

Maps the Quarkus JSON logs of keycloak.
Messages of the `+EventsLogger+` logger are parsed as key="value" lists into the event, source, user, and error fields.`)
}

// Convert maps the fields of a keycloak log record.
// It returns an error wrapping plugin.ErrUnrecognized if an event logger message can't be parsed.
func Convert(doc *ecs.Document, _ time.Time) error {
	plugin.TakeTimestamp(doc, "timestamp", "ts")

	doc.Service().Type = ecs.Ptr(App)

	ev := doc.Event()
	ev.Module = ecs.Ptr(App)
	ev.AddCategory(categoryIAM)
	severities.TakeLevel(doc, "level")
	if seq, ok := doc.TakeUint("sequence"); ok {
		ev.Sequence = ecs.Ptr(seq)
	}

	logger, hasLogger := doc.TakeString("loggerName")
	if hasLogger {
		doc.Log().Logger = ecs.Ptr(logger)
	}

	if name, ok := doc.TakeString("processName"); ok {
		doc.Process().Name = ecs.Ptr(name)
	}
	if pid, ok := plugin.TakeUint32(doc, "processId"); ok {
		doc.Process().Pid = ecs.Ptr(pid)
	}
	if name, ok := doc.TakeString("threadName"); ok {
		doc.Process().EnsureThread().Name = ecs.Ptr(name)
	}
	if id, ok := doc.TakeUint("threadId"); ok {
		doc.Process().EnsureThread().ID = ecs.Ptr(id)
	}
	if hostname, ok := doc.TakeString("hostName"); ok {
		doc.Host().Hostname = ecs.Ptr(hostname)
	}

	plugin.MoveToMisc(doc, miscKeys...)

	if hasLogger && logger == EventsLogger && doc.Message != nil {
		return convertEvent(doc, *doc.Message)
	}
	return nil
}

func convertEvent(doc *ecs.Document, message string) error {
	e, err := kcgrammar.Parse(message)
	if err != nil {
		plugin.PipelineError(doc, App)
		return plugin.Unrecognized(err)
	}
	ev := doc.Event()
	// Keys without a field of their own are dropped.
	for _, p := range e.Pairs {
		switch p.Key {
		case "type":
			ev.Action = ecs.Ptr(p.Value)
			class, ok := eventClasses[p.Value]
			if !ok {
				continue
			}
			ev.AddCategory(class.category)
			if class.typ != "" {
				ev.AddType(class.typ)
			}
			ev.Outcome = ecs.Ptr(class.outcome)
		case "ipAddress":
			doc.Source().IP = ecs.Ptr(p.Value)
		case "error":
			doc.Error().Message = ecs.Ptr(p.Value)
		case "username":
			doc.User().Name = ecs.Ptr(p.Value)
		case "userId":
			if p.Value != "null" {
				doc.User().ID = ecs.Ptr(p.Value)
			}
		}
	}
	return nil
}
