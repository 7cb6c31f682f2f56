// Package postfix converts postfix syslog lines, passed by the collector as a free text log field.
package postfix

import (
	"errors"
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/pkg/grammar"
	pfgrammar "github.com/saylorsolutions/fluentecs/pkg/grammar/postfix"
	"github.com/saylorsolutions/fluentecs/plugin"
	"strconv"
	"strings"
	"time"
)

const (
	App = "postfix"

	missingLogMessage = "fluent-ecs postfix parser failed: no log line passed."
	protocolSMTP      = "smtp"
	unknownHost       = "unknown"

	levelInfo    = "info"
	levelWarning = "warning"
)

var (
	ErrNoLogLine = errors.New("no log line passed")

	severities = plugin.Severities{
		levelInfo:    200,
		levelWarning: 300,
	}
)

func Plugin() plugin.Plugin {
	return new(postfixPlugin)
}

type postfixPlugin struct{}

func (*postfixPlugin) ID() string {
	return App
}

func (*postfixPlugin) Stopping() error {
	return nil
}

func (*postfixPlugin) Register(reg *plugin.Registration) {
	reg.RegisterConverter(App, Convert)
	reg.DocumentConverter(App, `postfix

Parses the syslog line in the log field of postfix containers.
Known smtpd, anvil, master, and postfix-script messages are classified as events.
The year of the syslog timestamp is taken from the arrival time, or the year before for December lines arriving in January.`)
}

// Convert parses the syslog line in the document's free text log field.
// It returns an error wrapping plugin.ErrUnrecognized if there is no line, or the line isn't a postfix syslog line.
func Convert(doc *ecs.Document, arrival time.Time) error {
	line, ok := doc.TakeLogText()
	if !ok {
		plugin.SetMessage(doc, missingLogMessage)
		plugin.PipelineError(doc, App)
		return plugin.Unrecognized(ErrNoLogLine)
	}

	l, err := pfgrammar.Parse(line)
	if err != nil {
		plugin.SetMessage(doc, line)
		doc.Error().Message = ecs.Ptr(line)
		plugin.PipelineError(doc, App)
		doc.Event().Original = ecs.Ptr(line)
		return plugin.Unrecognized(err)
	}

	ev := doc.Event()
	ev.Module = ecs.Ptr(App)
	ev.Original = ecs.Ptr(line)
	doc.Service().Type = ecs.Ptr(App)

	if ts, ok := Timestamp(l.Timestamp, arrival); ok {
		doc.Timestamp = &ts
	} else {
		doc.AppendMisc("timestamp", l.Timestamp.Text())
	}

	doc.Host().Name = ecs.Ptr(l.Host)
	proc := doc.Process()
	proc.Name = ecs.Ptr(l.Process)
	if pid, err := strconv.ParseUint(l.Pid, 10, 32); err == nil {
		proc.Pid = ecs.Ptr(uint32(pid))
	} else {
		doc.AppendMisc("pid", l.Pid)
	}

	plugin.SetMessage(doc, l.Message.Text())
	if l.Warning {
		severities.Apply(doc, levelWarning)
	} else {
		severities.Apply(doc, levelInfo)
	}

	convertMessage(doc, l.Message, arrival)
	return nil
}

func convertMessage(doc *ecs.Document, node grammar.Node, arrival time.Time) {
	ev := doc.Event()
	switch n := node.(type) {
	case *pfgrammar.SmtpdConnect:
		ev.AddCategory("network")
		ev.AddType("connection", "start")
		ev.Outcome = ecs.Ptr(plugin.OutcomeSuccess)
		setRemote(doc, n.Remote)
	case *pfgrammar.SmtpdDisconnect:
		ev.AddCategory("network")
		ev.AddType("connection", "end")
		ev.Outcome = ecs.Ptr(plugin.OutcomeSuccess)
		setRemote(doc, n.Remote)
		for _, kv := range n.Commands {
			doc.AppendMisc(kv.Key, kv.Value)
		}
	case *pfgrammar.SmtpdLostConnection:
		ev.AddCategory("network")
		ev.AddType("connection", "end")
		ev.Outcome = ecs.Ptr(plugin.OutcomeFailure)
		setRemote(doc, n.Remote)
		doc.AppendMisc("command", n.Command)
	case *pfgrammar.SmtpdAuthFailed:
		ev.AddCategory("authentication")
		ev.AddType("info")
		ev.Outcome = ecs.Ptr(plugin.OutcomeFailure)
		setRemote(doc, n.Remote)
		if n.Reason != "" {
			doc.Error().Message = ecs.Ptr(n.Reason)
		}
		doc.AppendMisc("sasl_method", n.Mechanism)
	case *pfgrammar.SmtpdMailOpenStream:
		ev.AddCategory("file")
		ev.AddType("creation")
		ev.Outcome = ecs.Ptr(plugin.OutcomeFailure)
		doc.Error().Message = ecs.Ptr(n.Detail)
	case *pfgrammar.Script:
		ev.AddCategory("process")
		switch n.Action {
		case "starting":
			ev.AddType("start")
		case "stopping":
			ev.AddType("end")
		default:
			ev.AddType("change")
		}
	case *pfgrammar.AnvilStatistic:
		ev.AddCategory("network")
		ev.AddType("info")
		doc.AppendMisc(strings.TrimPrefix(string(n.Rule()), "anvil_"), n.Value)
		if n.Client != "" {
			doc.AppendMisc("client", n.Client)
		}
		if at, ok := Timestamp(n.At, arrival); ok {
			doc.AppendMisc("at", at.Format(time.RFC3339))
		} else {
			doc.AppendMisc("at", n.At.Text())
		}
	case *pfgrammar.Master:
		ev.AddCategory("process")
		switch n.Rule() {
		case pfgrammar.RuleMasterStarted:
			ev.AddType("start")
		case pfgrammar.RuleMasterReload:
			ev.AddType("change")
		case pfgrammar.RuleMasterTerminating:
			ev.AddType("end")
			doc.AppendMisc("signal", n.Signal)
		}
		if n.Version != "" {
			doc.Service().Version = ecs.Ptr(n.Version)
		}
		if n.Configuration != "" {
			doc.AppendMisc("configuration", n.Configuration)
		}
	}
}

func setRemote(doc *ecs.Document, remote *pfgrammar.Remote) {
	if remote == nil {
		return
	}
	src := doc.Source()
	if remote.Hostname != unknownHost {
		src.Domain = ecs.Ptr(remote.Hostname)
	}
	src.IP = ecs.Ptr(remote.IP)
	doc.Network().Protocol = ecs.Ptr(protocolSMTP)
}

// Timestamp builds a UTC time from a syslog timestamp, taking the year from the arrival time.
// A December timestamp arriving in January is from the year before.
// It returns false if the parts don't form a valid date.
func Timestamp(ts *pfgrammar.Timestamp, arrival time.Time) (time.Time, bool) {
	month := ts.MonthNumber()
	year := arrival.Year()
	if month == 12 && arrival.Month() == time.January {
		year--
	}
	day := atoi(ts.Day, 0)
	hour := atoi(ts.Hour, 1000)
	minute := atoi(ts.Minute, 1000)
	second := atoi(ts.Second, 1000)

	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) {
		return time.Time{}, false
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}

func atoi(s string, fallback int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return i
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
