package runtime

import (
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/plugin"
	"time"
)

const (
	Module = "fluent-ecs"

	keyStream = "stream"
)

// dropped lists collector internal fields that are discarded.
var dropped = []string{keyStream, "_p"}

// finalize fills the event defaults, reconciles the timestamp with the arrival time, and merges a free text log field into the message.
func finalize(doc *ecs.Document, arrival time.Time) {
	ev := doc.Event()
	if ev.Kind == nil {
		ev.Kind = ecs.Ptr(plugin.KindEvent)
	}
	if ev.Module == nil {
		ev.Module = ecs.Ptr(Module)
		if stream, ok := doc.Other.AsString(keyStream); ok && ev.Dataset == nil {
			ev.Dataset = ecs.Ptr(Module + "." + stream)
		}
	}

	if doc.Timestamp == nil {
		doc.Timestamp = ecs.Ptr(arrival)
	} else if !doc.Timestamp.Equal(arrival) {
		ev.Created = ecs.Ptr(arrival)
	}

	if text, ok := doc.TakeLogText(); ok {
		if doc.Message == nil {
			doc.Message = ecs.Ptr(text)
		} else {
			doc.AppendMisc("log", text)
		}
	}

	for _, key := range dropped {
		delete(doc.Other, key)
	}
}
