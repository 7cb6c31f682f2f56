package runtime

import (
	"errors"
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/plugin"
	"time"
)

const (
	LabelAppName   = "app.kubernetes.io/name"
	LabelComponent = "component"
)

// selectApp returns the application named by the pod's parser annotation, else its name label, else its component label.
// The first one present decides, whether it's a known application or not.
func (r *Runtime) selectApp(k *ecs.Kubernetes) (string, bool) {
	if app, ok := k.Annotation(r.parserAnnotation); ok {
		return app, true
	}
	if app, ok := k.Label(LabelAppName); ok {
		return app, true
	}
	return k.Label(LabelComponent)
}

// dispatch runs the converter of the record's application, if there is one.
// It returns the application whose converter ran.
func (r *Runtime) dispatch(doc *ecs.Document, arrival time.Time) string {
	app, ok := r.selectApp(doc.Kubernetes)
	if !ok {
		r.log.Trace("No application metadata")
		return ""
	}
	log := r.log.With("app", app)
	convert, _, ok := r.registry.Converter(app)
	if !ok {
		log.Trace("No converter for application")
		return ""
	}
	log.Trace("Dispatching to converter")
	if err := convert(doc, arrival); err != nil {
		if errors.Is(err, plugin.ErrUnrecognized) {
			log.Warn("Record was not recognized by the converter", "error", err, "event.original", original(doc))
			return app
		}
		log.Error("Converter failed", "error", err)
	}
	return app
}

func original(doc *ecs.Document) string {
	if doc.HasEvent() && doc.Event().Original != nil {
		return *doc.Event().Original
	}
	if doc.Message != nil {
		return *doc.Message
	}
	return ""
}
