package plugin

import (
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	"sort"
	"strings"
	"time"
)

var (
	ErrArgs = errors.New("argument error")
	// ErrUnrecognized is returned by a ConvertFunc when the record doesn't have the expected shape.
	// The document has already been degraded to a pipeline error when it's returned.
	ErrUnrecognized = errors.New("unrecognized record")
)

// Plugin represents the operations expected of a converter, source, or sink plugin.
type Plugin interface {
	// ID should return a unique identifier for this plugin.
	ID() string
	// Register is called to allow registration of converter, source, and sink functions.
	Register(*Registration)
	// Stopping is called after all operations, when the runtime is shutting down.
	Stopping() error
}

// ConvertFunc populates a document from the fields of one application's log record.
// The arrival time is when the host observed the record.
type ConvertFunc = func(doc *ecs.Document, arrival time.Time) error

// SourceFunc is a function that takes 0 or more arguments to produce an iterator.Iterator of raw records.
type SourceFunc = func(ctx context.Context, args ...string) (iterator.Iterator, error)

// SinkFunc is a function that consumes an iterator.Iterator of converted documents and 0 or more arguments.
type SinkFunc = func(ctx context.Context, src iterator.Iterator, args ...string) error

// Registration is a collection of ConvertFunc, SourceFunc, and SinkFunc to be used by other components.
type Registration struct {
	converters    map[string]ConvertFunc
	convertersDoc map[string]string
	sources       map[string]map[string]SourceFunc
	sourcesDoc    map[string]map[string]string
	sinks         map[string]map[string]SinkFunc
	sinksDoc      map[string]map[string]string
}

func NewRegistration() *Registration {
	return &Registration{
		converters:    map[string]ConvertFunc{},
		convertersDoc: map[string]string{},
		sources:       map[string]map[string]SourceFunc{},
		sourcesDoc:    map[string]map[string]string{},
		sinks:         map[string]map[string]SinkFunc{},
		sinksDoc:      map[string]map[string]string{},
	}
}

// RegisterConverter is called by Plugin.Register to handle records of the named application.
// The name is what's matched against the parser annotation and the application labels of a pod.
func (r *Registration) RegisterConverter(app string, fn ConvertFunc) {
	if fn == nil {
		panic("converter is nil")
	}
	r.converters[app] = fn
}

// DocumentConverter is used to document the fields a converter populates.
func (r *Registration) DocumentConverter(app, doc string) {
	r.convertersDoc[app] = doc
}

// Converter retrieves the converter for the named application.
func (r *Registration) Converter(app string) (ConvertFunc, string, bool) {
	fn, ok := r.converters[app]
	if !ok {
		return nil, "", false
	}
	doc, ok := r.convertersDoc[app]
	if !ok {
		return fn, app, true
	}
	return fn, doc, true
}

// Apps returns the names of all known applications in alphabetical order.
func (r *Registration) Apps() []string {
	apps := make([]string, 0, len(r.converters))
	for app := range r.converters {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// RegisterSource is called by Plugin.Register to provide a source of raw records.
func (r *Registration) RegisterSource(qualifier, class string, src SourceFunc) {
	if src == nil {
		panic("source is nil")
	}
	sourceMap, ok := r.sources[qualifier]
	if !ok {
		sourceMap = map[string]SourceFunc{}
		r.sources[qualifier] = sourceMap
	}
	sourceMap[class] = src
}

// DocumentSource is used to document a provided plugin source. It's recommended to provide usage information in this documentation.
func (r *Registration) DocumentSource(qualifier, class, doc string) {
	sourceMap, ok := r.sourcesDoc[qualifier]
	if !ok {
		sourceMap = map[string]string{}
		r.sourcesDoc[qualifier] = sourceMap
	}
	sourceMap[class] = doc
}

// Source retrieves a source known to this Registration.
// It returns the SourceFunc if it exists, documentation, and a bool indicating whether the qualifier and class pair matches a known source.
func (r *Registration) Source(qualifier, class string) (SourceFunc, string, bool) {
	sources, ok := r.sources[qualifier]
	if !ok {
		return nil, "", false
	}
	source, ok := sources[class]
	if !ok {
		return nil, "", false
	}
	return source, getDocs(r.sourcesDoc, qualifier, class), true
}

// RegisterSink is called by Plugin.Register to provide a sink for converted documents.
func (r *Registration) RegisterSink(qualifier, class string, sink SinkFunc) {
	if sink == nil {
		panic("sink is nil")
	}
	sinkMap, ok := r.sinks[qualifier]
	if !ok {
		sinkMap = map[string]SinkFunc{}
		r.sinks[qualifier] = sinkMap
	}
	sinkMap[class] = sink
}

// DocumentSink is used to document a provided plugin sink. It's recommended to provide usage information in this documentation.
func (r *Registration) DocumentSink(qualifier, class, doc string) {
	sinkMap, ok := r.sinksDoc[qualifier]
	if !ok {
		sinkMap = map[string]string{}
		r.sinksDoc[qualifier] = sinkMap
	}
	sinkMap[class] = doc
}

// Sink retrieves a sink known to this Registration.
// It returns the SinkFunc if it exists, documentation, and a bool indicating whether the qualifier and class pair matches a known sink.
func (r *Registration) Sink(qualifier, class string) (SinkFunc, string, bool) {
	sinks, ok := r.sinks[qualifier]
	if !ok {
		return nil, "", false
	}
	sink, ok := sinks[class]
	if !ok {
		return nil, "", false
	}
	return sink, getDocs(r.sinksDoc, qualifier, class), true
}

// AllDocs will return a string containing all the documentation for all loaded plugins.
// The listing will include converters, sources, then sinks, in alphabetical order.
func (r *Registration) AllDocs() string {
	var buf strings.Builder
	buf.WriteString("Converters:\n")
	var _buf strings.Builder
	apps := r.Apps()
	if len(apps) == 0 {
		_buf.WriteString("None\n")
	}
	for _, app := range apps {
		_, doc, _ := r.Converter(app)
		writeDoc(&_buf, doc)
	}
	buf.WriteString(indentString(_buf.String()))
	buf.WriteString("Sources:\n")
	populateDocs(&buf, r.sources, r.sourcesDoc)
	buf.WriteString("Sinks:\n")
	populateDocs(&buf, r.sinks, r.sinksDoc)
	return buf.String()
}

func getDocs(docs map[string]map[string]string, qualifier, class string) string {
	defaultDoc := fmt.Sprintf("%s.%s", qualifier, class)
	qualDocs, ok := docs[qualifier]
	if !ok {
		return defaultDoc
	}
	doc, ok := qualDocs[class]
	if !ok {
		return defaultDoc
	}
	return doc
}

const (
	indent = "  "
)

func indentString(s string) string {
	s = strings.TrimSuffix(strings.ReplaceAll(indent+s, "\n", "\n"+indent), indent)
	return strings.ReplaceAll(s, "\n"+indent+"\n", "\n\n")
}

func writeDoc(buf *strings.Builder, doc string) {
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}
	buf.WriteString(doc)
	buf.WriteString("\n")
}

func populateDocs[T any](buf *strings.Builder, model map[string]map[string]T, docs map[string]map[string]string) {
	var (
		_buf       strings.Builder
		qualifiers []string
		qualMap    = map[string][]string{}
	)
	for qual, classMap := range model {
		qualifiers = append(qualifiers, qual)
		var classes []string
		for class := range classMap {
			classes = append(classes, class)
		}
		sort.Strings(classes)
		qualMap[qual] = classes
	}
	if len(qualifiers) == 0 {
		_buf.WriteString("None\n")
	} else {
		sort.Strings(qualifiers)
		for _, qual := range qualifiers {
			for _, class := range qualMap[qual] {
				writeDoc(&_buf, getDocs(docs, qual, class))
			}
		}
	}
	buf.WriteString(indentString(_buf.String()))
}
