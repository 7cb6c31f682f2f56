package runtime

import (
	"context"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	"github.com/saylorsolutions/fluentecs/pkg/kubernetes"
	"github.com/saylorsolutions/fluentecs/plugin"
	"golang.org/x/sync/semaphore"
	"sync"
	"time"
)

const (
	keyConvertError = "fluent-ecs-error"
)

// Convert turns one JSON record into a JSON document.
// It always returns a document: input that can't be converted is passed through with event.kind set to "pipeline_error".
// Only converters of plugins registered by Start are used.
func (r *Runtime) Convert(record []byte, arrival time.Time) []byte {
	start := time.Now()
	var app string
	doc, err := ecs.Parse(record)
	if err != nil {
		r.log.Warn("Record is not a JSON object", "error", err)
		doc = ecs.NewDocument()
		doc.Message = ecs.Ptr(string(record))
		plugin.PipelineError(doc, Module)
	} else if doc.Kubernetes != nil {
		app = r.dispatch(doc, arrival)
	}

	kubernetes.Normalize(doc)
	finalize(doc, arrival)
	r.metrics.observe(app, *doc.Event().Kind, time.Since(start))

	out, err := doc.MarshalJSON()
	if err != nil {
		r.log.Error("Failed to serialize document", "error", err)
		return errorDocument(err)
	}
	return out
}

func errorDocument(err error) []byte {
	out, merr := entries.Marshal(map[string]string{keyConvertError: err.Error()})
	if merr != nil {
		return []byte(`{"` + keyConvertError + `":"unable to serialize document"}`)
	}
	return out
}

// ConvertAll converts a batch of records with at most the configured number of workers.
// The documents are in the same order as the records.
func (r *Runtime) ConvertAll(ctx context.Context, records []iterator.Record) ([][]byte, error) {
	var (
		out = make([][]byte, len(records))
		sem = semaphore.NewWeighted(r.workers)
		wg  sync.WaitGroup
	)
	for i, rec := range records {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, rec iterator.Record) {
			defer wg.Done()
			defer sem.Release(1)
			out[i] = r.Convert(rec.Data, rec.Arrival)
		}(i, rec)
	}
	wg.Wait()
	return out, nil
}

// Converter wraps an Iterator of records with one that produces converted documents.
func (r *Runtime) Converter(iter iterator.Iterator) iterator.Iterator {
	return iterator.Map(iter, func(rec iterator.Record) (iterator.Record, error) {
		return iterator.NewRecord(r.Convert(rec.Data, rec.Arrival), rec.Arrival), nil
	})
}

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
)

// Default returns a started Runtime with all application plugins, shared by calls to Filter.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRuntime = NewRuntime(hclog.Default(), AppPlugins()...)
		_ = defaultRuntime.Start(context.Background())
	})
	return defaultRuntime
}

// Filter is the conversion entry point for a log processor host.
// The arrival time is given as seconds and nanoseconds since the Unix epoch.
// The returned document is terminated with a NUL byte.
func Filter(record []byte, sec, nsec uint32) []byte {
	arrival := time.Unix(int64(sec), int64(nsec)).UTC()
	return append(Default().Convert(record, arrival), 0)
}
