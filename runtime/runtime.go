// Package runtime converts log records into ECS style documents, using the converters registered by plugins.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	"github.com/saylorsolutions/fluentecs/plugin"
	"sync"
	"time"
)

var (
	ErrInvalidState  = errors.New("invalid state")
	ErrUnknownSource = errors.New("unknown source class")
	ErrUnknownSink   = errors.New("unknown sink class")
)

type runtimeState int

const (
	created runtimeState = iota
	started
	stopping
	done
)

var (
	stateStrings = map[runtimeState]string{
		created:  "Created",
		started:  "Started",
		stopping: "Stopping",
		done:     "Done",
	}
)

const (
	DefaultParserAnnotation       = "fluent-ecs/parser"
	DefaultWorkers          int64 = 4
)

type Runtime struct {
	log              hclog.Logger
	ctx              context.Context
	cancel           context.CancelFunc
	registry         *plugin.Registration
	plugins          []plugin.Plugin
	wg               sync.WaitGroup
	state            runtimeState
	parserAnnotation string
	workers          int64
	metrics          *Metrics
}

// Opt represents a functional option for a Runtime.
type Opt func(r *Runtime)

// ParserAnnotation sets the pod annotation that names the converter to use, overriding the application labels.
func ParserAnnotation(key string) Opt {
	return func(r *Runtime) {
		r.parserAnnotation = key
	}
}

// Workers sets how many records ConvertAll converts at the same time.
func Workers(n int64) Opt {
	return func(r *Runtime) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMetrics records every conversion in m.
func WithMetrics(m *Metrics) Opt {
	return func(r *Runtime) {
		r.metrics = m
	}
}

func NewRuntime(log hclog.Logger, plugins ...plugin.Plugin) *Runtime {
	return &Runtime{
		log:              log.Named("runtime"),
		registry:         plugin.NewRegistration(),
		plugins:          plugins,
		parserAnnotation: DefaultParserAnnotation,
		workers:          DefaultWorkers,
	}
}

// Configure applies options to a Runtime that hasn't been started yet.
func (r *Runtime) Configure(opts ...Opt) error {
	if r.state != created {
		return fmt.Errorf("%w: invalid state for configure operation: %s", ErrInvalidState, stateStrings[r.state])
	}
	for _, opt := range opts {
		opt(r)
	}
	return nil
}

// Registration returns the converters, sources, and sinks registered by the runtime's plugins.
// It's only populated once the runtime has been started.
func (r *Runtime) Registration() *plugin.Registration {
	return r.registry
}

func (r *Runtime) Start(_ctx context.Context) error {
	start := time.Now()
	log := r.log
	log.Debug("Starting runtime")
	if r.state != created {
		err := fmt.Errorf("%w: invalid state for start operation: %s", ErrInvalidState, stateStrings[r.state])
		log.Error("Invalid state to start", "error", err)
		return err
	}
	log.Debug("Registering plugins")
	r.ctx, r.cancel = context.WithCancel(_ctx)
	for _, p := range r.plugins {
		start := time.Now()
		log := log.With("plugin-id", p.ID(), "started", start)
		log.Debug("Registering plugin")
		p.Register(r.registry)
		log.Debug("Done registering plugin", "duration", time.Since(start).String())
	}
	r.state = started
	completed := time.Now()
	log.Debug("Runtime started", "start-duration", completed.Sub(start).String(), "apps", r.registry.Apps())
	return nil
}

func (r *Runtime) Stop() (rerr error) {
	start := time.Now()
	log := r.log.With("stopping", start)
	log.Debug("Stopping runtime")
	if r.state != started {
		err := fmt.Errorf("%w: invalid state for stop operation: %s", ErrInvalidState, stateStrings[r.state])
		log.Error("Invalid state to stop runtime", "error", err)
		return err
	}
	r.state = stopping
	log.Debug("Cancelling runtime context")
	r.cancel()
	log.Debug("Waiting for operations to cease")
	r.wg.Wait()
	log.Debug("Shutting down plugins")
	for _, p := range r.plugins {
		log := log.With("plugin-id", p.ID())
		log.Debug("Stopping plugin")
		if err := p.Stopping(); err != nil {
			log.Error("Error stopping plugin", "error", err)
			if rerr == nil {
				rerr = err
			}
		}
		log.Debug("Plugin stopped")
	}
	r.state = done
	log.Debug("Runtime stopped", "stop-duration", time.Since(start).String())
	return rerr
}

// Endpoint names a registered source or sink, and the arguments to pass to it.
type Endpoint struct {
	Qualifier string
	Class     string
	Args      []string
}

func (e Endpoint) String() string {
	return e.Qualifier + "." + e.Class
}

// Pipe reads records from the source, converts each one, and writes the documents to the sink.
// It returns when the sink is done, or the runtime is stopped.
func (r *Runtime) Pipe(from, to Endpoint) error {
	return r.pipe(from, to, r.Converter)
}

// Transfer writes the records of the source to the sink as they are, without converting them.
func (r *Runtime) Transfer(from, to Endpoint) error {
	return r.pipe(from, to, func(iter iterator.Iterator) iterator.Iterator {
		return iter
	})
}

func (r *Runtime) pipe(from, to Endpoint, through func(iterator.Iterator) iterator.Iterator) error {
	log := r.log.With("source", from.String(), "sink", to.String())
	if r.state != started {
		err := fmt.Errorf("%w: invalid state for pipe operation: %s", ErrInvalidState, stateStrings[r.state])
		log.Error("Invalid state to pipe", "error", err)
		return err
	}
	src, _, ok := r.registry.Source(from.Qualifier, from.Class)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownSource, from)
		log.Error("Source class not found", "error", err)
		return err
	}
	sink, _, ok := r.registry.Sink(to.Qualifier, to.Class)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownSink, to)
		log.Error("Sink class not found", "error", err)
		return err
	}

	r.wg.Add(1)
	defer r.wg.Done()
	iter, err := src(r.ctx, from.Args...)
	if err != nil {
		log.Error("Failed to create iterator", "error", err)
		return err
	}
	start := time.Now()
	if err := sink(r.ctx, through(iterator.Cancellable(r.ctx, iter)), to.Args...); err != nil {
		log.Error("Failed to execute sink", "error", err)
		return err
	}
	log.Debug("Pipe done", "duration", time.Since(start).String())
	return nil
}
