// Package plugin defines how converters, sources, and sinks are made available to the runtime.
//
// A "Converter" function populates an ecs.Document from the log record of one known application.
// It's selected by the runtime using the parser annotation or application labels of the pod that produced the record.
// If the record doesn't have the shape the converter expects, it should mark the document with PipelineError and return an error wrapping ErrUnrecognized.
// The record is still emitted in that case.
//
// "Source" functions should take input and return an iterator.Iterator and potentially an error, and operate asynchronously.
// Sources should close any resources, like file handles or channels, and stop the associated goroutine when they have reached the end of their input.
//
// "Sink" functions should take an iterator.Iterator - and optionally other parameters - and operate synchronously.
// Sink functions should use iterator.Drain on an iterator if they encounter an error to prevent upstream blocking.
//
//	Current Plugins:
//	- postfix, etcd, keycloak, metallb, and dashboard provide converters.
//	- file provides source and sink for files, including tail support.
//	- stdstream provides a stdin source and stdout/stderr sinks.
//	- store provides a SQLite sink for converted documents, and a source that reads them back.
package plugin
