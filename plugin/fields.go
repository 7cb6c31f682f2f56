package plugin

import (
	"fmt"
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	KindEvent         = "event"
	KindPipelineError = "pipeline_error"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	SeverityWarning uint32 = 300
)

// Severities maps the level vocabulary of one application to event.severity.
type Severities map[string]uint32

// Apply sets log.level, and event.severity if the level is in the table.
func (s Severities) Apply(doc *ecs.Document, level string) {
	if sev, ok := s[level]; ok {
		doc.Event().Severity = ecs.Ptr(sev)
	}
	doc.Log().Level = ecs.Ptr(level)
}

// TakeLevel removes the named level field and applies it with s.
func (s Severities) TakeLevel(doc *ecs.Document, key string) (string, bool) {
	level, ok := doc.TakeString(key)
	if ok {
		s.Apply(doc, level)
	}
	return level, ok
}

// TakeTimestamp parses the named RFC 3339 field into the document timestamp.
// A value that can't be parsed is moved to Misc under miscKey.
func TakeTimestamp(doc *ecs.Document, key, miscKey string) {
	t, parsed := doc.Other.AsTime(key, time.RFC3339)
	ts, ok := doc.TakeString(key)
	if !ok {
		return
	}
	if !parsed {
		doc.AppendMisc(miscKey, ts)
		return
	}
	doc.Timestamp = &t
}

// TakeCaller parses a "file:line" field into log.origin.file.
// A value that doesn't have that shape is moved to Misc.
func TakeCaller(doc *ecs.Document, key string) {
	caller, ok := doc.TakeString(key)
	if !ok {
		return
	}
	file, line, found := strings.Cut(caller, ":")
	if !found {
		doc.AppendMisc(key, caller)
		return
	}
	lineNr, err := strconv.ParseUint(line, 10, 32)
	if err != nil {
		doc.AppendMisc(key, caller)
		return
	}
	origin := doc.Log().EnsureOrigin().EnsureFile()
	origin.Name = ecs.Ptr(file)
	origin.Line = ecs.Ptr(uint32(lineNr))
}

// TakeUint32 removes the named field and returns it if it's an integer that fits in 32 bits.
// Any other value is moved to Misc.
func TakeUint32(doc *ecs.Document, key string) (uint32, bool) {
	val, ok := doc.TakeUint(key)
	if !ok {
		return 0, false
	}
	if val > math.MaxUint32 {
		doc.AppendMisc(key, val)
		return 0, false
	}
	return uint32(val), true
}

// SetMessage replaces the document message with text.
// A different message that was already present is moved to Misc.
func SetMessage(doc *ecs.Document, text string) {
	if doc.Message != nil && *doc.Message != text {
		doc.AppendMisc("message", *doc.Message)
	}
	doc.Message = ecs.Ptr(text)
}

// MoveToMisc moves each of the named keys from Other to Misc, if present.
func MoveToMisc(doc *ecs.Document, keys ...string) {
	for _, key := range keys {
		doc.MoveKeyToMisc(key)
	}
}

// PipelineError marks the document as one that couldn't be converted.
func PipelineError(doc *ecs.Document, module string) {
	ev := doc.Event()
	ev.Module = ecs.Ptr(module)
	ev.Severity = ecs.Ptr(SeverityWarning)
	ev.Outcome = ecs.Ptr(OutcomeFailure)
	ev.Kind = ecs.Ptr(KindPipelineError)
}

// Unrecognized wraps err with ErrUnrecognized.
func Unrecognized(err error) error {
	return fmt.Errorf("%w: %v", ErrUnrecognized, err)
}
