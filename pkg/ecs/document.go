// Package ecs provides the output document model, a log record normalized into ECS style fields.
package ecs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"reflect"
	"sort"
	"time"
)

const (
	keyKubernetes   = "kubernetes"
	keyTimestamp    = "@timestamp"
	keyMessage      = "message"
	keyEvent        = "event"
	keyError        = "error"
	keyLog          = "log"
	keyContainer    = "container"
	keyHost         = "host"
	keyNetwork      = "network"
	keyOrchestrator = "orchestrator"
	keyProcess      = "process"
	keyService      = "service"
	keySource       = "source"
	keyUser         = "user"
	keyTransaction  = "transaction"
	keyMisc         = "misc"
)

// Document is one log record, both as it arrives and as it's emitted.
// Sub-objects are created by their accessor on first use, and stay present once created.
type Document struct {
	// Kubernetes is the collector supplied metadata, cleared once it's been normalized.
	Kubernetes *Kubernetes
	Timestamp  *time.Time
	Message    *string
	// Other holds every input key that isn't claimed by a typed field.
	Other entries.LogEntry
	// Misc holds "key:value" strings for data that was recognized but has no field of its own.
	Misc []string

	event     OrString[Event]
	err       OrString[Error]
	log       OrString[Log]
	legacyLog *string

	container    *Container
	host         *Host
	network      *Network
	orchestrator *Orchestrator
	process      *Process
	service      *Service
	source       *Source
	user         *User
	transaction  *Transaction
}

func NewDocument() *Document {
	return &Document{Other: entries.LogEntry{}}
}

// Parse decodes a JSON object into a Document.
// Typed fields with the wrong JSON type are moved to Misc rather than failing the whole record.
func Parse(data []byte) (*Document, error) {
	doc := NewDocument()
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// Event returns the event object, creating it if needed.
// A free text event is moved to Misc first.
func (d *Document) Event() *Event {
	if d.event.Object == nil {
		if d.event.Text != nil {
			d.AppendMisc(keyEvent, *d.event.Text)
		}
		d.event = OrString[Event]{Object: new(Event)}
	}
	return d.event.Object
}

// Error returns the error object, creating it if needed.
// A free text error is moved to Misc first.
func (d *Document) Error() *Error {
	if d.err.Object == nil {
		if d.err.Text != nil {
			d.AppendMisc(keyError, *d.err.Text)
		}
		d.err = OrString[Error]{Object: new(Error)}
	}
	return d.err.Object
}

// Log returns the log object, creating it if needed.
// A free text log line is kept aside and can still be retrieved with TakeLogText.
func (d *Document) Log() *Log {
	if d.log.Object == nil {
		if d.log.Text != nil {
			d.legacyLog = d.log.Text
		}
		d.log = OrString[Log]{Object: new(Log)}
	}
	return d.log.Object
}

// TakeEventText removes and returns the event if it arrived as free text.
func (d *Document) TakeEventText() (string, bool) {
	return takeText(&d.event)
}

// TakeErrorText removes and returns the error if it arrived as free text.
func (d *Document) TakeErrorText() (string, bool) {
	return takeText(&d.err)
}

// TakeLogText removes and returns the free text log line.
func (d *Document) TakeLogText() (string, bool) {
	if text, ok := takeText(&d.log); ok {
		return text, true
	}
	if d.legacyLog != nil {
		text := *d.legacyLog
		d.legacyLog = nil
		return text, true
	}
	return "", false
}

func takeText[T any](u *OrString[T]) (string, bool) {
	if u.Text == nil {
		return "", false
	}
	text := *u.Text
	u.Text = nil
	return text, true
}

// HasEvent reports whether an event object exists.
func (d *Document) HasEvent() bool {
	return d.event.Object != nil
}

func (d *Document) Container() *Container {
	if d.container == nil {
		d.container = new(Container)
	}
	return d.container
}

func (d *Document) Host() *Host {
	if d.host == nil {
		d.host = new(Host)
	}
	return d.host
}

func (d *Document) Network() *Network {
	if d.network == nil {
		d.network = new(Network)
	}
	return d.network
}

func (d *Document) Orchestrator() *Orchestrator {
	if d.orchestrator == nil {
		d.orchestrator = new(Orchestrator)
	}
	return d.orchestrator
}

func (d *Document) Process() *Process {
	if d.process == nil {
		d.process = new(Process)
	}
	return d.process
}

func (d *Document) Service() *Service {
	if d.service == nil {
		d.service = new(Service)
	}
	return d.service
}

func (d *Document) Source() *Source {
	if d.source == nil {
		d.source = new(Source)
	}
	return d.source
}

func (d *Document) User() *User {
	if d.user == nil {
		d.user = new(User)
	}
	return d.user
}

func (d *Document) Transaction() *Transaction {
	if d.transaction == nil {
		d.transaction = new(Transaction)
	}
	return d.transaction
}

// AppendMisc records key and the rendered value in Misc.
func (d *Document) AppendMisc(key string, val any) {
	d.Misc = append(d.Misc, key+":"+entries.Stringify(val))
}

// MoveKeyToMisc moves the named key from Other to Misc, if it's present.
func (d *Document) MoveKeyToMisc(key string) {
	if val, ok := d.Other.Take(key); ok {
		d.AppendMisc(key, val)
	}
}

// TakeString removes the named key from Other and returns it if it's a string.
// A value of any other type is moved to Misc.
func (d *Document) TakeString(key string) (string, bool) {
	val, ok := d.Other.Take(key)
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	if !ok {
		d.AppendMisc(key, val)
		return "", false
	}
	return s, true
}

// TakeUint removes the named key from Other and returns it if it's a non-negative integer.
// A value of any other type is moved to Misc.
func (d *Document) TakeUint(key string) (uint64, bool) {
	val, ok := d.Other.Take(key)
	if !ok {
		return 0, false
	}
	if _, isNum := val.(json.Number); isNum {
		if i, ok := entries.ToUint(val); ok {
			return i, true
		}
	}
	d.AppendMisc(key, val)
	return 0, false
}

func (d *Document) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if d.Kubernetes != nil {
		w.field(keyKubernetes, d.Kubernetes)
	}
	if d.Timestamp != nil {
		w.field(keyTimestamp, d.Timestamp)
	}
	if d.Message != nil {
		w.field(keyMessage, *d.Message)
	}
	if d.event.IsSet() {
		w.field(keyEvent, d.event)
	}
	if d.err.IsSet() {
		w.field(keyError, d.err)
	}
	if d.container != nil {
		w.field(keyContainer, d.container)
	}
	if d.host != nil {
		w.field(keyHost, d.host)
	}
	if d.log.IsSet() {
		w.field(keyLog, d.log)
	}
	if d.network != nil {
		w.field(keyNetwork, d.network)
	}
	if d.orchestrator != nil {
		w.field(keyOrchestrator, d.orchestrator)
	}
	if d.process != nil {
		w.field(keyProcess, d.process)
	}
	if d.service != nil {
		w.field(keyService, d.service)
	}
	if d.source != nil {
		w.field(keySource, d.source)
	}
	if d.user != nil {
		w.field(keyUser, d.user)
	}
	if d.transaction != nil {
		w.field(keyTransaction, d.transaction)
	}
	for _, k := range d.Other.Keys() {
		w.field(k, d.Other[k])
	}
	if len(d.Misc) > 0 {
		w.field(keyMisc, d.Misc)
	}
	return w.close()
}

func (d *Document) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrNotAnObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	*d = Document{Other: entries.LogEntry{}}

	if raw, ok := fields[keyMisc]; ok {
		delete(fields, keyMisc)
		var misc []string
		if isNull(raw) {
			d.appendRaw(keyMisc, raw)
		} else if err := json.Unmarshal(raw, &misc); err != nil {
			d.appendRaw(keyMisc, raw)
		} else {
			d.Misc = misc
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		raw := fields[k]
		target := d.typedField(k)
		if target == nil {
			val, err := entries.DecodeValue(raw)
			if err != nil {
				return err
			}
			d.Other[k] = val
			continue
		}
		if isNull(raw) {
			d.appendRaw(k, raw)
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			v := reflect.ValueOf(target).Elem()
			v.Set(reflect.Zero(v.Type()))
			d.appendRaw(k, raw)
		}
	}
	return nil
}

// typedField returns the decoding target of a typed key, or nil for keys that belong in Other.
func (d *Document) typedField(key string) any {
	switch key {
	case keyKubernetes:
		return &d.Kubernetes
	case keyTimestamp:
		return &d.Timestamp
	case keyMessage:
		return &d.Message
	case keyEvent:
		return &d.event
	case keyError:
		return &d.err
	case keyLog:
		return &d.log
	case keyContainer:
		return &d.container
	case keyHost:
		return &d.host
	case keyNetwork:
		return &d.network
	case keyOrchestrator:
		return &d.orchestrator
	case keyProcess:
		return &d.process
	case keyService:
		return &d.service
	case keySource:
		return &d.source
	case keyUser:
		return &d.user
	case keyTransaction:
		return &d.transaction
	}
	return nil
}

// isNull reports whether raw is the JSON null literal.
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (d *Document) appendRaw(key string, raw json.RawMessage) {
	val, err := entries.DecodeValue(raw)
	if err != nil {
		d.Misc = append(d.Misc, key+":"+string(raw))
		return
	}
	d.AppendMisc(key, val)
}
