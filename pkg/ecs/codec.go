package ecs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"reflect"
	"strings"
)

var (
	ErrNotAnObject = errors.New("not a JSON object")
	ErrUnionType   = errors.New("expected a JSON string or object")
)

// marshalObject encodes v, which must be a pointer to a struct without a MarshalJSON method,
// followed by the fields of other in sorted order.
func marshalObject(v any, other entries.LogEntry) ([]byte, error) {
	data, err := entries.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(other) == 0 {
		return data, nil
	}
	w := newObjectWriter()
	w.raw(bytes.TrimSuffix(bytes.TrimPrefix(data, []byte{'{'}), []byte{'}'}))
	for _, k := range other.Keys() {
		w.field(k, other[k])
	}
	return w.close()
}

// unmarshalObject decodes data into v and returns every field that v doesn't declare.
func unmarshalObject(data []byte, v any) (entries.LogEntry, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	all, err := entries.Decode(data)
	if err != nil {
		return nil, err
	}
	for _, name := range jsonFieldNames(reflect.TypeOf(v).Elem()) {
		delete(all, name)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func jsonFieldNames(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

// objectWriter writes a JSON object field by field, keeping the order of the calls.
type objectWriter struct {
	buf   bytes.Buffer
	empty bool
	err   error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{empty: true}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) raw(fields []byte) {
	if len(fields) == 0 {
		return
	}
	if !w.empty {
		w.buf.WriteByte(',')
	}
	w.empty = false
	w.buf.Write(fields)
}

func (w *objectWriter) field(key string, val any) {
	if w.err != nil {
		return
	}
	k, err := entries.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	v, err := entries.Marshal(val)
	if err != nil {
		w.err = fmt.Errorf("field '%s': %w", key, err)
		return
	}
	if !w.empty {
		w.buf.WriteByte(',')
	}
	w.empty = false
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(v)
}

func (w *objectWriter) close() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

// OrString is a field that arrives either as free text or as a structured object.
// At most one of Object and Text is set.
type OrString[T any] struct {
	Object *T
	Text   *string
}

func (u OrString[T]) IsSet() bool {
	return u.Object != nil || u.Text != nil
}

func (u OrString[T]) MarshalJSON() ([]byte, error) {
	switch {
	case u.Object != nil:
		return entries.Marshal(u.Object)
	case u.Text != nil:
		return entries.Marshal(*u.Text)
	}
	return []byte("null"), nil
}

func (u *OrString[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrUnionType
	}
	switch trimmed[0] {
	case 'n':
		u.Object, u.Text = nil, nil
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		u.Object, u.Text = nil, &s
		return nil
	case '{':
		obj := new(T)
		if err := json.Unmarshal(trimmed, obj); err != nil {
			return err
		}
		u.Object, u.Text = obj, nil
		return nil
	}
	return ErrUnionType
}
