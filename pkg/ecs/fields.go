package ecs

import (
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"time"
)

// Event holds the event.* fields.
// Category and Type accumulate tags in insertion order, and converters only ever append to them.
type Event struct {
	Dataset  *string    `json:"dataset,omitempty"`
	Module   *string    `json:"module,omitempty"`
	Kind     *string    `json:"kind,omitempty"`
	Category []string   `json:"category,omitempty"`
	Type     []string   `json:"type,omitempty"`
	Outcome  *string    `json:"outcome,omitempty"`
	Action   *string    `json:"action,omitempty"`
	Original *string    `json:"original,omitempty"`
	Created  *time.Time `json:"created,omitempty"`
	Severity *uint32    `json:"severity,omitempty"`
	Duration *uint64    `json:"duration,omitempty"`
	Sequence *uint64    `json:"sequence,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (e *Event) AddCategory(category ...string) {
	e.Category = append(e.Category, category...)
}

func (e *Event) AddType(typ ...string) {
	e.Type = append(e.Type, typ...)
}

func (e *Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return marshalObject((*plain)(e), e.Other)
}

func (e *Event) UnmarshalJSON(data []byte) (err error) {
	type plain Event
	e.Other, err = unmarshalObject(data, (*plain)(e))
	return err
}

type Error struct {
	Code       *string `json:"code,omitempty"`
	ID         *string `json:"id,omitempty"`
	Message    *string `json:"message,omitempty"`
	StackTrace *string `json:"stack_trace,omitempty"`
	Type       *string `json:"type,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return marshalObject((*plain)(e), e.Other)
}

func (e *Error) UnmarshalJSON(data []byte) (err error) {
	type plain Error
	e.Other, err = unmarshalObject(data, (*plain)(e))
	return err
}

type Host struct {
	Hostname *string `json:"hostname,omitempty"`
	Name     *string `json:"name,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (h *Host) MarshalJSON() ([]byte, error) {
	type plain Host
	return marshalObject((*plain)(h), h.Other)
}

func (h *Host) UnmarshalJSON(data []byte) (err error) {
	type plain Host
	h.Other, err = unmarshalObject(data, (*plain)(h))
	return err
}

type Log struct {
	Level  *string    `json:"level,omitempty"`
	Logger *string    `json:"logger,omitempty"`
	Origin *LogOrigin `json:"origin,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (l *Log) EnsureOrigin() *LogOrigin {
	if l.Origin == nil {
		l.Origin = new(LogOrigin)
	}
	return l.Origin
}

func (l *Log) MarshalJSON() ([]byte, error) {
	type plain Log
	return marshalObject((*plain)(l), l.Other)
}

func (l *Log) UnmarshalJSON(data []byte) (err error) {
	type plain Log
	l.Other, err = unmarshalObject(data, (*plain)(l))
	return err
}

type LogOrigin struct {
	File *LogOriginFile `json:"file,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (o *LogOrigin) EnsureFile() *LogOriginFile {
	if o.File == nil {
		o.File = new(LogOriginFile)
	}
	return o.File
}

func (o *LogOrigin) MarshalJSON() ([]byte, error) {
	type plain LogOrigin
	return marshalObject((*plain)(o), o.Other)
}

func (o *LogOrigin) UnmarshalJSON(data []byte) (err error) {
	type plain LogOrigin
	o.Other, err = unmarshalObject(data, (*plain)(o))
	return err
}

type LogOriginFile struct {
	Name *string `json:"name,omitempty"`
	Line *uint32 `json:"line,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (f *LogOriginFile) MarshalJSON() ([]byte, error) {
	type plain LogOriginFile
	return marshalObject((*plain)(f), f.Other)
}

func (f *LogOriginFile) UnmarshalJSON(data []byte) (err error) {
	type plain LogOriginFile
	f.Other, err = unmarshalObject(data, (*plain)(f))
	return err
}

type Container struct {
	ID    *string         `json:"id,omitempty"`
	Name  *string         `json:"name,omitempty"`
	Image *ContainerImage `json:"image,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (c *Container) EnsureImage() *ContainerImage {
	if c.Image == nil {
		c.Image = new(ContainerImage)
	}
	return c.Image
}

func (c *Container) MarshalJSON() ([]byte, error) {
	type plain Container
	return marshalObject((*plain)(c), c.Other)
}

func (c *Container) UnmarshalJSON(data []byte) (err error) {
	type plain Container
	c.Other, err = unmarshalObject(data, (*plain)(c))
	return err
}

type ContainerImage struct {
	Name *string             `json:"name,omitempty"`
	Hash *ContainerImageHash `json:"hash,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (i *ContainerImage) EnsureHash() *ContainerImageHash {
	if i.Hash == nil {
		i.Hash = new(ContainerImageHash)
	}
	return i.Hash
}

func (i *ContainerImage) MarshalJSON() ([]byte, error) {
	type plain ContainerImage
	return marshalObject((*plain)(i), i.Other)
}

func (i *ContainerImage) UnmarshalJSON(data []byte) (err error) {
	type plain ContainerImage
	i.Other, err = unmarshalObject(data, (*plain)(i))
	return err
}

type ContainerImageHash struct {
	All []string `json:"all,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (h *ContainerImageHash) MarshalJSON() ([]byte, error) {
	type plain ContainerImageHash
	return marshalObject((*plain)(h), h.Other)
}

func (h *ContainerImageHash) UnmarshalJSON(data []byte) (err error) {
	type plain ContainerImageHash
	h.Other, err = unmarshalObject(data, (*plain)(h))
	return err
}

type Network struct {
	Protocol  *string `json:"protocol,omitempty"`
	Transport *string `json:"transport,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (n *Network) MarshalJSON() ([]byte, error) {
	type plain Network
	return marshalObject((*plain)(n), n.Other)
}

func (n *Network) UnmarshalJSON(data []byte) (err error) {
	type plain Network
	n.Other, err = unmarshalObject(data, (*plain)(n))
	return err
}

type Orchestrator struct {
	Type      *string               `json:"type,omitempty"`
	Namespace *string               `json:"namespace,omitempty"`
	Resource  *OrchestratorResource `json:"resource,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (o *Orchestrator) EnsureResource() *OrchestratorResource {
	if o.Resource == nil {
		o.Resource = new(OrchestratorResource)
	}
	return o.Resource
}

func (o *Orchestrator) MarshalJSON() ([]byte, error) {
	type plain Orchestrator
	return marshalObject((*plain)(o), o.Other)
}

func (o *Orchestrator) UnmarshalJSON(data []byte) (err error) {
	type plain Orchestrator
	o.Other, err = unmarshalObject(data, (*plain)(o))
	return err
}

type OrchestratorResource struct {
	ID          *string                     `json:"id,omitempty"`
	Name        *string                     `json:"name,omitempty"`
	Type        *string                     `json:"type,omitempty"`
	Annotations []string                    `json:"annotations,omitempty"`
	Label       []string                    `json:"label,omitempty"`
	Parent      *OrchestratorResourceParent `json:"parent,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (r *OrchestratorResource) EnsureParent() *OrchestratorResourceParent {
	if r.Parent == nil {
		r.Parent = new(OrchestratorResourceParent)
	}
	return r.Parent
}

func (r *OrchestratorResource) MarshalJSON() ([]byte, error) {
	type plain OrchestratorResource
	return marshalObject((*plain)(r), r.Other)
}

func (r *OrchestratorResource) UnmarshalJSON(data []byte) (err error) {
	type plain OrchestratorResource
	r.Other, err = unmarshalObject(data, (*plain)(r))
	return err
}

type OrchestratorResourceParent struct {
	Type *string `json:"type,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (p *OrchestratorResourceParent) MarshalJSON() ([]byte, error) {
	type plain OrchestratorResourceParent
	return marshalObject((*plain)(p), p.Other)
}

func (p *OrchestratorResourceParent) UnmarshalJSON(data []byte) (err error) {
	type plain OrchestratorResourceParent
	p.Other, err = unmarshalObject(data, (*plain)(p))
	return err
}

type Process struct {
	Name   *string        `json:"name,omitempty"`
	Pid    *uint32        `json:"pid,omitempty"`
	Thread *ProcessThread `json:"thread,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (p *Process) EnsureThread() *ProcessThread {
	if p.Thread == nil {
		p.Thread = new(ProcessThread)
	}
	return p.Thread
}

func (p *Process) MarshalJSON() ([]byte, error) {
	type plain Process
	return marshalObject((*plain)(p), p.Other)
}

func (p *Process) UnmarshalJSON(data []byte) (err error) {
	type plain Process
	p.Other, err = unmarshalObject(data, (*plain)(p))
	return err
}

type ProcessThread struct {
	ID   *uint64 `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (t *ProcessThread) MarshalJSON() ([]byte, error) {
	type plain ProcessThread
	return marshalObject((*plain)(t), t.Other)
}

func (t *ProcessThread) UnmarshalJSON(data []byte) (err error) {
	type plain ProcessThread
	t.Other, err = unmarshalObject(data, (*plain)(t))
	return err
}

type User struct {
	ID     *string `json:"id,omitempty"`
	Name   *string `json:"name,omitempty"`
	Domain *string `json:"domain,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (u *User) MarshalJSON() ([]byte, error) {
	type plain User
	return marshalObject((*plain)(u), u.Other)
}

func (u *User) UnmarshalJSON(data []byte) (err error) {
	type plain User
	u.Other, err = unmarshalObject(data, (*plain)(u))
	return err
}

type Source struct {
	Address *string `json:"address,omitempty"`
	Domain  *string `json:"domain,omitempty"`
	IP      *string `json:"ip,omitempty"`
	Port    *uint32 `json:"port,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (s *Source) MarshalJSON() ([]byte, error) {
	type plain Source
	return marshalObject((*plain)(s), s.Other)
}

func (s *Source) UnmarshalJSON(data []byte) (err error) {
	type plain Source
	s.Other, err = unmarshalObject(data, (*plain)(s))
	return err
}

type Service struct {
	Name    *string `json:"name,omitempty"`
	Type    *string `json:"type,omitempty"`
	Version *string `json:"version,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (s *Service) MarshalJSON() ([]byte, error) {
	type plain Service
	return marshalObject((*plain)(s), s.Other)
}

func (s *Service) UnmarshalJSON(data []byte) (err error) {
	type plain Service
	s.Other, err = unmarshalObject(data, (*plain)(s))
	return err
}

type Transaction struct {
	ID *string `json:"id,omitempty"`

	Other entries.LogEntry `json:"-"`
}

func (t *Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return marshalObject((*plain)(t), t.Other)
}

func (t *Transaction) UnmarshalJSON(data []byte) (err error) {
	type plain Transaction
	t.Other, err = unmarshalObject(data, (*plain)(t))
	return err
}
