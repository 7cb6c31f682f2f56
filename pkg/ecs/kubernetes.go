package ecs

import "github.com/saylorsolutions/fluentecs/pkg/entries"

// Kubernetes is the metadata a collector attaches to records read from a pod's container log.
type Kubernetes struct {
	ContainerImage *string          `json:"container_image,omitempty"`
	ContainerHash  *string          `json:"container_hash,omitempty"`
	ContainerName  *string          `json:"container_name,omitempty"`
	DockerID       *string          `json:"docker_id,omitempty"`
	Host           *string          `json:"host,omitempty"`
	NamespaceName  *string          `json:"namespace_name,omitempty"`
	PodID          *string          `json:"pod_id,omitempty"`
	PodName        *string          `json:"pod_name,omitempty"`
	Annotations    entries.LogEntry `json:"annotations,omitempty"`
	Labels         entries.LogEntry `json:"labels,omitempty"`

	Other entries.LogEntry `json:"-"`
}

// Annotation returns the named annotation if it's a string.
func (k *Kubernetes) Annotation(name string) (string, bool) {
	if k == nil {
		return "", false
	}
	return k.Annotations.AsString(name)
}

// Label returns the named label if it's a string.
func (k *Kubernetes) Label(name string) (string, bool) {
	if k == nil {
		return "", false
	}
	return k.Labels.AsString(name)
}

func (k *Kubernetes) MarshalJSON() ([]byte, error) {
	type plain Kubernetes
	return marshalObject((*plain)(k), k.Other)
}

func (k *Kubernetes) UnmarshalJSON(data []byte) (err error) {
	type plain Kubernetes
	k.Other, err = unmarshalObject(data, (*plain)(k))
	return err
}
