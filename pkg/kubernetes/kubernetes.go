// Package kubernetes maps the collector's Kubernetes metadata onto the host, container, and orchestrator fields of a document.
package kubernetes

import (
	"github.com/saylorsolutions/fluentecs/pkg/ecs"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"strings"
)

const (
	OrchestratorType = "kubernetes"
	ResourceTypePod  = "Pod"

	statefulSetPodLabel = "statefulset.kubernetes.io/pod-name"
	ParentStatefulSet   = "StatefulSet"
)

// Normalize consumes doc.Kubernetes, if present, and clears it.
// Fields that are already set on the document are left as they are.
func Normalize(doc *ecs.Document) {
	k := doc.Kubernetes
	if k == nil {
		return
	}
	doc.Kubernetes = nil

	if k.Host != nil {
		setIfUnset(&doc.Host().Hostname, k.Host)
	}

	orch := doc.Orchestrator()
	setIfUnset(&orch.Type, ecs.Ptr(OrchestratorType))
	setIfUnset(&orch.Namespace, k.NamespaceName)
	if k.PodID != nil || k.PodName != nil || len(k.Labels) > 0 || len(k.Annotations) > 0 {
		res := orch.EnsureResource()
		setIfUnset(&res.ID, k.PodID)
		setIfUnset(&res.Name, k.PodName)
		setIfUnset(&res.Type, ecs.Ptr(ResourceTypePod))
		res.Label = append(res.Label, flatten(k.Labels)...)
		res.Annotations = append(res.Annotations, flatten(k.Annotations)...)
		detectParent(res)
	}

	if k.DockerID != nil || k.ContainerName != nil || k.ContainerImage != nil || k.ContainerHash != nil {
		c := doc.Container()
		setIfUnset(&c.ID, k.DockerID)
		setIfUnset(&c.Name, k.ContainerName)
		if k.ContainerImage != nil || k.ContainerHash != nil {
			img := c.EnsureImage()
			setIfUnset(&img.Name, k.ContainerImage)
			if k.ContainerHash != nil {
				hash := img.EnsureHash()
				hash.All = append(hash.All, digest(*k.ContainerHash))
			}
		}
	}

	for _, key := range k.Other.Keys() {
		doc.AppendMisc("kubernetes."+key, k.Other[key])
	}
}

func setIfUnset(field **string, val *string) {
	if *field == nil && val != nil {
		*field = val
	}
}

// flatten renders a mapping as sorted "key:value" strings.
func flatten(m entries.LogEntry) []string {
	if len(m) == 0 {
		return nil
	}
	flat := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		flat = append(flat, k+":"+entries.Stringify(m[k]))
	}
	return flat
}

// digest returns what follows the last '@' of an image reference like "registry/image@sha256:...".
func digest(hash string) string {
	if idx := strings.LastIndex(hash, "@"); idx >= 0 {
		return hash[idx+1:]
	}
	return hash
}

// detectParent infers the owning resource from the pod's labels.
// Only StatefulSet pods are detected for now.
func detectParent(res *ecs.OrchestratorResource) {
	for _, label := range res.Label {
		if strings.HasPrefix(label, statefulSetPodLabel) {
			setIfUnset(&res.EnsureParent().Type, ecs.Ptr(ParentStatefulSet))
			return
		}
	}
}
