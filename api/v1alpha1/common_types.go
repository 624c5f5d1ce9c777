package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
)

// HostFleetResources holds compute requests/limits for the two containers of a
// host pod. Either target may be set without the other.
type HostFleetResources struct {
	// NATS applies to the NATS leaf node sidecar.
	// +optional
	NATS *corev1.ResourceRequirements `json:"nats,omitempty"`

	// Wasmcloud applies to the host container.
	// +optional
	Wasmcloud *corev1.ResourceRequirements `json:"wasmcloud,omitempty"`
}

// AppStatus identifies one application running in the lattice.
type AppStatus struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
