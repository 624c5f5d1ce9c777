package v1alpha1

import (
	"encoding/json"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// HostFleetConfig declares a fleet of application hosts joining one lattice.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=hfc
// +kubebuilder:printcolumn:name="Lattice",type=string,JSONPath=`.spec.lattice`
// +kubebuilder:printcolumn:name="App Count",type=integer,JSONPath=`.status.appCount`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type HostFleetConfig struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   HostFleetConfigSpec   `json:"spec"`
	Status HostFleetConfigStatus `json:"status,omitempty"`
}

// HostFleetConfigSpec is the desired state of a host fleet.
//
// Fields carrying a default are pointers so that an absent value can be told
// apart from an explicit zero value (hostReplicas: 0 scales the fleet to none).
type HostFleetConfigSpec struct {
	// HostReplicas is the number of hosts to run when not running as a DaemonSet.
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:default=1
	// +optional
	HostReplicas *uint32 `json:"hostReplicas,omitempty"`

	// Issuers lists the cluster issuers used when provisioning hosts for
	// zero-trust invocation signing. May be empty, must be present.
	Issuers []string `json:"issuers"`

	// Lattice is the lattice these hosts join.
	// +kubebuilder:validation:MinLength=1
	Lattice string `json:"lattice"`

	// HostLabels are applied to every host in the fleet.
	// +optional
	HostLabels map[string]string `json:"hostLabels,omitempty"`

	// Version is the host runtime version to deploy.
	Version string `json:"version"`

	// SecretName names a secret holding the primary cluster issuer key and,
	// optionally, NATS credentials.
	SecretName string `json:"secretName"`

	// +optional
	EnableStructuredLogging *bool `json:"enableStructuredLogging,omitempty"`

	// RegistryCredentialsSecret names an image pull secret for the host image.
	// +optional
	RegistryCredentialsSecret *string `json:"registryCredentialsSecret,omitempty"`

	// +optional
	Resources *HostFleetResources `json:"resources,omitempty"`

	// ControlTopicPrefix overrides the control topic prefix used by hosts.
	// +optional
	ControlTopicPrefix *string `json:"controlTopicPrefix,omitempty"`

	// LeafNodeDomain is the leaf node domain of the NATS sidecar.
	// +kubebuilder:default="leaf"
	// +optional
	LeafNodeDomain *string `json:"leafNodeDomain,omitempty"`

	// +kubebuilder:default=false
	// +optional
	ConfigServiceEnabled *bool `json:"configServiceEnabled,omitempty"`

	// NATSAddress is the NATS server the leaf node sidecar connects to.
	// +kubebuilder:default="nats://nats.default.svc.cluster.local"
	// +optional
	NATSAddress *string `json:"natsAddress,omitempty"`

	// +kubebuilder:default="default"
	// +optional
	JetstreamDomain *string `json:"jetstreamDomain,omitempty"`

	// +kubebuilder:default="INFO"
	// +optional
	LogLevel *string `json:"logLevel,omitempty"`

	// DaemonSet runs one host per node instead of a replica-counted Deployment.
	// +kubebuilder:default=false
	// +optional
	DaemonSet *bool `json:"daemonset,omitempty"`
}

// HostFleetConfigStatus is the observed state of a host fleet. It is owned by
// the controller.
type HostFleetConfigStatus struct {
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	Apps []AppStatus `json:"apps"`

	// AppCount is always len(Apps). Only status.Aggregate produces it, and it
	// is recomputed whenever the status is encoded or decoded, so a stored
	// value cannot drift from the list.
	AppCount uint32 `json:"appCount"`

	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

type hostFleetConfigStatusFields HostFleetConfigStatus

func (s HostFleetConfigStatus) MarshalJSON() ([]byte, error) {
	out := hostFleetConfigStatusFields(s)
	if out.Apps == nil {
		out.Apps = []AppStatus{}
	}
	out.AppCount = uint32(len(out.Apps))
	return json.Marshal(out)
}

func (s *HostFleetConfigStatus) UnmarshalJSON(data []byte) error {
	var in hostFleetConfigStatusFields
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	in.AppCount = uint32(len(in.Apps))
	*s = HostFleetConfigStatus(in)
	return nil
}

// +kubebuilder:object:root=true
type HostFleetConfigList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []HostFleetConfig `json:"items"`
}

func init() {
	SchemeBuilder.Register(&HostFleetConfig{}, &HostFleetConfigList{})
}
