package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *HostFleetConfig) DeepCopyInto(out *HostFleetConfig) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy copies the receiver, creating a new HostFleetConfig.
func (in *HostFleetConfig) DeepCopy() *HostFleetConfig {
	if in == nil {
		return nil
	}
	out := new(HostFleetConfig)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *HostFleetConfig) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *HostFleetConfigList) DeepCopyInto(out *HostFleetConfigList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]HostFleetConfig, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy copies the receiver, creating a new HostFleetConfigList.
func (in *HostFleetConfigList) DeepCopy() *HostFleetConfigList {
	if in == nil {
		return nil
	}
	out := new(HostFleetConfigList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *HostFleetConfigList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *HostFleetConfigSpec) DeepCopyInto(out *HostFleetConfigSpec) {
	*out = *in
	if in.HostReplicas != nil {
		in, out := &in.HostReplicas, &out.HostReplicas
		*out = new(uint32)
		**out = **in
	}
	if in.Issuers != nil {
		out.Issuers = make([]string, len(in.Issuers))
		copy(out.Issuers, in.Issuers)
	}
	if in.HostLabels != nil {
		out.HostLabels = make(map[string]string, len(in.HostLabels))
		for k, v := range in.HostLabels {
			out.HostLabels[k] = v
		}
	}
	out.EnableStructuredLogging = copyBool(in.EnableStructuredLogging)
	out.RegistryCredentialsSecret = copyString(in.RegistryCredentialsSecret)
	if in.Resources != nil {
		in, out := &in.Resources, &out.Resources
		*out = new(HostFleetResources)
		(*in).DeepCopyInto(*out)
	}
	out.ControlTopicPrefix = copyString(in.ControlTopicPrefix)
	out.LeafNodeDomain = copyString(in.LeafNodeDomain)
	out.ConfigServiceEnabled = copyBool(in.ConfigServiceEnabled)
	out.NATSAddress = copyString(in.NATSAddress)
	out.JetstreamDomain = copyString(in.JetstreamDomain)
	out.LogLevel = copyString(in.LogLevel)
	out.DaemonSet = copyBool(in.DaemonSet)
}

// DeepCopy copies the receiver, creating a new HostFleetConfigSpec.
func (in *HostFleetConfigSpec) DeepCopy() *HostFleetConfigSpec {
	if in == nil {
		return nil
	}
	out := new(HostFleetConfigSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *HostFleetResources) DeepCopyInto(out *HostFleetResources) {
	*out = *in
	if in.NATS != nil {
		in, out := &in.NATS, &out.NATS
		*out = new(corev1.ResourceRequirements)
		(*in).DeepCopyInto(*out)
	}
	if in.Wasmcloud != nil {
		in, out := &in.Wasmcloud, &out.Wasmcloud
		*out = new(corev1.ResourceRequirements)
		(*in).DeepCopyInto(*out)
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *HostFleetConfigStatus) DeepCopyInto(out *HostFleetConfigStatus) {
	*out = *in
	if in.Apps != nil {
		out.Apps = make([]AppStatus, len(in.Apps))
		copy(out.Apps, in.Apps)
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

func copyBool(in *bool) *bool {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func copyString(in *string) *string {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}
