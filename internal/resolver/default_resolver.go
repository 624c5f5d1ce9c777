package resolver

import (
	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

// DefaultResolver is the Resolver wired into the controller.
type DefaultResolver struct{}

func NewDefault() *DefaultResolver {
	return &DefaultResolver{}
}

// Resolve is shorthand for NewDefault().Resolve(raw).
func Resolve(raw fleetv1alpha1.HostFleetConfigSpec) (fleetv1alpha1.HostFleetConfigSpec, error) {
	return NewDefault().Resolve(raw)
}

// Resolve returns a copy of raw with every absent defaulted field set to its
// canonical value. Fields without a default, and fields already set, pass
// through untouched. A missing required field yields a *MalformedInputError.
func (r *DefaultResolver) Resolve(raw fleetv1alpha1.HostFleetConfigSpec) (fleetv1alpha1.HostFleetConfigSpec, error) {
	if missing := missingRequired(&raw); len(missing) > 0 {
		return fleetv1alpha1.HostFleetConfigSpec{}, &MalformedInputError{Fields: missing}
	}

	out := *raw.DeepCopy()
	out.HostReplicas = orDefault(out.HostReplicas, DefaultHostReplicas)
	out.LeafNodeDomain = orDefault(out.LeafNodeDomain, DefaultLeafNodeDomain)
	out.ConfigServiceEnabled = orDefault(out.ConfigServiceEnabled, DefaultConfigServiceEnabled)
	out.NATSAddress = orDefault(out.NATSAddress, DefaultNATSAddress)
	out.JetstreamDomain = orDefault(out.JetstreamDomain, DefaultJetstreamDomain)
	out.LogLevel = orDefault(out.LogLevel, DefaultLogLevel)
	out.DaemonSet = orDefault(out.DaemonSet, DefaultDaemonSet)
	return out, nil
}

// missingRequired reports required fields in declaration order. An empty but
// present issuer list is valid.
func missingRequired(spec *fleetv1alpha1.HostFleetConfigSpec) []string {
	var missing []string
	if spec.Issuers == nil {
		missing = append(missing, "issuers")
	}
	if spec.Lattice == "" {
		missing = append(missing, "lattice")
	}
	if spec.Version == "" {
		missing = append(missing, "version")
	}
	if spec.SecretName == "" {
		missing = append(missing, "secretName")
	}
	return missing
}

func orDefault[T any](v *T, def T) *T {
	if v != nil {
		return v
	}
	return &def
}
