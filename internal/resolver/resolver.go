package resolver

import (
	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

// Resolver completes a HostFleetConfigSpec with the canonical value of every
// unset defaulted field.
//
// Implementations must be pure: no I/O, no mutation of the input, and
// Resolve(Resolve(x)) must equal Resolve(x).
type Resolver interface {
	Resolve(raw fleetv1alpha1.HostFleetConfigSpec) (fleetv1alpha1.HostFleetConfigSpec, error)
}
