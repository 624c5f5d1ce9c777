// Package status reduces per-application observations into the status
// summary persisted on a HostFleetConfig.
package status

import (
	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

// Aggregate builds the fleet status from observations in the order given.
// Duplicates are kept and counted. AppCount is derived here and nowhere else.
func Aggregate(observations []fleetv1alpha1.AppStatus) fleetv1alpha1.HostFleetConfigStatus {
	apps := make([]fleetv1alpha1.AppStatus, len(observations))
	copy(apps, observations)
	return fleetv1alpha1.HostFleetConfigStatus{
		Apps:     apps,
		AppCount: uint32(len(apps)),
	}
}
