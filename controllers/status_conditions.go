package controllers

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

const (
	FleetConditionConfigResolved = "ConfigResolved"
	FleetConditionWorkloadReady  = "WorkloadReady"
	FleetConditionAppsObserved   = "AppsObserved"
)

func setFleetCondition(fleet *fleetv1alpha1.HostFleetConfig, condition metav1.Condition) {
	if fleet == nil {
		return
	}
	condition.ObservedGeneration = fleet.Generation
	meta.SetStatusCondition(&fleet.Status.Conditions, condition)
}

// workloadProgress is what the host workload's own controller has reported.
// observed is false until that controller has caught up with the latest spec.
type workloadProgress struct {
	ready    int32
	desired  int32
	observed bool
}

func workloadReadyCondition(p workloadProgress) metav1.Condition {
	cond := metav1.Condition{
		Type:    FleetConditionWorkloadReady,
		Status:  metav1.ConditionFalse,
		Reason:  "HostsPending",
		Message: workloadReadyMessage(p),
	}
	if p.observed && p.ready >= p.desired {
		cond.Status = metav1.ConditionTrue
		cond.Reason = "HostsReady"
	}
	return cond
}

func workloadReadyMessage(p workloadProgress) string {
	switch {
	case !p.observed:
		return "Waiting for hosts to be scheduled"
	case p.desired <= 0:
		return "No hosts requested"
	default:
		return fmt.Sprintf("%d/%d hosts ready", p.ready, p.desired)
	}
}
