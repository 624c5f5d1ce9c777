// Package observe gathers the applications currently running in a lattice.
package observe

import (
	"context"
	"errors"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

var (
	// ErrRequestFailed indicates the lattice application manager answered with a
	// non-success result.
	ErrRequestFailed = errors.New("application manager request failed")
)

// AppLister reports the applications running in a lattice reachable at natsAddress.
type AppLister interface {
	ListApps(ctx context.Context, natsAddress, lattice string) ([]fleetv1alpha1.AppStatus, error)
}

// StaticLister returns the same applications for every lattice.
type StaticLister struct {
	Apps []fleetv1alpha1.AppStatus
	Err  error
}

func (s *StaticLister) ListApps(ctx context.Context, natsAddress, lattice string) ([]fleetv1alpha1.AppStatus, error) {
	_ = ctx
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]fleetv1alpha1.AppStatus, len(s.Apps))
	copy(out, s.Apps)
	return out, nil
}
