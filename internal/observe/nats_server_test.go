package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

// runManager starts an in-process NATS server and answers model list requests
// for lattice with reply.
func runManager(t *testing.T, lattice, reply string) string {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	_, err = nc.Subscribe(modelListSubject(lattice), func(m *nats.Msg) {
		_ = m.Respond([]byte(reply))
	})
	require.NoError(t, err)
	require.NoError(t, nc.Flush())
	return s.ClientURL()
}

func TestNATSLister_ListAppsReusesConnection(t *testing.T) {
	addr := runManager(t, "prod", `{
		"result": "success",
		"models": [
			{"name": "order-api", "deployed_version": "1.2.0"},
			{"name": "draft"}
		]
	}`)

	l := NewNATSLister(logr.Discard(), 2*time.Second)
	defer l.Close()

	for i := 0; i < 2; i++ {
		apps, err := l.ListApps(context.Background(), addr, "prod")
		require.NoError(t, err)
		assert.Equal(t, []fleetv1alpha1.AppStatus{{Name: "order-api", Version: "1.2.0"}}, apps)
	}

	l.mu.Lock()
	assert.Len(t, l.conns, 1)
	l.mu.Unlock()
}

func TestNATSLister_ManagerFailure(t *testing.T) {
	addr := runManager(t, "prod", `{"result":"error","message":"lattice not found"}`)

	l := NewNATSLister(logr.Discard(), 2*time.Second)
	defer l.Close()

	_, err := l.ListApps(context.Background(), addr, "prod")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequestFailed))
}

func TestNATSLister_NoManagerForLattice(t *testing.T) {
	addr := runManager(t, "prod", `{"result":"success","models":[]}`)

	l := NewNATSLister(logr.Discard(), 2*time.Second)
	defer l.Close()

	_, err := l.ListApps(context.Background(), addr, "staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wadm.api.staging.model.list")
}

func TestNATSLister_CancelledContextSkipsDial(t *testing.T) {
	l := NewNATSLister(logr.Discard(), time.Second)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.ListApps(ctx, "nats://127.0.0.1:1", "prod")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, l.conns)
}

func TestNATSLister_ConnectTimeoutFollowsDeadline(t *testing.T) {
	l := NewNATSLister(logr.Discard(), 10*time.Second)

	assert.Equal(t, 10*time.Second, l.connectTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got := l.connectTimeout(ctx)
	assert.LessOrEqual(t, got, time.Second)
	assert.Greater(t, got, time.Duration(0))
}
