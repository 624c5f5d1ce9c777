package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

func TestDecodeModelList_ReportsDeployedModelsInOrder(t *testing.T) {
	reply := `{
		"result": "success",
		"message": "",
		"models": [
			{"name": "order-api", "version": "1.3.0", "deployed_version": "1.2.0"},
			{"name": "draft", "version": "0.1.0"},
			{"name": "billing", "version": "0.9.1", "deployed_version": "0.9.1"}
		]
	}`

	apps, err := decodeModelList([]byte(reply))
	require.NoError(t, err)
	assert.Equal(t, []fleetv1alpha1.AppStatus{
		{Name: "order-api", Version: "1.2.0"},
		{Name: "billing", Version: "0.9.1"},
	}, apps)
}

func TestDecodeModelList_NoModels(t *testing.T) {
	apps, err := decodeModelList([]byte(`{"result":"success","models":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}

func TestDecodeModelList_ManagerError(t *testing.T) {
	_, err := decodeModelList([]byte(`{"result":"error","message":"lattice not found"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequestFailed))
	assert.Contains(t, err.Error(), "lattice not found")
}

func TestDecodeModelList_InvalidJSON(t *testing.T) {
	_, err := decodeModelList([]byte(`not json`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRequestFailed))
}

func TestModelListSubject(t *testing.T) {
	assert.Equal(t, "wadm.api.prod.model.list", modelListSubject("prod"))
}

func TestStaticLister(t *testing.T) {
	l := &StaticLister{Apps: []fleetv1alpha1.AppStatus{{Name: "a", Version: "1"}}}

	apps, err := l.ListApps(context.Background(), "nats://unused", "prod")
	require.NoError(t, err)
	apps[0].Name = "changed"
	assert.Equal(t, "a", l.Apps[0].Name)

	l.Err = errors.New("boom")
	_, err = l.ListApps(context.Background(), "nats://unused", "prod")
	assert.EqualError(t, err, "boom")
}

func TestNewNATSLister_DefaultTimeout(t *testing.T) {
	l := NewNATSLister(logr.Discard(), 0)
	assert.Equal(t, DefaultRequestTimeout, l.RequestTimeout)
	assert.NoError(t, l.Close())
}
