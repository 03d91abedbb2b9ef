package cloud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolcfg "github.com/ksfoundation/oneshot/internal/config/tool"
)

func TestCreateInstance(t *testing.T) {
	m := NewManager(toolcfg.DefaultCloudConfig())
	inst, err := m.CreateInstance(context.Background(), "proj-1", "web-1")
	require.NoError(t, err)

	assert.Equal(t, "web-1", inst.Name)
	assert.Equal(t, "us-central1-a", inst.Zone)
	assert.Equal(t, "e2-micro", inst.MachineType)
	assert.Equal(t, "PROVISIONING", inst.Status)
	assert.Regexp(t, `^34\.122\.\d{1,3}\.10$`, inst.IPAddress)

	again, err := m.CreateInstance(context.Background(), "proj-1", "web-1")
	require.NoError(t, err)
	assert.Equal(t, inst.IPAddress, again.IPAddress)
}

func TestCreateInstance_MissingArgs(t *testing.T) {
	_, err := NewManager(toolcfg.DefaultCloudConfig()).CreateInstance(context.Background(), "", "x")
	assert.Error(t, err)
}

func TestCreateInstance_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewManager(toolcfg.DefaultCloudConfig()).CreateInstance(ctx, "p", "x")
	assert.ErrorIs(t, err, context.Canceled)
}
