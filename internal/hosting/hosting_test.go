package hosting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolcfg "github.com/ksfoundation/oneshot/internal/config/tool"
)

type recordingRunner struct {
	name string
	args []string
	out  string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	r.name = name
	r.args = args
	return r.out, r.err
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "ksf-user_auto-my-cool-app", ContainerName("user_auto", "My Cool App"))
}

func TestProvision_RunsContainer(t *testing.T) {
	runner := &recordingRunner{out: "0123456789abcdef0123"}
	p := NewProvisioner(toolcfg.DefaultHostingConfig(), runner)

	info, err := p.Provision(context.Background(), "", "blog", StackNodeNext)
	require.NoError(t, err)

	assert.Equal(t, "0123456789ab", info.ID)
	assert.Equal(t, "ksf-user_auto-blog", info.Name)
	assert.Equal(t, "running", info.Status)
	assert.Equal(t, "https://blog.ksfoundation.space", info.URL)

	assert.Equal(t, "docker", runner.name)
	joined := strings.Join(runner.args, " ")
	assert.Contains(t, joined, "node:18-alpine")
	assert.Contains(t, joined, "--memory 512m")
	assert.Contains(t, joined, "--cpu-quota 50000")
	assert.Contains(t, joined, "Host(`blog.ksfoundation.space`)")
}

func TestProvision_DefaultImage(t *testing.T) {
	runner := &recordingRunner{out: "abc"}
	p := NewProvisioner(toolcfg.DefaultHostingConfig(), runner)

	_, err := p.Provision(context.Background(), "u", "api", StackJavaTomcat)
	require.NoError(t, err)
	assert.Contains(t, runner.args, "python:3.11-slim")
}

func TestProvision_MockFallback(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exec: \"docker\": executable file not found in $PATH")}
	p := NewProvisioner(toolcfg.DefaultHostingConfig(), runner)

	info, err := p.Provision(context.Background(), "", "site", StackPythonFastAPI)
	require.NoError(t, err)
	assert.Equal(t, "mock-7f8a9d", info.ID)
	assert.Equal(t, "provisioned (mock)", info.Status)
	assert.Equal(t, "https://site.ksfoundation.space", info.URL)
}

func TestProvision_EmptyProject(t *testing.T) {
	p := NewProvisioner(toolcfg.DefaultHostingConfig(), &recordingRunner{})
	_, err := p.Provision(context.Background(), "", "  ", "")
	assert.Error(t, err)
}

func TestFindApp(t *testing.T) {
	app, ok := FindApp("wordpress")
	require.True(t, ok)
	assert.Equal(t, "wordpress:latest", app.Image)

	_, ok = FindApp("minecraft")
	assert.False(t, ok)
	assert.Len(t, Apps, 7)
}

func TestDeployCommand(t *testing.T) {
	p := NewProvisioner(toolcfg.DefaultHostingConfig(), &recordingRunner{})

	cmd, err := p.DeployCommand("nextcloud", "files")
	require.NoError(t, err)
	assert.Equal(t, "docker run -d --name nextcloud-files --restart always"+
		" --label traefik.enable=true"+
		" --label 'traefik.http.routers.nextcloud-files.rule=Host(`files.ksfoundation.space`)'"+
		" --label traefik.http.services.nextcloud-files.loadbalancer.server.port=8080"+
		" nextcloud:latest", cmd)

	_, err = p.DeployCommand("minecraft", "files")
	assert.ErrorIs(t, err, ErrUnknownApp)

	_, err = p.DeployCommand("nextcloud", "files; rm -rf ~")
	assert.ErrorIs(t, err, ErrInvalidSubdomain)
}

func TestDeployApp(t *testing.T) {
	runner := &recordingRunner{out: "fedcba9876543210"}
	p := NewProvisioner(toolcfg.DefaultHostingConfig(), runner)

	dep, err := p.DeployApp(context.Background(), "uptime-kuma", "status")
	require.NoError(t, err)
	assert.Equal(t, "fedcba987654", dep.Container.ID)
	assert.Equal(t, "uptime-kuma-status", dep.Container.Name)
	assert.Equal(t, "https://status.ksfoundation.space", dep.Container.URL)
	assert.Contains(t, runner.args, "louislam/uptime-kuma:1")
	assert.Contains(t, runner.args, "traefik.http.services.uptime-kuma-status.loadbalancer.server.port=3001")
	assert.Contains(t, dep.Command, "docker run -d --name uptime-kuma-status")
}

func TestDeployApp_MockWhenRuntimeMissing(t *testing.T) {
	p := NewProvisioner(toolcfg.DefaultHostingConfig(), &recordingRunner{err: errors.New("docker: not found")})

	dep, err := p.DeployApp(context.Background(), "php-lamp", "shop")
	require.NoError(t, err)
	assert.Equal(t, mockContainerID, dep.Container.ID)
	assert.Equal(t, "provisioned (mock)", dep.Container.Status)
	assert.Equal(t, map[string]any{"80/tcp": 80}, dep.Container.Ports)
}
