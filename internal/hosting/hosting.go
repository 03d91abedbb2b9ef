// Package hosting provisions per-project containers.
package hosting

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	toolcfg "github.com/ksfoundation/oneshot/internal/config/tool"
)

// Tech stacks accepted by Provision.
const (
	StackPythonFastAPI = "python-fastapi"
	StackNodeNext      = "node-next"
	StackJavaTomcat    = "java-tomcat"
	StackPHPLamp       = "php-lamp"
	StackSAPDev        = "sap-dev"
)

// Stacks lists every supported tech stack.
var Stacks = []string{StackPythonFastAPI, StackNodeNext, StackJavaTomcat, StackPHPLamp, StackSAPDev}

const mockContainerID = "mock-7f8a9d"

// ContainerInfo describes a provisioned container.
type ContainerInfo struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Status string         `json:"status"`
	Ports  map[string]any `json:"ports"`
	URL    string         `json:"url,omitempty"`
}

// Runner executes the container CLI.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", name, args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Provisioner allocates containers through the configured runtime. When the
// runtime is missing or fails, a mock record is returned instead.
type Provisioner struct {
	cfg    toolcfg.HostingConfig
	runner Runner
}

// NewProvisioner returns a Provisioner. A nil runner uses ExecRunner.
func NewProvisioner(cfg toolcfg.HostingConfig, runner Runner) *Provisioner {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Provisioner{cfg: cfg, runner: runner}
}

// ContainerName derives the container name for an owner and project.
func ContainerName(owner, project string) string {
	return strings.ReplaceAll(strings.ToLower(fmt.Sprintf("ksf-%s-%s", owner, project)), " ", "-")
}

func imageFor(stack string) (image, command string) {
	if stack == StackNodeNext {
		return "node:18-alpine", "npm start"
	}
	return "python:3.11-slim", "python -m http.server 8000"
}

// URL returns the public URL for a project.
func (p *Provisioner) URL(project string) string {
	return fmt.Sprintf("https://%s.%s", project, p.cfg.BaseDomain)
}

// Provision allocates a container for project owned by owner (the configured
// default owner when empty).
func (p *Provisioner) Provision(ctx context.Context, owner, project, stack string) (ContainerInfo, error) {
	if strings.TrimSpace(project) == "" {
		return ContainerInfo{}, fmt.Errorf("project name is required")
	}
	if owner == "" {
		owner = p.cfg.Owner
	}
	if stack == "" {
		stack = StackPythonFastAPI
	}
	name := ContainerName(owner, project)
	image, command := imageFor(stack)

	slog.Info("hosting: provisioning", "container", name, "image", image)

	timeout := time.Duration(p.cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"run", "-d", "--rm",
		"--name", name,
		"--memory", p.cfg.Memory,
		"--cpu-quota", strconv.Itoa(p.cfg.CPUQuota),
		"--label", "traefik.enable=true",
		"--label", fmt.Sprintf("traefik.http.routers.%s.rule=Host(`%s.%s`)", name, project, p.cfg.BaseDomain),
		image,
		"sh", "-c", command,
	}
	out, err := p.runner.Run(runCtx, p.cfg.Runtime, args...)
	if err != nil {
		if ctx.Err() != nil {
			return ContainerInfo{}, ctx.Err()
		}
		slog.Warn("hosting: container runtime unavailable, using mock", "container", name, "err", err)
		return p.mock(name, project), nil
	}

	id := out
	if len(id) > 12 {
		id = id[:12]
	}
	return ContainerInfo{
		ID:     id,
		Name:   name,
		Status: "running",
		Ports:  map[string]any{"8000/tcp": nil},
		URL:    p.URL(project),
	}, nil
}

func (p *Provisioner) mock(name, project string) ContainerInfo {
	return ContainerInfo{
		ID:     mockContainerID,
		Name:   name,
		Status: "provisioned (mock)",
		Ports:  map[string]any{"80/tcp": 80},
		URL:    p.URL(project),
	}
}
