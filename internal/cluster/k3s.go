package cluster

import (
	"context"
	"log/slog"
)

const (
	installK3s   = "curl -sfL https://get.k3s.io | sh -"
	readK3sToken = "cat /var/lib/rancher/k3s/server/node-token"

	// DefaultNodeName is used when the caller does not name the master.
	DefaultNodeName = "k3s-master"
)

// Cluster describes a bootstrapped K3s cluster.
type Cluster struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Nodes      []string        `json:"nodes"`
	Status     string          `json:"status"`
	Kubeconfig string          `json:"kubeconfig,omitempty"`
	Steps      []CommandResult `json:"steps"`
}

// Bootstrapper installs K3s masters.
type Bootstrapper struct {
	runner Runner
}

// NewBootstrapper returns a Bootstrapper that executes its commands through runner.
func NewBootstrapper(runner Runner) *Bootstrapper {
	return &Bootstrapper{runner: runner}
}

// BootstrapMaster installs K3s on node and reads its join token. Connection
// failures produce a "failed" cluster rather than an error.
func (b *Bootstrapper) BootstrapMaster(ctx context.Context, node Node) (Cluster, error) {
	if node.Name == "" {
		node.Name = DefaultNodeName
	}
	cl := Cluster{
		ID:         "k3s-" + node.Name,
		Name:       node.Name,
		Nodes:      []string{node.IP},
		Status:     "failed",
		Kubeconfig: "<hidden_secure_config>",
	}

	commands := []string{installK3s, readK3sToken}
	results, err := b.runner.Run(ctx, node, commands)
	if err != nil {
		if ctx.Err() != nil {
			return Cluster{}, ctx.Err()
		}
		slog.Warn("cluster: bootstrap failed", "node", node.IP, "err", err)
		cl.Steps = []CommandResult{{Command: installK3s, Err: err.Error()}}
		return cl, nil
	}

	cl.Steps = results
	if len(results) == len(commands) && allOK(results) {
		cl.Status = "active"
	}
	return cl, nil
}

func allOK(rs []CommandResult) bool {
	for _, r := range rs {
		if !r.OK() {
			return false
		}
	}
	return true
}
