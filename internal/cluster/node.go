package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"
)

const k3sKubeconfig = "/etc/rancher/k3s/k3s.yaml"

var nodeSetup = []string{
	"apt-get update && apt-get upgrade -y",
	"curl -fsSL https://get.docker.com -o get-docker.sh && sh get-docker.sh",
	"docker run -d --name traefik --restart always -p 80:80 -p 443:443 -v /var/run/docker.sock:/var/run/docker.sock traefik:v2.10 --api.insecure=true --providers.docker",
}

// NodeReport is the outcome of preparing a server for hosting.
type NodeReport struct {
	Node   string          `json:"node"`
	IP     string          `json:"ip"`
	Status string          `json:"status"` // ready | failed
	Steps  []CommandResult `json:"steps"`
}

// ProvisionNode installs Docker and a Traefik edge router on node and locks
// its firewall down to SSH, HTTP and HTTPS.
func (b *Bootstrapper) ProvisionNode(ctx context.Context, node Node) (NodeReport, error) {
	ufw, err := UFWCommands(WebNodeRules())
	if err != nil {
		return NodeReport{}, err
	}
	commands := append(slices.Clone(nodeSetup), ufw...)
	report := NodeReport{Node: node.Name, IP: node.IP, Status: "failed"}

	results, err := b.runner.Run(ctx, node, commands)
	if err != nil {
		if ctx.Err() != nil {
			return NodeReport{}, ctx.Err()
		}
		slog.Warn("cluster: node provisioning failed", "node", node.IP, "err", err)
		report.Steps = []CommandResult{{Command: commands[0], Err: err.Error()}}
		return report, nil
	}
	report.Steps = results
	if len(results) == len(commands) && allOK(results) {
		report.Status = "ready"
	}
	return report, nil
}

var (
	reChart    = regexp.MustCompile(`^[a-z0-9][a-z0-9._/-]*$`)
	reValueKey = regexp.MustCompile(`^[A-Za-z0-9_.\[\]-]+$`)
)

// HelmRelease is the outcome of installing a chart on a K3s master.
type HelmRelease struct {
	Cluster string          `json:"cluster"`
	Chart   string          `json:"app"`
	Status  string          `json:"status"` // deployed | failed
	URL     string          `json:"url"`
	Steps   []CommandResult `json:"steps"`
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// HelmCommand renders `helm upgrade --install` for chart with values set in
// key order.
func HelmCommand(chart string, values map[string]string) (string, error) {
	if !reChart.MatchString(chart) {
		return "", fmt.Errorf("chart %q: invalid name", chart)
	}
	release := chart[strings.LastIndex(chart, "/")+1:]
	cmd := "helm upgrade --install " + release + " " + chart + " --kubeconfig " + k3sKubeconfig
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if !reValueKey.MatchString(k) {
			return "", fmt.Errorf("value key %q: invalid", k)
		}
		cmd += " --set " + shellQuote(k+"="+values[k])
	}
	return cmd, nil
}

// DeployHelmChart installs chart on the K3s master running on node.
func (b *Bootstrapper) DeployHelmChart(ctx context.Context, node Node, chart string, values map[string]string) (HelmRelease, error) {
	cmd, err := HelmCommand(chart, values)
	if err != nil {
		return HelmRelease{}, err
	}
	if node.Name == "" {
		node.Name = DefaultNodeName
	}
	release := chart[strings.LastIndex(chart, "/")+1:]
	rel := HelmRelease{
		Cluster: "k3s-" + node.Name,
		Chart:   chart,
		Status:  "failed",
		URL:     fmt.Sprintf("https://%s.%s.local", release, node.Name),
	}

	results, err := b.runner.Run(ctx, node, []string{cmd})
	if err != nil {
		if ctx.Err() != nil {
			return HelmRelease{}, ctx.Err()
		}
		slog.Warn("cluster: helm install failed", "node", node.IP, "chart", chart, "err", err)
		rel.Steps = []CommandResult{{Command: cmd, Err: err.Error()}}
		return rel, nil
	}
	rel.Steps = results
	if len(results) == 1 && results[0].OK() {
		rel.Status = "deployed"
	}
	return rel, nil
}
