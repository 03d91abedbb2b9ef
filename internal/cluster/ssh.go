// Package cluster runs bootstrap commands on remote nodes over SSH.
package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/ksfoundation/oneshot/internal/config"
	toolcfg "github.com/ksfoundation/oneshot/internal/config/tool"
)

const dialTimeout = 10 * time.Second

// Node is a remote server reachable over SSH.
type Node struct {
	IP   string `json:"ip"`
	Name string `json:"name"`
	User string `json:"username"`
	Port int    `json:"port"`
}

// Local reports whether the node is the local machine; such nodes are simulated.
func (n Node) Local() bool {
	return n.IP == "localhost" || n.IP == "127.0.0.1"
}

// CommandResult is the outcome of one remote command.
type CommandResult struct {
	Command string `json:"command"`
	Output  string `json:"output"`
	Err     string `json:"error,omitempty"`
}

// OK reports whether the command succeeded.
func (r CommandResult) OK() bool { return r.Err == "" }

// Runner executes commands on a node in order.
type Runner interface {
	Run(ctx context.Context, node Node, commands []string) ([]CommandResult, error)
}

// SSHRunner executes commands with golang.org/x/crypto/ssh.
type SSHRunner struct {
	cfg toolcfg.ClusterConfig
}

// NewSSHRunner returns a Runner that authenticates with the key, password
// and known-hosts settings in cfg.
func NewSSHRunner(cfg toolcfg.ClusterConfig) *SSHRunner {
	return &SSHRunner{cfg: cfg}
}

// Run connects once and executes commands sequentially, stopping at the first
// failure. Local nodes are simulated.
func (r *SSHRunner) Run(ctx context.Context, node Node, commands []string) ([]CommandResult, error) {
	if node.Local() {
		out := make([]CommandResult, len(commands))
		for i, cmd := range commands {
			out[i] = CommandResult{Command: cmd, Output: fmt.Sprintf("Executed: %s (simulated on localhost)", cmd)}
		}
		return out, nil
	}

	client, err := r.dial(ctx, node)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	timeout := time.Duration(r.cfg.Timeout) * time.Second
	results := make([]CommandResult, 0, len(commands))
	for _, cmd := range commands {
		slog.Debug("cluster: exec", "node", node.IP, "cmd", cmd)
		res := runOne(ctx, client, cmd, timeout)
		results = append(results, res)
		if !res.OK() {
			break
		}
	}
	return results, nil
}

func (r *SSHRunner) dial(ctx context.Context, node Node) (*ssh.Client, error) {
	cfg, err := r.clientConfig(node)
	if err != nil {
		return nil, err
	}
	port := node.Port
	if port == 0 {
		port = r.cfg.Port
	}
	addr := net.JoinHostPort(node.IP, strconv.Itoa(port))

	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

func (r *SSHRunner) clientConfig(node Node) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if r.cfg.KeyPath != "" {
		key, err := os.ReadFile(config.ExpandHome(r.cfg.KeyPath))
		switch {
		case err == nil:
			signer, err := ssh.ParsePrivateKey(key)
			if err != nil {
				return nil, fmt.Errorf("parse key %s: %w", r.cfg.KeyPath, err)
			}
			auth = append(auth, ssh.PublicKeys(signer))
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read key %s: %w", r.cfg.KeyPath, err)
		}
	}
	if r.cfg.Password != "" {
		auth = append(auth, ssh.Password(r.cfg.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("no ssh credentials configured")
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if r.cfg.KnownHostsPath != "" {
		cb, err := knownhosts.New(config.ExpandHome(r.cfg.KnownHostsPath))
		if err != nil {
			return nil, fmt.Errorf("known hosts: %w", err)
		}
		hostKey = cb
	} else {
		slog.Warn("cluster: host key verification disabled", "node", node.IP)
	}

	user := node.User
	if user == "" {
		user = r.cfg.User
	}
	return &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         dialTimeout,
	}, nil
}

func runOne(ctx context.Context, client *ssh.Client, cmd string, timeout time.Duration) CommandResult {
	res := CommandResult{Command: cmd}
	sess, err := client.NewSession()
	if err != nil {
		res.Err = err.Error()
		return res
	}
	defer sess.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(cmd) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		_ = sess.Close()
		<-done
		err = ctx.Err()
	}

	res.Output = string(bytes.TrimSpace(stdout.Bytes()))
	if err != nil {
		msg := string(bytes.TrimSpace(stderr.Bytes()))
		if msg == "" {
			msg = err.Error()
		}
		res.Err = msg
	}
	return res
}
