package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// Dialer builds the transport for one provider. Tests swap it for in-memory
// transports.
type Dialer func(ctx context.Context, name string, spec LaunchSpec) (sdk.Transport, error)

// DefaultDialer starts a subprocess for command specs and opens a streamable
// HTTP client for URL specs.
func DefaultDialer(_ context.Context, name string, spec LaunchSpec) (sdk.Transport, error) {
	switch {
	case spec.Command != "":
		return stdioTransport(name, spec)
	case spec.URL != "":
		return httpTransport(spec), nil
	default:
		return nil, &schema.ConnectionError{
			Provider: name,
			Err:      errors.New("no command or url configured"),
		}
	}
}

func stdioTransport(name string, spec LaunchSpec) (sdk.Transport, error) {
	path, err := exec.LookPath(spec.Command)
	if err != nil {
		return nil, &schema.ConnectionError{Provider: name, Err: err}
	}

	// Not CommandContext: the session outlives the registering request.
	cmd := exec.Command(path, spec.Args...)
	if spec.Cwd != "" {
		cmd.Dir = spec.Cwd
	}
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = &stderrLogger{provider: name}

	return &sdk.CommandTransport{Command: cmd}, nil
}

func httpTransport(spec LaunchSpec) sdk.Transport {
	headers := http.Header{}
	for k, v := range spec.Headers {
		name := http.CanonicalHeaderKey(strings.TrimSpace(k))
		if name == "" {
			continue
		}
		headers.Set(name, v)
	}
	return &sdk.StreamableClientTransport{
		Endpoint:   spec.URL,
		HTTPClient: &http.Client{Transport: &headerRoundTripper{base: http.DefaultTransport, headers: headers}},
	}
}

type headerRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(h.headers) == 0 {
		return h.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	for k, vals := range h.headers {
		for _, v := range vals {
			clone.Header.Set(k, v)
		}
	}
	return h.base.RoundTrip(clone)
}

// stderrLogger mirrors provider stderr into the debug log, one record per line.
type stderrLogger struct {
	provider string
	mu       sync.Mutex
	buf      []byte
}

func (w *stderrLogger) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
		if line != "" {
			slog.Debug("mcp: provider stderr", "provider", w.provider, "line", line)
		}
	}
	if len(w.buf) > 64*1024 {
		slog.Debug("mcp: provider stderr", "provider", w.provider, "line", fmt.Sprintf("%.200s", w.buf))
		w.buf = w.buf[:0]
	}
	return len(p), nil
}
