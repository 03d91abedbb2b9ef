// Package gateway serves the execution loop and the first-party services
// over HTTP and websocket.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ksfoundation/oneshot/internal/catalog"
	gatewaycfg "github.com/ksfoundation/oneshot/internal/config/gateway"
	"github.com/ksfoundation/oneshot/internal/journal"
	"github.com/ksfoundation/oneshot/internal/schema"
	"github.com/ksfoundation/oneshot/internal/tools"
)

// APIPrefix is prepended to every API route.
const APIPrefix = "/api/v1"

// Chatter answers one user message.
type Chatter interface {
	Chat(ctx context.Context, userMessage, modelID string) (schema.AgentResponse, error)
}

// CatalogSource produces the current tool snapshot.
type CatalogSource interface {
	Build(ctx context.Context) *catalog.Snapshot
}

// History lists journaled turns, newest first.
type History interface {
	List(limit int) ([]journal.Entry, error)
}

// Options wires a Server. Journal, Gatherer and Down may be nil.
type Options struct {
	Config   gatewaycfg.GatewayConfig
	Version  string
	Chat     Chatter
	Catalog  CatalogSource
	Services tools.Services
	Journal  History
	Gatherer prometheus.Gatherer
	// Down reports providers that failed their last heartbeat.
	Down func() []string
}

// Server is the HTTP gateway.
type Server struct {
	opts Options
	mux  *http.ServeMux
}

// New builds a Server and registers its routes.
func New(opts Options) *Server {
	if opts.Config.DefaultModel == "" {
		opts.Config.DefaultModel = gatewaycfg.DefaultGatewayConfig().DefaultModel
	}
	s := &Server{opts: opts, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.opts.Gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	api := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		s.mux.HandleFunc(method+" "+APIPrefix+path, h)
	}
	api("POST /agent/chat", s.handleChat)
	api("GET /agent/ws", s.handleWebsocket)
	api("GET /mcp/tools", s.handleTools)
	api("GET /models", s.handleModels)
	api("GET /history", s.handleHistory)
	api("GET /domains/check", s.handleDomainCheck)
	api("POST /hosting/provision", s.handleProvision)
	api("GET /intel/places", s.handlePlaces)
	api("GET /intel/social", s.handleSocial)
	api("GET /intel/identity", s.handleIdentity)
	api("GET /apps", s.handleApps)
	api("POST /apps/deploy", s.handleAppDeploy)
	api("POST /domains/register", s.handleDomainRegister)
	api("POST /cluster/nodes", s.handleNodeProvision)
	api("POST /cluster/helm", s.handleHelmDeploy)
	api("POST /firewall/ufw", s.handleUFW)
	api("GET /firewall/block-country", s.handleBlockCountry)
}

// Handler returns the root handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	return withLogging(withCORS(s.opts.Config.CORSOrigins, s.mux))
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Config.Host, strconv.Itoa(s.opts.Config.Port))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("gateway: listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("gateway failed to start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("gateway: shutdown error", "err", err)
			return err
		}
		slog.Info("gateway: stopped")
		return nil
	}
}

func (s *Server) requestTimeout() time.Duration {
	if s.opts.Config.RequestTimeout <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.opts.Config.RequestTimeout) * time.Second
}
