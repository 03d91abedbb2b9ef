// Package dependency wires oneshot services using go.uber.org/dig.
package dependency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"github.com/ksfoundation/oneshot/internal/agent"
	"github.com/ksfoundation/oneshot/internal/catalog"
	"github.com/ksfoundation/oneshot/internal/channels"
	"github.com/ksfoundation/oneshot/internal/cloud"
	"github.com/ksfoundation/oneshot/internal/cluster"
	"github.com/ksfoundation/oneshot/internal/commerce"
	"github.com/ksfoundation/oneshot/internal/config"
	"github.com/ksfoundation/oneshot/internal/cron"
	"github.com/ksfoundation/oneshot/internal/domains"
	"github.com/ksfoundation/oneshot/internal/gateway"
	"github.com/ksfoundation/oneshot/internal/heartbeat"
	"github.com/ksfoundation/oneshot/internal/hosting"
	"github.com/ksfoundation/oneshot/internal/intel"
	"github.com/ksfoundation/oneshot/internal/journal"
	"github.com/ksfoundation/oneshot/internal/mcp"
	"github.com/ksfoundation/oneshot/internal/metrics"
	"github.com/ksfoundation/oneshot/internal/providers"
	"github.com/ksfoundation/oneshot/internal/tools"
	"github.com/ksfoundation/oneshot/internal/workflow"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg       *config.Config
	registry  *mcp.Registry
	factory   *providers.Factory
	table     *tools.Table
	catalog   *catalog.Catalog
	loop      *agent.Loop
	journal   *journal.Store
	metrics   *metrics.Metrics
	promReg   *prometheus.Registry
	cronSvc   *cron.Service
	heartbeat *heartbeat.Service
	gateway   *gateway.Server
	channels  *channels.Manager
}

func (c *Container) Config() *config.Config        { return c.cfg }
func (c *Container) Registry() *mcp.Registry       { return c.registry }
func (c *Container) Factory() *providers.Factory   { return c.factory }
func (c *Container) Table() *tools.Table           { return c.table }
func (c *Container) Catalog() *catalog.Catalog     { return c.catalog }
func (c *Container) Loop() *agent.Loop             { return c.loop }
func (c *Container) Metrics() *metrics.Metrics     { return c.metrics }
func (c *Container) CronService() *cron.Service    { return c.cronSvc }
func (c *Container) Heartbeat() *heartbeat.Service { return c.heartbeat }
func (c *Container) Gateway() *gateway.Server      { return c.gateway }
func (c *Container) Channels() *channels.Manager   { return c.channels }
func (c *Container) Gatherer() prometheus.Gatherer { return c.promReg }

// Journal returns the invocation journal, or nil when it is disabled or
// could not be opened.
func (c *Container) Journal() *journal.Store { return c.journal }

// Version is a named string type so dig can distinguish the build version
// from plain strings.
type Version string

// New builds and wires all services from cfg. No provider is contacted;
// call ConnectProviders to start the configured MCP servers.
func New(cfg *config.Config, version string) (*Container, error) {
	d := dig.New()

	constructors := []any{
		func() *config.Config { return cfg },
		func() Version { return Version(version) },
		newPrometheusRegistry,
		newMetrics,
		newJournal,
		newRegistry,
		newFactory,
		newServices,
		newTable,
		newDispatcher,
		newCatalog,
		newLoop,
		newCronService,
		newHeartbeat,
		newGateway,
		newChannels,
	}
	for _, ctor := range constructors {
		if err := d.Provide(ctor); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		registry *mcp.Registry,
		factory *providers.Factory,
		table *tools.Table,
		cat *catalog.Catalog,
		loop *agent.Loop,
		store *journal.Store,
		m *metrics.Metrics,
		promReg *prometheus.Registry,
		cronSvc *cron.Service,
		hb *heartbeat.Service,
		gw *gateway.Server,
		chans *channels.Manager,
	) {
		result = &Container{
			cfg:       cfg,
			registry:  registry,
			factory:   factory,
			table:     table,
			catalog:   cat,
			loop:      loop,
			journal:   store,
			metrics:   m,
			promReg:   promReg,
			cronSvc:   cronSvc,
			heartbeat: hb,
			gateway:   gw,
			channels:  chans,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("wire services: %w", err)
	}
	return result, nil
}

// ConnectProviders starts every enabled MCP server in the config. Providers
// that fail to start are logged and skipped; the error joins their failures.
func (c *Container) ConnectProviders(ctx context.Context) error {
	return c.registry.Reconcile(ctx, mcp.LaunchSpecsFromConfig(c.cfg.Tools.MCPServers))
}

// Close shuts down provider sessions and the journal.
func (c *Container) Close() error {
	c.registry.Shutdown()
	if c.journal != nil {
		return c.journal.Close()
	}
	return nil
}

func newPrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

// newJournal opens the journal. A journal that cannot be opened (another
// process holds the lock) disables journaling instead of failing startup.
func newJournal(cfg *config.Config) *journal.Store {
	if cfg.Journal.Disabled {
		return nil
	}
	store, err := journal.Open(config.ExpandHome(cfg.Journal.Path))
	if err != nil {
		slog.Warn("journal: disabled", "path", cfg.Journal.Path, "err", err)
		return nil
	}
	return store
}

func newRegistry() *mcp.Registry {
	return mcp.NewRegistry()
}

func newFactory(cfg *config.Config) *providers.Factory {
	return providers.NewFactory(cfg.Providers, providers.NewRouter())
}

func newServices(cfg *config.Config) tools.Services {
	return tools.Services{
		Hosting:  hosting.NewProvisioner(cfg.Tools.Hosting, nil),
		Domains:  domains.NewChecker(),
		Cluster:  cluster.NewBootstrapper(cluster.NewSSHRunner(cfg.Tools.Cluster)),
		Cloud:    cloud.NewManager(cfg.Tools.Cloud),
		Intel:    intel.NewService(),
		Commerce: commerce.NewSearcher(commerce.DefaultStores()...),
		Workflow: workflow.NewExecutor(cfg.Tools.Workflow),
	}
}

func newTable(s tools.Services) (*tools.Table, error) {
	return tools.NewBuiltinTable(s)
}

func newDispatcher(table *tools.Table, registry *mcp.Registry, m *metrics.Metrics) *tools.Dispatcher {
	return tools.NewDispatcher(table, registry, m)
}

func newCatalog(registry *mcp.Registry, table *tools.Table) *catalog.Catalog {
	return catalog.New(registry, table.Descriptors())
}

func newLoop(
	cfg *config.Config,
	factory *providers.Factory,
	cat *catalog.Catalog,
	dispatcher *tools.Dispatcher,
	m *metrics.Metrics,
	store *journal.Store,
) *agent.Loop {
	observers := []agent.TurnObserver{m}
	if store != nil {
		observers = append(observers, store)
	}
	return agent.NewLoop(cfg.Agent, factory, cat, dispatcher, observers...)
}

func newCronService(cfg *config.Config, loop *agent.Loop, m *metrics.Metrics) *cron.Service {
	run := func(ctx context.Context, job cron.Job) (string, error) {
		ctx = journal.WithSource(ctx, "cron:"+job.Name)
		resp, err := loop.Chat(ctx, job.Message, job.Model)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}
	return cron.NewService(cfg.Schedules, run, cron.WithRunObserver(m.ObserveScheduledRun))
}

func newHeartbeat(cfg *config.Config, registry *mcp.Registry, m *metrics.Metrics) *heartbeat.Service {
	onResult := func(provider string, err error) {
		m.SetProviderUp(provider, err == nil)
	}
	interval := time.Duration(cfg.Heartbeat.IntervalSeconds) * time.Second
	return heartbeat.NewService(registry, onResult, interval, heartbeat.WithForget(m.ForgetProvider))
}

func newGateway(
	cfg *config.Config,
	version Version,
	loop *agent.Loop,
	cat *catalog.Catalog,
	s tools.Services,
	store *journal.Store,
	reg *prometheus.Registry,
	hb *heartbeat.Service,
) *gateway.Server {
	opts := gateway.Options{
		Config:   cfg.Gateway,
		Version:  string(version),
		Chat:     loop,
		Catalog:  cat,
		Services: s,
		Gatherer: reg,
		Down:     hb.Down,
	}
	if store != nil {
		opts.Journal = store
	}
	return gateway.New(opts)
}

func newChannels(cfg *config.Config, loop *agent.Loop) *channels.Manager {
	return channels.NewManager(cfg.Channels, loop, cfg.Agent.Model)
}
