package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/evalgraph/internal/builder"
	"github.com/vk/evalgraph/internal/config"
	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/metrics"
	"github.com/vk/evalgraph/internal/publish"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loader  config.Loader
	reg     *prometheus.Registry
	metrics *metrics.Metrics

	publisher publish.Publisher
	dial      func(context.Context, publish.Options) (publish.Publisher, error)
	build     func(context.Context, *depsgraph.Graph, builder.Options) (*builder.Result, error)

	httpServer *http.Server
	rebuild    chan struct{}

	mu     sync.Mutex
	graph  *depsgraph.Graph
	result *builder.Result
}

// Option customizes an App.
type Option func(*App)

// WithPublisher makes the app announce rebuilds through p instead of
// dialing the configured publish URL.
func WithPublisher(p publish.Publisher) Option {
	return func(a *App) { a.publisher = p }
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger and metrics registry; nothing is loaded until Run.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := prometheus.NewRegistry()
	a := &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		loader:  loader,
		reg:     reg,
		metrics: metrics.New(reg),
		dial: func(ctx context.Context, o publish.Options) (publish.Publisher, error) {
			p, err := publish.Dial(ctx, o)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		build:   builder.Build,
		rebuild: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Graph returns the most recently built graph. It is nil before the first
// build and after a failed one.
func (a *App) Graph() *depsgraph.Graph {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph
}

// Result returns the report of the most recent successful build.
func (a *App) Result() *builder.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Registry returns the application's metrics registry. This is primarily for
// testing.
func (a *App) Registry() *prometheus.Registry {
	return a.reg
}

// TriggerRebuild asks a serving app to reload its scene files and rebuild.
// Requests made while one is already pending are merged.
func (a *App) TriggerRebuild() {
	select {
	case a.rebuild <- struct{}{}:
	default:
	}
}
