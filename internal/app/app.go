package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/tvtaskgraph/internal/ctxlog"
	"github.com/vk/tvtaskgraph/internal/schedule"
	"github.com/vk/tvtaskgraph/internal/taskbuilder"
	"github.com/vk/tvtaskgraph/internal/taskcluster"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	// outW receives command output (the dry-run batch); logs go elsewhere.
	outW   io.Writer
	logger *slog.Logger
	config *Config
	client *taskcluster.Client
	queue  schedule.Queue
	newID  taskcluster.IDGenerator
}

// Option customizes an App.
type Option func(*App)

// WithQueue replaces the queue tasks are submitted to.
func WithQueue(q schedule.Queue) Option {
	return func(a *App) { a.queue = q }
}

// WithIDGenerator replaces the slugId generator.
func WithIDGenerator(gen taskcluster.IDGenerator) Option {
	return func(a *App) { a.newID = gen }
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and Taskcluster
// client. Dry-run output goes to outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	client := taskcluster.New(cfg.ProxyURL)

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		client: client,
		queue:  client,
		newID:  taskcluster.SlugID,
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Debug("App initialized.", "command", cfg.Command, "proxy", cfg.ProxyURL, "dry_run", cfg.DryRun)
	return a
}

// Context returns ctx carrying the app's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

func (a *App) builderContext() taskbuilder.Context {
	return taskbuilder.Context{
		Owner:         a.config.Owner,
		RepoURL:       a.config.HeadRepository,
		Commit:        a.config.HeadRev,
		TaskGroupID:   a.config.TaskGroupID,
		NotifyAddress: a.config.NotifyAddress,
		QueueRootURL:  a.config.QueueRootURL,
	}
}
