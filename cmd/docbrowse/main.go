package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docbrowse/internal/allowlist"
	"git.home.luguber.info/inful/docbrowse/internal/cache"
	"git.home.luguber.info/inful/docbrowse/internal/config"
	"git.home.luguber.info/inful/docbrowse/internal/events"
	"git.home.luguber.info/inful/docbrowse/internal/gitroots"
	"git.home.luguber.info/inful/docbrowse/internal/locator"
	"git.home.luguber.info/inful/docbrowse/internal/logfields"
	"git.home.luguber.info/inful/docbrowse/internal/metrics"
	"git.home.luguber.info/inful/docbrowse/internal/modpath"
	"git.home.luguber.info/inful/docbrowse/internal/page"
	"git.home.luguber.info/inful/docbrowse/internal/render"
	"git.home.luguber.info/inful/docbrowse/internal/schedule"
	"git.home.luguber.info/inful/docbrowse/internal/server/httpserver"
	"git.home.luguber.info/inful/docbrowse/internal/site"
	"git.home.luguber.info/inful/docbrowse/internal/version"
	"git.home.luguber.info/inful/docbrowse/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Serve the documentation browser"`

	Render struct {
		File   string `arg:"" help:"Markup file to render"`
		Module string `short:"m" help:"Canonical module name used for page context" default:"Document"`
	} `cmd:"" help:"Render a single markup file to HTML on stdout"`

	Check struct{} `cmd:"" help:"Validate the configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "serve":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", logfields.Error(err))
			os.Exit(1)
		}
		if err := runServe(cfg); err != nil {
			slog.Error("Serve failed", logfields.Error(err))
			os.Exit(1)
		}
	case "render <file>":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", logfields.Error(err))
			os.Exit(1)
		}
		if err := runRender(cfg, CLI.Render.File, CLI.Render.Module); err != nil {
			slog.Error("Render failed", logfields.Error(err))
			os.Exit(1)
		}
	case "check":
		if err := runCheck(CLI.Config); err != nil {
			slog.Error("Configuration is invalid", logfields.Error(err))
			os.Exit(1)
		}
		fmt.Println("configuration OK")
	case "version":
		fmt.Printf("docbrowse %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}
}

func runServe(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	var publisher *events.Publisher
	if cfg.Events.NATSURL != "" {
		p, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			slog.Warn("Event publishing disabled", logfields.URL(cfg.Events.NATSURL), logfields.Error(err))
		} else {
			publisher = p
			defer publisher.Close()
		}
	}

	roots := append([]string{}, cfg.Docs.Roots...)

	var syncer *gitroots.Syncer
	if len(cfg.Sync.Repositories) > 0 {
		syncer = gitroots.New(cfg.Sync.Workspace, cfg.Sync.Repositories, recorder)
		slog.Info("Syncing remote documentation roots", slog.Int("repositories", len(cfg.Sync.Repositories)))
		if err := syncer.Sync(ctx); err != nil {
			slog.Warn("Initial sync incomplete", logfields.Error(err))
		}
		publisher.Publish(events.TypeRootsSynced, "", cfg.Sync.Workspace)
		roots = append(roots, syncer.Roots()...)
	}

	loc := locator.New(roots, cfg.Docs.Extensions)

	registry := render.NewRegistry()
	ropts := render.Options{
		HighlightStyle: cfg.Renderer.HighlightStyle,
		Sanitize:       cfg.Renderer.Sanitize,
	}
	converter, err := registry.Resolve(cfg.Renderer.Engine, ropts)
	if err != nil {
		return fmt.Errorf("renderer engine: %w", err)
	}
	preprocess, err := registry.Resolve(cfg.Renderer.Preprocess, ropts)
	if err != nil {
		return fmt.Errorf("preprocess engine: %w", err)
	}

	renderer, err := site.New(preprocess)
	if err != nil {
		return fmt.Errorf("layouts: %w", err)
	}
	if !renderer.HasLayout(cfg.Server.Layout) {
		return fmt.Errorf("unknown layout %q", cfg.Server.Layout)
	}

	allow, err := allowlist.Compile(cfg.Docs.Allow)
	if err != nil {
		return fmt.Errorf("allowlist: %w", err)
	}

	var defaultModule modpath.Identifier
	if cfg.Docs.DefaultModule != "" {
		defaultModule, err = modpath.FromCanonical(cfg.Docs.DefaultModule)
		if err != nil {
			return fmt.Errorf("default module: %w", err)
		}
	}

	var store *cache.Store
	if cfg.Cache.Path != "" {
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("render cache: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close render cache", logfields.Error(err))
			}
		}()
	}

	if cfg.Docs.Watch {
		watcher, err := watch.New(roots)
		if err != nil {
			slog.Warn("Filesystem watching disabled", logfields.Error(err))
		} else {
			go watcher.Run(ctx, func(path string) {
				slog.Debug("Documentation changed", logfields.Path(path))
				if err := store.Invalidate(ctx, path); err != nil {
					slog.Warn("Failed to invalidate cached page", logfields.Path(path), logfields.Error(err))
				}
			})
		}
	}

	if syncer != nil {
		if interval := cfg.Sync.IntervalDuration(); interval > 0 {
			sched, err := schedule.New()
			if err != nil {
				return fmt.Errorf("scheduler: %w", err)
			}
			err = sched.Every("root-sync", interval, func() {
				if err := syncer.Sync(ctx); err != nil {
					slog.Warn("Scheduled sync incomplete", logfields.Error(err))
					return
				}
				publisher.Publish(events.TypeRootsSynced, "", cfg.Sync.Workspace)
			})
			if err != nil {
				return fmt.Errorf("scheduler: %w", err)
			}
			sched.Start()
			defer func() {
				if err := sched.Stop(); err != nil {
					slog.Warn("Failed to stop scheduler", logfields.Error(err))
				}
			}()
		}
	}

	srv := httpserver.New(cfg, httpserver.Options{
		Locator:       loc,
		Converter:     converter,
		Site:          renderer,
		Allow:         allow,
		DefaultModule: defaultModule,
		Cache:         store,
		Recorder:      recorder,
		Events:        publisher,
		Registry:      reg,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return srv.Stop(stopCtx)
}

func runRender(cfg *config.Config, file, module string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	id, err := modpath.FromCanonical(module)
	if err != nil {
		return fmt.Errorf("module name: %w", err)
	}

	registry := render.NewRegistry()
	converter, err := registry.Resolve(cfg.Renderer.Engine, render.Options{
		HighlightStyle: cfg.Renderer.HighlightStyle,
		Sanitize:       cfg.Renderer.Sanitize,
	})
	if err != nil {
		return fmt.Errorf("renderer engine: %w", err)
	}

	allow, err := allowlist.Compile(cfg.Docs.Allow)
	if err != nil {
		return fmt.Errorf("allowlist: %w", err)
	}

	html, err := converter.Convert(src)
	if err != nil {
		return fmt.Errorf("convert %s: %w", file, err)
	}
	result := page.Process(html, page.Context{
		Current:         id,
		Allow:           allow,
		ExternalBaseURL: cfg.Docs.ExternalBaseURL,
		LocalURL: func(id modpath.Identifier) string {
			return cfg.Server.Mount + "/" + id.Path()
		},
	})

	fmt.Println(result.HTML)
	return nil
}

func runCheck(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	slog.Info("Configuration loaded",
		slog.String("addr", cfg.Server.Addr),
		slog.String("mount", cfg.Server.Mount),
		slog.Int("roots", len(cfg.Docs.Roots)),
		slog.Int("repositories", len(cfg.Sync.Repositories)))
	return nil
}
