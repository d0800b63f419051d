package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/feedgen/pkg/config"
	"github.com/umputun/feedgen/pkg/llm"
	"github.com/umputun/feedgen/pkg/tui"
	"github.com/umputun/feedgen/pkg/ui"
	"github.com/umputun/feedgen/server"
)

// Opts with all CLI options
type Opts struct {
	Config      string   `short:"c" long:"config" env:"CONFIG" description:"configuration file, defaults and environment are used if not set"`
	Listen      string   `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides server.listen"`
	URLs        []string `short:"u" long:"url" description:"generate feed for the url and exit, repeatable"`
	Out         string   `short:"o" long:"out" env:"OUTPUT_DIR" description:"directory for saved feeds, overrides output.dir"`
	Concurrency int      `long:"concurrency" env:"CONCURRENCY" default:"4" description:"parallel generations for --url"`
	TUI         bool     `long:"tui" description:"run terminal ui"`
	Copy        bool     `long:"copy" description:"copy the generated feed to the clipboard, single --url only"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	color.NoColor = color.NoColor || opts.NoColor
	setupLog(opts.Debug, opts.TUI)

	log.Printf("[INFO] starting feedgen version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		if opts.TUI || len(opts.URLs) > 0 {
			fmt.Fprintf(os.Stderr, "feedgen: %v\n", err)
		}
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, opts Opts) error {
	if opts.Copy && len(opts.URLs) != 1 {
		return errors.New("--copy requires exactly one --url")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.LLM.APIKey != "" {
		setupLog(opts.Debug, opts.TUI, cfg.LLM.APIKey)
	}

	llmCfg := cfg.GetLLMConfig()
	log.Printf("[DEBUG] llm provider %s, mode %s, model %q", llmCfg.Provider, llmCfg.Mode, llmCfg.Model)

	// missing credentials don't stop the app, every generation reports them instead
	var fetcher llm.Fetcher
	var generator server.Generator
	backend, err := llm.NewBackend(ctx, llmCfg)
	switch {
	case err == nil:
		fetcher = llm.NewFetcher(backend, llmCfg)
		generator = backend
	case errors.Is(err, llm.ErrConfiguration):
		log.Printf("[WARN] generative backend is not configured: %v", err)
		fetcher = llm.Unavailable{Err: err}
	default:
		return fmt.Errorf("failed to make llm backend: %w", err)
	}

	switch {
	case opts.TUI:
		deps := ui.Deps{Fetcher: fetcher, Clipboard: ui.SystemClipboard{}, Saver: ui.DirSaver{Dir: cfg.Output.Dir}}
		return tui.Run(ctx, deps)
	case len(opts.URLs) > 0:
		return generateAll(ctx, fetcher, opts, cfg.Output.Dir)
	}

	srv := server.New(cfg, generator, fetcher, revision, opts.Debug)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// loadConfig reads the config file if set and applies command line overrides
func loadConfig(opts Opts) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if opts.Out != "" {
		cfg.Output.Dir = opts.Out
	}
	return cfg, nil
}

// generateAll makes feeds for all requested urls concurrently and saves them into dir.
// A failed url doesn't stop the others, all failures are reported together.
func generateAll(ctx context.Context, fetcher ui.Fetcher, opts Opts, dir string) error {
	var clip ui.Clipboard
	if opts.Copy {
		clip = ui.SystemClipboard{}
	}

	var mu sync.Mutex
	var errs []error
	addErr := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g := errgroup.Group{}
	g.SetLimit(max(opts.Concurrency, 1))
	for _, u := range opts.URLs {
		g.Go(func() error {
			ctl := ui.NewController(ui.Deps{Fetcher: fetcher, Saver: ui.DirSaver{Dir: dir}, Clipboard: clip})
			st := ctl.Submit(ctx, u)
			if st.Phase != ui.PhaseSuccess {
				addErr(fmt.Errorf("%s: %s", u, st.ErrorMessage))
				return nil
			}

			path, err := ctl.Download()
			if err != nil {
				addErr(fmt.Errorf("%s: %w", u, err))
				return nil
			}
			fmt.Printf("%s -> %s (%s, %d items)\n", u, path, st.Outcome.Kind, len(st.Outcome.Entries))

			if clip != nil {
				if err := ctl.Copy(); err != nil {
					addErr(fmt.Errorf("%s: %w", u, err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d feeds failed: %w", len(errs), len(opts.URLs), errors.Join(errs...))
	}
	return nil
}

// setupLog configures lgr as the std logger
func setupLog(dbg, quiet bool, secs ...string) {
	logOpts := logOptions(dbg, quiet, secs...)
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

// logOptions makes lgr options. Quiet mode discards all output, debug included, as the terminal ui
// owns the screen and any write to stdout or stderr would garble it.
func logOptions(dbg, quiet bool, secs ...string) []lgr.Option {
	if quiet {
		return []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	}

	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	return logOpts
}
