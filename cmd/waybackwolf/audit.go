package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/AIwolfie/waybackwolf/internal/analysis"
	"github.com/AIwolfie/waybackwolf/internal/archive"
	"github.com/AIwolfie/waybackwolf/internal/cache"
	"github.com/AIwolfie/waybackwolf/internal/config"
	"github.com/AIwolfie/waybackwolf/internal/display"
	"github.com/AIwolfie/waybackwolf/internal/liveness"
	"github.com/AIwolfie/waybackwolf/internal/log"
	"github.com/AIwolfie/waybackwolf/internal/model"
	"github.com/AIwolfie/waybackwolf/internal/pipeline"
	"github.com/AIwolfie/waybackwolf/internal/report"
	"github.com/AIwolfie/waybackwolf/internal/retry"
	"github.com/AIwolfie/waybackwolf/internal/sysinfo"
)

// banner is printed before each audit run.
const banner = `
 __      __                ___.                 __   __      __        .__   _____
/  \    /  \_____  ___.__. \_ |__ _____    ____ |  | |  \    /  \ ____ |  | / ____\
\   \/\/   /\__  \<   |  |  | __ \\__  \ _/ ___\|  |/ /\   \/\/   /  _ \|  |\   __\
 \        /  / __ \\___  |  | \_\ \/ __ \\  \___|    <  \        (  <_> )  |_|  |
  \__/\  /  (____  / ____|  |___  (____  /\___  >__|_ \  \__/\  / \____/|____/__|
       \/        \/\/           \/     \/     \/     \/       \/
`

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url...]",
		Short: "Audit URLs for liveness, archived snapshots, and sensitive data",
		Long: `Audit checks every URL for liveness, resolves dead ones against the
Wayback Machine, and optionally runs recovered content through an AI
backend to flag sensitive data.

URLs come from --input (one per line) and/or positional arguments.

Examples:
  # Audit a URL list
  waybackwolf audit --input urls.txt

  # Restrict to one domain and write a JSON report
  waybackwolf audit --input urls.txt --domain example.com --json report.json

  # Analyze sensitive-looking files with ChatGPT
  waybackwolf audit --input urls.txt --ai chatgpt

  # Interactive display with pause/skip/quit keys
  waybackwolf audit --input urls.txt --interactive`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	cmd.Flags().StringP("input", "i", "", "File with one URL per line")
	cmd.Flags().StringP("domain", "d", "", "Only audit URLs on this domain (and subdomains)")

	cmd.Flags().StringP("output", "o", "", "Write the text report to this file")
	cmd.Flags().StringP("json", "j", "", "Write a JSON report to this file")
	cmd.Flags().StringP("markdown", "m", "", "Write a Markdown report to this file")

	cmd.Flags().IntP("workers", "w", config.DefaultURLWorkers, "Liveness-check pool size")
	cmd.Flags().Int("wayback-workers", config.DefaultArchiveWorkers, "Archive-lookup pool size")

	cmd.Flags().String("ai", "", "AI analysis backend: chatgpt, grok or deepseek")
	cmd.Flags().StringSliceP("extensions", "e", nil,
		"Extensions to analyze (default: built-in sensitive set, requires --ai)")
	cmd.Flags().String("credentials", "", "AI credentials file (default: XDG config dir)")

	cmd.Flags().Bool("interactive", false, "Live progress view with p/s/q controls")

	cmd.Flags().Duration("connect-timeout", config.DefaultConnectTimeout, "Connection timeout per request")
	cmd.Flags().Duration("read-timeout", config.DefaultReadTimeout, "Read timeout per request")
	cmd.Flags().Int("retries", config.DefaultMaxAttempts, "Attempt budget for transient failures")
	cmd.Flags().Duration("retry-delay", config.DefaultRetryBaseDelay, "Initial retry backoff delay")

	cmd.Flags().Bool("clear-cache", false, "Empty the content cache before the run")
	cmd.Flags().Duration("cache-ttl", 0, "Expire cache entries older than this (0: never)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Handle interrupt signals: first signal cancels the run gracefully.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Targets = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.InputPath, err = cmd.Flags().GetString("input"); err != nil {
		return nil, err
	}
	if cfg.Domain, err = cmd.Flags().GetString("domain"); err != nil {
		return nil, err
	}
	if cfg.OutputPath, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.JSONPath, err = cmd.Flags().GetString("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownPath, err = cmd.Flags().GetString("markdown"); err != nil {
		return nil, err
	}
	if cfg.URLWorkers, err = cmd.Flags().GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.ArchiveWorkers, err = cmd.Flags().GetInt("wayback-workers"); err != nil {
		return nil, err
	}
	if cfg.AIBackend, err = cmd.Flags().GetString("ai"); err != nil {
		return nil, err
	}
	if cfg.AnalysisExtensions, err = cmd.Flags().GetStringSlice("extensions"); err != nil {
		return nil, err
	}
	if cfg.CredentialsPath, err = cmd.Flags().GetString("credentials"); err != nil {
		return nil, err
	}
	if cfg.Interactive, err = cmd.Flags().GetBool("interactive"); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout, err = cmd.Flags().GetDuration("connect-timeout"); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = cmd.Flags().GetDuration("read-timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = cmd.Flags().GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.RetryBaseDelay, err = cmd.Flags().GetDuration("retry-delay"); err != nil {
		return nil, err
	}
	if cfg.ClearCache, err = cmd.Flags().GetBool("clear-cache"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl"); err != nil {
		return nil, err
	}

	cfg.NormalizeExtensions()
	if cfg.AnalysisEnabled() && len(cfg.AnalysisExtensions) == 0 {
		cfg.AnalysisExtensions = model.DefaultAnalysisExtensions
	}

	return cfg, nil
}

// loadTasks reads, filters, and deduplicates the URLs to audit.
func loadTasks(cfg *config.Config) ([]model.Task, error) {
	var raw []string

	if cfg.InputPath != "" {
		f, err := os.Open(cfg.InputPath) //nolint:gosec // User-provided input path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close() //nolint:errcheck

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			raw = append(raw, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
	}
	raw = append(raw, cfg.Targets...)

	seen := make(map[string]bool, len(raw))
	tasks := make([]model.Task, 0, len(raw))
	for _, u := range raw {
		if !model.MatchesDomain(u, cfg.Domain) {
			continue
		}
		key := model.NormalizeURL(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		tasks = append(tasks, model.NewTask(u))
	}

	return tasks, nil
}

// printBreakdown prints the per-extension task counts before the run.
func printBreakdown(out io.Writer, tasks []model.Task) {
	counts := model.ExtensionBreakdown(tasks)
	if len(counts) == 0 {
		return
	}

	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	fmt.Fprintln(out, strings.Repeat("-", 34))
	for _, ext := range exts {
		fmt.Fprintf(out, "%s : %s\n",
			color.GreenString("%-10s", ext),
			color.MagentaString("%3d", counts[ext]))
	}
	fmt.Fprintln(out, strings.Repeat("-", 34))
}

// newHTTPClient builds the shared probe client.
func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
			TLSHandshakeTimeout:   cfg.ConnectTimeout,
			ResponseHeaderTimeout: cfg.ReadTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
		},
	}
}

// buildAnalyzer assembles the AI fallback chain, or nil when analysis
// is disabled.
func buildAnalyzer(cfg *config.Config, logger *slog.Logger) (*analysis.Dispatcher, error) {
	if !cfg.AnalysisEnabled() {
		return nil, nil
	}

	path := config.FindCredentialsFile(cfg.CredentialsPath)
	if path == "" {
		return nil, fmt.Errorf("%w (run `waybackwolf init` to create one)", config.ErrCredentialsNotFound)
	}
	creds, err := config.LoadCredentials(path)
	if err != nil {
		return nil, err
	}
	if creds.For(cfg.AIBackend).APIKey == "" {
		return nil, fmt.Errorf("%w: %s in %s", config.ErrMissingAPIKey, cfg.AIBackend, path)
	}

	chain, err := analysis.BuildChain(cfg.AIBackend, creds, logger)
	if err != nil {
		return nil, err
	}
	return analysis.NewDispatcher(chain, logger), nil
}

// runAudit executes the audit.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	fmt.Fprint(out, banner)

	tasks, err := loadTasks(cfg)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return errors.New("no URLs to audit after filtering")
	}
	printBreakdown(out, tasks)

	cacheOpts := cache.DefaultOptions()
	cacheOpts.TTL = cfg.CacheTTL
	cacheOpts.Logger = logger
	store, err := cache.Open(cfg.CacheDir, cacheOpts)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck
	if cfg.ClearCache {
		if err := store.Clear(ctx); err != nil {
			return err
		}
		logger.Info("content cache cleared", "path", store.Path())
	}

	// Scale the requested pools down to what the host can carry.
	monitor := sysinfo.NewMonitor(sysinfo.WithLogger(logger))
	sizes := monitor.Recommend(ctx, sysinfo.PoolSizes{
		URLWorkers:     cfg.URLWorkers,
		ArchiveWorkers: cfg.ArchiveWorkers,
	})

	policy := retry.New(cfg.MaxAttempts, cfg.RetryBaseDelay, logger)
	client := newHTTPClient(cfg)

	checker := liveness.NewChecker(client, policy,
		liveness.WithUserAgent(cfg.UserAgent),
		liveness.WithMaxBodySize(cfg.MaxBodySize),
		liveness.WithCache(store, cfg.AnalysisExtensions),
		liveness.WithLogger(logger),
	)

	resolver, err := archive.NewResolver(cfg.ReadTimeout, cfg.MaxAttempts, policy,
		archive.WithCache(store, cfg.AnalysisExtensions),
		archive.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	analyzer, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithWorkers(sizes.URLWorkers, sizes.ArchiveWorkers),
		pipeline.WithShutdownGrace(cfg.ShutdownGrace),
		pipeline.WithLogger(logger),
	}
	if analyzer != nil {
		opts = append(opts, pipeline.WithAnalysis(analyzer, store, cfg.AnalysisExtensions))
	}
	orchestrator := pipeline.NewOrchestrator(checker, resolver, opts...)

	// The renderer is the only writer to stdout while the run is live.
	interactive := cfg.Interactive && display.IsTerminal(os.Stdout)
	renderOpts := []display.Option{display.WithInteractive(interactive)}
	if interactive && display.IsTerminal(os.Stdin) {
		restore, rawErr := display.RawInput()
		if rawErr != nil {
			logger.Warn("keyboard controls unavailable", "error", rawErr)
		} else {
			defer restore()
			renderOpts = append(renderOpts, display.WithControls(os.Stdin, orchestrator))
		}
	}
	renderer := display.New(out, renderOpts...)

	rendererDone := make(chan struct{})
	go func() {
		defer close(rendererDone)
		renderer.Run(ctx, orchestrator.Updates(), len(tasks))
	}()

	runReport, err := orchestrator.Run(ctx, tasks)
	<-rendererDone
	if err != nil {
		return err
	}

	return writeReports(cfg, runReport, out)
}

// writeReports renders the terminal report and any requested files in
// one fan-out pass.
func writeReports(cfg *config.Config, runReport *model.RunReport, out io.Writer) error {
	writers := []report.Writer{
		report.NewTextWriter(out,
			report.WithColor(display.IsTerminal(os.Stdout)),
			report.WithVerbose(cfg.Verbose),
		),
	}

	type fileTarget struct {
		path  string
		build func(f *os.File) report.Writer
	}
	targets := []fileTarget{
		{cfg.OutputPath, func(f *os.File) report.Writer { return report.NewTextWriter(f) }},
		{cfg.JSONPath, func(f *os.File) report.Writer {
			return report.NewJSONWriter(f, getVersion(), report.WithPrettyPrint())
		}},
		{cfg.MarkdownPath, func(f *os.File) report.Writer { return report.NewMarkdownWriter(f) }},
	}

	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close() //nolint:errcheck
		}
	}()

	for _, target := range targets {
		if target.path == "" {
			continue
		}
		if dir := filepath.Dir(target.path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.Create(target.path) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		files = append(files, f)
		writers = append(writers, target.build(f))
	}

	if _, err := report.NewMultiWriter(writers...).Write(runReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	for _, f := range files {
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close report %s: %w", f.Name(), err)
		}
	}
	files = nil

	return nil
}
