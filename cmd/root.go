package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/archives"
	"github.com/brettbedarf/resmgr/config"
	"github.com/brettbedarf/resmgr/decoders"
	"github.com/brettbedarf/resmgr/internal/util"
	"github.com/brettbedarf/resmgr/manager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// rootFlags are the persistent flags shared by every subcommand
type rootFlags struct {
	cfgFile     string
	verbose     int
	kind        string
	mainPath    string
	patchesPath string
	prefix      string
	metricsAddr string
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cfg := config.NewDefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "resmgr",
		Short: "Asynchronous archive resource manager",
		Long: `resmgr resolves archive paths to raw bytes and decoded resources through
a two-stage asynchronous pipeline with file and resource caches.

Archives may be a directory, a zip container or an HTTP base URL with a
manifest.json, optionally with a directory of patch archives layered on top.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			*cfg = *loaded
			util.InitializeLogger(cfg.LogLvl)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.cfgFile, "config", "c", "", "config override file (.yaml, .yml or .json)")
	pf.IntVarP(&flags.verbose, "verbose", "v", config.InfoVerbose, "log verbosity between 1 (error) and 5 (trace)")
	pf.StringVarP(&flags.kind, "kind", "k", config.DefaultArchiveKind, "archive kind: dir, zip or http")
	pf.StringVarP(&flags.mainPath, "main", "m", "", "main archive location (path or base URL)")
	pf.StringVarP(&flags.patchesPath, "patches", "p", "", "directory of patch archives layered over the main archive")
	pf.StringVar(&flags.prefix, "prefix", config.DefaultPathPrefix, "archive-scheme prefix stripped from requested paths")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (i.e. :9090)")

	rootCmd.AddCommand(
		newLoadCmd(cfg),
		newCacheCmd(cfg),
		newHashCmd(cfg),
		newMountCmd(cfg),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig merges defaults, the config file and explicitly set flags, in
// that order
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if flags.cfgFile != "" {
		override, err := config.LoadConfigOverrideFile(flags.cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", flags.cfgFile, err)
		}
		cfg.Merge(override)
	}

	override := &config.ConfigOverride{}
	changed := cmd.Flags().Changed
	if changed("verbose") {
		override.LogLvl = &flags.verbose
	}
	if changed("kind") {
		override.ArchiveKind = &flags.kind
	}
	if changed("main") {
		override.MainPath = &flags.mainPath
	}
	if changed("patches") {
		override.PatchesPath = &flags.patchesPath
	}
	if changed("prefix") {
		override.PathPrefix = &flags.prefix
	}
	if changed("metrics-addr") {
		override.MetricsAddr = &flags.metricsAddr
	}
	cfg.Merge(override)
	return cfg, nil
}

// session is an opened archive with a running manager
type session struct {
	cfg     *config.Config
	archive resmgr.Archive
	mgr     *manager.Manager
	metrics *http.Server
}

// openSession opens the configured archive and starts a manager over it
func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	logger := util.GetLogger("main")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := archives.NewRegistry()
	archives.RegisterBuiltins(registry)
	archive, err := archives.OpenWithPatches(ctx, registry, cfg.ArchiveKind, cfg.MainPath, cfg.PatchesPath, archives.Options{
		Headers: cfg.HTTPHeaders,
		Timeout: cfg.FetchTimeoutDuration(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mgr := manager.New(cfg, archive, decoders.NewDefaultRegistry(), reg)
	mgr.Start()

	s := &session{cfg: cfg, archive: archive, mgr: mgr}
	if cfg.MetricsAddr != "" {
		s.metrics = serveMetrics(cfg.MetricsAddr, reg)
	}
	logger.Debug().Str("kind", cfg.ArchiveKind).Str("main", cfg.MainPath).Str("patches", cfg.PatchesPath).Msg("Archive opened")
	return s, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	logger := util.GetLogger("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("Serving metrics")
	return srv
}

// Close stops the manager, the metrics server and the archive
func (s *session) Close() error {
	s.mgr.Stop()
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.Shutdown(ctx)
	}
	return s.archive.Close()
}
