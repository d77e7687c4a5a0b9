package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/metcalfc/storyreader/internal/client"
	"github.com/metcalfc/storyreader/internal/config"
	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/reader"
	"github.com/metcalfc/storyreader/internal/state"
	"github.com/metcalfc/storyreader/internal/store"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// interactive marks commands that own the terminal; they log nowhere unless
// a log file is configured.
const interactive = "interactive"

// novelAPI is what the reading clients need from the server.
type novelAPI interface {
	ListNovels(ctx context.Context) ([]novel.Novel, error)
	GetNovel(ctx context.Context, id string) (*novel.Novel, error)
	SearchNovels(ctx context.Context, query string) ([]novel.Novel, error)
}

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "storyreader [novel-id]",
		Short: "Read serialized novels from a storyreader server",
		Long: `storyreader browses and reads novels served by a storyreader API.

Run without arguments to open the library. Pass a novel id to open it
directly. Chapters are split on "Chapter N" markers at the start of a line.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{interactive: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runRead,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:         "read [novel-id]",
			Short:       "Open the reading client",
			Args:        cobra.MaximumNArgs(1),
			Annotations: map[string]string{interactive: "true"},
			RunE:        a.runRead,
		},
		a.serveCmd(),
		a.listCmd(),
		a.searchCmd(),
		a.showCmd(),
		a.tocCmd(),
		a.segmentCmd(),
		a.importCmd(),
		a.deleteCmd(),
		a.configCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "storyreader %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cmd.Annotations[interactive] == "true" && cfg.Logging.File == "" {
		a.logger = zap.NewNop()
		return nil
	}
	a.logger, err = newLogger(cfg.Logging, a.verbose)
	return err
}

func newLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if lc.File != "" {
		zc.OutputPaths = []string{lc.File}
		zc.ErrorOutputPaths = []string{lc.File}
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func (a *app) client() *client.Client {
	return client.New(a.cfg.Client.BaseURL, a.cfg.ClientTimeout())
}

func (a *app) openStore() (*store.Store, error) {
	a.logger.Debug("opening store", zap.String("path", a.cfg.Database.Path))
	s, err := store.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// fontSize returns the saved font size, then the configured one.
func (a *app) fontSize(prefs *state.StateStore) reader.FontSize {
	if prefs != nil {
		if f, err := reader.ParseFontSize(prefs.FontSize()); err == nil {
			return f
		}
	}
	f, _ := reader.ParseFontSize(a.cfg.Reader.FontSize)
	return f
}

func (a *app) runRead(cmd *cobra.Command, args []string) error {
	prefs, err := state.NewStateStore()
	if err != nil {
		a.logger.Warn("preferences unavailable", zap.Error(err))
		prefs = nil
	}
	novelID := ""
	if len(args) > 0 {
		novelID = args[0]
	}
	return runClient(cmd.Context(), a, prefs, novelID)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
