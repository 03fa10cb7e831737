package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Map9876/GitHub-action-torrent/internal/config"
	"github.com/Map9876/GitHub-action-torrent/internal/feed"
	"github.com/Map9876/GitHub-action-torrent/internal/render"
	"github.com/Map9876/GitHub-action-torrent/internal/status"
	"github.com/Map9876/GitHub-action-torrent/internal/tui"
	"github.com/Map9876/GitHub-action-torrent/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Command line flags
var (
	verbose    bool
	configPath string
	feedAddr   string
)

// settings is the effective configuration, loaded in PersistentPreRunE
var settings *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dlview",
	Short: "Watch a live download-status feed",
	Long: `dlview subscribes to a websocket feed of download snapshots and redraws
the list of in-progress downloads every time a snapshot arrives.

On a terminal it shows a live dashboard; otherwise it prints one table per snapshot.`,
	Version:      Version,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeGlobalState()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()
		defer func() { _ = executeGlobalShutdown("watch: exiting") }()

		l, err := feed.Dial(ctx, settings.Feed.Address, dialOptions(settings)...)
		if err != nil {
			return err
		}
		registerShutdown(l)

		out := cmd.OutOrStdout()
		switch {
		case jsonOutput:
			return watchPlain(ctx, l, render.NewJSON(out), out)
		case plain || !isTerminal(out):
			tbl := render.NewTable(out)
			tbl.Human = settings.Render.HumanSizes
			return watchPlain(ctx, l, tbl, out)
		default:
			return startTUI(ctx, l)
		}
	},
}

// dialOptions builds the feed dial options from the configuration.
func dialOptions(cfg *config.Config) []feed.Option {
	opts := []feed.Option{feed.WithHandshakeTimeout(cfg.HandshakeTimeout())}
	if cfg.Feed.Origin != "" {
		opts = append(opts, feed.WithHeader(http.Header{"Origin": []string{cfg.Feed.Origin}}))
	}
	return opts
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// watchPlain renders every snapshot to r until the feed ends.
func watchPlain(ctx context.Context, l *feed.Listener, r render.Renderer, out io.Writer) error {
	err := l.Run(ctx, feed.ConsumerFunc(func(snap status.Snapshot) {
		if err := r.Render(snap); err != nil {
			utils.Debug("Render failed: %v", err)
		}
	}))

	stats := l.Stats()
	utils.Debug("Feed ended: received=%d rendered=%d skipped=%d", stats.Received, stats.Rendered, stats.Skipped)
	if err != nil {
		return fmt.Errorf("feed lost: %w", err)
	}
	if ctx.Err() == nil {
		_, _ = fmt.Fprintln(out, "Feed closed.")
	}
	return nil
}

// startTUI runs the dashboard until the user quits or a signal arrives.
// A feed that ends leaves the last snapshot on screen.
func startTUI(ctx context.Context, l *feed.Listener) error {
	m := tui.InitialRootModel(l.Address(), Version)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		err := l.Run(ctx, tui.Consumer(p))
		p.Send(tui.FeedClosedMsg{Err: err})
	}()

	stopSignalListener := make(chan struct{})
	defer close(stopSignalListener)
	go func() {
		select {
		case <-ctx.Done():
			p.Send(tea.Quit())
		case <-stopSignalListener:
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// initializeGlobalState loads the configuration and sets up debug logging.
func initializeGlobalState() error {
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if feedAddr != "" {
		cfg.Feed.Address = feedAddr
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	settings = cfg

	utils.SetVerbose(verbose || cfg.Logging.Verbose)
	if err := utils.ConfigureDebug(cfg.Logging.Dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log disabled: %v\n", err)
	}
	utils.CleanupLogs(cfg.Logging.Dir, cfg.Logging.RetentionCount)

	if exists {
		utils.Debug("Loaded config from %s", resolved)
	}
	utils.Debug("dlview %s (built %s), feed %s", Version, BuildTime, cfg.Feed.Address)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/dlview/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&feedAddr, "addr", "a", "", "Feed address (default ws://localhost:8765)")
	rootCmd.Flags().Bool("plain", false, "Print a table per snapshot instead of the dashboard")
	rootCmd.Flags().Bool("json", false, "Print each snapshot as a JSON line")
	rootCmd.SetVersionTemplate("dlview {{.Version}}\n")
}
