package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Map9876/GitHub-action-torrent/internal/feed"
	"github.com/Map9876/GitHub-action-torrent/internal/render"
	"github.com/Map9876/GitHub-action-torrent/internal/status"
	"github.com/Map9876/GitHub-action-torrent/internal/utils"
	"github.com/Map9876/GitHub-action-torrent/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rendered download page over HTTP",
	Long: `Subscribe to the feed and keep an HTML page in sync with the latest snapshot.
The page is served at /, the downloads container alone at /downloads.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = settings.Serve.Listen
		}
		plain, _ := cmd.Flags().GetBool("plain")

		// a page without the container is a configuration error; report it before dialing
		doc, err := web.Page()
		if err != nil {
			return err
		}
		dom, err := render.NewDOM(doc, settings.Render.ContainerID)
		if err != nil {
			return err
		}
		var target render.Renderer = dom
		if plain {
			tbl := render.NewTable(cmd.OutOrStdout())
			tbl.Human = settings.Render.HumanSizes
			target = render.Multi{dom, tbl}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()
		defer func() { _ = executeGlobalShutdown("serve: exiting") }()

		ln, err := net.Listen("tcp", listen)
		if err != nil {
			return fmt.Errorf("could not bind to %s: %w", listen, err)
		}

		l, err := feed.Dial(ctx, settings.Feed.Address, dialOptions(settings)...)
		if err != nil {
			_ = ln.Close()
			return err
		}
		registerShutdown(l)

		server := &http.Server{
			Handler:           corsMiddleware(newPageHandler(dom, l.Stats)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Serving downloads page on http://%s\n", ln.Addr())
		fmt.Fprintf(cmd.OutOrStdout(), "Following feed %s\n", settings.Feed.Address)
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to exit.")

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return serveHTTP(server, ln) })
		g.Go(func() error {
			err := l.Run(gctx, feed.ConsumerFunc(func(snap status.Snapshot) {
				if err := target.Render(snap); err != nil {
					utils.Debug("Render failed: %v", err)
				}
			}))
			if gctx.Err() == nil {
				// keep serving the last snapshot until interrupted
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Feed lost: %v\n", err)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Feed closed.")
				}
			}
			<-gctx.Done()
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return shutdownHTTP(server)
		})

		err = g.Wait()
		fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
		return err
	},
}

// serveHTTP serves until the server is shut down.
func serveHTTP(server *http.Server, ln net.Listener) error {
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func shutdownHTTP(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		utils.Debug("HTTP shutdown: %v", err)
	}
	return nil
}

// newPageHandler serves the rendered page and its health counters.
func newPageHandler(dom *render.DOM, stats func() feed.Stats) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := dom.WriteDocument(w); err != nil {
			utils.Debug("Failed to write page: %v", err)
		}
	})

	mux.HandleFunc("/downloads", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fragment, err := dom.ContainerHTML()
		if err != nil {
			http.Error(w, "Failed to render downloads: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(fragment))
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s := stats()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"downloads": dom.Len(),
			"received":  s.Received,
			"rendered":  s.Rendered,
			"skipped":   s.Skipped,
		}); err != nil {
			utils.Debug("Failed to encode response: %v", err)
		}
	})

	return mux
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to serve the page on (default :8000)")
	serveCmd.Flags().Bool("plain", false, "Also print a table per snapshot to stdout")
}
