package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Map9876/GitHub-action-torrent/internal/hub"
	"github.com/Map9876/GitHub-action-torrent/internal/utils"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run a feed relay that broadcasts published snapshots",
	Long: `Accept snapshots on POST /status (or as JSON lines on stdin with --stdin) and
broadcast each one to every websocket client connected on /. New clients are
sent the latest snapshot as soon as they connect.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = settings.Relay.Listen
		}
		fromStdin, _ := cmd.Flags().GetBool("stdin")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()
		defer func() { _ = executeGlobalShutdown("relay: exiting") }()

		ln, err := net.Listen("tcp", listen)
		if err != nil {
			return fmt.Errorf("could not bind to %s: %w", listen, err)
		}

		h := hub.New()
		server := &http.Server{
			Handler:           corsMiddleware(h.Handler()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Relay listening on ws://%s\n", ln.Addr())

		if fromStdin {
			// stdin reads cannot be interrupted, so this stays outside the group
			go func() {
				n, err := publishLines(cmd.InOrStdin(), h)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error reading stdin: %v\n", err)
				}
				utils.Debug("Published %d snapshots from stdin", n)
			}()
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return serveHTTP(server, ln) })
		g.Go(func() error {
			<-gctx.Done()
			// clients get a close frame before the server goes away
			h.Close()
			return shutdownHTTP(server)
		})

		err = g.Wait()
		fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
		return err
	},
}

// publishLines publishes each non-empty line of r as a snapshot. Lines that
// are not valid snapshots are logged and skipped.
func publishLines(r io.Reader, h *hub.Hub) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)

	published := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := h.Publish(line); err != nil {
			utils.Debug("Skipping stdin line: %v", err)
			continue
		}
		published++
	}
	if err := scanner.Err(); err != nil {
		return published, fmt.Errorf("failed to read input: %w", err)
	}
	return published, nil
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().StringP("listen", "l", "", "Address to accept websocket clients on (default localhost:8765)")
	relayCmd.Flags().Bool("stdin", false, "Publish JSON snapshots read line by line from stdin")
}
