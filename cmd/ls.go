package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Map9876/GitHub-action-torrent/internal/feed"
	"github.com/Map9876/GitHub-action-torrent/internal/render"
	"github.com/Map9876/GitHub-action-torrent/internal/status"
)

// errNoSnapshot is returned when the feed sends nothing before the timeout.
var errNoSnapshot = errors.New("no snapshot received")

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"l"},
	Short:   "Print the current downloads and exit",
	Long:    `Connect to the feed, wait for the next snapshot, print it and exit.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		snap, err := fetchFirstSnapshot(ctx, settings.Feed.Address, timeout, dialOptions(settings)...)
		if err != nil {
			return err
		}

		var r render.Renderer
		if jsonOutput {
			r = render.NewJSON(cmd.OutOrStdout())
		} else {
			tbl := render.NewTable(cmd.OutOrStdout())
			tbl.Human = settings.Render.HumanSizes
			tbl.PathWidth = 40
			r = tbl
		}
		return r.Render(snap)
	},
}

// fetchFirstSnapshot dials address and returns the first snapshot that decodes.
func fetchFirstSnapshot(ctx context.Context, address string, timeout time.Duration, opts ...feed.Option) (status.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l, err := feed.Dial(ctx, address, opts...)
	if err != nil {
		return status.Snapshot{}, err
	}
	defer l.Close()

	var (
		first status.Snapshot
		got   bool
	)
	err = l.Run(ctx, feed.ConsumerFunc(func(snap status.Snapshot) {
		if !got {
			first, got = snap, true
			cancel()
		}
	}))
	if got {
		return first, nil
	}
	if err != nil {
		return status.Snapshot{}, err
	}
	return status.Snapshot{}, fmt.Errorf("%w within %s", errNoSnapshot, timeout)
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().Bool("json", false, "Output in JSON format")
	lsCmd.Flags().Duration("timeout", 10*time.Second, "How long to wait for a snapshot")
}
