package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pupilpath/quizcore/internal/config"
	"github.com/pupilpath/quizcore/internal/db"
	syncx "github.com/pupilpath/quizcore/internal/sync"
)

// sync pushes pending outbox events once and exits; the serve command runs
// the same drain on a timer.
func newSyncCmd() *cobra.Command {
	var endpoint string
	var batch int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push pending score events to the classroom server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if endpoint != "" {
				cfg.SyncEndpoint = endpoint
			}
			if cfg.SyncEndpoint == "" {
				return fmt.Errorf("no sync endpoint configured (SYNC_ENDPOINT or --endpoint)")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
			if err != nil {
				return err
			}
			defer dbh.Close()

			up := syncx.NewUploader(syncx.NewEventRepo(dbh), cfg.SyncEndpoint)
			sent, err := up.RunOnce(ctx, batch)
			if err != nil {
				return fmt.Errorf("uploaded %d event(s), then: %w", sent, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d event(s)\n", sent)
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "server URL (overrides SYNC_ENDPOINT)")
	cmd.Flags().IntVar(&batch, "batch", 100, "max events per run")
	return cmd
}
