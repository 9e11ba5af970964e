package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/pupilpath/quizcore/internal/config"
	"github.com/pupilpath/quizcore/internal/db"
	"github.com/pupilpath/quizcore/internal/store"
)

func newInitDBCmd() *cobra.Command {
	var username, displayName, password string
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the local database schema and optionally seed a pupil profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
			if err != nil {
				return err
			}
			defer dbh.Close()

			if username == "" {
				fmt.Println("schema ready")
				return nil
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			id, err := store.NewSQLStore(dbh).UpsertPupil(ctx, username, displayName, string(hash))
			if err != nil {
				return err
			}
			fmt.Printf("schema ready, pupil %s (%s)\n", username, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "pupil", "", "seed a pupil profile with this username")
	cmd.Flags().StringVar(&displayName, "name", "", "display name for the seeded pupil")
	cmd.Flags().StringVar(&password, "password", "", "password for the seeded pupil")
	return cmd
}
