// Command timingctl is the operator CLI of the timetable bot: database
// migrations, week parity anchors, lesson lookups and admin token hashing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tversu/timing-bot/config"
	"github.com/tversu/timing-bot/internal/infrastructure/persistence/postgres"
)

var rootCmd = &cobra.Command{
	Use:   "timingctl",
	Short: "Operator tools for the TverSU timetable bot",
	Long: `timingctl manages the timetable bot's database and calendar anchors
and prints lessons the way the bot computes them.`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// connect opens the database named by DATABASE_URL.
func connect(ctx context.Context) (*config.Config, *postgres.Connection, error) {
	cfg, err := config.LoadUnchecked()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	conn, err := postgres.NewConnection(ctx, postgres.Config{
		URL:      cfg.Database.URL,
		MaxConns: 2,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, conn, nil
}
