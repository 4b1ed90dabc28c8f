package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/infrastructure/persistence/postgres"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Manage week parity anchors of faculties",
}

var anchorSetCmd = &cobra.Command{
	Use:   "set FACULTY DATE odd|even",
	Short: "Declare the parity of the week containing DATE (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		anchor, err := parseAnchor(args[0], args[1], args[2], cfg.App.Location)
		if err != nil {
			return err
		}
		anchor.UpdatedAt = time.Now().In(cfg.App.Location)

		if err := postgres.NewAnchorRepository(conn, cfg.App.Location).Save(cmd.Context(), anchor); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf(
			"%s: week of %s is %s",
			anchor.Faculty, anchor.WeekStart.Format(timeutil.FormatDate), anchor.Sign,
		)))
		return nil
	},
}

var anchorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured anchors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		anchors, err := postgres.NewAnchorRepository(conn, cfg.App.Location).List(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderAnchors(anchors, time.Now().In(cfg.App.Location)))
		return nil
	},
}

func parseAnchor(faculty, date, sign string, loc *time.Location) (calendar.Anchor, error) {
	day, err := timeutil.ParseDate(date, loc)
	if err != nil {
		return calendar.Anchor{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	ws, err := timetable.ParseWeekSign(sign)
	if err != nil {
		return calendar.Anchor{}, err
	}
	return calendar.NewAnchor(faculty, day, ws)
}

func init() {
	anchorCmd.AddCommand(anchorSetCmd, anchorListCmd)
	rootCmd.AddCommand(anchorCmd)
}
