package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/internal/infrastructure/external/tversu"
	"github.com/tversu/timing-bot/internal/infrastructure/persistence/postgres"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

var (
	lessonsFaculty  string
	lessonsGroup    string
	lessonsSubgroup int
	lessonsNextWeek bool
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Print a group's lessons for this or next week",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()
		if cfg.Feed.BaseURL == "" {
			return fmt.Errorf("FEED_BASE_URL is required")
		}

		feedConfig := tversu.DefaultClientConfig(cfg.Feed.BaseURL)
		feedConfig.APIKey = cfg.Feed.APIKey
		feed := tversu.NewClient(feedConfig)

		clock := timeutil.NewSystemClock(cfg.App.Location)
		anchors := postgres.NewAnchorRepository(conn, cfg.App.Location)
		weeks := calendar.NewResolver(anchors, clock)
		timing := query.NewTimingService(feed, weeks, clock)

		profile := user.Profile{Faculty: lessonsFaculty, Group: lessonsGroup, Subgroup: lessonsSubgroup}
		schedule, err := timing.WeekLessons(cmd.Context(), profile, lessonsNextWeek)
		if err != nil {
			return err
		}

		sign, err := weeks.CurrentWeekSign(cmd.Context(), profile.Faculty)
		if lessonsNextWeek && err == nil {
			sign, err = weeks.NextWeekSign(cmd.Context(), profile.Faculty)
		}
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), renderWeek(profile, sign, schedule))
		return nil
	},
}

func init() {
	lessonsCmd.Flags().StringVar(&lessonsFaculty, "faculty", "", "faculty name")
	lessonsCmd.Flags().StringVar(&lessonsGroup, "group", "", "group name")
	lessonsCmd.Flags().IntVar(&lessonsSubgroup, "subgroup", 0, "subgroup number, 0 for the whole group")
	lessonsCmd.Flags().BoolVar(&lessonsNextWeek, "next-week", false, "show next week instead of this one")
	_ = lessonsCmd.MarkFlagRequired("faculty")
	_ = lessonsCmd.MarkFlagRequired("group")
	rootCmd.AddCommand(lessonsCmd)
}
