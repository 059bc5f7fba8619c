package main

import (
	"fmt"
	"io"
	"ratlogger/internal/domain"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) mineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(cmd); err != nil {
				return err
			}
			list, err := c.app.dashboard.MyReports(cmd.Context())
			if err != nil {
				return err
			}
			printSightings(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func (c *cli) nearbyCommand() *cobra.Command {
	var lon, lat float64

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List sightings within 5 km of a point (default: device location)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.requireSession(cmd); err != nil {
				return err
			}

			center := domain.Coordinates{Lon: lon, Lat: lat}
			if !cmd.Flags().Changed("lon") {
				stack, err := c.app.newMapStack("")
				if err != nil {
					return err
				}
				center, _ = stack.screen.Resolver().Resolve(ctx)
			}

			list, err := c.app.dashboard.Nearby(ctx, center)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sightings near %s:\n", center)
			printSightings(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the center")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the center")
	cmd.MarkFlagsRequiredTogether("lon", "lat")

	return cmd
}

func (c *cli) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show global sighting statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(cmd); err != nil {
				return err
			}
			st, err := c.app.dashboard.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total reports: %d\n", st.TotalReports)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "AREA\tREPORTS")
			for _, a := range st.TopAreas {
				fmt.Fprintf(tw, "%s\t%d\n", a.Area, a.Count)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) leaderboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top reporters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(cmd); err != nil {
				return err
			}
			board, err := c.app.dashboard.Leaderboard(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tUSER\tRANK\tPOINTS\tREPORTS")
			for i, e := range board {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i+1, e.Username, e.Rank, e.Points, e.ReportsCount)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) achievementsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "Show your achievements and points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(cmd); err != nil {
				return err
			}
			sum, err := c.app.dashboard.Achievements(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			us := sum.UserStats
			fmt.Fprintf(out, "Rank %s, %d points, %d reports, %d/%d achievements\n",
				us.Rank, us.Points, us.ReportsCount, sum.Earned(), len(sum.Achievements))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tNAME\tPOINTS\tEARNED")
			for _, a := range sum.Achievements {
				earned := "-"
				if a.EarnedAt != nil {
					earned = a.EarnedAt.Local().Format("2006-01-02")
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", a.Icon, a.Name, a.Points, earned)
			}
			return tw.Flush()
		},
	}
}

func printSightings(w io.Writer, list []domain.Sighting) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No sightings.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLON\tLAT\tREPORTED\tDESCRIPTION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%.5f\t%.5f\t%s\t%s\n", s.ID, s.Coordinates.Lon, s.Coordinates.Lat,
			s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Description)
	}
	_ = tw.Flush()
}
