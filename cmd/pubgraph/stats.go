package main

import (
	"github.com/scislab/pubgraph/internal/store"
	"github.com/spf13/cobra"
)

var statsTopVenues int

// StatsResponse is the JSON shape of the stats command.
type StatsResponse struct {
	Counts store.Counts       `json:"counts"`
	ByType []store.GroupCount `json:"by_type"`
	ByYear []store.GroupCount `json:"by_year"`
	Venues []store.GroupCount `json:"top_venues"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summary statistics over the publication database",
	Run:   runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsTopVenues, "top-venues", 10, "How many venues to list")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	s := mustOpenStore(cfg)
	defer s.Close()

	resp := StatsResponse{}
	var err error
	if resp.Counts, err = s.Counts(); err != nil {
		exitWithError(ExitError, "reading counts: %v", err)
	}
	if resp.ByType, err = s.PublicationsByType(); err != nil {
		exitWithError(ExitError, "grouping by type: %v", err)
	}
	if resp.ByYear, err = s.PublicationsByYear(); err != nil {
		exitWithError(ExitError, "grouping by year: %v", err)
	}
	if resp.Venues, err = s.TopVenues(statsTopVenues); err != nil {
		exitWithError(ExitError, "listing venues: %v", err)
	}

	if humanOutput {
		printStatsHuman(resp)
		return
	}
	outputJSON(resp)
}

func printStatsHuman(resp StatsResponse) {
	c := resp.Counts
	outputHuman("Publications:   %d\n", c.Publications)
	outputHuman("Authors:        %d (%d faculty)\n", c.Authors, c.FacultyAuthors)
	outputHuman("Venues:         %d\n", c.Venues)
	outputHuman("Collaborations: %d\n", c.Collaborations)

	if len(resp.ByType) > 0 {
		outputHuman("\nBy type:\n")
		for _, g := range resp.ByType {
			outputHuman("  %-12s %d\n", g.Key, g.Count)
		}
	}
	if len(resp.ByYear) > 0 {
		outputHuman("\nBy year:\n")
		for _, g := range resp.ByYear {
			outputHuman("  %s  %d\n", g.Key, g.Count)
		}
	}
	if len(resp.Venues) > 0 {
		outputHuman("\nTop venues:\n")
		for _, g := range resp.Venues {
			outputHuman("  %-50s %d\n", g.Key, g.Count)
		}
	}
}
