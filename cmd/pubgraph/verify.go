package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/scislab/pubgraph/internal/dblp"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare stored publication counts against live DBLP records",
	Long: `Verify the database against DBLP, one request per faculty member.

For each DBLP-matched roster member the stored publication count (papers
whose source set includes the member's PID) is compared with the number
of records on the member's live DBLP page. Network failures are reported
per member and never abort the run.

Examples:
  pubgraph verify
  pubgraph verify --human`,
	Run: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) {
	// Load .env if present (for PUBGRAPH_DBLP_URL overrides)
	_ = godotenv.Load()

	cfg := mustLoadConfig()
	mapping := mustLoadRoster(cfg)
	s := mustOpenStore(cfg)
	defer s.Close()

	client := dblp.NewClient(dblp.WithBaseURL(cfg.DBLPBaseURL))
	report, err := dblp.Verify(context.Background(), client, s, mapping)
	if err != nil {
		exitWithError(ExitNetworkError, "verifying against DBLP: %v", err)
	}

	if humanOutput {
		printVerifyHuman(report)
		return
	}
	outputJSON(report)
}

func printVerifyHuman(report *dblp.Report) {
	for _, r := range report.Results {
		switch {
		case r.Error != "":
			outputHuman("FAIL  %-30s %s\n", r.Name, r.Error)
		case r.Match:
			outputHuman("OK    %-30s local=%d dblp=%d\n", r.Name, r.LocalCount, r.DBLPCount)
		default:
			outputHuman("DIFF  %-30s local=%d dblp=%d\n", r.Name, r.LocalCount, r.DBLPCount)
		}
	}
	outputHuman("\n%d checked, %d matched (%.0f%%), %d failed\n",
		report.Checked, report.Matched, report.MatchRate*100, report.Failed)
}
