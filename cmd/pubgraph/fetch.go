package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/scislab/pubgraph/internal/dblp"
	"github.com/spf13/cobra"
)

var fetchDir string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download per-faculty BibTeX exports from DBLP",
	Long: `Download the .bib export of every DBLP-matched roster member.

Files are written to the source directory named after the sanitized PID
("94/4013" becomes "94_4013.bib") so a later ingest can recover each
file's source PID. Requests are rate limited to stay polite to DBLP.

Examples:
  pubgraph fetch
  pubgraph fetch --dir ./dblp_bib`,
	Run: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "", "Output directory (default from config)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	cfg := mustLoadConfig()
	if fetchDir == "" {
		fetchDir = cfg.BibDir
	}
	mapping := mustLoadRoster(cfg)

	client := dblp.NewClient(dblp.WithBaseURL(cfg.DBLPBaseURL))
	results, err := dblp.FetchAll(context.Background(), client, mapping, fetchDir)
	if err != nil {
		exitWithError(ExitNetworkError, "fetching from DBLP: %v", err)
	}

	if humanOutput {
		for _, r := range results {
			if r.Error != "" {
				outputHuman("FAIL  %-30s %s\n", r.Name, r.Error)
				continue
			}
			outputHuman("OK    %-30s %s (%d bytes)\n", r.Name, r.File, r.Bytes)
		}
		return
	}
	outputJSON(results)
}
