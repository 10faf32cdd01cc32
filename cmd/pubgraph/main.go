// Package main provides the pubgraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/scislab/pubgraph/internal/config"
	"github.com/scislab/pubgraph/internal/roster"
	"github.com/scislab/pubgraph/internal/store"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath is the config file read before every command.
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubgraph",
	Short: "Faculty publication graph from DBLP exports",
	Long: `pubgraph builds a publication graph for a faculty roster.

Core features:
  - Fetch per-faculty BibTeX exports from DBLP
  - Ingest .bib files into a SQLite graph of publications, authors,
    venues, and collaboration edges
  - Verify stored counts against live DBLP person records
  - Summary statistics over the stored graph

Shared papers are stored once, attributed to every faculty source file
that listed them. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "Path to the config file")
	rootCmd.Version = Version
}

// mustLoadConfig loads the config file, exiting on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenStore opens the publication database, exiting on error.
func mustOpenStore(cfg *config.Config) *store.Store {
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		exitWithError(ExitError, "opening database %s: %v", cfg.DBPath, err)
	}
	return s
}

// mustLoadRoster loads the faculty roster, exiting on error.
func mustLoadRoster(cfg *config.Config) *roster.Mapping {
	m, err := roster.Load(cfg.RosterPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading roster %s: %v", cfg.RosterPath, err)
	}
	if m.Len() == 0 {
		exitWithError(ExitDataError, "roster %s has no DBLP-matched members", cfg.RosterPath)
	}
	return m
}
