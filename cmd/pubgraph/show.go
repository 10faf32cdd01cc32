package main

import (
	"strings"

	"github.com/scislab/pubgraph/internal/store"
	"github.com/spf13/cobra"
)

// ShowResponse is the JSON shape of the show command.
type ShowResponse struct {
	Publication *store.Publication `json:"publication"`
	Authors     []store.Author     `json:"authors"`
}

var showCmd = &cobra.Command{
	Use:   "show <dblp-key>",
	Short: "Show a stored publication with its ordered author list",
	Long: `Show one publication by its DBLP citation key.

Examples:
  pubgraph show DBLP:journals/fgcs/SriramaS21
  pubgraph show DBLP:conf/ccgrid/Srirama20 --human`,
	Args: cobra.ExactArgs(1),
	Run:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	s := mustOpenStore(cfg)
	defer s.Close()

	pub, err := s.GetPublicationByKey(args[0])
	if err != nil {
		exitWithError(ExitError, "reading publication: %v", err)
	}
	if pub == nil {
		exitWithError(ExitDataError, "no publication with key %q", args[0])
	}

	authors, err := s.PublicationAuthors(pub.ID)
	if err != nil {
		exitWithError(ExitError, "reading authors: %v", err)
	}

	if humanOutput {
		printShowHuman(pub, authors)
		return
	}
	outputJSON(ShowResponse{Publication: pub, Authors: authors})
}

func printShowHuman(pub *store.Publication, authors []store.Author) {
	outputHuman("%s\n", pub.Title)
	outputHuman("  key:     %s\n", pub.Key)
	if pub.DOI != "" {
		outputHuman("  doi:     %s\n", pub.DOI)
	}
	if pub.Year != 0 {
		outputHuman("  year:    %d\n", pub.Year)
	}
	if pub.Type != "" {
		outputHuman("  type:    %s\n", pub.Type)
	}
	if len(pub.SourcePIDs) > 0 {
		outputHuman("  sources: %s\n", strings.Join(pub.SourcePIDs, ", "))
	}
	for _, a := range authors {
		marker := " "
		if a.IsFaculty {
			marker = "*"
		}
		outputHuman("  %s %s\n", marker, a.Name)
	}
}
