package dblp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scislab/pubgraph/internal/roster"
)

// FetchResult records the download outcome for one faculty member.
type FetchResult struct {
	Name  string `json:"name"`
	PID   string `json:"pid"`
	File  string `json:"file,omitempty"`
	Bytes int    `json:"bytes,omitempty"`
	Error string `json:"error,omitempty"`
}

// FetchAll downloads the .bib export of every matched roster member into
// dir, named after the sanitized PID so ingestion can recover the PID
// from the filename. Per-member failures are recorded and skipped.
func FetchAll(ctx context.Context, c *Client, m *roster.Mapping, dir string) ([]FetchResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var results []FetchResult
	for _, member := range m.Members() {
		res := FetchResult{Name: member.Name, PID: member.PID}

		data, err := c.FetchBib(ctx, member.PID)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		name := roster.FileForPID(member.PID)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.File = name
		res.Bytes = len(data)
		results = append(results, res)
	}
	return results, nil
}
