package dblp

import (
	"context"

	"github.com/scislab/pubgraph/internal/roster"
)

// LocalCounter reports how many stored publications carry a given source
// PID. Satisfied by the publication store.
type LocalCounter interface {
	CountPublicationsForPID(pid string) (int, error)
}

// Result is the verification outcome for one faculty member.
type Result struct {
	Name       string `json:"name"`
	PID        string `json:"pid"`
	LocalCount int    `json:"local_count"`
	DBLPCount  int    `json:"dblp_count"`
	Match      bool   `json:"match"`
	Error      string `json:"error,omitempty"`
}

// Report aggregates verification results across the roster.
type Report struct {
	Results   []Result `json:"results"`
	Checked   int      `json:"checked"`
	Matched   int      `json:"matched"`
	Failed    int      `json:"failed"`
	MatchRate float64  `json:"match_rate"`
}

// Verify compares the stored publication count of every matched roster
// member against the live DBLP count. Per-member errors (unknown PID,
// network trouble) are recorded in that member's Result and never abort
// the run.
func Verify(ctx context.Context, c *Client, counter LocalCounter, m *roster.Mapping) (*Report, error) {
	report := &Report{}
	for _, member := range m.Members() {
		res := Result{Name: member.Name, PID: member.PID}

		local, err := counter.CountPublicationsForPID(member.PID)
		if err != nil {
			return nil, err
		}
		res.LocalCount = local

		remote, err := c.PublicationCount(ctx, member.PID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Error = err.Error()
			report.Failed++
			report.Results = append(report.Results, res)
			continue
		}
		res.DBLPCount = remote
		res.Match = local == remote
		report.Checked++
		if res.Match {
			report.Matched++
		}
		report.Results = append(report.Results, res)
	}
	if report.Checked > 0 {
		report.MatchRate = float64(report.Matched) / float64(report.Checked)
	}
	return report, nil
}
