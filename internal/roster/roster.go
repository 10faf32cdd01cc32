// Package roster loads the canonical mapping of tracked faculty members.
package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/scislab/pubgraph/internal/bibtex"
)

// Member is one tracked faculty member from the roster file.
type Member struct {
	Name        string `json:"faculty_name"`
	PID         string `json:"dblp_pid"`
	Matched     bool   `json:"dblp_matched"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Designation string `json:"designation,omitempty"`
	Department  string `json:"department,omitempty"`
}

// Mapping is an immutable lookup over the roster, built once per run and
// passed explicitly to the resolver and the verification tool.
type Mapping struct {
	byPID  map[string]Member
	byName map[string]Member // keyed by normalized name
	order  []string          // PIDs in roster order
}

// Load reads the roster JSON file and builds the lookup mapping.
// Members without a DBLP match are skipped: they have no source file and no
// PID to resolve against.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var members []Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}

	m := &Mapping{
		byPID:  make(map[string]Member),
		byName: make(map[string]Member),
	}
	for _, member := range members {
		if !member.Matched || member.PID == "" {
			continue
		}
		if _, dup := m.byPID[member.PID]; dup {
			continue
		}
		m.byPID[member.PID] = member
		m.byName[bibtex.NormalizeName(member.Name)] = member
		m.order = append(m.order, member.PID)
	}

	return m, nil
}

// ByPID returns the member with the given DBLP PID.
func (m *Mapping) ByPID(pid string) (Member, bool) {
	member, ok := m.byPID[pid]
	return member, ok
}

// ByNormalizedName returns the member whose normalized roster name equals
// the given normalized name.
func (m *Mapping) ByNormalizedName(normalized string) (Member, bool) {
	member, ok := m.byName[normalized]
	return member, ok
}

// Len returns the number of matched members.
func (m *Mapping) Len() int {
	return len(m.order)
}

// Members returns all matched members in roster order.
func (m *Mapping) Members() []Member {
	members := make([]Member, 0, len(m.order))
	for _, pid := range m.order {
		members = append(members, m.byPID[pid])
	}
	return members
}

// FileForPID returns the source file name for a PID: non-alphanumeric
// separators become underscores, so "94/4013" maps to "94_4013.bib".
func FileForPID(pid string) string {
	return SanitizePID(pid) + ".bib"
}

// SanitizePID makes a PID safe for use in file names.
func SanitizePID(pid string) string {
	return strings.ReplaceAll(pid, "/", "_")
}

// PIDFromFilename recovers the source PID from a .bib file name, undoing
// SanitizePID and stripping the suffixes the fetcher may append: an
// alphabetic faculty-name hint ("01_1744-1_alok.bib") or a single-digit
// duplicate marker ("12_345_1.bib"). Only the first underscore becomes a
// slash, matching DBLP's two-segment PIDs.
func PIDFromFilename(name string) string {
	base := strings.TrimSuffix(name, ".bib")
	parts := strings.Split(base, "_")

	if len(parts) >= 3 && isAlpha(strings.ReplaceAll(parts[len(parts)-1], "-", "")) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if len(last) == 1 && last[0] >= '0' && last[0] <= '9' {
			parts = parts[:len(parts)-1]
		}
	}

	return strings.Replace(strings.Join(parts, "_"), "_", "/", 1)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
