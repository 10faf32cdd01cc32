// Package resolve decides whether a publication author is a tracked faculty
// member.
//
// Matching is exact on the normalized name form (whitespace collapsed,
// lowercased, dots and commas removed) against the roster members named by
// the publication's source PID set. A name that is merely a variant of a
// roster name ("Satish Srirama" vs. roster "Satish Narayana Srirama") never
// matches; such authors stay ordinary collaborators. This keeps roster
// metadata off co-authors who happen to share a paper with a faculty member.
package resolve

import (
	"github.com/scislab/pubgraph/internal/bibtex"
	"github.com/scislab/pubgraph/internal/roster"
)

// Match is the resolution outcome for one author name on one publication.
type Match struct {
	Name      string
	IsFaculty bool
	Member    roster.Member // valid only when IsFaculty
}

// Author resolves a single author name against the roster members identified
// by the publication's source PIDs. Returns the matched member and true on an
// exact normalized-name match, or false when the author is an ordinary
// collaborator. Never fails: an unmatched name is the expected negative
// outcome, not an error.
func Author(name string, sourcePIDs []string, m *roster.Mapping) (roster.Member, bool) {
	normalized := bibtex.NormalizeName(name)
	if normalized == "" {
		return roster.Member{}, false
	}

	for _, pid := range sourcePIDs {
		member, ok := m.ByPID(pid)
		if !ok {
			continue
		}
		if bibtex.NormalizeName(member.Name) == normalized {
			return member, true
		}
	}
	return roster.Member{}, false
}

// Authors resolves every author on a publication, preserving order.
func Authors(names, sourcePIDs []string, m *roster.Mapping) []Match {
	matches := make([]Match, len(names))
	for i, name := range names {
		member, ok := Author(name, sourcePIDs, m)
		matches[i] = Match{Name: name, IsFaculty: ok, Member: member}
	}
	return matches
}
