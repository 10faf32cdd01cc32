// Package bibtex parses DBLP BibTeX exports into normalized publication records.
package bibtex

import (
	"strings"
	"unicode"
)

// Record represents one normalized bibliography entry.
type Record struct {
	// Key is the DBLP citation key, the sole deduplication key for
	// publications. Entries without one are rejected at parse time.
	Key string `json:"key"`
	DOI string `json:"doi,omitempty"`

	Title           string `json:"title"`
	NormalizedTitle string `json:"normalized_title"`
	Type            string `json:"type"` // article, conference, book, ...
	Year            int    `json:"year,omitempty"`

	// Venue is the journal or booktitle with line-continuation whitespace
	// collapsed. VenueType is "journal", "conference", or "" when the entry
	// names no venue.
	Venue     string `json:"venue,omitempty"`
	VenueType string `json:"venue_type,omitempty"`

	Authors []string `json:"authors"`
	Editors []string `json:"editors,omitempty"`

	// Auxiliary fields, not load-bearing for identity.
	Volume    string `json:"volume,omitempty"`
	Number    string `json:"number,omitempty"`
	Pages     string `json:"pages,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	URL       string `json:"url,omitempty"`

	// SourcePIDs holds the roster PID of every faculty member whose export
	// contributed this record. Populated by Index, never by the file parser.
	SourcePIDs []string `json:"source_pids,omitempty"`
}

// VenueTypeJournal and VenueTypeConference classify where a record appeared.
const (
	VenueTypeJournal    = "journal"
	VenueTypeConference = "conference"
)

// entryTypes maps BibTeX entry types to publication types.
var entryTypes = map[string]string{
	"article":       "article",
	"inproceedings": "conference",
	"proceedings":   "proceedings",
	"book":          "book",
	"incollection":  "book_chapter",
	"phdthesis":     "thesis",
	"mastersthesis": "thesis",
	"techreport":    "technical_report",
	"misc":          "misc",
}

// PublicationType maps a BibTeX entry type to our publication type.
// Unrecognized types map to "unknown".
func PublicationType(entryType string) string {
	if t, ok := entryTypes[strings.ToLower(entryType)]; ok {
		return t
	}
	return "unknown"
}

// NormalizeText normalizes free text for comparison: whitespace collapsed,
// lowercased, everything but letters, digits and spaces removed.
func NormalizeText(text string) string {
	text = strings.ToLower(strings.Join(strings.Fields(text), " "))
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizeName normalizes a person name for matching: whitespace collapsed,
// lowercased, dots and commas removed. This is deliberately the only
// normalization applied before identity resolution; no titles or initials
// handling, so only exact name forms ever match.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.Join(strings.Fields(name), " "))
	name = strings.ReplaceAll(name, ".", "")
	name = strings.ReplaceAll(name, ",", "")
	return strings.TrimSpace(name)
}

// NormalizeDOI normalizes a DOI for comparison: resolver prefixes stripped,
// uppercased (DOIs are case-insensitive; DBLP exports use upper case).
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToUpper(doi)
}

// SplitAuthors splits a BibTeX author field into individual names.
// Names are separated by the word "and" (case-insensitive); line
// continuations inside the field are treated as spaces.
func SplitAuthors(field string) []string {
	field = strings.ReplaceAll(field, "\n", " ")
	var names []string
	for _, part := range splitOnAnd(field) {
		name := strings.Join(strings.Fields(part), " ")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// splitOnAnd splits on the standalone word "and" regardless of case.
func splitOnAnd(s string) []string {
	words := strings.Fields(s)
	var parts []string
	var current []string
	for _, w := range words {
		if strings.EqualFold(w, "and") {
			parts = append(parts, strings.Join(current, " "))
			current = current[:0]
			continue
		}
		current = append(current, w)
	}
	parts = append(parts, strings.Join(current, " "))
	return parts
}
