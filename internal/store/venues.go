package store

import (
	"database/sql"
	"fmt"

	"github.com/scislab/pubgraph/internal/bibtex"
)

// Venue is one row of the venues table. Venues are unique by the normalized
// (name, type) pair, so a journal and a conference sharing a name stay
// distinct.
type Venue struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	NormalizedName      string `json:"normalized_name"`
	Type                string `json:"venue_type"`
	TotalPublications   int    `json:"total_publications"`
	FacultyPublications int    `json:"faculty_publications"`
}

// UpsertVenue finds or creates a venue by normalized (name, type) and
// returns whether a new row was created. Counters are incremented separately
// by AddVenuePublication.
func (t *Tx) UpsertVenue(name, venueType string) (Venue, bool, error) {
	normalized := bibtex.NormalizeText(name)

	var v Venue
	err := t.tx.QueryRow(`
		SELECT id, name, normalized_name, venue_type, total_publications, faculty_publications
		FROM venues WHERE normalized_name = ? AND venue_type = ?`, normalized, venueType).
		Scan(&v.ID, &v.Name, &v.NormalizedName, &v.Type, &v.TotalPublications, &v.FacultyPublications)
	if err == nil {
		return v, false, nil
	}
	if err != sql.ErrNoRows {
		return Venue{}, false, fmt.Errorf("querying venue %q: %w", name, err)
	}

	res, err := t.tx.Exec(`
		INSERT INTO venues (name, normalized_name, venue_type) VALUES (?, ?, ?)`,
		name, normalized, venueType)
	if err != nil {
		return Venue{}, false, fmt.Errorf("inserting venue %q: %w", name, err)
	}

	v = Venue{Name: name, NormalizedName: normalized, Type: venueType}
	v.ID, err = res.LastInsertId()
	if err != nil {
		return Venue{}, false, err
	}
	return v, true, nil
}

// AddVenuePublication increments a venue's running totals for one newly
// ingested publication.
func (t *Tx) AddVenuePublication(venueID int64, facultyAuthored bool) error {
	faculty := 0
	if facultyAuthored {
		faculty = 1
	}
	_, err := t.tx.Exec(`
		UPDATE venues SET
			total_publications = total_publications + 1,
			faculty_publications = faculty_publications + ?
		WHERE id = ?`, faculty, venueID)
	if err != nil {
		return fmt.Errorf("updating venue %d counters: %w", venueID, err)
	}
	return nil
}

// GetVenue retrieves a venue by normalized (name, type) outside a
// transaction. Returns nil when no venue matches.
func (s *Store) GetVenue(name, venueType string) (*Venue, error) {
	normalized := bibtex.NormalizeText(name)

	var v Venue
	err := s.db.QueryRow(`
		SELECT id, name, normalized_name, venue_type, total_publications, faculty_publications
		FROM venues WHERE normalized_name = ? AND venue_type = ?`, normalized, venueType).
		Scan(&v.ID, &v.Name, &v.NormalizedName, &v.Type, &v.TotalPublications, &v.FacultyPublications)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying venue %q: %w", name, err)
	}
	return &v, nil
}
