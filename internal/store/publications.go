package store

import (
	"database/sql"
	"fmt"

	"github.com/scislab/pubgraph/internal/bibtex"
)

// Publication is one row of the publications table plus its source-PID set.
type Publication struct {
	ID               int64    `json:"id"`
	Key              string   `json:"dblp_key"`
	DOI              string   `json:"doi,omitempty"`
	Title            string   `json:"title"`
	NormalizedTitle  string   `json:"normalized_title,omitempty"`
	Type             string   `json:"pub_type,omitempty"`
	Year             int      `json:"year,omitempty"`
	VenueID          int64    `json:"venue_id,omitempty"`
	Volume           string   `json:"volume,omitempty"`
	Number           string   `json:"number,omitempty"`
	Pages            string   `json:"pages,omitempty"`
	Publisher        string   `json:"publisher,omitempty"`
	URL              string   `json:"url,omitempty"`
	HasFacultyAuthor bool     `json:"has_faculty_author"`
	SourcePIDs       []string `json:"source_pids,omitempty"`
}

const selectPublicationFields = `id, dblp_key, doi, title, normalized_title,
	pub_type, year, venue_id, volume, number, pages, publisher, url,
	has_faculty_author`

// GetPublicationByKey retrieves a publication by its DBLP key, with the
// source-PID set hydrated. Returns nil when the key is unknown.
func (t *Tx) GetPublicationByKey(key string) (*Publication, error) {
	row := t.tx.QueryRow(`SELECT `+selectPublicationFields+` FROM publications WHERE dblp_key = ?`, key)
	pub, err := scanPublication(row)
	if err != nil || pub == nil {
		return pub, err
	}
	pub.SourcePIDs, err = sourcePIDs(t.tx, pub.ID)
	return pub, err
}

// InsertPublication inserts a new publication row from a parsed record and
// returns its id. The source-PID set and author links are written
// separately.
func (t *Tx) InsertPublication(rec bibtex.Record, venueID int64, hasFaculty bool) (int64, error) {
	var venue sql.NullInt64
	if venueID != 0 {
		venue = sql.NullInt64{Int64: venueID, Valid: true}
	}

	res, err := t.tx.Exec(`
		INSERT INTO publications (dblp_key, doi, title, normalized_title, pub_type, year,
			venue_id, volume, number, pages, publisher, url, has_faculty_author)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Key, nullable(rec.DOI), rec.Title, nullable(rec.NormalizedTitle),
		nullable(rec.Type), nullableInt(rec.Year), venue,
		nullable(rec.Volume), nullable(rec.Number), nullable(rec.Pages),
		nullable(rec.Publisher), nullable(rec.URL), hasFaculty)
	if err != nil {
		return 0, fmt.Errorf("inserting publication %q: %w", rec.Key, err)
	}
	return res.LastInsertId()
}

// AddPublicationSource adds a PID to a publication's source set, reporting
// whether the set grew. The set never shrinks and never holds duplicates.
func (t *Tx) AddPublicationSource(pubID int64, pid string) (bool, error) {
	res, err := t.tx.Exec(`
		INSERT OR IGNORE INTO publication_sources (publication_id, pid)
		VALUES (?, ?)`, pubID, pid)
	if err != nil {
		return false, fmt.Errorf("adding source %q to publication %d: %w", pid, pubID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetHasFacultyAuthor updates the derived faculty flag.
func (t *Tx) SetHasFacultyAuthor(pubID int64, hasFaculty bool) error {
	_, err := t.tx.Exec(`UPDATE publications SET has_faculty_author = ? WHERE id = ?`, hasFaculty, pubID)
	if err != nil {
		return fmt.Errorf("updating faculty flag for publication %d: %w", pubID, err)
	}
	return nil
}

// GetPublicationByKey retrieves a publication outside a transaction.
func (s *Store) GetPublicationByKey(key string) (*Publication, error) {
	row := s.db.QueryRow(`SELECT `+selectPublicationFields+` FROM publications WHERE dblp_key = ?`, key)
	pub, err := scanPublication(row)
	if err != nil || pub == nil {
		return pub, err
	}
	pub.SourcePIDs, err = sourcePIDs(s.db, pub.ID)
	return pub, err
}

// PublicationAuthors returns the ordered author names of a publication.
func (s *Store) PublicationAuthors(pubID int64) ([]Author, error) {
	rows, err := s.db.Query(`
		SELECT `+prefixFields("a.", selectAuthorFields)+`
		FROM authors a
		JOIN publication_authors pa ON pa.author_id = a.id
		WHERE pa.publication_id = ?
		ORDER BY pa.position`, pubID)
	if err != nil {
		return nil, fmt.Errorf("querying publication authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		authors = append(authors, *a)
	}
	return authors, rows.Err()
}

// CountPublicationsForPID counts publications whose source set contains the
// PID. This is the number the verification tool compares against DBLP.
func (s *Store) CountPublicationsForPID(pid string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM publication_sources WHERE pid = ?`, pid).Scan(&count)
	return count, err
}

type execQuerier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func sourcePIDs(q execQuerier, pubID int64) ([]string, error) {
	rows, err := q.Query(`SELECT pid FROM publication_sources WHERE publication_id = ? ORDER BY pid`, pubID)
	if err != nil {
		return nil, fmt.Errorf("querying source PIDs: %w", err)
	}
	defer rows.Close()

	var pids []string
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		pids = append(pids, pid)
	}
	return pids, rows.Err()
}

func scanPublication(s scanner) (*Publication, error) {
	var p Publication
	var doi, normTitle, pubType, volume, number, pages, publisher, url sql.NullString
	var year, venueID sql.NullInt64

	err := s.Scan(&p.ID, &p.Key, &doi, &p.Title, &normTitle,
		&pubType, &year, &venueID, &volume, &number, &pages, &publisher, &url,
		&p.HasFacultyAuthor)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	p.DOI = doi.String
	p.NormalizedTitle = normTitle.String
	p.Type = pubType.String
	p.Year = int(year.Int64)
	p.VenueID = venueID.Int64
	p.Volume = volume.String
	p.Number = number.String
	p.Pages = pages.String
	p.Publisher = publisher.String
	p.URL = url.String
	return &p, nil
}
