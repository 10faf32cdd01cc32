package store

import (
	"database/sql"
	"fmt"

	"github.com/scislab/pubgraph/internal/roster"
)

// Author is one row of the authors table.
type Author struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	PID            string `json:"pid,omitempty"`
	IsFaculty      bool   `json:"is_faculty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Designation    string `json:"designation,omitempty"`
	Department     string `json:"department,omitempty"`
	HIndex         int    `json:"h_index,omitempty"`

	TotalPublications   int `json:"total_publications"`
	TotalCollaborations int `json:"total_collaborations"`
}

const selectAuthorFields = `id, name, normalized_name, pid, is_faculty,
	email, phone, designation, department, h_index,
	total_publications, total_collaborations`

// UpsertAuthor finds or creates an author by normalized name and returns
// whether a new row was created. Faculty fields follow upgrade-only
// semantics: a matched resolution can set is_faculty and fill empty roster
// fields, but never overwrites previously-set values and is never applied to
// unmatched authors.
func (t *Tx) UpsertAuthor(name, normalized string, member *roster.Member) (Author, bool, error) {
	author, err := getAuthorByNormalizedName(t.tx, normalized)
	if err != nil {
		return Author{}, false, err
	}

	if author == nil {
		a := Author{Name: name, NormalizedName: normalized}
		if member != nil {
			applyRosterFields(&a, *member)
		}
		res, err := t.tx.Exec(`
			INSERT INTO authors (name, normalized_name, pid, is_faculty, email, phone, designation, department)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.Name, a.NormalizedName, nullable(a.PID), a.IsFaculty,
			nullable(a.Email), nullable(a.Phone), nullable(a.Designation), nullable(a.Department))
		if err != nil {
			return Author{}, false, fmt.Errorf("inserting author %q: %w", name, err)
		}
		a.ID, err = res.LastInsertId()
		if err != nil {
			return Author{}, false, err
		}
		return a, true, nil
	}

	if member != nil && upgradeRosterFields(author, *member) {
		_, err := t.tx.Exec(`
			UPDATE authors SET pid = ?, is_faculty = ?, email = ?, phone = ?, designation = ?, department = ?
			WHERE id = ?`,
			nullable(author.PID), author.IsFaculty, nullable(author.Email),
			nullable(author.Phone), nullable(author.Designation), nullable(author.Department),
			author.ID)
		if err != nil {
			return Author{}, false, fmt.Errorf("updating author %q: %w", name, err)
		}
	}

	return *author, false, nil
}

// applyRosterFields sets faculty metadata on a fresh author row.
func applyRosterFields(a *Author, m roster.Member) {
	a.IsFaculty = true
	a.PID = m.PID
	a.Email = m.Email
	a.Phone = m.Phone
	a.Designation = m.Designation
	a.Department = m.Department
}

// upgradeRosterFields fills empty faculty fields from the roster member and
// reports whether anything changed. Existing non-empty values win.
func upgradeRosterFields(a *Author, m roster.Member) bool {
	changed := false
	if !a.IsFaculty {
		a.IsFaculty = true
		changed = true
	}
	if a.PID == "" && m.PID != "" {
		a.PID = m.PID
		changed = true
	}
	if a.Email == "" && m.Email != "" {
		a.Email = m.Email
		changed = true
	}
	if a.Phone == "" && m.Phone != "" {
		a.Phone = m.Phone
		changed = true
	}
	if a.Designation == "" && m.Designation != "" {
		a.Designation = m.Designation
		changed = true
	}
	if a.Department == "" && m.Department != "" {
		a.Department = m.Department
		changed = true
	}
	return changed
}

// LinkAuthor records an author at a position in a publication's ordered
// author list. Re-linking the same pair is a no-op, so positions from the
// first ingestion win.
func (t *Tx) LinkAuthor(pubID, authorID int64, position int) error {
	_, err := t.tx.Exec(`
		INSERT OR IGNORE INTO publication_authors (publication_id, author_id, position)
		VALUES (?, ?, ?)`, pubID, authorID, position)
	if err != nil {
		return fmt.Errorf("linking author %d to publication %d: %w", authorID, pubID, err)
	}
	return nil
}

// RefreshAuthorTotals recomputes the derived publication and collaboration
// counters for an author from the association tables.
func (t *Tx) RefreshAuthorTotals(authorID int64) error {
	_, err := t.tx.Exec(`
		UPDATE authors SET
			total_publications = (SELECT COUNT(*) FROM publication_authors WHERE author_id = ?),
			total_collaborations = (SELECT COUNT(*) FROM collaborations WHERE author1_id = ? OR author2_id = ?)
		WHERE id = ?`, authorID, authorID, authorID, authorID)
	if err != nil {
		return fmt.Errorf("refreshing totals for author %d: %w", authorID, err)
	}
	return nil
}

// GetAuthorByNormalizedName retrieves an author outside a transaction.
// Returns nil when no author matches.
func (s *Store) GetAuthorByNormalizedName(normalized string) (*Author, error) {
	return getAuthorByNormalizedName(s.db, normalized)
}

type querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func getAuthorByNormalizedName(q querier, normalized string) (*Author, error) {
	row := q.QueryRow(`SELECT `+selectAuthorFields+` FROM authors WHERE normalized_name = ?`, normalized)
	return scanAuthor(row)
}

func scanAuthor(s scanner) (*Author, error) {
	var a Author
	var pid, email, phone, designation, department sql.NullString
	var hIndex sql.NullInt64

	err := s.Scan(&a.ID, &a.Name, &a.NormalizedName, &pid, &a.IsFaculty,
		&email, &phone, &designation, &department, &hIndex,
		&a.TotalPublications, &a.TotalCollaborations)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	a.PID = pid.String
	a.Email = email.String
	a.Phone = phone.String
	a.Designation = designation.String
	a.Department = department.String
	a.HIndex = int(hIndex.Int64)
	return &a, nil
}

// ListFacultyAuthors returns every author flagged as faculty.
func (s *Store) ListFacultyAuthors() ([]Author, error) {
	rows, err := s.db.Query(`SELECT ` + selectAuthorFields + ` FROM authors WHERE is_faculty = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing faculty authors: %w", err)
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
