package store

import (
	"database/sql"
	"fmt"
)

// Collaboration is a co-authorship edge between two authors, keyed by the
// unordered pair (stored with author1_id < author2_id). The count equals the
// number of distinct publications both authors appear on.
type Collaboration struct {
	Author1ID int64 `json:"author1_id"`
	Author2ID int64 `json:"author2_id"`
	Count     int   `json:"collaboration_count"`
	FirstYear int   `json:"first_year,omitempty"`
	LastYear  int   `json:"last_year,omitempty"`
}

// RecordCollaboration counts one publication for an author pair and returns
// whether the edge counter was incremented. The guard table keyed by
// (pair, publication) ensures a publication is never counted twice for the
// same pair, no matter how often ingestion re-runs.
func (t *Tx) RecordCollaboration(author1, author2, pubID int64, year int) (bool, error) {
	if author1 == author2 {
		return false, nil
	}
	if author1 > author2 {
		author1, author2 = author2, author1
	}

	res, err := t.tx.Exec(`
		INSERT OR IGNORE INTO collaboration_publications (author1_id, author2_id, publication_id)
		VALUES (?, ?, ?)`, author1, author2, pubID)
	if err != nil {
		return false, fmt.Errorf("guarding collaboration (%d,%d) pub %d: %w", author1, author2, pubID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Publication already counted for this pair.
		return false, nil
	}

	_, err = t.tx.Exec(`
		INSERT INTO collaborations (author1_id, author2_id, collaboration_count, first_year, last_year)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (author1_id, author2_id) DO UPDATE SET
			collaboration_count = collaboration_count + 1,
			first_year = CASE
				WHEN excluded.first_year IS NOT NULL AND (first_year IS NULL OR excluded.first_year < first_year)
				THEN excluded.first_year ELSE first_year END,
			last_year = CASE
				WHEN excluded.last_year IS NOT NULL AND (last_year IS NULL OR excluded.last_year > last_year)
				THEN excluded.last_year ELSE last_year END`,
		author1, author2, nullableInt(year), nullableInt(year))
	if err != nil {
		return false, fmt.Errorf("recording collaboration (%d,%d): %w", author1, author2, err)
	}
	return true, nil
}

// GetCollaboration retrieves the edge for an unordered author pair.
// Returns nil when the pair has never collaborated.
func (s *Store) GetCollaboration(author1, author2 int64) (*Collaboration, error) {
	if author1 > author2 {
		author1, author2 = author2, author1
	}

	var c Collaboration
	var first, last sql.NullInt64
	err := s.db.QueryRow(`
		SELECT author1_id, author2_id, collaboration_count, first_year, last_year
		FROM collaborations WHERE author1_id = ? AND author2_id = ?`, author1, author2).
		Scan(&c.Author1ID, &c.Author2ID, &c.Count, &first, &last)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying collaboration (%d,%d): %w", author1, author2, err)
	}
	c.FirstYear = int(first.Int64)
	c.LastYear = int(last.Int64)
	return &c, nil
}
