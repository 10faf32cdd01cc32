package store

import "fmt"

// Counts are the store-wide entity totals.
type Counts struct {
	Publications   int `json:"publications"`
	Authors        int `json:"authors"`
	FacultyAuthors int `json:"faculty_authors"`
	Venues         int `json:"venues"`
	Collaborations int `json:"collaborations"`
}

// Counts returns the entity totals across the whole store.
func (s *Store) Counts() (Counts, error) {
	var c Counts
	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM publications", &c.Publications},
		{"SELECT COUNT(*) FROM authors", &c.Authors},
		{"SELECT COUNT(*) FROM authors WHERE is_faculty = 1", &c.FacultyAuthors},
		{"SELECT COUNT(*) FROM venues", &c.Venues},
		{"SELECT COUNT(*) FROM collaborations", &c.Collaborations},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.sql).Scan(q.dest); err != nil {
			return Counts{}, fmt.Errorf("counting: %w", err)
		}
	}
	return c, nil
}

// GroupCount is one bucket of a grouped count query.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// PublicationsByType returns publication counts grouped by publication type,
// most frequent first.
func (s *Store) PublicationsByType() ([]GroupCount, error) {
	return s.groupCount(`
		SELECT COALESCE(pub_type, 'unknown'), COUNT(*)
		FROM publications GROUP BY pub_type ORDER BY COUNT(*) DESC`)
}

// PublicationsByYear returns publication counts grouped by year, newest
// first. Publications without a year are omitted.
func (s *Store) PublicationsByYear() ([]GroupCount, error) {
	return s.groupCount(`
		SELECT CAST(year AS TEXT), COUNT(*)
		FROM publications WHERE year IS NOT NULL
		GROUP BY year ORDER BY year DESC`)
}

// TopVenues returns the venues with the most publications.
func (s *Store) TopVenues(limit int) ([]GroupCount, error) {
	return s.groupCount(`
		SELECT name, total_publications FROM venues
		ORDER BY total_publications DESC, name LIMIT ?`, limit)
}

func (s *Store) groupCount(query string, args ...interface{}) ([]GroupCount, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("grouped count: %w", err)
	}
	defer rows.Close()

	var groups []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
