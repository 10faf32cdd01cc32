// Package ingest loads BibTeX exports into the publication store.
//
// Each .bib file in the source directory is attributed to the faculty
// member whose DBLP PID the filename encodes. Records that share a DBLP
// key across files are merged into a single publication whose source-PID
// set is the union of every file that listed it, so shared papers are
// stored once and never double-counted.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/scislab/pubgraph/internal/bibtex"
	"github.com/scislab/pubgraph/internal/resolve"
	"github.com/scislab/pubgraph/internal/roster"
	"github.com/scislab/pubgraph/internal/store"
)

// DefaultBatchSize is the number of publications written per transaction.
const DefaultBatchSize = 100

// Stats summarizes one ingestion run.
type Stats struct {
	Files                int      `json:"files"`
	RecordsParsed        int      `json:"records_parsed"`
	PublicationsAdded    int      `json:"publications_added"`
	PublicationsMerged   int      `json:"publications_merged"`
	PublicationsSkipped  int      `json:"publications_skipped"`
	AuthorsCreated       int      `json:"authors_created"`
	FacultyMatched       int      `json:"faculty_matched"`
	VenuesCreated        int      `json:"venues_created"`
	CollaborationsAdded  int      `json:"collaborations_added"`
	Errors               []string `json:"errors,omitempty"`
}

// Service ingests BibTeX records into a store using a faculty roster for
// identity resolution.
type Service struct {
	store     *store.Store
	roster    *roster.Mapping
	batchSize int
}

// New returns an ingestion service. A batchSize of zero or less selects
// DefaultBatchSize.
func New(s *store.Store, m *roster.Mapping, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{store: s, roster: m, batchSize: batchSize}
}

// IngestDir parses every .bib file under dir and writes the merged
// publication graph to the store. Files are processed in name order so
// runs are deterministic. Parse failures and rejected entries are
// collected in Stats.Errors; only setup failures (unreadable directory,
// broken store) abort the run.
func (s *Service) IngestDir(dir string) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".bib" {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	stats := &Stats{}
	index := bibtex.NewIndex()
	for _, name := range files {
		pid := roster.PIDFromFilename(name)
		if pid == "" {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: cannot derive a DBLP PID from filename", name))
			continue
		}
		stats.Files++

		records, parseErrs, err := bibtex.ParseFile(filepath.Join(dir, name))
		if err != nil {
			stats.Errors = append(stats.Errors, err.Error())
			continue
		}
		for _, perr := range parseErrs {
			stats.Errors = append(stats.Errors, perr.Error())
		}
		stats.RecordsParsed += len(records)
		for _, rec := range records {
			index.Add(rec, pid)
		}
	}

	if err := s.ingestRecords(index.Records(), stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// IngestFile ingests a single .bib file attributed to the given PID.
func (s *Service) IngestFile(path, pid string) (*Stats, error) {
	stats := &Stats{Files: 1}
	records, parseErrs, err := bibtex.ParseFile(path)
	if err != nil {
		return nil, err
	}
	for _, perr := range parseErrs {
		stats.Errors = append(stats.Errors, perr.Error())
	}
	stats.RecordsParsed = len(records)

	index := bibtex.NewIndex()
	for _, rec := range records {
		index.Add(rec, pid)
	}
	if err := s.ingestRecords(index.Records(), stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// ingestRecords writes merged records in batches. Each batch is one
// transaction; a failing batch is rolled back, reported, and skipped so
// that a single bad batch does not abort the run. Re-running ingestion
// picks up anything a rolled-back batch lost.
func (s *Service) ingestRecords(records []bibtex.Record, stats *Stats) error {
	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.ingestBatch(records[start:end], stats); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("batch %d-%d rolled back: %v", start, end, err))
		}
	}
	return nil
}

func (s *Service) ingestBatch(records []bibtex.Record, stats *Stats) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	batch := *stats
	for _, rec := range records {
		if err := s.ingestRecord(tx, rec, &batch); err != nil {
			tx.Rollback()
			return fmt.Errorf("publication %q: %w", rec.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	*stats = batch
	return nil
}

// ingestRecord writes one merged record inside the batch transaction.
func (s *Service) ingestRecord(tx *store.Tx, rec bibtex.Record, stats *Stats) error {
	if rec.Title == "" || len(rec.Authors) == 0 {
		stats.PublicationsSkipped++
		stats.Errors = append(stats.Errors, fmt.Sprintf("%s: missing title or authors", rec.Key))
		return nil
	}

	existing, err := tx.GetPublicationByKey(rec.Key)
	if err != nil {
		return err
	}
	if existing != nil {
		return s.mergeSources(tx, existing, rec, stats)
	}
	return s.insertPublication(tx, rec, stats)
}

// insertPublication writes a publication seen for the first time, along
// with its venue, authors, source PIDs, and collaboration edges.
func (s *Service) insertPublication(tx *store.Tx, rec bibtex.Record, stats *Stats) error {
	var venueID int64
	if rec.Venue != "" {
		venue, created, err := tx.UpsertVenue(rec.Venue, rec.VenueType)
		if err != nil {
			return err
		}
		if created {
			stats.VenuesCreated++
		}
		venueID = venue.ID
	}

	matches := resolve.Authors(rec.Authors, rec.SourcePIDs, s.roster)
	hasFaculty := false
	authorIDs := make([]int64, 0, len(matches))
	for _, m := range matches {
		var member *roster.Member
		if m.IsFaculty {
			hasFaculty = true
			stats.FacultyMatched++
			mm := m.Member
			member = &mm
		}
		author, created, err := tx.UpsertAuthor(m.Name, bibtex.NormalizeName(m.Name), member)
		if err != nil {
			return err
		}
		if created {
			stats.AuthorsCreated++
		}
		authorIDs = append(authorIDs, author.ID)
	}

	pubID, err := tx.InsertPublication(rec, venueID, hasFaculty)
	if err != nil {
		return err
	}
	for _, pid := range rec.SourcePIDs {
		if _, err := tx.AddPublicationSource(pubID, pid); err != nil {
			return err
		}
	}
	for i, id := range authorIDs {
		if err := tx.LinkAuthor(pubID, id, i+1); err != nil {
			return err
		}
	}
	for i := 0; i < len(authorIDs); i++ {
		for j := i + 1; j < len(authorIDs); j++ {
			counted, err := tx.RecordCollaboration(authorIDs[i], authorIDs[j], pubID, rec.Year)
			if err != nil {
				return err
			}
			if counted {
				stats.CollaborationsAdded++
			}
		}
	}
	if venueID != 0 {
		if err := tx.AddVenuePublication(venueID, hasFaculty); err != nil {
			return err
		}
	}
	for _, id := range authorIDs {
		if err := tx.RefreshAuthorTotals(id); err != nil {
			return err
		}
	}

	stats.PublicationsAdded++
	return nil
}

// mergeSources handles a record whose publication is already stored:
// the source-PID set grows by union, and if a new source PID lets an
// author resolve to faculty the author record and faculty flag are
// upgraded. Nothing is ever removed or counted a second time.
func (s *Service) mergeSources(tx *store.Tx, existing *store.Publication, rec bibtex.Record, stats *Stats) error {
	grew := false
	for _, pid := range rec.SourcePIDs {
		added, err := tx.AddPublicationSource(existing.ID, pid)
		if err != nil {
			return err
		}
		if added {
			grew = true
		}
	}
	stats.PublicationsMerged++
	if !grew {
		return nil
	}

	pids := existing.SourcePIDs
	for _, pid := range rec.SourcePIDs {
		pids = appendUnique(pids, pid)
	}
	matches := resolve.Authors(rec.Authors, pids, s.roster)
	hasFaculty := existing.HasFacultyAuthor
	for i, m := range matches {
		if !m.IsFaculty {
			continue
		}
		hasFaculty = true
		mm := m.Member
		author, created, err := tx.UpsertAuthor(m.Name, bibtex.NormalizeName(m.Name), &mm)
		if err != nil {
			return err
		}
		if created {
			stats.AuthorsCreated++
		}
		stats.FacultyMatched++
		// DBLP lists the same authors for a key in every export, so the
		// author is normally linked already and this is a no-op. It only
		// writes when the new source's record names an author the first
		// one omitted.
		if err := tx.LinkAuthor(existing.ID, author.ID, i+1); err != nil {
			return err
		}
		if err := tx.RefreshAuthorTotals(author.ID); err != nil {
			return err
		}
	}
	if hasFaculty != existing.HasFacultyAuthor {
		if err := tx.SetHasFacultyAuthor(existing.ID, hasFaculty); err != nil {
			return err
		}
	}
	return nil
}

func appendUnique(pids []string, pid string) []string {
	for _, p := range pids {
		if p == pid {
			return pids
		}
	}
	return append(pids, pid)
}
