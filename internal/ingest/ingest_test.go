package ingest

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scislab/pubgraph/internal/roster"
	"github.com/scislab/pubgraph/internal/store"

	_ "modernc.org/sqlite"
)

const testRoster = `[
	{"faculty_name": "Satish Narayana Srirama", "dblp_pid": "94/4013", "dblp_matched": true},
	{"faculty_name": "Alok Singh", "dblp_pid": "01/1744-1", "dblp_matched": true}
]`

const sriramaBib = `@article{DBLP:journals/fgcs/K123,
  author    = {Satish Narayana Srirama and
               Alok Singh and
               Co Author},
  title     = {A Shared Paper on Distributed Systems},
  journal   = {Future Gener. Comput. Syst.},
  volume    = {100},
  year      = {2021},
  doi       = {10.1016/J.FUTURE.2021.01.001}
}

@inproceedings{DBLP:conf/ccgrid/S456,
  author    = {Satish Narayana Srirama},
  title     = {A Solo Conference Paper},
  booktitle = {CCGrid},
  year      = {2020}
}`

const singhBib = `@article{DBLP:journals/fgcs/K123,
  author    = {Satish Narayana Srirama and
               Alok Singh and
               Co Author},
  title     = {A Shared Paper on Distributed Systems},
  journal   = {Future Gener. Comput. Syst.},
  volume    = {100},
  year      = {2021},
  doi       = {10.1016/J.FUTURE.2021.01.001}
}

@article{DBLP:journals/tcs/A789,
  author    = {Alok Singh and
               Another Person},
  title     = {Heuristics for a Hard Problem},
  journal   = {Theor. Comput. Sci.},
  year      = {2019}
}`

func setup(t *testing.T, bibs map[string]string) (*Service, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()

	rosterPath := filepath.Join(dir, "roster.json")
	if err := os.WriteFile(rosterPath, []byte(testRoster), 0o644); err != nil {
		t.Fatal(err)
	}
	mapping, err := roster.Load(rosterPath)
	if err != nil {
		t.Fatal(err)
	}

	bibDir := filepath.Join(dir, "bib")
	if err := os.Mkdir(bibDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range bibs {
		if err := os.WriteFile(filepath.Join(bibDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := store.Open(filepath.Join(dir, "pubs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	return New(s, mapping, 0), s, bibDir
}

func TestIngestDirMergesSharedPublication(t *testing.T) {
	svc, s, bibDir := setup(t, map[string]string{
		"94_4013.bib":   sriramaBib,
		"01_1744-1.bib": singhBib,
	})

	stats, err := svc.IngestDir(bibDir)
	if err != nil {
		t.Fatalf("IngestDir failed: %v", err)
	}
	if len(stats.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", stats.Errors)
	}
	if stats.Files != 2 || stats.RecordsParsed != 4 {
		t.Errorf("files=%d parsed=%d, want 2/4", stats.Files, stats.RecordsParsed)
	}
	// The shared paper appears in both files but is stored once.
	if stats.PublicationsAdded != 3 {
		t.Errorf("added = %d, want 3", stats.PublicationsAdded)
	}

	pub, err := s.GetPublicationByKey("DBLP:journals/fgcs/K123")
	if err != nil {
		t.Fatal(err)
	}
	if pub == nil {
		t.Fatal("shared publication not stored")
	}
	if len(pub.SourcePIDs) != 2 {
		t.Errorf("source PIDs = %v, want both faculty PIDs", pub.SourcePIDs)
	}
	if !pub.HasFacultyAuthor {
		t.Error("shared publication should be faculty-authored")
	}

	// Both faculty resolved, the external co-author did not.
	for _, name := range []string{"satish narayana srirama", "alok singh"} {
		a, err := s.GetAuthorByNormalizedName(name)
		if err != nil {
			t.Fatal(err)
		}
		if a == nil || !a.IsFaculty {
			t.Errorf("%s should be a faculty author, got %+v", name, a)
		}
	}
	co, err := s.GetAuthorByNormalizedName("co author")
	if err != nil {
		t.Fatal(err)
	}
	if co == nil || co.IsFaculty {
		t.Errorf("external co-author must not be faculty: %+v", co)
	}

	// Three pairwise edges from the shared paper, one each from the
	// Singh/Another Person paper; the duplicate file contributes none.
	counts, err := s.Counts()
	if err != nil {
		t.Fatal(err)
	}
	if counts.Publications != 3 || counts.Collaborations != 4 {
		t.Errorf("counts = %+v", counts)
	}

	srirama, _ := s.GetAuthorByNormalizedName("satish narayana srirama")
	singh, _ := s.GetAuthorByNormalizedName("alok singh")
	edge, err := s.GetCollaboration(srirama.ID, singh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if edge == nil || edge.Count != 1 {
		t.Fatalf("faculty edge = %+v, want count 1", edge)
	}
}

func TestIngestDirIdempotent(t *testing.T) {
	svc, s, bibDir := setup(t, map[string]string{
		"94_4013.bib":   sriramaBib,
		"01_1744-1.bib": singhBib,
	})

	if _, err := svc.IngestDir(bibDir); err != nil {
		t.Fatal(err)
	}
	before, err := s.Counts()
	if err != nil {
		t.Fatal(err)
	}

	stats, err := svc.IngestDir(bibDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PublicationsAdded != 0 {
		t.Errorf("second run added %d publications", stats.PublicationsAdded)
	}
	if stats.PublicationsMerged != 3 {
		t.Errorf("second run merged %d, want 3", stats.PublicationsMerged)
	}

	after, err := s.Counts()
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("re-ingestion changed counts: %+v -> %+v", before, after)
	}

	singh, _ := s.GetAuthorByNormalizedName("alok singh")
	srirama, _ := s.GetAuthorByNormalizedName("satish narayana srirama")
	edge, err := s.GetCollaboration(srirama.ID, singh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if edge == nil || edge.Count != 1 {
		t.Errorf("edge count changed on re-run: %+v", edge)
	}
}

func TestIngestNameMatchScopedToSourcePIDs(t *testing.T) {
	// "Alok Singh" appears in a file exported for Srirama's PID only. That
	// member's own PID is absent from the record's sources, so the name
	// alone must not resolve to faculty.
	bib := `@article{DBLP:journals/x/Z1,
  author = {Outside Person and Alok Singh},
  title  = {Unrelated Work},
  journal = {Some Journal},
  year   = {2018}
}`
	svc, s, bibDir := setup(t, map[string]string{"94_4013.bib": bib})

	if _, err := svc.IngestDir(bibDir); err != nil {
		t.Fatal(err)
	}
	a, err := s.GetAuthorByNormalizedName("alok singh")
	if err != nil {
		t.Fatal(err)
	}
	if a == nil {
		t.Fatal("author not stored")
	}
	if a.IsFaculty {
		t.Error("name match outside the file's source PIDs must not resolve to faculty")
	}
}

func TestIngestSkipsIncompleteRecords(t *testing.T) {
	bib := `@article{DBLP:journals/x/NoTitle,
  author = {Satish Narayana Srirama},
  journal = {Some Journal},
  year = {2020}
}

@article{DBLP:journals/x/Good,
  author = {Satish Narayana Srirama},
  title = {A Complete Record},
  journal = {Some Journal},
  year = {2020}
}`
	svc, s, bibDir := setup(t, map[string]string{"94_4013.bib": bib})

	stats, err := svc.IngestDir(bibDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PublicationsSkipped != 1 || stats.PublicationsAdded != 1 {
		t.Errorf("skipped=%d added=%d, want 1/1", stats.PublicationsSkipped, stats.PublicationsAdded)
	}
	if len(stats.Errors) != 1 {
		t.Errorf("errors = %v", stats.Errors)
	}
	counts, err := s.Counts()
	if err != nil {
		t.Fatal(err)
	}
	if counts.Publications != 1 {
		t.Errorf("stored %d publications, want 1", counts.Publications)
	}
}

func TestIngestSecondSourceAppearsBetweenRuns(t *testing.T) {
	svc, s, bibDir := setup(t, map[string]string{"94_4013.bib": sriramaBib})

	if _, err := svc.IngestDir(bibDir); err != nil {
		t.Fatal(err)
	}

	// After run one only Srirama's PID backs the shared paper, so Singh
	// resolves as an ordinary co-author.
	singh, err := s.GetAuthorByNormalizedName("alok singh")
	if err != nil {
		t.Fatal(err)
	}
	if singh == nil || singh.IsFaculty {
		t.Fatalf("singh after first run = %+v, want non-faculty", singh)
	}

	// Singh's export appears before the second run.
	if err := os.WriteFile(filepath.Join(bibDir, "01_1744-1.bib"), []byte(singhBib), 0o644); err != nil {
		t.Fatal(err)
	}
	stats, err := svc.IngestDir(bibDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PublicationsAdded != 1 || stats.PublicationsMerged != 2 {
		t.Errorf("second run added=%d merged=%d, want 1/2", stats.PublicationsAdded, stats.PublicationsMerged)
	}

	pub, err := s.GetPublicationByKey("DBLP:journals/fgcs/K123")
	if err != nil {
		t.Fatal(err)
	}
	if len(pub.SourcePIDs) != 2 {
		t.Errorf("source PIDs after second run = %v, want both", pub.SourcePIDs)
	}
	if !pub.HasFacultyAuthor {
		t.Error("faculty flag must survive the merge")
	}

	// The grown source set lets Singh resolve to faculty now.
	singh, err = s.GetAuthorByNormalizedName("alok singh")
	if err != nil {
		t.Fatal(err)
	}
	if !singh.IsFaculty || singh.PID != "01/1744-1" {
		t.Errorf("singh after second run = %+v, want faculty with PID", singh)
	}

	// The shared paper was counted for the pair in run one; the merge
	// must not count it again.
	srirama, _ := s.GetAuthorByNormalizedName("satish narayana srirama")
	edge, err := s.GetCollaboration(srirama.ID, singh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if edge == nil || edge.Count != 1 {
		t.Errorf("edge after second run = %+v, want count 1", edge)
	}
}

func TestIngestMergeLinksNewlyNamedAuthor(t *testing.T) {
	// The first export omits an author the second one names. The merge
	// must link the new faculty author so totals and author lists agree.
	shortBib := `@article{DBLP:journals/fgcs/K123,
  author  = {Satish Narayana Srirama and Co Author},
  title   = {A Shared Paper on Distributed Systems},
  journal = {Future Gener. Comput. Syst.},
  year    = {2021}
}`
	fullBib := `@article{DBLP:journals/fgcs/K123,
  author  = {Satish Narayana Srirama and Alok Singh and Co Author},
  title   = {A Shared Paper on Distributed Systems},
  journal = {Future Gener. Comput. Syst.},
  year    = {2021}
}`
	svc, s, bibDir := setup(t, map[string]string{"94_4013.bib": shortBib})

	if _, err := svc.IngestDir(bibDir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bibDir, "01_1744-1.bib"), []byte(fullBib), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.IngestDir(bibDir); err != nil {
		t.Fatal(err)
	}

	singh, err := s.GetAuthorByNormalizedName("alok singh")
	if err != nil {
		t.Fatal(err)
	}
	if singh == nil || !singh.IsFaculty {
		t.Fatalf("singh = %+v, want faculty", singh)
	}
	if singh.TotalPublications != 1 {
		t.Errorf("singh totals = %d, want 1", singh.TotalPublications)
	}

	pub, err := s.GetPublicationByKey("DBLP:journals/fgcs/K123")
	if err != nil {
		t.Fatal(err)
	}
	authors, err := s.PublicationAuthors(pub.ID)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, a := range authors {
		if a.NormalizedName == "alok singh" {
			found = true
		}
	}
	if len(authors) != 3 || !found {
		t.Errorf("publication authors = %+v, want three including singh", authors)
	}
}

func TestIngestBatchRollbackContinues(t *testing.T) {
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "roster.json")
	if err := os.WriteFile(rosterPath, []byte(testRoster), 0o644); err != nil {
		t.Fatal(err)
	}
	mapping, err := roster.Load(rosterPath)
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(dir, "pubs.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	// Make one specific key fail at insert time so its whole batch rolls
	// back while the surrounding batches commit.
	raw, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_, err = raw.Exec(`
		CREATE TRIGGER reject_bad_key BEFORE INSERT ON publications
		WHEN NEW.dblp_key = 'DBLP:journals/x/BAD'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	raw.Close()
	if err != nil {
		t.Fatal(err)
	}

	bib := `@article{DBLP:journals/x/ONE,
  author = {Satish Narayana Srirama},
  title = {First Paper},
  journal = {Some Journal},
  year = {2020}
}

@article{DBLP:journals/x/BAD,
  author = {Satish Narayana Srirama},
  title = {Rejected Paper},
  journal = {Some Journal},
  year = {2020}
}

@article{DBLP:journals/x/TWO,
  author = {Satish Narayana Srirama},
  title = {Second Paper},
  journal = {Some Journal},
  year = {2021}
}`
	bibDir := filepath.Join(dir, "bib")
	if err := os.Mkdir(bibDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bibDir, "94_4013.bib"), []byte(bib), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := New(s, mapping, 1)
	stats, err := svc.IngestDir(bibDir)
	if err != nil {
		t.Fatalf("IngestDir failed: %v", err)
	}

	if stats.PublicationsAdded != 2 {
		t.Errorf("added = %d, want 2", stats.PublicationsAdded)
	}
	if len(stats.Errors) != 1 || !strings.Contains(stats.Errors[0], "rolled back") {
		t.Errorf("errors = %v, want one rolled-back batch", stats.Errors)
	}

	for _, key := range []string{"DBLP:journals/x/ONE", "DBLP:journals/x/TWO"} {
		pub, err := s.GetPublicationByKey(key)
		if err != nil {
			t.Fatal(err)
		}
		if pub == nil {
			t.Errorf("%s missing: its batch should have committed", key)
		}
	}
	bad, err := s.GetPublicationByKey("DBLP:journals/x/BAD")
	if err != nil {
		t.Fatal(err)
	}
	if bad != nil {
		t.Error("rejected publication must not be stored")
	}
}

func TestIngestDirSkipsUnparseableFilenames(t *testing.T) {
	svc, _, bibDir := setup(t, map[string]string{
		"notes.txt":   "not bibtex",
		"94_4013.bib": sriramaBib,
	})

	stats, err := svc.IngestDir(bibDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 1 {
		t.Errorf("files = %d, want 1", stats.Files)
	}
}

func TestIngestFile(t *testing.T) {
	svc, s, bibDir := setup(t, map[string]string{"94_4013.bib": sriramaBib})

	stats, err := svc.IngestFile(filepath.Join(bibDir, "94_4013.bib"), "94/4013")
	if err != nil {
		t.Fatal(err)
	}
	if stats.PublicationsAdded != 2 {
		t.Errorf("added = %d, want 2", stats.PublicationsAdded)
	}
	pub, err := s.GetPublicationByKey("DBLP:conf/ccgrid/S456")
	if err != nil {
		t.Fatal(err)
	}
	if pub == nil || pub.Type != "conference" {
		t.Errorf("solo paper = %+v", pub)
	}
}
