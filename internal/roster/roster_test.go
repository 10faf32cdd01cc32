package roster

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleRoster = `[
  {
    "faculty_name": "Satish Narayana Srirama",
    "dblp_pid": "94/4013",
    "dblp_matched": true,
    "email": "srirama@example.edu",
    "designation": "Professor",
    "department": "SCIS"
  },
  {
    "faculty_name": "Alok Singh",
    "dblp_pid": "01/1744-1",
    "dblp_matched": true,
    "email": "alok@example.edu"
  },
  {
    "faculty_name": "Unmatched Person",
    "dblp_pid": "",
    "dblp_matched": false
  }
]`

func writeRoster(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faculty.json")
	if err := os.WriteFile(path, []byte(sampleRoster), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(writeRoster(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Len() != 2 {
		t.Fatalf("expected 2 matched members, got %d", m.Len())
	}

	member, ok := m.ByPID("94/4013")
	if !ok {
		t.Fatal("PID 94/4013 not found")
	}
	if member.Name != "Satish Narayana Srirama" || member.Designation != "Professor" {
		t.Errorf("member = %+v", member)
	}

	if _, ok := m.ByNormalizedName("satish narayana srirama"); !ok {
		t.Error("normalized name lookup failed")
	}
	if _, ok := m.ByNormalizedName("unmatched person"); ok {
		t.Error("unmatched member should not be in the mapping")
	}

	members := m.Members()
	if len(members) != 2 || members[0].PID != "94/4013" || members[1].PID != "01/1744-1" {
		t.Errorf("members order = %+v", members)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing roster")
	}
}

func TestFileForPID(t *testing.T) {
	if got := FileForPID("94/4013"); got != "94_4013.bib" {
		t.Errorf("FileForPID = %q", got)
	}
	if got := FileForPID("01/1744-1"); got != "01_1744-1.bib" {
		t.Errorf("FileForPID = %q", got)
	}
}

func TestPIDFromFilename(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"94_4013.bib", "94/4013"},
		{"01_1744-1.bib", "01/1744-1"},
		{"01_1744-1_alok.bib", "01/1744-1"},
		{"12_345_1.bib", "12/345"},
		{"12_345_udgata.bib", "12/345"},
	}
	for _, tt := range tests {
		if got := PIDFromFilename(tt.file); got != tt.want {
			t.Errorf("PIDFromFilename(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}
