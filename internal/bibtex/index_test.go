package bibtex

import "testing"

func TestIndexMergesAcrossSources(t *testing.T) {
	ix := NewIndex()

	rec := Record{Key: "DBLP:journals/x/K123", Title: "Shared Paper",
		Authors: []string{"X Name", "Co Author", "Y Name"}}

	if !ix.Add(rec, "94/4013") {
		t.Error("first add should report new")
	}
	if ix.Add(rec, "50/971") {
		t.Error("second add should report merge")
	}
	// Re-adding from the same source must not duplicate the PID.
	ix.Add(rec, "94/4013")

	if ix.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", ix.Len())
	}
	got := ix.Records()[0]
	if len(got.SourcePIDs) != 2 || got.SourcePIDs[0] != "94/4013" || got.SourcePIDs[1] != "50/971" {
		t.Errorf("source PIDs = %v", got.SourcePIDs)
	}
}

func TestIndexKeepsFirstSeenOrder(t *testing.T) {
	ix := NewIndex()
	ix.Add(Record{Key: "b"}, "p1")
	ix.Add(Record{Key: "a"}, "p1")
	ix.Add(Record{Key: "b"}, "p2")

	records := ix.Records()
	if len(records) != 2 || records[0].Key != "b" || records[1].Key != "a" {
		t.Errorf("records order = %v", records)
	}
}

func TestAddSourcePIDIgnoresEmpty(t *testing.T) {
	var r Record
	r.AddSourcePID("")
	if len(r.SourcePIDs) != 0 {
		t.Errorf("empty PID recorded: %v", r.SourcePIDs)
	}
}
