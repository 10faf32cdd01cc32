package bibtex

// Index aggregates records across many per-faculty source files. When the
// same citation key arrives from two different files (two tracked faculty
// co-authored the paper), the first record is kept and its source PID set
// grows; the record is never duplicated.
type Index struct {
	order []string
	byKey map[string]*Record
}

// NewIndex creates an empty cross-source index.
func NewIndex() *Index {
	return &Index{byKey: make(map[string]*Record)}
}

// Add merges a record contributed by the source file of the given PID.
// Returns true if the record was new, false if it merged into an existing
// record.
func (ix *Index) Add(rec Record, sourcePID string) bool {
	if existing, ok := ix.byKey[rec.Key]; ok {
		existing.AddSourcePID(sourcePID)
		return false
	}

	rec.SourcePIDs = nil
	r := &rec
	r.AddSourcePID(sourcePID)
	ix.byKey[rec.Key] = r
	ix.order = append(ix.order, rec.Key)
	return true
}

// Len returns the number of distinct records.
func (ix *Index) Len() int {
	return len(ix.byKey)
}

// Records returns all records in first-seen order.
func (ix *Index) Records() []Record {
	records := make([]Record, 0, len(ix.order))
	for _, key := range ix.order {
		records = append(records, *ix.byKey[key])
	}
	return records
}

// AddSourcePID appends a PID to the record's source set if absent.
// The set only ever grows and never holds duplicates.
func (r *Record) AddSourcePID(pid string) {
	if pid == "" {
		return
	}
	for _, p := range r.SourcePIDs {
		if p == pid {
			return
		}
	}
	r.SourcePIDs = append(r.SourcePIDs, pid)
}
