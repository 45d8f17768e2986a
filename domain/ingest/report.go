package ingest

import (
	"time"

	"github.com/samber/lo"

	"github.com/emergent-company/lims-pipeline/domain/legislation"
)

// DocumentResult is the outcome of one source document.
type DocumentResult struct {
	Path       string
	DocumentID string
	Language   string
	Kind       legislation.Kind

	Sections        int
	CrossReferences int
	DefinedTerms    int
	// TermsPaired counts terms linked to an already-ingested counterpart.
	TermsPaired int

	Chunks        int
	ChunksWritten int
	ChunksSkipped int
	OverBudget    int

	// Issues are non-fatal extraction problems.
	Issues []string
	// Skipped is set when the document was deliberately not ingested.
	Skipped string
	Err     error

	Duration time.Duration
}

// Report summarizes one Run.
type Report struct {
	Documents []DocumentResult
	Duration  time.Duration
}

// Failed returns the number of documents that ended in an error.
func (r *Report) Failed() int {
	return lo.CountBy(r.Documents, func(d DocumentResult) bool { return d.Err != nil })
}

// Errors returns the failed documents.
func (r *Report) Errors() []DocumentResult {
	return lo.Filter(r.Documents, func(d DocumentResult, _ int) bool { return d.Err != nil })
}

// ChunksWritten totals chunks handed to the sink.
func (r *Report) ChunksWritten() int {
	return lo.SumBy(r.Documents, func(d DocumentResult) int { return d.ChunksWritten })
}

// ChunksSkipped totals chunks the tracker had already seen.
func (r *Report) ChunksSkipped() int {
	return lo.SumBy(r.Documents, func(d DocumentResult) int { return d.ChunksSkipped })
}

// Sections totals extracted sections.
func (r *Report) Sections() int {
	return lo.SumBy(r.Documents, func(d DocumentResult) int { return d.Sections })
}
