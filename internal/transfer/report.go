// Package transfer moves documents between the service and the local
// filesystem with bounded parallelism.
package transfer

import (
	"fmt"
	"io"
	"sync"
)

// Status classifies one item's outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ItemResult records the outcome of one document or directory.
type ItemResult struct {
	ID     string // document id (export) or local path (import)
	Path   string // written file (export) or created remote id (import)
	Status Status
	Reason string
}

// Report aggregates per-item results. Safe for concurrent Add.
type Report struct {
	mu    sync.Mutex
	items []ItemResult
}

// Add records one result.
func (r *Report) Add(result ItemResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, result)
}

// Items returns a copy of all recorded results.
func (r *Report) Items() []ItemResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]ItemResult, len(r.items))
	copy(items, r.items)
	return items
}

// Counts returns the number of succeeded, skipped and failed items.
func (r *Report) Counts() (succeeded, skipped, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		switch item.Status {
		case StatusSuccess:
			succeeded++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return
}

// maxReportedFailures bounds how many per-item reasons the summary prints.
const maxReportedFailures = 10

// Summary writes a human-readable run summary.
func (r *Report) Summary(w io.Writer, verb string) {
	succeeded, skipped, failed := r.Counts()
	total := succeeded + skipped + failed
	fmt.Fprintf(w, "%s %d/%d documents", verb, succeeded, total)
	if skipped > 0 {
		fmt.Fprintf(w, " (%d skipped)", skipped)
	}
	fmt.Fprintln(w)

	if failed == 0 {
		return
	}
	fmt.Fprintf(w, "Errors (%d):\n", failed)
	shown := 0
	for _, item := range r.Items() {
		if item.Status != StatusFailed {
			continue
		}
		if shown == maxReportedFailures {
			fmt.Fprintf(w, "  ... and %d more\n", failed-shown)
			break
		}
		fmt.Fprintf(w, "  %s: %s\n", item.ID, item.Reason)
		shown++
	}
}
