package transfer_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"yonote/internal/transfer"
)

// TestReportCounts verifies per-status counting.
func TestReportCounts(t *testing.T) {
	report := &transfer.Report{}
	report.Add(transfer.ItemResult{ID: "a", Status: transfer.StatusSuccess})
	report.Add(transfer.ItemResult{ID: "b", Status: transfer.StatusSkipped, Reason: "cancelled"})
	report.Add(transfer.ItemResult{ID: "c", Status: transfer.StatusFailed, Reason: "boom"})

	succeeded, skipped, failed := report.Counts()
	if succeeded != 1 || skipped != 1 || failed != 1 {
		t.Errorf("unexpected counts %d/%d/%d", succeeded, skipped, failed)
	}
}

// TestReportConcurrentAdd verifies the report tolerates parallel writers.
func TestReportConcurrentAdd(t *testing.T) {
	report := &transfer.Report{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report.Add(transfer.ItemResult{ID: fmt.Sprintf("doc%d", i), Status: transfer.StatusSuccess})
		}(i)
	}
	wg.Wait()

	if len(report.Items()) != 50 {
		t.Errorf("expected 50 items, got %d", len(report.Items()))
	}
}

// TestSummaryTruncatesFailures verifies only the first failures are listed
// in detail.
func TestSummaryTruncatesFailures(t *testing.T) {
	report := &transfer.Report{}
	for i := 0; i < 15; i++ {
		report.Add(transfer.ItemResult{ID: fmt.Sprintf("doc%d", i), Status: transfer.StatusFailed, Reason: "boom"})
	}

	var buf strings.Builder
	report.Summary(&buf, "Exported")
	out := buf.String()

	if !strings.Contains(out, "Exported 0/15 documents") {
		t.Errorf("unexpected summary header: %q", out)
	}
	if !strings.Contains(out, "Errors (15):") {
		t.Errorf("expected error count, got %q", out)
	}
	if !strings.Contains(out, "... and 5 more") {
		t.Errorf("expected truncation marker, got %q", out)
	}
}

// TestSummarySkippedNote verifies skips are mentioned without an error
// section.
func TestSummarySkippedNote(t *testing.T) {
	report := &transfer.Report{}
	report.Add(transfer.ItemResult{ID: "a", Status: transfer.StatusSuccess})
	report.Add(transfer.ItemResult{ID: "b", Status: transfer.StatusSkipped, Reason: "not a markdown file"})

	var buf strings.Builder
	report.Summary(&buf, "Imported")
	out := buf.String()

	if !strings.Contains(out, "Imported 1/2 documents (1 skipped)") {
		t.Errorf("unexpected summary: %q", out)
	}
	if strings.Contains(out, "Errors") {
		t.Errorf("expected no error section, got %q", out)
	}
}
