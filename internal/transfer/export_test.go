package transfer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"yonote/internal/api"
	"yonote/internal/cache"
	"yonote/internal/hierarchy"
	"yonote/internal/navigator"
	"yonote/internal/testutil"
	"yonote/internal/transfer"
)

func newExportModel(t *testing.T, svc *testutil.FakeService) *hierarchy.Model {
	t.Helper()
	store, err := cache.Open(cache.BackendJSON, filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return hierarchy.New(store, svc)
}

// TestExportSingleDocument verifies that one selected document lands under
// its collection directory with the md extension.
func TestExportSingleDocument(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	doc := svc.AddDocument(coll.ID, "", "Readme", "# hello")
	model := newExportModel(t, svc)

	outDir := t.TempDir()
	exporter := &transfer.Exporter{Model: model, OutDir: outDir, Workers: 2, Format: "md"}
	report, err := exporter.Run(context.Background(), navigator.Selection{DocumentIDs: []string{doc.ID}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	succeeded, skipped, failed := report.Counts()
	if succeeded != 1 || skipped != 0 || failed != 0 {
		t.Fatalf("expected 1 success, got %d/%d/%d", succeeded, skipped, failed)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "Docs", "Readme.md"))
	if err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
	if string(data) != "# hello" {
		t.Errorf("unexpected content %q", data)
	}
}

// TestExportCollectionSubtree verifies that selecting a collection exports
// every document beneath it, nested ones inside their parent's directory.
func TestExportCollectionSubtree(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	guide := svc.AddDocument(coll.ID, "", "Guide", "guide body")
	svc.AddDocument(coll.ID, guide.ID, "Install", "install body")
	svc.AddDocument(coll.ID, "", "Readme", "readme body")
	model := newExportModel(t, svc)

	outDir := t.TempDir()
	exporter := &transfer.Exporter{Model: model, OutDir: outDir, Workers: 4, Format: "md"}
	report, err := exporter.Run(context.Background(), navigator.Selection{CollectionIDs: []string{coll.ID}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	succeeded, _, failed := report.Counts()
	if succeeded != 3 || failed != 0 {
		t.Fatalf("expected 3 successes, got %d successes %d failures", succeeded, failed)
	}

	for _, path := range []string{
		filepath.Join(outDir, "Docs", "Guide.md"),
		filepath.Join(outDir, "Docs", "Guide", "Install.md"),
		filepath.Join(outDir, "Docs", "Readme.md"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected exported file %s: %v", path, err)
		}
	}
}

// TestExportPartialFailure verifies that one failing document does not stop
// the rest of the run.
func TestExportPartialFailure(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	good := svc.AddDocument(coll.ID, "", "Good", "ok")
	bad := svc.AddDocument(coll.ID, "", "Bad", "broken")
	svc.FailContent[bad.ID] = &api.StatusError{Status: 500, Body: "boom"}
	model := newExportModel(t, svc)

	outDir := t.TempDir()
	exporter := &transfer.Exporter{Model: model, OutDir: outDir, Workers: 2, Format: "md"}
	report, err := exporter.Run(context.Background(), navigator.Selection{DocumentIDs: []string{good.ID, bad.ID}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	succeeded, _, failed := report.Counts()
	if succeeded != 1 || failed != 1 {
		t.Fatalf("expected 1 success and 1 failure, got %d/%d", succeeded, failed)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Docs", "Good.md")); err != nil {
		t.Errorf("expected surviving export: %v", err)
	}
}

// TestExportDeletedDocumentSkipped verifies that a document removed upstream
// is reported as skipped, not failed.
func TestExportDeletedDocumentSkipped(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	doc := svc.AddDocument(coll.ID, "", "Gone", "g")
	svc.MarkDeleted(doc.ID)
	model := newExportModel(t, svc)

	exporter := &transfer.Exporter{Model: model, OutDir: t.TempDir(), Workers: 1, Format: "md"}
	report, err := exporter.Run(context.Background(), navigator.Selection{DocumentIDs: []string{doc.ID}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	succeeded, skipped, failed := report.Counts()
	if succeeded != 0 || skipped != 1 || failed != 0 {
		t.Errorf("expected 1 skip, got %d/%d/%d", succeeded, skipped, failed)
	}
}

// TestExportSelectionDedup verifies that a document covered both directly
// and through its collection is exported once.
func TestExportSelectionDedup(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	doc := svc.AddDocument(coll.ID, "", "Readme", "r")
	model := newExportModel(t, svc)

	exporter := &transfer.Exporter{Model: model, OutDir: t.TempDir(), Workers: 2, Format: "md"}
	report, err := exporter.Run(context.Background(), navigator.Selection{
		DocumentIDs:   []string{doc.ID},
		CollectionIDs: []string{coll.ID},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	succeeded, skipped, failed := report.Counts()
	if succeeded != 1 || skipped != 0 || failed != 0 {
		t.Errorf("expected a single export, got %d/%d/%d", succeeded, skipped, failed)
	}
	if got := svc.CallCount("DocumentContent"); got != 1 {
		t.Errorf("expected content fetched once, got %d", got)
	}
}

// TestExportUseIDsAndFormat verifies id-based naming and the format
// extension.
func TestExportUseIDsAndFormat(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	doc := svc.AddDocument(coll.ID, "", "Readme", "r")
	model := newExportModel(t, svc)

	outDir := t.TempDir()
	exporter := &transfer.Exporter{Model: model, OutDir: outDir, Workers: 1, Format: "html", UseIDs: true}
	if _, err := exporter.Run(context.Background(), navigator.Selection{DocumentIDs: []string{doc.ID}}); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := filepath.Join(outDir, coll.ID, doc.ID+".html")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected %s: %v", want, err)
	}
}

// TestExportUnsafeTitles verifies that titles with path-hostile characters
// are sanitized before being used as file names.
func TestExportUnsafeTitles(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	doc := svc.AddDocument(coll.ID, "", `a/b:c?`, "body")
	model := newExportModel(t, svc)

	outDir := t.TempDir()
	exporter := &transfer.Exporter{Model: model, OutDir: outDir, Workers: 1, Format: "md"}
	report, err := exporter.Run(context.Background(), navigator.Selection{DocumentIDs: []string{doc.ID}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	items := report.Items()
	if len(items) != 1 || items[0].Status != transfer.StatusSuccess {
		t.Fatalf("expected a successful export, got %+v", items)
	}
	rel, err := filepath.Rel(outDir, items[0].Path)
	if err != nil {
		t.Fatalf("rel: %v", err)
	}
	if filepath.Dir(rel) != "Docs" {
		t.Errorf("expected file directly under Docs, got %s", rel)
	}
}
