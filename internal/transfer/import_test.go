package transfer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"yonote/internal/navigator"
	"yonote/internal/testutil"
	"yonote/internal/transfer"
)

// writeTree creates a local directory tree from relative path -> content.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// TestImportCreatesTree verifies that a nested directory is recreated
// remotely with every child created strictly after its parent.
func TestImportCreatesTree(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	model := newExportModel(t, svc)

	srcDir := filepath.Join(t.TempDir(), "book")
	writeTree(t, srcDir, map[string]string{
		"Intro.md":           "# intro",
		"Chapter/One.md":     "one",
		"Chapter/Two.md":     "two",
		"Chapter/Deep/X.md":  "x",
		"Appendix/Tables.md": "tables",
	})

	root, err := transfer.ScanDir(srcDir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	importer := &transfer.Importer{Model: model, Service: svc, Workers: 4}
	report, err := importer.Run(context.Background(), root, navigator.Target{CollectionID: coll.ID, Label: "Docs"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// book + Intro + Chapter + One + Two + Deep + X + Appendix + Tables
	succeeded, skipped, failed := report.Counts()
	if succeeded != 9 || skipped != 0 || failed != 0 {
		t.Fatalf("expected 9 creations, got %d/%d/%d", succeeded, skipped, failed)
	}

	created := svc.Created()
	position := make(map[string]int, len(created))
	for i, c := range created {
		position[c.ID] = i
	}
	for i, c := range created {
		if c.CollectionID != coll.ID {
			t.Errorf("created %q outside the target collection", c.Title)
		}
		if c.ParentID == "" {
			continue
		}
		parentPos, ok := position[c.ParentID]
		if !ok {
			t.Errorf("%q created under unknown parent %s", c.Title, c.ParentID)
			continue
		}
		if parentPos >= i {
			t.Errorf("%q created before its parent", c.Title)
		}
	}

	// The root directory becomes the single top-level node.
	topLevel := 0
	for _, c := range created {
		if c.ParentID == "" {
			topLevel++
			if c.Title != "book" {
				t.Errorf("expected top-level node named book, got %q", c.Title)
			}
		}
	}
	if topLevel != 1 {
		t.Errorf("expected exactly one top-level node, got %d", topLevel)
	}
}

// TestImportIntoParentDocument verifies importing under an existing document
// instead of the collection root.
func TestImportIntoParentDocument(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	parent := svc.AddDocument(coll.ID, "", "Archive", "a")
	model := newExportModel(t, svc)

	srcDir := filepath.Join(t.TempDir(), "notes")
	writeTree(t, srcDir, map[string]string{"Note.md": "n"})

	root, err := transfer.ScanDir(srcDir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	importer := &transfer.Importer{Model: model, Service: svc, Workers: 1}
	if _, err := importer.Run(context.Background(), root, navigator.Target{CollectionID: coll.ID, ParentID: parent.ID}); err != nil {
		t.Fatalf("run: %v", err)
	}

	created := svc.Created()
	if len(created) != 2 {
		t.Fatalf("expected 2 creations, got %d", len(created))
	}
	if created[0].ParentID != parent.ID {
		t.Errorf("expected root node under %s, got %s", parent.ID, created[0].ParentID)
	}
}

// TestImportSkipsNonMarkdown verifies that files without a markdown
// extension are skipped and reported.
func TestImportSkipsNonMarkdown(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	model := newExportModel(t, svc)

	srcDir := filepath.Join(t.TempDir(), "mixed")
	writeTree(t, srcDir, map[string]string{
		"Doc.md":    "d",
		"image.png": "binary",
	})

	root, err := transfer.ScanDir(srcDir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	importer := &transfer.Importer{Model: model, Service: svc, Workers: 2}
	report, err := importer.Run(context.Background(), root, navigator.Target{CollectionID: coll.ID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	succeeded, skipped, failed := report.Counts()
	if succeeded != 2 || skipped != 1 || failed != 0 {
		t.Errorf("expected 2 creations and 1 skip, got %d/%d/%d", succeeded, skipped, failed)
	}
}

// TestImportWritesBackCache verifies that created nodes become visible in
// the hierarchy without refetching the listing.
func TestImportWritesBackCache(t *testing.T) {
	svc := testutil.NewFakeService()
	coll := svc.AddCollection("Docs")
	model := newExportModel(t, svc)

	ctx := context.Background()
	if _, err := model.Children(ctx, coll.ID, false); err != nil {
		t.Fatalf("expand collection: %v", err)
	}
	listCalls := svc.CallCount("ListDocuments")

	srcDir := filepath.Join(t.TempDir(), "drop")
	writeTree(t, srcDir, map[string]string{"New.md": "n"})
	root, err := transfer.ScanDir(srcDir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	importer := &transfer.Importer{Model: model, Service: svc, Workers: 1}
	if _, err := importer.Run(ctx, root, navigator.Target{CollectionID: coll.ID}); err != nil {
		t.Fatalf("run: %v", err)
	}

	children, err := model.Children(ctx, coll.ID, false)
	if err != nil {
		t.Fatalf("children after import: %v", err)
	}
	if len(children) != 1 || children[0].Title() != "drop" {
		t.Fatalf("expected imported root visible under collection, got %d children", len(children))
	}
	if got := svc.CallCount("ListDocuments"); got != listCalls {
		t.Error("expected cache write-back to avoid a refetch")
	}
}
