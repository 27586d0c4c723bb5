package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"yonote/internal/api"
	"yonote/internal/hierarchy"
	"yonote/internal/navigator"
	"yonote/internal/utils"
)

// DefaultWorkers is used when no worker count is configured.
const DefaultWorkers = 20

// Exporter writes selected documents to a local directory, mirroring their
// collection ancestry.
type Exporter struct {
	Model   *hierarchy.Model
	OutDir  string
	Workers int
	Format  string // file extension: md, html or json
	UseIDs  bool   // name files by id instead of title
	Refresh bool   // refetch child lists during expansion instead of trusting the cache
}

// Run expands the selection into document ids and fetches them across the
// worker pool. A single document's failure never aborts the run; an
// uncreatable output directory does.
func (e *Exporter) Run(ctx context.Context, sel navigator.Selection) (*Report, error) {
	if err := os.MkdirAll(e.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	report := &Report{}
	ids, err := e.expand(ctx, sel, report)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return report, nil
	}

	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				// Keep draining after cancellation so no job is
				// silently dropped from the report.
				if ctx.Err() != nil {
					report.Add(ItemResult{ID: id, Status: StatusSkipped, Reason: "cancelled"})
					continue
				}
				report.Add(e.exportOne(ctx, id))
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	return report, nil
}

// expand turns the selection into a flat, de-duplicated document id list,
// materializing any not-yet-loaded collection subtrees.
func (e *Exporter) expand(ctx context.Context, sel navigator.Selection, report *Report) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, id := range sel.DocumentIDs {
		add(id)
	}
	for _, collID := range sel.CollectionIDs {
		docIDs, err := e.Model.DocumentIDs(ctx, collID, e.Refresh)
		if err != nil {
			if api.IsNotFound(err) {
				report.Add(ItemResult{ID: collID, Status: StatusSkipped, Reason: "collection no longer exists"})
				continue
			}
			return nil, err
		}
		for _, id := range docIDs {
			add(id)
		}
	}
	return ids, nil
}

// exportOne fetches a document's content and writes it under the output
// directory at a path mirroring its ancestry.
func (e *Exporter) exportOne(ctx context.Context, id string) ItemResult {
	text, err := e.Model.Document(ctx, id, false)
	if err != nil {
		if api.IsNotFound(err) {
			return ItemResult{ID: id, Status: StatusSkipped, Reason: "document no longer exists"}
		}
		return ItemResult{ID: id, Status: StatusFailed, Reason: err.Error()}
	}

	// Directly selected ids may have no cached ancestry yet; fetch it so
	// the output path mirrors the remote hierarchy.
	if err := e.Model.Materialize(ctx, id); err != nil {
		utils.Debugf("ancestry for %s unavailable: %v", id, err)
	}

	path := e.buildPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return ItemResult{ID: id, Status: StatusFailed, Reason: err.Error()}
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return ItemResult{ID: id, Status: StatusFailed, Reason: err.Error()}
	}

	utils.Debugf("exported %s -> %s", id, path)
	return ItemResult{ID: id, Path: path, Status: StatusSuccess}
}

// buildPath derives the output path for a document from its cached ancestry:
// collection / parent documents / document, each segment a title slug or the
// raw id in id-naming mode.
func (e *Exporter) buildPath(id string) string {
	ext := e.Format
	if ext == "" || ext == "markdown" {
		ext = "md"
	}

	ancestry := e.Model.Path(id)
	if len(ancestry) == 0 {
		return filepath.Join(e.OutDir, id+"."+ext)
	}

	parts := make([]string, len(ancestry))
	for i, entry := range ancestry {
		if e.UseIDs {
			parts[i] = entry.ID
		} else {
			parts[i] = utils.SafeName(entry.Title)
		}
	}
	parts[len(parts)-1] += "." + ext
	return filepath.Join(append([]string{e.OutDir}, parts...)...)
}
