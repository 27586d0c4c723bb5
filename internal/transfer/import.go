package transfer

import (
	"context"
	"os"
	"sync"

	"yonote/internal/api"
	"yonote/internal/hierarchy"
	"yonote/internal/navigator"
	"yonote/internal/utils"
)

// Importer pushes a local mirror tree into the service. Directories become
// container documents created before their children; sibling creations run
// in parallel across the worker pool.
type Importer struct {
	Model   *hierarchy.Model
	Service api.Service
	Workers int
}

// Run imports the tree rooted at root into the target destination. Every
// successfully created node is written back into the cache immediately, so
// an interrupted run leaves the cache consistent with the remote state.
func (im *Importer) Run(ctx context.Context, root *LocalNode, target navigator.Target) (*Report, error) {
	report := &Report{}

	workers := im.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	sem := make(chan struct{}, workers)

	// The root directory itself becomes a node under the chosen parent;
	// its creation gates everything else.
	rootID, ok := im.createNode(ctx, root, target.CollectionID, target.ParentID, report)
	if !ok {
		return report, nil
	}

	var wg sync.WaitGroup
	var walk func(node *LocalNode, parentID string)
	walk = func(node *LocalNode, parentID string) {
		for _, child := range node.Children {
			child := child
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ctx.Err() != nil {
					report.Add(ItemResult{ID: child.Path, Status: StatusSkipped, Reason: "cancelled"})
					return
				}
				if !child.IsDir && !child.IsMarkdown() {
					report.Add(ItemResult{ID: child.Path, Status: StatusSkipped, Reason: "not a markdown file"})
					return
				}

				sem <- struct{}{}
				id, ok := im.createNode(ctx, child, target.CollectionID, parentID, report)
				<-sem

				// Children are dispatched only once their parent's
				// create has completed successfully.
				if ok && child.IsDir {
					walk(child, id)
				}
			}()
		}
	}
	walk(root, rootID)
	wg.Wait()

	return report, nil
}

// createNode creates one remote document for a local file or directory and
// records the outcome. It returns the new remote id and whether creation
// succeeded.
func (im *Importer) createNode(ctx context.Context, node *LocalNode, collectionID, parentID string, report *Report) (string, bool) {
	text := ""
	if !node.IsDir {
		data, err := os.ReadFile(node.Path)
		if err != nil {
			report.Add(ItemResult{ID: node.Path, Status: StatusFailed, Reason: err.Error()})
			return "", false
		}
		text = string(data)
	}

	meta, err := im.Service.CreateDocument(ctx, collectionID, parentID, node.Name, text)
	if err != nil {
		status := StatusFailed
		reason := err.Error()
		if api.IsNotFound(err) {
			reason = "parent no longer exists"
		}
		report.Add(ItemResult{ID: node.Path, Status: status, Reason: reason})
		return "", false
	}

	// Immediate cache write-back keeps a crash-interrupted import
	// consistent with what was actually created remotely.
	im.Model.Register(meta, registerParent(collectionID, parentID))
	report.Add(ItemResult{ID: node.Path, Path: meta.ID, Status: StatusSuccess})
	utils.Debugf("created %s as %s", node.Path, meta.ID)
	return meta.ID, true
}

// registerParent picks the cache parent for a created node: the parent
// document when nested, the collection otherwise.
func registerParent(collectionID, parentID string) string {
	if parentID != "" {
		return parentID
	}
	return collectionID
}
