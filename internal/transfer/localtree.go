package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalNode is one entry of the local mirror tree built for an import run.
// Directories carry children; files carry nothing until their content is
// read at create time.
type LocalNode struct {
	Name     string // title the remote node will get
	Path     string // absolute path on disk
	IsDir    bool
	Children []*LocalNode
}

// ScanDir builds the local mirror tree rooted at dir. The tree is rebuilt on
// every import run and never persisted. Entries are sorted by name so runs
// are deterministic.
func ScanDir(dir string) (*LocalNode, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	root := &LocalNode{
		Name:  filepath.Base(abs),
		Path:  abs,
		IsDir: true,
	}
	if err := scanInto(root); err != nil {
		return nil, err
	}
	return root, nil
}

func scanInto(node *LocalNode) error {
	entries, err := os.ReadDir(node.Path)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		child := &LocalNode{
			Name:  entry.Name(),
			Path:  filepath.Join(node.Path, entry.Name()),
			IsDir: entry.IsDir(),
		}
		if child.IsDir {
			if err := scanInto(child); err != nil {
				return err
			}
		} else {
			child.Name = strings.TrimSuffix(child.Name, filepath.Ext(child.Name))
		}
		node.Children = append(node.Children, child)
	}
	return nil
}

// IsMarkdown reports whether the node is a markdown file.
func (n *LocalNode) IsMarkdown() bool {
	return !n.IsDir && strings.EqualFold(filepath.Ext(n.Path), ".md")
}

// CountFiles returns the number of files in the subtree.
func (n *LocalNode) CountFiles() int {
	if !n.IsDir {
		return 1
	}
	total := 0
	for _, child := range n.Children {
		total += child.CountFiles()
	}
	return total
}
