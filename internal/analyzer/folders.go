package analyzer

import (
	"path"

	"github.com/sh3xu/codegraph/internal/graph"
)

// ensureFolders lazily emits folder nodes for every unseen ancestor directory
// of relFile, linking each folder to its child with a contains edge. It
// returns the id of the file's immediate parent folder, or "" when the file
// sits at the project root.
func (pc *passContext) ensureFolders(relFile string) string {
	dir := path.Dir(relFile)
	if dir == "." || dir == "" {
		return ""
	}

	// Collect the ancestor chain root-first so parents exist before children.
	var chain []string
	for d := dir; d != "." && d != ""; d = path.Dir(d) {
		chain = append(chain, d)
	}

	for i := len(chain) - 1; i >= 0; i-- {
		d := chain[i]
		id := graph.FolderID(d)
		if pc.seenFolders[id] {
			continue
		}
		pc.seenFolders[id] = true

		parentDir := path.Dir(d)
		parentID := ""
		if parentDir != "." && parentDir != "" {
			parentID = graph.FolderID(parentDir)
		}

		pc.builder.AddNode(graph.Node{
			ID:     id,
			Name:   path.Base(d),
			Kind:   graph.KindFolder,
			Path:   d,
			Parent: parentID,
		})
		if parentID != "" {
			pc.builder.AddEdge(parentID, id, graph.RelContains)
		}
	}

	return graph.FolderID(dir)
}
