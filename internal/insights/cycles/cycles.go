// Package cycles detects circular import chains between files using
// Tarjan's strongly connected components algorithm.
package cycles

import (
	"sort"
	"strings"

	"github.com/sh3xu/codegraph/internal/graph"
)

// Cycle is one group of files that import each other, directly or
// transitively.
type Cycle struct {
	Files []string `json:"files"` // root-relative paths, sorted
	Path  string   `json:"path"`  // "a.ts -> b.ts -> a.ts" display form
}

// Detect finds import cycles in pg. Output order is deterministic:
// cycles are sorted by their first file.
func Detect(pg *graph.ProjectGraph) []Cycle {
	adj := buildImportGraph(pg)
	sccs := tarjanSCC(adj)

	var cycles []Cycle
	for _, scc := range sccs {
		if len(scc) <= 1 {
			continue
		}
		sorted := make([]string, len(scc))
		copy(sorted, scc)
		sort.Strings(sorted)
		cycles = append(cycles, Cycle{
			Files: sorted,
			Path:  strings.Join(scc, " -> ") + " -> " + scc[0],
		})
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Files[0] < cycles[j].Files[0]
	})
	return cycles
}

// buildImportGraph collects file-to-file import edges. External package
// imports never produce edges because the engine only emits imports
// between file nodes it resolved inside the tree.
func buildImportGraph(pg *graph.ProjectGraph) map[string][]string {
	adj := make(map[string][]string)
	for _, n := range pg.Nodes {
		if n.Kind == graph.KindFile {
			adj[n.Path] = nil
		}
	}
	for _, e := range pg.Edges {
		if e.Relation != graph.RelImports {
			continue
		}
		from := strings.TrimPrefix(e.From, "file:")
		to := strings.TrimPrefix(e.To, "file:")
		if _, ok := adj[from]; !ok {
			continue
		}
		if _, ok := adj[to]; !ok {
			continue
		}
		adj[from] = append(adj[from], to)
	}
	for v := range adj {
		sort.Strings(adj[v])
	}
	return adj
}

// tarjanSCC implements Tarjan's strongly connected components algorithm.
// Vertices are visited in sorted order so the SCC output is stable.
func tarjanSCC(adj map[string][]string) [][]string {
	var (
		index    int
		stack    []string
		onStack  = make(map[string]bool)
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
		sccs     [][]string
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlinks[v] {
					lowlinks[v] = indices[w]
				}
			}
		}

		// Root of an SCC
		if lowlinks[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	vertices := make([]string, 0, len(adj))
	for v := range adj {
		vertices = append(vertices, v)
	}
	sort.Strings(vertices)
	for _, v := range vertices {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}

	return sccs
}
