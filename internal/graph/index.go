package graph

import (
	"sync"
)

// Index provides adjacency-list lookups and traversal over an assembled
// ProjectGraph. It is a derived, read-only view rebuilt after each analysis;
// it never mutates the graph it indexes.
type Index struct {
	mu      sync.RWMutex
	forward map[string][]Adjacency // node id -> outgoing
	reverse map[string][]Adjacency // node id -> incoming
	nodes   map[string]*Node
}

// Adjacency is one directed connection from an indexed node.
type Adjacency struct {
	Relation  string
	Target    string // target id (forward) or source id (reverse)
	CallCount int
}

// TraversalResult holds the output of a graph traversal.
type TraversalResult struct {
	Nodes []TraversalNode `json:"nodes"`
	Edges []TraversalEdge `json:"edges"`
	Stats TraversalStats  `json:"stats"`
}

// TraversalNode is a node visited during traversal.
type TraversalNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Path  string `json:"path,omitempty"`
	Line  int    `json:"line,omitempty"`
	Depth int    `json:"depth"`
}

// TraversalEdge is an edge crossed during traversal.
type TraversalEdge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Relation  string `json:"relation"`
	CallCount int    `json:"callCount,omitempty"`
}

// TraversalStats summarizes a traversal.
type TraversalStats struct {
	NodesVisited    int  `json:"nodes_visited"`
	EdgesTraversed  int  `json:"edges_traversed"`
	MaxDepthReached int  `json:"max_depth_reached"`
	Truncated       bool `json:"truncated"`
}

// PathResult holds a shortest-path result.
type PathResult struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Found bool            `json:"found"`
	Path  []TraversalNode `json:"path,omitempty"`
	Edges []TraversalEdge `json:"edges,omitempty"`
}

// NewIndex builds forward and reverse adjacency lists for g in one pass.
func NewIndex(g *ProjectGraph) *Index {
	idx := &Index{
		forward: make(map[string][]Adjacency),
		reverse: make(map[string][]Adjacency),
		nodes:   make(map[string]*Node, len(g.Nodes)),
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		idx.nodes[n.ID] = n
	}

	for _, e := range g.Edges {
		idx.forward[e.From] = append(idx.forward[e.From], Adjacency{
			Relation:  e.Relation,
			Target:    e.To,
			CallCount: e.CallCount,
		})
		idx.reverse[e.To] = append(idx.reverse[e.To], Adjacency{
			Relation:  e.Relation,
			Target:    e.From,
			CallCount: e.CallCount,
		})
	}

	return idx
}

// HasNode reports whether the id exists in the indexed graph.
func (idx *Index) HasNode(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.nodes[id]
	return ok
}

// Forward returns the outgoing adjacencies of a node.
func (idx *Index) Forward(id string) []Adjacency {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.forward[id]
}

// Reverse returns the incoming adjacencies of a node.
func (idx *Index) Reverse(id string) []Adjacency {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.reverse[id]
}

// Traverse performs a BFS from the given start node id.
// direction is "forward" or "reverse".
// relations filters crossed edges to specific relation kinds (nil = all).
// maxDepth limits traversal depth (0 = default 5, capped at 20).
// maxNodes limits returned nodes (0 = default 100, capped at 500).
func (idx *Index) Traverse(start, direction string, relations []string, maxDepth, maxNodes int) TraversalResult {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = 5
	}
	if maxDepth > 20 {
		maxDepth = 20
	}
	if maxNodes <= 0 {
		maxNodes = 100
	}
	if maxNodes > 500 {
		maxNodes = 500
	}

	adj := idx.forward
	if direction == "reverse" {
		adj = idx.reverse
	}

	relSet := toSet(relations)

	var result TraversalResult
	visited := make(map[string]bool)

	type queueItem struct {
		id    string
		depth int
	}

	visited[start] = true
	queue := []queueItem{{id: start, depth: 0}}
	result.Nodes = append(result.Nodes, idx.nodeFor(start, 0))

	truncated := false
	maxDepthReached := 0

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= maxDepth {
			continue
		}

		for _, a := range adj[item.id] {
			if relSet != nil {
				if _, ok := relSet[a.Relation]; !ok {
					continue
				}
			}

			result.Stats.EdgesTraversed++

			if direction == "reverse" {
				result.Edges = append(result.Edges, TraversalEdge{
					Source:    a.Target,
					Target:    item.id,
					Relation:  a.Relation,
					CallCount: a.CallCount,
				})
			} else {
				result.Edges = append(result.Edges, TraversalEdge{
					Source:    item.id,
					Target:    a.Target,
					Relation:  a.Relation,
					CallCount: a.CallCount,
				})
			}

			if visited[a.Target] {
				continue
			}
			visited[a.Target] = true

			newDepth := item.depth + 1
			if newDepth > maxDepthReached {
				maxDepthReached = newDepth
			}

			if len(result.Nodes) >= maxNodes {
				truncated = true
				continue
			}

			result.Nodes = append(result.Nodes, idx.nodeFor(a.Target, newDepth))
			queue = append(queue, queueItem{id: a.Target, depth: newDepth})
		}
	}

	result.Stats.NodesVisited = len(visited)
	result.Stats.MaxDepthReached = maxDepthReached
	result.Stats.Truncated = truncated

	return result
}

// FindPath finds the shortest path between two node ids using BFS over
// forward edges. relations filters crossed edges (nil = all); maxDepth
// limits search depth (0 = default 10, capped at 20).
func (idx *Index) FindPath(from, to string, relations []string, maxDepth int) PathResult {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = 10
	}
	if maxDepth > 20 {
		maxDepth = 20
	}

	if from == to {
		return PathResult{
			From:  from,
			To:    to,
			Found: true,
			Path:  []TraversalNode{idx.nodeFor(from, 0)},
		}
	}

	relSet := toSet(relations)

	type queueItem struct {
		id    string
		depth int
	}

	visited := make(map[string]bool)
	parent := make(map[string]string)
	parentAdj := make(map[string]Adjacency)

	visited[from] = true
	queue := []queueItem{{id: from, depth: 0}}

	found := false
	for len(queue) > 0 && !found {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= maxDepth {
			continue
		}

		for _, a := range idx.forward[item.id] {
			if relSet != nil {
				if _, ok := relSet[a.Relation]; !ok {
					continue
				}
			}
			if visited[a.Target] {
				continue
			}
			visited[a.Target] = true
			parent[a.Target] = item.id
			parentAdj[a.Target] = a

			if a.Target == to {
				found = true
				break
			}
			queue = append(queue, queueItem{id: a.Target, depth: item.depth + 1})
		}
	}

	result := PathResult{From: from, To: to, Found: found}
	if !found {
		return result
	}

	var path []string
	for cur := to; cur != from; cur = parent[cur] {
		path = append(path, cur)
	}
	path = append(path, from)

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	for i, id := range path {
		result.Path = append(result.Path, idx.nodeFor(id, i))
	}

	for i := 1; i < len(path); i++ {
		a := parentAdj[path[i]]
		result.Edges = append(result.Edges, TraversalEdge{
			Source:    path[i-1],
			Target:    path[i],
			Relation:  a.Relation,
			CallCount: a.CallCount,
		})
	}

	return result
}

func (idx *Index) nodeFor(id string, depth int) TraversalNode {
	node := TraversalNode{ID: id, Depth: depth}
	if n, ok := idx.nodes[id]; ok {
		node.Name = n.Name
		node.Kind = n.Kind
		node.Path = n.Path
		node.Line = n.Line
	}
	return node
}

func toSet(ss []string) map[string]struct{} {
	if len(ss) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
