package graph

import (
	"sync"
)

// Builder accumulates nodes and edges during one analysis run. It holds the
// node set, edge set, and name registry both passes write to: created per
// invocation, passed through both passes, and discarded after Finalize.
// Concurrent analyses of different projects never share a Builder.
//
// Insertion semantics:
//   - Nodes are first-writer-wins: a later AddNode with an existing id is a no-op.
//   - Edges are deduplicated on (from, relation, to); repeat calls edges
//     increment CallCount instead of duplicating.
//   - The name registry is last-writer-wins.
type Builder struct {
	mu       sync.RWMutex
	rootPath string

	nodes     map[string]*Node
	nodeOrder []string // insertion order, for deterministic output

	edges     map[string]*Edge
	edgeOrder []string

	names map[string]string // callable name -> node id
}

// NewBuilder creates an empty Builder for the given project root.
func NewBuilder(rootPath string) *Builder {
	return &Builder{
		rootPath: rootPath,
		nodes:    make(map[string]*Node),
		edges:    make(map[string]*Edge),
		names:    make(map[string]string),
	}
}

// AddNode inserts a node unless a node with the same id already exists.
// It reports whether the node was inserted.
func (b *Builder) AddNode(n Node) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.nodes[n.ID]; exists {
		return false
	}
	stored := n
	b.nodes[n.ID] = &stored
	b.nodeOrder = append(b.nodeOrder, n.ID)
	return true
}

// HasNode reports whether a node with the given id exists.
func (b *Builder) HasNode(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.nodes[id]
	return ok
}

// Node returns the node with the given id, if present.
func (b *Builder) Node(id string) (Node, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// NodeCount returns the number of accumulated nodes.
func (b *Builder) NodeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.nodes)
}

// AddEdge records a non-calls edge, deduplicated on (from, relation, to).
func (b *Builder) AddEdge(from, to, relation string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := edgeKey(from, to, relation)
	if _, exists := b.edges[key]; exists {
		return
	}
	b.edges[key] = &Edge{From: from, To: to, Relation: relation}
	b.edgeOrder = append(b.edgeOrder, key)
}

// AddCall records one observed call site from caller to callee. A repeat
// observation of the same ordered pair increments the edge's CallCount.
func (b *Builder) AddCall(from, to string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := edgeKey(from, to, RelCalls)
	if e, exists := b.edges[key]; exists {
		e.CallCount++
		return
	}
	b.edges[key] = &Edge{From: from, To: to, Relation: RelCalls, CallCount: 1}
	b.edgeOrder = append(b.edgeOrder, key)
}

// RegisterName records a callable name -> node id mapping. Later writes
// overwrite earlier ones; callers keep results deterministic by processing
// files in a stable order.
func (b *Builder) RegisterName(name, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.names[name] = id
}

// LookupName returns the node id registered under the given callable name.
func (b *Builder) LookupName(name string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.names[name]
	return id, ok
}

// Finalize assembles the final graph: nodes in insertion order, edges in
// insertion order with any edge whose endpoint is missing from the node set
// silently dropped. The Builder should not be used after Finalize.
func (b *Builder) Finalize() *ProjectGraph {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := &ProjectGraph{RootPath: b.rootPath}

	g.Nodes = make([]Node, 0, len(b.nodeOrder))
	for _, id := range b.nodeOrder {
		g.Nodes = append(g.Nodes, *b.nodes[id])
	}

	g.Edges = make([]Edge, 0, len(b.edgeOrder))
	for _, key := range b.edgeOrder {
		e := b.edges[key]
		if _, ok := b.nodes[e.From]; !ok {
			continue
		}
		if _, ok := b.nodes[e.To]; !ok {
			continue
		}
		g.Edges = append(g.Edges, *e)
	}

	return g
}

func edgeKey(from, to, relation string) string {
	return from + "|" + relation + "|" + to
}
