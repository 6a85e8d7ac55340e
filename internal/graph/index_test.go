package graph

import (
	"testing"
)

// chainGraph builds main -> helper -> leaf plus a contains skeleton.
func chainGraph() *ProjectGraph {
	return &ProjectGraph{
		RootPath: "/proj",
		Nodes: []Node{
			{ID: "file:a.ts", Name: "a.ts", Kind: KindFile, Path: "a.ts"},
			{ID: "file:a.ts:fn:main", Name: "main", Kind: KindFunction, Path: "a.ts", Line: 1},
			{ID: "file:a.ts:fn:helper", Name: "helper", Kind: KindFunction, Path: "a.ts", Line: 5},
			{ID: "file:a.ts:fn:leaf", Name: "leaf", Kind: KindFunction, Path: "a.ts", Line: 9},
		},
		Edges: []Edge{
			{From: "file:a.ts", To: "file:a.ts:fn:main", Relation: RelContains},
			{From: "file:a.ts", To: "file:a.ts:fn:helper", Relation: RelContains},
			{From: "file:a.ts", To: "file:a.ts:fn:leaf", Relation: RelContains},
			{From: "file:a.ts:fn:main", To: "file:a.ts:fn:helper", Relation: RelCalls, CallCount: 2},
			{From: "file:a.ts:fn:helper", To: "file:a.ts:fn:leaf", Relation: RelCalls, CallCount: 1},
		},
	}
}

func TestIndex_Adjacency(t *testing.T) {
	idx := NewIndex(chainGraph())

	if !idx.HasNode("file:a.ts:fn:main") {
		t.Fatal("index missing main")
	}
	if idx.HasNode("file:gone.ts") {
		t.Error("unknown id should not be indexed")
	}

	fwd := idx.Forward("file:a.ts:fn:main")
	if len(fwd) != 1 || fwd[0].Target != "file:a.ts:fn:helper" {
		t.Errorf("forward(main) = %+v, want one edge to helper", fwd)
	}
	if fwd[0].CallCount != 2 {
		t.Errorf("call count = %d, want 2", fwd[0].CallCount)
	}

	rev := idx.Reverse("file:a.ts:fn:helper")
	found := false
	for _, a := range rev {
		if a.Relation == RelCalls && a.Target == "file:a.ts:fn:main" {
			found = true
		}
	}
	if !found {
		t.Errorf("reverse(helper) = %+v, want a calls edge from main", rev)
	}
}

func TestTraverse_ForwardCalls(t *testing.T) {
	idx := NewIndex(chainGraph())

	res := idx.Traverse("file:a.ts:fn:main", "forward", []string{RelCalls}, 0, 0)

	if len(res.Nodes) != 3 {
		t.Fatalf("visited %d nodes, want 3 (main, helper, leaf)", len(res.Nodes))
	}
	if res.Nodes[0].ID != "file:a.ts:fn:main" || res.Nodes[0].Depth != 0 {
		t.Errorf("start node = %+v", res.Nodes[0])
	}
	if res.Nodes[2].Depth != 2 {
		t.Errorf("leaf depth = %d, want 2", res.Nodes[2].Depth)
	}
	if len(res.Edges) != 2 {
		t.Errorf("traversed %d edges, want 2", len(res.Edges))
	}
	if res.Stats.MaxDepthReached != 2 {
		t.Errorf("max depth = %d, want 2", res.Stats.MaxDepthReached)
	}
	if res.Stats.Truncated {
		t.Error("small graph should not truncate")
	}
}

func TestTraverse_ReverseCalls(t *testing.T) {
	idx := NewIndex(chainGraph())

	res := idx.Traverse("file:a.ts:fn:leaf", "reverse", []string{RelCalls}, 0, 0)

	if len(res.Nodes) != 3 {
		t.Fatalf("visited %d nodes, want 3", len(res.Nodes))
	}
	// Edge orientation stays source->target even when walking reverse.
	if res.Edges[0].Source != "file:a.ts:fn:helper" || res.Edges[0].Target != "file:a.ts:fn:leaf" {
		t.Errorf("edge = %+v, want helper -> leaf", res.Edges[0])
	}
}

func TestTraverse_RelationFilter(t *testing.T) {
	idx := NewIndex(chainGraph())

	res := idx.Traverse("file:a.ts", "forward", []string{RelImports}, 0, 0)
	if len(res.Nodes) != 1 {
		t.Errorf("imports-only traversal from a file should stay put, visited %d", len(res.Nodes))
	}
}

func TestTraverse_DepthLimit(t *testing.T) {
	idx := NewIndex(chainGraph())

	res := idx.Traverse("file:a.ts:fn:main", "forward", []string{RelCalls}, 1, 0)
	if len(res.Nodes) != 2 {
		t.Errorf("depth-1 traversal visited %d nodes, want 2", len(res.Nodes))
	}
}

func TestTraverse_NodeLimit(t *testing.T) {
	// Star graph with more leaves than the node budget.
	pg := &ProjectGraph{Nodes: []Node{{ID: "hub", Kind: KindFunction}}}
	for i := 0; i < 600; i++ {
		id := FuncID("a.ts", string(rune('a'+i%26))+string(rune('0'+i/26)))
		pg.Nodes = append(pg.Nodes, Node{ID: id, Kind: KindFunction})
		pg.Edges = append(pg.Edges, Edge{From: "hub", To: id, Relation: RelCalls, CallCount: 1})
	}

	res := NewIndex(pg).Traverse("hub", "forward", nil, 0, 1000)
	if len(res.Nodes) > 500 {
		t.Errorf("node cap exceeded: %d", len(res.Nodes))
	}
	if !res.Stats.Truncated {
		t.Error("expected truncation flag")
	}
}

func TestFindPath_Found(t *testing.T) {
	idx := NewIndex(chainGraph())

	res := idx.FindPath("file:a.ts:fn:main", "file:a.ts:fn:leaf", []string{RelCalls}, 0)
	if !res.Found {
		t.Fatal("path should exist")
	}
	wantPath := []string{"file:a.ts:fn:main", "file:a.ts:fn:helper", "file:a.ts:fn:leaf"}
	if len(res.Path) != len(wantPath) {
		t.Fatalf("path length = %d, want %d", len(res.Path), len(wantPath))
	}
	for i, id := range wantPath {
		if res.Path[i].ID != id {
			t.Errorf("path[%d] = %q, want %q", i, res.Path[i].ID, id)
		}
	}
	if len(res.Edges) != 2 {
		t.Errorf("path edges = %d, want 2", len(res.Edges))
	}
}

func TestFindPath_NotFound(t *testing.T) {
	idx := NewIndex(chainGraph())

	// Calls only flow main -> leaf, not the other way.
	res := idx.FindPath("file:a.ts:fn:leaf", "file:a.ts:fn:main", []string{RelCalls}, 0)
	if res.Found {
		t.Error("no reverse path should exist over calls edges")
	}
}

func TestFindPath_SameNode(t *testing.T) {
	idx := NewIndex(chainGraph())

	res := idx.FindPath("file:a.ts:fn:main", "file:a.ts:fn:main", nil, 0)
	if !res.Found || len(res.Path) != 1 {
		t.Errorf("self path = %+v, want single-node path", res)
	}
}
