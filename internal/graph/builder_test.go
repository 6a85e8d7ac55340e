package graph

import (
	"testing"
)

func TestAddNode_FirstWriterWins(t *testing.T) {
	b := NewBuilder("/proj")

	if !b.AddNode(Node{ID: "file:a.ts:fn:f", Name: "f", Kind: KindFunction, Line: 1}) {
		t.Fatal("first insert should succeed")
	}
	if b.AddNode(Node{ID: "file:a.ts:fn:f", Name: "f", Kind: KindFunction, Line: 99}) {
		t.Fatal("second insert with same id should be a no-op")
	}

	n, ok := b.Node("file:a.ts:fn:f")
	if !ok {
		t.Fatal("node missing")
	}
	if n.Line != 1 {
		t.Errorf("line = %d, want 1 (first writer wins)", n.Line)
	}
	if b.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", b.NodeCount())
	}
}

func TestAddEdge_Dedup(t *testing.T) {
	b := NewBuilder("/proj")
	b.AddNode(Node{ID: "file:a.ts", Kind: KindFile})
	b.AddNode(Node{ID: "file:b.ts", Kind: KindFile})

	b.AddEdge("file:a.ts", "file:b.ts", RelImports)
	b.AddEdge("file:a.ts", "file:b.ts", RelImports)

	g := b.Finalize()
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %d, want 1 (deduplicated)", len(g.Edges))
	}
	if g.Edges[0].CallCount != 0 {
		t.Errorf("imports edge should not carry a call count, got %d", g.Edges[0].CallCount)
	}
}

func TestAddCall_Aggregates(t *testing.T) {
	b := NewBuilder("/proj")
	b.AddNode(Node{ID: "file:a.ts:fn:caller", Kind: KindFunction})
	b.AddNode(Node{ID: "file:a.ts:fn:callee", Kind: KindFunction})

	b.AddCall("file:a.ts:fn:caller", "file:a.ts:fn:callee")
	b.AddCall("file:a.ts:fn:caller", "file:a.ts:fn:callee")
	b.AddCall("file:a.ts:fn:caller", "file:a.ts:fn:callee")

	g := b.Finalize()
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(g.Edges))
	}
	e := g.Edges[0]
	if e.Relation != RelCalls {
		t.Errorf("relation = %q, want calls", e.Relation)
	}
	if e.CallCount != 3 {
		t.Errorf("call count = %d, want 3", e.CallCount)
	}
}

func TestRegisterName_LastWriterWins(t *testing.T) {
	b := NewBuilder("/proj")

	b.RegisterName("helper", "file:a.ts:fn:helper")
	b.RegisterName("helper", "file:z.ts:fn:helper")

	id, ok := b.LookupName("helper")
	if !ok {
		t.Fatal("name missing from registry")
	}
	if id != "file:z.ts:fn:helper" {
		t.Errorf("id = %q, want last writer file:z.ts:fn:helper", id)
	}

	if _, ok := b.LookupName("nope"); ok {
		t.Error("unknown name should miss")
	}
}

func TestFinalize_DropsDanglingEdges(t *testing.T) {
	b := NewBuilder("/proj")
	b.AddNode(Node{ID: "file:a.ts", Kind: KindFile})
	b.AddEdge("file:a.ts", "file:gone.ts", RelImports)
	b.AddEdge("file:gone.ts", "file:a.ts", RelImports)
	b.AddCall("file:a.ts", "file:gone.ts:fn:f")

	g := b.Finalize()
	if len(g.Edges) != 0 {
		t.Errorf("dangling edges should be dropped, got %d", len(g.Edges))
	}
}

func TestFinalize_InsertionOrder(t *testing.T) {
	b := NewBuilder("/proj")
	ids := []string{"folder:src", "file:src/a.ts", "file:src/a.ts:fn:f", "file:src/b.ts"}
	for _, id := range ids {
		b.AddNode(Node{ID: id})
	}

	g := b.Finalize()
	if g.RootPath != "/proj" {
		t.Errorf("root path = %q, want /proj", g.RootPath)
	}
	if len(g.Nodes) != len(ids) {
		t.Fatalf("nodes = %d, want %d", len(g.Nodes), len(ids))
	}
	for i, id := range ids {
		if g.Nodes[i].ID != id {
			t.Errorf("nodes[%d] = %q, want %q", i, g.Nodes[i].ID, id)
		}
	}
}

func TestIDGrammar(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{FolderID("src/utils"), "folder:src/utils"},
		{FileID("src/a.ts"), "file:src/a.ts"},
		{FuncID("src/a.ts", "helper"), "file:src/a.ts:fn:helper"},
		{ClassID("src/a.ts", "Widget"), "file:src/a.ts:cls:Widget"},
		{MethodID("src/a.ts", "Widget", "render"), "file:src/a.ts:cls:Widget:method:render"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("id = %q, want %q", tt.got, tt.want)
		}
	}
}
