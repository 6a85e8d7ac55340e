package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sh3xu/codegraph/internal/graph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func storedGraph() *graph.ProjectGraph {
	return &graph.ProjectGraph{
		RootPath: "/proj",
		Nodes: []graph.Node{
			{ID: "folder:src", Name: "src", Kind: graph.KindFolder, Path: "src"},
			{ID: "file:src/a.ts", Name: "a.ts", Kind: graph.KindFile, Path: "src/a.ts",
				Parent: "folder:src", Content: "export function helper() {}"},
			{ID: "file:src/a.ts:fn:helper", Name: "helper", Kind: graph.KindFunction,
				Path: "src/a.ts", Line: 1, Parent: "file:src/a.ts",
				Signature: "export function helper() {", DocComment: "// does things"},
		},
		Edges: []graph.Edge{
			{From: "folder:src", To: "file:src/a.ts", Relation: graph.RelContains},
			{From: "file:src/a.ts", To: "file:src/a.ts:fn:helper", Relation: graph.RelContains},
			{From: "file:src/a.ts:fn:helper", To: "file:src/a.ts:fn:helper", Relation: graph.RelCalls, CallCount: 3},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := openTestStore(t)
	want := storedGraph()

	if err := st.SaveGraph(want); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	got, err := st.LoadGraph()
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}

	if got.RootPath != want.RootPath {
		t.Errorf("root path = %q, want %q", got.RootPath, want.RootPath)
	}
	if len(got.Nodes) != len(want.Nodes) {
		t.Fatalf("nodes = %d, want %d", len(got.Nodes), len(want.Nodes))
	}
	for i := range want.Nodes {
		if got.Nodes[i] != want.Nodes[i] {
			t.Errorf("nodes[%d] = %+v, want %+v", i, got.Nodes[i], want.Nodes[i])
		}
	}
	if len(got.Edges) != len(want.Edges) {
		t.Fatalf("edges = %d, want %d", len(got.Edges), len(want.Edges))
	}
	for i := range want.Edges {
		if got.Edges[i] != want.Edges[i] {
			t.Errorf("edges[%d] = %+v, want %+v", i, got.Edges[i], want.Edges[i])
		}
	}
}

func TestLoadGraph_Empty(t *testing.T) {
	st := openTestStore(t)

	if _, err := st.LoadGraph(); !errors.Is(err, ErrNoGraph) {
		t.Errorf("err = %v, want ErrNoGraph", err)
	}
	if _, err := st.GeneratedAt(); !errors.Is(err, ErrNoGraph) {
		t.Errorf("GeneratedAt err = %v, want ErrNoGraph", err)
	}
}

func TestSaveGraph_Replaces(t *testing.T) {
	st := openTestStore(t)

	if err := st.SaveGraph(storedGraph()); err != nil {
		t.Fatalf("first save: %v", err)
	}

	smaller := &graph.ProjectGraph{
		RootPath: "/other",
		Nodes:    []graph.Node{{ID: "file:x.ts", Name: "x.ts", Kind: graph.KindFile, Path: "x.ts"}},
	}
	if err := st.SaveGraph(smaller); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := st.LoadGraph()
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if got.RootPath != "/other" {
		t.Errorf("root path = %q, want /other", got.RootPath)
	}
	if len(got.Nodes) != 1 {
		t.Errorf("nodes = %d, want 1 (old run replaced)", len(got.Nodes))
	}
	if len(got.Edges) != 0 {
		t.Errorf("edges = %d, want 0", len(got.Edges))
	}
}

func TestGeneratedAt(t *testing.T) {
	st := openTestStore(t)

	if err := st.SaveGraph(storedGraph()); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	ts, err := st.GeneratedAt()
	if err != nil {
		t.Fatalf("GeneratedAt: %v", err)
	}
	if ts.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestOpen_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "graph.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if err := st.SaveGraph(storedGraph()); err != nil {
		t.Errorf("SaveGraph after nested open: %v", err)
	}
}
