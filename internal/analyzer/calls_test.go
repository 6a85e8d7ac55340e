package analyzer

import (
	"context"
	"testing"

	"github.com/sh3xu/codegraph/internal/config"
	"github.com/sh3xu/codegraph/internal/graph"
)

func TestCalls_CrossFileWithCount(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/a.ts": `export function helper(x: number) {
  return x + 1
}
`,
		"src/b.ts": `import { helper } from './a'

export function main() {
  const first = helper(1)
  const second = helper(2)
  return first + second
}
`,
	})

	e := mustEdge(t, pg, "file:src/b.ts:fn:main", "file:src/a.ts:fn:helper", graph.RelCalls)
	if e.CallCount != 2 {
		t.Errorf("call count = %d, want 2 (two distinct call sites)", e.CallCount)
	}
}

func TestCalls_SelfCallExcluded(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/rec.ts": `export function factorial(n: number): number {
  if (n <= 1) return 1
  return n * factorial(n - 1)
}
`,
	})

	if _, ok := findEdge(pg, "file:src/rec.ts:fn:factorial", "file:src/rec.ts:fn:factorial", graph.RelCalls); ok {
		t.Error("recursive self-call must not produce an edge")
	}
}

func TestCalls_TopLevelCallIgnored(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/setup.ts": `export function init() {
  return 'ready'
}

init()
`,
	})

	for _, e := range pg.Edges {
		if e.Relation == graph.RelCalls {
			t.Errorf("module top-level call must not produce an edge, got %+v", e)
		}
	}
}

func TestCalls_ArrowFunctionCaller(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/a.ts": "export function helper() { return 1 }\n",
		"src/b.ts": `import { helper } from './a'

export const main = () => {
  return helper()
}
`,
	})

	mustEdge(t, pg, "file:src/b.ts:fn:main", "file:src/a.ts:fn:helper", graph.RelCalls)
}

func TestCalls_DefaultExportCaller(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/a.ts": "export function helper() { return 1 }\n",
		"src/b.ts": `import { helper } from './a'

export default function () {
  return helper()
}
`,
	})

	mustEdge(t, pg, "file:src/b.ts:fn:anonymous_1", "file:src/a.ts:fn:helper", graph.RelCalls)
}

func TestCalls_InstanceMethodTarget(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/widget.ts": `export class Widget {
  render() {
    return '<div/>'
  }
}
`,
		"src/use.ts": `import { Widget } from './widget'

export function draw() {
  const w = new Widget()
  return w.render()
}
`,
	})

	mustEdge(t, pg, "file:src/use.ts:fn:draw",
		"file:src/widget.ts:cls:Widget:method:render", graph.RelCalls)
}

func TestCalls_QualifiedStaticMethod(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/fmt.ts": `export class Fmt {
  static upper(s: string) {
    return s.toUpperCase()
  }
}
`,
		"src/use.ts": `import { Fmt } from './fmt'

export function shout(s: string) {
  return Fmt.upper(s)
}
`,
	})

	mustEdge(t, pg, "file:src/use.ts:fn:shout",
		"file:src/fmt.ts:cls:Fmt:method:upper", graph.RelCalls)
}

func TestCalls_MethodAsCaller(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/a.ts": "export function helper() { return 1 }\n",
		"src/b.ts": `import { helper } from './a'

export class Service {
  run() {
    return helper()
  }
}
`,
	})

	mustEdge(t, pg, "file:src/b.ts:cls:Service:method:run",
		"file:src/a.ts:fn:helper", graph.RelCalls)
}

func TestCalls_NameCollisionLastWriterWins(t *testing.T) {
	// a.ts and z.ts both declare dup; sorted file order makes z.ts the
	// last writer, so unqualified calls resolve there.
	pg, _ := analyzeProject(t, map[string]string{
		"src/a.ts": "export function dup() { return 'a' }\n",
		"src/z.ts": "export function dup() { return 'z' }\n",
		"src/m.ts": `export function main() {
  return dup()
}
`,
	})

	mustEdge(t, pg, "file:src/m.ts:fn:main", "file:src/z.ts:fn:dup", graph.RelCalls)
	if _, ok := findEdge(pg, "file:src/m.ts:fn:main", "file:src/a.ts:fn:dup", graph.RelCalls); ok {
		t.Error("collision loser should not receive the edge")
	}
}

func TestCalls_UnresolvableSilent(t *testing.T) {
	pg, _ := analyzeProject(t, map[string]string{
		"src/a.ts": `export function main() {
  return console.log('hi') ?? fetch('/api')
}
`,
	})

	for _, e := range pg.Edges {
		if e.Relation == graph.RelCalls {
			t.Errorf("unresolvable builtins must not produce edges, got %+v", e)
		}
	}
}

// stubResolver resolves every miss to a fixed candidate list.
type stubResolver struct {
	candidates []Candidate
	seen       []CalleeRef
}

func (r *stubResolver) Resolve(ref CalleeRef) []Candidate {
	r.seen = append(r.seen, ref)
	return r.candidates
}

func TestCalls_CustomResolverFallback(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"src/a.ts": "export function helper() { return 1 }\n",
		"src/b.ts": `export function main() {
  return mystery()
}
`,
	})

	stub := &stubResolver{candidates: []Candidate{{File: "src/a.ts", Name: "helper"}}}
	pg, _, err := New(config.Default(), WithResolver(stub)).Analyze(context.Background(), dir)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	mustEdge(t, pg, "file:src/b.ts:fn:main", "file:src/a.ts:fn:helper", graph.RelCalls)

	found := false
	for _, ref := range stub.seen {
		if ref.Name == "mystery" && ref.File == "src/b.ts" {
			found = true
		}
	}
	if !found {
		t.Errorf("resolver never saw the mystery callee, got %+v", stub.seen)
	}
}

func TestImportResolver_Resolve(t *testing.T) {
	r := newImportResolver(map[string]map[string]string{
		"src/b.ts": {
			"helper": "src/a.ts",
			"utils":  "src/util.ts",
		},
	})

	// Named import: the callee name itself is bound.
	got := r.Resolve(CalleeRef{File: "src/b.ts", Name: "helper"})
	if len(got) != 1 || got[0].File != "src/a.ts" || got[0].Name != "helper" {
		t.Errorf("Resolve(helper) = %+v", got)
	}

	// Namespace import: the receiver is bound, the member is the name.
	got = r.Resolve(CalleeRef{File: "src/b.ts", Object: "utils", Name: "format"})
	if len(got) != 1 || got[0].File != "src/util.ts" || got[0].Name != "format" {
		t.Errorf("Resolve(utils.format) = %+v", got)
	}

	// Unknown file and unknown name both miss quietly.
	if got := r.Resolve(CalleeRef{File: "src/other.ts", Name: "helper"}); got != nil {
		t.Errorf("Resolve for unknown file = %+v, want nil", got)
	}
	if got := r.Resolve(CalleeRef{File: "src/b.ts", Name: "unknown"}); len(got) != 0 {
		t.Errorf("Resolve for unknown name = %+v, want empty", got)
	}
}
