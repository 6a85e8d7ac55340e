package analyzer

import (
	"fmt"

	"github.com/sh3xu/codegraph/internal/graph"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// pass2File walks every call expression in one file and records resolved
// call edges against the completed pass-1 registry.
func (a *Analyzer) pass2File(pc *passContext, resolver SymbolResolver, relFile string) error {
	src, err := pc.readSource(relFile)
	if err != nil {
		return err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageFor(relFile))

	tree := parser.Parse(src, nil)
	if tree == nil {
		return fmt.Errorf("parsing %s: no syntax tree produced", relFile)
	}
	defer tree.Close()

	walkCalls(tree.RootNode(), func(call *sitter.Node) {
		pc.resolveCall(resolver, relFile, call, src)
	})
	return nil
}

func walkCalls(node *sitter.Node, visit func(*sitter.Node)) {
	if node.Kind() == "call_expression" {
		visit(node)
	}
	for i := range node.ChildCount() {
		walkCalls(node.Child(i), visit)
	}
}

// resolveCall applies the escalating resolution strategy to one call site:
// find the enclosing caller, determine the callee name, then try the direct
// registry lookup and fall back to the symbol resolver. Self-calls never
// produce an edge, and resolution misses are silent.
func (pc *passContext) resolveCall(resolver SymbolResolver, relFile string, call *sitter.Node, src []byte) {
	callerID := pc.enclosingCaller(relFile, call)
	if callerID == "" {
		// Module top-level call; no caller node, no edge.
		return
	}

	target := call.Child(0)
	if target == nil {
		return
	}
	object, name := calleeName(target, src, pc.builder)
	if name == "" {
		return
	}

	// Tier 1: direct registry lookup.
	if id, ok := pc.builder.LookupName(name); ok {
		if id != callerID && pc.builder.HasNode(id) {
			pc.builder.AddCall(callerID, id)
		}
		return
	}

	// Tier 2: best-effort symbol resolution behind the narrow interface.
	for _, cand := range resolver.Resolve(CalleeRef{File: relFile, Object: object, Name: name}) {
		for _, id := range []string{
			graph.FuncID(cand.File, cand.Name),
			graph.ClassID(cand.File, cand.Name),
		} {
			if id != callerID && pc.builder.HasNode(id) {
				pc.builder.AddCall(callerID, id)
				return
			}
		}
	}
}

// calleeName extracts the lookup name for a call target. Bare identifiers
// resolve as written; property accesses prefer the qualified obj.method form
// when the registry knows it, else the bare property name.
func calleeName(target *sitter.Node, src []byte, b *graph.Builder) (object, name string) {
	switch target.Kind() {
	case "identifier":
		return "", nodeText(target, src)
	case "member_expression":
		prop := findChildByKind(target, "property_identifier")
		if prop == nil {
			return "", ""
		}
		propName := nodeText(prop, src)
		if obj := target.Child(0); obj != nil && obj.Kind() == "identifier" {
			objName := nodeText(obj, src)
			if _, ok := b.LookupName(objName + "." + propName); ok {
				return objName, objName + "." + propName
			}
			return objName, propName
		}
		return "", propName
	}
	return "", ""
}

// enclosingCaller walks the ancestor chain of a call site until it reaches a
// declaration that pass 1 registered. Calls outside any registered callable
// are ignored.
func (pc *passContext) enclosingCaller(relFile string, node *sitter.Node) string {
	decls := pc.declAt[relFile]
	if decls == nil {
		return ""
	}
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "function_declaration", "generator_function_declaration", "method_definition", "variable_declarator",
			"function_expression", "arrow_function", "generator_function":
			if id, ok := decls[p.StartByte()]; ok {
				return id
			}
		}
	}
	return ""
}
