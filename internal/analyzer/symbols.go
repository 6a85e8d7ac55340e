package analyzer

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/sh3xu/codegraph/internal/graph"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

/// fileState carries per-file pass-1 bookkeeping: synthetic name counters and
// the declaration-position map pass 2 uses to identify callers.
type fileState struct {
	pc      *passContext
	relFile string
	fileID  string
	src     []byte

	anonFuncs   int
	anonClasses int
}

// pass1File emits the file node, its folder chain, one node per declared
// callable, the name registry entries, and import edges for one source file.
func (a *Analyzer) pass1File(pc *passContext, relFile string) error {
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
	root := tree.RootNode()

	fileID := graph.FileID(relFile)
	parentFolder := pc.ensureFolders(relFile)
	pc.builder.AddNode(graph.Node{
		ID:      fileID,
		Name:    path.Base(relFile),
		Kind:    graph.KindFile,
		Path:    relFile,
		Parent:  parentFolder,
		Content: truncate(string(src), pc.fileContentLimit),
	})
	if parentFolder != "" {
		pc.builder.AddEdge(parentFolder, fileID, graph.RelContains)
	}

	st := &fileState{pc: pc, relFile: relFile, fileID: fileID, src: src}
	for i := range root.ChildCount() {
		child := root.Child(i)
		st.collectTopLevel(child, child)
	}
	return nil
}

// collectTopLevel dispatches on the declaration kind of one top-level
// statement. anchor is the outermost statement node (the export_statement for
// exported declarations) so doc comments attach correctly.
func (st *fileState) collectTopLevel(node, anchor *sitter.Node) {
	switch node.Kind() {
	case "export_statement":
		// Default exports of unnamed values parse as expressions
		// (function_expression, arrow_function, class), not declarations.
		for _, kind := range []string{
			"function_declaration",
			"generator_function_declaration",
			"class_declaration",
			"abstract_class_declaration",
			"lexical_declaration",
			"variable_declaration",
			"function_expression",
			"arrow_function",
			"generator_function",
			"class",
		} {
			if decl := findChildByKind(node, kind); decl != nil {
				st.collectTopLevel(decl, anchor)
				return
			}
		}

	case "function_declaration", "generator_function_declaration",
		"function_expression", "arrow_function", "generator_function":
		st.emitFunction(node, anchor)

	case "lexical_declaration", "variable_declaration":
		for i := range node.ChildCount() {
			if decl := node.Child(i); decl.Kind() == "variable_declarator" {
				st.emitVarFunction(decl, anchor)
			}
		}

	case "class_declaration", "abstract_class_declaration", "class":
		st.emitClass(node, anchor)

	case "import_statement":
		st.pc.collectImport(st.relFile, node, st.src)
	}
}

// emitFunction handles a top-level function declaration, named or not.
func (st *fileState) emitFunction(node, anchor *sitter.Node) {
	name := ""
	if n := findChildByKind(node, "identifier"); n != nil {
		name = nodeText(n, st.src)
	}
	if name == "" {
		st.anonFuncs++
		name = fmt.Sprintf("anonymous_%d", st.anonFuncs)
	}

	id := graph.FuncID(st.relFile, name)
	text := nodeText(anchor, st.src)
	if !st.pc.builder.AddNode(graph.Node{
		ID:         id,
		Name:       name,
		Kind:       graph.KindFunction,
		Path:       st.relFile,
		Line:       int(node.StartPosition().Row) + 1,
		Parent:     st.fileID,
		Content:    truncate(text, st.pc.entityContentLimit),
		Signature:  signatureOf(text),
		DocComment: docCommentFor(anchor, st.src),
	}) {
		return
	}
	st.pc.builder.AddEdge(st.fileID, id, graph.RelContains)
	st.pc.builder.RegisterName(name, id)
	st.recordDecl(node, id)
}

// emitVarFunction handles `const f = () => ...` and friends. Declarators
// whose initializer is not a function value are ignored, and an existing
// node with the same id wins (first-writer-wins).
func (st *fileState) emitVarFunction(decl, anchor *sitter.Node) {
	nameNode := findChildByKind(decl, "identifier")
	if nameNode == nil {
		return
	}

	var value *sitter.Node
	for _, kind := range []string{"arrow_function", "function_expression", "function", "generator_function"} {
		if value = findChildByKind(decl, kind); value != nil {
			break
		}
	}
	if value == nil {
		return
	}

	name := nodeText(nameNode, st.src)
	id := graph.FuncID(st.relFile, name)
	text := nodeText(anchor, st.src)
	if !st.pc.builder.AddNode(graph.Node{
		ID:         id,
		Name:       name,
		Kind:       graph.KindFunction,
		Path:       st.relFile,
		Line:       int(decl.StartPosition().Row) + 1,
		Parent:     st.fileID,
		Content:    truncate(text, st.pc.entityContentLimit),
		Signature:  signatureOf(text),
		DocComment: docCommentFor(anchor, st.src),
	}) {
		return
	}
	st.pc.builder.AddEdge(st.fileID, id, graph.RelContains)
	st.pc.builder.RegisterName(name, id)
	st.recordDecl(decl, id)
}

// emitClass handles a class declaration and every method in its body.
// The class name and each ClassName.method pair go into the registry, along
// with each bare method name, so property-access call sites can resolve.
func (st *fileState) emitClass(node, anchor *sitter.Node) {
	nameNode := findChildByKind(node, "type_identifier")
	if nameNode == nil {
		nameNode = findChildByKind(node, "identifier")
	}
	className := ""
	if nameNode != nil {
		className = nodeText(nameNode, st.src)
	}
	if className == "" {
		st.anonClasses++
		className = fmt.Sprintf("AnonymousClass_%d", st.anonClasses)
	}

	classID := graph.ClassID(st.relFile, className)
	text := nodeText(anchor, st.src)
	if st.pc.builder.AddNode(graph.Node{
		ID:         classID,
		Name:       className,
		Kind:       graph.KindClass,
		Path:       st.relFile,
		Line:       int(node.StartPosition().Row) + 1,
		Parent:     st.fileID,
		Content:    truncate(text, st.pc.entityContentLimit),
		Signature:  signatureOf(text),
		DocComment: docCommentFor(anchor, st.src),
	}) {
		st.pc.builder.AddEdge(st.fileID, classID, graph.RelContains)
		st.pc.builder.RegisterName(className, classID)
	}

	body := findChildByKind(node, "class_body")
	if body == nil {
		return
	}
	for i := range body.ChildCount() {
		member := body.Child(i)
		if member.Kind() != "method_definition" {
			continue
		}
		st.emitMethod(member, className, classID)
	}
}

func (st *fileState) emitMethod(member *sitter.Node, className, classID string) {
	nameNode := findChildByKind(member, "property_identifier")
	if nameNode == nil {
		nameNode = findChildByKind(member, "private_property_identifier")
	}
	if nameNode == nil {
		return
	}
	methodName := nodeText(nameNode, st.src)

	id := graph.MethodID(st.relFile, className, methodName)
	text := nodeText(member, st.src)
	if !st.pc.builder.AddNode(graph.Node{
		ID:         id,
		Name:       methodName,
		Kind:       graph.KindFunction,
		Path:       st.relFile,
		Line:       int(member.StartPosition().Row) + 1,
		Parent:     classID,
		Content:    truncate(text, st.pc.entityContentLimit),
		Signature:  signatureOf(text),
		DocComment: docCommentFor(member, st.src),
	}) {
		return
	}
	st.pc.builder.AddEdge(classID, id, graph.RelContains)
	st.pc.builder.RegisterName(methodName, id)
	st.pc.builder.RegisterName(className+"."+methodName, id)
	st.recordDecl(member, id)
}

// recordDecl maps a declaration's start byte to its node id so pass 2 can
// identify the enclosing callable of a call site.
func (st *fileState) recordDecl(node *sitter.Node, id string) {
	decls := st.pc.declAt[st.relFile]
	if decls == nil {
		decls = make(map[uint]string)
		st.pc.declAt[st.relFile] = decls
	}
	decls[node.StartByte()] = id
}

// --- shared syntax helpers ---

func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	for i := range node.ChildCount() {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

// truncate bounds a content snapshot. A zero or negative limit disables
// truncation.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	// Back off to a rune boundary so the cut never leaves invalid UTF-8.
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// signatureOf returns the declaration text through its opening brace, or the
// first line for brace-less declarations.
func signatureOf(text string) string {
	if i := strings.Index(text, "{"); i >= 0 {
		text = text[:i+1]
	} else if i := strings.Index(text, "\n"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// docCommentFor concatenates the run of comments immediately preceding a
// declaration's outermost statement node.
func docCommentFor(anchor *sitter.Node, src []byte) string {
	var parts []string
	for prev := anchor.PrevSibling(); prev != nil && prev.Kind() == "comment"; prev = prev.PrevSibling() {
		parts = append(parts, nodeText(prev, src))
	}
	if len(parts) == 0 {
		return ""
	}
	// Collected nearest-first; restore source order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "\n")
}
