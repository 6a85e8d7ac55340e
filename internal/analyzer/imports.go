package analyzer

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sh3xu/codegraph/internal/graph"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// resolutionExtensions is the probe order for extensionless specifiers,
// mirroring typical bundler resolution.
var resolutionExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}

// collectImport resolves one import statement. Specifiers that resolve to a
// file inside the source set produce an imports edge; external packages and
// unresolvable specifiers produce nothing. Imported local names are recorded
// for tier-2 call resolution.
func (pc *passContext) collectImport(relFile string, stmt *sitter.Node, src []byte) {
	specNode := findChildByKind(stmt, "string")
	if specNode == nil {
		return
	}
	specifier := strings.Trim(nodeText(specNode, src), "\"'`")

	resolved, ok := pc.resolveImport(specifier, path.Dir(relFile))
	if !ok {
		return
	}
	pc.builder.AddEdge(graph.FileID(relFile), graph.FileID(resolved), graph.RelImports)

	clause := findChildByKind(stmt, "import_clause")
	if clause == nil {
		return
	}
	for i := range clause.ChildCount() {
		c := clause.Child(i)
		switch c.Kind() {
		case "identifier": // default import
			pc.bind(relFile, nodeText(c, src), resolved)
		case "namespace_import": // import * as ns
			if id := findChildByKind(c, "identifier"); id != nil {
				pc.bind(relFile, nodeText(id, src), resolved)
			}
		case "named_imports":
			for j := range c.ChildCount() {
				s := c.Child(j)
				if s.Kind() != "import_specifier" {
					continue
				}
				// The local name is the alias when present, else the
				// imported name: the last identifier child either way.
				var local *sitter.Node
				for k := range s.ChildCount() {
					if ch := s.Child(k); ch.Kind() == "identifier" {
						local = ch
					}
				}
				if local != nil {
					pc.bind(relFile, nodeText(local, src), resolved)
				}
			}
		}
	}
}

func (pc *passContext) bind(relFile, localName, targetFile string) {
	m := pc.bindings[relFile]
	if m == nil {
		m = make(map[string]string)
		pc.bindings[relFile] = m
	}
	m[localName] = targetFile
}

// resolveImport normalizes a module specifier to a file in the source set.
// tsconfig path aliases apply first, then relative specifiers; bare
// specifiers are external packages and never resolve.
func (pc *passContext) resolveImport(specifier, fromDir string) (string, bool) {
	p := ""

	prefixes := make([]string, 0, len(pc.aliases))
	for prefix := range pc.aliases {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		if strings.HasPrefix(specifier, prefix) {
			p = pc.aliases[prefix] + strings.TrimPrefix(specifier, prefix)
			break
		}
	}

	if p == "" {
		if !strings.HasPrefix(specifier, ".") {
			return "", false
		}
		p = path.Join(fromDir, specifier)
	}
	p = path.Clean(p)

	return pc.findSourceFile(p)
}

// findSourceFile probes the candidate paths for a normalized specifier: the
// path as written, the path with each source extension appended (including
// the NodeNext style where "./a.js" names "a.ts"), then a directory index.
func (pc *passContext) findSourceFile(p string) (string, bool) {
	if _, ok := pc.fileSet[p]; ok {
		return p, true
	}

	stem := p
	if e := ext(p); e != "" {
		if _, isSource := sourceExtensions[e]; isSource {
			stem = strings.TrimSuffix(p, path.Ext(p))
		}
	}
	for _, e := range resolutionExtensions {
		if _, ok := pc.fileSet[stem+e]; ok {
			return stem + e, true
		}
	}
	for _, e := range resolutionExtensions {
		if _, ok := pc.fileSet[p+"/index"+e]; ok {
			return p + "/index" + e, true
		}
	}
	return "", false
}

// parsePathAliases reads tsconfig.json and extracts prefix alias mappings.
// For example, "@/*": ["./src/*"] maps prefix "@/" to replacement "src/".
func parsePathAliases(rootPath string) map[string]string {
	aliases := make(map[string]string)

	data, err := os.ReadFile(filepath.Join(rootPath, "tsconfig.json"))
	if err != nil {
		return aliases
	}

	var cfg struct {
		CompilerOptions struct {
			Paths map[string][]string `json:"paths"`
		} `json:"compilerOptions"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return aliases
	}

	for pattern, targets := range cfg.CompilerOptions.Paths {
		if len(targets) == 0 {
			continue
		}
		if strings.HasSuffix(pattern, "*") && strings.HasSuffix(targets[0], "*") {
			prefix := strings.TrimSuffix(pattern, "*")
			replacement := strings.TrimSuffix(targets[0], "*")
			replacement = strings.TrimPrefix(replacement, "./")
			aliases[prefix] = replacement
		}
	}

	return aliases
}
