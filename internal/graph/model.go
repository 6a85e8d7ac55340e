package graph

// Node represents one code entity: a folder, file, function, class, or method.
type Node struct {
	ID         string `json:"id"`                   // Hierarchical id, see the ID grammar below
	Name       string `json:"name"`                 // Display name; synthetic for unnamed declarations
	Kind       string `json:"kind"`                 // folder, file, function, class, component
	Path       string `json:"path"`                 // Root-relative, forward-slash path of the owning file (or the folder itself)
	Line       int    `json:"line,omitempty"`       // 1-based declaration line; absent for folders and files
	Parent     string `json:"parent,omitempty"`     // Id of the immediate structural container
	Content    string `json:"content,omitempty"`    // Truncated source snapshot
	Signature  string `json:"signature,omitempty"`  // First line through the opening brace
	DocComment string `json:"docComment,omitempty"` // Concatenated leading comments
}

// Edge represents a directed relationship between two nodes.
type Edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Relation  string `json:"relation"`            // contains, imports, calls, extends, renders
	CallCount int    `json:"callCount,omitempty"` // For calls edges: distinct call sites, >= 1
}

// ProjectGraph is the assembled output of one analysis run. It is immutable
// to consumers once returned.
type ProjectGraph struct {
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
	RootPath string `json:"rootPath"`
}

// Node kind constants. KindComponent is reserved for downstream consumers and
// never produced by the engine; methods are emitted as KindFunction.
const (
	KindFolder    = "folder"
	KindFile      = "file"
	KindFunction  = "function"
	KindClass     = "class"
	KindComponent = "component"
)

// Edge relation constants. Only contains, imports, and calls are produced by
// the engine; extends and renders are reserved.
const (
	RelContains = "contains"
	RelImports  = "imports"
	RelCalls    = "calls"
	RelExtends  = "extends"
	RelRenders  = "renders"
)

// The ID grammar below is the stable join key parsed and constructed by every
// consumer (storage rows, renderer, embedding indexer):
//
//	folder:<relativeDirPath>
//	file:<relativeFilePath>
//	file:<relativeFilePath>:fn:<functionName>
//	file:<relativeFilePath>:cls:<className>
//	file:<relativeFilePath>:cls:<className>:method:<methodName>

// FolderID returns the id for a folder node.
func FolderID(relDir string) string {
	return "folder:" + relDir
}

// FileID returns the id for a file node.
func FileID(relFile string) string {
	return "file:" + relFile
}

// FuncID returns the id for a top-level function node.
func FuncID(relFile, name string) string {
	return "file:" + relFile + ":fn:" + name
}

// ClassID returns the id for a class node.
func ClassID(relFile, name string) string {
	return "file:" + relFile + ":cls:" + name
}

// MethodID returns the id for a method node.
func MethodID(relFile, className, methodName string) string {
	return "file:" + relFile + ":cls:" + className + ":method:" + methodName
}
