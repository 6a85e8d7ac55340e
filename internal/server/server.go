// Package server exposes the project graph over the Model Context Protocol.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sh3xu/codegraph/internal/analyzer"
	"github.com/sh3xu/codegraph/internal/config"
	"github.com/sh3xu/codegraph/internal/graph"
	"github.com/sh3xu/codegraph/internal/render"
	"github.com/sh3xu/codegraph/internal/storage"
)

// Server wraps the MCP server and connects it to the analyzer and the
// graph store.
type Server struct {
	mcp *mcp.Server
	cfg *config.Config
	st  *storage.Store

	mu       sync.RWMutex
	graph    *graph.ProjectGraph
	index    *graph.Index
	warnings []analyzer.Warning
}

// New creates an MCP server wired to the given config and store. The store
// may be nil, in which case analysis results are kept in memory only.
func New(cfg *config.Config, st *storage.Store) (*Server, error) {
	s := &Server{
		cfg: cfg,
		st:  st,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "codegraph",
		Version: "0.1.0",
	}, nil)

	s.mcp = mcpServer
	s.registerResources()
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	log.Println("[server] starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// SetGraph installs a previously computed graph, e.g. one loaded from the
// store at startup.
func (s *Server) SetGraph(pg *graph.ProjectGraph, warnings []analyzer.Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = pg
	s.index = graph.NewIndex(pg)
	s.warnings = warnings
}

// current returns the active graph and index, or nil if no analysis has run.
func (s *Server) current() (*graph.ProjectGraph, *graph.Index) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph, s.index
}

// registerResources adds MCP resources for the assembled graph.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         "graph://project/graph",
		Name:        "Project Graph",
		Description: "The full code graph (nodes and edges) as JSON",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		pg, _ := s.current()
		if pg == nil {
			return nil, fmt.Errorf("no graph available (run analyze_project first)")
		}
		data, err := json.MarshalIndent(pg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling graph: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: req.Params.URI, Text: string(data), MIMEType: "application/json"},
			},
		}, nil
	})

	s.mcp.AddResource(&mcp.Resource{
		URI:         "graph://project/summary",
		Name:        "Project Summary",
		Description: "Compact markdown overview of the code graph",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		pg, _ := s.current()
		if pg == nil {
			return nil, fmt.Errorf("no graph available (run analyze_project first)")
		}
		summary := render.NewSummary(s.cfg.Output.SummaryChars).Render(pg)
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: req.Params.URI, Text: summary, MIMEType: "text/markdown"},
			},
		}, nil
	})
}

// analyzeProjectArgs are the arguments for the analyze_project tool.
type analyzeProjectArgs struct {
	Path string `json:"path,omitempty" jsonschema:"Path to the project root to analyze. Defaults to the configured root."`
}

// queryNodesArgs are the arguments for the query_nodes tool.
type queryNodesArgs struct {
	Kind  string `json:"kind,omitempty" jsonschema:"Filter by node kind: folder, file, function, or class"`
	Path  string `json:"path,omitempty" jsonschema:"Filter by file path substring"`
	Name  string `json:"name,omitempty" jsonschema:"Filter by name substring"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 100)"`
}

// showSourceArgs are the arguments for the show_source tool.
type showSourceArgs struct {
	ID           string `json:"id,omitempty" jsonschema:"Exact node id to look up"`
	Name         string `json:"name,omitempty" jsonschema:"Node name substring to look up when id is not known"`
	ContextLines int    `json:"context_lines,omitempty" jsonschema:"Number of source lines to show around the declaration (default 30)"`
}

// traceCallsArgs are the arguments for the trace_calls tool.
type traceCallsArgs struct {
	ID        string `json:"id" jsonschema:"required,Node id to trace from"`
	Direction string `json:"direction,omitempty" jsonschema:"forward (callees) or reverse (callers); default forward"`
	MaxDepth  int    `json:"max_depth,omitempty" jsonschema:"Maximum traversal depth (default 5)"`
	MaxNodes  int    `json:"max_nodes,omitempty" jsonschema:"Maximum nodes to return (default 100)"`
}

// findPathArgs are the arguments for the find_path tool.
type findPathArgs struct {
	From      string   `json:"from" jsonschema:"required,Start node id"`
	To        string   `json:"to" jsonschema:"required,End node id"`
	Relations []string `json:"relations,omitempty" jsonschema:"Edge relations to follow: contains, imports, calls. Empty follows all."`
	MaxDepth  int      `json:"max_depth,omitempty" jsonschema:"Maximum search depth (default 10)"`
}

// registerTools adds the analysis and query tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_project",
		Description: "Analyze a TypeScript/JavaScript project tree and build its code graph: folders, files, functions, classes, import edges, and call edges.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeProjectArgs) (*mcp.CallToolResult, any, error) {
		rootPath := args.Path
		if rootPath == "" {
			rootPath = s.cfg.Root
		}
		absRoot, err := filepath.Abs(rootPath)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid project path: %v", err)), nil, nil
		}

		an := analyzer.New(s.cfg, analyzer.WithProgress(func(p analyzer.Progress) {
			if p.Processed%50 == 0 {
				log.Printf("[server] %s: %d/%d %s", p.Stage, p.Processed, p.Total, p.CurrentFile)
			}
		}))

		pg, warnings, err := an.Analyze(ctx, absRoot)
		if err != nil {
			return errorResult(fmt.Sprintf("analysis failed: %v", err)), nil, nil
		}

		s.SetGraph(pg, warnings)

		if s.st != nil {
			if err := s.st.SaveGraph(pg); err != nil {
				log.Printf("[server] warning: failed to persist graph: %v", err)
			}
		}
		if err := s.writeArtifacts(absRoot, pg); err != nil {
			log.Printf("[server] warning: failed to write artifacts: %v", err)
		}

		funcs, classes := 0, 0
		for _, n := range pg.Nodes {
			switch n.Kind {
			case graph.KindFunction:
				funcs++
			case graph.KindClass:
				classes++
			}
		}

		summary := fmt.Sprintf(
			"Analysis complete.\n\n"+
				"- Root: %s\n"+
				"- Nodes: %d (%d functions, %d classes)\n"+
				"- Edges: %d\n"+
				"- Warnings: %d\n\n"+
				"Use the graph://project/summary resource for an overview.",
			pg.RootPath, len(pg.Nodes), funcs, classes, len(pg.Edges), len(warnings),
		)
		if len(warnings) > 0 {
			summary += "\n\nSkipped files:"
			limit := len(warnings)
			if limit > 10 {
				limit = 10
			}
			for _, w := range warnings[:limit] {
				summary += fmt.Sprintf("\n- %s: %s", w.File, w.Message)
			}
			if len(warnings) > limit {
				summary += fmt.Sprintf("\n- ... and %d more", len(warnings)-limit)
			}
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: summary}},
		}, nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query_nodes",
		Description: "Query graph nodes by kind, path, or name. Returns matching nodes as JSON.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args queryNodesArgs) (*mcp.CallToolResult, any, error) {
		pg, _ := s.current()
		if pg == nil {
			return errorResult("No graph available. Run analyze_project first."), nil, nil
		}

		limit := args.Limit
		if limit <= 0 || limit > 100 {
			limit = 100
		}

		var results []graph.Node
		total := 0
		for _, n := range pg.Nodes {
			if args.Kind != "" && n.Kind != args.Kind {
				continue
			}
			if args.Path != "" && !strings.Contains(n.Path, args.Path) {
				continue
			}
			if args.Name != "" && !strings.Contains(strings.ToLower(n.Name), strings.ToLower(args.Name)) {
				continue
			}
			total++
			if len(results) < limit {
				// Content bloats the response; id + signature is enough to drill in.
				n.Content = ""
				results = append(results, n)
			}
		}

		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal results: %v", err)), nil, nil
		}
		text := string(data)
		if total > len(results) {
			text += fmt.Sprintf("\n\n... (showing %d of %d results, refine your query)", len(results), total)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "show_source",
		Description: "Show source code for a graph node: the actual implementation with surrounding context lines.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args showSourceArgs) (*mcp.CallToolResult, any, error) {
		pg, _ := s.current()
		if pg == nil {
			return errorResult("No graph available. Run analyze_project first."), nil, nil
		}
		if args.ID == "" && args.Name == "" {
			return errorResult("either id or name is required"), nil, nil
		}

		var matches []graph.Node
		for _, n := range pg.Nodes {
			if n.Kind == graph.KindFolder {
				continue
			}
			if args.ID != "" {
				if n.ID == args.ID {
					matches = append(matches, n)
					break
				}
				continue
			}
			if strings.Contains(strings.ToLower(n.Name), strings.ToLower(args.Name)) {
				matches = append(matches, n)
			}
		}
		if len(matches) == 0 {
			return errorResult("No matching nodes."), nil, nil
		}
		if len(matches) > 5 {
			matches = matches[:5]
		}

		contextLines := args.ContextLines
		if contextLines <= 0 {
			contextLines = 30
		}

		var sb strings.Builder
		for i, n := range matches {
			if i > 0 {
				sb.WriteString("\n---\n\n")
			}
			sb.WriteString(fmt.Sprintf("### %s\n", n.Name))
			sb.WriteString(fmt.Sprintf("Id: `%s`  File: %s  Line: %d\n", n.ID, n.Path, n.Line))
			if n.Signature != "" {
				sb.WriteString(fmt.Sprintf("Signature:\n```\n%s\n```\n", n.Signature))
			}
			sb.WriteString("\n")

			centerLine := n.Line
			if centerLine < 1 {
				centerLine = 1
			}
			absFile := filepath.Join(pg.RootPath, filepath.FromSlash(n.Path))
			source, err := readSourceWindow(absFile, centerLine, contextLines)
			if err != nil {
				sb.WriteString(fmt.Sprintf("_Could not read source: %v_\n", err))
				continue
			}
			sb.WriteString(fmt.Sprintf("```typescript\n%s\n```\n", source))
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: sb.String()}},
		}, nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "trace_calls",
		Description: "Trace the call graph from a node: forward for callees, reverse for callers. Returns visited nodes and call edges as JSON.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args traceCallsArgs) (*mcp.CallToolResult, any, error) {
		_, idx := s.current()
		if idx == nil {
			return errorResult("No graph available. Run analyze_project first."), nil, nil
		}
		if !idx.HasNode(args.ID) {
			return errorResult(fmt.Sprintf("Unknown node id %q.", args.ID)), nil, nil
		}

		direction := args.Direction
		if direction != "reverse" {
			direction = "forward"
		}

		result := idx.Traverse(args.ID, direction, []string{graph.RelCalls}, args.MaxDepth, args.MaxNodes)
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal result: %v", err)), nil, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_path",
		Description: "Find the shortest path between two graph nodes, optionally restricted to specific edge relations.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args findPathArgs) (*mcp.CallToolResult, any, error) {
		_, idx := s.current()
		if idx == nil {
			return errorResult("No graph available. Run analyze_project first."), nil, nil
		}
		if !idx.HasNode(args.From) {
			return errorResult(fmt.Sprintf("Unknown node id %q.", args.From)), nil, nil
		}
		if !idx.HasNode(args.To) {
			return errorResult(fmt.Sprintf("Unknown node id %q.", args.To)), nil, nil
		}

		result := idx.FindPath(args.From, args.To, args.Relations, args.MaxDepth)
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal result: %v", err)), nil, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	})
}

// writeArtifacts dumps the graph JSON, the markdown summary, and the
// embedding texts into the output directory under the project root.
func (s *Server) writeArtifacts(absRoot string, pg *graph.ProjectGraph) error {
	outDir := filepath.Join(absRoot, s.cfg.Output.Dir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	graphJSON, err := json.MarshalIndent(pg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling graph: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "graph.json"), graphJSON, 0o644); err != nil {
		return fmt.Errorf("writing graph.json: %w", err)
	}

	summary := render.NewSummary(s.cfg.Output.SummaryChars).Render(pg)
	if err := os.WriteFile(filepath.Join(outDir, "summary.md"), []byte(summary), 0o644); err != nil {
		return fmt.Errorf("writing summary.md: %w", err)
	}

	embeds, err := json.MarshalIndent(render.BuildEmbedTexts(pg), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling embeddings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "embeddings.json"), embeds, 0o644); err != nil {
		return fmt.Errorf("writing embeddings.json: %w", err)
	}

	log.Printf("[server] wrote artifacts to %s", outDir)
	return nil
}

// readSourceWindow reads lines from a file centered around the given line number.
func readSourceWindow(absFile string, centerLine, contextLines int) (string, error) {
	data, err := os.ReadFile(absFile)
	if err != nil {
		return "", err
	}

	lines := strings.Split(string(data), "\n")
	startLine := centerLine - contextLines/2
	if startLine < 1 {
		startLine = 1
	}
	endLine := centerLine + contextLines/2
	if endLine > len(lines) {
		endLine = len(lines)
	}

	var sb strings.Builder
	for i := startLine; i <= endLine; i++ {
		sb.WriteString(fmt.Sprintf("%4d| %s\n", i, lines[i-1]))
	}
	return sb.String(), nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
