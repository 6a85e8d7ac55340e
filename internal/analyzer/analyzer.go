package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sh3xu/codegraph/internal/config"
	"github.com/sh3xu/codegraph/internal/graph"

	sitter "github.com/tree-sitter/go-tree-sitter"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ErrNoSources is returned when the filtered source set is empty. It is the
// one engine condition surfaced as a terminal failure; everything else
// degrades into warnings and a smaller graph.
var ErrNoSources = errors.New("no analyzable source found")

// Warning records a recoverable per-file failure (unreadable or oversized
// file). The file is skipped and the run continues.
type Warning struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Analyzer runs the two-pass extraction over a source tree. It holds no state
// between runs; every Analyze call builds and discards its own context.
type Analyzer struct {
	cfg      *config.Config
	resolver SymbolResolver
	progress ProgressFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithResolver replaces the default import-binding symbol resolver used for
// tier-2 callee resolution.
func WithResolver(r SymbolResolver) Option {
	return func(a *Analyzer) { a.resolver = r }
}

// WithProgress installs an advisory progress callback. Events never affect
// the computed graph.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// New creates an Analyzer with the given config.
func New(cfg *config.Config, opts ...Option) *Analyzer {
	a := &Analyzer{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the project graph for the tree rooted at rootPath.
// Pass 1 registers every file, function, class, and method plus import edges;
// pass 2 resolves call edges against the completed registry. Per-file parse
// failures are returned as warnings alongside the graph.
func (a *Analyzer) Analyze(ctx context.Context, rootPath string) (*graph.ProjectGraph, []Warning, error) {
	start := time.Now()

	if rootPath == "" {
		rootPath = a.cfg.Root
	}
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving root path: %w", err)
	}

	files, err := listSources(absRoot, a.cfg.Ignore)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w under %s", ErrNoSources, absRoot)
	}
	log.Printf("[analyzer] found %d source files in %s", len(files), absRoot)

	pc := newPassContext(absRoot, files, a.cfg)

	// Pass 1: symbol registry and import edges. Files are visited in sorted
	// order so the last-writer-wins name registry has a deterministic winner.
	for i, relFile := range files {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		a.report(StageSymbols, i, len(files), relFile)
		if err := a.pass1File(pc, relFile); err != nil {
			pc.warn(relFile, err)
		}
	}
	log.Printf("[analyzer] pass 1 complete: %d nodes registered", pc.builder.NodeCount())

	resolver := a.resolver
	if resolver == nil {
		resolver = newImportResolver(pc.bindings)
	}

	// Pass 2: call edges. Requires the complete registry from pass 1.
	for i, relFile := range files {
		if pc.failed[relFile] {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		a.report(StageCalls, i, len(files), relFile)
		if err := a.pass2File(pc, resolver, relFile); err != nil {
			pc.warn(relFile, err)
		}
	}

	g := pc.builder.Finalize()
	log.Printf("[analyzer] graph assembled: %d nodes, %d edges, %d warnings in %s",
		len(g.Nodes), len(g.Edges), len(pc.warnings), time.Since(start))
	return g, pc.warnings, nil
}

// passContext is the per-invocation analysis context. The registries the two
// passes share live here and nowhere else, so concurrent analyses of
// different projects cannot interfere.
type passContext struct {
	rootPath string
	builder  *graph.Builder

	fileSet     map[string]struct{}          // surviving source files, for import resolution
	seenFolders map[string]bool              // folder ids already emitted
	aliases     map[string]string            // tsconfig path alias prefix -> replacement
	bindings    map[string]map[string]string // file -> imported local name -> internal file
	declAt      map[string]map[uint]string   // file -> declaration start byte -> node id

	fileContentLimit   int
	entityContentLimit int
	maxFileSize        int64

	warnings []Warning
	failed   map[string]bool
}

func newPassContext(absRoot string, files []string, cfg *config.Config) *passContext {
	pc := &passContext{
		rootPath:           absRoot,
		builder:            graph.NewBuilder(absRoot),
		fileSet:            make(map[string]struct{}, len(files)),
		seenFolders:        make(map[string]bool),
		aliases:            parsePathAliases(absRoot),
		bindings:           make(map[string]map[string]string),
		declAt:             make(map[string]map[uint]string),
		fileContentLimit:   cfg.Limits.FileContent,
		entityContentLimit: cfg.Limits.EntityContent,
		maxFileSize:        cfg.MaxFileSize,
		failed:             make(map[string]bool),
	}
	for _, f := range files {
		pc.fileSet[f] = struct{}{}
	}
	return pc
}

func (pc *passContext) warn(relFile string, err error) {
	pc.failed[relFile] = true
	pc.warnings = append(pc.warnings, Warning{File: relFile, Message: err.Error()})
	log.Printf("[analyzer] skipping %s: %v", relFile, err)
}

// readSource reads one source file, enforcing the configured size cap.
func (pc *passContext) readSource(relFile string) ([]byte, error) {
	info, err := os.Stat(filepath.Join(pc.rootPath, filepath.FromSlash(relFile)))
	if err != nil {
		return nil, err
	}
	if pc.maxFileSize > 0 && info.Size() > pc.maxFileSize {
		return nil, fmt.Errorf("file size %d exceeds limit %d", info.Size(), pc.maxFileSize)
	}
	return os.ReadFile(filepath.Join(pc.rootPath, filepath.FromSlash(relFile)))
}

// languageFor picks the tree-sitter grammar by extension.
func languageFor(relFile string) *sitter.Language {
	switch ext(relFile) {
	case ".tsx":
		return sitter.NewLanguage(typescript.LanguageTSX())
	case ".ts", ".mts", ".cts":
		return sitter.NewLanguage(typescript.LanguageTypescript())
	default:
		return sitter.NewLanguage(javascript.Language())
	}
}
