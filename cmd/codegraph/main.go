package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sh3xu/codegraph/internal/analyzer"
	"github.com/sh3xu/codegraph/internal/config"
	"github.com/sh3xu/codegraph/internal/server"
	"github.com/sh3xu/codegraph/internal/storage"
)

func main() {
	// Ensure log output goes to stderr, never stdout (MCP uses stdout for JSON-RPC)
	log.SetOutput(os.Stderr)

	ctx := context.Background()

	// Check for --analyze flag
	analyzeMode := false
	cfgPath := "codegraph.yaml"
	for _, arg := range os.Args[1:] {
		if arg == "--analyze" {
			analyzeMode = true
		} else {
			cfgPath = arg
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// If config file doesn't exist, use defaults
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}

	absRoot, err := filepath.Abs(cfg.Root)
	if err != nil {
		log.Fatalf("failed to resolve project root: %v", err)
	}

	dbPath := cfg.Database
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(absRoot, dbPath)
	}
	st, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open graph store: %v", err)
	}
	defer st.Close()

	srv, err := server.New(cfg, st)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	// One-shot analysis mode
	if analyzeMode {
		an := analyzer.New(cfg)
		pg, warnings, err := an.Analyze(ctx, absRoot)
		if err != nil {
			log.Fatalf("analysis failed: %v", err)
		}
		if err := st.SaveGraph(pg); err != nil {
			log.Fatalf("failed to persist graph: %v", err)
		}

		fmt.Fprintf(os.Stderr, "\nAnalysis complete:\n")
		fmt.Fprintf(os.Stderr, "  Root:      %s\n", pg.RootPath)
		fmt.Fprintf(os.Stderr, "  Nodes:     %d\n", len(pg.Nodes))
		fmt.Fprintf(os.Stderr, "  Edges:     %d\n", len(pg.Edges))
		fmt.Fprintf(os.Stderr, "  Warnings:  %d\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "    %s: %s\n", w.File, w.Message)
		}
		fmt.Fprintf(os.Stderr, "  Database:  %s\n", dbPath)
		os.Exit(0)
	}

	// Auto-load the persisted graph if available (so queries work immediately
	// without requiring an analyze_project call first).
	if pg, err := st.LoadGraph(); err == nil {
		srv.SetGraph(pg, nil)
		log.Printf("[main] loaded persisted graph: %d nodes, %d edges", len(pg.Nodes), len(pg.Edges))
	} else if !errors.Is(err, storage.ErrNoGraph) {
		log.Printf("[main] warning: failed to load persisted graph: %v", err)
	}

	// MCP server mode (default)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
