// Package storage persists project graphs in a SQLite database so that a
// server restart can serve the last analysis without re-parsing the tree.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sh3xu/codegraph/internal/graph"
)

// ErrNoGraph is returned by LoadGraph when the database holds no saved run.
var ErrNoGraph = errors.New("no saved graph")

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	path        TEXT NOT NULL,
	line        INTEGER NOT NULL,
	parent      TEXT NOT NULL,
	content     TEXT NOT NULL,
	signature   TEXT NOT NULL,
	doc_comment TEXT NOT NULL,
	position    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS edges (
	from_id    TEXT NOT NULL,
	to_id      TEXT NOT NULL,
	relation   TEXT NOT NULL,
	call_count INTEGER NOT NULL,
	position   INTEGER NOT NULL,
	PRIMARY KEY (from_id, relation, to_id)
);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to   ON edges(to_id);
`

// Store wraps a SQLite database holding at most one saved graph.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGraph replaces the stored graph with pg in a single transaction.
func (s *Store) SaveGraph(pg *graph.ProjectGraph) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "edges"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	nodeStmt, err := tx.Prepare(`INSERT INTO nodes
		(id, name, kind, path, line, parent, content, signature, doc_comment, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()

	for i, n := range pg.Nodes {
		if _, err := nodeStmt.Exec(n.ID, n.Name, n.Kind, n.Path, n.Line,
			n.Parent, n.Content, n.Signature, n.DocComment, i); err != nil {
			return fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.Prepare(`INSERT INTO edges
		(from_id, to_id, relation, call_count, position)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for i, e := range pg.Edges {
		if _, err := edgeStmt.Exec(e.From, e.To, e.Relation, e.CallCount, i); err != nil {
			return fmt.Errorf("inserting edge %s->%s: %w", e.From, e.To, err)
		}
	}

	meta := map[string]string{
		"root_path":    pg.RootPath,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing graph: %w", err)
	}
	return nil
}

// LoadGraph reads the stored graph back in its original order. It returns
// ErrNoGraph when no run has been saved.
func (s *Store) LoadGraph() (*graph.ProjectGraph, error) {
	var rootPath string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'root_path'`).Scan(&rootPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoGraph
	}
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}

	pg := &graph.ProjectGraph{RootPath: rootPath}

	rows, err := s.db.Query(`SELECT id, name, kind, path, line, parent,
		content, signature, doc_comment FROM nodes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n graph.Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Kind, &n.Path, &n.Line,
			&n.Parent, &n.Content, &n.Signature, &n.DocComment); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		pg.Nodes = append(pg.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}

	erows, err := s.db.Query(`SELECT from_id, to_id, relation, call_count
		FROM edges ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer erows.Close()
	for erows.Next() {
		var e graph.Edge
		if err := erows.Scan(&e.From, &e.To, &e.Relation, &e.CallCount); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		pg.Edges = append(pg.Edges, e)
	}
	if err := erows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}

	return pg, nil
}

// GeneratedAt returns the timestamp recorded by the last SaveGraph call.
func (s *Store) GeneratedAt() (time.Time, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'generated_at'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNoGraph
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading meta: %w", err)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing generated_at: %w", err)
	}
	return t, nil
}
