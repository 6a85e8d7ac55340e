/// Package render produces derived artifacts from a project graph: a compact
// markdown summary and per-node embedding texts.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sh3xu/codegraph/internal/graph"
	"github.com/sh3xu/codegraph/internal/insights/cycles"
)

// SummaryRenderer produces a compact markdown overview of a project graph.
type SummaryRenderer struct {
	maxChars int
}

// NewSummary creates a SummaryRenderer with the given character budget.
func NewSummary(maxChars int) *SummaryRenderer {
	if maxChars <= 0 {
		maxChars = 16000
	}
	return &SummaryRenderer{maxChars: maxChars}
}

// section holds a rendered section with its display name.
type section struct {
	name    string
	content string
}

// Render produces the summary markdown using progressive summarization.
// Sections are ordered by priority; lower-priority sections are omitted
// first when the character budget is tight.
func (r *SummaryRenderer) Render(pg *graph.ProjectGraph) string {
	sections := []section{
		{"Overview", r.renderOverview(pg)},
		{"Folder Map", r.renderFolderMap(pg)},
		{"Hub Files", r.renderHubFiles(pg)},
		{"Most Called", r.renderMostCalled(pg)},
		{"Import Cycles", r.renderCycles(pg)},
		{"Meta", r.renderMeta(pg)},
	}

	header := "# Code Graph Summary\n\n"
	remaining := r.maxChars - len(header)

	var sb strings.Builder
	sb.WriteString(header)

	for i, sec := range sections {
		if sec.content == "" {
			continue
		}
		if len(sec.content) <= remaining {
			sb.WriteString(sec.content)
			remaining -= len(sec.content)
		} else if remaining > 200 {
			// Partially include this section, cutting on a rune boundary
			// so the output stays valid UTF-8.
			cutpoint := remaining - 100
			for cutpoint > 0 && !utf8.RuneStart(sec.content[cutpoint]) {
				cutpoint--
			}
			sb.WriteString(sec.content[:cutpoint])
			sb.WriteString(fmt.Sprintf("\n\n---\n*[Truncated in: %s]*\n", sec.name))
			break
		} else {
			var omitted []string
			for _, s := range sections[i:] {
				if s.content != "" {
					omitted = append(omitted, s.name)
				}
			}
			sb.WriteString(fmt.Sprintf("\n\n---\n*[Omitted: %s]*\n", strings.Join(omitted, ", ")))
			break
		}
	}

	return sb.String()
}

func (r *SummaryRenderer) renderOverview(pg *graph.ProjectGraph) string {
	kindCounts := make(map[string]int)
	for _, n := range pg.Nodes {
		kindCounts[n.Kind]++
	}
	relCounts := make(map[string]int)
	for _, e := range pg.Edges {
		relCounts[e.Relation]++
	}

	var sb strings.Builder
	sb.WriteString("## Overview\n\n")
	sb.WriteString(fmt.Sprintf("Root: `%s`\n\n", pg.RootPath))
	sb.WriteString("| Kind | Count |\n")
	sb.WriteString("|------|-------|\n")
	for _, kind := range []string{graph.KindFolder, graph.KindFile, graph.KindFunction, graph.KindClass} {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", kind, kindCounts[kind]))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Edges: %d contains, %d imports, %d calls.\n\n",
		relCounts[graph.RelContains], relCounts[graph.RelImports], relCounts[graph.RelCalls]))
	return sb.String()
}

func (r *SummaryRenderer) renderFolderMap(pg *graph.ProjectGraph) string {
	// Count files per folder via parent links on file nodes.
	fileCounts := make(map[string]int)
	folderNames := make(map[string]string)
	for _, n := range pg.Nodes {
		switch n.Kind {
		case graph.KindFolder:
			folderNames[n.ID] = n.Path
		case graph.KindFile:
			if n.Parent != "" {
				fileCounts[n.Parent]++
			}
		}
	}
	if len(folderNames) == 0 {
		return ""
	}

	type folderRow struct {
		path  string
		files int
	}
	rows := make([]folderRow, 0, len(folderNames))
	for id, path := range folderNames {
		rows = append(rows, folderRow{path: path, files: fileCounts[id]})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].files != rows[j].files {
			return rows[i].files > rows[j].files
		}
		return rows[i].path < rows[j].path
	})
	if len(rows) > 20 {
		rows = rows[:20]
	}

	var sb strings.Builder
	sb.WriteString("## Folder Map\n\n")
	sb.WriteString("| Folder | Files |\n")
	sb.WriteString("|--------|-------|\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| `%s` | %d |\n", row.path, row.files))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *SummaryRenderer) renderHubFiles(pg *graph.ProjectGraph) string {
	fanIn := make(map[string]int)
	fanOut := make(map[string]int)
	for _, e := range pg.Edges {
		if e.Relation != graph.RelImports {
			continue
		}
		fanOut[e.From]++
		fanIn[e.To]++
	}

	type fileScore struct {
		path   string
		fanIn  int
		fanOut int
		score  int
	}
	var scored []fileScore
	for _, n := range pg.Nodes {
		if n.Kind != graph.KindFile {
			continue
		}
		s := fileScore{
			path:   n.Path,
			fanIn:  fanIn[n.ID],
			fanOut: fanOut[n.ID],
		}
		s.score = s.fanIn + s.fanOut
		if s.score > 0 {
			scored = append(scored, s)
		}
	}
	if len(scored) == 0 {
		return ""
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].path < scored[j].path
	})
	if len(scored) > 10 {
		scored = scored[:10]
	}

	var sb strings.Builder
	sb.WriteString("## Hub Files\n\n")
	sb.WriteString("| File | Imported By | Imports |\n")
	sb.WriteString("|------|-------------|---------|\n")
	for _, s := range scored {
		sb.WriteString(fmt.Sprintf("| `%s` | %d | %d |\n", s.path, s.fanIn, s.fanOut))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *SummaryRenderer) renderMostCalled(pg *graph.ProjectGraph) string {
	names := make(map[string]string)
	for _, n := range pg.Nodes {
		names[n.ID] = n.Name
	}

	callsIn := make(map[string]int)
	for _, e := range pg.Edges {
		if e.Relation == graph.RelCalls {
			callsIn[e.To] += e.CallCount
		}
	}
	if len(callsIn) == 0 {
		return ""
	}

	type callRow struct {
		id    string
		count int
	}
	rows := make([]callRow, 0, len(callsIn))
	for id, count := range callsIn {
		rows = append(rows, callRow{id: id, count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].id < rows[j].id
	})
	if len(rows) > 15 {
		rows = rows[:15]
	}

	var sb strings.Builder
	sb.WriteString("## Most Called\n\n")
	sb.WriteString("| Function | Call Sites | Id |\n")
	sb.WriteString("|----------|------------|----|\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| `%s` | %d | `%s` |\n", names[row.id], row.count, row.id))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *SummaryRenderer) renderCycles(pg *graph.ProjectGraph) string {
	found := cycles.Detect(pg)
	if len(found) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Import Cycles\n\n")
	for _, c := range found {
		sb.WriteString(fmt.Sprintf("- %d files: %s\n", len(c.Files), c.Path))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *SummaryRenderer) renderMeta(pg *graph.ProjectGraph) string {
	var sb strings.Builder
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Generated at %s. %d nodes, %d edges.*\n",
		time.Now().UTC().Format(time.RFC3339), len(pg.Nodes), len(pg.Edges)))
	return sb.String()
}
