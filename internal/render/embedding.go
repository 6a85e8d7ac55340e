package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sh3xu/codegraph/internal/graph"
)

// EmbedText pairs a node id with a textual representation suitable for
// feeding to an embedding model or a full-text index.
type EmbedText struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

const maxEmbedChars = 2000

// BuildEmbedTexts derives one EmbedText per function, class, and file node,
// in graph order. Folder nodes are skipped because they carry no source.
func BuildEmbedTexts(pg *graph.ProjectGraph) []EmbedText {
	out := make([]EmbedText, 0, len(pg.Nodes))
	for _, n := range pg.Nodes {
		if n.Kind == graph.KindFolder {
			continue
		}
		out = append(out, EmbedText{ID: n.ID, Text: embedTextFor(&n)})
	}
	return out
}

func embedTextFor(n *graph.Node) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s (%s", n.Kind, n.Name, n.Path))
	if n.Line > 0 {
		sb.WriteString(fmt.Sprintf(":%d", n.Line))
	}
	sb.WriteString(")\n")

	if n.Signature != "" {
		sb.WriteString(n.Signature)
		sb.WriteString("\n")
	}
	if n.DocComment != "" {
		sb.WriteString(n.DocComment)
		sb.WriteString("\n")
	}
	if n.Content != "" {
		sb.WriteString(n.Content)
	}

	text := sb.String()
	if len(text) > maxEmbedChars {
		cut := maxEmbedChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return strings.TrimSpace(text)
}
