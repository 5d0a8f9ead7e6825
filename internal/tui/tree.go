package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kluth/extension-auditter/internal/pipeline"
)

// stageTree renders the analysis stage dependency graph as a tree. Stages
// with multiple dependencies hang under their first one and list the rest
// inline. When a run result is present, each stage shows its score.
func stageTree(res *pipeline.AggregateResult) string {
	registry := pipeline.StageRegistry()

	children := map[string][]pipeline.StageInfo{}
	var roots []pipeline.StageInfo
	for _, info := range registry {
		if len(info.Requires) == 0 {
			roots = append(roots, info)
			continue
		}
		parent := info.Requires[0]
		children[parent] = append(children[parent], info)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorHilight).Render("Analysis Stages"))
	b.WriteString("\n\n")
	for _, root := range roots {
		renderStageNode(&b, root, children, res, "", "")
	}
	return b.String()
}

func renderStageNode(b *strings.Builder, info pipeline.StageInfo, children map[string][]pipeline.StageInfo, res *pipeline.AggregateResult, linePrefix, childIndent string) {
	label := info.Name
	style := lipgloss.NewStyle().Foreground(colorText)
	if res != nil {
		if score, ok := res.Scores[info.Name]; ok {
			label = fmt.Sprintf("%s (%.1f)", info.Name, score)
			style = StageScoreBarStyle(score)
		}
	}

	b.WriteString(linePrefix + style.Render(label))
	if len(info.Requires) > 1 {
		also := strings.Join(info.Requires[1:], ", ")
		b.WriteString(SubtitleStyle.Render(" (also after " + also + ")"))
	}
	b.WriteString("  ")
	b.WriteString(SubtitleStyle.Render(info.Description))
	b.WriteString("\n")

	kids := children[info.Name]
	for i, kid := range kids {
		conn := "├── "
		nextIndent := childIndent + "│   "
		if i == len(kids)-1 {
			conn = "└── "
			nextIndent = childIndent + "    "
		}
		renderStageNode(b, kid, children, res, childIndent+conn, nextIndent)
	}
}
