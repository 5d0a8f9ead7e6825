package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/kluth/extension-auditter/internal/analyzer"
	"github.com/kluth/extension-auditter/internal/pipeline"
)

// ANSI color codes
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorWhite   = "\033[37m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
)

const reportWidth = 74

// Reporter renders a completed run to a writer.
type Reporter struct {
	writer io.Writer
	format string
}

// Formats
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatPDF      = "pdf"
	FormatSARIF    = "sarif"
)

// New creates a new Reporter.
func New(w io.Writer, format string) *Reporter {
	if format == "" {
		format = FormatTerminal
	}
	return &Reporter{writer: w, format: format}
}

// stageOrder fixes the display order across all formats.
var stageOrder = []string{
	analyzer.StageMetadata,
	analyzer.StagePermissions,
	analyzer.StageCodeBehavior,
	analyzer.StageNetwork,
	analyzer.StageThreatIntel,
	analyzer.StageCVE,
	analyzer.StageInsight,
}

// Render outputs the run result in the configured format.
func (r *Reporter) Render(res *pipeline.AggregateResult) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(res)
	case FormatMarkdown:
		return r.renderMarkdown(res)
	case FormatPDF:
		return r.renderPDF(res)
	case FormatSARIF:
		return r.renderSARIF(res)
	default:
		return r.renderTerminal(res)
	}
}

// stageFinding pairs a finding with the stage that produced it.
type stageFinding struct {
	Stage string
	analyzer.Finding
}

// collectFindings flattens per-stage findings, highest severity first.
func collectFindings(res *pipeline.AggregateResult) []stageFinding {
	var all []stageFinding
	for _, name := range stageOrder {
		sr, ok := res.Results[name]
		if !ok {
			continue
		}
		for _, f := range sr.Findings {
			all = append(all, stageFinding{Stage: name, Finding: f})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Severity > all[j].Severity
	})
	return all
}

func (r *Reporter) renderJSON(res *pipeline.AggregateResult) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (r *Reporter) renderTerminal(res *pipeline.AggregateResult) error {
	w := r.writer

	r.printLogo(w)
	fmt.Fprintln(w)

	allFindings := collectFindings(res)
	severityCounts := map[analyzer.Severity]int{}
	for _, f := range allFindings {
		severityCounts[f.Severity]++
	}

	vColor := verdictColor(res.Verdict)

	// ── Verdict Banner ──
	fmt.Fprintf(w, "%s%s╔══════════════════════════════════════════════════════════════════════╗%s\n", colorBold, vColor, colorReset)
	fmt.Fprintf(w, "%s%s║  %s%-66s  %s║%s\n", colorBold, vColor, colorBold, "ANALYSIS RESULT", vColor, colorReset)
	fmt.Fprintf(w, "%s%s╠══════════════════════════════════════════════════════════════════════╣%s\n", colorBold, vColor, colorReset)
	fmt.Fprintf(w, "%s%s║%s  %-68s%s║%s\n", colorBold, vColor, colorReset, fmt.Sprintf("Run: %s", res.RunID), vColor, colorReset)
	fmt.Fprintf(w, "%s%s║%s  %-68s%s║%s\n", colorBold, vColor, colorReset, fmt.Sprintf("Risk Score: %.1f/50", res.FinalScore), vColor, colorReset)
	fmt.Fprintf(w, "%s%s║%s  %-68s%s║%s\n", colorBold, vColor, colorReset, "", vColor, colorReset)
	fmt.Fprintf(w, "%s%s║%s  %s%-66s%s  %s║%s\n", colorBold, vColor, colorBold, vColor, verdictHeadline(res.Verdict), colorReset, vColor, colorReset)
	fmt.Fprintf(w, "%s%s╚══════════════════════════════════════════════════════════════════════╝%s\n", colorBold, vColor, colorReset)
	fmt.Fprintln(w)

	// Quick stats line
	if len(allFindings) > 0 {
		stats := []string{}
		if c := severityCounts[analyzer.SeverityCritical]; c > 0 {
			stats = append(stats, fmt.Sprintf("%s%d CRITICAL%s", colorRed, c, colorReset))
		}
		if c := severityCounts[analyzer.SeverityHigh]; c > 0 {
			stats = append(stats, fmt.Sprintf("%s%d HIGH%s", colorRed, c, colorReset))
		}
		if c := severityCounts[analyzer.SeverityMedium]; c > 0 {
			stats = append(stats, fmt.Sprintf("%s%d MEDIUM%s", colorYellow, c, colorReset))
		}
		if c := severityCounts[analyzer.SeverityLow]; c > 0 {
			stats = append(stats, fmt.Sprintf("%s%d LOW%s", colorDim, c, colorReset))
		}
		fmt.Fprintf(w, "  Findings: %s\n\n", strings.Join(stats, " · "))
	}

	// ── Stage Scores ──
	r.printSectionHeader(w, "Stage Scores")
	for _, name := range stageOrder {
		score, ok := res.Scores[name]
		if !ok {
			continue
		}
		r.printScoreBar(w, name, score)
	}
	fmt.Fprintln(w)

	// ── Score Adjustments ──
	if len(res.Bonuses) > 0 || len(res.Maluses) > 0 {
		r.printSectionHeader(w, "Score Adjustments")
		for _, name := range sortedKeys(res.Bonuses) {
			fmt.Fprintf(w, "  %s+%.1f%s  %s\n", colorGreen, res.Bonuses[name], colorReset, name)
		}
		for _, name := range sortedKeys(res.Maluses) {
			fmt.Fprintf(w, "  %s%.1f%s  %s\n", colorRed, res.Maluses[name], colorReset, name)
		}
		fmt.Fprintln(w)
	}

	// ── Findings ──
	if len(allFindings) == 0 {
		r.printBox(w, " No findings. The extension looks clean.", colorGreen)
		fmt.Fprintln(w)
	} else {
		r.printSectionHeader(w, "Findings")

		severityOrder := []analyzer.Severity{
			analyzer.SeverityCritical,
			analyzer.SeverityHigh,
			analyzer.SeverityMedium,
			analyzer.SeverityLow,
		}
		for _, sev := range severityOrder {
			findings := filterBySeverity(allFindings, sev)
			if len(findings) == 0 {
				continue
			}

			sevColor := severityColor(sev)
			fmt.Fprintf(w, "\n%s%s%s %s (%d)%s\n", colorBold, sevColor, severityIcon(sev), strings.ToUpper(sev.String()), len(findings), colorReset)
			fmt.Fprintf(w, "%s%s%s\n", colorDim, strings.Repeat("─", reportWidth), colorReset)

			for _, f := range findings {
				fmt.Fprintf(w, "  %s%s%s %s\n", sevColor, severityIcon(sev), colorReset, f.Message)
				fmt.Fprintf(w, "    %sstage: %s%s\n", colorDim, f.Stage, colorReset)
				if f.File != "" {
					fmt.Fprintf(w, "    %sfile: %s%s\n", colorDim, f.File, colorReset)
				}
				if f.Matches > 0 {
					fmt.Fprintf(w, "    %smatches: %d%s\n", colorDim, f.Matches, colorReset)
				}
				for _, u := range f.URLs {
					fmt.Fprintf(w, "    %s%s%s\n", colorDim, u, colorReset)
				}
				for _, d := range f.Domains {
					fmt.Fprintf(w, "    %s%s%s\n", colorDim, d, colorReset)
				}
			}
		}
		fmt.Fprintln(w)
	}

	// ── Assessment ──
	if insight, ok := res.Results[analyzer.StageInsight]; ok && insight.Data != nil {
		r.printSectionHeader(w, "Assessment")
		if s := dataString(insight.Data, "summary"); s != "" {
			r.printWrapped(w, s, "  ", reportWidth)
			fmt.Fprintln(w)
		}
		for _, line := range dataStrings(insight.Data, "contextual_analysis") {
			fmt.Fprintf(w, "  %s•%s ", colorCyan, colorReset)
			r.printWrapped(w, line, "    ", reportWidth)
		}

		scenarios := dataScenarios(insight.Data)
		if len(scenarios) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  %s%sPossible attack scenarios%s\n", colorBold, colorMagenta, colorReset)
			for _, sc := range scenarios {
				fmt.Fprintf(w, "    %s%s%s (likelihood %s, impact %s)\n", colorBold, sc.Title, colorReset, sc.Likelihood, sc.Impact)
				r.printWrapped(w, sc.Description, "      ", reportWidth)
			}
		}

		if recs := dataStrings(insight.Data, "recommendations"); len(recs) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  %s%sRecommendations%s\n", colorBold, colorGreen, colorReset)
			for _, rec := range recs {
				fmt.Fprintf(w, "    □ %s\n", rec)
			}
		}
		fmt.Fprintln(w)
	}

	// ── Footer ──
	fmt.Fprintf(w, "%s%s%s\n", colorDim, strings.Repeat("═", reportWidth), colorReset)
	fmt.Fprintf(w, "%sCompleted at %s%s\n\n", colorDim, res.CompletedAt.Format(time.RFC3339), colorReset)

	return nil
}

func (r *Reporter) printLogo(w io.Writer) {
	logo := `
   ___          _ _ _   _
  / _ \        | (_) | | |
 / /_\ \_   _ _| |_| |_| |_ ___ _ __
 |  _  | | | / _` + "`" + ` | | __| __/ _ \ '__|
 | | | | |_| | (_| | | |_| ||  __/ |
 \_| |_/\__,_|\__,_|_|\__|\__\___|_|
`
	fmt.Fprintf(w, "%s%s%s\n", colorBold, colorMagenta, logo)
	fmt.Fprintf(w, " %s%s Browser Extension Audit %s\n", colorCyan, strings.Repeat("━", 10), colorReset)
}

func (r *Reporter) renderMarkdown(res *pipeline.AggregateResult) error {
	w := r.writer
	fmt.Fprintf(w, "# Extension Analysis Report\n\n")
	fmt.Fprintf(w, "- **Run**: %s\n", res.RunID)
	fmt.Fprintf(w, "- **Status**: %s\n", res.Status)
	fmt.Fprintf(w, "- **Risk Score**: %.1f/50\n", res.FinalScore)
	fmt.Fprintf(w, "- **Verdict**: %s\n\n", res.Verdict)

	fmt.Fprintf(w, "## Stage Scores\n\n")
	fmt.Fprintf(w, "| Stage | Score |\n|---|---|\n")
	for _, name := range stageOrder {
		if score, ok := res.Scores[name]; ok {
			fmt.Fprintf(w, "| %s | %.1f |\n", name, score)
		}
	}
	fmt.Fprintln(w)

	if len(res.Bonuses) > 0 || len(res.Maluses) > 0 {
		fmt.Fprintf(w, "## Score Adjustments\n\n")
		for _, name := range sortedKeys(res.Bonuses) {
			fmt.Fprintf(w, "- `%s`: +%.1f\n", name, res.Bonuses[name])
		}
		for _, name := range sortedKeys(res.Maluses) {
			fmt.Fprintf(w, "- `%s`: %.1f\n", name, res.Maluses[name])
		}
		fmt.Fprintln(w)
	}

	allFindings := collectFindings(res)
	if len(allFindings) == 0 {
		fmt.Fprintf(w, "> No findings. The extension looks clean.\n\n")
	} else {
		fmt.Fprintf(w, "## Findings\n\n")
		for _, f := range allFindings {
			emoji := "🔹"
			switch f.Severity {
			case analyzer.SeverityCritical:
				emoji = "🛑"
			case analyzer.SeverityHigh:
				emoji = "⚠️"
			case analyzer.SeverityMedium:
				emoji = "🔸"
			}
			fmt.Fprintf(w, "### %s [%s] %s\n\n", emoji, f.Severity, f.Message)
			fmt.Fprintf(w, "- **Stage**: %s\n", f.Stage)
			if f.File != "" {
				fmt.Fprintf(w, "- **File**: `%s`\n", f.File)
			}
			if f.Matches > 0 {
				fmt.Fprintf(w, "- **Matches**: %d\n", f.Matches)
			}
			for _, u := range f.URLs {
				fmt.Fprintf(w, "- <%s>\n", u)
			}
			for _, d := range f.Domains {
				fmt.Fprintf(w, "- `%s`\n", d)
			}
			fmt.Fprintf(w, "\n---\n\n")
		}
	}

	if insight, ok := res.Results[analyzer.StageInsight]; ok && insight.Data != nil {
		if s := dataString(insight.Data, "summary"); s != "" {
			fmt.Fprintf(w, "## Assessment\n\n%s\n\n", s)
		}
		if recs := dataStrings(insight.Data, "recommendations"); len(recs) > 0 {
			fmt.Fprintf(w, "### Recommendations\n\n")
			for _, rec := range recs {
				fmt.Fprintf(w, "- [ ] %s\n", rec)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "*Completed at %s*\n", res.CompletedAt.Format(time.RFC3339))
	return nil
}

// pdfPageLimit is the maximum number of pages for a single run report.
const pdfPageLimit = 2

func (r *Reporter) renderPDF(res *pipeline.AggregateResult) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	startPage := pdf.PageNo()

	red := []int{215, 58, 73}
	gray := []int{106, 115, 125}
	dark := []int{36, 41, 46}
	green := []int{40, 167, 69}

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(dark[0], dark[1], dark[2])
	pdf.Cell(0, 12, "Extension Analysis Report")
	pdf.Ln(12)

	// Compact Summary Card
	pdf.SetFillColor(246, 248, 250)
	pdf.Rect(10, pdf.GetY(), 190, 28, "F")
	pdf.SetFont("Arial", "B", 11)
	pdf.SetY(pdf.GetY() + 3)
	pdf.Cell(95, 6, "  Run: "+res.RunID)
	pdf.Cell(95, 6, fmt.Sprintf("Status: %s", res.Status))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, fmt.Sprintf("  Package size: %d bytes", res.PackageSize))
	pdf.Cell(95, 6, "Completed: "+res.CompletedAt.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	// Verdict - compact
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(50, 6, "Verdict:")
	pdf.SetFont("Arial", "B", 12)
	switch res.Verdict {
	case pipeline.VerdictSafe:
		pdf.SetTextColor(green[0], green[1], green[2])
	case pipeline.VerdictNeedsReview:
		pdf.SetTextColor(227, 98, 9)
	default:
		pdf.SetTextColor(red[0], red[1], red[2])
	}
	pdf.Cell(0, 6, fmt.Sprintf("%s (%.1f/50)", strings.ToUpper(res.Verdict.String()), res.FinalScore))
	pdf.SetTextColor(dark[0], dark[1], dark[2])
	pdf.Ln(10)

	// Stage scores
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Stage Scores")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	for _, name := range stageOrder {
		if score, ok := res.Scores[name]; ok {
			pdf.Cell(60, 5, "  "+name)
			pdf.Cell(0, 5, fmt.Sprintf("%.1f / 10", score))
			pdf.Ln(5)
		}
	}
	pdf.Ln(4)

	allFindings := collectFindings(res)
	if len(allFindings) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(green[0], green[1], green[2])
		pdf.Cell(0, 10, "No findings. The extension looks clean.")
	} else {
		severityCounts := map[analyzer.Severity]int{}
		for _, f := range allFindings {
			severityCounts[f.Severity]++
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Findings (%d)", len(allFindings)))
		pdf.Ln(6)

		summaryParts := []string{}
		if c := severityCounts[analyzer.SeverityCritical]; c > 0 {
			summaryParts = append(summaryParts, fmt.Sprintf("%d CRITICAL", c))
		}
		if c := severityCounts[analyzer.SeverityHigh]; c > 0 {
			summaryParts = append(summaryParts, fmt.Sprintf("%d HIGH", c))
		}
		if c := severityCounts[analyzer.SeverityMedium]; c > 0 {
			summaryParts = append(summaryParts, fmt.Sprintf("%d MEDIUM", c))
		}
		if c := severityCounts[analyzer.SeverityLow]; c > 0 {
			summaryParts = append(summaryParts, fmt.Sprintf("%d LOW", c))
		}
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(gray[0], gray[1], gray[2])
		pdf.Cell(0, 5, strings.Join(summaryParts, " | "))
		pdf.SetTextColor(dark[0], dark[1], dark[2])
		pdf.Ln(8)

		displayedCount := 0
		truncated := false

		for _, f := range allFindings {
			currentPage := pdf.PageNo()
			if currentPage-startPage >= pdfPageLimit {
				truncated = true
				break
			}
			if currentPage-startPage == pdfPageLimit-1 && pdf.GetY() > 240 {
				truncated = true
				break
			}
			displayedCount++

			pdf.SetFont("Arial", "B", 10)
			if f.Severity >= analyzer.SeverityHigh {
				pdf.SetTextColor(red[0], red[1], red[2])
			} else if f.Severity >= analyzer.SeverityMedium {
				pdf.SetTextColor(227, 98, 9)
			} else {
				pdf.SetTextColor(gray[0], gray[1], gray[2])
			}
			pdf.Cell(0, 6, fmt.Sprintf("[%s] %s", f.Severity, f.Stage))
			pdf.Ln(5)

			pdf.SetTextColor(dark[0], dark[1], dark[2])
			pdf.SetFont("Arial", "", 9)
			msg := f.Message
			if len(msg) > 200 {
				msg = msg[:197] + "..."
			}
			pdf.MultiCell(0, 4, msg, "", "", false)

			if f.File != "" {
				pdf.SetFont("Arial", "I", 8)
				pdf.SetTextColor(gray[0], gray[1], gray[2])
				pdf.Cell(0, 4, f.File)
				pdf.Ln(4)
				pdf.SetTextColor(dark[0], dark[1], dark[2])
			}

			pdf.Ln(3)
			pdf.SetDrawColor(234, 236, 239)
			pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
			pdf.Ln(3)
		}

		if truncated {
			remaining := len(allFindings) - displayedCount
			pdf.SetFont("Arial", "I", 9)
			pdf.SetTextColor(gray[0], gray[1], gray[2])
			pdf.Cell(0, 6, fmt.Sprintf("... and %d more findings (truncated)", remaining))
			pdf.Ln(6)
			pdf.SetFont("Arial", "", 8)
			pdf.Cell(0, 4, "Use the terminal or JSON format for the full list.")
		}
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 10, "Completed at "+res.CompletedAt.Format(time.RFC3339), "", 0, "C", false, 0, "")

	return pdf.Output(r.writer)
}

// ── Rendering Helpers ──

func (r *Reporter) printBox(w io.Writer, text string, color string) {
	inner := reportWidth - 4
	padded := text
	if len(padded) < inner {
		padded = padded + strings.Repeat(" ", inner-len(padded))
	}
	fmt.Fprintf(w, "%s%s╔%s╗%s\n", colorBold, color, strings.Repeat("═", inner+2), colorReset)
	fmt.Fprintf(w, "%s%s║ %s ║%s\n", colorBold, color, padded, colorReset)
	fmt.Fprintf(w, "%s%s╚%s╝%s\n", colorBold, color, strings.Repeat("═", inner+2), colorReset)
}

func (r *Reporter) printSectionHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s┌─ %s %s%s\n", colorBold, colorWhite, title, strings.Repeat("─", reportWidth-5-len(title)), colorReset)
}

func (r *Reporter) printScoreBar(w io.Writer, label string, score float64) {
	barWidth := 30
	filled := int(score / 10 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	color := colorGreen
	if score < 4 {
		color = colorRed
	} else if score < 7 {
		color = colorYellow
	}
	fmt.Fprintf(w, "  %-14s %s%s%s%s%s %.1f\n",
		label,
		color,
		strings.Repeat("█", filled),
		colorDim,
		strings.Repeat("░", barWidth-filled),
		colorReset,
		score)
}

func (r *Reporter) printWrapped(w io.Writer, text string, indent string, width int) {
	maxLen := width - len(indent) - 2
	if maxLen <= 0 {
		maxLen = 60
	}
	for _, line := range strings.Split(text, "\n") {
		for len(line) > maxLen {
			cut := strings.LastIndex(line[:maxLen], " ")
			if cut <= 0 {
				cut = maxLen
			}
			fmt.Fprintf(w, "%s%s\n", indent, line[:cut])
			line = line[cut:]
			if len(line) > 0 && line[0] == ' ' {
				line = line[1:]
			}
		}
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

// ── Pure Functions ──

func verdictColor(v pipeline.Verdict) string {
	switch v {
	case pipeline.VerdictSafe:
		return colorGreen
	case pipeline.VerdictNeedsReview:
		return colorYellow
	default:
		return colorRed
	}
}

func verdictHeadline(v pipeline.Verdict) string {
	switch v {
	case pipeline.VerdictSafe:
		return "SAFE TO INSTALL - no blocking findings"
	case pipeline.VerdictNeedsReview:
		return "MANUAL REVIEW RECOMMENDED before installation"
	case pipeline.VerdictHighRisk:
		return "HIGH RISK - install only after thorough review"
	case pipeline.VerdictBlock:
		return "DO NOT INSTALL - risk exceeds the blocking threshold"
	default:
		return "FLAGGED AS MALICIOUS by manual review"
	}
}

func severityColor(s analyzer.Severity) string {
	switch s {
	case analyzer.SeverityCritical:
		return colorRed
	case analyzer.SeverityHigh:
		return colorRed
	case analyzer.SeverityMedium:
		return colorYellow
	case analyzer.SeverityLow:
		return colorDim
	default:
		return colorWhite
	}
}

func severityIcon(s analyzer.Severity) string {
	switch s {
	case analyzer.SeverityCritical:
		return "✖"
	case analyzer.SeverityHigh:
		return "!"
	case analyzer.SeverityMedium:
		return "~"
	case analyzer.SeverityLow:
		return "-"
	default:
		return " "
	}
}

func filterBySeverity(findings []stageFinding, sev analyzer.Severity) []stageFinding {
	var filtered []stageFinding
	for _, f := range findings {
		if f.Severity == sev {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dataString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func dataStrings(data map[string]any, key string) []string {
	if v, ok := data[key].([]string); ok {
		return v
	}
	return nil
}

func dataScenarios(data map[string]any) []analyzer.AttackScenario {
	if v, ok := data["attack_scenarios"].([]analyzer.AttackScenario); ok {
		return v
	}
	return nil
}
