package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.screen {
	case ScreenAnalyze:
		content = m.formScreen("Analyze Extension", "Extension package path:", m.pathInput.View(),
			"Accepts a .crx or .zip container, or an unpacked extension directory")
	case ScreenSettings:
		content = m.viewSettings()
	case ScreenRunning:
		content = m.viewRunning()
	case ScreenSaveReport:
		content = m.formScreen("Save Report", "Output file path:", m.saveInput.View(),
			"Format from extension: .json, .md, .pdf, .sarif, .txt")
	default:
		content = m.viewDashboard()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, m.viewStatusBar())
}

var statusKeys = map[Screen]string{
	ScreenDashboard:  "tab switch pane • ↑/↓ navigate • enter select/detail • s save • q quit",
	ScreenAnalyze:    "enter analyze • esc back",
	ScreenSettings:   "tab/↓ next field • shift+tab/↑ prev • esc save & back",
	ScreenRunning:    "please wait...",
	ScreenSaveReport: "enter save • esc cancel",
}

func (m Model) viewStatusBar() string {
	keys, ok := statusKeys[m.screen]
	if !ok {
		keys = statusKeys[ScreenDashboard]
	}
	return StatusBarStyle.Width(m.width).Render(keys)
}

// paneBorder picks the focused or idle border for a dashboard pane.
func (m Model) paneBorder(p Pane) lipgloss.Style {
	if m.activePane == p {
		return FocusedPaneStyle
	}
	return PaneStyle
}

func (m Model) viewDashboard() string {
	sidebar := m.paneBorder(PaneMenu).
		Width(sidebarWidth).
		Height(m.height - 4).
		Render(m.mainMenu.View())

	mainWidth := m.width - sidebarWidth - 4
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, m.viewResultsArea(mainWidth))
}

func (m Model) viewResultsArea(mainWidth int) string {
	centered := func(s string) string {
		return lipgloss.Place(mainWidth, m.height-4, lipgloss.Center, lipgloss.Center, BoxStyle.Render(s))
	}

	switch {
	case m.results == nil:
		return centered(SubtitleStyle.Render("No analysis yet. Select \"Analyze Extension\" to start."))
	case m.results.Error != nil:
		return centered(ErrorStyle.Render("Analysis failed: " + m.results.Error.Error()))
	}

	summaryBox := BoxStyle.Width(mainWidth - 4).Render(m.viewRunSummary())

	listWidth := (mainWidth - 4) / 2
	m.findingsList.SetSize(listWidth-2, m.height-16)
	left := m.paneBorder(PaneFindings).
		Width(listWidth).
		Height(m.height - 14).
		Render(m.findingsList.View())

	detailWidth := mainWidth - listWidth - 4
	m.detailView.Width = detailWidth - 2
	m.detailView.Height = m.height - 16
	right := m.paneBorder(PaneDetail).
		Width(detailWidth).
		Height(m.height - 14).
		Render(m.detailView.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		summaryBox,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right))
}

// formScreen lays out a single-input screen: title, labeled field, help line.
func (m Model) formScreen(title, label, input, help string) string {
	body := strings.Join([]string{
		TitleStyle.Render(title),
		"",
		InputLabelStyle.Render(label),
		InputStyle.Width(m.width - 6).Render(input),
		"",
		HelpStyle.Render(help),
	}, "\n")
	return lipgloss.Place(m.width, m.height-2, lipgloss.Left, lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(body))
}

func (m Model) viewSettings() string {
	rows := []string{TitleStyle.Render("Settings"), ""}
	for i := 0; i < int(FieldCount); i++ {
		style := InactiveFieldStyle
		if SettingsField(i) == m.settingsFocus {
			style = ActiveFieldStyle
		}
		rows = append(rows, style.Width(m.width-8).Render(m.settingsFields[i].View()), "")
	}
	return lipgloss.Place(m.width, m.height-2, lipgloss.Left, lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(rows, "\n")))
}

func kv(label, value string) string {
	return DetailLabelStyle.Render(label) + DetailValueStyle.Render(value)
}

func (m Model) viewRunSummary() string {
	r := m.results
	run := r.Run

	bar := FinalScoreBarStyle(run.FinalScore).Render(scoreBar(run.FinalScore, 50, 30))
	scoreLine := DetailLabelStyle.Render("Risk Score: ") + bar +
		" " + DetailValueStyle.Render(fmt.Sprintf("%.1f/50", run.FinalScore))

	counts := map[string]int{}
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	findingsLine := kv("Findings: ", fmt.Sprintf("%d total", len(r.Findings))) + "  " +
		SevCriticalStyle.Render(fmt.Sprintf(" %d critical ", counts["critical"])) + " " +
		SevHighStyle.Render(fmt.Sprintf("%d high", counts["high"])) + " " +
		SevMediumStyle.Render(fmt.Sprintf("%d medium", counts["medium"])) + " " +
		SevLowStyle.Render(fmt.Sprintf("%d low", counts["low"]))

	lines := []string{
		kv("Run: ", run.RunID) + "  " + VerdictStyle(run.Verdict).Render(strings.ToUpper(run.Verdict.String())),
		kv("Duration: ", r.Duration.String()) + "  " + kv("Package: ", fmt.Sprintf("%d bytes", run.PackageSize)),
		scoreLine,
		findingsLine,
	}
	if m.reportPath != "" {
		lines = append(lines, SuccessStyle.Render("Report saved: "+m.reportPath))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFindingDetail(idx int) string {
	if m.results == nil || idx >= len(m.results.Findings) {
		return ""
	}
	f := m.results.Findings[idx]

	sections := []string{
		kv("Finding:   ", f.Message),
		DetailLabelStyle.Render("Severity:  ") + SeverityStyle(f.Severity).Render(f.Severity),
		kv("Stage:     ", f.Stage),
	}

	if f.File != "" {
		loc := f.File
		if f.Matches > 0 {
			loc = fmt.Sprintf("%s (%d matches)", f.File, f.Matches)
		}
		sections = append(sections, kv("File:      ", loc))
	}
	if len(f.URLs) > 0 {
		sections = append(sections, indentedList("URLs:", f.URLs))
	}
	if len(f.Domains) > 0 {
		sections = append(sections, indentedList("Domains:", f.Domains))
	}

	return strings.Join(sections, "\n\n")
}

func indentedList(label string, items []string) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, DetailLabelStyle.Render(label))
	for _, it := range items {
		lines = append(lines, DetailValueStyle.Render("  "+it))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewRunning() string {
	box := BoxStyle.Width(m.width - 6).Render(m.spinner.View() + " " + m.runMsg)
	body := TitleStyle.Render("Running") + "\n\n" + box
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, body)
}
