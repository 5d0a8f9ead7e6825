package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/kluth/extension-auditter/internal/pipeline"
)

// Palette
var (
	colorAccent  = lipgloss.Color("#5EB1EF")
	colorHilight = lipgloss.Color("#B4A1F5")
	colorDanger  = lipgloss.Color("#F2545B")
	colorWarning = lipgloss.Color("#E8B13F")
	colorOK      = lipgloss.Color("#4CC38A")
	colorMuted   = lipgloss.Color("#7B8496")
	colorText    = lipgloss.Color("#D8DEE9")
	colorSurface = lipgloss.Color("#2A2D3A")
	colorWhite   = lipgloss.Color("#FFFFFF")
)

func badge(fg, bg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Background(bg).Bold(true).Padding(0, 1)
}

func bordered(edge lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(edge).
		Padding(0, 1)
}

var (
	TitleStyle = badge(colorHilight, colorSurface).MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorSurface).
			Padding(0, 1)

	InputLabelStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	InputStyle      = bordered(colorHilight).MarginTop(1)

	BoxStyle = bordered(colorHilight).Padding(1, 2).MarginTop(1)

	SevCriticalStyle = badge(colorWhite, colorDanger)
	SevHighStyle     = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	SevMediumStyle   = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	SevLowStyle      = lipgloss.NewStyle().Foreground(colorAccent)

	VerdictSafeStyle   = badge(colorWhite, colorOK)
	VerdictReviewStyle = badge(colorSurface, colorWarning)
	VerdictDangerStyle = badge(colorWhite, colorDanger)

	scoreBarDanger  = lipgloss.NewStyle().Foreground(colorDanger)
	scoreBarWarning = lipgloss.NewStyle().Foreground(colorWarning)
	scoreBarOK      = lipgloss.NewStyle().Foreground(colorOK)

	SpinnerStyle = lipgloss.NewStyle().Foreground(colorHilight)
	HelpStyle    = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)

	DetailLabelStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	DetailValueStyle = lipgloss.NewStyle().Foreground(colorText)

	ActiveFieldStyle   = bordered(colorHilight)
	InactiveFieldStyle = bordered(colorMuted)

	SuccessStyle = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)

	PaneStyle        = bordered(colorMuted)
	FocusedPaneStyle = bordered(colorHilight)
)

func SeverityStyle(sev string) lipgloss.Style {
	switch sev {
	case "critical":
		return SevCriticalStyle
	case "high":
		return SevHighStyle
	case "medium":
		return SevMediumStyle
	default:
		return SevLowStyle
	}
}

func VerdictStyle(v pipeline.Verdict) lipgloss.Style {
	switch v {
	case pipeline.VerdictSafe:
		return VerdictSafeStyle
	case pipeline.VerdictNeedsReview:
		return VerdictReviewStyle
	default:
		return VerdictDangerStyle
	}
}

// FinalScoreBarStyle colors the 0-50 aggregate score by verdict band.
func FinalScoreBarStyle(score float64) lipgloss.Style {
	switch {
	case score > 25:
		return scoreBarDanger
	case score > 10:
		return scoreBarWarning
	default:
		return scoreBarOK
	}
}

// StageScoreBarStyle colors a 0-10 stage score; low stage scores are risky.
func StageScoreBarStyle(score float64) lipgloss.Style {
	switch {
	case score < 4:
		return scoreBarDanger
	case score < 7:
		return scoreBarWarning
	default:
		return scoreBarOK
	}
}
