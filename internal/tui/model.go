package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kluth/extension-auditter/internal/pipeline"
)

// Screen represents which screen is currently active.
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenAnalyze
	ScreenSettings
	ScreenRunning
	ScreenSaveReport
)

// Pane identifies which part of the dashboard is focused.
type Pane int

const (
	PaneMenu Pane = iota
	PaneFindings
	PaneDetail
	paneCount
)

func (p Pane) next() Pane { return (p + 1) % paneCount }
func (p Pane) prev() Pane { return (p - 1 + paneCount) % paneCount }

// sidebarWidth is the fixed width of the dashboard menu column.
const sidebarWidth = 30

// Main menu entry positions.
const (
	menuAnalyze = iota
	menuSettings
	menuStageGraph
	menuFindings
)

// MenuItem is an item in a list.
type MenuItem struct {
	title string
	desc  string
}

func (m MenuItem) Title() string       { return m.title }
func (m MenuItem) Description() string { return m.desc }
func (m MenuItem) FilterValue() string { return m.title }

// Finding holds a single stage finding for display.
type Finding struct {
	Stage    string
	Severity string
	Kind     string
	Message  string
	File     string
	Matches  int
	URLs     []string
	Domains  []string
}

func (f Finding) FilterValue() string { return f.Message }
func (f Finding) Title() string {
	return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
}
func (f Finding) Description() string {
	if f.File != "" {
		return fmt.Sprintf("%s — %s", f.Stage, f.File)
	}
	return f.Stage
}

// RunResult holds one completed pipeline run for display.
type RunResult struct {
	Run      *pipeline.AggregateResult
	Findings []Finding
	Duration time.Duration
	Error    error
}

// SettingsField identifies which setting is being edited.
type SettingsField int

const (
	FieldPatterns SettingsField = iota
	FieldTimeout
	FieldWorkers
	FieldStoreDir
	FieldCount
)

// Model is the top-level Bubble Tea model.
type Model struct {
	screen     Screen
	activePane Pane
	width      int
	height     int
	quitting   bool
	err        error

	// Main menu
	mainMenu list.Model

	// Extension path input
	pathInput textinput.Model

	// Settings
	settingsFields [FieldCount]textinput.Model
	settingsFocus  SettingsField
	settingsValues SettingsConfig

	// Running state
	spinner spinner.Model
	runMsg  string

	// Results
	results      *RunResult
	findingsList list.Model
	selectedIdx  int
	detailView   viewport.Model
	saveInput    textinput.Model

	// Report save path
	reportPath string
}

// SettingsConfig holds persisted settings values.
type SettingsConfig struct {
	Patterns string
	Timeout  string
	Workers  string
	StoreDir string
}

// Messages
type analysisCompleteMsg struct{ result *RunResult }
type analysisErrorMsg struct{ err error }
type reportSavedMsg struct{ path string }
type reportSaveErrorMsg struct{ err error }

func NewModel() Model {
	// Main menu
	items := []list.Item{
		MenuItem{title: "Analyze Extension", desc: "Scan a .crx, .zip or unpacked directory"},
		MenuItem{title: "Settings", desc: "Configure patterns, timeout, workers, storage"},
		MenuItem{title: "Stage Graph", desc: "Show the analysis stage dependency tree"},
		MenuItem{title: "Findings", desc: "Browse the last run's findings"},
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "extension-auditter"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	mainMenu.DisableQuitKeybindings()

	// Spinner
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	// Extension path input
	pi := textinput.New()
	pi.Placeholder = "e.g. ./extension.crx or /path/to/unpacked"
	pi.CharLimit = 512
	pi.Width = 50

	// Settings fields
	var sf [FieldCount]textinput.Model
	placeholders := [FieldCount]string{
		"patterns.yaml (empty for built-in)",
		"120",
		"4",
		"runs directory (empty to disable persistence)",
	}
	labels := [FieldCount]string{
		"Pattern bundle",
		"Timeout (seconds)",
		"Workers",
		"Store directory",
	}
	defaults := SettingsConfig{
		Patterns: "",
		Timeout:  "120",
		Workers:  "4",
		StoreDir: "",
	}
	vals := [FieldCount]string{defaults.Patterns, defaults.Timeout, defaults.Workers, defaults.StoreDir}
	for i := 0; i < int(FieldCount); i++ {
		sf[i] = textinput.New()
		sf[i].Placeholder = placeholders[i]
		sf[i].Prompt = labels[i] + ": "
		sf[i].CharLimit = 512
		sf[i].Width = 50
		sf[i].SetValue(vals[i])
	}
	sf[0].Focus()

	// Save input
	saveIn := textinput.New()
	saveIn.Placeholder = "report.json"
	saveIn.CharLimit = 256
	saveIn.Width = 50

	// Findings list (empty initially)
	fl := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	fl.Title = "Findings"
	fl.SetShowStatusBar(true)
	fl.SetFilteringEnabled(true)
	fl.DisableQuitKeybindings()

	// Detail viewport
	dv := viewport.New(0, 0)

	return Model{
		screen:         ScreenDashboard,
		mainMenu:       mainMenu,
		pathInput:      pi,
		settingsFields: sf,
		settingsFocus:  FieldPatterns,
		settingsValues: defaults,
		spinner:        sp,
		findingsList:   fl,
		detailView:     dv,
		saveInput:      saveIn,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// helpers

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scoreBar renders a filled bar for score within [0,max].
func scoreBar(score, max float64, width int) string {
	filled := int(score / max * float64(width))
	filled = clamp(filled, 0, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
