package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case analysisCompleteMsg:
		m.results = msg.result
		m.screen = ScreenDashboard
		m.activePane = PaneFindings
		m.populateFindings()
		m.selectedIdx = 0
		if len(m.results.Findings) > 0 {
			m.detailView.SetContent(m.renderFindingDetail(0))
		} else {
			// A clean run has nothing to drill into; show the stage graph.
			m.detailView.SetContent(stageTree(m.results.Run))
		}
		return m, nil

	case analysisErrorMsg:
		m.err = msg.err
		m.results = &RunResult{Error: msg.err}
		m.screen = ScreenDashboard
		return m, nil

	case reportSavedMsg:
		m.reportPath = msg.path
		m.screen = ScreenDashboard
		return m, nil

	case reportSaveErrorMsg:
		m.err = msg.err
		m.screen = ScreenDashboard
		return m, nil
	}

	switch m.screen {
	case ScreenAnalyze:
		return m.updateAnalyze(msg)
	case ScreenSettings:
		return m.updateSettings(msg)
	case ScreenRunning:
		return m.updateRunning(msg)
	case ScreenSaveReport:
		return m.updateSaveReport(msg)
	default:
		return m.updateDashboard(msg)
	}
}

func (m *Model) resize(w, h int) {
	m.width = w
	m.height = h
	m.mainMenu.SetSize(sidebarWidth, h-6)
	paneW := (w - sidebarWidth - 4) / 2
	m.findingsList.SetSize(paneW, h-14)
	m.detailView.Width = paneW
	m.detailView.Height = h - 14
}

func (m Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab":
			m.activePane = m.activePane.next()
			return m, nil
		case "shift+tab":
			m.activePane = m.activePane.prev()
			return m, nil
		case "s":
			if m.results != nil && m.results.Run != nil {
				m.screen = ScreenSaveReport
				m.saveInput.SetValue("")
				m.saveInput.Focus()
				return m, m.saveInput.Cursor.BlinkCmd()
			}
		case "q":
			m.quitting = true
			return m, tea.Quit
		}
	}

	switch m.activePane {
	case PaneFindings:
		return m.updateFindings(msg)
	case PaneDetail:
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd
	default:
		return m.updateMenu(msg)
	}
}

func (m Model) updateMenu(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		switch m.mainMenu.Index() {
		case menuAnalyze:
			m.screen = ScreenAnalyze
			m.pathInput.SetValue("")
			m.pathInput.Focus()
			return m, m.pathInput.Cursor.BlinkCmd()
		case menuSettings:
			m.screen = ScreenSettings
			m.settingsFocus = FieldPatterns
			for i := range m.settingsFields {
				m.settingsFields[i].Blur()
			}
			m.settingsFields[FieldPatterns].Focus()
			return m, m.settingsFields[FieldPatterns].Cursor.BlinkCmd()
		case menuStageGraph:
			var res *RunResult
			if m.results != nil && m.results.Run != nil {
				res = m.results
			}
			if res != nil {
				m.detailView.SetContent(stageTree(res.Run))
			} else {
				m.detailView.SetContent(stageTree(nil))
			}
			m.detailView.GotoTop()
			m.activePane = PaneDetail
			return m, nil
		case menuFindings:
			if m.results != nil {
				m.activePane = PaneFindings
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.mainMenu, cmd = m.mainMenu.Update(msg)
	return m, cmd
}

func (m Model) updateAnalyze(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.screen = ScreenDashboard
			return m, nil
		case "enter":
			path := m.pathInput.Value()
			if path == "" {
				return m, nil
			}
			m.runMsg = "Analyzing extension: " + path
			m.screen = ScreenRunning
			cfg := m.settingsValues
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				return runAnalysis(path, cfg)
			})
		}
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) updateSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.commitSettings()
			m.screen = ScreenDashboard
			return m, nil
		case "tab", "down":
			return m.focusSettingsField(m.settingsFocus + 1)
		case "shift+tab", "up":
			return m.focusSettingsField(m.settingsFocus - 1 + FieldCount)
		}
	}
	var cmd tea.Cmd
	m.settingsFields[m.settingsFocus], cmd = m.settingsFields[m.settingsFocus].Update(msg)
	return m, cmd
}

func (m *Model) commitSettings() {
	m.settingsValues.Patterns = m.settingsFields[FieldPatterns].Value()
	m.settingsValues.Timeout = m.settingsFields[FieldTimeout].Value()
	m.settingsValues.Workers = m.settingsFields[FieldWorkers].Value()
	m.settingsValues.StoreDir = m.settingsFields[FieldStoreDir].Value()
}

func (m Model) focusSettingsField(f SettingsField) (tea.Model, tea.Cmd) {
	m.settingsFields[m.settingsFocus].Blur()
	m.settingsFocus = f % FieldCount
	m.settingsFields[m.settingsFocus].Focus()
	return m, m.settingsFields[m.settingsFocus].Cursor.BlinkCmd()
}

func (m Model) updateFindings(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.findingsList, cmd = m.findingsList.Update(msg)
	// The detail pane tracks the list cursor.
	if idx := m.findingsList.Index(); idx != m.selectedIdx {
		m.syncDetail(idx)
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		m.syncDetail(m.findingsList.Index())
	}
	return m, cmd
}

func (m *Model) syncDetail(idx int) {
	if m.results == nil || idx >= len(m.results.Findings) {
		return
	}
	m.selectedIdx = idx
	m.detailView.SetContent(m.renderFindingDetail(idx))
	m.detailView.GotoTop()
}

func (m Model) updateRunning(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) updateSaveReport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.screen = ScreenDashboard
			return m, nil
		case "enter":
			path := m.saveInput.Value()
			if path == "" {
				path = m.results.Run.RunID + ".json"
			}
			results := m.results
			return m, func() tea.Msg {
				return saveReport(results, path)
			}
		}
	}
	var cmd tea.Cmd
	m.saveInput, cmd = m.saveInput.Update(msg)
	return m, cmd
}

func (m *Model) populateFindings() {
	items := make([]list.Item, len(m.results.Findings))
	for i, f := range m.results.Findings {
		items[i] = f
	}
	m.findingsList.SetItems(items)
}
