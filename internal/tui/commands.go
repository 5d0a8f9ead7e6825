package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kluth/extension-auditter/internal/intel"
	"github.com/kluth/extension-auditter/internal/patterns"
	"github.com/kluth/extension-auditter/internal/pipeline"
	"github.com/kluth/extension-auditter/internal/reporter"
	"github.com/kluth/extension-auditter/internal/store"
)

// displayOrder matches the pipeline's stage registry ordering.
var displayOrder = func() []string {
	var names []string
	for _, info := range pipeline.StageRegistry() {
		names = append(names, info.Name)
	}
	return names
}()

func convertFindings(res *pipeline.AggregateResult) []Finding {
	var out []Finding
	for _, stage := range displayOrder {
		sr, ok := res.Results[stage]
		if !ok {
			continue
		}
		for _, f := range sr.Findings {
			out = append(out, Finding{
				Stage:    stage,
				Severity: f.Severity.String(),
				Kind:     f.Kind,
				Message:  f.Message,
				File:     f.File,
				Matches:  f.Matches,
				URLs:     f.URLs,
				Domains:  f.Domains,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return severityRank(out[i].Severity) > severityRank(out[j].Severity)
	})
	return out
}

func severityRank(s string) int {
	switch s {
	case "critical":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}

func runAnalysis(path string, cfg SettingsConfig) tea.Msg {
	start := time.Now()

	timeout, _ := strconv.Atoi(cfg.Timeout)
	if timeout <= 0 {
		timeout = 120
	}
	workers, _ := strconv.Atoi(cfg.Workers)

	var lib *patterns.Library
	if cfg.Patterns != "" {
		var err error
		lib, err = patterns.Load(cfg.Patterns)
		if err != nil {
			return analysisErrorMsg{err: fmt.Errorf("loading pattern bundle: %w", err)}
		}
	}

	var st store.Store
	if cfg.StoreDir != "" {
		fs, err := store.NewFileStore(cfg.StoreDir)
		if err != nil {
			return analysisErrorMsg{err: fmt.Errorf("opening store: %w", err)}
		}
		st = fs
	}

	o, err := pipeline.New(pipeline.Config{
		Workers:  workers,
		Patterns: lib,
		Vulns:    intel.NewOSVSource(),
		Store:    st,
	})
	if err != nil {
		return analysisErrorMsg{err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	res, err := o.Run(ctx, pipeline.Request{
		RunID: "tui-" + time.Now().UTC().Format("20060102-150405"),
		Path:  path,
	})
	if err != nil {
		return analysisErrorMsg{err: err}
	}

	return analysisCompleteMsg{result: &RunResult{
		Run:      res,
		Findings: convertFindings(res),
		Duration: time.Since(start),
	}}
}

func saveReport(result *RunResult, path string) tea.Msg {
	if result == nil || result.Run == nil {
		return reportSaveErrorMsg{err: fmt.Errorf("no results to save")}
	}

	f, err := os.Create(path)
	if err != nil {
		return reportSaveErrorMsg{err: fmt.Errorf("creating file %s: %w", path, err)}
	}
	defer f.Close()

	// Determine format from extension
	format := reporter.FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = reporter.FormatJSON
	case ".md":
		format = reporter.FormatMarkdown
	case ".pdf":
		format = reporter.FormatPDF
	case ".sarif":
		format = reporter.FormatSARIF
	case ".txt":
		format = reporter.FormatTerminal
	}

	r := reporter.New(f, format)
	if err := r.Render(result.Run); err != nil {
		return reportSaveErrorMsg{err: fmt.Errorf("rendering report: %w", err)}
	}

	return reportSavedMsg{path: path}
}
