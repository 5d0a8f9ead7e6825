package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kluth/extension-auditter/internal/intel"
	"github.com/kluth/extension-auditter/internal/normalizer"
	"github.com/kluth/extension-auditter/internal/patterns"
	"github.com/kluth/extension-auditter/internal/pipeline"
	"github.com/kluth/extension-auditter/internal/reporter"
	"github.com/kluth/extension-auditter/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	format          string
	outputFile      string
	containerFormat string
	patternsFile    string
	patternsSig     string
	patternsKeyring string
	reputationFile  string
	storeID         string
	storeDir        string
	workDir         string
	runID           string
	timeout         int
	workers         int
	failOn          string
	noVulnLookup    bool
	interactive     bool
	quiet           bool
	verbose         bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "extauditter [extension-path]",
		Short: "Analyze browser extensions for security risks",
		Long: fmt.Sprintf(`extauditter runs a browser extension package through a staged risk
analysis: store metadata, declared permissions, script behavior
signatures, network endpoints, threat intelligence heuristics, bundled
library vulnerabilities, and a rule-based synthesis of the whole run.

Build Info: Commit %s, Date %s

Examples:  extauditter ./extension.crx
  extauditter ./unpacked-dir --format json --output report.json
  extauditter ./bundle.zip --fail-on high_risk
  extauditter ./extension.crx --store-id abcdefghijklmnop --reputation reps.json`, commit, date),
		Version: version,
		Args:    cobra.ArbitraryArgs,
		RunE:    run,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list-stages",
		Short: "List the analysis stages and their dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			printStageList(os.Stdout)
			return nil
		},
	})

	rootCmd.AddCommand(newMcpCmd())

	rootCmd.Flags().StringVar(&format, "format", "terminal", "output format (terminal, json, markdown, pdf, sarif)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write report to file instead of stdout")
	rootCmd.Flags().StringVar(&containerFormat, "container", "auto", "package container format (auto, dir, zip, crx)")
	rootCmd.Flags().StringVar(&patternsFile, "patterns", "", "pattern bundle YAML (default: built-in bundle)")
	rootCmd.Flags().StringVar(&patternsSig, "patterns-sig", "", "armored detached signature for the pattern bundle")
	rootCmd.Flags().StringVar(&patternsKeyring, "patterns-keyring", "", "armored keyring to verify the pattern bundle against")
	rootCmd.Flags().StringVar(&reputationFile, "reputation", "", "store reputation lookup file (JSON map keyed by extension id)")
	rootCmd.Flags().StringVar(&storeID, "store-id", "", "marketplace extension id for the reputation lookup")
	rootCmd.Flags().StringVar(&storeDir, "store-dir", "", "persist run records as JSON under this directory")
	rootCmd.Flags().StringVar(&workDir, "work-dir", "", "root for per-run extraction workspaces (default: system temp)")
	rootCmd.Flags().StringVar(&runID, "run-id", "", "explicit run identifier (default: derived from time)")
	rootCmd.Flags().IntVar(&timeout, "timeout", 120, "timeout in seconds for the whole run")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "max concurrent analysis stages (default: number of independent stages)")
	rootCmd.Flags().StringVar(&failOn, "fail-on", "", "exit with code 2 if the verdict is at or above this level (needs_review, high_risk, block)")
	rootCmd.Flags().BoolVar(&noVulnLookup, "no-vuln-lookup", false, "skip the online vulnerability database query")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run in interactive TUI mode")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress messages to stderr")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-stage scores and finding counts to stderr")

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// ExitError signals a non-standard exit code (e.g., 2 for --fail-on).
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func stderrPrintf(format string, a ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format, a...)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := loadConfiguration(cmd); err != nil {
		return err
	}
	if interactive {
		return runTUI()
	}
	return runAnalyze(args)
}

func loadConfiguration(cmd *cobra.Command) error {
	_ = godotenv.Load()

	if cfgPath := findConfigFile(); cfgPath != "" {
		cfg, err := loadConfigFile(cfgPath)
		if err != nil {
			return err
		}
		applyConfig(cfg)
	}
	resolveConfig(cmd)

	if failOn != "" {
		if _, err := parseVerdict(failOn); err != nil {
			return err
		}
	}
	if _, err := normalizer.ParseFormat(containerFormat); err != nil {
		return err
	}
	return nil
}

func runAnalyze(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("extension path is required")
	}
	target := args[0]

	cFormat, err := normalizer.ParseFormat(containerFormat)
	if err != nil {
		return err
	}

	lib, err := resolvePatterns()
	if err != nil {
		return err
	}

	var reputation intel.ReputationSource
	if reputationFile != "" {
		reputation, err = intel.NewFileReputationSource(reputationFile)
		if err != nil {
			return fmt.Errorf("loading reputation file: %w", err)
		}
	}

	var vulns intel.VulnerabilitySource
	if !noVulnLookup {
		vulns = intel.NewOSVSource()
	}

	var st store.Store
	if storeDir != "" {
		fs, err := store.NewFileStore(storeDir)
		if err != nil {
			return fmt.Errorf("opening run store: %w", err)
		}
		st = fs
	}

	o, err := pipeline.New(pipeline.Config{
		Workers:    workers,
		WorkRoot:   workDir,
		Patterns:   lib,
		Reputation: reputation,
		Vulns:      vulns,
		Store:      st,
	})
	if err != nil {
		return err
	}

	id := runID
	if id == "" {
		id = "run-" + time.Now().UTC().Format("20060102-150405")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	stderrPrintf("Analyzing %s...\n", target)
	res, err := o.Run(ctx, pipeline.Request{
		RunID:   id,
		Path:    target,
		Format:  cFormat,
		StoreID: storeID,
	})
	if err != nil {
		return err
	}

	if verbose {
		for _, info := range pipeline.StageRegistry() {
			sr, ok := res.Results[info.Name]
			if !ok {
				continue
			}
			stderrPrintf("  %-14s %4.1f/10  %d finding(s)\n", info.Name, sr.Score, len(sr.Findings))
		}
	}

	out, cleanup, err := resolveOutput()
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	rep := reporter.New(out, format)
	if err := rep.Render(res); err != nil {
		return err
	}

	if failOn != "" {
		return checkFailOn(res, failOn)
	}
	return nil
}

// resolvePatterns loads the configured bundle, verifying its signature when
// one is supplied. No bundle means the built-in default.
func resolvePatterns() (*patterns.Library, error) {
	if patternsFile == "" {
		if patternsSig != "" || patternsKeyring != "" {
			return nil, fmt.Errorf("--patterns-sig and --patterns-keyring require --patterns")
		}
		return nil, nil
	}
	if patternsSig != "" {
		if patternsKeyring == "" {
			return nil, fmt.Errorf("--patterns-sig requires --patterns-keyring")
		}
		lib, err := patterns.LoadVerified(patternsFile, patternsSig, patternsKeyring)
		if err != nil {
			return nil, fmt.Errorf("verifying pattern bundle: %w", err)
		}
		return lib, nil
	}
	lib, err := patterns.Load(patternsFile)
	if err != nil {
		return nil, fmt.Errorf("loading pattern bundle: %w", err)
	}
	return lib, nil
}

func resolveOutput() (io.Writer, func(), error) {
	if outputFile == "" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func printStageList(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tREQUIRES\tDESCRIPTION")
	for _, info := range pipeline.StageRegistry() {
		requires := "-"
		if len(info.Requires) > 0 {
			requires = joinNames(info.Requires)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, requires, info.Description)
	}
	tw.Flush()
}

func joinNames(names []string) string {
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

type configFile struct {
	Format     string `yaml:"format"`
	Container  string `yaml:"container"`
	Patterns   string `yaml:"patterns"`
	Reputation string `yaml:"reputation"`
	StoreDir   string `yaml:"store-dir"`
	WorkDir    string `yaml:"work-dir"`
	FailOn     string `yaml:"fail-on"`
	Timeout    int    `yaml:"timeout"`
	Workers    int    `yaml:"workers"`
	Quiet      bool   `yaml:"quiet"`
}

func loadConfigFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

func findConfigFile() string {
	if _, err := os.Stat(".extauditter.yaml"); err == nil {
		return ".extauditter.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".config", "extauditter", "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func applyConfig(cfg *configFile) {
	if cfg == nil {
		return
	}
	if cfg.Format != "" {
		format = cfg.Format
	}
	if cfg.Container != "" {
		containerFormat = cfg.Container
	}
	if cfg.Patterns != "" {
		patternsFile = cfg.Patterns
	}
	if cfg.Reputation != "" {
		reputationFile = cfg.Reputation
	}
	if cfg.StoreDir != "" {
		storeDir = cfg.StoreDir
	}
	if cfg.WorkDir != "" {
		workDir = cfg.WorkDir
	}
	if cfg.FailOn != "" {
		failOn = cfg.FailOn
	}
	if cfg.Timeout != 0 {
		timeout = cfg.Timeout
	}
	if cfg.Workers != 0 {
		workers = cfg.Workers
	}
	if cfg.Quiet {
		quiet = true
	}
}

func resolveConfig(cmd *cobra.Command) {
	resolveStringEnv(cmd, "format", "EXTAUDITTER_FORMAT", &format)
	resolveStringEnv(cmd, "container", "EXTAUDITTER_CONTAINER", &containerFormat)
	resolveStringEnv(cmd, "patterns", "EXTAUDITTER_PATTERNS", &patternsFile)
	resolveStringEnv(cmd, "reputation", "EXTAUDITTER_REPUTATION", &reputationFile)
	resolveStringEnv(cmd, "store-dir", "EXTAUDITTER_STORE_DIR", &storeDir)
	resolveStringEnv(cmd, "work-dir", "EXTAUDITTER_WORK_DIR", &workDir)
	resolveStringEnv(cmd, "fail-on", "EXTAUDITTER_FAIL_ON", &failOn)
	resolveIntEnv(cmd, "timeout", "EXTAUDITTER_TIMEOUT", &timeout)
	resolveIntEnv(cmd, "workers", "EXTAUDITTER_WORKERS", &workers)
	resolveBoolEnv(cmd, "quiet", "EXTAUDITTER_QUIET", &quiet)
	resolveBoolEnv(cmd, "verbose", "EXTAUDITTER_VERBOSE", &verbose)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func resolveStringEnv(cmd *cobra.Command, flagName, envKey string, target *string) {
	if flagChanged(cmd, flagName) {
		return
	}
	if v := os.Getenv(envKey); v != "" {
		*target = v
	}
}

func resolveIntEnv(cmd *cobra.Command, flagName, envKey string, target *int) {
	if flagChanged(cmd, flagName) {
		return
	}
	if v := os.Getenv(envKey); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func resolveBoolEnv(cmd *cobra.Command, flagName, envKey string, target *bool) {
	if flagChanged(cmd, flagName) {
		return
	}
	if v := os.Getenv(envKey); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func parseVerdict(s string) (pipeline.Verdict, error) {
	switch s {
	case "needs_review":
		return pipeline.VerdictNeedsReview, nil
	case "high_risk":
		return pipeline.VerdictHighRisk, nil
	case "block":
		return pipeline.VerdictBlock, nil
	default:
		return 0, fmt.Errorf("invalid verdict %q: must be needs_review, high_risk, or block", s)
	}
}

func checkFailOn(res *pipeline.AggregateResult, threshold string) error {
	v, _ := parseVerdict(threshold) // already validated
	if res.Verdict >= v {
		return &ExitError{
			Code:    2,
			Message: fmt.Sprintf("verdict %q is at or above %q", res.Verdict, threshold),
		}
	}
	return nil
}
