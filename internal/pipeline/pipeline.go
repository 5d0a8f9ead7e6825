// Package pipeline orchestrates the analysis run: normalize the package,
// schedule the stage DAG, aggregate scores into a final verdict, and persist
// the result. Stages with satisfied dependencies run concurrently under a
// bounded worker pool.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kluth/extension-auditter/internal/analyzer"
	"github.com/kluth/extension-auditter/internal/intel"
	"github.com/kluth/extension-auditter/internal/normalizer"
	"github.com/kluth/extension-auditter/internal/patterns"
	"github.com/kluth/extension-auditter/internal/store"
)

// State is the lifecycle phase of a run.
type State string

const (
	StatePending     State = "pending"
	StateNormalizing State = "normalizing"
	StateScoring     State = "scoring"
	StateAggregating State = "aggregating"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// aggregationWeights sum to 1.0, so the weighted composite stays in [0,10];
// only the metadata stage's named deltas can move the final score beyond it.
var aggregationWeights = map[string]float64{
	analyzer.StageMetadata:     0.15,
	analyzer.StagePermissions:  0.20,
	analyzer.StageCodeBehavior: 0.25,
	analyzer.StageNetwork:      0.15,
	analyzer.StageThreatIntel:  0.10,
	analyzer.StageCVE:          0.10,
	analyzer.StageInsight:      0.05,
}

// AggregateResult is the terminal record of one run. A failed run carries no
// scores or verdict.
type AggregateResult struct {
	RunID       string                            `json:"run_id"`
	Status      State                             `json:"status"`
	Scores      map[string]float64                `json:"scores,omitempty"`
	FinalScore  float64                           `json:"final_score"`
	Verdict     Verdict                           `json:"verdict"`
	Bonuses     map[string]float64                `json:"bonuses,omitempty"`
	Maluses     map[string]float64                `json:"maluses,omitempty"`
	Results     map[string]*analyzer.StageResult  `json:"results,omitempty"`
	PackageSize int64                             `json:"package_size"`
	CreatedAt   time.Time                         `json:"created_at"`
	CompletedAt time.Time                         `json:"completed_at,omitempty"`
}

// Config wires the orchestrator's collaborators.
type Config struct {
	// Workers bounds concurrent stage execution. Defaults to the number of
	// leaf stages.
	Workers    int
	WorkRoot   string
	Patterns   *patterns.Library
	Reputation intel.ReputationSource
	Vulns      intel.VulnerabilitySource
	Store      store.Store
}

// Request identifies one package to analyze.
type Request struct {
	RunID  string
	Path   string
	Format normalizer.Format

	// StoreID is the marketplace identifier used for the reputation lookup.
	StoreID string
	// Reputation, when set, short-circuits the lookup.
	Reputation *intel.ReputationRecord
}

// Orchestrator runs analysis pipelines.
type Orchestrator struct {
	cfg   Config
	norm  *normalizer.Normalizer
	graph *stageGraph
}

// New validates the stage graph and returns a ready orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Patterns == nil {
		cfg.Patterns = patterns.Default()
	}
	if cfg.Store == nil {
		cfg.Store = store.NopStore{}
	}

	graph, err := buildGraph(buildStages(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = graph.leaves()
	}

	return &Orchestrator{
		cfg:   cfg,
		norm:  normalizer.New(cfg.WorkRoot),
		graph: graph,
	}, nil
}

func buildStages(cfg Config) []analyzer.Stage {
	return []analyzer.Stage{
		analyzer.NewMetadataStage(),
		analyzer.NewPermissionStage(cfg.Patterns),
		analyzer.NewCodeBehaviorStage(cfg.Patterns),
		analyzer.NewNetworkStage(cfg.Patterns),
		analyzer.NewThreatIntelStage(cfg.Patterns),
		analyzer.NewCVEStage(cfg.Patterns, cfg.Vulns),
		analyzer.NewInsightStage(),
	}
}

// Run executes the full pipeline for one package. The workspace is destroyed
// on every exit path, including cancellation.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*AggregateResult, error) {
	result := &AggregateResult{
		RunID:     req.RunID,
		Status:    StatePending,
		CreatedAt: time.Now().UTC(),
	}
	_ = o.cfg.Store.Create(ctx, req.RunID, result)

	result.Status = StateNormalizing
	_ = o.cfg.Store.Update(ctx, req.RunID, result)

	artifact, err := o.norm.Normalize(req.RunID, req.Path, req.Format)
	if err != nil {
		return nil, o.fail(ctx, result, fmt.Errorf("normalizing package: %w", err))
	}
	defer artifact.Cleanup()
	result.PackageSize = artifact.TotalSize

	input := &analyzer.Input{
		Manifest:   artifact.Manifest,
		Dir:        artifact.Dir,
		Reputation: o.resolveReputation(ctx, req),
	}

	result.Status = StateScoring
	_ = o.cfg.Store.Update(ctx, req.RunID, result)

	results, err := o.runStages(ctx, input)
	if err != nil {
		return nil, o.fail(ctx, result, err)
	}

	result.Status = StateAggregating
	_ = o.cfg.Store.Update(ctx, req.RunID, result)

	o.aggregate(result, results)

	result.Status = StateCompleted
	result.CompletedAt = time.Now().UTC()
	if err := o.cfg.Store.Update(ctx, req.RunID, result); err != nil {
		return result, fmt.Errorf("persisting result: %w", err)
	}
	return result, nil
}

func (o *Orchestrator) fail(ctx context.Context, result *AggregateResult, err error) error {
	result.Status = StateFailed
	result.CompletedAt = time.Now().UTC()
	_ = o.cfg.Store.Update(ctx, result.RunID, result)
	return err
}

// resolveReputation prefers an explicitly supplied record, then the lookup
// source, then the documented fallback. Lookup failures never surface.
func (o *Orchestrator) resolveReputation(ctx context.Context, req Request) *intel.ReputationRecord {
	if req.Reputation != nil {
		return req.Reputation
	}
	if req.StoreID == "" {
		return nil
	}
	if o.cfg.Reputation == nil {
		return intel.FallbackRecord()
	}
	rec, err := o.cfg.Reputation.Lookup(ctx, req.StoreID)
	if err != nil {
		return intel.FallbackRecord()
	}
	return rec
}

// runStages executes the DAG. Each stage waits for its dependencies' done
// channels, then runs under the worker semaphore. Any stage error cancels
// the remaining stages and fails the run.
func (o *Orchestrator) runStages(ctx context.Context, input *analyzer.Input) (map[string]*analyzer.StageResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(map[string]chan struct{}, len(o.graph.stages))
	for name := range o.graph.stages {
		done[name] = make(chan struct{})
	}

	var (
		mu       sync.Mutex
		results  = make(map[string]*analyzer.StageResult, len(o.graph.stages))
		firstErr error
		errOnce  sync.Once
		wg       sync.WaitGroup
		sem      = make(chan struct{}, o.cfg.Workers)
	)

	abort := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for name := range o.graph.stages {
		wg.Add(1)
		go func(stage analyzer.Stage) {
			defer wg.Done()

			for _, dep := range stage.Requires() {
				select {
				case <-done[dep]:
				case <-ctx.Done():
					return
				}
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			mu.Lock()
			prior := make(map[string]*analyzer.StageResult, len(stage.Requires()))
			for _, dep := range stage.Requires() {
				prior[dep] = results[dep]
			}
			mu.Unlock()

			res, err := stage.Analyze(ctx, input, prior)
			if err != nil {
				abort(fmt.Errorf("stage %s: %w", stage.Name(), err))
				return
			}

			mu.Lock()
			results[stage.Name()] = res
			mu.Unlock()
			close(done[stage.Name()])
		}(o.graph.stages[name])
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// aggregate computes the weighted composite, re-applies the metadata stage's
// named deltas outside the per-stage clamp, clamps to [0,50], and classifies.
func (o *Orchestrator) aggregate(result *AggregateResult, results map[string]*analyzer.StageResult) {
	scores := make(map[string]float64, len(results))
	composite := 0.0
	for name, res := range results {
		scores[name] = res.Score
		composite += res.Score * aggregationWeights[name]
	}

	bonuses := map[string]float64{}
	maluses := map[string]float64{}
	if meta, ok := results[analyzer.StageMetadata]; ok {
		for name, delta := range meta.Bonuses {
			bonuses[name] = delta
		}
		for name, delta := range meta.Maluses {
			maluses[name] = delta
		}
	}

	final := composite
	for _, delta := range bonuses {
		final += delta
	}
	for _, delta := range maluses {
		final += delta
	}
	if final < 0 {
		final = 0
	}
	if final > 50 {
		final = 50
	}

	result.Scores = scores
	result.FinalScore = final
	result.Verdict = Classify(final)
	result.Bonuses = bonuses
	result.Maluses = maluses
	result.Results = results
}

// StageInfo describes a registered stage for listings.
type StageInfo struct {
	Name        string
	Requires    []string
	Description string
}

// StageRegistry lists the pipeline's stages in dependency order.
func StageRegistry() []StageInfo {
	return []StageInfo{
		{analyzer.StageMetadata, nil, "Store reputation and manifest completeness"},
		{analyzer.StagePermissions, nil, "Declared permission risk tiers"},
		{analyzer.StageCodeBehavior, nil, "Behavior signature matching over script sources"},
		{analyzer.StageNetwork, nil, "Literal URL extraction and domain classification"},
		{analyzer.StageThreatIntel, []string{analyzer.StageNetwork}, "Domain reputation and phishing heuristics"},
		{analyzer.StageCVE, []string{analyzer.StageCodeBehavior}, "Bundled library vulnerability lookup"},
		{analyzer.StageInsight, []string{analyzer.StageMetadata, analyzer.StagePermissions, analyzer.StageCodeBehavior, analyzer.StageNetwork, analyzer.StageThreatIntel, analyzer.StageCVE}, "Rule-based narrative and recommendations"},
	}
}
