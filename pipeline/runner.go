package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/metrics"
	"juridisch-advies-backend/models"
)

// FailurePolicy decides what a later prompt sees of a failed
// predecessor stage.
type FailurePolicy int

const (
	// EmbedFailureMarkers forwards a failed stage's marker text into
	// later prompts unchanged. This mirrors how runs always behaved.
	EmbedFailureMarkers FailurePolicy = iota
	// OmitFailedStages replaces a failed predecessor's excerpt with a
	// short unavailability note instead of its marker text.
	OmitFailedStages
)

// UnavailableNote stands in for a failed predecessor's excerpt under
// OmitFailedStages.
const UnavailableNote = "(analyse niet beschikbaar)"

// StageObserver is notified right before a stage starts.
type StageObserver func(stage models.StageID, name string)

// StageCompletedFunc is notified with each stage output as it is
// produced. Under WithParallelIndependents it may be called from
// multiple goroutines.
type StageCompletedFunc func(out models.StageOutput)

// Runner executes the analysis stages of the graph. Each stage runs
// exactly once per call, there are no retries, and a failed stage keeps
// its slot in the outputs as a failed result.
type Runner struct {
	gen       generative.Service
	graph     []StageSpec
	policy    FailurePolicy
	observer  StageObserver
	completed StageCompletedFunc
	parallel  bool
	log       logger.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithGraph replaces the default stage graph.
func WithGraph(graph []StageSpec) RunnerOption {
	return func(r *Runner) {
		r.graph = graph
	}
}

// WithFailurePolicy sets how failed predecessors appear in later prompts.
func WithFailurePolicy(policy FailurePolicy) RunnerOption {
	return func(r *Runner) {
		r.policy = policy
	}
}

// WithStageObserver registers a callback invoked as each stage starts.
func WithStageObserver(observer StageObserver) RunnerOption {
	return func(r *Runner) {
		r.observer = observer
	}
}

// WithStageCompleted registers a callback invoked with each stage
// output as soon as it exists.
func WithStageCompleted(completed StageCompletedFunc) RunnerOption {
	return func(r *Runner) {
		r.completed = completed
	}
}

// WithParallelIndependents runs stages without unsatisfied dependencies
// concurrently. Prompt content and output order are identical to the
// sequential run because excerpts are cut from the same edges.
func WithParallelIndependents() RunnerOption {
	return func(r *Runner) {
		r.parallel = true
	}
}

// NewRunner builds a runner over the default graph unless WithGraph
// overrides it.
func NewRunner(gen generative.Service, log logger.Logger, opts ...RunnerOption) (*Runner, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	r := &Runner{gen: gen, graph: DefaultGraph(), log: log}
	for _, opt := range opts {
		opt(r)
	}
	if err := ValidateGraph(r.graph); err != nil {
		return nil, err
	}
	return r, nil
}

// Run executes every stage and returns their outputs in graph order.
func (r *Runner) Run(ctx context.Context, rec models.CaseRecord) []models.StageOutput {
	if r.parallel {
		return r.runParallel(ctx, rec)
	}

	done := make(map[models.StageID]models.StageOutput, len(r.graph))
	outputs := make([]models.StageOutput, 0, len(r.graph))
	for _, spec := range r.graph {
		out := r.runStage(ctx, spec, rec, done)
		done[spec.ID] = out
		outputs = append(outputs, out)
	}
	return outputs
}

// runParallel executes the graph in waves: every stage whose
// dependencies are satisfied runs concurrently with the others in its
// wave. Validation guarantees each wave makes progress.
func (r *Runner) runParallel(ctx context.Context, rec models.CaseRecord) []models.StageOutput {
	var mu sync.Mutex
	done := make(map[models.StageID]models.StageOutput, len(r.graph))

	remaining := r.graph
	for len(remaining) > 0 {
		var wave, next []StageSpec
		for _, spec := range remaining {
			if dependenciesSatisfied(spec, done) {
				wave = append(wave, spec)
			} else {
				next = append(next, spec)
			}
		}

		snapshot := make(map[models.StageID]models.StageOutput, len(done))
		for id, out := range done {
			snapshot[id] = out
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, spec := range wave {
			spec := spec
			g.Go(func() error {
				out := r.runStage(gctx, spec, rec, snapshot)
				mu.Lock()
				done[spec.ID] = out
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		remaining = next
	}

	outputs := make([]models.StageOutput, 0, len(r.graph))
	for _, spec := range r.graph {
		outputs = append(outputs, done[spec.ID])
	}
	return outputs
}

func dependenciesSatisfied(spec StageSpec, done map[models.StageID]models.StageOutput) bool {
	for _, dep := range spec.DependsOn {
		if _, ok := done[dep.Stage]; !ok {
			return false
		}
	}
	return true
}

// runStage cuts the dependency excerpts, issues the stage's single
// generative call and records its duration.
func (r *Runner) runStage(ctx context.Context, spec StageSpec, rec models.CaseRecord, done map[models.StageID]models.StageOutput) models.StageOutput {
	if r.observer != nil {
		r.observer(spec.ID, spec.Name)
	}

	excerpts := make(map[models.StageID]string, len(spec.DependsOn))
	for _, dep := range spec.DependsOn {
		excerpts[dep.Stage] = excerptText(done[dep.Stage], dep.MaxChars, r.policy)
	}

	start := time.Now()
	res := r.gen.Complete(ctx, generative.CompletionRequest{
		System: spec.System,
		User:   spec.BuildPrompt(rec, excerpts),
		Model:  spec.Model,
	})
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(string(spec.ID)).Observe(elapsed.Seconds())

	if res.Ok() {
		r.log.Info("stage completed", map[string]interface{}{
			"stage":   string(spec.ID),
			"name":    spec.Name,
			"elapsed": elapsed.Seconds(),
		})
	} else {
		r.log.Warn("stage failed", map[string]interface{}{
			"stage":  string(spec.ID),
			"name":   spec.Name,
			"reason": res.Reason,
		})
	}

	out := models.StageOutput{
		Stage:          spec.ID,
		Name:           spec.Name,
		Result:         res,
		ElapsedSeconds: elapsed.Seconds(),
	}
	if r.completed != nil {
		r.completed(out)
	}
	return out
}

// excerptText renders the part of a prior output a later prompt may
// embed. Under OmitFailedStages a failed predecessor is reduced to a
// short note; otherwise its marker text is embedded like any analysis.
func excerptText(out models.StageOutput, maxChars int, policy FailurePolicy) string {
	if !out.Result.Ok() && policy == OmitFailedStages {
		return UnavailableNote
	}
	return Truncate(out.Result.String(), maxChars)
}

// Truncate bounds text to a fixed number of characters. Characters
// beyond the cap are dropped without summarizing. A cap of zero or less
// means no bound.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
