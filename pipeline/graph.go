package pipeline

import (
	"errors"
	"fmt"

	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/models"
)

var (
	ErrDuplicateStage    = errors.New("duplicate stage in graph")
	ErrUnknownDependency = errors.New("stage depends on unknown or later stage")
	ErrInvalidExcerptCap = errors.New("dependency excerpt cap must be positive")
	ErrNoPromptBuilder   = errors.New("stage has no prompt builder")
)

// Excerpt caps bounding how much of a prior stage's output is embedded
// into a later prompt. Text beyond the cap is dropped, not summarized.
const (
	// CritiqueExcerptChars bounds the pleading excerpt stage 2 sees.
	CritiqueExcerptChars = 1000
	// SynthesisExcerptChars bounds each analysis excerpt stage 4 and
	// the advice generator see.
	SynthesisExcerptChars = 1500
)

// Dependency binds a stage to the output of an earlier stage, bounded
// to a fixed number of characters.
type Dependency struct {
	Stage    models.StageID
	MaxChars int
}

// StageSpec describes one pipeline stage as data: identity, model
// class, dependency edges and prompt construction. The runner owns
// truncation, so BuildPrompt receives excerpts already cut to size.
type StageSpec struct {
	ID          models.StageID
	Name        string
	Model       generative.ModelClass
	DependsOn   []Dependency
	System      string
	BuildPrompt func(rec models.CaseRecord, excerpts map[models.StageID]string) string
}

// DefaultGraph returns the four analysis stages in their fixed run
// order. Stage 3 has no dependency edges and may run alongside 1 and 2.
func DefaultGraph() []StageSpec {
	return []StageSpec{
		{
			ID:          models.StageProClient,
			Name:        "Agent 1 - Analytische Jurist",
			Model:       generative.ModelLite,
			System:      proClientSystem,
			BuildPrompt: proClientPrompt,
		},
		{
			ID:    models.StageRisks,
			Name:  "Agent 2 - Advocaat van de Duivel",
			Model: generative.ModelLite,
			DependsOn: []Dependency{
				{Stage: models.StageProClient, MaxChars: CritiqueExcerptChars},
			},
			System:      risksSystem,
			BuildPrompt: risksPrompt,
		},
		{
			ID:          models.StageProcedural,
			Name:        "Agent 3 - Procedurele Strateeg",
			Model:       generative.ModelLite,
			System:      proceduralSystem,
			BuildPrompt: proceduralPrompt,
		},
		{
			ID:    models.StageIntegration,
			Name:  "Agent 4 - Eindverantwoordelijke Adviseur",
			Model: generative.ModelAdvanced,
			DependsOn: []Dependency{
				{Stage: models.StageProClient, MaxChars: SynthesisExcerptChars},
				{Stage: models.StageRisks, MaxChars: SynthesisExcerptChars},
				{Stage: models.StageProcedural, MaxChars: SynthesisExcerptChars},
			},
			System:      integrationSystem,
			BuildPrompt: integrationPrompt,
		},
	}
}

// ValidateGraph checks that the graph is runnable: unique stages, every
// dependency points at an earlier stage, positive excerpt caps and a
// prompt builder per stage.
func ValidateGraph(graph []StageSpec) error {
	seen := make(map[models.StageID]bool, len(graph))
	for _, spec := range graph {
		if seen[spec.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateStage, spec.ID)
		}
		if spec.BuildPrompt == nil {
			return fmt.Errorf("%w: %s", ErrNoPromptBuilder, spec.ID)
		}
		for _, dep := range spec.DependsOn {
			if !seen[dep.Stage] {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownDependency, spec.ID, dep.Stage)
			}
			if dep.MaxChars <= 0 {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidExcerptCap, spec.ID, dep.Stage)
			}
		}
		seen[spec.ID] = true
	}
	return nil
}
