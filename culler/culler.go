// Package culler is the decision engine of the pipeline: it resolves
// duplicate groups to single survivors, applies the quality gate, and
// trims the remainder down to the target count.
package culler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"imageculler/config"
	"imageculler/grouper"
	"imageculler/logging"
	"imageculler/types"
)

// FeatureProvider supplies the scored, feature-bearing image set for one
// run. Implementations call the external scoring/embedding models.
type FeatureProvider interface {
	Extract(ctx context.Context) ([]*types.Image, error)
}

// Exporter writes side artifacts for auditability. Export failures are
// per-file and non-fatal; implementations return false when any copy
// failed.
type Exporter interface {
	ExportDuplicateSets(groups []types.DuplicateGroup, discarded map[string]bool) bool
	ExportCulled(names []string) bool
}

// Result is the outcome of one pipeline run. Kept is ordered ascending by
// weighted score, worst-of-the-kept first.
type Result struct {
	Kept   []string
	Culled []string
	Stats  types.CullStats
}

// Pipeline sequences the culling stages. Runs are independent: a Pipeline
// holds no state between runs beyond its collaborators.
type Pipeline struct {
	cfg      config.Config
	provider FeatureProvider
	strategy grouper.Strategy
	exporter Exporter
	sink     EventSink
	runID    string
}

// New assembles a pipeline from its collaborators. exporter and sink may
// be nil to disable side artifacts.
func New(cfg config.Config, provider FeatureProvider, strategy grouper.Strategy, exporter Exporter, sink EventSink) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		provider: provider,
		strategy: strategy,
		exporter: exporter,
		sink:     sink,
		runID:    uuid.NewString(),
	}
}

// RunID returns the identifier stamped on this pipeline's audit events.
func (p *Pipeline) RunID() string { return p.runID }

// Run executes Scoring -> Grouping -> SurvivorSelection -> QualityGate ->
// Trimming. Any stage failure aborts the run with no partial kept list;
// context cancellation stops new provider calls and aborts the same way.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	// Scoring: build the immutable per-run image set from the providers.
	images, err := p.provider.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("scoring stage: %w", err)
	}

	stats := types.CullStats{
		Strategy:    p.strategy.Name(),
		Threshold:   p.cfg.Threshold(),
		TotalImages: len(images),
	}

	if len(images) == 0 {
		logging.LogInfo("No images found, nothing to cull")
		p.emit(Event{Stage: StageDone})
		return &Result{Stats: stats}, nil
	}

	scores := make(map[string]types.ScoreVector, len(images))
	order := make([]string, 0, len(images))
	for _, img := range images {
		scores[img.Name] = img.Scores
		order = append(order, img.Name)
	}

	// Grouping: partition the set with the configured strategy.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("grouping stage: %w", err)
	}
	groups, err := p.strategy.Group(ctx, images)
	if err != nil {
		return nil, fmt.Errorf("grouping stage: %w", err)
	}
	for _, g := range groups {
		if len(g.Members) > 1 {
			stats.DuplicateSets++
			stats.Duplicates += len(g.Members)
		}
	}

	// SurvivorSelection: one arg-max survivor per group.
	var culled []string
	inPlay := make(map[string]bool, len(images))
	for _, name := range order {
		inPlay[name] = true
	}

	discards := SelectSurvivors(scores, groups)
	discarded := make(map[string]bool, len(discards))
	for i, name := range discards {
		inPlay[name] = false
		discarded[name] = true
		culled = append(culled, name)
		p.emit(Event{
			Stage:     StageSurvivorSelection,
			Image:     name,
			Reason:    "lower weighted score than group survivor",
			Index:     i + 1,
			Total:     len(discards),
			Remaining: len(images) - len(culled),
		})
	}

	if p.exporter != nil {
		if !p.exporter.ExportDuplicateSets(groups, discarded) {
			logging.LogWarning("Some duplicate-set exports failed")
		}
	}

	// QualityGate: drop anything under the fixed thresholds.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("quality gate stage: %w", err)
	}
	remaining := order[:0:0]
	for _, name := range order {
		if !inPlay[name] {
			continue
		}
		if category, failed := FailsQualityGate(scores[name]); failed {
			inPlay[name] = false
			culled = append(culled, name)
			p.emit(Event{
				Stage:     StageQualityGate,
				Image:     name,
				Reason:    category,
				Remaining: len(images) - len(culled),
			})
			continue
		}
		remaining = append(remaining, name)
	}

	// Trimming: keep the cullTo best, ascending by weighted score.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("trimming stage: %w", err)
	}
	kept, dropped := TrimToTarget(scores, remaining, p.cfg.CullTo)
	for _, name := range dropped {
		culled = append(culled, name)
		p.emit(Event{
			Stage:     StageTrimming,
			Image:     name,
			Reason:    "over target count",
			Remaining: len(images) - len(culled),
		})
	}

	if p.exporter != nil {
		if !p.exporter.ExportCulled(culled) {
			logging.LogWarning("Some culled-image exports failed")
		}
	}

	stats.Culled = len(culled)
	stats.Kept = len(kept)
	p.emit(Event{Stage: StageDone, Remaining: len(kept)})

	return &Result{Kept: kept, Culled: culled, Stats: stats}, nil
}
