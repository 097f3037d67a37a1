// Package pipeline sequences the analysis stages for one chat corpus:
// word frequency, activity charts, topic modeling, semantic clustering,
// cluster summaries, report assembly, and the optional narrative summary.
//
// Only a corpus-loading failure aborts a run. Every later stage reports a
// tagged result (success, skipped, or failed) and the orchestrator continues
// regardless, so one failing capability cannot take down the whole analysis.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kryli/TgAnalyzer/internal/corpus"
)

// minMessagesForFullAnalysis gates topic modeling and clustering. Smaller
// corpora still get frequency and activity analysis.
const minMessagesForFullAnalysis = 10

// Embedder produces one fixed-dimension vector per text, order-preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Clusterer assigns one integer label per vector; -1 denotes noise.
type Clusterer interface {
	Cluster(ctx context.Context, vectors [][]float64, minClusterSize, minSamples int) ([]int, error)
}

// Projector reduces vectors to (x, y) pairs, order-preserving.
type Projector interface {
	Project2D(ctx context.Context, vectors [][]float64) ([][2]float64, error)
}

// TopicModeler factorizes a term-weighting matrix into document-topic and
// topic-term weights.
type TopicModeler interface {
	Decompose(ctx context.Context, matrix [][]float64, nTopics int) (w, h [][]float64, err error)
}

// Completer generates the narrative summary from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Capabilities bundles the external numerical and language capabilities the
// pipeline delegates to. Narrative may be nil when no credentials are
// configured.
type Capabilities struct {
	Embedder     Embedder
	Clusterer    Clusterer
	Projector    Projector
	TopicModeler TopicModeler
	Narrative    Completer
}

// Pipeline is the stage orchestrator.
type Pipeline struct {
	caps             Capabilities
	narrativeEnabled bool
	log              *slog.Logger
}

// New creates a pipeline with the given capabilities.
func New(caps Capabilities, narrativeEnabled bool, log *slog.Logger) *Pipeline {
	return &Pipeline{
		caps:             caps,
		narrativeEnabled: narrativeEnabled,
		log:              log.With("component", "pipeline"),
	}
}

// RunResult describes a completed run.
type RunResult struct {
	RunDir     string
	Manifest   *Manifest
	ReportPath string

	// ChartPaths maps chart artifact names to absolute paths for the
	// charts that were produced.
	ChartPaths map[string]string
}

// Run executes all stages over the corpus at corpusPath, writing artifacts
// into runDir. It returns an error only when the corpus cannot be loaded or
// the run directory cannot be created; all stage outcomes are recorded in
// the manifest.
func (p *Pipeline) Run(ctx context.Context, corpusPath, runDir string) (*RunResult, error) {
	messages, err := corpus.Load(corpusPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", runDir, err)
	}

	p.log.InfoContext(ctx, "Starting analysis run", "corpus", corpusPath, "messages", len(messages), "run_dir", runDir)
	manifest := NewManifest(runDir)

	stages := []struct {
		name      string
		artifacts []string
		run       func(context.Context, *Manifest) StageResult
	}{
		{"frequency", []string{ArtifactWordFrequency, ArtifactTopWordsChart}, func(ctx context.Context, m *Manifest) StageResult {
			return p.runFrequency(ctx, messages, m)
		}},
		{"message_activity", []string{ArtifactMessageActivity}, func(ctx context.Context, m *Manifest) StageResult {
			return p.runMessageActivity(ctx, messages, m)
		}},
		{"user_activity", []string{ArtifactUserActivity}, func(ctx context.Context, m *Manifest) StageResult {
			return p.runUserActivity(ctx, messages, m)
		}},
		{"topics", []string{ArtifactTopicList}, func(ctx context.Context, m *Manifest) StageResult {
			return p.runTopics(ctx, messages, m)
		}},
		{"clustering", []string{ArtifactClusterTable, ArtifactClusterChart}, func(ctx context.Context, m *Manifest) StageResult {
			return p.runClustering(ctx, messages, m)
		}},
		{"cluster_summaries", []string{ArtifactClusterSummaries}, func(ctx context.Context, m *Manifest) StageResult {
			return p.runClusterSummaries(ctx, m)
		}},
		{"report", []string{ArtifactReport}, func(ctx context.Context, m *Manifest) StageResult {
			return p.runReport(ctx, m)
		}},
		{"narrative", []string{ArtifactNarrative}, func(ctx context.Context, m *Manifest) StageResult {
			return p.runNarrative(ctx, m)
		}},
	}

	for _, stage := range stages {
		result := stage.run(ctx, manifest)

		// Stages record the artifacts they produced; everything else the
		// stage owns is marked with the stage's terminal status.
		for _, name := range stage.artifacts {
			if _, recorded := manifest.Artifacts[name]; !recorded {
				manifest.SetAbsent(name, result.Status, result.Reason)
			}
		}

		switch result.Status {
		case StatusSuccess:
			p.log.InfoContext(ctx, "Stage completed", "stage", stage.name)
		case StatusSkipped:
			p.log.WarnContext(ctx, "Stage skipped", "stage", stage.name, "reason", result.Reason)
		case StatusFailed:
			p.log.ErrorContext(ctx, "Stage failed", "stage", stage.name, "error", result.Reason)
		}
	}

	if err := manifest.Write(); err != nil {
		p.log.ErrorContext(ctx, "Could not persist manifest", "error", err)
	}

	result := &RunResult{
		RunDir:     runDir,
		Manifest:   manifest,
		ReportPath: manifest.PathOf(ArtifactReport),
		ChartPaths: make(map[string]string),
	}
	for _, name := range []string{ArtifactTopWordsChart, ArtifactClusterChart, ArtifactMessageActivity, ArtifactUserActivity} {
		if path := manifest.PathOf(name); path != "" {
			result.ChartPaths[name] = path
		}
	}

	p.log.InfoContext(ctx, "Analysis run completed", "run_dir", runDir)
	return result, nil
}
