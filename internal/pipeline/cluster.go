package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kryli/TgAnalyzer/internal/corpus"
)

// ClusteringParams holds the density-clustering parameters derived from
// corpus size. They are recomputed each run and never persisted.
type ClusteringParams struct {
	MinClusterSize int
	MinSamples     int
}

// TuneClusteringParams maps corpus size to clustering sensitivity. The
// thresholds are part of the stage contract; changing them changes which
// corpora produce meaningful clusters.
func TuneClusteringParams(n int) ClusteringParams {
	switch {
	case n < 100:
		return ClusteringParams{MinClusterSize: 1, MinSamples: 1}
	case n < 300:
		return ClusteringParams{MinClusterSize: 2, MinSamples: 1}
	default:
		return ClusteringParams{MinClusterSize: 3, MinSamples: 2}
	}
}

// runClustering embeds the corpus texts, clusters the embeddings, and writes
// the labeled table plus a 2D projection chart. A degenerate labeling
// (single cluster or all noise) is treated as not meaningful and skipped.
func (p *Pipeline) runClustering(ctx context.Context, messages []corpus.Message, manifest *Manifest) StageResult {
	log := p.log.With("stage", "clustering")

	texts := corpus.Texts(messages)
	if len(texts) < minMessagesForFullAnalysis {
		return skipped("not enough messages for clustering (need >=%d, found %d)", minMessagesForFullAnalysis, len(texts))
	}
	if p.caps.Embedder == nil {
		return skipped("embedding capability not configured")
	}

	params := TuneClusteringParams(len(texts))
	log.InfoContext(ctx, "Clustering parameters tuned",
		"messages", len(texts),
		"min_cluster_size", params.MinClusterSize,
		"min_samples", params.MinSamples)

	vectors, err := p.caps.Embedder.Embed(ctx, texts)
	if err != nil {
		log.ErrorContext(ctx, "Embedding failed", "error", err)
		return failed(fmt.Errorf("embedding: %w", err))
	}
	if len(vectors) != len(texts) {
		return failed(fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts)))
	}

	labels, err := p.caps.Clusterer.Cluster(ctx, vectors, params.MinClusterSize, params.MinSamples)
	if err != nil {
		log.ErrorContext(ctx, "Clustering failed", "error", err)
		return failed(fmt.Errorf("clustering: %w", err))
	}
	if len(labels) != len(texts) {
		return failed(fmt.Errorf("clusterer returned %d labels for %d texts", len(labels), len(texts)))
	}

	distinct := make(map[int]struct{})
	for _, l := range labels {
		distinct[l] = struct{}{}
	}
	if len(distinct) <= 1 {
		return skipped("clustering found a single cluster or only noise, result not meaningful")
	}

	csvPath := filepath.Join(manifest.RunDir, ArtifactClusterTable)
	if err := writeClusterCSV(texts, labels, csvPath); err != nil {
		return failed(err)
	}
	manifest.SetProduced(ArtifactClusterTable)
	log.InfoContext(ctx, "Cluster table written", "clusters", len(distinct))

	points, err := p.caps.Projector.Project2D(ctx, vectors)
	if err != nil {
		log.ErrorContext(ctx, "2D projection failed", "error", err)
		return failed(fmt.Errorf("projection: %w", err))
	}

	chartPath := filepath.Join(manifest.RunDir, ArtifactClusterChart)
	if err := renderClusterScatter("HDBSCAN Clusters via UMAP", points, labels, chartPath); err != nil {
		return failed(err)
	}
	manifest.SetProduced(ArtifactClusterChart)
	return success()
}

func writeClusterCSV(texts []string, labels []int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"text", "cluster"}); err != nil {
		return fmt.Errorf("writing cluster header: %w", err)
	}
	for i, text := range texts {
		if err := w.Write([]string{text, strconv.Itoa(labels[i])}); err != nil {
			return fmt.Errorf("writing cluster row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
