package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const maxExcerptsPerCluster = 5

// runClusterSummaries reads the labeled cluster table and writes a bounded,
// human-readable excerpt block per cluster. Noise (-1) and singleton
// clusters are excluded. Every precondition failure is a soft skip; this
// stage never aborts the run.
func (p *Pipeline) runClusterSummaries(ctx context.Context, manifest *Manifest) StageResult {
	log := p.log.With("stage", "cluster_summaries")

	csvPath := manifest.PathOf(ArtifactClusterTable)
	if csvPath == "" {
		return skipped("cluster table not available")
	}

	groups, err := readClusterGroups(csvPath)
	if err != nil {
		log.WarnContext(ctx, "Could not read cluster table", "error", err)
		return skipped("cluster table unreadable: %v", err)
	}

	labels := make([]int, 0, len(groups))
	for label, texts := range groups {
		if label == -1 || len(texts) <= 1 {
			continue
		}
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return skipped("no clusters with more than one message")
	}
	sort.Ints(labels)

	var sb strings.Builder
	for _, label := range labels {
		texts := groups[label]
		fmt.Fprintf(&sb, "--- Cluster %d (%d messages) ---\n", label, len(texts))
		for i, text := range texts {
			if i >= maxExcerptsPerCluster {
				break
			}
			fmt.Fprintf(&sb, "• %s\n", text)
		}
		sb.WriteString("\n")
	}

	outPath := filepath.Join(manifest.RunDir, ArtifactClusterSummaries)
	if err := os.WriteFile(outPath, []byte(sb.String()), 0o644); err != nil {
		return failed(fmt.Errorf("writing cluster summaries: %w", err))
	}
	manifest.SetProduced(ArtifactClusterSummaries)
	log.InfoContext(ctx, "Cluster summaries written", "clusters", len(labels))
	return success()
}

// readClusterGroups parses the cluster table into label -> texts, collapsing
// newlines inside excerpts and dropping empty texts. Order within a group
// follows the table.
func readClusterGroups(path string) (map[int][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	textCol, clusterCol := -1, -1
	for i, name := range header {
		switch name {
		case "text":
			textCol = i
		case "cluster":
			clusterCol = i
		}
	}
	if textCol == -1 || clusterCol == -1 {
		return nil, fmt.Errorf("required columns 'text' or 'cluster' missing")
	}

	newlines := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
	groups := make(map[int][]string)
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if len(record) <= textCol || len(record) <= clusterCol {
			continue
		}
		label, err := strconv.Atoi(strings.TrimSpace(record[clusterCol]))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(newlines.Replace(record[textCol]))
		if text == "" {
			continue
		}
		groups[label] = append(groups[label], text)
	}
	return groups, nil
}
