package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names inside a run's result directory. These are fixed and
// shared with downstream consumers; do not rename.
const (
	ArtifactWordFrequency    = "word_frequency.csv"
	ArtifactTopWordsChart    = "top_words.png"
	ArtifactTopicList        = "nmf_topics.txt"
	ArtifactClusterTable     = "hdbscan_clusters.csv"
	ArtifactClusterChart     = "hdbscan_umap.png"
	ArtifactClusterSummaries = "cluster_summaries.txt"
	ArtifactMessageActivity  = "message_activity.png"
	ArtifactUserActivity     = "user_activity.png"
	ArtifactReport           = "report.md"
	ArtifactNarrative        = "final_analysis_gpt.txt"

	manifestFileName = "manifest.json"
)

// Status is the terminal state of a stage or artifact.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ArtifactInfo records the outcome for one named artifact.
type ArtifactInfo struct {
	Status Status `json:"status"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Manifest maps artifact names to their status and location for one run. It
// replaces filesystem probing as the signal for artifact presence.
type Manifest struct {
	RunDir    string                  `json:"run_dir"`
	Artifacts map[string]ArtifactInfo `json:"artifacts"`
}

// NewManifest creates an empty manifest for the given run directory.
func NewManifest(runDir string) *Manifest {
	return &Manifest{RunDir: runDir, Artifacts: make(map[string]ArtifactInfo)}
}

// SetProduced records a successfully written artifact.
func (m *Manifest) SetProduced(name string) {
	m.Artifacts[name] = ArtifactInfo{Status: StatusSuccess, Path: filepath.Join(m.RunDir, name)}
}

// SetAbsent records an artifact that was not produced, with the stage's
// skip reason or failure description.
func (m *Manifest) SetAbsent(name string, status Status, reason string) {
	m.Artifacts[name] = ArtifactInfo{Status: status, Reason: reason}
}

// Present reports whether the named artifact was produced.
func (m *Manifest) Present(name string) bool {
	info, ok := m.Artifacts[name]
	return ok && info.Status == StatusSuccess
}

// PathOf returns the artifact's path, or "" when absent.
func (m *Manifest) PathOf(name string) string {
	info, ok := m.Artifacts[name]
	if !ok || info.Status != StatusSuccess {
		return ""
	}
	return info.Path
}

// Write persists the manifest as manifest.json inside the run directory.
func (m *Manifest) Write() error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	path := filepath.Join(m.RunDir, manifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// StageResult is the tagged outcome of one stage. Failure of a stage never
// aborts the run; the orchestrator records the result and continues.
type StageResult struct {
	Status Status
	Reason string
	Err    error
}

func success() StageResult {
	return StageResult{Status: StatusSuccess}
}

func skipped(format string, args ...any) StageResult {
	return StageResult{Status: StatusSkipped, Reason: fmt.Sprintf(format, args...)}
}

func failed(err error) StageResult {
	return StageResult{Status: StatusFailed, Reason: err.Error(), Err: err}
}
