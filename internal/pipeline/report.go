package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// runReport composes the Markdown report from whatever artifacts the run
// produced. Missing artifacts get an explicit placeholder line; the report
// must be producible from any subset of completed stages.
func (p *Pipeline) runReport(ctx context.Context, manifest *Manifest) StageResult {
	log := p.log.With("stage", "report")

	content := AssembleReport(manifest)
	path := filepath.Join(manifest.RunDir, ArtifactReport)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return failed(fmt.Errorf("writing report: %w", err))
	}
	manifest.SetProduced(ArtifactReport)
	log.InfoContext(ctx, "Report written", "path", path)
	return success()
}

// AssembleReport builds the report text from the manifest. It never fails:
// each section either references its artifact or carries a placeholder.
func AssembleReport(manifest *Manifest) string {
	var sb strings.Builder
	sb.WriteString("# 🧠 Chat Topic Report\n\n")

	sb.WriteString("## 🔹 Word Frequency Analysis\n")
	if manifest.Present(ArtifactTopWordsChart) {
		sb.WriteString("![Top Words](" + ArtifactTopWordsChart + ")\n\n")
	} else {
		sb.WriteString("_Word frequency chart not available._\n\n")
	}

	sb.WriteString("## 🔹 Topics by NMF\n")
	if topics := readArtifactText(manifest, ArtifactTopicList); topics != "" {
		sb.WriteString("```\n" + topics + "\n```\n\n")
	} else {
		sb.WriteString("_NMF topics not available._\n\n")
	}

	sb.WriteString("## 🔹 Clusters by HDBSCAN\n")
	if manifest.Present(ArtifactClusterChart) {
		sb.WriteString("![Cluster Map](" + ArtifactClusterChart + ")\n\n")
	} else {
		sb.WriteString("_Cluster visualization not available._\n\n")
	}

	sb.WriteString("## 🔹 Message Activity\n")
	if manifest.Present(ArtifactMessageActivity) {
		sb.WriteString("![Message Activity](" + ArtifactMessageActivity + ")\n\n")
	} else {
		sb.WriteString("_Message activity chart not available._\n\n")
	}

	sb.WriteString("## 🔹 User Activity\n")
	if manifest.Present(ArtifactUserActivity) {
		sb.WriteString("![User Activity](" + ArtifactUserActivity + ")\n\n")
	} else {
		sb.WriteString("_User activity chart not available._\n\n")
	}

	return sb.String()
}

// readArtifactText returns the trimmed content of a text artifact, or ""
// when the artifact is absent or unreadable.
func readArtifactText(manifest *Manifest, name string) string {
	path := manifest.PathOf(name)
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
