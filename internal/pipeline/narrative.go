package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kryli/TgAnalyzer/internal/gemini"
)

// narrativeInputCap bounds the concatenated artifact text sent to the
// narrative capability.
const narrativeInputCap = 12000

// NarrativeSentinel is written to the final-summary artifact when the
// narrative capability is unavailable or fails, so downstream consumers can
// detect an unusable summary without special-casing errors.
const NarrativeSentinel = "⚠️ GPT summary could not be generated.\n"

// BuildNarrativeInput concatenates the topic list, cluster summaries, word
// frequency table, and composed report in fixed order, including each only
// when present, and truncates the result to the input cap.
func (p *Pipeline) BuildNarrativeInput(ctx context.Context, manifest *Manifest) string {
	combined := fmt.Sprintf(`
📊 Final Chat Analysis Summary

--- Topics (NMF) ---
%s

--- Semantic Clusters (HDBSCAN) ---
%s

--- Frequent Words ---
%s

--- Markdown Report (Optional) ---
%s
`,
		readArtifactText(manifest, ArtifactTopicList),
		readArtifactText(manifest, ArtifactClusterSummaries),
		readArtifactText(manifest, ArtifactWordFrequency),
		readArtifactText(manifest, ArtifactReport),
	)

	// The cap counts characters, not bytes; Cyrillic artifacts would
	// otherwise lose half their budget and truncation could split a rune.
	if runes := []rune(combined); len(runes) > narrativeInputCap {
		p.log.WarnContext(ctx, "Narrative input too long, truncating",
			"chars", len(runes), "cap", narrativeInputCap)
		combined = string(runes[:narrativeInputCap])
	}
	return combined
}

// runNarrative asks the narrative capability for an interpretive summary of
// the run's artifacts. Missing credentials or a capability failure never
// propagate: the sentinel text is written instead.
func (p *Pipeline) runNarrative(ctx context.Context, manifest *Manifest) StageResult {
	log := p.log.With("stage", "narrative")

	if !p.narrativeEnabled {
		return skipped("narrative summary disabled by configuration")
	}

	output := NarrativeSentinel
	resultStatus := success()

	if p.caps.Narrative == nil {
		log.WarnContext(ctx, "Narrative capability unavailable, writing sentinel")
		resultStatus = StageResult{Status: StatusFailed, Reason: "narrative capability unavailable"}
	} else {
		prompt := p.BuildNarrativeInput(ctx, manifest) + gemini.NarrativeQuestions
		text, err := p.caps.Narrative.Complete(ctx, prompt)
		if err != nil {
			log.ErrorContext(ctx, "Narrative generation failed, writing sentinel", "error", err)
			resultStatus = StageResult{Status: StatusFailed, Reason: err.Error(), Err: err}
		} else {
			output = text
		}
	}

	path := filepath.Join(manifest.RunDir, ArtifactNarrative)
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return failed(fmt.Errorf("writing narrative summary: %w", err))
	}
	if resultStatus.Status == StatusSuccess {
		manifest.SetProduced(ArtifactNarrative)
		log.InfoContext(ctx, "Narrative summary written", "path", path)
	} else {
		// The sentinel file exists but the artifact is not a usable summary.
		manifest.SetAbsent(ArtifactNarrative, StatusFailed, resultStatus.Reason)
	}
	return resultStatus
}
