package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kryli/TgAnalyzer/internal/corpus"
)

const (
	defaultTopicCount     = 10
	defaultWordsPerTopic  = 10
	topicMinDocFrequency  = 2
	topicMaxDocProportion = 0.95
)

// runTopics builds a TF-IDF matrix over the corpus and delegates the
// factorization to the topic-modeling capability, writing one line per topic
// with its top terms.
func (p *Pipeline) runTopics(ctx context.Context, messages []corpus.Message, manifest *Manifest) StageResult {
	log := p.log.With("stage", "topics")

	texts := corpus.Texts(messages)
	if len(texts) < minMessagesForFullAnalysis {
		return skipped("not enough messages for topic modeling (need >=%d, found %d)", minMessagesForFullAnalysis, len(texts))
	}

	matrix := buildTermMatrix(texts, topicStopwords, topicMinDocFrequency, topicMaxDocProportion)
	if matrix.empty() {
		return skipped("term matrix is empty, no suitable vocabulary")
	}

	nTopics := defaultTopicCount
	if len(matrix.rows) < nTopics {
		nTopics = max(2, len(matrix.rows)/2)
		log.InfoContext(ctx, "Adjusted topic count to document count", "n_topics", nTopics)
	}

	_, h, err := p.caps.TopicModeler.Decompose(ctx, matrix.rows, nTopics)
	if err != nil {
		log.ErrorContext(ctx, "Topic decomposition failed", "error", err)
		return failed(fmt.Errorf("topic decomposition: %w", err))
	}

	var sb strings.Builder
	for topicIdx, weights := range h {
		top := topTermIndices(weights, defaultWordsPerTopic)
		words := make([]string, 0, len(top))
		for _, termIdx := range top {
			if termIdx < len(matrix.terms) {
				words = append(words, matrix.terms[termIdx])
			}
		}
		fmt.Fprintf(&sb, "Topic %d: %s\n", topicIdx+1, strings.Join(words, " "))
	}

	path := filepath.Join(manifest.RunDir, ArtifactTopicList)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return failed(fmt.Errorf("writing topic list: %w", err))
	}
	manifest.SetProduced(ArtifactTopicList)
	log.InfoContext(ctx, "Topic list written", "topics", len(h))
	return success()
}

// topTermIndices returns the indices of the n largest weights, descending by
// weight with ties broken by ascending index.
func topTermIndices(weights []float64, n int) []int {
	idx := make([]int, len(weights))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return weights[idx[a]] > weights[idx[b]]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}
