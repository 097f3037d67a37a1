package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kryli/TgAnalyzer/internal/corpus"
)

const topWordsLimit = 20

var wordToken = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// wordCount pairs a word with its occurrence count, preserving the order in
// which words were first encountered so that ties sort deterministically.
type wordCount struct {
	word  string
	count int
}

// topWords tokenizes the texts, removes stop-words, and returns the top
// `limit` words with count > 1, ordered by count descending with ties broken
// by first encounter.
func topWords(texts []string, limit int) []wordCount {
	counts := make(map[string]int)
	var order []string

	for _, text := range texts {
		for _, token := range wordToken.FindAllString(strings.ToLower(text), -1) {
			if _, stop := frequencyStopwords[token]; stop {
				continue
			}
			if _, seen := counts[token]; !seen {
				order = append(order, token)
			}
			counts[token]++
		}
	}

	var frequent []wordCount
	for _, w := range order {
		if counts[w] > 1 {
			frequent = append(frequent, wordCount{word: w, count: counts[w]})
		}
	}

	sort.SliceStable(frequent, func(i, j int) bool {
		return frequent[i].count > frequent[j].count
	})
	if len(frequent) > limit {
		frequent = frequent[:limit]
	}
	return frequent
}

// runFrequency produces the word-frequency table and its bar chart. It skips
// (never fails hard) when the corpus yields no usable tokens.
func (p *Pipeline) runFrequency(ctx context.Context, messages []corpus.Message, manifest *Manifest) StageResult {
	log := p.log.With("stage", "frequency")

	texts := corpus.Texts(messages)
	if len(texts) == 0 {
		return skipped("no messages with valid text")
	}

	top := topWords(texts, topWordsLimit)
	if len(top) == 0 {
		return skipped("no words with frequency > 1 after stop-word removal")
	}

	csvPath := filepath.Join(manifest.RunDir, ArtifactWordFrequency)
	if err := writeFrequencyCSV(top, csvPath); err != nil {
		return failed(err)
	}
	manifest.SetProduced(ArtifactWordFrequency)
	log.InfoContext(ctx, "Word frequency table written", "words", len(top))

	labels := make([]string, len(top))
	values := make([]float64, len(top))
	for i, wc := range top {
		labels[i] = wc.word
		values[i] = float64(wc.count)
	}
	chartPath := filepath.Join(manifest.RunDir, ArtifactTopWordsChart)
	if err := renderBarChart("Top 20 Frequent Words", "Count", labels, values, chartPath); err != nil {
		return failed(fmt.Errorf("frequency chart: %w", err))
	}
	manifest.SetProduced(ArtifactTopWordsChart)

	return success()
}

func writeFrequencyCSV(top []wordCount, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"word", "count"}); err != nil {
		return fmt.Errorf("writing frequency header: %w", err)
	}
	for _, wc := range top {
		if err := w.Write([]string{wc.word, strconv.Itoa(wc.count)}); err != nil {
			return fmt.Errorf("writing frequency row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
