package pipeline

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// termToken matches words of at least two characters, the convention used
// when building the term-weighting matrix (single letters carry no topical
// signal).
var termToken = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// termMatrix is a TF-IDF weighting of a document collection: one row per
// document, one column per vocabulary term, rows l2-normalized.
type termMatrix struct {
	rows  [][]float64
	terms []string
}

// buildTermMatrix tokenizes the documents, removes stop-words, prunes terms
// by document frequency (absolute minimum minDF, proportional maximum
// maxDF), and computes smoothed TF-IDF weights. The vocabulary is sorted
// alphabetically so column order is deterministic. Returns an empty matrix
// when no terms survive pruning.
func buildTermMatrix(docs []string, stopwords map[string]struct{}, minDF int, maxDF float64) termMatrix {
	docTokens := make([][]string, len(docs))
	docFreq := make(map[string]int)

	for i, doc := range docs {
		tokens := termToken.FindAllString(strings.ToLower(doc), -1)
		kept := tokens[:0]
		seen := make(map[string]struct{})
		for _, t := range tokens {
			if _, stop := stopwords[t]; stop {
				continue
			}
			kept = append(kept, t)
			if _, dup := seen[t]; !dup {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
		docTokens[i] = kept
	}

	maxDocs := int(maxDF * float64(len(docs)))
	var terms []string
	for term, df := range docFreq {
		if df < minDF || df > maxDocs {
			continue
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return termMatrix{}
	}
	sort.Strings(terms)

	termIdx := make(map[string]int, len(terms))
	for i, t := range terms {
		termIdx[t] = i
	}

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}

	rows := make([][]float64, len(docs))
	for i, tokens := range docTokens {
		row := make([]float64, len(terms))
		for _, t := range tokens {
			if j, ok := termIdx[t]; ok {
				row[j] += idf[j]
			}
		}

		var norm float64
		for _, v := range row {
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range row {
				row[j] /= norm
			}
		}
		rows[i] = row
	}

	return termMatrix{rows: rows, terms: terms}
}

func (m termMatrix) empty() bool {
	return len(m.rows) == 0 || len(m.terms) == 0
}
