package pipeline

import (
	"math"
	"testing"
)

func TestBuildTermMatrix(t *testing.T) {
	t.Parallel()

	docs := []string{
		"машина дорога город",
		"машина дорога поле",
		"машина музыка",
		"книга музыка",
	}
	m := buildTermMatrix(docs, map[string]struct{}{}, 2, 0.95)

	if m.empty() {
		t.Fatal("buildTermMatrix() returned empty matrix")
	}
	if len(m.rows) != len(docs) {
		t.Fatalf("matrix has %d rows, want %d", len(m.rows), len(docs))
	}

	// df: машина=3, дорога=2, музыка=2; город, поле, книга pruned (df < 2).
	wantTerms := []string{"дорога", "машина", "музыка"}
	if len(m.terms) != len(wantTerms) {
		t.Fatalf("vocabulary = %v, want %v", m.terms, wantTerms)
	}
	for i, term := range wantTerms {
		if m.terms[i] != term {
			t.Errorf("terms[%d] = %q, want %q", i, m.terms[i], term)
		}
	}
}

func TestBuildTermMatrixMaxDFPruning(t *testing.T) {
	t.Parallel()

	// "общий" appears in every document and exceeds the proportional cap.
	docs := []string{
		"общий рыба рыба",
		"общий рыба",
		"общий гриб",
		"общий гриб",
	}
	m := buildTermMatrix(docs, map[string]struct{}{}, 2, 0.75)

	for _, term := range m.terms {
		if term == "общий" {
			t.Errorf("term %q should have been pruned by max document frequency", term)
		}
	}
}

func TestBuildTermMatrixRowsNormalized(t *testing.T) {
	t.Parallel()

	docs := []string{
		"солнце луна звезда",
		"солнце луна",
		"звезда луна",
	}
	m := buildTermMatrix(docs, map[string]struct{}{}, 2, 0.95)
	if m.empty() {
		t.Fatal("buildTermMatrix() returned empty matrix")
	}

	for i, row := range m.rows {
		var norm float64
		for _, v := range row {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		if math.Abs(norm-1) > 1e-9 {
			t.Errorf("row %d has l2 norm %v, want 1", i, norm)
		}
	}
}

func TestBuildTermMatrixIDF(t *testing.T) {
	t.Parallel()

	// One surviving term means each non-zero row is exactly that term's
	// weight normalized to 1, so verify the idf formula on the raw weight
	// through a two-term document instead. maxDF of 1.0 keeps the
	// every-document term in the vocabulary here; proportional pruning has
	// its own test.
	docs := []string{
		"яблоко груша",
		"яблоко груша",
		"яблоко слива",
	}
	m := buildTermMatrix(docs, map[string]struct{}{}, 2, 1.0)

	// terms sorted: груша (df=2), яблоко (df=3)
	n := 3.0
	idfGrusha := math.Log((1+n)/(1+2)) + 1
	idfYabloko := math.Log((1+n)/(1+3)) + 1

	// Row 0 has both terms once; expected weights are idf values l2-scaled.
	norm := math.Sqrt(idfGrusha*idfGrusha + idfYabloko*idfYabloko)
	want0 := idfGrusha / norm
	want1 := idfYabloko / norm

	row := m.rows[0]
	if math.Abs(row[0]-want0) > 1e-9 || math.Abs(row[1]-want1) > 1e-9 {
		t.Errorf("row 0 = %v, want [%v %v]", row, want0, want1)
	}
}

func TestBuildTermMatrixShortTokensIgnored(t *testing.T) {
	t.Parallel()

	docs := []string{"я и а с", "я и а с"}
	m := buildTermMatrix(docs, map[string]struct{}{}, 2, 0.95)
	if !m.empty() {
		t.Errorf("single-letter and short tokens should not form a vocabulary, got %v", m.terms)
	}
}

func TestBuildTermMatrixEmptyDocs(t *testing.T) {
	t.Parallel()

	if m := buildTermMatrix(nil, map[string]struct{}{}, 2, 0.95); !m.empty() {
		t.Errorf("expected empty matrix for no documents, got %v", m.terms)
	}
}
