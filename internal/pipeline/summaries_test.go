package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestPipeline(caps Capabilities, narrativeEnabled bool) *Pipeline {
	return New(caps, narrativeEnabled, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeClusterTable(t *testing.T, manifest *Manifest, rows string) {
	t.Helper()
	path := filepath.Join(manifest.RunDir, ArtifactClusterTable)
	if err := os.WriteFile(path, []byte("text,cluster\n"+rows), 0o644); err != nil {
		t.Fatalf("writing cluster table: %v", err)
	}
	manifest.SetProduced(ArtifactClusterTable)
}

func TestRunClusterSummaries(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(Capabilities{}, false)
	manifest := NewManifest(t.TempDir())
	writeClusterTable(t, manifest, strings.Join([]string{
		"шум,-1",
		"первое сообщение,0",
		"второе сообщение,0",
		"третье сообщение,0",
		"одиночка,1",
		"пятое,2",
		"шестое,2",
	}, "\n")+"\n")

	result := p.runClusterSummaries(context.Background(), manifest)
	if result.Status != StatusSuccess {
		t.Fatalf("runClusterSummaries() status = %v (%s), want success", result.Status, result.Reason)
	}

	data, err := os.ReadFile(filepath.Join(manifest.RunDir, ArtifactClusterSummaries))
	if err != nil {
		t.Fatalf("reading summaries: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "--- Cluster 0 (3 messages) ---") {
		t.Errorf("missing cluster 0 header in:\n%s", out)
	}
	if !strings.Contains(out, "--- Cluster 2 (2 messages) ---") {
		t.Errorf("missing cluster 2 header in:\n%s", out)
	}
	if strings.Contains(out, "шум") {
		t.Errorf("noise label -1 must be excluded:\n%s", out)
	}
	if strings.Contains(out, "одиночка") {
		t.Errorf("singleton cluster must be excluded:\n%s", out)
	}
	if !strings.Contains(out, "• первое сообщение\n") {
		t.Errorf("excerpt bullet missing in:\n%s", out)
	}
	if idx0, idx2 := strings.Index(out, "Cluster 0"), strings.Index(out, "Cluster 2"); idx0 > idx2 {
		t.Errorf("clusters not in ascending label order:\n%s", out)
	}
}

func TestRunClusterSummariesExcerptCap(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(Capabilities{}, false)
	manifest := NewManifest(t.TempDir())

	var rows []string
	for i := 0; i < 8; i++ {
		rows = append(rows, "сообщение,0")
	}
	writeClusterTable(t, manifest, strings.Join(rows, "\n")+"\n")

	result := p.runClusterSummaries(context.Background(), manifest)
	if result.Status != StatusSuccess {
		t.Fatalf("runClusterSummaries() status = %v, want success", result.Status)
	}

	data, err := os.ReadFile(filepath.Join(manifest.RunDir, ArtifactClusterSummaries))
	if err != nil {
		t.Fatalf("reading summaries: %v", err)
	}
	if got := strings.Count(string(data), "• "); got != maxExcerptsPerCluster {
		t.Errorf("excerpt count = %d, want %d", got, maxExcerptsPerCluster)
	}
	if !strings.Contains(string(data), "(8 messages)") {
		t.Errorf("header must report full cluster size, got:\n%s", data)
	}
}

func TestRunClusterSummariesSkips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		prep func(t *testing.T, m *Manifest)
	}{
		{
			name: "no cluster table",
			prep: func(t *testing.T, m *Manifest) {},
		},
		{
			name: "only noise and singletons",
			prep: func(t *testing.T, m *Manifest) {
				writeClusterTable(t, m, "шум,-1\nодин,0\nдва,1\n")
			},
		},
		{
			name: "missing required columns",
			prep: func(t *testing.T, m *Manifest) {
				path := filepath.Join(m.RunDir, ArtifactClusterTable)
				if err := os.WriteFile(path, []byte("a,b\nx,0\n"), 0o644); err != nil {
					t.Fatal(err)
				}
				m.SetProduced(ArtifactClusterTable)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := newTestPipeline(Capabilities{}, false)
			manifest := NewManifest(t.TempDir())
			tc.prep(t, manifest)

			result := p.runClusterSummaries(context.Background(), manifest)
			if result.Status != StatusSkipped {
				t.Errorf("status = %v, want skipped (%s)", result.Status, result.Reason)
			}
			if _, err := os.Stat(filepath.Join(manifest.RunDir, ArtifactClusterSummaries)); !os.IsNotExist(err) {
				t.Error("no summaries file should be written on skip")
			}
		})
	}
}
