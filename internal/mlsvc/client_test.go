package mlsvc_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kryli/TgAnalyzer/internal/mlsvc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, handler http.HandlerFunc) *mlsvc.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return mlsvc.NewClient(srv.URL, 5*time.Second, testLogger())
}

func TestCluster(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cluster" {
			t.Errorf("path = %q, want /cluster", r.URL.Path)
		}
		var req struct {
			Vectors        [][]float64 `json:"vectors"`
			MinClusterSize int         `json:"min_cluster_size"`
			MinSamples     int         `json:"min_samples"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.MinClusterSize != 2 || req.MinSamples != 1 {
			t.Errorf("params = %d/%d, want 2/1", req.MinClusterSize, req.MinSamples)
		}
		json.NewEncoder(w).Encode(map[string]any{"labels": []int{0, 0, -1}})
	})

	labels, err := c.Cluster(context.Background(), [][]float64{{1}, {1.1}, {9}}, 2, 1)
	if err != nil {
		t.Fatalf("Cluster() error: %v", err)
	}
	want := []int{0, 0, -1}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels = %v, want %v", labels, want)
			break
		}
	}
}

func TestClusterLengthMismatch(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"labels": []int{0}})
	})

	if _, err := c.Cluster(context.Background(), [][]float64{{1}, {2}}, 1, 1); err == nil {
		t.Fatal("Cluster() must reject a label count mismatch")
	}
}

func TestProject2D(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/project2d" {
			t.Errorf("path = %q, want /project2d", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"points": [][2]float64{{1, 2}, {3, 4}}})
	})

	points, err := c.Project2D(context.Background(), [][]float64{{1, 1, 1}, {2, 2, 2}})
	if err != nil {
		t.Fatalf("Project2D() error: %v", err)
	}
	if points[1] != [2]float64{3, 4} {
		t.Errorf("points = %v", points)
	}
}

func TestDecompose(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/decompose" {
			t.Errorf("path = %q, want /decompose", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"w": [][]float64{{1, 0}, {0, 1}},
			"h": [][]float64{{0.9, 0.1}, {0.2, 0.8}},
		})
	})

	w, h, err := c.Decompose(context.Background(), [][]float64{{1, 0}, {0, 1}}, 2)
	if err != nil {
		t.Fatalf("Decompose() error: %v", err)
	}
	if len(w) != 2 || len(h) != 2 {
		t.Errorf("w=%v h=%v", w, h)
	}
}

func TestDecomposeTopicCountMismatch(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"w": [][]float64{}, "h": [][]float64{{1}}})
	})

	if _, _, err := c.Decompose(context.Background(), [][]float64{{1}}, 3); err == nil {
		t.Fatal("Decompose() must reject a topic count mismatch")
	}
}

func TestServerError(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "hdbscan blew up", http.StatusInternalServerError)
	})

	_, err := c.Cluster(context.Background(), [][]float64{{1}}, 1, 1)
	if err == nil {
		t.Fatal("Cluster() must surface server errors")
	}
}
