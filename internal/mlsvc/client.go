// Package mlsvc is the HTTP client for the numerical sidecar service that
// provides density-based clustering, 2D projection, and topic-matrix
// decomposition. The service owns the heavy math; this client only carries
// the input/output contracts.
package mlsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Clusterer assigns one integer label per vector; -1 denotes noise.
type Clusterer interface {
	Cluster(ctx context.Context, vectors [][]float64, minClusterSize, minSamples int) ([]int, error)
}

// Projector reduces vectors to two dimensions for visualization.
type Projector interface {
	Project2D(ctx context.Context, vectors [][]float64) ([][2]float64, error)
}

// TopicModeler factorizes a term-weighting matrix into document-topic and
// topic-term weight matrices.
type TopicModeler interface {
	Decompose(ctx context.Context, matrix [][]float64, nTopics int) (w, h [][]float64, err error)
}

// Client talks to the sidecar over JSON/HTTP. It implements Clusterer,
// Projector, and TopicModeler.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a sidecar client with the given base URL and request
// timeout.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "mlsvc_client"),
	}
}

type clusterRequest struct {
	Vectors        [][]float64 `json:"vectors"`
	MinClusterSize int         `json:"min_cluster_size"`
	MinSamples     int         `json:"min_samples"`
}

type clusterResponse struct {
	Labels []int `json:"labels"`
}

// Cluster runs density-based clustering with the given parameters. Labels
// come back in input order.
func (c *Client) Cluster(ctx context.Context, vectors [][]float64, minClusterSize, minSamples int) ([]int, error) {
	var resp clusterResponse
	req := clusterRequest{Vectors: vectors, MinClusterSize: minClusterSize, MinSamples: minSamples}
	if err := c.post(ctx, "/cluster", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Labels) != len(vectors) {
		return nil, fmt.Errorf("ml service returned %d labels for %d vectors", len(resp.Labels), len(vectors))
	}
	return resp.Labels, nil
}

type projectRequest struct {
	Vectors [][]float64 `json:"vectors"`
}

type projectResponse struct {
	Points [][2]float64 `json:"points"`
}

// Project2D reduces vectors to (x, y) pairs in input order.
func (c *Client) Project2D(ctx context.Context, vectors [][]float64) ([][2]float64, error) {
	var resp projectResponse
	if err := c.post(ctx, "/project2d", projectRequest{Vectors: vectors}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Points) != len(vectors) {
		return nil, fmt.Errorf("ml service returned %d points for %d vectors", len(resp.Points), len(vectors))
	}
	return resp.Points, nil
}

type decomposeRequest struct {
	Matrix  [][]float64 `json:"matrix"`
	NTopics int         `json:"n_topics"`
}

type decomposeResponse struct {
	W [][]float64 `json:"w"`
	H [][]float64 `json:"h"`
}

// Decompose factorizes the matrix into nTopics components.
func (c *Client) Decompose(ctx context.Context, matrix [][]float64, nTopics int) ([][]float64, [][]float64, error) {
	var resp decomposeResponse
	if err := c.post(ctx, "/decompose", decomposeRequest{Matrix: matrix, NTopics: nTopics}, &resp); err != nil {
		return nil, nil, err
	}
	if len(resp.H) != nTopics {
		return nil, nil, fmt.Errorf("ml service returned %d topic rows, expected %d", len(resp.H), nTopics)
	}
	return resp.W, resp.H, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling ml service %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ml service %s returned status %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	c.log.DebugContext(ctx, "ML service call completed", "path", path, "duration", time.Since(start))
	return nil
}
