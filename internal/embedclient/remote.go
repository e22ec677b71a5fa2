package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

// RemoteConfig configures a Remote embedding client.
type RemoteConfig struct {
	Endpoint      string // e.g. "https://embed.example.com/embed"
	Dimensions    int
	MaxInputChars int
	Timeout       time.Duration // default 30s
}

func (c RemoteConfig) withDefaults() RemoteConfig {
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 8000
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Remote is an indexer.EmbeddingClient backed by an HTTP embedding
// service, grounded on the teacher's local-provider /embed request and
// response shapes (internal/embed/local.go's embedRequest/embedResponse).
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
}

// NewRemote constructs a Remote client for the given endpoint.
func NewRemote(cfg RemoteConfig) *Remote {
	cfg = cfg.withDefaults()
	return &Remote{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

var _ indexer.EmbeddingClient = (*Remote)(nil)

type embedRequest struct {
	Texts []string `json:"texts"`
	Mode  string   `json:"mode"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimensions int         `json:"dimensions"`
}

func (r *Remote) Dimension(ctx context.Context) (int, error) {
	if r.cfg.Dimensions > 0 {
		return r.cfg.Dimensions, nil
	}
	vecs, err := r.EmbedBatch(ctx, []string{"dimension probe"}, indexer.EmbedModePassage)
	if err != nil {
		return 0, err
	}
	if len(vecs) == 0 {
		return 0, fmt.Errorf("embedclient: remote returned no vectors for dimension probe")
	}
	r.cfg.Dimensions = len(vecs[0])
	return r.cfg.Dimensions, nil
}

func (r *Remote) MaxInputChars() int {
	return r.cfg.MaxInputChars
}

func (r *Remote) Embed(ctx context.Context, text string, mode indexer.EmbedMode) ([]float32, error) {
	vecs, err := r.EmbedBatch(ctx, []string{text}, mode)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedclient: remote returned no vectors")
	}
	return vecs[0], nil
}

func (r *Remote) EmbedBatch(ctx context.Context, texts []string, mode indexer.EmbedMode) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts, Mode: string(mode)})
	if err != nil {
		return nil, fmt.Errorf("embedclient: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedclient: remote returned status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedclient: decode response: %w", err)
	}
	if out.Dimensions > 0 {
		r.cfg.Dimensions = out.Dimensions
	}
	return out.Embeddings, nil
}
