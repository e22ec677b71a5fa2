package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mvp-joe/contextindex/internal/indexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vecs := make([][]float32, len(req.Texts))
		for i := range req.Texts {
			v := make([]float32, dims)
			v[0] = float32(len(req.Texts[i]))
			vecs[i] = v
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(embedResponse{Embeddings: vecs, Dimensions: dims}))
	}))
}

func TestRemote_EmbedBatch_DecodesServerResponse(t *testing.T) {
	srv := newTestServer(t, 8)
	defer srv.Close()

	r := NewRemote(RemoteConfig{Endpoint: srv.URL})
	vecs, err := r.EmbedBatch(context.Background(), []string{"ab", "abc"}, indexer.EmbedModePassage)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(2), vecs[0][0])
	assert.Equal(t, float32(3), vecs[1][0])
}

func TestRemote_Dimension_ProbesServerWhenUnset(t *testing.T) {
	srv := newTestServer(t, 12)
	defer srv.Close()

	r := NewRemote(RemoteConfig{Endpoint: srv.URL})
	dim, err := r.Dimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, dim)
}

func TestRemote_Dimension_UsesConfiguredValueWithoutProbing(t *testing.T) {
	r := NewRemote(RemoteConfig{Endpoint: "http://unreachable.invalid", Dimensions: 99})
	dim, err := r.Dimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 99, dim)
}

func TestRemote_EmbedBatch_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRemote(RemoteConfig{Endpoint: srv.URL})
	_, err := r.EmbedBatch(context.Background(), []string{"x"}, indexer.EmbedModePassage)
	assert.Error(t, err)
}

func TestRemote_Embed_SingleTextReturnsFirstVector(t *testing.T) {
	srv := newTestServer(t, 4)
	defer srv.Close()

	r := NewRemote(RemoteConfig{Endpoint: srv.URL})
	v, err := r.Embed(context.Background(), "hello", indexer.EmbedModeQuery)
	require.NoError(t, err)
	assert.Equal(t, float32(5), v[0])
}
