package predict

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Price float64 `json:"price"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"trust_score": in.Price / 100})
	})
	mux.HandleFunc("/predict_category", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if hdr.Filename != "jacket.jpg" || string(b) != "jpegbytes" {
			http.Error(w, "unexpected upload", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"category": "Clothing", "confidence": 0.92})
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"reply": "echo: " + in.Message})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_HappyPaths(t *testing.T) {
	ts := newBackend(t)
	c := NewClient(ts.URL+"/", time.Second)
	ctx := context.Background()

	score, err := c.TrustScore(ctx, 50)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9)

	cat, err := c.PredictCategory(ctx, "jacket.jpg", strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.Equal(t, "Clothing", cat.Category)
	assert.InDelta(t, 0.92, cat.Confidence, 1e-9)

	reply, err := c.Chat(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", reply)
}

func TestClient_LocalRejections(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)

	_, err := c.Chat(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = c.PredictCategory(context.Background(), "x.jpg", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestClient_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict":
			w.WriteHeader(http.StatusInternalServerError)
		case "/chat":
			_, _ = w.Write([]byte(`{"unexpected":true}`))
		case "/predict_category":
			_, _ = w.Write([]byte(`{"category":"Clothing","confidence":1.7}`))
		}
	}))
	t.Cleanup(failing.Close)

	c := NewClient(failing.URL, time.Second)
	ctx := context.Background()

	_, err := c.TrustScore(ctx, 1)
	assert.ErrorIs(t, err, ErrBadStatus)

	_, err = c.Chat(ctx, "hello")
	assert.ErrorIs(t, err, ErrBadResponse)

	_, err = c.PredictCategory(ctx, "a.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBadResponse)

	down := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err = down.TrustScore(ctx, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}
