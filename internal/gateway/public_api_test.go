package gateway_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"EcoFinds/internal/auth"
	"EcoFinds/internal/cart"
	"EcoFinds/internal/catalog"
	"EcoFinds/internal/gateway"
	"EcoFinds/internal/predict"
	"EcoFinds/internal/session"
)

const jwtSecret = "gateway-test-secret-gateway-test-secret"

func newPredictorTS(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			http.Error(w, "auth header leaked", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"reply": "hello from ecobot"})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newGatewayTS(t *testing.T, predictURL string, reg *prometheus.Registry) *httptest.Server {
	t.Helper()

	store := catalog.NewMemStore(catalog.DefaultSeed())
	jwt := auth.NewTokenMaker(jwtSecret)
	sessions := session.NewManager(session.Deps{Catalog: store, Log: zap.NewNop()}, time.Hour)

	h, err := gateway.NewHandler(
		gateway.Deps{
			Catalog: store,
			Auth: &auth.Server{
				Log:      zap.NewNop(),
				Store:    auth.NewMemStore(),
				JWT:      jwt,
				Sessions: sessions,
			},
			Sessions: &session.Server{
				Sessions:  sessions,
				JWT:       jwt,
				Predictor: predict.NewClient(predictURL, time.Second),
				Log:       zap.NewNop(),
			},
			PredictURL: predictURL,
		},
		gateway.HTTPDeps{
			Log:            zap.NewNop(),
			Service:        "marketd",
			Registry:       reg,
			MetricsEnabled: reg != nil,
			MetricsToken:   "metrics-token",
		},
	)
	if err != nil {
		t.Fatalf("gateway.NewHandler: %v", err)
	}

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func login(t *testing.T, c *http.Client, baseURL string) string {
	t.Helper()

	resp, raw := doJSON(t, c, http.MethodPost, baseURL+"/auth/register", map[string]any{
		"email":    "user@example.com",
		"password": "password123",
		"username": "eco_shopper",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, c, http.MethodPost, baseURL+"/auth/login", map[string]any{
		"email":    "user@example.com",
		"password": "password123",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, raw)
	}

	var lr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &lr); err != nil {
		t.Fatalf("decode login: %v body=%s", err, raw)
	}
	if lr.AccessToken == "" {
		t.Fatalf("empty access_token")
	}
	return lr.AccessToken
}

func TestGateway_PublicAPI_HappyPath(t *testing.T) {
	predictorTS := newPredictorTS(t)
	gwTS := newGatewayTS(t, predictorTS.URL, nil)
	c := &http.Client{}

	token := login(t, c, gwTS.URL)
	authz := map[string]string{"Authorization": "Bearer " + token}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/products?category=All&q=jacket", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list status=%d body=%s", resp.StatusCode, raw)
		}
		var products []catalog.Product
		if err := json.Unmarshal(raw, &products); err != nil {
			t.Fatalf("decode products: %v", err)
		}
		if len(products) != 1 || products[0].ID != "1" {
			t.Fatalf("products=%+v", products)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/session/nav", nil, authz)
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), `"page":"home"`) {
			t.Fatalf("nav status=%d body=%s", resp.StatusCode, raw)
		}
	}

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/session/cart/items",
			map[string]any{"product_id": "1"}, authz)
		if resp.StatusCode != want {
			t.Fatalf("add #%d status=%d want=%d body=%s", i, resp.StatusCode, want, raw)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/session/checkout", nil, authz)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("checkout status=%d body=%s", resp.StatusCode, raw)
		}
		var r cart.Receipt
		if err := json.Unmarshal(raw, &r); err != nil {
			t.Fatalf("decode receipt: %v", err)
		}
		if r.Count != 1 || r.Total.StringFixed(2) != "89.99" {
			t.Fatalf("receipt=%+v", r)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/ml/chat", map[string]any{"message": "hi"}, authz)
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "hello from ecobot") {
			t.Fatalf("ml proxy status=%d body=%s", resp.StatusCode, raw)
		}
	}
}

func TestGateway_PublicAPI_SessionRequiresAuth(t *testing.T) {
	gwTS := newGatewayTS(t, "", nil)
	c := &http.Client{}

	resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/session/cart/items",
		map[string]any{"product_id": "1"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", resp.StatusCode, raw)
	}
}

func TestGateway_HealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	gwTS := newGatewayTS(t, "", reg)
	c := &http.Client{}

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, c, http.MethodGet, gwTS.URL+path, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status=%d", path, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, c, http.MethodGet, gwTS.URL+"/metrics", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("metrics without token status=%d", resp.StatusCode)
	}

	resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/metrics", nil,
		map[string]string{"Authorization": "Bearer metrics-token"})
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "http_requests_total") {
		t.Fatalf("metrics status=%d", resp.StatusCode)
	}
}

func TestGateway_ProxyUpstreamDown(t *testing.T) {
	gwTS := newGatewayTS(t, "http://127.0.0.1:1", nil)

	resp, _ := doJSON(t, &http.Client{}, http.MethodPost, gwTS.URL+"/ml/predict", map[string]any{"price": 1}, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}
