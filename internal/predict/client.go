// Package predict talks to the trust score, category and chat demo
// backend. Calls are single attempts with no retry.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 3 * time.Second
	maxResponse    = 1 << 20
)

var (
	ErrUnavailable  = errors.New("predictor unavailable")
	ErrBadStatus    = errors.New("predictor bad status")
	ErrBadResponse  = errors.New("predictor bad response")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoImage      = errors.New("image is empty")
)

type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type Category struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// TrustScore asks the backend how trustworthy a listing at price looks.
func (c *Client) TrustScore(ctx context.Context, price float64) (float64, error) {
	var out struct {
		TrustScore *float64 `json:"trust_score"`
	}
	if err := c.postJSON(ctx, "/predict", map[string]float64{"price": price}, &out); err != nil {
		return 0, err
	}
	if out.TrustScore == nil {
		return 0, fmt.Errorf("%w: missing trust_score", ErrBadResponse)
	}
	return *out.TrustScore, nil
}

// PredictCategory uploads an image as multipart field "file".
func (c *Client) PredictCategory(ctx context.Context, filename string, image io.Reader) (Category, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Category{}, err
	}
	n, err := io.Copy(fw, image)
	if err != nil {
		return Category{}, err
	}
	if n == 0 {
		return Category{}, ErrNoImage
	}
	if err := mw.Close(); err != nil {
		return Category{}, err
	}

	var out Category
	if err := c.do(ctx, "/predict_category", mw.FormDataContentType(), &body, &out); err != nil {
		return Category{}, err
	}
	if out.Category == "" || out.Confidence < 0 || out.Confidence > 1 {
		return Category{}, fmt.Errorf("%w: category=%q confidence=%v", ErrBadResponse, out.Category, out.Confidence)
	}
	return out, nil
}

// Chat sends one message to the chat bot and returns its reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	var out struct {
		Reply *string `json:"reply"`
	}
	if err := c.postJSON(ctx, "/chat", map[string]string{"message": message}, &out); err != nil {
		return "", err
	}
	if out.Reply == nil {
		return "", fmt.Errorf("%w: missing reply", ErrBadResponse)
	}
	return *out.Reply, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(b), out)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponse)).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}
