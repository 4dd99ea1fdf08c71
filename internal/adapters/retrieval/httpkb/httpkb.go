// Package httpkb retrieves documents from a remote knowledge base over HTTP.
package httpkb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/auralearn/internal/domain/model"
)

const defaultTopK = 5

// Client implements ports.Retriever against a /retrieve endpoint.
type Client struct {
	baseURL string
	topK    int
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTopK sets how many results are requested.
func WithTopK(k int) Option {
	return func(c *Client) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New creates a knowledge base client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		topK:    defaultTopK,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type retrieveResponse struct {
	RetrievalResults []struct {
		Content struct {
			Text string `json:"text"`
		} `json:"content"`
		Score    float64        `json:"score"`
		Location map[string]any `json:"location"`
	} `json:"retrievalResults"`
}

// Search posts the query and maps results to documents in rank order.
func (c *Client) Search(ctx context.Context, query string) ([]model.RetrievedDocument, error) {
	body, err := json.Marshal(retrieveRequest{Query: query, TopK: c.topK})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling knowledge base: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("knowledge base returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	docs := make([]model.RetrievedDocument, 0, len(out.RetrievalResults))
	for _, r := range out.RetrievalResults {
		docs = append(docs, model.RetrievedDocument{
			Content: r.Content.Text,
			Score:   r.Score,
			Source:  r.Location,
		})
	}
	return docs, nil
}
