package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/psds-microservice/crm-service/internal/logging"
)

// Document is the body of POST /search/index/{kind}.
type Document struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client pushes records to the external search service, best-effort.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
}

// NewClient returns a client. With an empty baseURL Index is a no-op.
func NewClient(baseURL string, log logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		log:     log,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *Client) Enabled() bool { return c.baseURL != "" }

// Index sends one document and reports failures. Callers on the request
// path should use it from a goroutine.
func (c *Client) Index(ctx context.Context, doc Document) error {
	if c.baseURL == "" {
		return nil
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("searchindex: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/index/"+doc.Kind, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("searchindex: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("searchindex: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("searchindex: status %d for %s %s", resp.StatusCode, doc.Kind, doc.ID)
	}
	c.log.Debug(ctx, "indexed", "kind", doc.Kind, "id", doc.ID)
	return nil
}
