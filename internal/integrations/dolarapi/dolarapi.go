package dolarapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dan9191/barakah/internal/config"
	"github.com/sirupsen/logrus"
)

// Client handles integration with dolarapi.com
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new dolarapi client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.DolarAPIURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Quote is one dollar quote as published by dolarapi
type Quote struct {
	Casa               string    `json:"casa"`
	Nombre             string    `json:"nombre"`
	Compra             float64   `json:"compra"`
	Venta              float64   `json:"venta"`
	FechaActualizacion time.Time `json:"fechaActualizacion"`
}

// sendRequest fetches path and returns the body of a 200 response
func (c *Client) sendRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("dolarapi response: %s", string(body))
	return body, nil
}

// GetOfficialQuote retrieves the official BNA quote
func (c *Client) GetOfficialQuote(ctx context.Context) (*Quote, error) {
	body, err := c.sendRequest(ctx, "/v1/dolares/oficial")
	if err != nil {
		return nil, err
	}
	var q Quote
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, fmt.Errorf("failed to parse quote: %w", err)
	}
	return &q, nil
}

// GetOfficialRate returns the selling price of the official quote, which the
// finance record uses as its USD rate
func (c *Client) GetOfficialRate(ctx context.Context) (float64, error) {
	q, err := c.GetOfficialQuote(ctx)
	if err != nil {
		return 0, err
	}
	if q.Venta <= 0 {
		return 0, fmt.Errorf("quote has no selling price")
	}
	c.log.Infof("Retrieved official USD rate: %.2f", q.Venta)
	return q.Venta, nil
}
