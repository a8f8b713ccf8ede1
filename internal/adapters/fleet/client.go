// Package fleet talks to the fleet service that owns vehicle records.
package fleet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client checks vehicle existence against GET {baseURL}/api/cars/{id}
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a fleet client. Each lookup is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// AssetExists reports whether the fleet service knows vehicleID.
// 200 means found, 404 means not found, anything else is an error. No retries.
func (c *Client) AssetExists(ctx context.Context, vehicleID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/cars/%s", c.baseURL, url.PathEscape(vehicleID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("fleet lookup %s: %w", vehicleID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("fleet lookup %s: unexpected status %d", vehicleID, resp.StatusCode)
	}
}
