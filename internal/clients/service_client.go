// internal/clients/service_client.go
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Health is the /health response.
type Health struct {
	Status   string `json:"status"`
	Services map[string]struct {
		Status  string                 `json:"status"`
		Details map[string]interface{} `json:"details"`
	} `json:"services"`
}

// Health fetches /health. A 503 still decodes the body and is reported
// through Health.Status rather than as an error.
func (c *GraphQLClient) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/health", &h, http.StatusOK, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}
	return &h, nil
}

// CSRFToken fetches a token from /csrf-token.
func (c *GraphQLClient) CSRFToken(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.getJSON(ctx, "/csrf-token", &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *GraphQLClient) getJSON(ctx context.Context, path string, out interface{}, accept ...int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "get %s", path)
	}
	defer resp.Body.Close()

	ok := false
	for _, code := range accept {
		ok = ok || resp.StatusCode == code
	}
	if !ok {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s", path)
}
