// internal/clients/graphql_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// GraphQLClient posts operations to a libraryql /graphql endpoint.
type GraphQLClient struct {
	baseURL string
	http    *http.Client
}

// NewGraphQLClient returns a client for the server at baseURL. A nil hc
// means http.DefaultClient.
func NewGraphQLClient(baseURL string, hc *http.Client) *GraphQLClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &GraphQLClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// GraphQLError is one entry of a response's errors list.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Code is the extensions.code value, or "" when absent.
func (e GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// Errors is returned by Do when the response carries GraphQL errors.
type Errors []GraphQLError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
		if code := err.Code(); code != "" {
			msgs[i] = code + ": " + err.Message
		}
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Code returns the code of the first error.
func (e Errors) Code() string {
	if len(e) == 0 {
		return ""
	}
	return e[0].Code()
}

// Do executes query with vars and decodes the data object into out. GraphQL
// errors are returned as Errors after out has been filled with whatever
// data came back.
func (c *GraphQLClient) Do(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables,omitempty"`
	}{Query: query, Variables: vars})
	if err != nil {
		return errors.Wrap(err, "encode graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "post graphql request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors Errors          `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrap(err, "decode graphql response")
	}
	if out != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return errors.Wrap(err, "decode graphql data")
		}
	}
	if len(envelope.Errors) > 0 {
		return envelope.Errors
	}
	return nil
}
