// internal/infra/dune/client.go
package dune

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dune_notification_bot/internal/domain/query"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL   = "https://api.dune.com/api/v1"
	defaultPageLimit = 500
)

// ErrExecutionNotFound is returned when the remote service does not know the
// execution ID (expired or never existed).
var ErrExecutionNotFound = errors.New("dune: execution not found")

// Client implements query.Service against the Dune Analytics HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	pageLimit  int
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(apiKey string, logger *logrus.Entry) *Client {
	return &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		pageLimit: defaultPageLimit,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.WithField("component", "dune_client"),
	}
}

type executeResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
}

type statusResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
	Error       *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type resultsResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
	NextOffset  *int64 `json:"next_offset"`
	Result      struct {
		Rows []map[string]any `json:"rows"`
	} `json:"result"`
}

type cancelResponse struct {
	Success bool `json:"success"`
}

// Submit starts an execution of the query.
func (c *Client) Submit(ctx context.Context, queryID int64) (string, error) {
	var resp executeResponse
	path := fmt.Sprintf("/query/%d/execute", queryID)
	body := map[string]string{"performance": "medium"}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	if resp.ExecutionID == "" {
		return "", fmt.Errorf("dune: execute response for query %d carried no execution_id", queryID)
	}
	c.logger.WithFields(logrus.Fields{"query_id": queryID, "execution_id": resp.ExecutionID}).Debug("Execution submitted")
	return resp.ExecutionID, nil
}

// Poll returns the mapped status of an execution, with the remote error
// message when the execution failed.
func (c *Client) Poll(ctx context.Context, executionID string) (query.Status, string, error) {
	var resp statusResponse
	path := fmt.Sprintf("/execution/%s/status", executionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", "", err
	}
	detail := ""
	if resp.Error != nil {
		detail = resp.Error.Message
	}
	return mapState(resp.State), detail, nil
}

// FetchResults returns one page of rows and whether more pages follow.
func (c *Client) FetchResults(ctx context.Context, executionID string, page int) ([]query.Row, bool, error) {
	var resp resultsResponse
	offset := int64(page) * int64(c.pageLimit)
	path := fmt.Sprintf("/execution/%s/results?limit=%d&offset=%d", executionID, c.pageLimit, offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, false, err
	}
	return toRows(resp.Result.Rows), resp.NextOffset != nil, nil
}

// Cancel requests cancellation of an in-flight execution.
func (c *Client) Cancel(ctx context.Context, executionID string) error {
	var resp cancelResponse
	path := fmt.Sprintf("/execution/%s/cancel", executionID)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("dune: cancellation of execution %s was not accepted", executionID)
	}
	return nil
}

// LatestResults returns the most recent stored rows for a query without
// triggering a new execution.
func (c *Client) LatestResults(ctx context.Context, queryID int64) ([]query.Row, error) {
	var resp resultsResponse
	path := fmt.Sprintf("/query/%d/results?limit=%d", queryID, c.pageLimit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return toRows(resp.Result.Rows), nil
}

// do performs one API request and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("dune: marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("dune: create request: %w", err)
	}
	req.Header.Set("X-Dune-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dune: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrExecutionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a short body snippet for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dune: %s %s returned status %d: %s", method, path, resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("dune: decode response of %s %s: %w", method, path, err)
	}
	return nil
}

// mapState translates Dune execution states into the domain status enum.
func mapState(state string) query.Status {
	switch state {
	case "QUERY_STATE_PENDING", "QUERY_STATE_QUEUED":
		return query.StatusPending
	case "QUERY_STATE_EXECUTING":
		return query.StatusRunning
	case "QUERY_STATE_COMPLETED":
		return query.StatusCompleted
	case "QUERY_STATE_FAILED", "QUERY_STATE_EXPIRED":
		return query.StatusFailed
	case "QUERY_STATE_CANCELLED":
		return query.StatusCancelled
	default:
		// Unknown states keep the poll loop going until the overall bound.
		return query.StatusRunning
	}
}

func toRows(raw []map[string]any) []query.Row {
	rows := make([]query.Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, query.Row(r))
	}
	return rows
}
