// Package api is a typed client for the LogHealer dashboard API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/loghealer-client/internal/utils"
)

const (
	defaultTimeRange = "24h"
	defaultPageSize  = 20
)

// Client calls the API through an *http.Client whose transport carries the
// session (see transport.Authenticator).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// DashboardStats returns the headline numbers for a project, or all
// projects when projectID is empty. timeRange defaults to 24h.
func (c *Client) DashboardStats(ctx context.Context, projectID, timeRange string) (*DashboardStats, error) {
	if timeRange == "" {
		timeRange = defaultTimeRange
	}
	q := url.Values{"timeRange": {timeRange}}
	if projectID != "" {
		q.Set("projectId", projectID)
	}

	var stats DashboardStats
	if err := c.getJSON(ctx, "/dashboard/stats", q, &stats); err != nil {
		return nil, fmt.Errorf("[api DashboardStats] %w", err)
	}
	return &stats, nil
}

func (c *Client) Exceptions(ctx context.Context, query ExceptionQuery) ([]ExceptionGroup, error) {
	size := query.Size
	if size <= 0 {
		size = defaultPageSize
	}
	q := url.Values{
		"page": {strconv.Itoa(query.Page)},
		"size": {strconv.Itoa(size)},
	}
	if query.ProjectID != "" {
		q.Set("projectId", query.ProjectID)
	}
	if query.Status != "" {
		q.Set("status", string(query.Status))
	}

	var groups []ExceptionGroup
	if err := c.getJSON(ctx, "/exceptions", q, &groups); err != nil {
		return nil, fmt.Errorf("[api Exceptions] %w", err)
	}
	return groups, nil
}

func (c *Client) Exception(ctx context.Context, id string) (*ExceptionGroup, error) {
	var group ExceptionGroup
	if err := c.getJSON(ctx, "/exceptions/"+url.PathEscape(id), nil, &group); err != nil {
		return nil, fmt.Errorf("[api Exception] %w", err)
	}
	return &group, nil
}

func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	health := map[string]string{}
	if err := c.getJSON(ctx, "/health", nil, &health); err != nil {
		return nil, fmt.Errorf("[api Health] %w", err)
	}
	return health, nil
}

func (c *Client) AgentStatus(ctx context.Context, agentID string) (*AgentResponse, error) {
	var resp AgentResponse
	if err := c.getJSON(ctx, "/cursor-agent/"+url.PathEscape(agentID)+"/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("[api AgentStatus] %w", err)
	}
	return &resp, nil
}

func (c *Client) AgentConversation(ctx context.Context, agentID string) (*AgentResponse, error) {
	var resp AgentResponse
	if err := c.getJSON(ctx, "/cursor-agent/"+url.PathEscape(agentID)+"/conversation", nil, &resp); err != nil {
		return nil, fmt.Errorf("[api AgentConversation] %w", err)
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func readError(resp *http.Response) error {
	e := &Error{StatusCode: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		e.Message = utils.FirstNonEmpty(body.Message, body.Error)
	}
	return e
}
