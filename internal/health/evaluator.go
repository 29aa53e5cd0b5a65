package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
)

const responseBodyReadLimit int64 = 2048

// Snapshot is the health assessment for one agent: when the next recompute
// should happen and which capability windows are suspended.
type Snapshot struct {
	NextCheckpointAt    *time.Time `json:"nextCheckpointAt"`
	SuspendLeadsUntil   *time.Time `json:"suspendLeadsUntil"`
	SuspendRoletaoUntil *time.Time `json:"suspendRoletaoUntil"`
	Reason              string     `json:"reason"`
	Segments            []string   `json:"segments"`
}

// Evaluator produces health snapshots for agents.
type Evaluator interface {
	Evaluate(ctx context.Context, agentID uuid.UUID) (*Snapshot, error)
}

// Client calls the lead-health evaluation service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the health evaluator client.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "health evaluator base url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Evaluate fetches the current health snapshot for the given agent.
func (c *Client) Evaluate(ctx context.Context, agentID uuid.UUID) (*Snapshot, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "health evaluator client not configured")
	}
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id is required")
	}

	endpoint := fmt.Sprintf("%s/agents/%s/health", c.baseURL, url.PathEscape(agentID.String()))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build health request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute health request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "health request failed")
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode health response")
	}
	return &snapshot, nil
}
