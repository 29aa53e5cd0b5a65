package health

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func TestClientEvaluateRequest(t *testing.T) {
	agentID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	respBody := `{
		"nextCheckpointAt": "2026-03-11T09:00:00Z",
		"suspendLeadsUntil": null,
		"suspendRoletaoUntil": "2026-03-10T18:00:00Z",
		"reason": "response time above threshold",
		"segments": ["high_value"]
	}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("http://health.test/v1/", 5*time.Second, WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	snapshot, err := client.Evaluate(context.Background(), agentID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if capturedURL != "http://health.test/v1/agents/00000000-0000-0000-0000-000000000001/health" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if snapshot.NextCheckpointAt == nil || !snapshot.NextCheckpointAt.Equal(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next checkpoint %v", snapshot.NextCheckpointAt)
	}
	if snapshot.SuspendLeadsUntil != nil {
		t.Fatalf("expected no leads suspension, got %v", snapshot.SuspendLeadsUntil)
	}
	if snapshot.SuspendRoletaoUntil == nil {
		t.Fatalf("expected roletao suspension")
	}
	if snapshot.Reason != "response time above threshold" {
		t.Fatalf("unexpected reason %q", snapshot.Reason)
	}
	if len(snapshot.Segments) != 1 || snapshot.Segments[0] != "high_value" {
		t.Fatalf("unexpected segments %v", snapshot.Segments)
	}
}

func TestClientEvaluateNon200(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("upstream down")),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("http://health.test", 5*time.Second, WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Evaluate(context.Background(), uuid.New())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestClientEvaluateRequiresAgentID(t *testing.T) {
	client, err := NewClient("http://health.test", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Evaluate(context.Background(), uuid.Nil)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  ", time.Second); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}
