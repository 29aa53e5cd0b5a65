package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/imobflow/leadrotor/internal/history"
	"github.com/imobflow/leadrotor/pkg/logger"
)

type testHistoryService struct {
	listFn func(ctx context.Context, params history.ListParams) (*history.ListResult, error)
}

func (s *testHistoryService) List(ctx context.Context, params history.ListParams) (*history.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &history.ListResult{}, nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestHistoryListPassesFilters(t *testing.T) {
	agentID := uuid.New()
	var captured history.ListParams
	svc := &testHistoryService{
		listFn: func(ctx context.Context, params history.ListParams) (*history.ListResult, error) {
			captured = params
			return &history.ListResult{Cursor: "next"}, nil
		},
	}

	target := "/api/v1/history?start=2026-03-01T00:00:00Z&user=" + agentID.String() + "&action=assign&limit=25&cursor=abc"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()

	HistoryList(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Start == nil || !captured.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start filter not forwarded: %+v", captured.Start)
	}
	if captured.AgentID == nil || *captured.AgentID != agentID {
		t.Fatalf("agent filter not forwarded")
	}
	if captured.Action != "assign" {
		t.Fatalf("unexpected action filter %q", captured.Action)
	}
	if captured.Limit != 25 || captured.Cursor != "abc" {
		t.Fatalf("unexpected pagination %d %q", captured.Limit, captured.Cursor)
	}

	var envelope struct {
		Data struct {
			Cursor string `json:"cursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Cursor != "next" {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestHistoryListRejectsBadTimestamp(t *testing.T) {
	svc := &testHistoryService{
		listFn: func(ctx context.Context, params history.ListParams) (*history.ListResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?start=yesterday", nil)
	resp := httptest.NewRecorder()

	HistoryList(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHistoryListNilService(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	resp := httptest.NewRecorder()

	HistoryList(nil, testControllerLogger())(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
