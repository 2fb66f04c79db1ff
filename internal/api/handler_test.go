package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FlowTagger/internal/logging"
	"FlowTagger/internal/model"
	"FlowTagger/internal/query"
)

type fakeQuerier struct {
	err error
}

func (f *fakeQuerier) Runs(ctx context.Context, limit int) ([]query.RunSummary, error) {
	return []query.RunSummary{{RunID: "run-1", Source: "flow.log", GeneratedAt: time.Unix(0, 0), Records: 9}}, f.err
}

func (f *fakeQuerier) TagCounts(ctx context.Context, runID string) ([]model.TagCount, error) {
	if runID != "run-1" {
		return nil, f.err
	}
	return []model.TagCount{{Tag: model.UntaggedTag, Count: 6}, {Tag: "email", Count: 3}}, f.err
}

func (f *fakeQuerier) CombinationCounts(ctx context.Context, runID string) ([]model.CombinationCount, error) {
	if runID != "run-1" {
		return nil, f.err
	}
	return []model.CombinationCount{{Key: model.CombinationKey{Port: "143", Protocol: "tcp"}, Count: 3}}, f.err
}

func serve(t *testing.T, q query.Querier, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(q, logging.Discard()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestTagsHandler(t *testing.T) {
	rec := serve(t, &fakeQuerier{}, "/api/v1/runs/run-1/tags")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		RunID     string `json:"run_id"`
		TagCounts []struct {
			Tag   string  `json:"tag"`
			Count float64 `json:"count"`
		} `json:"tag_counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.RunID != "run-1" || len(body.TagCounts) != 2 || body.TagCounts[1].Tag != "email" || body.TagCounts[1].Count != 3 {
		t.Errorf("Unexpected response: %+v", body)
	}
}

func TestCombinationsHandler(t *testing.T) {
	rec := serve(t, &fakeQuerier{}, "/api/v1/runs/run-1/combinations")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestHandlers_Errors(t *testing.T) {
	cases := []struct {
		querier query.Querier
		target  string
		code    int
	}{
		{&fakeQuerier{}, "/api/v1/runs/unknown/tags", http.StatusNotFound},
		{&fakeQuerier{}, "/api/v1/runs?limit=x", http.StatusBadRequest},
		{&fakeQuerier{err: errors.New("connection refused")}, "/api/v1/runs", http.StatusInternalServerError},
		{&fakeQuerier{err: errors.New("connection refused")}, "/api/v1/runs/run-1/combinations", http.StatusInternalServerError},
	}
	for _, c := range cases {
		if rec := serve(t, c.querier, c.target); rec.Code != c.code {
			t.Errorf("%s: expected %d, got %d", c.target, c.code, rec.Code)
		}
	}
}
