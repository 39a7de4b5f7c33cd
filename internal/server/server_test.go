package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/prmetrics/internal/report"
)

// Created Monday, reviewed by someone else Wednesday, merged Friday.
const scenarioA = `{
  "id": "PR_1",
  "number": 7,
  "title": "Add tiles",
  "author": {"login": "alice"},
  "state": "MERGED",
  "createdAt": "2024-03-04T09:00:00Z",
  "mergedAt": "2024-03-08T16:00:00Z",
  "additions": 10,
  "deletions": 2,
  "reviews": {"edges": [{"node": {"author": {"login": "bob"}, "submittedAt": "2024-03-06T11:00:00Z"}}]},
  "timelineItems": {"edges": []}
}`

const openNode = `{
  "id": "PR_2",
  "number": 8,
  "author": {"login": "carol"},
  "state": "OPEN",
  "createdAt": "2024-03-05T09:00:00Z",
  "reviews": {"edges": []},
  "timelineItems": {"edges": []}
}`

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := httptest.NewServer(NewHandler(opts).Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestMetrics_ScenarioA(t *testing.T) {
	srv := newTestServer(t, Options{Workers: 2})

	resp, body := post(t, srv.URL+"/v1/metrics", scenarioA)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got struct {
		Checksum     string           `json:"checksum"`
		PullRequests []map[string]any `json:"pull_requests"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.Checksum, 16)
	require.Len(t, got.PullRequests, 1)

	row := got.PullRequests[0]
	assert.Equal(t, "PR_1", row["id"])
	assert.Equal(t, float64(2), row["days_to_first_review"])
	assert.Equal(t, float64(0), row["rework_time_in_days"])
	assert.Equal(t, float64(4), row["cycle_time"])
	assert.NotContains(t, row, "waiting_to_deploy")
}

func TestMetrics_BatchKeepsOrder(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := post(t, srv.URL+"/v1/metrics", "["+scenarioA+","+openNode+"]")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got MetricsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got.PullRequests, 2)
	assert.Equal(t, "PR_1", got.PullRequests[0].ID)
	assert.Equal(t, "PR_2", got.PullRequests[1].ID)
	assert.Nil(t, got.PullRequests[1].CycleTime)
}

func TestMetrics_EmptyArray(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := post(t, srv.URL+"/v1/metrics", "[]")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"pull_requests":[]`)
}

func TestMetrics_BadInput(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode string
	}{
		{"invalid JSON", "/v1/metrics", `{"id":`, CodeBadRequest},
		{"missing reviews", "/v1/metrics", `[{"id":"x","state":"OPEN","createdAt":"2024-03-04T09:00:00Z","timelineItems":{"edges":[]}}]`, CodeInvalidRecord},
		{"missing createdAt", "/v1/metrics", `[{"id":"x","state":"OPEN","reviews":{"edges":[]},"timelineItems":{"edges":[]}}]`, CodeInvalidRecord},
		{"unknown format", "/v1/metrics?format=xml", scenarioA, CodeBadRequest},
		{"bad limit", "/v1/report?limit=-2", scenarioA, CodeBadRequest},
		{"zero limit", "/v1/report?limit=0", scenarioA, CodeBadRequest},
	}

	srv := newTestServer(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tt.wantCode, errResp.Error.Code)
			assert.NotEmpty(t, errResp.Error.Message)
		})
	}
}

func TestMetrics_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t, Options{MaxBodyBytes: 64})

	resp, body := post(t, srv.URL+"/v1/metrics", scenarioA)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, CodeTooLarge, errResp.Error.Code)
}

func TestReport(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := post(t, srv.URL+"/v1/report?limit=1", "["+scenarioA+","+openNode+"]")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var rep report.Report
	require.NoError(t, json.Unmarshal(body, &rep))
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 2, rep.PullRequests)
	assert.Equal(t, 1, rep.Merged)
	require.Len(t, rep.Rankings, 3)
	for _, rk := range rep.Rankings {
		assert.LessOrEqual(t, len(rk.Entries), 1, rk.Label)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/v1/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
