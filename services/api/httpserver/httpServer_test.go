// Copyright 2026 The SWE-agent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweagent/sweagent/services/api/runs"
	"github.com/sweagent/sweagent/services/api/runs/executor"
	"github.com/sweagent/sweagent/services/api/trajectory"
	"github.com/sweagent/sweagent/services/api/trajectory/memory"
)

type stubExecutor struct {
	block bool
}

func (e *stubExecutor) Execute(ctx context.Context, task executor.Task, emit executor.EmitFunc) (string, error) {
	emit(trajectory.StepSourceStdout, "working on "+task.InstanceID)
	if e.block {
		<-ctx.Done()
		return "", executor.ErrCancelled
	}
	return "Completed successfully. Output directory: /tmp/out", nil
}

type testServer struct {
	server  *Server
	backend trajectory.Backend
}

func makeTestServer(t *testing.T, exec executor.Executor, secret string) *testServer {
	backend, err := memory.CreateMemoryBackend()
	require.NoError(t, err)
	manager := runs.NewManager(backend, exec, runs.Submission{ModelName: "gpt-4o"})
	server, err := New("127.0.0.1", 0, manager, backend, secret, 8)
	require.NoError(t, err)
	t.Cleanup(func() {
		manager.Destroy()
		backend.Destroy()
	})
	return &testServer{server: server, backend: backend}
}

func (ts *testServer) request(t *testing.T, method string, path string, body string, headers map[string]string) (int, map[string]interface{}) {
	var bodyReader *strings.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	} else {
		bodyReader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, bodyReader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	ts.server.Handler.ServeHTTP(recorder, req)

	payload := map[string]interface{}{}
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	}
	return recorder.Code, payload
}

func (ts *testServer) waitForStatus(t *testing.T, runID string, status trajectory.Status) {
	require.Eventually(t, func() bool {
		record, err := ts.backend.RetrieveRun(context.Background(), runID)
		require.NoError(t, err)
		return record.Status == status
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetHealth(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{}, "")

	code, payload := ts.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, "swe-agent-api", payload["service"])
}

func TestGetVersionAndInfo(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{}, "")

	code, payload := ts.request(t, http.MethodGet, "/version", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, payload["version"])

	code, payload = ts.request(t, http.MethodGet, "/info", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "swe-agent-api", payload["service"])
	assert.NotEmpty(t, payload["endpoints"])
}

func TestNotFoundRoute(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{}, "")

	code, _ := ts.request(t, http.MethodGet, "/no-such-route", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubmitRun(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{}, "")

	code, payload := ts.request(t, http.MethodPost, "/run",
		`{"problem_statement": "fix the bug", "instance_id": "instance-1"}`, nil)
	require.Equal(t, http.StatusAccepted, code)
	runID := payload["run_id"].(string)
	assert.NotEmpty(t, runID)
	assert.Equal(t, "instance-1", payload["instance_id"])
	assert.Equal(t, string(trajectory.StatusPending), payload["status"])

	ts.waitForStatus(t, runID, trajectory.StatusCompleted)
}

func TestSubmitRunValidation(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{}, "")

	code, payload := ts.request(t, http.MethodPost, "/run", `{"instance_id": "instance-1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, payload["message"], "problem_statement")

	code, _ = ts.request(t, http.MethodPost, "/run", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSubmitBatchRun(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{}, "")

	code, _ := ts.request(t, http.MethodPost, "/batch-run", `{"problems": []}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, payload := ts.request(t, http.MethodPost, "/batch-run",
		`{"problems": [
			{"problem_statement": "fix the bug", "instance_id": "instance-1"},
			{"problem_statement": "fix the other bug", "instance_id": "instance-2"},
			{"instance_id": "instance-3"}
		]}`, nil)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "batch-complete", payload["status"])
	assert.Equal(t, float64(3), payload["total"])

	results := payload["results"].([]interface{})
	require.Len(t, results, 3)
	assert.Equal(t, string(trajectory.StatusPending), results[0].(map[string]interface{})["status"])
	assert.Equal(t, "error", results[2].(map[string]interface{})["status"])
}

func TestTrajectoryEndpoints(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{}, "")

	code, payload := ts.request(t, http.MethodPost, "/run",
		`{"problem_statement": "fix the bug", "instance_id": "instance-1"}`, nil)
	require.Equal(t, http.StatusAccepted, code)
	runID := payload["run_id"].(string)
	ts.waitForStatus(t, runID, trajectory.StatusCompleted)

	code, payload = ts.request(t, http.MethodGet, "/trajectory/"+runID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(trajectory.StatusCompleted), payload["status"])
	assert.Equal(t, "gpt-4o", payload["model_name"])

	code, payload = ts.request(t, http.MethodGet, "/trajectory/"+runID+"/file", "", nil)
	require.Equal(t, http.StatusOK, code)
	steps := payload["steps"].([]interface{})
	require.Len(t, steps, 1)
	assert.Equal(t, "working on instance-1", steps[0].(map[string]interface{})["content"])

	// second retrieval is served from the cache
	code, payload = ts.request(t, http.MethodGet, "/trajectory/"+runID+"/file", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, payload["steps"].([]interface{}), 1)

	code, payload = ts.request(t, http.MethodGet, "/trajectories", "", nil)
	require.Equal(t, http.StatusOK, code)
	listedRuns := payload["runs"].([]interface{})
	require.Len(t, listedRuns, 1)

	code, _ = ts.request(t, http.MethodGet, "/trajectory/no-such-run", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListTrajectoriesBadPagination(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{}, "")

	// Trailing garbage is rejected, not silently truncated
	code, _ := ts.request(t, http.MethodGet, "/trajectories?from_run_idx=12abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.request(t, http.MethodGet, "/trajectories?count=xyz", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStopRun(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{block: true}, "")

	code, payload := ts.request(t, http.MethodPost, "/run",
		`{"problem_statement": "fix the bug"}`, nil)
	require.Equal(t, http.StatusAccepted, code)
	runID := payload["run_id"].(string)
	ts.waitForStatus(t, runID, trajectory.StatusRunning)

	code, _ = ts.request(t, http.MethodPost, "/run/"+runID+"/stop", "", nil)
	assert.Equal(t, http.StatusAccepted, code)
	ts.waitForStatus(t, runID, trajectory.StatusStopped)

	code, _ = ts.request(t, http.MethodPost, "/run/"+runID+"/stop", "", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = ts.request(t, http.MethodPost, "/run/no-such-run/stop", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStopRunAuth(t *testing.T) {
	ts := makeTestServer(t, &stubExecutor{block: true}, "a_secret")

	code, payload := ts.request(t, http.MethodPost, "/run",
		`{"problem_statement": "fix the bug"}`, nil)
	require.Equal(t, http.StatusAccepted, code)
	runID := payload["run_id"].(string)
	token := payload["token"].(string)
	require.NotEmpty(t, token)
	ts.waitForStatus(t, runID, trajectory.StatusRunning)

	code, _ = ts.request(t, http.MethodPost, "/run/"+runID+"/stop", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	otherToken, err := MakeAndSerializeToken("another-run", "a_secret")
	require.NoError(t, err)
	code, _ = ts.request(t, http.MethodPost, "/run/"+runID+"/stop", "",
		map[string]string{runTokenHeaderKey: otherToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = ts.request(t, http.MethodPost, "/run/"+runID+"/stop", "",
		map[string]string{runTokenHeaderKey: token})
	assert.Equal(t, http.StatusAccepted, code)
	ts.waitForStatus(t, runID, trajectory.StatusStopped)
}
