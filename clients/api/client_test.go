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

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

func makeMockedClient(t *testing.T) *Client {
	client := NewClient("http://sweagent.test")
	httpmock.ActivateNonDefault(client.resty.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestHealth(t *testing.T) {
	client := makeMockedClient(t)

	httpmock.RegisterResponder("GET", "http://sweagent.test/health",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"status":  "healthy",
				"service": "swe-agent-api",
			})
		},
	)

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "swe-agent-api", status.Service)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSubmitRun(t *testing.T) {
	client := makeMockedClient(t)

	httpmock.RegisterResponder("POST", "http://sweagent.test/run",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusAccepted, map[string]interface{}{
				"run_id":      "run-1",
				"instance_id": "instance-1",
				"status":      "pending",
				"token":       "a_token",
			})
		},
	)

	accepted, err := client.SubmitRun(context.Background(), RunSubmission{
		ProblemStatement: "fix the bug",
		InstanceID:       "instance-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", accepted.RunID)
	assert.Equal(t, "instance-1", accepted.InstanceID)
	assert.Equal(t, "pending", accepted.Status)
	assert.Equal(t, "a_token", accepted.Token)
}

func TestSubmitRunError(t *testing.T) {
	client := makeMockedClient(t)

	httpmock.RegisterResponder("POST", "http://sweagent.test/run",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusBadRequest, map[string]interface{}{
				"message": "problem_statement is required",
			})
		},
	)

	_, err := client.SubmitRun(context.Background(), RunSubmission{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem_statement is required")
	assert.Contains(t, err.Error(), "400")
}

func TestSubmitBatchRun(t *testing.T) {
	client := makeMockedClient(t)

	httpmock.RegisterResponder("POST", "http://sweagent.test/batch-run",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusAccepted, map[string]interface{}{
				"status": "batch-complete",
				"total":  2,
				"results": []map[string]interface{}{
					{"run_id": "run-1", "instance_id": "instance-1", "status": "pending"},
					{"instance_id": "instance-2", "status": "error", "error": "problem_statement is required"},
				},
			})
		},
	)

	result, err := client.SubmitBatchRun(context.Background(), []RunSubmission{
		{ProblemStatement: "fix the bug", InstanceID: "instance-1"},
		{InstanceID: "instance-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "batch-complete", result.Status)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "run-1", result.Results[0].RunID)
	assert.Equal(t, "error", result.Results[1].Status)
}

func TestStopRun(t *testing.T) {
	client := makeMockedClient(t)

	httpmock.RegisterResponder("POST", "http://sweagent.test/run/run-1/stop",
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(runTokenHeaderKey) != "a_token" {
				return httpmock.NewJsonResponse(http.StatusUnauthorized, map[string]interface{}{
					"message": "unable to validate token",
				})
			}
			return httpmock.NewJsonResponse(http.StatusAccepted, map[string]interface{}{
				"run_id": "run-1",
			})
		},
	)

	err := client.StopRun(context.Background(), "run-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to validate token")

	err = client.StopRun(context.Background(), "run-1", "a_token")
	require.NoError(t, err)
}

func TestListTrajectories(t *testing.T) {
	client := makeMockedClient(t)

	httpmock.RegisterResponder("GET", "http://sweagent.test/trajectories",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "2", req.URL.Query().Get("from_run_idx"))
			assert.Equal(t, "10", req.URL.Query().Get("count"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"runs": []map[string]interface{}{
					{"run_id": "run-3", "run_idx": 2, "status": "completed"},
				},
				"next_run_idx": 3,
			})
		},
	)

	page, err := client.ListTrajectories(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Runs, 1)
	assert.Equal(t, "run-3", page.Runs[0].RunID)
	assert.Equal(t, trajectory.StatusCompleted, page.Runs[0].Status)
	assert.Equal(t, 3, page.NextRunIdx)
}

func TestGetTrajectoryFile(t *testing.T) {
	client := makeMockedClient(t)

	httpmock.RegisterResponder("GET", "http://sweagent.test/trajectory/run-1/file",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"run": map[string]interface{}{"run_id": "run-1", "status": "completed"},
				"steps": []map[string]interface{}{
					{"index": 0, "source": "stdout", "content": "working"},
				},
			})
		},
	)

	file, err := client.GetTrajectoryFile(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", file.Run.RunID)
	require.Len(t, file.Steps, 1)
	assert.Equal(t, "working", file.Steps[0].Content)

	httpmock.RegisterResponder("GET", "http://sweagent.test/trajectory/no-such-run/file",
		httpmock.NewJsonResponderOrPanic(http.StatusNotFound, map[string]interface{}{
			"message": "unknown run [no-such-run]",
		}),
	)

	_, err = client.GetTrajectoryFile(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown run")
}
