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

package test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

func generateRunRecord(runID string) *trajectory.RunRecord {
	return &trajectory.RunRecord{
		RunID:            runID,
		InstanceID:       runID,
		ProblemStatement: fmt.Sprintf("problem statement for %s", runID),
		ModelName:        "gpt-4o",
		Status:           trajectory.StatusPending,
		SubmittedAt:      time.Now(),
	}
}

func generateSteps(count int, source string) []trajectory.Step {
	steps := make([]trajectory.Step, count)
	for i := range steps {
		steps[i] = trajectory.Step{
			Source:  source,
			Content: fmt.Sprintf("line %d", i),
			Time:    time.Now(),
		}
	}
	return steps
}

// RunSuite runs the whole backend conformance suite against a backend implementation
func RunSuite(
	t *testing.T,
	createBackend func() trajectory.Backend,
	destroyBackend func(trajectory.Backend),
) {
	t.Run("TestCreateAndRetrieveRun", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		record := generateRunRecord("run-1")
		require.NoError(t, b.CreateRun(context.Background(), record))

		retrieved, err := b.RetrieveRun(context.Background(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, "run-1", retrieved.RunID)
		assert.Equal(t, record.ProblemStatement, retrieved.ProblemStatement)
		assert.Equal(t, trajectory.StatusPending, retrieved.Status)
		assert.Nil(t, retrieved.FinishedAt)
		assert.Equal(t, 0, retrieved.StepsCount)
	})

	t.Run("TestCreateDuplicateRun", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		require.NoError(t, b.CreateRun(context.Background(), generateRunRecord("run-1")))
		err := b.CreateRun(context.Background(), generateRunRecord("run-1"))
		require.Error(t, err)
		assert.IsType(t, &trajectory.RunAlreadyExistsError{}, err)
	})

	t.Run("TestRetrieveUnknownRun", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		_, err := b.RetrieveRun(context.Background(), "no-such-run")
		require.Error(t, err)
		assert.IsType(t, &trajectory.UnknownRunError{}, err)
	})

	t.Run("TestUpdateRunStatus", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		require.NoError(t, b.CreateRun(context.Background(), generateRunRecord("run-1")))
		require.NoError(t, b.UpdateRunStatus(context.Background(), "run-1", trajectory.StatusRunning, ""))

		retrieved, err := b.RetrieveRun(context.Background(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, trajectory.StatusRunning, retrieved.Status)
		assert.Nil(t, retrieved.FinishedAt)

		require.NoError(t, b.UpdateRunStatus(context.Background(), "run-1", trajectory.StatusCompleted, "all done"))

		retrieved, err = b.RetrieveRun(context.Background(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, trajectory.StatusCompleted, retrieved.Status)
		assert.Equal(t, "all done", retrieved.Result)
		require.NotNil(t, retrieved.FinishedAt)

		err = b.UpdateRunStatus(context.Background(), "no-such-run", trajectory.StatusRunning, "")
		require.Error(t, err)
		assert.IsType(t, &trajectory.UnknownRunError{}, err)
	})

	t.Run("TestAddAndRetrieveSteps", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		require.NoError(t, b.CreateRun(context.Background(), generateRunRecord("run-1")))
		require.NoError(t, b.AddSteps(context.Background(), "run-1", generateSteps(5, trajectory.StepSourceStdout)))
		require.NoError(t, b.AddSteps(context.Background(), "run-1", generateSteps(3, trajectory.StepSourceStderr)))

		steps, err := b.RetrieveSteps(context.Background(), "run-1")
		require.NoError(t, err)
		require.Len(t, steps, 8)
		for i, step := range steps {
			assert.Equal(t, i, step.Index)
		}
		assert.Equal(t, trajectory.StepSourceStdout, steps[0].Source)
		assert.Equal(t, trajectory.StepSourceStderr, steps[7].Source)

		retrieved, err := b.RetrieveRun(context.Background(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, 8, retrieved.StepsCount)

		err = b.AddSteps(context.Background(), "no-such-run", generateSteps(1, trajectory.StepSourceStdout))
		require.Error(t, err)
		assert.IsType(t, &trajectory.UnknownRunError{}, err)
	})

	t.Run("TestListRuns", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		for i := 0; i < 10; i++ {
			require.NoError(t, b.CreateRun(context.Background(), generateRunRecord(fmt.Sprintf("run-%d", i))))
		}

		result, err := b.ListRuns(context.Background(), 0, 4)
		require.NoError(t, err)
		require.Len(t, result.Runs, 4)
		assert.Equal(t, "run-0", result.Runs[0].RunID)
		assert.Equal(t, "run-3", result.Runs[3].RunID)
		assert.Equal(t, 4, result.NextRunIdx)

		result, err = b.ListRuns(context.Background(), result.NextRunIdx, 0)
		require.NoError(t, err)
		require.Len(t, result.Runs, 6)
		assert.Equal(t, "run-4", result.Runs[0].RunID)
		assert.Equal(t, "run-9", result.Runs[5].RunID)

		result, err = b.ListRuns(context.Background(), result.NextRunIdx, 4)
		require.NoError(t, err)
		assert.Len(t, result.Runs, 0)
	})

	t.Run("TestDeleteRun", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		require.NoError(t, b.CreateRun(context.Background(), generateRunRecord("run-0")))
		require.NoError(t, b.CreateRun(context.Background(), generateRunRecord("run-1")))
		require.NoError(t, b.CreateRun(context.Background(), generateRunRecord("run-2")))

		require.NoError(t, b.DeleteRun(context.Background(), "run-1"))

		_, err := b.RetrieveRun(context.Background(), "run-1")
		require.Error(t, err)
		assert.IsType(t, &trajectory.UnknownRunError{}, err)

		result, err := b.ListRuns(context.Background(), 0, 0)
		require.NoError(t, err)
		require.Len(t, result.Runs, 2)
		assert.Equal(t, "run-0", result.Runs[0].RunID)
		assert.Equal(t, "run-2", result.Runs[1].RunID)

		err = b.DeleteRun(context.Background(), "run-1")
		require.Error(t, err)
		assert.IsType(t, &trajectory.UnknownRunError{}, err)
	})
}
