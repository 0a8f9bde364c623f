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

package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

type lineCollector struct {
	mutex sync.Mutex
	lines []trajectory.Step
}

func (c *lineCollector) emit(source string, content string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lines = append(c.lines, trajectory.Step{Source: source, Content: content})
}

func (c *lineCollector) collected() []trajectory.Step {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	lines := make([]trajectory.Step, len(c.lines))
	copy(lines, c.lines)
	return lines
}

func TestLocalExecutor(t *testing.T) {
	exec, err := NewLocalExecutor([]string{"echo", "hello world"}, t.TempDir())
	require.NoError(t, err)

	collector := &lineCollector{}
	result, err := exec.Execute(context.Background(), Task{
		RunID:            "run-1",
		InstanceID:       "instance-1",
		ProblemStatement: "fix the bug",
	}, collector.emit)
	require.NoError(t, err)
	assert.Contains(t, result, "Output directory:")

	lines := collector.collected()
	require.Len(t, lines, 1)
	assert.Equal(t, trajectory.StepSourceStdout, lines[0].Source)
	assert.Equal(t, "hello world", lines[0].Content)
}

func TestLocalExecutorFailure(t *testing.T) {
	exec, err := NewLocalExecutor([]string{"sh", "-c", "exit 3"}, t.TempDir())
	require.NoError(t, err)

	collector := &lineCollector{}
	_, err = exec.Execute(context.Background(), Task{RunID: "run-1", InstanceID: "instance-1"}, collector.emit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent process failed")
}

func TestLocalExecutorCancelled(t *testing.T) {
	exec, err := NewLocalExecutor([]string{"sleep", "30"}, t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	collector := &lineCollector{}
	_, err = exec.Execute(ctx, Task{RunID: "run-1", InstanceID: "instance-1"}, collector.emit)
	require.ErrorIs(t, err, ErrCancelled)
}

func TestLocalExecutorCancelledBeforeStart(t *testing.T) {
	exec, err := NewLocalExecutor([]string{"sleep", "30"}, t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collector := &lineCollector{}
	_, err = exec.Execute(ctx, Task{RunID: "run-1", InstanceID: "instance-1"}, collector.emit)
	require.ErrorIs(t, err, ErrCancelled)
}

func TestLocalExecutorEmptyCommand(t *testing.T) {
	_, err := NewLocalExecutor(nil, t.TempDir())
	require.Error(t, err)
}

func TestTaskEnvironment(t *testing.T) {
	env := Task{
		RunID:            "run-1",
		InstanceID:       "instance-1",
		ProblemStatement: "fix the bug",
		ModelName:        "gpt-4o",
	}.Environment()
	assert.Contains(t, env, "SWE_AGENT_RUN_ID=run-1")
	assert.Contains(t, env, "SWE_AGENT_PROBLEM_STATEMENT=fix the bug")
	assert.Contains(t, env, "SWE_AGENT_MODEL_NAME=gpt-4o")
	assert.NotContains(t, env, "SWE_AGENT_REPO=")
}
