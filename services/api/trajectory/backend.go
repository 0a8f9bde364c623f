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

package trajectory

import (
	"context"
	"fmt"
	"time"
)

// Status represents the lifecycle state of an agent run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// IsTerminal returns true once a run can no longer change state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	}
	return false
}

// RunRecord represents the stored metadata of a single agent run.
type RunRecord struct {
	RunID            string     `json:"run_id"`
	RunIdx           uint64     `json:"run_idx"`
	InstanceID       string     `json:"instance_id"`
	ProblemStatement string     `json:"problem_statement"`
	Repo             string     `json:"repo,omitempty"`
	ModelName        string     `json:"model_name,omitempty"`
	ConfigPath       string     `json:"config_path,omitempty"`
	Status           Status     `json:"status"`
	Result           string     `json:"result,omitempty"`
	StepsCount       int        `json:"steps_count"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// Step is a single recorded trajectory entry of a run.
type Step struct {
	Index   int       `json:"index"`
	Source  string    `json:"source"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Step sources
const (
	StepSourceStdout = "stdout"
	StepSourceStderr = "stderr"
	StepSourceSystem = "system"
)

type RunsResult struct {
	Runs       []*RunRecord
	NextRunIdx int
}

// Backend defines the interface for a trajectory storage backend
type Backend interface {
	Destroy()

	CreateRun(ctx context.Context, record *RunRecord) error
	RetrieveRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, fromRunIdx int, count int) (RunsResult, error)
	UpdateRunStatus(ctx context.Context, runID string, status Status, result string) error

	AddSteps(ctx context.Context, runID string, steps []Step) error
	RetrieveSteps(ctx context.Context, runID string) ([]Step, error)

	DeleteRun(ctx context.Context, runID string) error
}

// UnknownRunError is raised when trying to operate on an unknown run
type UnknownRunError struct {
	RunID string
}

func (e *UnknownRunError) Error() string {
	return fmt.Sprintf("no run %q found", e.RunID)
}

// RunAlreadyExistsError is raised when creating a run whose id is taken
type RunAlreadyExistsError struct {
	RunID string
}

func (e *RunAlreadyExistsError) Error() string {
	return fmt.Sprintf("run %q already exists", e.RunID)
}

// UnexpectedError wraps any backend internal failure
type UnexpectedError struct {
	err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected backend error: %s", e.err.Error())
}

func (e *UnexpectedError) Unwrap() error {
	return e.err
}

func NewUnexpectedError(format string, a ...interface{}) error {
	return &UnexpectedError{err: fmt.Errorf(format, a...)}
}
