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

package runs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/imdario/mergo"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"

	"github.com/sweagent/sweagent/services/api/runs/executor"
	"github.com/sweagent/sweagent/services/api/trajectory"
)

var log = logrus.WithField("component", "runs")

// Submission is a request to run the agent on one problem statement.
type Submission struct {
	ProblemStatement string
	InstanceID       string
	Repo             string
	ModelName        string
	ConfigPath       string
}

// Manager owns the in-flight agent runs.
type Manager struct {
	backend  trajectory.Backend
	executor executor.Executor
	defaults Submission

	activeMutex sync.Mutex
	active      map[string]context.CancelFunc
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewManager(backend trajectory.Backend, exec executor.Executor, defaults Submission) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		backend:  backend,
		executor: exec,
		defaults: defaults,
		active:   map[string]context.CancelFunc{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// StartRun validates and records the submission and launches its execution.
// It returns as soon as the run is accepted.
func (m *Manager) StartRun(ctx context.Context, submission Submission) (*trajectory.RunRecord, error) {
	if strings.TrimSpace(submission.ProblemStatement) == "" {
		return nil, &InvalidSubmissionError{Reason: "problem_statement is required"}
	}

	// Fill the fields the submission leaves empty from the configured defaults
	if err := mergo.Merge(&submission, m.defaults); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	if submission.InstanceID == "" {
		submission.InstanceID = runID
	}

	record := &trajectory.RunRecord{
		RunID:            runID,
		InstanceID:       submission.InstanceID,
		ProblemStatement: submission.ProblemStatement,
		Repo:             submission.Repo,
		ModelName:        submission.ModelName,
		ConfigPath:       submission.ConfigPath,
		Status:           trajectory.StatusPending,
		SubmittedAt:      time.Now(),
	}
	if err := m.backend.CreateRun(ctx, record); err != nil {
		return nil, err
	}

	runCtx, cancelRun := context.WithCancel(m.ctx)
	m.activeMutex.Lock()
	m.active[runID] = cancelRun
	m.activeMutex.Unlock()

	m.wg.Add(1)
	go m.executeRun(runCtx, record)

	return record, nil
}

func (m *Manager) executeRun(ctx context.Context, record *trajectory.RunRecord) {
	defer m.wg.Done()
	logger := log.WithFields(logrus.Fields{
		"run_id":      record.RunID,
		"instance_id": record.InstanceID,
	})

	defer func() {
		m.activeMutex.Lock()
		if cancelRun, stillActive := m.active[record.RunID]; stillActive {
			delete(m.active, record.RunID)
			cancelRun()
		}
		m.activeMutex.Unlock()
	}()

	if err := m.backend.UpdateRunStatus(context.Background(), record.RunID, trajectory.StatusRunning, ""); err != nil {
		logger.WithField("error", err).Error("unable to mark the run as running")
		return
	}
	logger.Info("run started")

	emit := func(source string, content string) {
		step := trajectory.Step{Source: source, Content: content, Time: time.Now()}
		if err := m.backend.AddSteps(context.Background(), record.RunID, []trajectory.Step{step}); err != nil {
			logger.WithField("error", err).Warn("unable to record a trajectory step")
		}
	}

	// Task and RunRecord share their submission field names
	task := executor.Task{}
	copier.Copy(&task, record)

	result, err := m.executor.Execute(ctx, task, emit)

	status := trajectory.StatusCompleted
	switch {
	case errors.Is(err, executor.ErrCancelled):
		status = trajectory.StatusStopped
		result = "Stopped before completion"
		logger.Info("run stopped")
	case err != nil:
		status = trajectory.StatusFailed
		result = err.Error()
		logger.WithField("error", err).Warn("run failed")
	default:
		logger.Info("run completed")
	}

	if err := m.backend.UpdateRunStatus(context.Background(), record.RunID, status, result); err != nil {
		logger.WithField("error", err).Error("unable to record the run outcome")
	}
}

// StopRun cancels an in-flight run.
func (m *Manager) StopRun(ctx context.Context, runID string) error {
	m.activeMutex.Lock()
	cancelRun, active := m.active[runID]
	if active {
		delete(m.active, runID)
	}
	m.activeMutex.Unlock()

	if active {
		cancelRun()
		return nil
	}

	// Either the run never existed or it already reached a terminal state
	record, err := m.backend.RetrieveRun(ctx, runID)
	if err != nil {
		return err
	}
	return &RunFinishedError{RunID: runID, Status: record.Status}
}

// Destroy cancels every in-flight run and waits for them to wind down.
func (m *Manager) Destroy() {
	m.cancel()
	m.wg.Wait()
}
