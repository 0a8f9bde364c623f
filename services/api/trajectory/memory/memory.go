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

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

type runData struct {
	record *trajectory.RunRecord
	steps  []trajectory.Step
}

type memoryBackend struct {
	runs       map[string]*runData
	runIDs     []string // insertion order, index is RunIdx
	runsMutex  *sync.RWMutex
	nextRunIdx uint64
}

// CreateMemoryBackend creates a Backend that keeps everything in process memory
func CreateMemoryBackend() (trajectory.Backend, error) {
	b := &memoryBackend{
		runs:      make(map[string]*runData),
		runIDs:    []string{},
		runsMutex: &sync.RWMutex{},
	}
	return b, nil
}

// Destroy terminates the underlying storage
func (b *memoryBackend) Destroy() {
	b.runsMutex.Lock()
	defer b.runsMutex.Unlock()
	b.runs = make(map[string]*runData)
	b.runIDs = []string{}
}

func copyRecord(record *trajectory.RunRecord) *trajectory.RunRecord {
	recordCopy := *record
	if record.FinishedAt != nil {
		finishedAt := *record.FinishedAt
		recordCopy.FinishedAt = &finishedAt
	}
	return &recordCopy
}

func (b *memoryBackend) CreateRun(_ context.Context, record *trajectory.RunRecord) error {
	b.runsMutex.Lock()
	defer b.runsMutex.Unlock()

	if _, exists := b.runs[record.RunID]; exists {
		return &trajectory.RunAlreadyExistsError{RunID: record.RunID}
	}

	record.RunIdx = b.nextRunIdx
	b.nextRunIdx++

	b.runs[record.RunID] = &runData{record: copyRecord(record)}
	b.runIDs = append(b.runIDs, record.RunID)
	return nil
}

func (b *memoryBackend) RetrieveRun(_ context.Context, runID string) (*trajectory.RunRecord, error) {
	b.runsMutex.RLock()
	defer b.runsMutex.RUnlock()

	data, exists := b.runs[runID]
	if !exists {
		return nil, &trajectory.UnknownRunError{RunID: runID}
	}
	return copyRecord(data.record), nil
}

func (b *memoryBackend) ListRuns(
	_ context.Context,
	fromRunIdx int,
	count int,
) (trajectory.RunsResult, error) {
	b.runsMutex.RLock()
	defer b.runsMutex.RUnlock()

	if fromRunIdx < 0 {
		fromRunIdx = 0
	}
	if fromRunIdx >= len(b.runIDs) {
		return trajectory.RunsResult{Runs: []*trajectory.RunRecord{}, NextRunIdx: fromRunIdx}, nil
	}
	toRunIdx := len(b.runIDs)
	if count > 0 && fromRunIdx+count < toRunIdx {
		toRunIdx = fromRunIdx + count
	}

	runs := make([]*trajectory.RunRecord, 0, toRunIdx-fromRunIdx)
	for _, runID := range b.runIDs[fromRunIdx:toRunIdx] {
		// deleted runs keep their index slot but are not listed
		if data, exists := b.runs[runID]; exists {
			runs = append(runs, copyRecord(data.record))
		}
	}
	return trajectory.RunsResult{Runs: runs, NextRunIdx: toRunIdx}, nil
}

func (b *memoryBackend) UpdateRunStatus(
	_ context.Context,
	runID string,
	status trajectory.Status,
	result string,
) error {
	b.runsMutex.Lock()
	defer b.runsMutex.Unlock()

	data, exists := b.runs[runID]
	if !exists {
		return &trajectory.UnknownRunError{RunID: runID}
	}

	data.record.Status = status
	if result != "" {
		data.record.Result = result
	}
	if status.IsTerminal() && data.record.FinishedAt == nil {
		finishedAt := time.Now()
		data.record.FinishedAt = &finishedAt
	}
	return nil
}

func (b *memoryBackend) AddSteps(_ context.Context, runID string, steps []trajectory.Step) error {
	b.runsMutex.Lock()
	defer b.runsMutex.Unlock()

	data, exists := b.runs[runID]
	if !exists {
		return &trajectory.UnknownRunError{RunID: runID}
	}

	for _, step := range steps {
		step.Index = len(data.steps)
		data.steps = append(data.steps, step)
	}
	data.record.StepsCount = len(data.steps)
	return nil
}

func (b *memoryBackend) RetrieveSteps(_ context.Context, runID string) ([]trajectory.Step, error) {
	b.runsMutex.RLock()
	defer b.runsMutex.RUnlock()

	data, exists := b.runs[runID]
	if !exists {
		return nil, &trajectory.UnknownRunError{RunID: runID}
	}

	steps := make([]trajectory.Step, len(data.steps))
	copy(steps, data.steps)
	return steps, nil
}

func (b *memoryBackend) DeleteRun(_ context.Context, runID string) error {
	b.runsMutex.Lock()
	defer b.runsMutex.Unlock()

	if _, exists := b.runs[runID]; !exists {
		return &trajectory.UnknownRunError{RunID: runID}
	}
	delete(b.runs, runID)
	// The run keeps its slot in the index to keep later run indices stable
	return nil
}
