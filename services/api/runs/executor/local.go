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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

// LocalExecutor runs the agent as a child process of the service.
type LocalExecutor struct {
	command []string
	workDir string
}

func NewLocalExecutor(command []string, workDir string) (*LocalExecutor, error) {
	if len(command) == 0 || len(command[0]) == 0 {
		return nil, fmt.Errorf("empty agent command")
	}
	return &LocalExecutor{
		command: command,
		workDir: workDir,
	}, nil
}

func streamOut(source string, emit EmitFunc, src *io.PipeReader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		emit(source, scanner.Text())
	}
}

func (e *LocalExecutor) Execute(ctx context.Context, task Task, emit EmitFunc) (string, error) {
	logger := log.WithField("run_id", task.RunID)

	outputDir := task.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(e.workDir, "trajectories", task.InstanceID)
		task.OutputDir = outputDir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("unable to create the run output directory %q: %w", outputDir, err)
	}

	cmd := e.command[0]
	args := e.command[1:]

	cmdCtx := exec.CommandContext(ctx, cmd, args...)
	cmdCtx.Dir = outputDir
	cmdCtx.Env = append(os.Environ(), task.Environment()...)

	errReader, errWriter := io.Pipe()
	outReader, outWriter := io.Pipe()
	cmdCtx.Stderr = errWriter
	cmdCtx.Stdout = outWriter

	logWg := new(sync.WaitGroup)
	logWg.Add(2)

	go streamOut(trajectory.StepSourceStdout, emit, outReader, logWg)
	go streamOut(trajectory.StepSourceStderr, emit, errReader, logWg)
	defer func() {
		errWriter.Close()
		outWriter.Close()
		logWg.Wait()
	}()

	logger.WithField("cmd", strings.Join(e.command, " ")).Debug("launching the agent process")

	if err := cmdCtx.Start(); err != nil {
		// A run stopped during its pending window never gets to start
		if ctx.Err() != nil {
			logger.Debug("run cancelled before the agent process started")
			return "", ErrCancelled
		}
		return "", fmt.Errorf("unable to start the agent process: %w", err)
	}

	if err := cmdCtx.Wait(); err != nil {
		// An "error" is also generated when the context kills the process.
		if strings.HasPrefix(err.Error(), "signal: ") || ctx.Err() != nil {
			logger.Debug("agent process killed")
			return "", ErrCancelled
		}
		return "", fmt.Errorf("agent process failed: %w", err)
	}

	logger.Debug("agent process completed")

	return fmt.Sprintf("Completed successfully. Output directory: %s", outputDir), nil
}
