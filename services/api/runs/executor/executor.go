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
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "executor")

// ErrCancelled is returned when a run execution was interrupted through its context
var ErrCancelled = errors.New("run cancelled")

// Task describes one agent run to execute.
type Task struct {
	RunID            string
	InstanceID       string
	ProblemStatement string
	Repo             string
	ModelName        string
	ConfigPath       string
	OutputDir        string
}

// Environment returns the variables exposing the task to the agent process.
func (t Task) Environment() []string {
	env := []string{
		fmt.Sprintf("SWE_AGENT_RUN_ID=%s", t.RunID),
		fmt.Sprintf("SWE_AGENT_INSTANCE_ID=%s", t.InstanceID),
		fmt.Sprintf("SWE_AGENT_PROBLEM_STATEMENT=%s", t.ProblemStatement),
		fmt.Sprintf("SWE_AGENT_OUTPUT_DIR=%s", t.OutputDir),
	}
	if t.Repo != "" {
		env = append(env, fmt.Sprintf("SWE_AGENT_REPO=%s", t.Repo))
	}
	if t.ModelName != "" {
		env = append(env, fmt.Sprintf("SWE_AGENT_MODEL_NAME=%s", t.ModelName))
	}
	if t.ConfigPath != "" {
		env = append(env, fmt.Sprintf("SWE_AGENT_CONFIG_PATH=%s", t.ConfigPath))
	}
	return env
}

// EmitFunc receives one output line of the agent as it is produced.
type EmitFunc func(source string, content string)

// Executor runs one agent task until completion or cancellation.
type Executor interface {
	Execute(ctx context.Context, task Task, emit EmitFunc) (string, error)
}
