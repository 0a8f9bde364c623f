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
	"fmt"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

// InvalidSubmissionError is raised when a run submission fails validation
type InvalidSubmissionError struct {
	Reason string
}

func (e *InvalidSubmissionError) Error() string {
	return e.Reason
}

// RunFinishedError is raised when trying to stop a run that already reached a terminal state
type RunFinishedError struct {
	RunID  string
	Status trajectory.Status
}

func (e *RunFinishedError) Error() string {
	return fmt.Sprintf("run %q already finished with status %q", e.RunID, e.Status)
}
