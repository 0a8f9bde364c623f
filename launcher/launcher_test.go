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

package launcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeRealDefinition writes the launch definition to a real temporary file,
// unlike writeDefinition's in-memory fs, so the launched commands can chdir
// into the definition's folder.
func writeRealDefinition(t *testing.T, content string) string {
	filename := filepath.Join(t.TempDir(), "definition.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))
	return filename
}

func TestLaunch(t *testing.T) {
	filename := writeRealDefinition(t, `
scripts:
  first:
    commands:
      - ["true"]
  second:
    depends_on:
      - first
    commands:
      - ["true"]
`)

	require.NoError(t, Launch([]string{filename}, 3))
}

func TestLaunchMissingFile(t *testing.T) {
	require.Error(t, Launch(nil, 3))
}

func TestLaunchCommandFailure(t *testing.T) {
	filename := writeRealDefinition(t, `
scripts:
  failing:
    commands:
      - ["false"]
`)

	require.Error(t, Launch([]string{filename}, 3))
}
