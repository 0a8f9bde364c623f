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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, content string) string {
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = afero.NewOsFs() })

	const filename = "/launch/definition.yaml"
	require.NoError(t, afero.WriteFile(fs, filename, []byte(content), 0644))
	return filename
}

func findProcess(t *testing.T, def launchDefinition, name string) launchProcess {
	for _, proc := range def.processes {
		if proc.Name == name {
			return proc
		}
	}
	t.Fatalf("no process named [%s]", name)
	return launchProcess{}
}

func TestParseFile(t *testing.T) {
	filename := writeDefinition(t, `
global:
  environment:
    API_PORT: 8000
scripts:
  api:
    quiet: true
    ready_output: http server listening
    commands:
      - ["sweagent", "services", "api", "--port", "{{.API_PORT}}"]
  agent:
    depends_on:
      - api
    commands:
      - ["python", "-m", "sweagent", "run"]
`)

	def, err := parseFile(filename, nil)
	require.NoError(t, err)
	require.Len(t, def.processes, 2)

	api := findProcess(t, def, "api")
	assert.True(t, api.Quiet)
	assert.NotNil(t, api.ReadyRegex)
	assert.True(t, api.ReadyRegex.MatchString("level=info msg=\"http server listening\" port=8000"))
	assert.Empty(t, api.Dependency)
	require.Len(t, api.Commands, 1)
	assert.Equal(t, []string{"sweagent", "services", "api", "--port", "8000"}, api.Commands[0])
	assert.Contains(t, api.Environment, "API_PORT=8000")

	agent := findProcess(t, def, "agent")
	require.Len(t, agent.Dependency, 1)
	assert.Equal(t, "api", def.processes[agent.Dependency[0]].Name)
}

func TestParseFileCliArgs(t *testing.T) {
	filename := writeDefinition(t, `
scripts:
  agent:
    commands:
      - ["python", "-m", "sweagent", "run", "{{.__1}}", "{{.__2}}"]
`)

	def, err := parseFile(filename, []string{"--model", "gpt-4o"})
	require.NoError(t, err)
	require.Len(t, def.processes, 1)
	assert.Equal(t,
		[]string{"python", "-m", "sweagent", "run", "--model", "gpt-4o"},
		def.processes[0].Commands[0],
	)
}

func TestParseFileNoScript(t *testing.T) {
	filename := writeDefinition(t, `
global:
  environment:
    API_PORT: 8000
`)

	_, err := parseFile(filename, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no script defined")
}

func TestParseFileUnknownDependency(t *testing.T) {
	filename := writeDefinition(t, `
scripts:
  agent:
    depends_on:
      - api
    commands:
      - ["python", "-m", "sweagent", "run"]
`)

	_, err := parseFile(filename, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dependency")
}

func TestParseFileDependencyCycle(t *testing.T) {
	filename := writeDefinition(t, `
scripts:
  first:
    depends_on:
      - second
    commands:
      - ["true"]
  second:
    depends_on:
      - first
    commands:
      - ["true"]
`)

	_, err := parseFile(filename, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dependency")
}
