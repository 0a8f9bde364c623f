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

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApiPortDefault(t *testing.T) {
	assert.Equal(t, uint(8000), apiViper.GetUint(apiPortKey))
}

func TestApiPortLegacyEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	assert.Equal(t, uint(9999), apiViper.GetUint(apiPortKey))
}

func TestApiPortEnvPrecedence(t *testing.T) {
	t.Setenv("PORT", "1111")
	t.Setenv("SWEAGENT_API_PORT", "2222")
	assert.Equal(t, uint(2222), apiViper.GetUint(apiPortKey))
}

// Keep last, the flag value sticks on the shared command.
func TestApiPortFlagPrecedence(t *testing.T) {
	t.Setenv("SWEAGENT_API_PORT", "2222")
	require.NoError(t, apiCmd.Flags().Set(apiPortKey, "3333"))
	assert.Equal(t, uint(3333), apiViper.GetUint(apiPortKey))
}
