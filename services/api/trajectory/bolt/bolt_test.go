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

package bolt

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweagent/sweagent/services/api/trajectory"
	"github.com/sweagent/sweagent/services/api/trajectory/test"
)

func TestSuiteBoltBackend(t *testing.T) {
	test.RunSuite(t, func() trajectory.Backend {
		// create and open a temporary file
		f, err := os.CreateTemp("", "trajectory-bolt-test")
		assert.NoError(t, err)

		// close and remove the temporary file
		defer f.Close()

		b, err := CreateBoltBackend(f.Name())
		assert.NoError(t, err)
		return b
	}, func(b trajectory.Backend) {
		rb := b.(*boltBackend)

		defer os.Remove(rb.filePath)
		defer rb.Destroy()
	})
}
