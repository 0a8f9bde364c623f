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
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/sweagent/sweagent/utils"
)

// commandRunner runs the commands of one launched process, watching their
// output for the readiness condition.
type commandRunner struct {
	Ctx           context.Context
	Folder        string
	Environment   []string
	OutputEnabled bool
	OutputRegex   *regexp.Regexp
	OutputMatched *utils.SingleEvent
}

// Remove trailing empty values
func trimTrail(src []string) []string {
	lastIndex := len(src) - 1
	for lastIndex >= 0 {
		if len(src[lastIndex]) == 0 {
			lastIndex--
		} else {
			break
		}
	}

	return src[:lastIndex+1]
}

func (runner *commandRunner) streamOut(out func(args ...interface{}), src *io.PipeReader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		text := scanner.Text()

		if !runner.OutputMatched.IsSet() && runner.OutputRegex.MatchString(text) {
			runner.OutputMatched.Set()
		}

		if runner.OutputEnabled {
			out(text)
		}
	}
}

func (runner *commandRunner) run(cmdDesc string, cmdArgs []string) error {
	logger := log.WithField("cmd", cmdDesc)

	if runner.OutputRegex == nil {
		runner.OutputMatched.Set()
	}

	if len(cmdArgs) < 1 || len(cmdArgs[0]) == 0 {
		logger.Trace("Empty command ignored")
		return nil
	}

	cmd := cmdArgs[0]
	args := trimTrail(cmdArgs[1:])

	cmdCtx := exec.CommandContext(runner.Ctx, cmd, args...)
	cmdCtx.Dir = runner.Folder
	cmdCtx.Env = runner.Environment

	if runner.OutputEnabled || !runner.OutputMatched.IsSet() {
		errReader, errWriter := io.Pipe()
		outReader, outWriter := io.Pipe()
		cmdCtx.Stderr = errWriter
		cmdCtx.Stdout = outWriter

		logWg := new(sync.WaitGroup)
		logWg.Add(2)

		go runner.streamOut(logger.Info, outReader, logWg)
		go runner.streamOut(logger.Warn, errReader, logWg)
		defer func() {
			errWriter.Close()
			outWriter.Close()
			logWg.Wait()
		}()
	}

	cmdLine := strings.Join(append([]string{cmd}, args...), " ")
	if runner.OutputEnabled {
		logger.WithField("", cmdLine).Trace("Starting")
	} else {
		logger.WithField("", cmdLine).Trace("Starting muted")
	}

	err := cmdCtx.Start()
	if err != nil {
		logger.WithField("error", err).Debug("Failed")
		return err
	}

	err = cmdCtx.Wait()
	if err != nil {
		if strings.HasPrefix(err.Error(), "signal: ") {
			// This happens when the context is cancelled (e.g. CTRL-C) or when
			// another goroutine in the errgroup ends with an error.
			logger.Debug(err.Error())
			return errProcessCancelled
		}
		logger.WithField("error", err).Debug("Failed")
		return err
	}

	logger.Trace("Completed")

	return nil
}
