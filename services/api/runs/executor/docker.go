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
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/juju/errors"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

const runIDLabel = "swe-agent.run_id"

// DockerExecutor runs each agent task in its own container.
type DockerExecutor struct {
	client  *client.Client
	image   string
	command []string
	pull    bool
}

func NewDockerExecutor(image string, command []string, pull bool) (*DockerExecutor, error) {
	if image == "" {
		return nil, fmt.Errorf("empty agent image")
	}
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Annotate(err, "unable to create the docker client")
	}
	return &DockerExecutor{
		client:  dockerClient,
		image:   image,
		command: command,
		pull:    pull,
	}, nil
}

func (e *DockerExecutor) ensureImage(ctx context.Context) error {
	if !e.pull {
		return nil
	}
	progress, err := e.client.ImagePull(ctx, e.image, types.ImagePullOptions{})
	if err != nil {
		return errors.Annotatef(err, "unable to pull image %q", e.image)
	}
	defer progress.Close()
	// The pull is done once the progress stream ends
	_, err = io.Copy(io.Discard, progress)
	return err
}

func (e *DockerExecutor) Execute(ctx context.Context, task Task, emit EmitFunc) (string, error) {
	logger := log.WithField("run_id", task.RunID)

	if err := e.ensureImage(ctx); err != nil {
		return "", err
	}

	containerName := fmt.Sprintf("swe-agent-run-%s", task.RunID)

	created, err := e.client.ContainerCreate(
		ctx,
		&container.Config{
			Image:  e.image,
			Cmd:    e.command,
			Env:    task.Environment(),
			Labels: map[string]string{runIDLabel: task.RunID},
		},
		&container.HostConfig{},
		nil,
		nil,
		containerName,
	)
	if err != nil {
		// A run stopped during its pending window never gets a container
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", errors.Annotatef(err, "unable to create container %q", containerName)
	}
	containerID := created.ID
	defer func() {
		removeErr := e.client.ContainerRemove(context.Background(), containerID, types.ContainerRemoveOptions{
			Force: true,
		})
		if removeErr != nil {
			logger.WithField("error", removeErr).Warn("unable to remove the run container")
		}
	}()

	if err := e.client.ContainerStart(ctx, containerID, types.ContainerStartOptions{}); err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", errors.Annotatef(err, "unable to start container %q", containerName)
	}

	logger.WithField("container", containerName).Debug("agent container started")

	logs, err := e.client.ContainerLogs(ctx, containerID, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return "", errors.Annotatef(err, "unable to follow logs of container %q", containerName)
	}
	defer logs.Close()

	errReader, errWriter := io.Pipe()
	outReader, outWriter := io.Pipe()

	logWg := new(sync.WaitGroup)
	logWg.Add(2)
	go streamOut(trajectory.StepSourceStdout, emit, outReader, logWg)
	go streamOut(trajectory.StepSourceStderr, emit, errReader, logWg)

	go func() {
		// The docker log stream multiplexes stdout and stderr
		_, copyErr := stdcopy.StdCopy(outWriter, errWriter, logs)
		outWriter.CloseWithError(copyErr)
		errWriter.CloseWithError(copyErr)
	}()
	defer logWg.Wait()

	waitCh, waitErrCh := e.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-waitCh:
		if status.Error != nil {
			return "", fmt.Errorf("container %q wait failed: %s", containerName, status.Error.Message)
		}
		if status.StatusCode != 0 {
			return "", fmt.Errorf("agent container %q exited with status %d", containerName, status.StatusCode)
		}
	case err := <-waitErrCh:
		if ctx.Err() != nil {
			logger.Debug("agent container cancelled")
			return "", ErrCancelled
		}
		return "", errors.Annotatef(err, "unable to wait for container %q", containerName)
	}

	logger.WithField("container", containerName).Debug("agent container completed")

	return fmt.Sprintf("Completed successfully. Container: %s", containerName), nil
}
