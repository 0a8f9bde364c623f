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

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sweagent/sweagent/services/api/httpserver"
	"github.com/sweagent/sweagent/services/api/runs"
	"github.com/sweagent/sweagent/services/api/runs/executor"
	"github.com/sweagent/sweagent/services/api/trajectory"
	"github.com/sweagent/sweagent/services/api/trajectory/bolt"
	"github.com/sweagent/sweagent/services/api/trajectory/memory"
)

var log = logrus.WithField("component", "api")

type StorageType int

const (
	Memory StorageType = iota
	File
)

type ExecutorType int

const (
	Local ExecutorType = iota
	Docker
)

type Options struct {
	Host            string
	Port            uint
	Secret          string
	Storage         StorageType
	FileStoragePath string
	FileCacheSize   int

	Executor     ExecutorType
	AgentCommand []string
	AgentWorkDir string
	AgentImage   string
	PullImage    bool

	DefaultModelName  string
	DefaultConfigPath string
}

var DefaultOptions = Options{
	Host:            "0.0.0.0",
	Port:            8000,
	Secret:          "",
	Storage:         Memory,
	FileStoragePath: ".sweagent/api.db",
	FileCacheSize:   0,

	Executor:     Local,
	AgentCommand: []string{"python", "-m", "sweagent", "run"},
	AgentWorkDir: ".",
	AgentImage:   "sweagent/swe-agent:latest",
	PullImage:    false,

	DefaultModelName:  "",
	DefaultConfigPath: "",
}

func Run(ctx context.Context, options Options) error {
	var backend trajectory.Backend
	switch options.Storage {
	case File:
		log.WithField("path", options.FileStoragePath).Info("using a file storage backend")
		var err error
		backend, err = bolt.CreateBoltBackend(options.FileStoragePath)
		if err != nil {
			return fmt.Errorf("unable to create the bolt backend: %w", err)
		}
	case Memory:
		log.Info("using an in-memory storage")
		var err error
		backend, err = memory.CreateMemoryBackend()
		if err != nil {
			return fmt.Errorf("unable to create the memory backend: %w", err)
		}
	}

	var exec executor.Executor
	switch options.Executor {
	case Docker:
		log.WithField("image", options.AgentImage).Info("using the docker executor")
		var err error
		exec, err = executor.NewDockerExecutor(options.AgentImage, options.AgentCommand, options.PullImage)
		if err != nil {
			return fmt.Errorf("unable to create the docker executor: %w", err)
		}
	case Local:
		log.WithField("command", options.AgentCommand).Info("using the local executor")
		var err error
		exec, err = executor.NewLocalExecutor(options.AgentCommand, options.AgentWorkDir)
		if err != nil {
			return fmt.Errorf("unable to create the local executor: %w", err)
		}
	}

	manager := runs.NewManager(backend, exec, runs.Submission{
		ModelName:  options.DefaultModelName,
		ConfigPath: options.DefaultConfigPath,
	})

	server, err := httpserver.New(
		options.Host,
		options.Port,
		manager,
		backend,
		options.Secret,
		options.FileCacheSize,
	)
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.WithField("port", options.Port).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("unexpected error while serving http routes: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("Gracefully stopping")

		log.Debug("Stopping the run manager")
		manager.Destroy()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Debug("Stopping the http server")
		if err := server.Shutdown(stopCtx); err != nil {
			log.WithField("error", err).Warning("Error while stopping")
		}

		log.Debug("Destroying the storage backend")
		backend.Destroy()
		return ctx.Err()
	})

	return group.Wait()
}
