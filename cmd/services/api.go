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
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweagent/sweagent/cmd/services/utils"
	"github.com/sweagent/sweagent/services/api"
	"github.com/sweagent/sweagent/version"
)

// apiViper represents the configuration of the api command
var apiViper = viper.New()

var apiHostKey = "host"
var apiPortKey = "port"
var apiSecretKey = "secret"
var apiFileStoragePathKey = "file_storage"
var apiFileCacheSizeKey = "trajectory_cache_size"
var apiExecutorKey = "executor"
var apiAgentCommandKey = "agent_command"
var apiAgentWorkDirKey = "agent_work_dir"
var apiAgentImageKey = "agent_image"
var apiPullImageKey = "pull_image"
var apiModelNameKey = "model_name"
var apiConfigKey = "config"

const localExecutorName = "local"
const dockerExecutorName = "docker"

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the SWE-agent API service",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		err := configureLog(servicesViper)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"version": version.Version,
			"hash":    version.Hash,
		}).Info("starting the api service")

		options := api.Options{
			Host:              apiViper.GetString(apiHostKey),
			Port:              apiViper.GetUint(apiPortKey),
			Secret:            apiViper.GetString(apiSecretKey),
			Storage:           api.Memory,
			FileStoragePath:   apiViper.GetString(apiFileStoragePathKey),
			FileCacheSize:     apiViper.GetInt(apiFileCacheSizeKey),
			AgentCommand:      apiViper.GetStringSlice(apiAgentCommandKey),
			AgentWorkDir:      apiViper.GetString(apiAgentWorkDirKey),
			AgentImage:        apiViper.GetString(apiAgentImageKey),
			PullImage:         apiViper.GetBool(apiPullImageKey),
			DefaultModelName:  apiViper.GetString(apiModelNameKey),
			DefaultConfigPath: apiViper.GetString(apiConfigKey),
		}

		if apiViper.IsSet(apiFileStoragePathKey) {
			options.Storage = api.File
		}

		switch apiViper.GetString(apiExecutorKey) {
		case localExecutorName:
			options.Executor = api.Local
		case dockerExecutorName:
			options.Executor = api.Docker
		default:
			return fmt.Errorf(
				"invalid executor specified %q expecting one of [%s %s]",
				apiViper.GetString(apiExecutorKey),
				localExecutorName,
				dockerExecutorName,
			)
		}

		ctx := utils.ContextWithUserTermination(context.Background())

		err = api.Run(ctx, options)
		if err != nil {
			if err == context.Canceled {
				log.Info("interrupted by user")
				return nil
			}
			return err
		}
		return nil
	},
}

func init() {
	apiViper.SetDefault(apiHostKey, api.DefaultOptions.Host)
	_ = apiViper.BindEnv(apiHostKey, "SWEAGENT_API_HOST")
	apiCmd.Flags().String(
		apiHostKey,
		apiViper.GetString(apiHostKey),
		"The host to listen on",
	)

	apiViper.SetDefault(apiPortKey, api.DefaultOptions.Port)
	// "PORT" is the legacy environment variable used by container deployments
	_ = apiViper.BindEnv(apiPortKey, "SWEAGENT_API_PORT", "PORT")
	apiCmd.Flags().Uint(
		apiPortKey,
		apiViper.GetUint(apiPortKey),
		"The port to listen on",
	)

	apiViper.SetDefault(apiSecretKey, api.DefaultOptions.Secret)
	_ = apiViper.BindEnv(apiSecretKey, "SWEAGENT_API_SECRET")
	apiCmd.Flags().String(
		apiSecretKey,
		apiViper.GetString(apiSecretKey),
		"The secret used to sign run tokens, when unset runs can be stopped without a token",
	)

	_ = apiViper.BindEnv(apiFileStoragePathKey, "SWEAGENT_API_FILE_STORAGE_PATH")
	apiCmd.Flags().String(
		apiFileStoragePathKey,
		apiViper.GetString(apiFileStoragePathKey),
		"If provided, the service uses a file-based trajectory storage instead of "+
			"the default in-memory one with the provided file path as its location",
	)
	if !apiViper.IsSet(apiFileStoragePathKey) {
		apiCmd.Flags().Lookup(apiFileStoragePathKey).NoOptDefVal = api.DefaultOptions.FileStoragePath
	}

	apiViper.SetDefault(apiFileCacheSizeKey, api.DefaultOptions.FileCacheSize)
	_ = apiViper.BindEnv(apiFileCacheSizeKey, "SWEAGENT_API_TRAJECTORY_CACHE_SIZE")
	apiCmd.Flags().Int(
		apiFileCacheSizeKey,
		apiViper.GetInt(apiFileCacheSizeKey),
		"Number of finished trajectory files kept in the in-memory cache",
	)

	apiViper.SetDefault(apiExecutorKey, localExecutorName)
	_ = apiViper.BindEnv(apiExecutorKey, "SWEAGENT_API_EXECUTOR")
	apiCmd.Flags().String(
		apiExecutorKey,
		apiViper.GetString(apiExecutorKey),
		fmt.Sprintf("The agent executor as one of [%s %s]", localExecutorName, dockerExecutorName),
	)

	apiViper.SetDefault(apiAgentCommandKey, api.DefaultOptions.AgentCommand)
	_ = apiViper.BindEnv(apiAgentCommandKey, "SWEAGENT_API_AGENT_COMMAND")
	apiCmd.Flags().StringSlice(
		apiAgentCommandKey,
		apiViper.GetStringSlice(apiAgentCommandKey),
		"The command running the agent for each submitted problem",
	)

	apiViper.SetDefault(apiAgentWorkDirKey, api.DefaultOptions.AgentWorkDir)
	_ = apiViper.BindEnv(apiAgentWorkDirKey, "SWEAGENT_API_AGENT_WORK_DIR")
	apiCmd.Flags().String(
		apiAgentWorkDirKey,
		apiViper.GetString(apiAgentWorkDirKey),
		"Working directory of the local executor, trajectories are written under it",
	)

	apiViper.SetDefault(apiAgentImageKey, api.DefaultOptions.AgentImage)
	_ = apiViper.BindEnv(apiAgentImageKey, "SWEAGENT_API_AGENT_IMAGE")
	apiCmd.Flags().String(
		apiAgentImageKey,
		apiViper.GetString(apiAgentImageKey),
		"Container image used by the docker executor",
	)

	apiViper.SetDefault(apiPullImageKey, api.DefaultOptions.PullImage)
	_ = apiViper.BindEnv(apiPullImageKey, "SWEAGENT_API_PULL_IMAGE")
	apiCmd.Flags().Bool(
		apiPullImageKey,
		apiViper.GetBool(apiPullImageKey),
		"Pull the agent image before each run",
	)

	apiViper.SetDefault(apiModelNameKey, api.DefaultOptions.DefaultModelName)
	_ = apiViper.BindEnv(apiModelNameKey, "SWEAGENT_API_MODEL_NAME")
	apiCmd.Flags().String(
		apiModelNameKey,
		apiViper.GetString(apiModelNameKey),
		"Default model used when a submission doesn't specify one",
	)

	apiViper.SetDefault(apiConfigKey, api.DefaultOptions.DefaultConfigPath)
	_ = apiViper.BindEnv(apiConfigKey, "SWEAGENT_API_CONFIG")
	apiCmd.Flags().String(
		apiConfigKey,
		apiViper.GetString(apiConfigKey),
		"Default agent configuration file used when a submission doesn't specify one",
	)

	// Don't sort alphabetically, keep insertion order
	apiCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = apiViper.BindPFlags(apiCmd.Flags())
}
