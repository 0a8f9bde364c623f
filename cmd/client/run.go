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

package client

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiClient "github.com/sweagent/sweagent/clients/api"
)

// runViper represents the configuration of the `sweagent client run` command
var runViper = viper.New()

const (
	runInstanceIDKey = "instance_id"
	runRepoKey       = "repo"
	runModelNameKey  = "model_name"
	runConfigKey     = "config"
)

func init() {
	runViper.SetDefault(runInstanceIDKey, "")
	runCmd.Flags().String(
		runInstanceIDKey,
		runViper.GetString(runInstanceIDKey),
		"Instance identifier of the problem, defaults to the run id",
	)

	runViper.SetDefault(runRepoKey, "")
	runCmd.Flags().String(
		runRepoKey,
		runViper.GetString(runRepoKey),
		"Repository the agent works on (url or local path)",
	)

	runViper.SetDefault(runModelNameKey, "")
	runCmd.Flags().String(
		runModelNameKey,
		runViper.GetString(runModelNameKey),
		"Model used by the agent",
	)

	runViper.SetDefault(runConfigKey, "")
	runCmd.Flags().String(
		runConfigKey,
		runViper.GetString(runConfigKey),
		"Agent configuration file",
	)

	// Don't sort alphabetically, keep insertion order
	runCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = runViper.BindPFlags(runCmd.Flags())
}

// runCmd represents the `sweagent client run` command
var runCmd = &cobra.Command{
	Use:   "run <problem statement>",
	Short: "Submit an agent run",
	Args:  cobra.ExactArgs(1),
	RunE: func(_cmd *cobra.Command, args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat()
		if err != nil {
			return err
		}

		client := makeClient()

		ctx, cancel := context.WithTimeout(context.Background(), clientViper.GetDuration(clientTimeoutKey))
		defer cancel()
		accepted, err := client.SubmitRun(ctx, apiClient.RunSubmission{
			ProblemStatement: args[0],
			InstanceID:       runViper.GetString(runInstanceIDKey),
			Repo:             runViper.GetString(runRepoKey),
			ModelName:        runViper.GetString(runModelNameKey),
			Config:           runViper.GetString(runConfigKey),
		})
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("timeout [%v] exceeded", clientViper.GetDuration(clientTimeoutKey))
			}
			return err
		}

		switch consoleOutputFormat {
		case text:
			fmt.Printf("run <%s> submitted\n", accepted.RunID)
			if accepted.Token != "" {
				fmt.Printf("run token <%s>\n", accepted.Token)
			}
		case json:
			err := renderJSON(accepted)
			if err != nil {
				return err
			}
		}
		return nil
	},
}
