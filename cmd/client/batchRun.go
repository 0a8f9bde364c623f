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
	jsonEncoding "encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiClient "github.com/sweagent/sweagent/clients/api"
)

// batchRunViper represents the configuration of the `sweagent client batch_run` command
var batchRunViper = viper.New()

func init() {
	// Don't sort alphabetically, keep insertion order
	batchRunCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = batchRunViper.BindPFlags(batchRunCmd.Flags())
}

// batchRunCmd represents the `sweagent client batch_run` command
var batchRunCmd = &cobra.Command{
	Use:     "batch_run <filename>",
	Aliases: []string{"batch"},
	Short:   "Submit a batch of agent runs from a json file",
	Long: "Submit a batch of agent runs, the provided json file holds an array of " +
		"submissions with at least a \"problem_statement\" field each.",
	Args: cobra.ExactArgs(1),
	RunE: func(_cmd *cobra.Command, args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat()
		if err != nil {
			return err
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var submissions []apiClient.RunSubmission
		if err := jsonEncoding.Unmarshal(content, &submissions); err != nil {
			return fmt.Errorf("unable to parse %q: %w", args[0], err)
		}

		client := makeClient()

		ctx, cancel := context.WithTimeout(context.Background(), clientViper.GetDuration(clientTimeoutKey))
		defer cancel()
		result, err := client.SubmitBatchRun(ctx, submissions)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("timeout [%v] exceeded", clientViper.GetDuration(clientTimeoutKey))
			}
			return err
		}

		switch consoleOutputFormat {
		case text:
			fmt.Printf("%d runs submitted\n", result.Total)
			for _, item := range result.Results {
				if item.Error != "" {
					fmt.Printf("  <%s> rejected: %s\n", item.InstanceID, item.Error)
					continue
				}
				fmt.Printf("  <%s> run <%s>\n", item.InstanceID, item.RunID)
			}
		case json:
			err := renderJSON(result)
			if err != nil {
				return err
			}
		}
		return nil
	},
}
