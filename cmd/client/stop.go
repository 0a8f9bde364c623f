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
)

// stopViper represents the configuration of the `sweagent client stop` command
var stopViper = viper.New()

const stopTokenKey = "token"

type stopOutput struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

func init() {
	stopViper.SetDefault(stopTokenKey, "")
	_ = stopViper.BindEnv(stopTokenKey, "SWEAGENT_RUN_TOKEN")
	stopCmd.Flags().String(
		stopTokenKey,
		stopViper.GetString(stopTokenKey),
		"Run token returned on submission, required when the service enforces one",
	)

	// Don't sort alphabetically, keep insertion order
	stopCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = stopViper.BindPFlags(stopCmd.Flags())
}

// stopCmd represents the `sweagent client stop` command
var stopCmd = &cobra.Command{
	Use:   "stop <run_id>",
	Short: "Stop a running agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(_cmd *cobra.Command, args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat()
		if err != nil {
			return err
		}

		client := makeClient()
		runID := args[0]

		ctx, cancel := context.WithTimeout(context.Background(), clientViper.GetDuration(clientTimeoutKey))
		defer cancel()
		err = client.StopRun(ctx, runID, stopViper.GetString(stopTokenKey))
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("timeout [%v] exceeded", clientViper.GetDuration(clientTimeoutKey))
			}
			return err
		}

		output := stopOutput{
			Message: fmt.Sprintf("run <%s> stopping", runID),
			RunID:   runID,
		}

		switch consoleOutputFormat {
		case text:
			fmt.Println(output.Message)
		case json:
			err := renderJSON(output)
			if err != nil {
				return err
			}
		}
		return nil
	},
}
