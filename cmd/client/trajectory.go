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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

// trajectoryViper represents the configuration of the `sweagent client trajectory` command
var trajectoryViper = viper.New()

const trajectoryFullKey = "full"

func init() {
	trajectoryViper.SetDefault(trajectoryFullKey, false)
	trajectoryCmd.Flags().Bool(
		trajectoryFullKey,
		trajectoryViper.GetBool(trajectoryFullKey),
		"Retrieve the full trajectory including the agent output steps",
	)

	// Don't sort alphabetically, keep insertion order
	trajectoryCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = trajectoryViper.BindPFlags(trajectoryCmd.Flags())
}

// trajectoryCmd represents the `sweagent client trajectory` command
var trajectoryCmd = &cobra.Command{
	Use:   "trajectory <run_id>",
	Short: "Retrieve one agent run",
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

		if trajectoryViper.GetBool(trajectoryFullKey) {
			file, err := client.GetTrajectoryFile(ctx, runID)
			if err != nil {
				if ctx.Err() == context.DeadlineExceeded {
					return fmt.Errorf("timeout [%v] exceeded", clientViper.GetDuration(clientTimeoutKey))
				}
				return err
			}

			switch consoleOutputFormat {
			case text:
				printRun(file.Run)
				for _, step := range file.Steps {
					fmt.Printf("[%s] %s\n", step.Source, step.Content)
				}
			case json:
				err := renderJSON(file)
				if err != nil {
					return err
				}
			}
			return nil
		}

		record, err := client.GetTrajectory(ctx, runID)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("timeout [%v] exceeded", clientViper.GetDuration(clientTimeoutKey))
			}
			return err
		}

		switch consoleOutputFormat {
		case text:
			printRun(record)
		case json:
			err := renderJSON(record)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func printRun(record *trajectory.RunRecord) {
	fmt.Printf("run <%s> instance <%s> is %s\n", record.RunID, record.InstanceID, colorizeStatus(record.Status))
	fmt.Printf("  submitted %s, %d steps\n", humanize.Time(record.SubmittedAt), record.StepsCount)
	if record.Result != "" {
		fmt.Printf("  %s\n", record.Result)
	}
}
