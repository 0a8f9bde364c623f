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
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// trajectoriesViper represents the configuration of the `sweagent client trajectories` command
var trajectoriesViper = viper.New()

const (
	trajectoriesCountKey = "count"
	trajectoriesFromKey  = "from"
)

func init() {
	trajectoriesViper.SetDefault(trajectoriesCountKey, 10)
	trajectoriesCmd.Flags().Uint(
		trajectoriesCountKey,
		trajectoriesViper.GetUint(trajectoriesCountKey),
		"Maximum number of runs to retrieve",
	)

	trajectoriesViper.SetDefault(trajectoriesFromKey, 0)
	trajectoriesCmd.Flags().Uint(
		trajectoriesFromKey,
		trajectoriesViper.GetUint(trajectoriesFromKey),
		"Run index defining the first run to retrieve (use `next run index` retrieved from a previous call)",
	)

	// Don't sort alphabetically, keep insertion order
	trajectoriesCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = trajectoriesViper.BindPFlags(trajectoriesCmd.Flags())
}

// trajectoriesCmd represents the `sweagent client trajectories` command
var trajectoriesCmd = &cobra.Command{
	Use:     "trajectories",
	Aliases: []string{"list"},
	Short:   "List the stored agent runs",
	Args:    cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat()
		if err != nil {
			return err
		}

		runsCount := trajectoriesViper.GetUint(trajectoriesCountKey)
		if runsCount == 0 {
			return fmt.Errorf(
				"invalid argument \"--%s\" specified, expected a strictly positive number",
				trajectoriesCountKey,
			)
		}

		client := makeClient()

		fromRunIdx := int(trajectoriesViper.GetUint(trajectoriesFromKey))

		ctx, cancel := context.WithTimeout(context.Background(), clientViper.GetDuration(clientTimeoutKey))
		defer cancel()
		page, err := client.ListTrajectories(ctx, fromRunIdx, int(runsCount))
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("timeout [%v] exceeded", clientViper.GetDuration(clientTimeoutKey))
			}
			return err
		}

		switch consoleOutputFormat {
		case text:
			table := tablewriter.NewWriter(os.Stdout)
			table.SetBorder(false)
			table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)
			table.SetHeader([]string{
				"run id",
				"instance id",
				"status",
				"steps",
				"model",
				"submitted",
			})
			for _, run := range page.Runs {
				table.Append([]string{
					run.RunID,
					run.InstanceID,
					colorizeStatus(run.Status),
					fmt.Sprintf("%d", run.StepsCount),
					run.ModelName,
					humanize.Time(run.SubmittedAt),
				})
			}
			caption := fmt.Sprintf(
				"%d runs retrieved, next run index is <%d>",
				len(page.Runs),
				page.NextRunIdx,
			)
			table.SetCaption(true, caption)

			table.Render()
		case json:
			err := renderJSON(page)
			if err != nil {
				return err
			}
		}
		return nil
	},
}
