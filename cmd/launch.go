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

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweagent/sweagent/launcher"
)

// launchViper represents the configuration of the launch command
var launchViper = viper.New()

const launchQuietKey = "quiet"

// launchCmd represents the launch command
var launchCmd = &cobra.Command{
	Use:   "launch <filename> [args...]",
	Short: "Launch the processes of an agent deployment",
	Long: "Launch the processes described by the provided yaml definition file, " +
		"respecting their dependencies and readiness conditions.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(_cmd *cobra.Command, args []string) error {
		return launcher.Launch(args, launchViper.GetInt(launchQuietKey))
	},
}

func init() {
	launchViper.SetDefault(launchQuietKey, 0)
	_ = launchViper.BindEnv(launchQuietKey, "SWEAGENT_LAUNCH_QUIET")
	launchCmd.Flags().CountP(
		launchQuietKey,
		"q",
		"Decrease launcher output (can be repeated)",
	)

	// Don't sort alphabetically, keep insertion order
	launchCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = launchViper.BindPFlags(launchCmd.Flags())
}
