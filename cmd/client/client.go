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
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiClient "github.com/sweagent/sweagent/clients/api"
	apiService "github.com/sweagent/sweagent/services/api"
)

// clientViper represents the configuration of the `sweagent client` command
var clientViper = viper.New()

const (
	clientURLKey                 = "url"
	clientConsoleOutputFormatKey = "console_output"
	clientTimeoutKey             = "timeout"
	defaultClientTimeout         = 30 * time.Second
)

// ClientCmd represents the `sweagent client` command
var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Run SWE-agent API client",
	Args:  cobra.NoArgs,
}

func makeClient() *apiClient.Client {
	return apiClient.NewClient(clientViper.GetString(clientURLKey))
}

func init() {
	clientViper.SetDefault(
		clientURLKey,
		fmt.Sprintf("http://localhost:%d", apiService.DefaultOptions.Port),
	)
	_ = clientViper.BindEnv(clientURLKey, "SWEAGENT_API_URL")
	ClientCmd.PersistentFlags().String(
		clientURLKey,
		clientViper.GetString(clientURLKey),
		"The API service URL",
	)

	clientViper.SetDefault(clientConsoleOutputFormatKey, string(text))
	_ = clientViper.BindEnv(clientConsoleOutputFormatKey, "SWEAGENT_CLIENT_CONSOLE_OUTPUT")
	ClientCmd.PersistentFlags().String(
		clientConsoleOutputFormatKey,
		clientViper.GetString(clientConsoleOutputFormatKey),
		fmt.Sprintf(
			"Set console output format as one of %v",
			expectedOutputFormats,
		),
	)

	clientViper.SetDefault(clientTimeoutKey, defaultClientTimeout)
	_ = clientViper.BindEnv(clientTimeoutKey, "SWEAGENT_CLIENT_TIMEOUT")
	ClientCmd.PersistentFlags().Duration(
		clientTimeoutKey,
		clientViper.GetDuration(clientTimeoutKey),
		"Timeout for the operation",
	)

	// Don't sort alphabetically, keep insertion order
	ClientCmd.PersistentFlags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = clientViper.BindPFlags(ClientCmd.PersistentFlags())

	// Add the client subcommands
	ClientCmd.AddCommand(healthCmd)
	ClientCmd.AddCommand(runCmd)
	ClientCmd.AddCommand(batchRunCmd)
	ClientCmd.AddCommand(stopCmd)
	ClientCmd.AddCommand(trajectoriesCmd)
	ClientCmd.AddCommand(trajectoryCmd)
}
