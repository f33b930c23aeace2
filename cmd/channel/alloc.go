/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package channel

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-aadmac/pkg/command"
	"jinr.ru/greenlab/go-aadmac/pkg/config"
)

func NewAllocCommand() *cobra.Command {
	var channel string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Allocate the lowest free channel, or the lowest free of --channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			ch, err := apiClient.Alloc(channel)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Allocated channel: %s\n", ch)
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, ChannelOptionName, "", channelHelp)

	return cmd
}

func NewFreeCommand() *cobra.Command {
	var channel string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "free",
		Short: "Free the lowest channel of the mask",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.Free(channel)
		},
	}
	addChannelFlag(cmd, &channel)

	return cmd
}

// NewActionCommand creates a broadcast command, action is the API name of the operation
func NewActionCommand(use, action, short string) *cobra.Command {
	var channel string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.ChannelAction(channel, action)
		},
	}
	addChannelFlag(cmd, &channel)

	return cmd
}

func NewListCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List allocated channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			channels, err := apiClient.Channels()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Allocated: %s Free: %s\n", channels.Allocated, channels.Free)
			for _, name := range channels.Channels {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	return cmd
}
