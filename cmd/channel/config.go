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
	"jinr.ru/greenlab/go-aadmac/pkg/srv/control"
)

func NewConfigCommand() *cobra.Command {
	var channel string
	setup := &control.ChannelSetup{}
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Program direction, FIFO route, transfer size and buffer of a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.Configure(channel, setup)
		},
	}
	addChannelFlag(cmd, &channel)
	cmd.Flags().StringVar(&setup.Direction, DirectionOptionName, "in", "Transfer direction: in or out")
	cmd.Flags().StringVar(&setup.Fifo, FifoOptionName, "", "FIFO mask (hexadecimal), the lowest FIFO is used")
	cmd.MarkFlagRequired(FifoOptionName)
	cmd.Flags().Uint8Var(&setup.TransferSize, TransferSizeOptionName, 4, "Bytes per DMA request")
	cmd.Flags().StringVar(&setup.Address, AddressOptionName, "", "Buffer address (hexadecimal)")
	cmd.MarkFlagRequired(AddressOptionName)
	cmd.Flags().StringVar(&setup.Size, SizeOptionName, "", "Buffer size in bytes (hexadecimal or decimal)")
	cmd.MarkFlagRequired(SizeOptionName)
	cmd.Flags().BoolVar(&setup.Enable, EnableOptionName, false, "Enable the channel after configuring")

	return cmd
}

func NewDDRStatusCommand() *cobra.Command {
	var channel, status string
	var clear bool
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "ddr-status",
		Short: "Set software DDR FIFO ready status or clear hardware ready flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.DDRStatus(channel, status, clear)
		},
	}
	addChannelFlag(cmd, &channel)
	cmd.Flags().StringVar(&status, StatusOptionName, "", "Ready status: none, low, high or both")
	cmd.MarkFlagRequired(StatusOptionName)
	cmd.Flags().BoolVar(&clear, ClearOptionName, false, "Acknowledge hardware ready flags not named by --status")

	return cmd
}

func NewStatusCommand() *cobra.Command {
	var channel string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show decoded registers of a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			st, err := apiClient.Status(channel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Channel:         %s\n", st.Channel)
			fmt.Fprintf(out, "Enabled:         %t\n", st.Enabled)
			fmt.Fprintf(out, "Direction:       %s\n", st.Direction)
			fmt.Fprintf(out, "FIFO:            %s\n", st.Fifo)
			fmt.Fprintf(out, "Transfer size:   %d\n", st.TransferSize)
			fmt.Fprintf(out, "Address:         %s\n", st.Address)
			fmt.Fprintf(out, "Wrap size:       %s\n", st.WrapSize)
			fmt.Fprintf(out, "SW ready:        %s\n", st.SWReady)
			fmt.Fprintf(out, "HW ready:        %s\n", st.HWReady)
			fmt.Fprintf(out, "Request count:   %d\n", st.RequestCount)
			fmt.Fprintf(out, "Current pointer: %s\n", st.CurrentPointer)
			if st.Timestamp != "" {
				fmt.Fprintf(out, "Timestamp:       %s\n", st.Timestamp)
			}
			return nil
		},
	}
	addChannelFlag(cmd, &channel)

	return cmd
}
