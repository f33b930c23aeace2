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
	"github.com/spf13/cobra"
)

const (
	ChannelOptionName      = "channel"
	DirectionOptionName    = "direction"
	FifoOptionName         = "fifo"
	TransferSizeOptionName = "tsize"
	AddressOptionName      = "address"
	SizeOptionName         = "size"
	EnableOptionName       = "enable"
	StatusOptionName       = "status"
	ClearOptionName        = "clear"

	channelHelp = "Channel mask (hexadecimal, e.g. 0x0004) or name (e.g. ch3)"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Allocate, configure and inspect DMA channels",
	}
	cmd.AddCommand(NewAllocCommand())
	cmd.AddCommand(NewFreeCommand())
	cmd.AddCommand(NewActionCommand("enable", "enable", "Enable every channel of the mask"))
	cmd.AddCommand(NewActionCommand("disable", "disable", "Disable every channel of the mask"))
	cmd.AddCommand(NewActionCommand("clear-fifo", "clear_fifo", "Reset the FIFO of every channel of the mask"))
	cmd.AddCommand(NewConfigCommand())
	cmd.AddCommand(NewDDRStatusCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewListCommand())
	return cmd
}

func addChannelFlag(cmd *cobra.Command, channel *string) {
	cmd.Flags().StringVar(channel, ChannelOptionName, "", channelHelp)
	cmd.MarkFlagRequired(ChannelOptionName)
}
