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

package reg

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-aadmac/pkg/command"
	"jinr.ru/greenlab/go-aadmac/pkg/config"
)

func NewReadCommand() *cobra.Command {
	var addr string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read value from register, all registers if --addr is not given",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			out := cmd.OutOrStdout()
			if addr != "" {
				reg, err := apiClient.RegRead(addr)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Register state: %s %s = %s\n", reg.Addr, reg.Name, reg.Value)
				return nil
			}
			regs, err := apiClient.RegReadAll()
			if err != nil {
				return err
			}
			for _, reg := range regs {
				fmt.Fprintf(out, "Register state: %s %-20s = %s\n", reg.Addr, reg.Name, reg.Value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, AddrOptionName, "", "Register offset inside the block (hexadecimal)")

	return cmd
}

func NewWriteCommand() *cobra.Command {
	var addr, value string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write value to register",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.RegWrite(addr, value)
		},
	}
	cmd.Flags().StringVar(&addr, AddrOptionName, "", "Register offset inside the block (hexadecimal)")
	cmd.MarkFlagRequired(AddrOptionName)
	cmd.Flags().StringVar(&value, ValueOptionName, "", "Register value (hexadecimal)")
	cmd.MarkFlagRequired(ValueOptionName)

	return cmd
}
