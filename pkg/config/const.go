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

package config

import "time"

const (
	ConfigDir  = ".go-aadmac"
	ConfigFile = "config"

	DefaultLogLevel       = "info"
	DefaultControlIP      = "127.0.0.1"
	DefaultControlPort    = 8010
	DefaultBlockName      = "aadmac"
	DefaultBlockBase      = "0x00000000"
	DefaultReadyMode      = ReadyModeCompat
	DefaultPortKind       = PortKindBolt
	DefaultDBFile         = "registers.db"
	DefaultDevicePath     = "/dev/uio0"
	DefaultDeviceIP       = "192.168.1.10"
	DefaultDevicePort     = 33300
	DefaultTimeout        = time.Second
	DefaultTimeoutSetting = "1s"
)

const (
	ReadyModeCompat = "compat"
	ReadyModeExact  = "exact"
)

const (
	PortKindMemory = "memory"
	PortKindFile   = "file"
	PortKindBolt   = "bolt"
	PortKindMLink  = "mlink"
)
