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

package ifc

import (
	"jinr.ru/greenlab/go-aadmac/pkg/srv/control"
)

type ApiClient interface {
	Channels() (*control.Channels, error)
	Alloc(channel string) (string, error)
	Free(channel string) error
	ChannelAction(channel, action string) error
	Configure(channel string, setup *control.ChannelSetup) error
	DDRStatus(channel, status string, clear bool) error
	Status(channel string) (*control.ChannelStatus, error)

	RegRead(addr string) (*control.RegHex, error)
	RegReadAll() ([]*control.RegHex, error)
	RegWrite(addr, value string) error
}
