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

package aadmac

// ChannelConfig is everything needed to start a channel
type ChannelConfig struct {
	Direction Direction
	Fifo      Fifo
	// TransferSize is the number of bytes moved per DMA request
	TransferSize uint8
	Address      uint32
	Size         uint32
	Enable       bool
}

// ChannelStatus is a snapshot of the decoded registers of one channel
type ChannelStatus struct {
	Channel        Channel
	Enabled        bool
	Direction      Direction
	Fifo           Fifo
	TransferSize   uint32
	Address        uint32
	WrapSize       uint32
	SWReady        FifoStatus
	HWReady        FifoStatus
	RequestCount   uint8
	CurrentPointer uint16
	// HasTimestamp is false for channels without timestamp hardware
	HasTimestamp bool
	Timestamp    uint32
}

func decodeStatus(idx Index, cr1, cr2, sr1, ext uint32) ChannelStatus {
	return ChannelStatus{
		Channel:        idx.Channel(),
		Enabled:        decodeEnabled(cr2),
		Direction:      decodeDirection(cr2),
		Fifo:           decodeFifo(cr2),
		TransferSize:   decodeTransferSize(cr2),
		Address:        decodeBase(cr1),
		WrapSize:       decodeWrap(idx, cr2, ext),
		SWReady:        decodeSWReady(cr2),
		HWReady:        decodeHWReady(sr1),
		RequestCount:   decodeRequestCount(sr1),
		CurrentPointer: decodeCurrentPointer(sr1),
	}
}
