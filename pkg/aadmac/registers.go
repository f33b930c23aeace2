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

import (
	"fmt"

	"jinr.ru/greenlab/go-aadmac/pkg/regio"
)

type RegAlias int

const (
	RegCR1 RegAlias = iota
	RegCR2
	RegSR1
	RegExtendedWrap
	RegTS
	RegAliasLimit
)

// RegDef places a register family in the block window.
// Stride is in registers, Count is the number of instances.
type RegDef struct {
	Name   string
	Offset uint32
	Stride uint32
	Count  uint32
}

const (
	// ChannelStride is the size of one channel's CR1, CR2, SR1 group in registers
	ChannelStride = 3
	// TimestampStride ...
	TimestampStride = 1
	// WindowSize is the size of the block register window in bytes
	WindowSize = 0x0E0
)

var RegMap = map[RegAlias]RegDef{
	RegCR1:          {Name: "CR1", Offset: 0x000, Stride: ChannelStride, Count: NumChannels},
	RegCR2:          {Name: "CR2", Offset: 0x004, Stride: ChannelStride, Count: NumChannels},
	RegSR1:          {Name: "SR1", Offset: 0x008, Stride: ChannelStride, Count: NumChannels},
	RegExtendedWrap: {Name: "CH1_2_EXTENDED_WRAP", Offset: 0x0C0, Stride: 0, Count: 1},
	RegTS:           {Name: "TS", Offset: 0x0D0, Stride: TimestampStride, Count: NumTimestampChannels},
}

// OffsetOf returns the byte offset of the index-th instance of the register
func OffsetOf(alias RegAlias, index uint32) uint32 {
	def := RegMap[alias]
	return regio.IndexedOffset(def.Offset, index, def.Stride)
}

// Register is one named register of a dump
type Register struct {
	Name   string `json:"name"`
	Offset uint32 `json:"offset"`
	Value  uint32 `json:"value"`
}

// RegisterName returns the register name for offset, like CH3_CR2
func RegisterName(offset uint32) (string, bool) {
	for alias := RegAlias(0); alias < RegAliasLimit; alias++ {
		def := RegMap[alias]
		for i := uint32(0); i < def.Count; i++ {
			if OffsetOf(alias, i) != offset {
				continue
			}
			if def.Count == 1 {
				return def.Name, true
			}
			return fmt.Sprintf("CH%d_%s", i+1, def.Name), true
		}
	}
	return "", false
}

// RegisterOffsets returns every register offset of the window in ascending order
func RegisterOffsets() []uint32 {
	var offsets []uint32
	for offset := uint32(0); offset < WindowSize; offset += regio.RegSize {
		if _, ok := RegisterName(offset); ok {
			offsets = append(offsets, offset)
		}
	}
	return offsets
}

// CR1 fields
const (
	CR1BaseMask uint32 = 0xFFFFFFFC
)

// CR2 fields
const (
	CR2EnShift          = 0
	CR2EnMask    uint32 = 0x1 << CR2EnShift
	CR2InOutShift       = 1
	CR2InOutMask uint32 = 0x1 << CR2InOutShift

	CR2FifoChShift       = 2
	CR2FifoChMask uint32 = 0xF << CR2FifoChShift

	CR2TSizeShift       = 6
	CR2TSizeMask uint32 = 0x3F << CR2TSizeShift

	CR2FifoRstShift       = 12
	CR2FifoRstMask uint32 = 0x1 << CR2FifoRstShift

	CR2SWReadyLowShift        = 13
	CR2SWReadyLowMask  uint32 = 0x1 << CR2SWReadyLowShift
	CR2SWReadyHighShift       = 14
	CR2SWReadyHighMask uint32 = 0x1 << CR2SWReadyHighShift
	CR2SWReadyMask            = CR2SWReadyLowMask | CR2SWReadyHighMask

	CR2WrapShift       = 16
	CR2WrapMask uint32 = 0xFFFF << CR2WrapShift
)

// SR1 fields
const (
	SR1HWReadyLowShift        = 0
	SR1HWReadyLowMask  uint32 = 0x1 << SR1HWReadyLowShift
	SR1HWReadyHighShift       = 1
	SR1HWReadyHighMask uint32 = 0x1 << SR1HWReadyHighShift
	SR1HWReadyMask            = SR1HWReadyLowMask | SR1HWReadyHighMask

	SR1RequestCountShift       = 4
	SR1RequestCountMask uint32 = 0xFF << SR1RequestCountShift

	SR1CurrentMemPntrShift       = 16
	SR1CurrentMemPntrMask uint32 = 0xFFFF << SR1CurrentMemPntrShift
)

// CH1_2_EXTENDED_WRAP fields
const (
	ExtWrapCh1Shift       = 0
	ExtWrapCh1Mask uint32 = 0xFF << ExtWrapCh1Shift
	ExtWrapCh2Shift       = 8
	ExtWrapCh2Mask uint32 = 0xFF << ExtWrapCh2Shift

	// high wrap bits held by the extended register
	extWrapBits  = 8
	extWrapShift = 16
)
