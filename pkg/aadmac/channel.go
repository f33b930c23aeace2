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
	"math/bits"
	"strconv"
	"strings"
)

const (
	NumChannels          = 16
	NumTimestampChannels = 4
	MaxWrapSize          = 0x10000
	MaxExtendedWrapSize  = 0x1000000
)

// Channel is a bitmask of DMA channels, bit i is the channel with index i
type Channel uint32

const (
	ChVoid Channel = 0
	Ch1    Channel = 1 << (iota - 1)
	Ch2
	Ch3
	Ch4
	Ch5
	Ch6
	Ch7
	Ch8
	Ch9
	Ch10
	Ch11
	Ch12
	Ch13
	Ch14
	Ch15
	Ch16
	ChAll Channel = 1<<NumChannels - 1
)

// Valid returns the part of the mask naming real channels
func (ch Channel) Valid() Channel {
	return ch & ChAll
}

// First returns the index of the lowest valid channel of the mask
func (ch Channel) First() (Index, bool) {
	valid := ch.Valid()
	if valid == ChVoid {
		return 0, false
	}
	return Index(bits.TrailingZeros32(uint32(valid))), true
}

// FirstTimestamp returns the lowest channel of the mask that has a timestamp register.
// Only the lowest valid channel is considered, it must be one of Ch1..Ch4.
func (ch Channel) FirstTimestamp() (TimestampIndex, bool) {
	idx, ok := ch.First()
	if !ok || idx >= NumTimestampChannels {
		return 0, false
	}
	return TimestampIndex(idx), true
}

// Indexes returns the indexes of all valid channels of the mask in ascending order
func (ch Channel) Indexes() []Index {
	valid := uint32(ch.Valid())
	indexes := make([]Index, 0, bits.OnesCount32(valid))
	for valid != 0 {
		i := bits.TrailingZeros32(valid)
		indexes = append(indexes, Index(i))
		valid &^= 1 << i
	}
	return indexes
}

// String returns hardware names like "CH1|CH3"
func (ch Channel) String() string {
	if ch == ChVoid {
		return "VOID"
	}
	var names []string
	for _, idx := range ch.Indexes() {
		names = append(names, idx.String())
	}
	if rest := ch &^ ChAll; rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// Hex formats the mask the way the API transfers it
func (ch Channel) Hex() string {
	return fmt.Sprintf("0x%04x", uint32(ch))
}

// ParseChannel accepts a hex mask (0x0004), a decimal mask or a hardware name (ch3, CH3)
func ParseChannel(s string) (Channel, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "ch") {
		n, err := strconv.Atoi(lower[2:])
		if err != nil || n < 1 || n > NumChannels {
			return ChVoid, fmt.Errorf("%w: %s", ErrInvalidChannel, s)
		}
		return Index(n - 1).Channel(), nil
	}
	v, err := strconv.ParseUint(lower, 0, 16)
	if err != nil {
		return ChVoid, fmt.Errorf("%w: %s", ErrInvalidChannel, s)
	}
	return Channel(v), nil
}

// Index is a channel number 0..15
type Index uint8

// Channel returns the single bit mask of the index
func (i Index) Channel() Channel {
	if i >= NumChannels {
		return ChVoid
	}
	return Channel(1) << i
}

// Extended reports whether the channel has high wrap bits in the shared extended wrap register
func (i Index) Extended() bool {
	return i == 0 || i == 1
}

// MaxWrapSize returns the largest circular buffer the channel can address
func (i Index) MaxWrapSize() uint32 {
	if i.Extended() {
		return MaxExtendedWrapSize
	}
	return MaxWrapSize
}

func (i Index) String() string {
	return fmt.Sprintf("CH%d", int(i)+1)
}

// TimestampIndex is the index of a channel with timestamp hardware, 0..3
type TimestampIndex uint8

// Fifo is a bitmask of the 16 source/sink CFIFOs
type Fifo uint32

const (
	FifoVoid Fifo = 0
	FifoAll  Fifo = 1<<NumChannels - 1
)

// Index returns the lowest FIFO of the mask, which is what CR2 FIFO_CH holds
func (f Fifo) Index() (uint32, bool) {
	valid := f & FifoAll
	if valid == FifoVoid {
		return 0, false
	}
	return uint32(bits.TrailingZeros32(uint32(valid))), true
}

// FifoFromIndex ...
func FifoFromIndex(i uint32) Fifo {
	if i >= NumChannels {
		return FifoVoid
	}
	return Fifo(1) << i
}

// Direction of the transfer as seen from memory
type Direction uint32

const (
	DirIn  Direction = 0
	DirOut Direction = 1
)

func (d Direction) String() string {
	if d == DirOut {
		return "out"
	}
	return "in"
}

// ParseDirection ...
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "in", "0":
		return DirIn, nil
	case "out", "1":
		return DirOut, nil
	}
	return DirIn, fmt.Errorf("unknown direction: %s", s)
}

// FifoStatus is a pair of low/high ready flags
type FifoStatus uint32

const (
	ReadyNone FifoStatus = 0
	ReadyLow  FifoStatus = 1
	ReadyHigh FifoStatus = 2
	ReadyBoth FifoStatus = 3
)

var fifoStatusNames = map[FifoStatus]string{
	ReadyNone: "none",
	ReadyLow:  "low",
	ReadyHigh: "high",
	ReadyBoth: "both",
}

func (s FifoStatus) String() string {
	if name, ok := fifoStatusNames[s&ReadyBoth]; ok {
		return name
	}
	return "none"
}

// ParseFifoStatus ...
func ParseFifoStatus(s string) (FifoStatus, error) {
	for status, name := range fifoStatusNames {
		if strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return ReadyNone, fmt.Errorf("unknown ready status: %s", s)
}

// ReadyStatusMode selects how a software ready status is written to CR2
type ReadyStatusMode int

const (
	// ReadyCompat ORs a non-none status in at the low ready bit, so a written
	// status never clears a flag that is already set
	ReadyCompat ReadyStatusMode = iota
	// ReadyExact replaces both ready flags with the status
	ReadyExact
)

func (m ReadyStatusMode) String() string {
	if m == ReadyExact {
		return "exact"
	}
	return "compat"
}

// ParseReadyStatusMode accepts compat, exact or an empty string meaning compat
func ParseReadyStatusMode(s string) (ReadyStatusMode, error) {
	switch strings.ToLower(s) {
	case "", "compat":
		return ReadyCompat, nil
	case "exact":
		return ReadyExact, nil
	}
	return ReadyCompat, fmt.Errorf("unknown ready status mode: %s", s)
}
