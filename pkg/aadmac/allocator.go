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
	"math/bits"
	"sync"
)

// Allocator owns the 16 channel slots of a block.
// Lowest free index wins.
type Allocator struct {
	mu    sync.Mutex
	slots uint16
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Reset frees every slot
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slots = 0
}

func (a *Allocator) alloc(candidates uint16) (Channel, bool) {
	free := ^a.slots & candidates
	if free == 0 {
		return ChVoid, false
	}
	i := bits.TrailingZeros16(free)
	a.slots |= 1 << i
	return Index(i).Channel(), true
}

// Alloc allocates the lowest free channel
func (a *Allocator) Alloc() (Channel, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.alloc(uint16(ChAll))
	if !ok {
		return ChVoid, ErrNoFreeChannel
	}
	return ch, nil
}

// AllocGiven allocates the lowest free channel among the requested ones.
// ChVoid means any channel.
func (a *Allocator) AllocGiven(req Channel) (Channel, error) {
	if req == ChVoid {
		return a.Alloc()
	}
	valid := req.Valid()
	if valid == ChVoid {
		return ChVoid, ErrInvalidChannel
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.alloc(uint16(valid))
	if !ok {
		return ChVoid, ErrChannelBusy
	}
	return ch, nil
}

// Free releases the lowest valid channel of the mask, other bits are left alone
func (a *Allocator) Free(ch Channel) error {
	idx, ok := ch.First()
	if !ok {
		return ErrInvalidChannel
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slots &^= 1 << idx
	return nil
}

// Allocated returns the mask of owned channels
func (a *Allocator) Allocated() Channel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Channel(a.slots)
}
