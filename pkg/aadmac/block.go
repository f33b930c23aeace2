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
	"sync"

	"jinr.ru/greenlab/go-aadmac/pkg/log"
	"jinr.ru/greenlab/go-aadmac/pkg/regio"
)

// Block is one initialized AADMAC block bound to a register window
type Block struct {
	mu          sync.Mutex
	port        regio.Port
	base        uint32
	initialized bool
	mode        ReadyStatusMode
	allocator   *Allocator
}

type Option func(*Block)

// WithReadyStatusMode selects how SetDDRFifoStatus writes ready flags
func WithReadyStatusMode(mode ReadyStatusMode) Option {
	return func(b *Block) {
		b.mode = mode
	}
}

// Init binds a block to the register window at base with every channel free
func Init(port regio.Port, base uint32, opts ...Option) *Block {
	b := &Block{
		port:        port,
		base:        base,
		initialized: true,
		mode:        ReadyCompat,
		allocator:   NewAllocator(),
	}
	for _, opt := range opts {
		opt(b)
	}
	log.Debug("AADMAC block initialized: base: 0x%08x ready mode: %s", base, b.mode)
	return b
}

// Deinit frees every channel and clears the base. It can be called more than once.
func (b *Block) Deinit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allocator.Reset()
	b.base = 0
	b.initialized = false
}

func (b *Block) Base() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.base
}

func (b *Block) ReadyStatusMode() ReadyStatusMode {
	return b.mode
}

func (b *Block) checkInit() error {
	if !b.initialized {
		return ErrNotInitialized
	}
	return nil
}

func (b *Block) Alloc() (Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return ChVoid, err
	}
	return b.allocator.Alloc()
}

func (b *Block) AllocGiven(req Channel) (Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return ChVoid, err
	}
	return b.allocator.AllocGiven(req)
}

func (b *Block) Free(ch Channel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return err
	}
	return b.allocator.Free(ch)
}

func (b *Block) Allocated() (Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return ChVoid, err
	}
	return b.allocator.Allocated(), nil
}

// resolve picks the single target of a channel mask. Callers hold b.mu.
func (b *Block) resolve(ch Channel) (Index, error) {
	if err := b.checkInit(); err != nil {
		return 0, err
	}
	idx, ok := ch.First()
	if !ok {
		return 0, ErrInvalidChannel
	}
	return idx, nil
}

// resolveAll picks every target of a broadcast mask. Callers hold b.mu.
func (b *Block) resolveAll(ch Channel) ([]Index, error) {
	if err := b.checkInit(); err != nil {
		return nil, err
	}
	indexes := ch.Indexes()
	if len(indexes) == 0 {
		return nil, ErrInvalidChannel
	}
	return indexes, nil
}

func (b *Block) read(alias RegAlias, index uint32) (uint32, error) {
	def := RegMap[alias]
	value, err := regio.ReadIndexed(b.port, b.base, def.Offset, index, def.Stride)
	if err != nil {
		return 0, fmt.Errorf("read %s[%d]: %w", def.Name, index, err)
	}
	return value, nil
}

func (b *Block) write(alias RegAlias, index uint32, value uint32) error {
	def := RegMap[alias]
	log.Debug("Write %s[%d]: 0x%08x", def.Name, index, value)
	if err := regio.WriteIndexed(b.port, b.base, def.Offset, index, def.Stride, value); err != nil {
		return fmt.Errorf("write %s[%d]: %w", def.Name, index, err)
	}
	return nil
}

func (b *Block) modify(alias RegAlias, index uint32, f func(uint32) uint32) error {
	value, err := b.read(alias, index)
	if err != nil {
		return err
	}
	return b.write(alias, index, f(value))
}

func (b *Block) modifyCR2(ch Channel, op string, f func(uint32) uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, err := b.resolve(ch)
	if err != nil {
		return err
	}
	if err = b.modify(RegCR2, uint32(idx), f); err != nil {
		return fmt.Errorf("%s %s: %w", op, idx, err)
	}
	return nil
}

func (b *Block) SetDirection(ch Channel, dir Direction) error {
	return b.modifyCR2(ch, "set direction", func(cr2 uint32) uint32 {
		return encodeDirection(cr2, dir)
	})
}

// SetFifo routes the channel to the lowest FIFO of the mask
func (b *Block) SetFifo(ch Channel, fifo Fifo) error {
	fifoIndex, ok := fifo.Index()
	if !ok {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, err := b.resolve(ch); err != nil {
			return err
		}
		return ErrInvalidFifo
	}
	return b.modifyCR2(ch, "set fifo", func(cr2 uint32) uint32 {
		return encodeFifo(cr2, fifoIndex)
	})
}

// SetTransferSize sets the number of bytes moved per request, rounded down to whole words
func (b *Block) SetTransferSize(ch Channel, bytes uint8) error {
	return b.modifyCR2(ch, "set transfer size", func(cr2 uint32) uint32 {
		return encodeTransferSize(cr2, bytes)
	})
}

// SetBuffer programs the circular buffer of the channel.
// Size is clamped to the channel maximum, CH1 and CH2 keep bits 16..23
// of the size in the shared extended wrap register. The extended path is
// chosen by the lowest channel of the mask, so Ch2|Ch5 programs CH2 with
// its extended bits. A size of 0 reads back as the channel maximum in Status.
func (b *Block) SetBuffer(ch Channel, addr, size uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, err := b.resolve(ch)
	if err != nil {
		return err
	}
	size = clampWrap(idx, size)
	if err = b.write(RegCR1, uint32(idx), encodeBase(addr)); err != nil {
		return fmt.Errorf("set buffer %s: %w", idx, err)
	}
	if err = b.modify(RegCR2, uint32(idx), func(cr2 uint32) uint32 {
		return encodeWrap(cr2, size)
	}); err != nil {
		return fmt.Errorf("set buffer %s: %w", idx, err)
	}
	if !idx.Extended() {
		return nil
	}
	if err = b.modify(RegExtendedWrap, 0, func(ext uint32) uint32 {
		return encodeExtendedWrap(ext, idx, size)
	}); err != nil {
		return fmt.Errorf("set buffer %s: %w", idx, err)
	}
	return nil
}

func (b *Block) SetDDRFifoStatus(ch Channel, status FifoStatus) error {
	return b.modifyCR2(ch, "set ddr fifo status", func(cr2 uint32) uint32 {
		return encodeSWReady(cr2, status, b.mode)
	})
}

// ClearDDRFifoStatus acknowledges the hardware ready flags not named by status
func (b *Block) ClearDDRFifoStatus(ch Channel, status FifoStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, err := b.resolve(ch)
	if err != nil {
		return err
	}
	if err = b.write(RegSR1, uint32(idx), hwReadyClearValue(status)); err != nil {
		return fmt.Errorf("clear ddr fifo status %s: %w", idx, err)
	}
	return nil
}

func (b *Block) broadcast(ch Channel, op string, f func(idx Index) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	indexes, err := b.resolveAll(ch)
	if err != nil {
		return err
	}
	for _, idx := range indexes {
		if err = f(idx); err != nil {
			return fmt.Errorf("%s %s: %w", op, idx, err)
		}
	}
	return nil
}

// Enable sets the enable bit of every channel of the mask
func (b *Block) Enable(ch Channel) error {
	return b.broadcast(ch, "enable", func(idx Index) error {
		return b.modify(RegCR2, uint32(idx), func(cr2 uint32) uint32 {
			return encodeEnable(cr2, true)
		})
	})
}

// Disable clears the enable bit of every channel of the mask
func (b *Block) Disable(ch Channel) error {
	return b.broadcast(ch, "disable", func(idx Index) error {
		return b.modify(RegCR2, uint32(idx), func(cr2 uint32) uint32 {
			return encodeEnable(cr2, false)
		})
	})
}

// ClearChannelFifo pulses FIFO_RST 0, 1, 0 on every channel of the mask
func (b *Block) ClearChannelFifo(ch Channel) error {
	return b.broadcast(ch, "clear channel fifo", func(idx Index) error {
		for _, on := range []bool{false, true, false} {
			if err := b.modify(RegCR2, uint32(idx), func(cr2 uint32) uint32 {
				return encodeFifoReset(cr2, on)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Block) readChannel(ch Channel, alias RegAlias, op string) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, err := b.resolve(ch)
	if err != nil {
		return 0, err
	}
	value, err := b.read(alias, uint32(idx))
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", op, idx, err)
	}
	return value, nil
}

func (b *Block) SWReady(ch Channel) (FifoStatus, error) {
	cr2, err := b.readChannel(ch, RegCR2, "read sw ready")
	if err != nil {
		return ReadyNone, err
	}
	return decodeSWReady(cr2), nil
}

func (b *Block) HWReady(ch Channel) (FifoStatus, error) {
	sr1, err := b.readChannel(ch, RegSR1, "read hw ready")
	if err != nil {
		return ReadyNone, err
	}
	return decodeHWReady(sr1), nil
}

// RequestCount returns the number of outstanding DMA requests
func (b *Block) RequestCount(ch Channel) (uint8, error) {
	sr1, err := b.readChannel(ch, RegSR1, "read request count")
	if err != nil {
		return 0, err
	}
	return decodeRequestCount(sr1), nil
}

// CurrentPointer returns the position of the hardware inside the circular buffer
func (b *Block) CurrentPointer(ch Channel) (uint16, error) {
	sr1, err := b.readChannel(ch, RegSR1, "read current pointer")
	if err != nil {
		return 0, err
	}
	return decodeCurrentPointer(sr1), nil
}

// Timestamp is only available for CH1..CH4
func (b *Block) Timestamp(ch Channel) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return 0, err
	}
	tsIdx, ok := ch.FirstTimestamp()
	if !ok {
		return 0, ErrInvalidChannel
	}
	ts, err := b.read(RegTS, uint32(tsIdx))
	if err != nil {
		return 0, fmt.Errorf("read timestamp %s: %w", Index(tsIdx), err)
	}
	return ts, nil
}

// Configure programs direction, FIFO route, transfer size and buffer of a channel
// and enables it if asked to
func (b *Block) Configure(ch Channel, cfg ChannelConfig) error {
	if err := b.SetDirection(ch, cfg.Direction); err != nil {
		return err
	}
	if err := b.SetFifo(ch, cfg.Fifo); err != nil {
		return err
	}
	if err := b.SetTransferSize(ch, cfg.TransferSize); err != nil {
		return err
	}
	if err := b.SetBuffer(ch, cfg.Address, cfg.Size); err != nil {
		return err
	}
	if !cfg.Enable {
		return nil
	}
	idx, _ := ch.First()
	return b.Enable(idx.Channel())
}

// Status reads every register of the channel once and decodes them
func (b *Block) Status(ch Channel) (ChannelStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, err := b.resolve(ch)
	if err != nil {
		return ChannelStatus{}, err
	}
	i := uint32(idx)
	regs := make(map[RegAlias]uint32)
	for _, alias := range []RegAlias{RegCR1, RegCR2, RegSR1} {
		if regs[alias], err = b.read(alias, i); err != nil {
			return ChannelStatus{}, fmt.Errorf("status %s: %w", idx, err)
		}
	}
	if idx.Extended() {
		if regs[RegExtendedWrap], err = b.read(RegExtendedWrap, 0); err != nil {
			return ChannelStatus{}, fmt.Errorf("status %s: %w", idx, err)
		}
	}
	status := decodeStatus(idx, regs[RegCR1], regs[RegCR2], regs[RegSR1], regs[RegExtendedWrap])
	if tsIdx, ok := ch.FirstTimestamp(); ok {
		if status.Timestamp, err = b.read(RegTS, uint32(tsIdx)); err != nil {
			return ChannelStatus{}, fmt.Errorf("status %s: %w", idx, err)
		}
		status.HasTimestamp = true
	}
	return status, nil
}

// Registers dumps every named register of the block
func (b *Block) Registers() ([]Register, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return nil, err
	}
	var regs []Register
	for _, offset := range RegisterOffsets() {
		value, err := b.port.Read(b.base, offset)
		if err != nil {
			return nil, fmt.Errorf("dump 0x%03x: %w", offset, err)
		}
		name, _ := RegisterName(offset)
		regs = append(regs, Register{Name: name, Offset: offset, Value: value})
	}
	return regs, nil
}

func checkWindow(offset uint32) error {
	if offset >= WindowSize || offset%regio.RegSize != 0 {
		return fmt.Errorf("%w: 0x%x", ErrOutOfWindow, offset)
	}
	return nil
}

// ReadRegister reads a raw register at offset inside the block window
func (b *Block) ReadRegister(offset uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return 0, err
	}
	if err := checkWindow(offset); err != nil {
		return 0, err
	}
	return b.port.Read(b.base, offset)
}

// WriteRegister writes a raw register at offset inside the block window
func (b *Block) WriteRegister(offset, value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return err
	}
	if err := checkWindow(offset); err != nil {
		return err
	}
	log.Debug("Write raw register 0x%03x: 0x%08x", offset, value)
	return b.port.Write(b.base, offset, value)
}
