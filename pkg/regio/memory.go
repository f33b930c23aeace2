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

package regio

import (
	"sync"
)

// Access is one recorded register access of a Memory port
type Access struct {
	Write  bool
	Offset uint32 // base + offset
	Value  uint32
}

// Memory is a register window kept in process memory.
// It records every access so that the order of writes can be inspected.
type Memory struct {
	mu    sync.Mutex
	regs  map[uint32]uint32
	trace []Access
}

var _ Port = &Memory{}

// NewMemory ...
func NewMemory() *Memory {
	return &Memory{
		regs: make(map[uint32]uint32),
	}
}

// Read returns the register value, registers never written read 0
func (m *Memory) Read(base, offset uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := base + offset
	value := m.regs[addr]
	m.trace = append(m.trace, Access{Offset: addr, Value: value})
	return value, nil
}

// Write ...
func (m *Memory) Write(base, offset, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := base + offset
	m.regs[addr] = value
	m.trace = append(m.trace, Access{Write: true, Offset: addr, Value: value})
	return nil
}

// Poke sets a register without recording the access.
// It stands in for the hardware updating status registers.
func (m *Memory) Poke(addr, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[addr] = value
}

// Peek returns a register without recording the access
func (m *Memory) Peek(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[addr]
}

// Writes returns the recorded writes to addr in order
func (m *Memory) Writes(addr uint32) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var values []uint32
	for _, a := range m.trace {
		if a.Write && a.Offset == addr {
			values = append(values, a.Value)
		}
	}
	return values
}

// Trace returns a copy of all recorded accesses
func (m *Memory) Trace() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	trace := make([]Access, len(m.trace))
	copy(trace, m.trace)
	return trace
}

// ResetTrace drops the recorded accesses
func (m *Memory) ResetTrace() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trace = nil
}
