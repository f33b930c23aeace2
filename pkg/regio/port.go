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

// Package regio provides register access ports for 32-bit register windows.
//
// A port reads and writes whole 32-bit registers addressed by a base address
// and a byte offset. Indexed access adds index*stride registers to the offset.
package regio

const (
	// RegSize is the size of one register in bytes
	RegSize = 4
)

// Port reads and writes 32-bit registers of a register window
type Port interface {
	Read(base, offset uint32) (uint32, error)
	Write(base, offset, value uint32) error
}

// Closer is implemented by ports holding a file, database or socket
type Closer interface {
	Close() error
}

// IndexedOffset returns offset + index*stride registers
func IndexedOffset(offset, index, stride uint32) uint32 {
	return offset + index*stride*RegSize
}

// ReadIndexed reads the register at offset of the index-th block of stride registers
func ReadIndexed(p Port, base, offset, index, stride uint32) (uint32, error) {
	return p.Read(base, IndexedOffset(offset, index, stride))
}

// WriteIndexed writes the register at offset of the index-th block of stride registers
func WriteIndexed(p Port, base, offset, index, stride, value uint32) error {
	return p.Write(base, IndexedOffset(offset, index, stride), value)
}

// Close closes p if it holds any resources
func Close(p Port) error {
	if c, ok := p.(Closer); ok {
		return c.Close()
	}
	return nil
}
