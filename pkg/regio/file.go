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
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

type rwer interface {
	io.ReaderAt
	io.WriterAt
}

// File is a register window mapped onto a file such as /dev/mem or a UIO device.
// Register base+offset lives at byte offset base+offset of the file, little endian.
type File struct {
	mu sync.Mutex
	rw rwer
	c  io.Closer
}

var _ Port = &File{}

// NewFile wraps an already opened register window
func NewFile(rw rwer) *File {
	f := &File{rw: rw}
	if c, ok := rw.(io.Closer); ok {
		f.c = c
	}
	return f
}

// OpenFile opens the device file at path for register access
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	return NewFile(f), nil
}

// Read ...
func (f *File) Read(base, offset uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, RegSize)
	addr := int64(base) + int64(offset)
	if _, err := f.rw.ReadAt(buf, addr); err != nil {
		return 0, fmt.Errorf("could not read register at addr=0x%x: %w", addr, err)
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Write ...
func (f *File) Write(base, offset, value uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, RegSize)
	binary.LittleEndian.PutUint32(buf, value)
	addr := int64(base) + int64(offset)
	if _, err := f.rw.WriteAt(buf, addr); err != nil {
		return fmt.Errorf("could not write register at addr=0x%x: %w", addr, err)
	}
	return nil
}

// Close ...
func (f *File) Close() error {
	if f.c == nil {
		return nil
	}
	return f.c.Close()
}
