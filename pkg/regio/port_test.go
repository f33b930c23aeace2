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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTrace(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Write(0x100, 0x4, 0xdead))
	v, err := m.Read(0x100, 0x4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdead), v)

	m.Poke(0x108, 1)
	assert.Equal(t, uint32(1), m.Peek(0x108))
	assert.Equal(t, []Access{
		{Write: true, Offset: 0x104, Value: 0xdead},
		{Write: false, Offset: 0x104, Value: 0xdead},
	}, m.Trace())

	require.NoError(t, m.Write(0x100, 0x4, 0xbeef))
	assert.Equal(t, []uint32{0xdead, 0xbeef}, m.Writes(0x104))
	m.ResetTrace()
	assert.Empty(t, m.Trace())
}

func TestIndexed(t *testing.T) {
	m := NewMemory()
	assert.Equal(t, uint32(0x4+2*3*4), IndexedOffset(0x4, 2, 3))
	require.NoError(t, WriteIndexed(m, 0x1000, 0x8, 5, 3, 42))
	assert.Equal(t, uint32(42), m.Peek(0x1000+0x8+5*12))
	v, err := ReadIndexed(m, 0x1000, 0x8, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
	assert.NoError(t, Close(m))
}

func TestFileLittleEndian(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regs")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0600))

	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Write(0x10, 0x4, 0x11223344))
	v, err := f.Read(0x10, 0x4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x11223344), v)
	require.NoError(t, Close(f))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, raw[0x14:0x18])
}

func TestFileReadPastEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regs")
	require.NoError(t, os.WriteFile(path, make([]byte, 8), 0600))
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(0, 0x100)
	assert.Error(t, err)
}

func TestBoltPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regs.db")
	b, err := NewBolt(path, "aadmac")
	require.NoError(t, err)

	v, err := b.Read(0x40000000, 0x0c)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)

	require.NoError(t, b.Write(0x40000000, 0x0c, 0xcafe))
	require.NoError(t, b.Close())

	b, err = NewBolt(path, "aadmac")
	require.NoError(t, err)
	defer b.Close()
	v, err = b.Read(0x40000000, 0x0c)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafe), v)

	other, err := b.Read(0x40000000, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), other)
}
