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
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-aadmac/pkg/layers"
)

// fakeDevice answers MLink memory requests from a word addressed register map
type fakeDevice struct {
	conn  *net.UDPConn
	mu    sync.Mutex
	regs  map[uint32]uint32
	stale bool // send a response with a wrong seq before the real one
	mute  bool
}

func newFakeDevice(t *testing.T) *fakeDevice {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	d := &fakeDevice{conn: conn, regs: make(map[uint32]uint32)}
	t.Cleanup(func() { conn.Close() })
	go d.serve()
	return d
}

func (d *fakeDevice) addr() string {
	return d.conn.LocalAddr().String()
}

func (d *fakeDevice) serve() {
	buf := make([]byte, 65536)
	for {
		n, from, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		ml, op, err := layers.DecodeMemFrame(buf[:n])
		if err != nil || ml.Type != layers.MLinkTypeMemRequest {
			continue
		}
		d.mu.Lock()
		if d.mute {
			d.mu.Unlock()
			continue
		}
		resp := &layers.MemOp{Read: op.Read, Addr: op.Addr, Size: op.Size}
		for i := uint32(0); i < op.Size; i++ {
			if op.Read {
				resp.Data = append(resp.Data, d.regs[op.Addr+i])
			} else {
				d.regs[op.Addr+i] = op.Data[i]
				resp.Data = append(resp.Data, op.Data[i])
			}
		}
		stale := d.stale
		d.mu.Unlock()

		if stale {
			if data, err := layers.MemOpToBytes(&layers.MemOp{Read: true, Addr: op.Addr, Size: 1, Data: []uint32{0xbad}},
				ml.Seq+100, layers.MLinkTypeMemResponse); err == nil {
				d.conn.WriteToUDP(data, from)
			}
		}
		data, err := layers.MemOpToBytes(resp, ml.Seq, layers.MLinkTypeMemResponse)
		if err != nil {
			continue
		}
		d.conn.WriteToUDP(data, from)
	}
}

func TestMLinkRoundTrip(t *testing.T) {
	d := newFakeDevice(t)
	m, err := DialMLink(d.addr(), time.Second)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Write(0x1000, 0x8, 0x12345678))
	d.mu.Lock()
	assert.Equal(t, uint32(0x12345678), d.regs[(0x1000+0x8)/4])
	d.mu.Unlock()

	v, err := m.Read(0x1000, 0x8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	v, err = m.Read(0x1000, 0xc)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)
}

func TestMLinkReadModifyWrite(t *testing.T) {
	d := newFakeDevice(t)
	d.mu.Lock()
	d.regs[(0x100+0x4)/4] = 0xabcd0000
	d.mu.Unlock()
	m, err := DialMLink(d.addr(), time.Second)
	require.NoError(t, err)
	defer m.Close()

	v, err := ReadIndexed(m, 0x100, 0x4, 0, 3)
	require.NoError(t, err)
	require.Equal(t, uint32(0xabcd0000), v)
	require.NoError(t, WriteIndexed(m, 0x100, 0x4, 0, 3, v|1))

	v, err = m.Read(0x100, 0x4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xabcd0001), v)
}

func TestMLinkDropsStaleResponses(t *testing.T) {
	d := newFakeDevice(t)
	d.mu.Lock()
	d.stale = true
	d.regs[0x10] = 77
	d.mu.Unlock()
	m, err := DialMLink(d.addr(), time.Second)
	require.NoError(t, err)
	defer m.Close()

	v, err := m.Read(0, 0x40)
	require.NoError(t, err)
	assert.Equal(t, uint32(77), v)
}

func TestMLinkTimeout(t *testing.T) {
	d := newFakeDevice(t)
	d.mu.Lock()
	d.mute = true
	d.mu.Unlock()
	m, err := DialMLink(d.addr(), 50*time.Millisecond)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Read(0, 0)
	var timeout ErrTimeout
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, uint16(0), timeout.Seq)
}

func TestMLinkUnaligned(t *testing.T) {
	d := newFakeDevice(t)
	m, err := DialMLink(d.addr(), time.Second)
	require.NoError(t, err)
	defer m.Close()

	err = m.Write(0, 2, 1)
	var unaligned ErrUnaligned
	require.ErrorAs(t, err, &unaligned)
	assert.Equal(t, uint32(2), unaligned.Addr)
}
