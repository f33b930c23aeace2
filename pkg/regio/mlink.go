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
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"jinr.ru/greenlab/go-aadmac/pkg/layers"
	"jinr.ru/greenlab/go-aadmac/pkg/log"
)

const (
	// MLinkDefaultPort is the UDP port devices listen for memory requests on
	MLinkDefaultPort = 33300
	// MLinkDefaultTimeout bounds a single request/response exchange
	MLinkDefaultTimeout = time.Second
)

// MLink accesses remote registers with MLink memory request frames.
// Exchanges are serialized so there is at most one request in flight.
type MLink struct {
	mu      sync.Mutex
	conn    *net.UDPConn
	seq     uint16
	timeout time.Duration
	buffer  []byte
}

var _ Port = &MLink{}

// DialMLink opens a UDP socket connected to the device at addr (host:port)
func DialMLink(addr string, timeout time.Duration) (*MLink, error) {
	log.Debug("Dialing MLink device: %s", addr)
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, uaddr)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = MLinkDefaultTimeout
	}
	return &MLink{
		conn:    conn,
		timeout: timeout,
		buffer:  make([]byte, 65536),
	}, nil
}

func (m *MLink) nextSeq() uint16 {
	seq := m.seq
	m.seq++
	return seq
}

func wordAddr(base, offset uint32) (uint32, error) {
	addr := base + offset
	if addr%RegSize != 0 {
		return 0, ErrUnaligned{Addr: addr}
	}
	word := addr / RegSize
	if word > layers.MemMaxAddr {
		return 0, fmt.Errorf("Register address out of MLink range: 0x%08x", addr)
	}
	return word, nil
}

// exchange sends one memory request and waits for the response with the same seq.
// Responses carrying other seq numbers are stale and dropped.
func (m *MLink) exchange(op *layers.MemOp) (*layers.MemOp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seq := m.nextSeq()
	data, err := layers.MemOpToBytes(op, seq, layers.MLinkTypeMemRequest)
	if err != nil {
		return nil, err
	}
	if _, err = m.conn.Write(data); err != nil {
		return nil, fmt.Errorf("mlink send: %w", err)
	}

	deadline := time.Now().Add(m.timeout)
	if err = m.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	for {
		length, err := m.conn.Read(m.buffer)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return nil, ErrTimeout{Seq: seq}
			}
			return nil, fmt.Errorf("mlink receive: %w", err)
		}
		ml, resp, err := layers.DecodeMemFrame(m.buffer[:length])
		if err != nil {
			log.Debug("Drop malformed frame: %s", err)
			continue
		}
		if ml.Seq != seq {
			log.Debug("Drop frame with seq: %d, waiting for: %d", ml.Seq, seq)
			continue
		}
		if ml.Type != layers.MLinkTypeMemResponse {
			return nil, ErrUnexpectedFrame{What: fmt.Sprintf("type %s", ml.Type)}
		}
		if resp.Addr != op.Addr {
			return nil, ErrUnexpectedFrame{What: fmt.Sprintf("addr 0x%06x, expected 0x%06x", resp.Addr, op.Addr)}
		}
		return resp, nil
	}
}

func (m *MLink) Read(base, offset uint32) (uint32, error) {
	addr, err := wordAddr(base, offset)
	if err != nil {
		return 0, err
	}
	resp, err := m.exchange(&layers.MemOp{Read: true, Addr: addr, Size: 1})
	if err != nil {
		return 0, err
	}
	if len(resp.Data) < 1 {
		return 0, ErrUnexpectedFrame{What: "empty read response"}
	}
	return resp.Data[0], nil
}

func (m *MLink) Write(base, offset, value uint32) error {
	addr, err := wordAddr(base, offset)
	if err != nil {
		return err
	}
	_, err = m.exchange(&layers.MemOp{Read: false, Addr: addr, Size: 1, Data: []uint32{value}})
	return err
}

func (m *MLink) Close() error {
	return m.conn.Close()
}
