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

package layers

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// MemLayerNum identifies the layer
	MemLayerNum = 1996
	// MemMaxSize is the max number of data words in a single memory operation (9 bits)
	MemMaxSize = 0x1ff
	// MemMaxAddr is the max word address of a memory operation (22 bits)
	MemMaxAddr = 0x3fffff
)

type MemOp struct {
	Read bool
	Addr uint32   // 22 bits
	Size uint32   // 9 bits
	Data []uint32 // if Read is true, Data is ignored in requests and filled in responses
}

type MemLayer struct {
	layers.BaseLayer
	*MemOp
}

var MemLayerType = gopacket.RegisterLayerType(MemLayerNum,
	gopacket.LayerTypeMetadata{Name: "MemLayerType", Decoder: gopacket.DecodeFunc(DecodeMemLayer)})

// LayerType returns the type of the Mem layer in the layer catalog
func (mem *MemLayer) LayerType() gopacket.LayerType {
	return MemLayerType
}

// Len returns the size of the serialized layer in bytes
func (mem *MemLayer) Len() int {
	return int(1+mem.Size) * 4
}

// Serialize serializes the MemLayer to a buffer.
// Missing data words are sent as zeros, read requests carry no data.
// MLink CRC depends on the contents of the whole frame, so MemOpToBytes
// calls this directly before the layers are put together.
func (mem *MemLayer) Serialize(buf []byte) {
	hdr := ((mem.Size & MemMaxSize) << 22) | (mem.Addr & MemMaxAddr)
	if mem.Read {
		hdr |= 0x80000000
	}
	binary.LittleEndian.PutUint32(buf[0:4], hdr)
	for i := 0; i < int(mem.Size); i++ {
		offset := (i + 1) * 4
		var word uint32
		if i < len(mem.Data) {
			word = mem.Data[i]
		}
		binary.LittleEndian.PutUint32(buf[offset:offset+4], word)
	}
}

// SerializeTo serializes the memory operation into bytes and writes the bytes to the SerializeBuffer
func (mem *MemLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(mem.Len())
	if err != nil {
		return err
	}
	mem.Serialize(bytes)
	return nil
}

func (mem *MemLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 4 {
		df.SetTruncated()
		return errors.New("Mem payload too short")
	}
	mem.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	if mem.MemOp == nil {
		mem.MemOp = &MemOp{}
	}
	hdr := binary.LittleEndian.Uint32(data[0:4])
	mem.Read = hdr&0x80000000 != 0
	mem.Addr = hdr & MemMaxAddr
	mem.Size = (hdr >> 22) & MemMaxSize
	if len(data) < int(1+mem.Size)*4 {
		df.SetTruncated()
		return fmt.Errorf("Mem payload too short: %d words expected", mem.Size)
	}
	mem.Data = make([]uint32, 0, mem.Size)
	for i := 0; i < int(mem.Size); i++ {
		offset := (i + 1) * 4
		mem.Data = append(mem.Data, binary.LittleEndian.Uint32(data[offset:offset+4]))
	}
	return nil
}

func DecodeMemLayer(data []byte, p gopacket.PacketBuilder) error {
	mem := &MemLayer{MemOp: &MemOp{}}
	err := mem.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(mem)
	return nil
}

// MemOpToBytes builds a complete MLink frame of the given type carrying the memory operation.
// Requests get crc32 of header and payload in the tail, responses get zero.
func MemOpToBytes(op *MemOp, seq uint16, typ MLinkType) ([]byte, error) {
	if op.Size > MemMaxSize {
		return nil, fmt.Errorf("Mem operation too large: %d words", op.Size)
	}
	ml := &MLinkLayer{}
	ml.Type = typ
	ml.Sync = MLinkSync
	// 3 words for MLink header + 1 word CRC + 1 word MemOp header + N words MemOp data
	ml.Len = uint16(4 + op.Size + 1)
	ml.Seq = seq
	if typ == MLinkTypeMemResponse {
		ml.Src = MLinkDeviceAddr
		ml.Dst = MLinkHostAddr
	} else {
		ml.Src = MLinkHostAddr
		ml.Dst = MLinkDeviceAddr
	}

	mem := &MemLayer{MemOp: op}

	if typ != MLinkTypeMemResponse {
		mlHeaderBytes := make([]byte, MLinkHeaderSize)
		ml.SerializeHeader(mlHeaderBytes)
		memBytes := make([]byte, mem.Len())
		mem.Serialize(memBytes)
		ml.Crc = crc32.ChecksumIEEE(append(mlHeaderBytes, memBytes...))
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	err := gopacket.SerializeLayers(buf, opts, ml, mem)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMemFrame decodes a raw MLink frame and returns the MLink header and the memory operation it carries
func DecodeMemFrame(data []byte) (*MLinkLayer, *MemOp, error) {
	packet := gopacket.NewPacket(data, MLinkLayerType, gopacket.Default)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, nil, errLayer.Error()
	}
	mlLayer := packet.Layer(MLinkLayerType)
	if mlLayer == nil {
		return nil, nil, errors.New("No MLink layer")
	}
	memLayer := packet.Layer(MemLayerType)
	if memLayer == nil {
		return nil, nil, errors.New("No Mem layer")
	}
	return mlLayer.(*MLinkLayer), memLayer.(*MemLayer).MemOp, nil
}
