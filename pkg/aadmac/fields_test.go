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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferSizeField(t *testing.T) {
	tests := []struct {
		bytes uint8
		want  uint32
	}{
		{0, 0},
		{2, 0},
		{4, 0},
		{5, 0},
		{8, 1},
		{12, 2},
		{15, 2},
		{64, 15},
		{255, 62},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, transferSizeField(tt.bytes), "bytes %d", tt.bytes)
	}
	cr2 := encodeTransferSize(0xFFFFFFFF, 8)
	assert.Equal(t, uint32(0xFFFFF07F), cr2)
	assert.Equal(t, uint32(8), decodeTransferSize(cr2))
}

func TestEncodePreservesOtherBits(t *testing.T) {
	const all = uint32(0xFFFFFFFF)
	assert.Equal(t, all&^CR2InOutMask, encodeDirection(all, DirIn))
	assert.Equal(t, all, encodeDirection(all, DirOut))
	assert.Equal(t, all&^CR2EnMask, encodeEnable(all, false))
	assert.Equal(t, all&^CR2FifoChMask|5<<CR2FifoChShift, encodeFifo(all, 5))
	assert.Equal(t, all&^CR2FifoRstMask, encodeFifoReset(all, false))
	assert.Equal(t, uint32(0x1000), encodeFifoReset(0, true))
	assert.Equal(t, uint32(0x3456FFFF), encodeWrap(0x0000FFFF, 0x123456))

	assert.Equal(t, DirOut, decodeDirection(encodeDirection(0, DirOut)))
	assert.Equal(t, Fifo(1<<9), decodeFifo(encodeFifo(0, 9)))
	assert.True(t, decodeEnabled(encodeEnable(0, true)))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, uint32(MaxExtendedWrapSize), clampWrap(0, 0x2000000))
	assert.Equal(t, uint32(MaxWrapSize), clampWrap(2, 0x20000))
	assert.Equal(t, uint32(0x1234), clampWrap(5, 0x1234))

	// CH1 slice is bits 7..0, CH2 slice is bits 15..8
	assert.Equal(t, uint32(0xAB12), encodeExtendedWrap(0xAB00, 0, 0x123456))
	assert.Equal(t, uint32(0x12CD), encodeExtendedWrap(0x00CD, 1, 0x123456))
	assert.Equal(t, uint32(0xFFFF00FF), encodeExtendedWrap(0xFFFFFFFF, 1, 0x00FFFF))
	// 0x1000000 does not spill into CH2's slice
	assert.Equal(t, uint32(0xAB00), encodeExtendedWrap(0xAB00, 0, MaxExtendedWrapSize))

	assert.Equal(t, uint32(0x123456), decodeWrap(0, 0x34560000, 0x12))
	assert.Equal(t, uint32(0x123456), decodeWrap(1, 0x34560000, 0x1200))
	assert.Equal(t, uint32(0x3456), decodeWrap(2, 0x34560000, 0x1212))
	assert.Equal(t, uint32(MaxWrapSize), decodeWrap(4, 0, 0))
	assert.Equal(t, uint32(MaxExtendedWrapSize), decodeWrap(1, 0, 0))
	assert.Equal(t, uint32(0x10000), decodeWrap(0, 0, 0x01))
}

func TestBase(t *testing.T) {
	assert.Equal(t, uint32(0x12345674), encodeBase(0x12345677))
	assert.Equal(t, uint32(0x80000000), decodeBase(0x80000003))
}

func TestSWReady(t *testing.T) {
	tests := []struct {
		name   string
		cr2    uint32
		status FifoStatus
		mode   ReadyStatusMode
		want   uint32
	}{
		{"none clears compat", 0xFFFF, ReadyNone, ReadyCompat, 0x9FFF},
		{"none clears exact", 0xFFFF, ReadyNone, ReadyExact, 0x9FFF},
		{"low compat", 0, ReadyLow, ReadyCompat, 0x2000},
		{"high compat keeps low", 0x2000, ReadyHigh, ReadyCompat, 0x6000},
		{"low compat keeps high", 0x4000, ReadyLow, ReadyCompat, 0x6000},
		{"high exact replaces low", 0x2000, ReadyHigh, ReadyExact, 0x4000},
		{"both exact", 0x0001, ReadyBoth, ReadyExact, 0x6001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeSWReady(tt.cr2, tt.status, tt.mode)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, FifoStatus((tt.want>>13)&3), decodeSWReady(got))
		})
	}
}

func TestHWReady(t *testing.T) {
	assert.Equal(t, uint32(3), hwReadyClearValue(ReadyNone))
	assert.Equal(t, uint32(2), hwReadyClearValue(ReadyLow))
	assert.Equal(t, uint32(1), hwReadyClearValue(ReadyHigh))
	assert.Equal(t, uint32(0), hwReadyClearValue(ReadyBoth))

	const sr1 = uint32(0x12340A53)
	assert.Equal(t, ReadyBoth, decodeHWReady(sr1))
	assert.Equal(t, uint8(0xA5), decodeRequestCount(sr1))
	assert.Equal(t, uint16(0x1234), decodeCurrentPointer(sr1))
}
