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

func setField(reg, mask uint32, shift uint, value uint32) uint32 {
	return reg&^mask | (value<<shift)&mask
}

func getField(reg, mask uint32, shift uint) uint32 {
	return (reg & mask) >> shift
}

func encodeEnable(cr2 uint32, on bool) uint32 {
	var v uint32
	if on {
		v = 1
	}
	return setField(cr2, CR2EnMask, CR2EnShift, v)
}

func decodeEnabled(cr2 uint32) bool {
	return getField(cr2, CR2EnMask, CR2EnShift) == 1
}

func encodeDirection(cr2 uint32, dir Direction) uint32 {
	return setField(cr2, CR2InOutMask, CR2InOutShift, uint32(dir))
}

func decodeDirection(cr2 uint32) Direction {
	return Direction(getField(cr2, CR2InOutMask, CR2InOutShift))
}

func encodeFifo(cr2 uint32, fifoIndex uint32) uint32 {
	return setField(cr2, CR2FifoChMask, CR2FifoChShift, fifoIndex)
}

func decodeFifo(cr2 uint32) Fifo {
	return FifoFromIndex(getField(cr2, CR2FifoChMask, CR2FifoChShift))
}

// transferSizeField converts bytes per request to words per request minus one
func transferSizeField(bytes uint8) uint32 {
	if bytes > 4 {
		return uint32(bytes)/4 - 1
	}
	return 0
}

func encodeTransferSize(cr2 uint32, bytes uint8) uint32 {
	return setField(cr2, CR2TSizeMask, CR2TSizeShift, transferSizeField(bytes))
}

// decodeTransferSize returns bytes per request
func decodeTransferSize(cr2 uint32) uint32 {
	return (getField(cr2, CR2TSizeMask, CR2TSizeShift) + 1) * 4
}

func encodeFifoReset(cr2 uint32, on bool) uint32 {
	var v uint32
	if on {
		v = 1
	}
	return setField(cr2, CR2FifoRstMask, CR2FifoRstShift, v)
}

func clampWrap(idx Index, size uint32) uint32 {
	if limit := idx.MaxWrapSize(); size > limit {
		return limit
	}
	return size
}

func encodeWrap(cr2 uint32, size uint32) uint32 {
	return setField(cr2, CR2WrapMask, CR2WrapShift, size&0xFFFF)
}

func extWrapField(idx Index) (uint32, uint) {
	if idx == 1 {
		return ExtWrapCh2Mask, ExtWrapCh2Shift
	}
	return ExtWrapCh1Mask, ExtWrapCh1Shift
}

// encodeExtendedWrap stores size bits 16..23 in the channel's slice of the shared register
func encodeExtendedWrap(ext uint32, idx Index, size uint32) uint32 {
	mask, shift := extWrapField(idx)
	high := (size >> extWrapShift) & (1<<extWrapBits - 1)
	return setField(ext, mask, shift, high)
}

// decodeWrap reassembles the wrap size. The clamped maximum does not fit the
// fields, it is stored as all zeros and decodes back to the maximum, so a
// requested size of 0 also reads back as the maximum.
func decodeWrap(idx Index, cr2, ext uint32) uint32 {
	size := getField(cr2, CR2WrapMask, CR2WrapShift)
	if idx.Extended() {
		mask, shift := extWrapField(idx)
		size |= getField(ext, mask, shift) << extWrapShift
	}
	if size == 0 {
		return idx.MaxWrapSize()
	}
	return size
}

func encodeBase(addr uint32) uint32 {
	return addr & CR1BaseMask
}

func decodeBase(cr1 uint32) uint32 {
	return cr1 & CR1BaseMask
}

func encodeSWReady(cr2 uint32, status FifoStatus, mode ReadyStatusMode) uint32 {
	status &= ReadyBoth
	if status == ReadyNone {
		return cr2 &^ CR2SWReadyMask
	}
	if mode == ReadyExact {
		return setField(cr2, CR2SWReadyMask, CR2SWReadyLowShift, uint32(status))
	}
	return cr2 | (uint32(status)<<CR2SWReadyLowShift)&CR2SWReadyMask
}

func decodeSWReady(cr2 uint32) FifoStatus {
	return FifoStatus(getField(cr2, CR2SWReadyMask, CR2SWReadyLowShift))
}

// hwReadyClearValue is written as is to SR1, flags not named by status are acknowledged
func hwReadyClearValue(status FifoStatus) uint32 {
	return (^uint32(status) & uint32(ReadyBoth)) << SR1HWReadyLowShift
}

func decodeHWReady(sr1 uint32) FifoStatus {
	return FifoStatus(getField(sr1, SR1HWReadyMask, SR1HWReadyLowShift))
}

func decodeRequestCount(sr1 uint32) uint8 {
	return uint8(getField(sr1, SR1RequestCountMask, SR1RequestCountShift))
}

func decodeCurrentPointer(sr1 uint32) uint16 {
	return uint16(getField(sr1, SR1CurrentMemPntrMask, SR1CurrentMemPntrShift))
}
