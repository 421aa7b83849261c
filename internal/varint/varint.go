// Package varint decodes the unsigned little-endian base-128 varint used as
// the uncompressed-length prefix of a Snappy block.
package varint

import "math/bits"

// Overflow is the sentinel value Read returns when the encoded value would
// not fit in 31 bits. It is always strictly greater than the largest legal
// uncompressed block length, so callers can detect it with a single bound
// check against that limit.
const Overflow = 1<<32 - 1

// Read decodes an unsigned little-endian base-128 varint from the head of
// data. It returns the decoded value and the number of bytes consumed.
//
// Before applying a payload to bit position 7*k, Read rejects the encoding
// (returning Overflow, 0) if the shifted payload would reach bit 31, i.e. not
// fit in 31 bits.
// If data is exhausted before a terminating byte (high bit clear) is found,
// Read also returns (Overflow, 0): the caller has a truncated or corrupt
// varint, never a valid one that merely runs past the slice.
func Read(data []byte) (value uint32, consumed int) {
	var v uint32
	for shift := uint(0); ; shift++ {
		if int(shift) >= len(data) {
			return Overflow, 0
		}
		c := data[shift]
		payload := c &^ 0x80

		if overflows(payload, shift) {
			return Overflow, 0
		}

		v |= uint32(payload) << (7 * shift)

		if c&0x80 == 0 {
			return v, int(shift) + 1
		}
	}
}

// overflows reports whether shifting payload left by 7*shift bits would
// exceed 31 bits, mirroring the original decoder's check_overflow_shift:
// trivially safe when payload is zero or this is the first byte, otherwise
// safe iff 7*shift + bitlen(payload) <= 31.
func overflows(payload byte, shift uint) bool {
	if payload == 0 || shift == 0 {
		return false
	}
	return 7*shift+uint(bits.Len8(payload)) > 31
}
