// Package crc32c computes the masked CRC32C checksums used by Snappy
// framing, including the non-inverting variant found in Firefox's morgue
// cache.
package crc32c

import (
	"hash/crc32"
	"math/bits"
)

// maskDelta is Snappy's CRC mask constant: the stored checksum is never a
// well formed CRC of an adjacent payload.
const maskDelta = 0xa282ead8

var table = crc32.MakeTable(crc32.Castagnoli)

// CRC accumulates a CRC32C over a byte stream and finalizes it into the
// masked form Snappy framing stores on the wire.
type CRC struct {
	crc     uint32
	firefox bool
}

// New returns a CRC ready to accept bytes. When firefox is true, Sum32
// skips the standard inversion step, matching the morgue cache's stored
// checksums.
func New(firefox bool) *CRC {
	return &CRC{crc: 0xffffffff, firefox: firefox}
}

// Write feeds p into the running checksum. It never returns an error.
func (c *CRC) Write(p []byte) (int, error) {
	crc := c.crc
	for _, b := range p {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}
	c.crc = crc
	return len(p), nil
}

// Sum32 returns the masked CRC32C of the bytes written so far.
func (c *CRC) Sum32() uint32 {
	crc := c.crc
	if !c.firefox {
		crc ^= 0xffffffff
	}
	return bits.RotateLeft32(crc, -15) + maskDelta
}

// Mask applies the standard (inverting) Snappy CRC mask to an
// already-computed standard CRC32C value, e.g. one produced by
// crc32.Checksum with this package's table.
func Mask(crc uint32) uint32 {
	return bits.RotateLeft32(crc, -15) + maskDelta
}

// Checksum computes the masked CRC32C of p in one call.
func Checksum(p []byte, firefox bool) uint32 {
	c := New(firefox)
	c.Write(p)
	return c.Sum32()
}
