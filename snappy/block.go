package snappy

import (
	"github.com/berdav/snappy-fox/internal/crc32c"
	"github.com/berdav/snappy-fox/internal/varint"
	"github.com/pkg/errors"
)

// decodeBlock decodes a framed compressed block: a varint uncompressed
// length prefix followed by a tag-element stream. dst must have capacity
// at least MaxUncompressed; only dst[:n] is written. crc is the masked
// CRC32C of dst[:n], computed with the finalization cfg.FirefoxCRC selects.
func decodeBlock(cdata []byte, dst []byte, cfg Config) (n int, crc uint32, err error) {
	length, consumed := varint.Read(cdata)
	if consumed == 0 {
		return 0, 0, errors.Wrap(ErrBadVarint, "block header")
	}
	if length > MaxUncompressed {
		return 0, 0, errors.Wrap(ErrTooLarge, "block header")
	}

	n, err = decodeElements(cdata[consumed:], dst, int(length), cfg)
	crc = crc32c.Checksum(dst[:n], cfg.FirefoxCRC)
	return n, crc, err
}

// decodeUnframedBlock decodes a bare, unframed element stream with no
// varint length prefix: the declared-length ceiling is simply the output
// buffer's capacity.
func decodeUnframedBlock(cdata []byte, dst []byte, cfg Config) (n int, crc uint32, err error) {
	n, err = decodeElements(cdata, dst, len(dst), cfg)
	crc = crc32c.Checksum(dst[:n], cfg.FirefoxCRC)
	return n, crc, err
}

// decodeElements runs the tag-dispatch loop shared by framed and unframed
// decoding. lenBound is the declared uncompressed length (framed) or the
// buffer capacity (unframed); literals and valid copies never take idx past
// it, while an IgnoreOffsetErrors substitution may, up to len(dst), after
// which the loop stops. On error, n is the
// number of bytes successfully decoded before the failing element so the
// caller can still flush partial output.
func decodeElements(cdata []byte, dst []byte, lenBound int, cfg Config) (n int, err error) {
	cidx := 0
	idx := 0
	hardCap := len(dst)

	for cidx < len(cdata) && idx < lenBound {
		tag := cdata[cidx]
		var width int
		switch tag & 0x3 {
		case tagLiteral:
			width, err = decodeLiteral(cdata, cidx, dst, &idx, lenBound)
		case tagCopy1:
			width, err = decodeCopy1(cdata, cidx, dst, &idx, lenBound, hardCap, cfg)
		case tagCopy2:
			width, err = decodeCopy2(cdata, cidx, dst, &idx, lenBound, hardCap, cfg)
		case tagCopy4:
			width, err = decodeCopy4(cdata, cidx, dst, &idx, lenBound, hardCap, cfg)
		}
		if err != nil {
			return idx, err
		}
		cidx += width
	}

	return idx, nil
}

// decodeLiteral decodes a literal element at cdata[cidx], appending its
// payload to dst[*idx:] and advancing *idx. It returns the element's total
// width in cdata (tag byte + any extra length bytes + payload length).
func decodeLiteral(cdata []byte, cidx int, dst []byte, idx *int, lenBound int) (width int, err error) {
	code := uint32(cdata[cidx]&0xfc) >> 2

	var extra int
	var litLen uint32
	if code < 60 {
		litLen = code + 1
	} else {
		extra = int(code) - 59
		if cidx+1+extra > len(cdata) {
			return 0, errors.Wrap(ErrLiteralBounds, "literal length bytes")
		}
		var v uint32
		for i := 0; i < extra; i++ {
			v |= uint32(cdata[cidx+1+i]) << (8 * uint(i))
		}
		litLen = v + 1
	}

	payloadStart := cidx + 1 + extra
	// A Go slice expression with an out-of-range bound panics rather than
	// reading adjacent memory, so the payload's full extent must be
	// checked up front instead of relying on the copy itself to fail.
	if payloadStart > len(cdata) || uint64(payloadStart)+uint64(litLen) > uint64(len(cdata)) {
		return 0, errors.Wrap(ErrLiteralBounds, "literal payload exceeds compressed block")
	}
	if *idx > lenBound || uint64(litLen) > uint64(lenBound) || uint64(*idx)+uint64(litLen) > uint64(lenBound) {
		return 0, errors.Wrap(ErrLiteralBounds, "literal payload exceeds output buffer")
	}

	copy(dst[*idx:*idx+int(litLen)], cdata[payloadStart:payloadStart+int(litLen)])
	*idx += int(litLen)

	return 1 + extra + int(litLen), nil
}

// decodeCopy1 decodes a one-byte-offset back-reference (element width 2).
func decodeCopy1(cdata []byte, cidx int, dst []byte, idx *int, lenBound, hardCap int, cfg Config) (width int, err error) {
	if cidx+1 >= len(cdata) {
		return 0, errors.Wrap(ErrCopyBounds, "copy1 truncated")
	}
	tag := cdata[cidx]
	length := int((tag>>2)&0x7) + 4
	offset := (int(tag&0xe0) << 3) | int(cdata[cidx+1])

	if err := runCopy(dst, idx, lenBound, hardCap, length, offset, cfg); err != nil {
		return 0, err
	}
	return 2, nil
}

// decodeCopy2 decodes a two-byte-offset back-reference (element width 3).
func decodeCopy2(cdata []byte, cidx int, dst []byte, idx *int, lenBound, hardCap int, cfg Config) (width int, err error) {
	if cidx+2 >= len(cdata) {
		return 0, errors.Wrap(ErrCopyBounds, "copy2 truncated")
	}
	tag := cdata[cidx]
	length := int(tag>>2) + 1
	offset := int(cdata[cidx+1]) | int(cdata[cidx+2])<<8

	if err := runCopy(dst, idx, lenBound, hardCap, length, offset, cfg); err != nil {
		return 0, err
	}
	return 3, nil
}

// decodeCopy4 decodes a four-byte-offset back-reference (element width 5).
func decodeCopy4(cdata []byte, cidx int, dst []byte, idx *int, lenBound, hardCap int, cfg Config) (width int, err error) {
	if cidx+4 >= len(cdata) {
		return 0, errors.Wrap(ErrCopyBounds, "copy4 truncated")
	}
	tag := cdata[cidx]
	length := int(tag>>2) + 1
	offset := int(cdata[cidx+1]) | int(cdata[cidx+2])<<8 | int(cdata[cidx+3])<<16 | int(cdata[cidx+4])<<24

	if err := runCopy(dst, idx, lenBound, hardCap, length, offset, cfg); err != nil {
		return 0, err
	}
	return 5, nil
}

// runCopy validates and executes a back-reference copy of length bytes from
// offset bytes behind *idx, advancing *idx. Invalid copies either abort
// with ErrCopyBounds or, when cfg.IgnoreOffsetErrors is set, are replaced
// with length bytes of cfg.OffsetDummyByte. hardCap is the output slice's
// physical capacity: even substitution bytes can never be written past it,
// regardless of cfg.IgnoreOffsetErrors.
func runCopy(dst []byte, idx *int, lenBound, hardCap, length, offset int, cfg Config) error {
	valid := offset > 0 && offset <= *idx && *idx+length <= lenBound

	if !valid {
		if !cfg.IgnoreOffsetErrors || *idx+length > hardCap {
			return errors.Wrap(ErrCopyBounds, "invalid back-reference")
		}
		for i := 0; i < length; i++ {
			dst[*idx+i] = cfg.OffsetDummyByte
		}
		*idx += length
		return nil
	}

	if offset >= length {
		copy(dst[*idx:*idx+length], dst[*idx-offset:*idx-offset+length])
		*idx += length
		return nil
	}

	// Self-overlapping copy: offset < length, so the destination range
	// overlaps the source range. Expand in offset-sized blocks so each
	// block's bytes are available as source material for the next.
	remaining := length
	for remaining >= offset {
		copy(dst[*idx:*idx+offset], dst[*idx-offset:*idx])
		*idx += offset
		remaining -= offset
	}
	if remaining > 0 {
		copy(dst[*idx:*idx+remaining], dst[*idx-offset:*idx-offset+remaining])
		*idx += remaining
	}
	return nil
}
