package snappy

import (
	"bytes"
	"testing"
)

func decodeRawBlock(t *testing.T, cdata []byte, cfg Config) []byte {
	t.Helper()
	dst := make([]byte, MaxUncompressed)
	n, _, err := decodeBlock(cdata, dst, cfg)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	return dst[:n]
}

// TestSingleLiteralBlock decodes a block holding a single short literal.
func TestSingleLiteralBlock(t *testing.T) {
	block := []byte{0x02, 0x04, 'a', 'b'}
	got := decodeRawBlock(t, block, DefaultConfig())
	if !bytes.Equal(got, []byte("ab")) {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}

// TestSelfOverlapCopy decodes a length-1 literal followed by a
// self-overlapping copy of length 5, offset 1, producing a 6-byte run (the
// literal byte, then five more copies of it).
func TestSelfOverlapCopy(t *testing.T) {
	block := []byte{0x06, 0x00, 'x', 0x05, 0x01}
	got := decodeRawBlock(t, block, DefaultConfig())
	if !bytes.Equal(got, []byte("xxxxxx")) {
		t.Fatalf("got %q, want %q", got, "xxxxxx")
	}
}

// TestInvalidOffsetAborts: with the default config, a zero-offset copy
// aborts the block.
func TestInvalidOffsetAborts(t *testing.T) {
	block := []byte{0x06, 0x00, 'x', 0x05, 0x00}
	dst := make([]byte, MaxUncompressed)
	_, _, err := decodeBlock(block, dst, DefaultConfig())
	if err == nil {
		t.Fatalf("expected error for zero offset copy, got nil")
	}
}

// TestInvalidOffsetSubstitution: with IgnoreOffsetErrors, the same
// zero-offset copy instead emits five substitution bytes.
func TestInvalidOffsetSubstitution(t *testing.T) {
	block := []byte{0x06, 0x00, 'x', 0x05, 0x00}
	cfg := Config{IgnoreOffsetErrors: true, OffsetDummyByte: 'A'}
	got := decodeRawBlock(t, block, cfg)
	if !bytes.Equal(got, []byte("xAAAAA")) {
		t.Fatalf("got %q, want %q", got, "xAAAAA")
	}
}

// TestCopyExceedingDeclaredLength: a copy whose destination span would
// exceed the declared uncompressed length aborts rather than writing past
// it.
func TestCopyExceedingDeclaredLength(t *testing.T) {
	// declared length 3, but literal of 1 + copy of 5 would need 6 bytes.
	block := []byte{0x03, 0x00, 'x', 0x05, 0x01}
	dst := make([]byte, MaxUncompressed)
	n, _, err := decodeBlock(block, dst, DefaultConfig())
	if err == nil {
		t.Fatalf("expected bounds error, got n=%d", n)
	}
}

// TestLiteralLongForm exercises the >=60 literal length code path: code 60
// means one extra length byte holding length-1.
func TestLiteralLongForm(t *testing.T) {
	payload := bytes.Repeat([]byte{'z'}, 61)
	// tag byte: code 60 (0x3c) in bits [7:2], tagLiteral in bits [1:0].
	tag := byte(60<<2) | tagLiteral
	extra := byte(60) // length-1 = 60 for a 61-byte literal
	block := append([]byte{0x3d, tag, extra}, payload...)
	got := decodeRawBlock(t, block, DefaultConfig())
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %d bytes, want %d", len(got), len(payload))
	}
}

// TestLiteralOutOfBoundsSourceIsRejected: a literal whose payload would run
// past the compressed block is always an error, even though the original
// decoder never checked this case.
func TestLiteralOutOfBoundsSourceIsRejected(t *testing.T) {
	// declares a 10-byte literal but only provides 2 bytes of payload.
	block := []byte{0x0a, byte(9<<2) | tagLiteral, 'a', 'b'}
	dst := make([]byte, MaxUncompressed)
	_, _, err := decodeBlock(block, dst, DefaultConfig())
	if err == nil {
		t.Fatalf("expected out-of-bounds literal to be rejected")
	}
}

// TestCopyDirectNonOverlap covers the O >= L branch of the copy semantics.
func TestCopyDirectNonOverlap(t *testing.T) {
	// literal "abcd" (4 bytes), then copy length 4 offset 4 -> "abcd" again.
	lit := append([]byte{byte(3<<2) | tagLiteral}, []byte("abcd")...)
	copyTag := byte(0<<2) | tagCopy1 // length code 0 -> length 4
	block := append([]byte{0x08}, lit...)
	block = append(block, copyTag, 4)
	got := decodeRawBlock(t, block, DefaultConfig())
	if !bytes.Equal(got, []byte("abcdabcd")) {
		t.Fatalf("got %q, want %q", got, "abcdabcd")
	}
}

// TestVarintOverflowRejected: a varint whose payload would overflow 32 bits
// fails without touching the output buffer.
func TestVarintOverflowRejected(t *testing.T) {
	block := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x0f}
	dst := make([]byte, MaxUncompressed)
	_, _, err := decodeBlock(block, dst, DefaultConfig())
	if err == nil {
		t.Fatalf("expected varint overflow error")
	}
}

// TestDeclaredLengthExceedsMax covers the declared-length ceiling check.
func TestDeclaredLengthExceedsMax(t *testing.T) {
	// varint for 65537 (one over MaxUncompressed): 0x81 0x80 0x04
	block := []byte{0x81, 0x80, 0x04}
	dst := make([]byte, MaxUncompressed)
	_, _, err := decodeBlock(block, dst, DefaultConfig())
	if err == nil {
		t.Fatalf("expected declared length to be rejected")
	}
}
