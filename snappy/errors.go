package snappy

import "errors"

// Sentinel error kinds. Every format, bounds and checksum error surfaced by
// this package wraps one of these with github.com/pkg/errors so callers can
// still recover the kind with errors.Is while getting context from Error().
// I/O errors from the underlying reader or writer are passed through
// (wrapped with context, or promoted to io.ErrUnexpectedEOF) without a
// sentinel.
var (
	// ErrBadVarint is returned when the uncompressed-length varint prefix
	// does not fit in 31 bits or runs past the end of the block.
	ErrBadVarint = errors.New("snappy: invalid varint length prefix")

	// ErrTooLarge is returned when a declared uncompressed length exceeds
	// MaxUncompressed.
	ErrTooLarge = errors.New("snappy: uncompressed length exceeds maximum block size")

	// ErrLiteralBounds is returned when a literal element's source or
	// destination span would run past its buffer.
	ErrLiteralBounds = errors.New("snappy: literal element out of bounds")

	// ErrCopyBounds is returned when a back-reference copy is invalid
	// (zero or out-of-range offset, or destination overrun) and
	// Config.IgnoreOffsetErrors is not set. It is also returned, whatever
	// the config, for a copy element truncated by the end of the block and
	// for a substitution that would run past the output buffer.
	ErrCopyBounds = errors.New("snappy: copy element out of bounds")

	// ErrUnknownTag names a tag byte whose element kind bits do not
	// resolve to one of the four known element kinds. No decoding path
	// returns it: the low two bits always select one of the four cases.
	ErrUnknownTag = errors.New("snappy: unrecognized tag element")

	// ErrChecksumMismatch is returned when a compressed-data chunk's
	// stored masked CRC does not match the recomputed CRC of the decoded
	// bytes, and Config.ConsiderCRCErrors is set.
	ErrChecksumMismatch = errors.New("snappy: checksum mismatch")

	// ErrMagic is returned when the stream identifier chunk's payload does
	// not match the reference magic and Config.IgnoreMagic is not set.
	ErrMagic = errors.New("snappy: invalid stream identifier")

	// ErrMissingStreamIdentifier is returned when the first chunk of a
	// framed stream is not a stream identifier chunk.
	ErrMissingStreamIdentifier = errors.New("snappy: missing stream identifier")

	// ErrUnimplementedChunk is returned for chunk types this decoder does
	// not implement: uncompressed data (0x01) and padding (0xFE).
	ErrUnimplementedChunk = errors.New("snappy: unimplemented chunk type")

	// ErrUnskippableChunk is returned for an unrecognized chunk type in
	// the reserved unskippable range [0x02, 0x7F].
	ErrUnskippableChunk = errors.New("snappy: unskippable reserved chunk type")
)
