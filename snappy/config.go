package snappy

// Config is an immutable bundle of the recovery/compatibility knobs that
// alter how a Reader handles malformed or non-standard input. A Config is
// built once, before decoding begins, and never mutated afterward; there is
// no package-level state.
type Config struct {
	// Unframed treats the input as a single bare compressed block with no
	// chunk framing, rather than a snappy-framed stream.
	Unframed bool

	// IgnoreOffsetErrors, when set, turns an invalid back-reference (zero
	// or out-of-range offset, or a copy that would run past the declared
	// length) into a substitution: OffsetDummyByte is written
	// copy-length times instead of aborting the block.
	IgnoreOffsetErrors bool

	// OffsetDummyByte is the byte written for each substituted copy byte
	// when IgnoreOffsetErrors is set.
	OffsetDummyByte byte

	// IgnoreMagic accepts a stream identifier chunk whose 9-byte payload
	// does not match the reference magic.
	IgnoreMagic bool

	// ReadOffset seeks the input this many bytes forward before any
	// framing parse begins.
	ReadOffset int64

	// ConsiderCRCErrors promotes a checksum mismatch from a reported
	// warning to a fatal decode error.
	ConsiderCRCErrors bool

	// FirefoxCRC selects the non-inverting CRC32C finalization used by the
	// morgue cache's stored checksums instead of the standard Snappy mask.
	FirefoxCRC bool
}

// DefaultOffsetDummyByte is the byte substituted for invalid copies when no
// explicit value is configured.
const DefaultOffsetDummyByte = 0xFF

// DefaultConfig returns the Config a plain framed decode with no recovery
// options uses.
func DefaultConfig() Config {
	return Config{OffsetDummyByte: DefaultOffsetDummyByte}
}
