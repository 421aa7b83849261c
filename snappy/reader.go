// Package snappy decodes the Snappy compressed data format as embedded in
// a browser's on-disk HTTP cache ("morgue cache"): a framed stream of
// typed, checksummed chunks, or a single bare unframed block.
package snappy

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Reader is an io.Reader that decodes data from an underlying snappy
// framed (or, with Config.Unframed, bare) stream read from an io.Reader.
type Reader struct {
	reader io.Reader
	cfg    Config

	err error

	seenStreamID bool
	unframedDone bool

	buf bytes.Buffer

	// src holds the compressed bytes of one block, grown lazily up to
	// MaxCompressed. dst holds the decoded bytes of one block, capped at
	// MaxUncompressed. Both are owned by the Reader for its lifetime,
	// acquired once rather than per block.
	src []byte
	dst []byte

	// onCRCMismatch, if set, is invoked for every non-fatal checksum
	// mismatch (Config.ConsiderCRCErrors == false). It lets a driver log
	// the mismatch without forcing every library consumer to print
	// anything.
	onCRCMismatch func(expected, actual uint32)
}

// OnChecksumMismatch registers a callback invoked for each non-fatal
// checksum mismatch encountered while decoding.
func (r *Reader) OnChecksumMismatch(f func(expected, actual uint32)) {
	r.onCRCMismatch = f
}

// NewReader returns a new Reader. Reads from the returned Reader yield data
// decompressed from the morgue-cache snappy stream read from r, according
// to cfg. If cfg.ReadOffset is nonzero, r is advanced that many bytes
// before any framing is parsed.
func NewReader(r io.Reader, cfg Config) *Reader {
	rd := &Reader{
		reader: r,
		cfg:    cfg,
		src:    make([]byte, 4096),
		dst:    make([]byte, MaxUncompressed),
	}
	rd.err = rd.applyReadOffset()
	return rd
}

// Reset discards internal decode state and buffered output, and sets the
// underlying reader to r. The Reader's Config is unchanged, so a nonzero
// Config.ReadOffset is reapplied to rnew.
func (r *Reader) Reset(rnew io.Reader) {
	r.reader = rnew
	r.seenStreamID = false
	r.unframedDone = false
	r.buf.Reset()
	r.err = r.applyReadOffset()
}

// applyReadOffset advances r.reader by cfg.ReadOffset bytes, seeking
// directly when the underlying reader supports it and falling back to
// discarding the bytes otherwise (e.g. a pipe or stdin).
func (r *Reader) applyReadOffset() error {
	if r.cfg.ReadOffset <= 0 {
		return nil
	}
	if seeker, ok := r.reader.(io.Seeker); ok {
		if _, err := seeker.Seek(r.cfg.ReadOffset, io.SeekCurrent); err == nil {
			return nil
		}
	}
	if _, err := io.CopyN(io.Discard, r.reader, r.cfg.ReadOffset); err != nil {
		return errors.Wrap(err, "applying read offset")
	}
	return nil
}

// WriteTo implements io.WriterTo, writing all decoded data to w.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.buf.WriteTo(w)
	if err != nil {
		return n, err
	}
	for {
		var m int
		m, err = r.nextUnit(w)
		n += int64(m)
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		err = nil
	}
	return n, err
}

// Read fills b with decoded data, decoding further blocks from the
// underlying reader as needed.
func (r *Reader) Read(b []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	if r.buf.Len() < len(b) {
		_, err := r.nextUnit(&r.buf)
		if err == io.EOF {
			// The buffer may still hold unread bytes from the
			// last decoded unit; drain it before the EOF sticks.
			return r.read(b)
		}
		if err != nil {
			r.err = err
			return 0, err
		}
	}

	return r.read(b)
}

// read drains r.buf into b, remembering a terminal error (including EOF
// once the buffer is actually empty) for subsequent calls.
func (r *Reader) read(b []byte) (int, error) {
	n, err := r.buf.Read(b)
	r.err = err
	return n, err
}

// nextUnit decodes one block's worth of output to w: one frame in framed
// mode, or the entire remaining input in unframed mode (since an unframed
// stream is a single block with no chunk boundaries).
func (r *Reader) nextUnit(w io.Writer) (int, error) {
	if r.cfg.Unframed {
		if r.unframedDone {
			return 0, io.EOF
		}
		r.unframedDone = true
		return r.decodeUnframed(w)
	}
	return r.nextFrame(w)
}

// decodeUnframed reads the entire remaining input as one bare compressed
// block: no varint length prefix is expected ahead of it.
func (r *Reader) decodeUnframed(w io.Writer) (int, error) {
	cdata, err := io.ReadAll(io.LimitReader(r.reader, MaxCompressed+1))
	if err != nil {
		return 0, errors.Wrap(err, "reading unframed block")
	}
	if len(cdata) > MaxCompressed {
		return 0, errors.Wrap(ErrTooLarge, "unframed block")
	}

	n, _, err := decodeUnframedBlock(cdata, r.dst, r.cfg)
	if werr := flush(w, r.dst[:n]); werr != nil {
		return n, werr
	}
	if err != nil {
		return n, err
	}
	return n, io.EOF
}

// nextFrame reads and dispatches chunks until a compressed-data chunk is
// decoded (returning its byte count) or the stream ends.
func (r *Reader) nextFrame(w io.Writer) (int, error) {
	for {
		var typeBuf [1]byte
		_, err := io.ReadFull(r.reader, typeBuf[:])
		if err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, errors.Wrap(err, "reading chunk type")
		}
		chunkType := typeBuf[0]

		switch {
		case chunkType == chunkStreamIdentifier:
			if err := r.readStreamIdentifier(); err != nil {
				return 0, err
			}
			r.seenStreamID = true
			continue
		case chunkType == chunkCompressed:
			if !r.seenStreamID {
				return 0, errors.Wrap(ErrMissingStreamIdentifier, "before first data chunk")
			}
			return r.decodeCompressedChunk(w)
		case chunkType == chunkUncompressed || chunkType == chunkPadding:
			return 0, errors.Wrapf(ErrUnimplementedChunk, "chunk type %#x", chunkType)
		case chunkType >= unskippableLow && chunkType <= unskippableHigh:
			return 0, errors.Wrapf(ErrUnskippableChunk, "chunk type %#x", chunkType)
		case chunkType >= skippableLow && chunkType <= skippableHigh:
			// Bug-compatible with the original decoder's unknown-
			// chunk handling: no length is read or discarded here,
			// so the next byte is reinterpreted as a fresh chunk
			// type rather than skipping the chunk's payload.
			continue
		default:
			return 0, errors.Wrapf(ErrUnskippableChunk, "chunk type %#x", chunkType)
		}
	}
}

// readStreamIdentifier reads and validates a stream identifier chunk's
// fixed 9-byte payload.
func (r *Reader) readStreamIdentifier() error {
	var payload [9]byte
	if _, err := io.ReadFull(r.reader, payload[:]); err != nil {
		return errors.Wrap(noEOF(err), "reading stream identifier")
	}
	if !r.cfg.IgnoreMagic && payload != streamIdentifierPayload {
		return errors.Wrap(ErrMagic, "stream identifier payload mismatch")
	}
	return nil
}

// decodeCompressedChunk reads a compressed-data chunk's 3-byte length and
// 4-byte masked CRC header, decodes the block, verifies the checksum, and
// writes the decoded bytes to w.
func (r *Reader) decodeCompressedChunk(w io.Writer) (int, error) {
	var lenBuf [3]byte
	if _, err := io.ReadFull(r.reader, lenBuf[:]); err != nil {
		return 0, errors.Wrap(noEOF(err), "reading chunk length")
	}
	chunkLen := uint32(lenBuf[0]) | uint32(lenBuf[1])<<8 | uint32(lenBuf[2])<<16
	if chunkLen > MaxCompressed+4 || chunkLen < 4 {
		return 0, errors.Wrap(ErrTooLarge, "compressed chunk length")
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(r.reader, crcBuf[:]); err != nil {
		return 0, errors.Wrap(noEOF(err), "reading chunk checksum")
	}
	expectedCRC := binary.LittleEndian.Uint32(crcBuf[:])

	blockLen := int(chunkLen) - 4
	if blockLen > cap(r.src) {
		r.src = make([]byte, blockLen)
	}
	cdata := r.src[:blockLen]
	if _, err := io.ReadFull(r.reader, cdata); err != nil {
		return 0, errors.Wrap(noEOF(err), "reading compressed block")
	}

	n, actualCRC, decodeErr := decodeBlock(cdata, r.dst, r.cfg)

	if werr := flush(w, r.dst[:n]); werr != nil {
		return n, werr
	}
	if decodeErr != nil {
		return n, decodeErr
	}

	if actualCRC != expectedCRC {
		if r.cfg.ConsiderCRCErrors {
			return n, errors.Wrapf(ErrChecksumMismatch, "expected %#x got %#x", expectedCRC, actualCRC)
		}
		r.warnChecksumMismatch(expectedCRC, actualCRC)
	}

	return n, nil
}

// warnChecksumMismatch invokes the callback registered with
// OnChecksumMismatch, if any; the default is a silent no-op so library
// consumers are not forced to print anything.
func (r *Reader) warnChecksumMismatch(expected, actual uint32) {
	if r.onCRCMismatch != nil {
		r.onCRCMismatch(expected, actual)
	}
}

func flush(w io.Writer, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	_, err := w.Write(p)
	return err
}

// noEOF promotes io.EOF to io.ErrUnexpectedEOF for reads where running out
// of input mid-structure signals corruption rather than a clean stream end.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
