/*
Package proto defines the wire protocol: the client and server message
vocabularies and the length-prefixed binary frame codec that carries them.

This file implements the frame codec. A frame is a u32 little-endian payload
length followed by exactly that many payload bytes. Payload fields use
fixed-width little-endian integers; strings and sequences are prefixed with
a u32 little-endian element count.
*/
package proto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds the declared payload length of a single frame.
// A larger declaration is treated as a protocol violation.
const MaxFrameSize = 1 << 20

// payloadMarshaler is the encode capability shared by both message unions.
type payloadMarshaler interface {
	marshalPayload() ([]byte, error)
}

// WriteClientFrame encodes m and writes it to w as one frame.
func WriteClientFrame(w io.Writer, m ClientMessage) error {
	return writeFrame(w, m)
}

// WriteServerFrame encodes m and writes it to w as one frame.
func WriteServerFrame(w io.Writer, m ServerMessage) error {
	return writeFrame(w, m)
}

func writeFrame(w io.Writer, m payloadMarshaler) error {
	payload, err := m.marshalPayload()
	if err != nil {
		return err
	}

	buf := make([]byte, 0, 4+len(payload))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)

	// One Write call so a frame is never interleaved with another writer's
	// bytes at the io.Writer boundary.
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadClientFrame blocks until one full frame is available on r and decodes
// it as a ClientMessage.
func ReadClientFrame(r io.Reader) (ClientMessage, error) {
	payload, err := readPayload(r)
	if err != nil {
		return ClientMessage{}, err
	}
	return decodeClientPayload(payload)
}

// ReadServerFrame blocks until one full frame is available on r and decodes
// it as a ServerMessage.
func ReadServerFrame(r io.Reader) (ServerMessage, error) {
	payload, err := readPayload(r)
	if err != nil {
		return ServerMessage{}, err
	}
	return decodeServerPayload(payload)
}

// readPayload reads exactly one frame: 4 length bytes, then the declared
// number of payload bytes. A stream that ends before the length bytes is a
// normal close; a stream that ends mid-frame is a protocol violation.
func readPayload(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, ErrConnectionClosed
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: stream ended inside the length prefix", ErrInvalidFrameSize)
		}
		return nil, fmt.Errorf("read frame length: %w", err)
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: declared payload of %d bytes exceeds limit", ErrInvalidFrameSize, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: stream ended before %d declared payload bytes", ErrInvalidFrameSize, size)
		}
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	return payload, nil
}

// appendString appends a u32 LE length prefix and the string bytes.
func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// appendStringSlice appends a u32 LE element count and each string.
func appendStringSlice(buf []byte, ss []string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ss)))
	for _, s := range ss {
		buf = appendString(buf, s)
	}
	return buf
}

// payloadReader walks a frame payload, tracking the consumed offset so the
// decoder can verify it consumed exactly the declared byte count.
type payloadReader struct {
	buf []byte
	off int
}

func (r *payloadReader) byte() (byte, error) {
	if r.off+1 > len(r.buf) {
		return 0, fmt.Errorf("%w: truncated tag", ErrDecodingFailure)
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *payloadReader) uint16() (uint16, error) {
	if r.off+2 > len(r.buf) {
		return 0, fmt.Errorf("%w: truncated u16", ErrDecodingFailure)
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *payloadReader) uint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, fmt.Errorf("%w: truncated u32", ErrDecodingFailure)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *payloadReader) string() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.buf) {
		return "", fmt.Errorf("%w: string of %d bytes overruns payload", ErrDecodingFailure, n)
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

func (r *payloadReader) stringSlice() ([]string, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	// Each element carries at least its own 4-byte length prefix, so a
	// count that cannot fit in the remaining bytes is rejected before any
	// allocation sized by it.
	if int(n) > (len(r.buf)-r.off)/4 {
		return nil, fmt.Errorf("%w: element count %d overruns payload", ErrDecodingFailure, n)
	}
	ss := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := r.string()
		if err != nil {
			return nil, err
		}
		ss = append(ss, s)
	}
	return ss, nil
}

// finish verifies the decoder consumed the whole payload. Leftover bytes
// mean the declared length and the decoded value disagree.
func (r *payloadReader) finish() error {
	if r.off != len(r.buf) {
		return fmt.Errorf("%w: %d trailing bytes after decoded value", ErrDecodingFailure, len(r.buf)-r.off)
	}
	return nil
}
