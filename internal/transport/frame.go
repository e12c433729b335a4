// Package transport implements the Framed Transport (§4.1): a
// length-prefixed duplex byte stream over either a raw tcp:// net.Conn
// or a tls:// gRPC bidirectional-stream tunnel, both presenting the same
// Connection interface to the rest of the system. There is no version
// negotiation: every tcp:// frame carries a version byte that must equal
// ProtocolVersion, and tls:// messages carry no version byte.
//
// Grounded on the teacher's Commu connection handling
// (network/coordinator/conn.go): the same "read loop + write with
// deadline" shape, generalized from newline-delimited JSON frames to the
// spec's fixed 1-byte-version + 4-byte-length + payload framing.
package transport

import (
	"encoding/binary"
	"io"
)

// ProtocolVersion is the only version this platform speaks (§6 "resolves
// Open Question 1" — no compile-time flag-gated versions, a single
// constant).
const ProtocolVersion uint8 = 1

// MaxFrameLength bounds a single frame's payload size; frames larger than
// this are rejected with ProtocolError rather than read into memory.
const MaxFrameLength uint32 = 16 * 1024 * 1024

const frameHeaderLen = 1 + 4 // version byte + big-endian length

// writeFrame writes one version-prefixed, length-prefixed frame. A
// zero-length payload is legal (§8 "frame-length 0 legal").
func writeFrame(w io.Writer, payload []byte) error {
	if uint32(len(payload)) > MaxFrameLength {
		return errProtocol("frame payload length %d exceeds max %d", len(payload), MaxFrameLength)
	}
	header := make([]byte, frameHeaderLen)
	header[0] = ProtocolVersion
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return errIO("write frame header", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return errIO("write frame payload", err)
	}
	return nil
}

// readFrame reads one frame, validating its version and length.
func readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, frameHeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errDisconnected("connection closed mid-frame")
		}
		return nil, errIO("read frame header", err)
	}
	version := header[0]
	if version != ProtocolVersion {
		return nil, errUnsupportedVersion(version, ProtocolVersion, ProtocolVersion)
	}
	length := binary.BigEndian.Uint32(header[1:])
	if length > MaxFrameLength {
		return nil, errProtocol("frame payload length %d exceeds max %d", length, MaxFrameLength)
	}
	if length == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errDisconnected("connection closed mid-frame")
		}
		return nil, errIO("read frame payload", err)
	}
	return payload, nil
}
