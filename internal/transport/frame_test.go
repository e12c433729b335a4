package transport

import (
	"bytes"
	"testing"

	"github.com/splinter-platform/splinter/internal/errs"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello circuit")
	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestFrameZeroLengthIsLegal(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, nil); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty payload, got %v", got)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, MaxFrameLength+1)
	err := writeFrame(&buf, oversized)
	if !errs.Is(err, errs.KindProtocol) {
		t.Fatalf("expected KindProtocol, got %v", err)
	}
}

func TestReadFrameRejectsUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(2) // unsupported version
	buf.Write([]byte{0, 0, 0, 0})
	_, err := readFrame(&buf)
	if !errs.Is(err, errs.KindUnsupportedVersion) {
		t.Fatalf("expected KindUnsupportedVersion, got %v", err)
	}
}

func TestReadFrameDetectsDisconnectMidFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(ProtocolVersion)
	buf.Write([]byte{0, 0, 0, 5}) // claims 5 bytes of payload, provides none
	_, err := readFrame(&buf)
	if !errs.Is(err, errs.KindDisconnected) {
		t.Fatalf("expected KindDisconnected, got %v", err)
	}
}
