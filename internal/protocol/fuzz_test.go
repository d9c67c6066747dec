package protocol

import (
	"testing"
)

// FuzzDecodeHeader feeds arbitrary byte streams through DecodeHeader,
// which must never panic no matter how malformed the input is: every
// rejection path returns an error instead.
func FuzzDecodeHeader(f *testing.F) {
	f.Add([]byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x01})
	f.Add([]byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x01, 0x0c, 0xb4})
	f.Add([]byte{})
	f.Add([]byte{0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		h, n, err := DecodeHeader(data)
		if err != nil {
			return
		}
		if n < HeaderSize || n > len(data) {
			t.Fatalf("DecodeHeader reported consumed=%d for input of length %d", n, len(data))
		}
		if h.Version != Version {
			t.Fatalf("DecodeHeader accepted unsupported version %d", h.Version)
		}
	})
}

// FuzzDecodeFrame feeds arbitrary byte streams through DecodeFrame; it
// must never panic, even when the header parses but the payload slice
// it implies runs past the end of the input.
func FuzzDecodeFrame(f *testing.F) {
	h := Header{Version: Version, Type: FrameReadResponse, Options: OptWordSize16, Address: 100, Blocksize: 1}
	raw, _ := EncodeFrame(h, []byte{0x64, 0x00})
	f.Add(raw)
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeFrame(data)
	})
}
