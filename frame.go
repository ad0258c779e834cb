package webd

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Opcode is a WebSocket frame opcode.
// This is how the WebSocket RFC capitalizes it.
type Opcode int

// https://tools.ietf.org/html/rfc6455#section-11.8.
const (
	OpContinuation Opcode = iota
	OpText
	OpBinary
	// 3 - 7 are reserved for further non-control frames.
	_
	_
	_
	_
	_
	OpClose
	OpPing
	OpPong
	// 11-16 are reserved for further control frames.
)

func (o Opcode) valid() bool {
	switch o {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	}
	return false
}

func (o Opcode) control() bool {
	switch o {
	case OpClose, OpPing, OpPong:
		return true
	}
	return false
}

func (o Opcode) data() bool {
	switch o {
	case OpText, OpBinary:
		return true
	}
	return false
}

func (o Opcode) String() string {
	switch o {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	}
	return fmt.Sprintf("Opcode(%d)", int(o))
}

// First byte contains fin and the opcode nibble.
// Second byte contains the mask flag and the base payload length.
// Next 8 bytes are the maximum extended payload length.
// Last 4 bytes are the mask key.
// https://tools.ietf.org/html/rfc6455#section-5.2
const maxHeaderSize = 1 + 1 + 8 + 4

// FrameHeader describes one WebSocket frame.
// See https://tools.ietf.org/html/rfc6455#section-5.2
type FrameHeader struct {
	Fin    bool
	Opcode Opcode

	// HeaderLength is the number of bytes the header itself occupies on the
	// wire; the payload starts at this offset.
	HeaderLength int

	// PayloadLength is an int64 because the RFC mandates the most significant
	// bit of the 64-bit length cannot be set, so a frame can never carry a
	// negative length.
	PayloadLength int64

	Masked  bool
	MaskKey [4]byte
}

// FrameLength is the total number of bytes the frame occupies on the wire.
func (h FrameHeader) FrameLength() int64 {
	return int64(h.HeaderLength) + h.PayloadLength
}

// ParseFrameHeader decodes the frame header at the start of b.
//
// If b is too short to hold the full header it returns ErrShortHeader and the
// caller should retry once more bytes have been buffered. An unknown opcode
// nibble or a 64-bit length that cannot be represented is an *InputError; the
// frame cannot be skipped and the connection should be torn down.
//
// Success means only that the header fit in b. Before touching the payload
// region the caller must check len(b) >= h.FrameLength().
func ParseFrameHeader(b []byte) (FrameHeader, error) {
	if len(b) < 2 {
		return FrameHeader{}, ErrShortHeader
	}

	var h FrameHeader
	h.Fin = b[0]&(1<<7) != 0
	h.Opcode = Opcode(b[0] & 0xf)
	if !h.Opcode.valid() {
		return FrameHeader{}, errInput("unknown opcode: %#x", int(b[0]&0xf))
	}

	h.Masked = b[1]&(1<<7) != 0

	used := 2
	switch l := b[1] &^ (1 << 7); {
	case l < 126:
		h.PayloadLength = int64(l)
	case l == 126:
		if len(b) < 4 {
			return FrameHeader{}, ErrShortHeader
		}
		h.PayloadLength = int64(binary.BigEndian.Uint16(b[2:]))
		used += 2
	default:
		if len(b) < 10 {
			return FrameHeader{}, ErrShortHeader
		}
		v := binary.BigEndian.Uint64(b[2:])
		if v > math.MaxInt64 {
			return FrameHeader{}, errInput("frame payload length %d out of range", v)
		}
		h.PayloadLength = int64(v)
		used += 8
	}

	if h.Masked {
		if len(b) < used+4 {
			return FrameHeader{}, ErrShortHeader
		}
		copy(h.MaskKey[:], b[used:])
		used += 4
	}

	h.HeaderLength = used
	return h, nil
}

// Bytes appends the wire form of the header to b and returns the result.
// If b is nil a buffer of the maximum header size is allocated.
// See https://tools.ietf.org/html/rfc6455#section-5.2
func (h FrameHeader) Bytes(b []byte) []byte {
	if b == nil {
		b = make([]byte, 0, maxHeaderSize)
	}

	var b0 byte
	if h.Fin {
		b0 |= 1 << 7
	}
	b0 |= byte(h.Opcode)
	b = append(b, b0)

	var b1 byte
	if h.Masked {
		b1 |= 1 << 7
	}

	var ext [8]byte
	switch {
	case h.PayloadLength > math.MaxUint16:
		b = append(b, b1|127)
		binary.BigEndian.PutUint64(ext[:], uint64(h.PayloadLength))
		b = append(b, ext[:]...)
	case h.PayloadLength > 125:
		b = append(b, b1|126)
		binary.BigEndian.PutUint16(ext[:2], uint16(h.PayloadLength))
		b = append(b, ext[:2]...)
	default:
		b = append(b, b1|byte(h.PayloadLength))
	}

	if h.Masked {
		b = append(b, h.MaskKey[:]...)
	}

	return b
}

// WriteTo writes the header bytes to w. The payload must follow in a separate
// write; webd sends header and payload back to back rather than coalescing.
func (h FrameHeader) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(h.Bytes(nil))
	return int64(n), err
}

// headerSize returns the wire size of a header for the given payload length
// and mask flag, mirroring the minimal-width selection in Bytes.
func headerSize(payloadLength int64, masked bool) int {
	n := 2
	switch {
	case payloadLength > math.MaxUint16:
		n += 8
	case payloadLength > 125:
		n += 2
	}
	if masked {
		n += 4
	}
	return n
}

// FinalTextHeader is the header of a single-frame unmasked text message,
// the common server-to-client send.
func FinalTextHeader(payloadLength int64) FrameHeader {
	return FrameHeader{
		Fin:           true,
		Opcode:        OpText,
		HeaderLength:  headerSize(payloadLength, false),
		PayloadLength: payloadLength,
	}
}
