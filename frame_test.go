package webd

import (
	"bytes"
	"math"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/gobwas/ws"

	"webd.dev/webd/internal/test/assert"
)

func TestFrameHeader(t *testing.T) {
	t.Parallel()

	t.Run("lengths", func(t *testing.T) {
		t.Parallel()

		lengths := []int64{
			0,
			1,
			124,
			125,
			126,
			127,
			65534,
			65535,
			65536,
			65537,
		}

		for _, n := range lengths {
			n := n
			t.Run(strconv.FormatInt(n, 10), func(t *testing.T) {
				t.Parallel()

				testFrameHeader(t, FrameHeader{
					Fin:           true,
					Opcode:        OpText,
					PayloadLength: n,
				})
				testFrameHeader(t, FrameHeader{
					Opcode:        OpBinary,
					PayloadLength: n,
					Masked:        true,
					MaskKey:       [4]byte{0xde, 0xad, 0xbe, 0xef},
				})
			})
		}
	})

	t.Run("fuzz", func(t *testing.T) {
		t.Parallel()

		opcodes := []Opcode{OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong}

		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		randBool := func() bool {
			return r.Intn(2) == 0
		}

		for i := 0; i < 10000; i++ {
			h := FrameHeader{
				Fin:           randBool(),
				Opcode:        opcodes[r.Intn(len(opcodes))],
				PayloadLength: r.Int63(),
				Masked:        randBool(),
			}
			if h.Masked {
				r.Read(h.MaskKey[:])
			}

			testFrameHeader(t, h)
		}
	})
}

// testFrameHeader serializes h, parses the result back and checks the round
// trip is the identity. h.HeaderLength is filled in so the parsed header can
// be compared wholesale.
func testFrameHeader(t *testing.T, h FrameHeader) {
	t.Helper()

	h.HeaderLength = headerSize(h.PayloadLength, h.Masked)

	b := h.Bytes(nil)
	assert.Equal(t, "serialized header length", h.HeaderLength, len(b))

	h2, err := ParseFrameHeader(b)
	assert.Success(t, err)
	assert.Equal(t, "parsed header", h, h2)
}

func TestParseFrameHeaderShort(t *testing.T) {
	t.Parallel()

	full := FrameHeader{
		Fin:           true,
		Opcode:        OpText,
		PayloadLength: 65536,
		Masked:        true,
		MaskKey:       [4]byte{1, 2, 3, 4},
	}.Bytes(nil)

	// Every strict prefix of the header is insufficient data, never an error
	// and never a bogus parse.
	for n := 0; n < len(full); n++ {
		_, err := ParseFrameHeader(full[:n])
		assert.ErrorIs(t, ErrShortHeader, err)
	}

	_, err := ParseFrameHeader(full)
	assert.Success(t, err)
}

func TestParseFrameHeaderMalformed(t *testing.T) {
	t.Parallel()

	t.Run("unknownOpcode", func(t *testing.T) {
		t.Parallel()

		// 0x3 is a reserved non-control opcode.
		_, err := ParseFrameHeader([]byte{0x83, 0x00})
		assert.Error(t, err)
		assert.Contains(t, err, "unknown opcode")
		if !IsInputError(err) {
			t.Fatalf("expected input error, got %v", err)
		}
	})

	t.Run("lengthOverflow", func(t *testing.T) {
		t.Parallel()

		b := []byte{0x81, 127, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
		_, err := ParseFrameHeader(b)
		assert.Error(t, err)
		assert.Contains(t, err, "out of range")
		if !IsInputError(err) {
			t.Fatalf("expected input error, got %v", err)
		}
	})
}

func TestFrameLength(t *testing.T) {
	t.Parallel()

	h, err := ParseFrameHeader([]byte{0x81, 0x80 | 126, 0x01, 0x00, 1, 2, 3, 4})
	assert.Success(t, err)
	assert.Equal(t, "header length", 8, h.HeaderLength)
	assert.Equal(t, "payload length", int64(256), h.PayloadLength)
	assert.Equal(t, "frame length", int64(264), h.FrameLength())
}

func TestFinalTextHeader(t *testing.T) {
	t.Parallel()

	for _, n := range []int64{0, 125, 126, 65535, 65536} {
		h := FinalTextHeader(n)
		assert.Equal(t, "fin", true, h.Fin)
		assert.Equal(t, "opcode", OpText, h.Opcode)
		assert.Equal(t, "masked", false, h.Masked)
		assert.Equal(t, "payload length", n, h.PayloadLength)
		assert.Equal(t, "header length", len(h.Bytes(nil)), h.HeaderLength)
	}
}

// TestFrameHeaderGobwas cross-checks the serializer against gobwas/ws, which
// produces the identical wire encoding.
func TestFrameHeaderGobwas(t *testing.T) {
	t.Parallel()

	headers := []FrameHeader{
		{Fin: true, Opcode: OpText, PayloadLength: 5},
		{Fin: true, Opcode: OpBinary, PayloadLength: 125},
		{Opcode: OpContinuation, PayloadLength: 126},
		{Fin: true, Opcode: OpPing, PayloadLength: 0},
		{Fin: true, Opcode: OpText, PayloadLength: 65535, Masked: true, MaskKey: [4]byte{5, 6, 7, 8}},
		{Fin: true, Opcode: OpBinary, PayloadLength: 65536},
		{Fin: true, Opcode: OpClose, PayloadLength: 2, Masked: true, MaskKey: [4]byte{0xff, 0, 0xff, 0}},
		{Fin: true, Opcode: OpText, PayloadLength: math.MaxInt64},
	}

	for _, h := range headers {
		gh := ws.Header{
			Fin:    h.Fin,
			OpCode: ws.OpCode(h.Opcode),
			Length: h.PayloadLength,
			Masked: h.Masked,
			Mask:   h.MaskKey,
		}

		b := &bytes.Buffer{}
		err := ws.WriteHeader(b, gh)
		assert.Success(t, err)

		assert.Equal(t, "header bytes", b.Bytes(), h.Bytes(nil))
	}
}
