package webd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"webd.dev/webd/internal/errd"
)

// readBufferSize is the size of a Session's read buffer and therefore the
// largest frame a Session can receive in one piece.
const readBufferSize = 32768

// MessageType represents the type of a WebSocket data message.
type MessageType int

// MessageType constants.
const (
	MessageText   = MessageType(OpText)
	MessageBinary = MessageType(OpBinary)
)

func (t MessageType) String() string {
	return Opcode(t).String()
}

// Message is one complete, unmasked WebSocket message. A message fragmented
// across continuation frames is reassembled before it is surfaced.
type Message struct {
	Type MessageType
	Data []byte
}

// Text returns the message payload as a string.
func (m *Message) Text() string {
	return string(m.Data)
}

// Session is an upgraded WebSocket connection.
//
// A Session owns its stream exclusively for the lifetime of the conversation.
// It starts open and closes permanently when a close frame arrives or any
// read, write or protocol error occurs; a closed Session receives nothing and
// refuses to send.
type Session struct {
	req  *Request
	br   *bufio.Reader
	w    io.Writer
	open bool

	// Reassembly state for a fragmented message in progress.
	assembling bool
	msgType    MessageType
	msgBuf     []byte
}

func newSession(req *Request, br *bufio.Reader, w io.Writer) *Session {
	return &Session{
		req:  req,
		br:   br,
		w:    w,
		open: true,
	}
}

// Request returns the HTTP request that initiated the upgrade.
func (s *Session) Request() *Request {
	return s.req
}

// Open reports whether the session can still send and receive.
func (s *Session) Open() bool {
	return s.open
}

// Close closes the session, and the underlying stream when it is closable.
// Closing the stream is the only way to interrupt a blocked NextMessage.
func (s *Session) Close() error {
	s.open = false
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Recv returns the next complete data message, or (nil, nil) when no complete
// message is buffered yet. It never waits for a partial frame to finish
// arriving: it blocks only when the read buffer is completely empty, so
// callers wanting blocking semantics should use NextMessage or loop around a
// buffer fill.
//
// Control frames are handled internally: a ping is answered with a pong
// carrying the same payload, a pong is discarded and a close frame closes the
// session. After a close frame, and on a closed session generally, Recv
// returns (nil, nil) forever.
func (s *Session) Recv() (_ *Message, err error) {
	defer errd.Wrap(&err, "failed to receive message")

	if !s.open {
		return nil, nil
	}

	if s.br.Buffered() == 0 {
		_, err = s.br.Peek(1)
		if err != nil {
			s.open = false
			return nil, err
		}
	}

	for {
		buf, _ := s.br.Peek(s.br.Buffered())

		h, err := ParseFrameHeader(buf)
		if errors.Is(err, ErrShortHeader) {
			return nil, nil
		}
		if err != nil {
			s.open = false
			return nil, err
		}
		if h.FrameLength() > int64(len(buf)) {
			// The header fit but the payload has not fully arrived.
			return nil, nil
		}

		payload := append([]byte(nil), buf[h.HeaderLength:h.FrameLength()]...)
		if h.Masked {
			mask(h.MaskKey, payload)
		}

		_, err = s.br.Discard(int(h.FrameLength()))
		if err != nil {
			s.open = false
			return nil, err
		}

		m, err := s.handleFrame(h, payload)
		if err != nil {
			s.open = false
			return nil, err
		}
		if m != nil {
			return m, nil
		}
		if !s.open || s.br.Buffered() == 0 {
			return nil, nil
		}
	}
}

func (s *Session) handleFrame(h FrameHeader, payload []byte) (*Message, error) {
	if h.Opcode.control() {
		if !h.Fin {
			return nil, errInput("received fragmented control frame")
		}
		switch h.Opcode {
		case OpClose:
			s.open = false
			return nil, nil
		case OpPing:
			_, err := s.writeFrame(OpPong, payload)
			return nil, err
		case OpPong:
			return nil, nil
		}
	}

	switch h.Opcode {
	case OpText, OpBinary:
		if s.assembling {
			return nil, errInput("received %v frame inside a fragmented message", h.Opcode)
		}
		if h.Fin {
			return s.finishMessage(MessageType(h.Opcode), payload)
		}
		s.assembling = true
		s.msgType = MessageType(h.Opcode)
		s.msgBuf = append(s.msgBuf[:0], payload...)
		return nil, nil
	case OpContinuation:
		if !s.assembling {
			return nil, errInput("received continuation frame outside a fragmented message")
		}
		s.msgBuf = append(s.msgBuf, payload...)
		if !h.Fin {
			return nil, nil
		}
		s.assembling = false
		return s.finishMessage(s.msgType, append([]byte(nil), s.msgBuf...))
	}

	panic(fmt.Sprintf("webd: unhandled opcode %v", h.Opcode))
}

func (s *Session) finishMessage(typ MessageType, data []byte) (*Message, error) {
	if typ == MessageText && !utf8.Valid(data) {
		return nil, errInput("text message is not valid UTF-8")
	}
	return &Message{
		Type: typ,
		Data: data,
	}, nil
}

// NextMessage blocks until a complete data message arrives, the session
// closes or the stream fails. Unlike Recv it never returns (nil, nil): a
// session closed by the peer yields ErrClosed.
func (s *Session) NextMessage() (*Message, error) {
	for {
		m, err := s.Recv()
		if m != nil || err != nil {
			return m, err
		}
		if !s.open {
			return nil, ErrClosed
		}

		// Recv made no progress on the buffered bytes, so force at least one
		// more byte in. A frame larger than the buffer can never complete.
		want := s.br.Buffered() + 1
		if want > s.br.Size() {
			s.open = false
			return nil, errInput("frame exceeds %d byte read buffer", s.br.Size())
		}
		_, err = s.br.Peek(want)
		if err != nil {
			s.open = false
			return nil, fmt.Errorf("failed to receive message: %w", err)
		}
	}
}

// SendText sends msg as a single unmasked text frame and returns the total
// number of bytes written, header included.
func (s *Session) SendText(msg string) (int, error) {
	return s.send(OpText, []byte(msg))
}

// SendBinary sends p as a single unmasked binary frame and returns the total
// number of bytes written, header included.
func (s *Session) SendBinary(p []byte) (int, error) {
	return s.send(OpBinary, p)
}

func (s *Session) send(op Opcode, payload []byte) (_ int, err error) {
	defer errd.Wrap(&err, "failed to send %v message", op)

	if !s.open {
		return 0, ErrClosed
	}
	return s.writeFrame(op, payload)
}

// writeFrame writes a final unmasked frame: header bytes first, payload
// immediately after. Any write failure is fatal to the session.
func (s *Session) writeFrame(op Opcode, payload []byte) (int, error) {
	h := FrameHeader{
		Fin:           true,
		Opcode:        op,
		HeaderLength:  headerSize(int64(len(payload)), false),
		PayloadLength: int64(len(payload)),
	}

	hn, err := h.WriteTo(s.w)
	if err != nil {
		s.open = false
		return int(hn), err
	}
	pn, err := s.w.Write(payload)
	if err != nil {
		s.open = false
	}
	return int(hn) + pn, err
}
