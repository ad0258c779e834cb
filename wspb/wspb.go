// Package wspb provides helpers for reading and writing protobuf messages.
package wspb

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	"webd.dev/webd"
	"webd.dev/webd/internal/errd"
)

// Read blocks for the next binary message on s and unmarshals it into v.
func Read(s *webd.Session, v proto.Message) (err error) {
	defer errd.Wrap(&err, "failed to read protobuf")

	m, err := s.NextMessage()
	if err != nil {
		return err
	}
	if m.Type != webd.MessageBinary {
		return fmt.Errorf("unexpected message type for protobuf (expected %v): %v", webd.MessageBinary, m.Type)
	}

	return proto.Unmarshal(m.Data, v)
}

// Write marshals v and sends it as a single binary message on s.
func Write(s *webd.Session, v proto.Message) (err error) {
	defer errd.Wrap(&err, "failed to write protobuf")

	b, err := proto.Marshal(v)
	if err != nil {
		return err
	}

	_, err = s.SendBinary(b)
	return err
}
