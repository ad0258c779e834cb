// Package wsjson provides helpers for reading and writing JSON messages.
package wsjson

import (
	"encoding/json"
	"fmt"

	"webd.dev/webd"
	"webd.dev/webd/internal/errd"
)

// Read blocks for the next text message on s and unmarshals it into v.
func Read(s *webd.Session, v interface{}) (err error) {
	defer errd.Wrap(&err, "failed to read json")

	m, err := s.NextMessage()
	if err != nil {
		return err
	}
	if m.Type != webd.MessageText {
		return fmt.Errorf("unexpected message type for json (expected %v): %v", webd.MessageText, m.Type)
	}

	return json.Unmarshal(m.Data, v)
}

// Write marshals v and sends it as a single text message on s.
func Write(s *webd.Session, v interface{}) (err error) {
	defer errd.Wrap(&err, "failed to write json")

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = s.SendText(string(b))
	return err
}
