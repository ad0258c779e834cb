package wsjson_test

import (
	"net"
	"testing"

	"github.com/gorilla/websocket"

	"webd.dev/webd"
	"webd.dev/webd/internal/test/assert"
	"webd.dev/webd/wsjson"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "localhost:0")
	assert.Success(t, err)
	t.Cleanup(func() {
		l.Close()
	})

	go webd.Serve(l, func(req *webd.Request, conn net.Conn) error {
		s, err := webd.Upgrade(req, conn)
		if err != nil {
			return nil
		}

		var v map[string]interface{}
		err = wsjson.Read(s, &v)
		if err != nil {
			return nil
		}
		_ = wsjson.Write(s, v)
		return nil
	})

	c, _, err := websocket.DefaultDialer.Dial("ws://"+l.Addr().String(), nil)
	assert.Success(t, err)
	defer c.Close()

	exp := map[string]interface{}{
		"hello": "world",
		"n":     float64(3),
	}
	err = c.WriteJSON(exp)
	assert.Success(t, err)

	var got map[string]interface{}
	err = c.ReadJSON(&got)
	assert.Success(t, err)
	assert.Equal(t, "round tripped value", exp, got)
}

func TestWriteNotMarshalable(t *testing.T) {
	t.Parallel()

	// Marshaling fails before the session is touched.
	err := wsjson.Write(nil, func() {})
	assert.Error(t, err)
}
