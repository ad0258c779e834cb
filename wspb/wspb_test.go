package wspb_test

import (
	"net"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes/wrappers"
	"github.com/gorilla/websocket"

	"webd.dev/webd"
	"webd.dev/webd/internal/test/assert"
	"webd.dev/webd/wspb"
)

func TestProtobuf(t *testing.T) {
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

		v := &wrappers.StringValue{}
		err = wspb.Read(s, v)
		if err != nil {
			return nil
		}
		_ = wspb.Write(s, v)
		return nil
	})

	c, _, err := websocket.DefaultDialer.Dial("ws://"+l.Addr().String(), nil)
	assert.Success(t, err)
	defer c.Close()

	exp := &wrappers.StringValue{Value: "hello protobuf"}
	b, err := proto.Marshal(exp)
	assert.Success(t, err)

	err = c.WriteMessage(websocket.BinaryMessage, b)
	assert.Success(t, err)

	typ, b, err := c.ReadMessage()
	assert.Success(t, err)
	assert.Equal(t, "message type", websocket.BinaryMessage, typ)

	got := &wrappers.StringValue{}
	err = proto.Unmarshal(b, got)
	assert.Success(t, err)
	if !proto.Equal(exp, got) {
		t.Fatalf("expected %v but got %v", exp, got)
	}
}
