package webd

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"webd.dev/webd/internal/errd"
)

var keyGUID = []byte("258EAFA5-E914-47DA-95CA-C5AB0DC85B11")

func secWebSocketAccept(secWebSocketKey string) string {
	h := sha1.New()
	h.Write([]byte(secWebSocketKey))
	h.Write(keyGUID)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// headerContainsToken reports whether the comma-separated header value
// contains token. Tokens are compared case insensitively per RFC 7230.
func headerContainsToken(value, token string) bool {
	for _, t := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(t), token) {
			return true
		}
	}
	return false
}

// Upgrade attempts to switch the connection carrying req to WebSocket framing.
//
// There are three outcomes. If the request does not carry the Connection and
// Upgrade headers it is not a WebSocket request at all: Upgrade returns
// ErrNotWebSocket and leaves req and conn untouched for ordinary HTTP
// handling. If the request committed to an upgrade but is missing
// Sec-WebSocket-Key, that is an *InputError. Otherwise Upgrade writes the
// 101 Switching Protocols response and returns the established Session;
// a failure writing the response propagates as an I/O error.
func Upgrade(req *Request, conn io.ReadWriter) (_ *Session, err error) {
	defer errd.Wrap(&err, "failed to upgrade connection")

	if !headerContainsToken(req.Headers["Connection"], "Upgrade") {
		return nil, ErrNotWebSocket
	}
	if !headerContainsToken(req.Headers["Upgrade"], "websocket") {
		return nil, ErrNotWebSocket
	}

	key, ok := req.Headers["Sec-WebSocket-Key"]
	if !ok {
		return nil, errInput("missing Sec-WebSocket-Key")
	}

	err = writeUpgradeResponse(conn, secWebSocketAccept(key))
	if err != nil {
		return nil, err
	}

	return newSession(req, bufio.NewReaderSize(conn, readBufferSize), conn), nil
}

func writeUpgradeResponse(w io.Writer, accept string) (err error) {
	defer errd.Wrap(&err, "failed to write upgrade response")

	_, err = fmt.Fprintf(w, "HTTP/1.0 %v\n", StatusSwitchingProtocols)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Server: %v\n", ServerName)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "Connection: upgrade\n")
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "Upgrade: websocket\n")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Sec-WebSocket-Accept: %v\n", accept)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
