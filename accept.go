package webd

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/net/http/httpguts"

	"webd.dev/webd/internal/errd"
)

// Accept upgrades a net/http request to a WebSocket Session.
//
// It is the bridge for embedders already running an HTTP stack: any router
// whose ResponseWriter implements http.Hijacker can hand connections to webd.
// Requests without the upgrade headers get ErrNotWebSocket and the
// ResponseWriter stays usable; protocol violations are answered with a 400
// before the error is returned.
func Accept(w http.ResponseWriter, r *http.Request) (_ *Session, err error) {
	defer errd.Wrap(&err, "failed to accept websocket connection")

	if !httpguts.HeaderValuesContainsToken(r.Header["Connection"], "Upgrade") {
		return nil, ErrNotWebSocket
	}
	if !httpguts.HeaderValuesContainsToken(r.Header["Upgrade"], "websocket") {
		return nil, ErrNotWebSocket
	}

	if r.Method != "GET" {
		err := errInput("handshake request method is not GET but %q", r.Method)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, err
	}

	key := r.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		err := errInput("missing Sec-WebSocket-Key")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, err
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, errors.New("response writer does not implement http.Hijacker")
	}

	netConn, brw, err := hj.Hijack()
	if err != nil {
		return nil, fmt.Errorf("failed to hijack connection: %w", err)
	}

	err = writeUpgradeResponse(netConn, secWebSocketAccept(key))
	if err != nil {
		netConn.Close()
		return nil, err
	}

	// brw.Reader may already hold bytes the client sent after the handshake.
	// Rewrapping drains it first while growing the session's buffer to
	// readBufferSize; the hijacked buffer is only 4096 bytes.
	br := bufio.NewReaderSize(brw.Reader, readBufferSize)
	return newSession(requestFromHTTP(r), br, netConn), nil
}

func requestFromHTTP(r *http.Request) *Request {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		// Mirror the raw parser: for a repeated header the last value wins.
		headers[name] = values[len(values)-1]
	}
	return &Request{
		Version: r.Proto,
		Verb:    VerbGet,
		Path:    r.URL.RequestURI(),
		Headers: headers,
	}
}
