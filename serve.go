package webd

import (
	"bufio"
	"log"
	"net"
)

// App handles one parsed request. The connection is closed when App returns;
// an App that upgrades to WebSocket should run the session to completion
// before returning.
type App func(*Request, net.Conn) error

// ListenAndServe listens on addr and serves connections with app.
func ListenAndServe(addr string, app App) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer l.Close()

	log.Printf("webd: bound to %v", addr)

	return Serve(l, app)
}

// Serve accepts connections from l and processes them one at a time: each
// connection's request is parsed and handed to app, and app runs to
// completion before the next connection is accepted. Sessions never share
// state, so an embedder wanting concurrency can instead accept connections
// itself and run ParseRequest plus app per connection on its own goroutines.
//
// A request that fails to parse is answered with a 400 when the failure is an
// input error; read failures just drop the connection. An error from app or
// from l stops the loop.
func Serve(l net.Listener, app App) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}

		err = serveConn(conn, app)
		if err != nil {
			return err
		}
	}
}

// bufConn is the connection handed to an App. Reads drain the request parse
// buffer before the underlying connection, so bytes the client pipelined
// behind its request are not lost in the handoff; writes go straight through.
type bufConn struct {
	net.Conn
	br *bufio.Reader
}

func (c bufConn) Read(p []byte) (int, error) {
	return c.br.Read(p)
}

func serveConn(conn net.Conn, app App) error {
	defer conn.Close()

	br := bufio.NewReader(conn)
	req, err := ParseRequest(br)
	if err != nil {
		log.Printf("webd: problem with request: %v", err)
		if IsInputError(err) {
			err = WriteText(conn, StatusBadRequest, "text/plain", err.Error()+"\n")
			if err != nil {
				log.Printf("webd: problem sending: %v", err)
			}
		}
		return nil
	}

	log.Printf("webd: %v %v %v", req.Version, req.Verb, req.Path)

	return app(req, bufConn{Conn: conn, br: br})
}
