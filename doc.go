// Package webd is a minimal HTTP/1.0 server core with WebSocket upgrade support.
//
// It implements just enough of HTTP to parse a GET request and just enough of
// RFC 6455 to upgrade the connection and exchange framed messages.
// See https://tools.ietf.org/html/rfc6455
//
// The package is deliberately small: an embedder supplies the listener and a
// per-connection handler and webd does the protocol work in between.
package webd
