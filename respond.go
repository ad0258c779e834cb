package webd

import (
	"fmt"
	"io"
	"log"
	"os"

	"webd.dev/webd/internal/errd"
)

// ServerName identifies webd in the Server response header.
const ServerName = "webd 0.1"

// WriteStatus writes the status line and the standard response headers,
// terminated by the blank line that separates headers from the body. The
// caller writes the body itself, contentLength bytes of it.
func WriteStatus(w io.Writer, status Status, contentType string, contentLength int64) (err error) {
	defer errd.Wrap(&err, "failed to write response headers")

	log.Printf("webd: => %v", status)

	_, err = fmt.Fprintf(w, "HTTP/1.0 %v\n", status)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Server: %v\n", ServerName)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Content-Type: %v\n", contentType)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Content-Length: %v\n", contentLength)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteText writes a complete response with body as the content.
func WriteText(w io.Writer, status Status, contentType, body string) (err error) {
	defer errd.Wrap(&err, "failed to write response")

	err = WriteStatus(w, status, contentType, int64(len(body)))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, body)
	return err
}

// WriteFile writes a complete response with the contents of the named file as
// the body, streamed rather than read into memory.
func WriteFile(w io.Writer, status Status, contentType, name string) (err error) {
	defer errd.Wrap(&err, "failed to write file response")

	fi, err := os.Stat(name)
	if err != nil {
		return err
	}
	err = WriteStatus(w, status, contentType, fi.Size())
	if err != nil {
		return err
	}

	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
