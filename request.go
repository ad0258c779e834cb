package webd

import (
	"bufio"
	"fmt"
	"log"
	"strings"

	"webd.dev/webd/internal/errd"
)

// Verb is an HTTP request method.
//
// The set is closed: webd serves GET and rejects everything else during
// parsing, so handlers never see a verb outside these constants.
type Verb int

// Verb constants.
const (
	VerbGet Verb = iota
)

func parseVerb(s string) (Verb, bool) {
	switch s {
	case "GET":
		return VerbGet, true
	}
	return 0, false
}

func (v Verb) String() string {
	switch v {
	case VerbGet:
		return "GET"
	}
	return fmt.Sprintf("Verb(%d)", int(v))
}

// Request is a parsed HTTP request line plus headers.
//
// Headers are keyed exactly as received. For a header repeated by the client,
// the last occurrence wins. A Request is built once per connection and not
// modified afterwards.
type Request struct {
	Version string
	Verb    Verb
	Path    string
	Headers map[string]string
}

// ParseRequest reads the request line and headers from br, consuming bytes up
// to and including the blank line that separates headers from the body.
//
// A malformed request line or unknown verb yields an *InputError so the caller
// can answer with a 400; read failures propagate as I/O errors, in which case
// the connection should be considered broken.
func ParseRequest(br *bufio.Reader) (_ *Request, err error) {
	defer errd.Wrap(&err, "failed to parse request")

	line, err := br.ReadString('\n')
	if err != nil {
		return nil, err
	}

	tokens := strings.Split(strings.TrimSpace(line), " ")
	if tokens[0] == "" {
		return nil, errInput("no verb")
	}
	verb, ok := parseVerb(tokens[0])
	if !ok {
		return nil, errInput("unknown verb: %s", tokens[0])
	}
	if len(tokens) < 2 {
		return nil, errInput("no path")
	}
	path := tokens[1]
	if len(tokens) < 3 {
		return nil, errInput("no version")
	}
	version := tokens[2]

	for _, tok := range tokens[3:] {
		log.Printf("webd: unexpected request line token: %q", tok)
	}

	headers := make(map[string]string)
	for {
		line, err = br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		hdr := strings.TrimSpace(line)
		if hdr == "" {
			break
		}
		// A line with no colon is tolerated and skipped.
		name, value, ok := strings.Cut(hdr, ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return &Request{
		Version: version,
		Verb:    verb,
		Path:    path,
		Headers: headers,
	}, nil
}
