// Package errd implements wrapping a named error return with defer.
package errd

import (
	"fmt"
)

// Wrap wraps the pointed-to error with f if it is non nil.
// Intended for use with defer and a named error return.
func Wrap(err *error, f string, v ...interface{}) {
	if *err != nil {
		*err = fmt.Errorf(f+": %w", append(v, *err)...)
	}
}
