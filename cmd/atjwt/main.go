// Command atjwt checks RFC 9068 JWT access tokens against a validation policy.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintln(os.Stderr, "error:", err)
		} else if msg := err.Error(); msg != errRejected.Error() {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}
