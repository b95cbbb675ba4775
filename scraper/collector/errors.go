package collector

import (
	"fmt"
	"strings"
)

const maxSnippet = 512

// CollectionError reports that the collector process could not produce output:
// it failed to start, exited non-zero, timed out or was cancelled.
type CollectionError struct {
	Op       string
	ExitCode int
	Timeout  bool
	Stderr   string
	Err      error
}

func (e *CollectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "collector %s", e.Op)
	switch {
	case e.Timeout:
		b.WriteString(": timed out")
	case e.ExitCode > 0:
		fmt.Fprintf(&b, ": exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", e.Stderr)
	}
	return b.String()
}

func (e *CollectionError) Unwrap() error { return e.Err }

// ParseError reports collector output that holds no usable listing payload.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("collector output unparseable: %v (output starts %q)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxSnippet {
		s = s[:maxSnippet] + "..."
	}
	return s
}
