package flatten

import (
	"fmt"
	"io"
)

const blockSeparator = "\n\n"

// Header returns the marker line that introduces the block of the file at the
// given relative path, including the trailing newline.
func Header(path string) string {
	return fmt.Sprintf("--- FILE: %s ---\n", path)
}

// Block returns the complete block of a file: its header line, its content
// and a blank line of separation.
func Block(path, content string) string {
	return Header(path) + content + blockSeparator
}

// WriteBlock writes the block of the file at path with the given content to w
// and returns the number of bytes written.
func WriteBlock(w io.Writer, path, content string) (int, error) {
	var written int
	for _, part := range [...]string{Header(path), content, blockSeparator} {
		n, err := io.WriteString(w, part)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
