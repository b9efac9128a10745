package flatten

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DecodeError is returned by Decode for content that is not valid UTF-8.
type DecodeError struct {
	Offset int
	Byte   byte
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("invalid UTF-8 byte 0x%02x at offset %d", err.Byte, err.Offset)
}

// Decode decodes data as UTF-8 text. Line endings are normalized: "\r\n" and
// lone "\r" both become "\n". Decode returns a *DecodeError if data is not
// valid UTF-8.
func Decode(data []byte) (string, error) {
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return "", &DecodeError{Offset: i, Byte: data[i]}
		}
		i += size
	}

	text := string(data)
	if strings.IndexByte(text, '\r') < 0 {
		return text, nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}
