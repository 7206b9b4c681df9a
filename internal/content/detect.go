package content

import (
	"bufio"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how many leading bytes DetectType looks at.
const sniffLen = 3072

// DetectType returns the media type of data, e.g. "text/html; charset=utf-8".
func DetectType(data []byte) string {
	return mimetype.Detect(data).String()
}

// Sniff detects the media type of r without consuming it. The returned
// reader yields the full stream.
func Sniff(r io.Reader) (string, io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", br, err
	}
	return DetectType(head), br, nil
}
