package content

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// ErrUnsupportedEncoding is returned for a Content-Encoding Decode cannot undo.
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

// Decode wraps body so reads yield the decoded payload. encoding is a
// Content-Encoding value; codings listed in it were applied in order and
// are undone in reverse. Closing the result closes body.
func Decode(encoding string, body io.ReadCloser) (io.ReadCloser, error) {
	codings := strings.Split(encoding, ",")

	var r io.Reader = body
	closers := []io.Closer{body}
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		switch coding {
		case "", "identity":
			continue
		case "gzip", "x-gzip":
			gz, err := gzip.NewReader(r)
			if err != nil {
				return nil, fmt.Errorf("gzip: %w", err)
			}
			r = gz
			closers = append(closers, gz)
		case "deflate":
			zr, err := zlib.NewReader(r)
			if err != nil {
				return nil, fmt.Errorf("deflate: %w", err)
			}
			r = zr
			closers = append(closers, zr)
		case "br":
			r = brotli.NewReader(r)
		case "zstd":
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, fmt.Errorf("zstd: %w", err)
			}
			r = zr
			closers = append(closers, zstdCloser{zr})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, coding)
		}
	}
	return &decoded{Reader: r, closers: closers}, nil
}

type decoded struct {
	io.Reader
	closers []io.Closer
}

// Close closes decoders innermost first, then the body.
func (d *decoded) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}
