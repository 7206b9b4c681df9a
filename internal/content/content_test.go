package content

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = "tunneled body, tunneled body, tunneled body"

func gzipped(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func deflated(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func brotlied(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func readAll(t *testing.T, encoding string, data []byte) string {
	rc, err := Decode(encoding, io.NopCloser(bytes.NewReader(data)))
	require.NoError(t, err)
	defer rc.Close()

	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(out)
}

func TestDecode(t *testing.T) {
	raw := []byte(payload)
	tests := []struct {
		name     string
		encoding string
		data     []byte
	}{
		{"identity", "", raw},
		{"explicit identity", "identity", raw},
		{"gzip", "gzip", gzipped(t, raw)},
		{"x-gzip upper case", "X-GZIP", gzipped(t, raw)},
		{"deflate", "deflate", deflated(t, raw)},
		{"br", "br", brotlied(t, raw)},
		{"zstd", "zstd", zstded(t, raw)},
		{"stacked", "gzip, br", brotlied(t, gzipped(t, raw))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, payload, readAll(t, tt.encoding, tt.data))
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("compress", io.NopCloser(strings.NewReader(payload)))
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)

	_, err = Decode("gzip", io.NopCloser(strings.NewReader("not gzip")))
	assert.Error(t, err)
}

type closeCounter struct {
	io.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestDecodeClosesBody(t *testing.T) {
	body := &closeCounter{Reader: bytes.NewReader(gzipped(t, []byte(payload)))}
	rc, err := Decode("gzip", body)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, 1, body.closed)
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, "application/json", DetectType([]byte(`{"a":1}`)))
	assert.Equal(t, "text/plain; charset=utf-8", DetectType([]byte("hello")))
	assert.Equal(t, "image/png", DetectType([]byte("\x89PNG\r\n\x1a\n0000")))
}

func TestSniffKeepsStream(t *testing.T) {
	mt, r, err := Sniff(strings.NewReader(`<html><body>hi</body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", mt)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `<html><body>hi</body></html>`, string(rest))
}
