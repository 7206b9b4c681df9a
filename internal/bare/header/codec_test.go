package header

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitJoinRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		header Header
	}{
		{
			name:   "empty",
			header: Header{},
		},
		{
			name:   "short values untouched",
			header: Header{{"x-bare-url", "https://example.com/"}, {"accept", "*/*"}},
		},
		{
			name:   "exactly at threshold",
			header: Header{{"x-bare-headers", strings.Repeat("a", MaxValueLength)}},
		},
		{
			name:   "one byte over threshold",
			header: Header{{"x-bare-headers", strings.Repeat("b", MaxValueLength+1)}},
		},
		{
			name:   "far above threshold",
			header: Header{{"x-bare-headers", strings.Repeat("0123456789", 5000)}},
		},
		{
			name: "mixed with repeated short headers",
			header: Header{
				{"x-bare-url", "https://example.com/"},
				{"x-bare-headers", strings.Repeat("{\"k\":\"v\"}", 2000)},
				{"x-bare-pass-status", "204"},
				{"x-bare-pass-status", "304"},
			},
		},
		{
			name:   "multibyte runes straddling the boundary",
			header: Header{{"x-bare-headers", "a" + strings.Repeat("é", MaxValueLength)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			physical, err := Split(tt.header)
			require.NoError(t, err)

			for _, f := range physical {
				assert.LessOrEqual(t, len(f.Value), MaxValueLength)
			}

			logical, err := Join(physical)
			require.NoError(t, err)
			assert.Equal(t, tt.header, logical)
		})
	}
}

func TestSplitNaming(t *testing.T) {
	physical, err := SplitN(Header{{"x-bare-headers", "abcdefghij"}}, 4)
	require.NoError(t, err)

	assert.Equal(t, Header{
		{"x-bare-headers", "abcd"},
		{"x-bare-headers-1", "efgh"},
		{"x-bare-headers-2", "ij"},
	}, physical)
}

func TestSplitRejects(t *testing.T) {
	tests := []struct {
		name   string
		header Header
		limit  int
	}{
		{
			name:   "limit too small",
			header: Header{{"a", "b"}},
			limit:  1,
		},
		{
			name:   "invalid name",
			header: Header{{"bad name", "v"}},
			limit:  MaxValueLength,
		},
		{
			name:   "invalid value",
			header: Header{{"a", "line\nbreak"}},
			limit:  MaxValueLength,
		},
		{
			name:   "caller header collides with continuation",
			header: Header{{"x-custom", "abcdefgh"}, {"x-custom-1", "z"}},
			limit:  4,
		},
		{
			name:   "bare namespace continuation without chunking",
			header: Header{{"x-bare-headers-1", "z"}},
			limit:  MaxValueLength,
		},
		{
			name:   "repeated long header",
			header: Header{{"x-long", "abcdefgh"}, {"x-long", "ijklmnop"}},
			limit:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitN(tt.header, tt.limit)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCodec)
		})
	}
}

func TestJoinOrdering(t *testing.T) {
	t.Run("sorts chunks by suffix", func(t *testing.T) {
		logical, err := Join(Header{
			{"x-bare-headers-2", "C"},
			{"x-bare-status", "200"},
			{"x-bare-headers", "A"},
			{"x-bare-headers-1", "B"},
		})
		require.NoError(t, err)
		assert.Equal(t, Header{
			{"x-bare-status", "200"},
			{"x-bare-headers", "ABC"},
		}, logical)
	})

	t.Run("case-insensitive grouping", func(t *testing.T) {
		logical, err := Join(Header{
			{"X-Bare-Headers", "{\"a\":"},
			{"X-Bare-Headers-1", "\"b\"}"},
		})
		require.NoError(t, err)
		value, ok := logical.Get("x-bare-headers")
		require.True(t, ok)
		assert.Equal(t, "{\"a\":\"b\"}", value)
	})

	t.Run("numbered header without base stays literal outside bare namespace", func(t *testing.T) {
		in := Header{{"sec-ch-ua-1", "x"}, {"accept", "*/*"}}
		logical, err := Join(in)
		require.NoError(t, err)
		assert.Equal(t, in, logical)
	})

	t.Run("leading zero is not a continuation", func(t *testing.T) {
		in := Header{{"x-thing", "a"}, {"x-thing-01", "b"}}
		logical, err := Join(in)
		require.NoError(t, err)
		assert.Equal(t, in, logical)
	})
}

func TestJoinErrors(t *testing.T) {
	tests := []struct {
		name   string
		header Header
		reason string
	}{
		{
			name:   "gap in numbering",
			header: Header{{"x-bare-headers", "a"}, {"x-bare-headers-2", "c"}},
			reason: "missing chunk 1",
		},
		{
			name:   "continuation without base",
			header: Header{{"x-bare-headers-1", "b"}, {"x-bare-headers-2", "c"}},
			reason: "continuation without base header",
		},
		{
			name:   "duplicate chunk",
			header: Header{{"x-bare-headers", "a"}, {"x-bare-headers-1", "b"}, {"x-bare-headers-1", "b"}},
			reason: "duplicate chunk",
		},
		{
			name:   "repeated base",
			header: Header{{"x-custom", "a"}, {"x-custom", "b"}, {"x-custom-1", "c"}},
			reason: "continuation of a repeated header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Join(tt.header)
			require.Error(t, err)

			var codecErr *CodecError
			require.ErrorAs(t, err, &codecErr)
			assert.Equal(t, tt.reason, codecErr.Reason)
			assert.ErrorIs(t, err, ErrCodec)
		})
	}
}

func TestHTTPConversion(t *testing.T) {
	physical := http.Header{}
	physical.Add("X-Bare-Status", "200")
	physical.Add("X-Bare-Headers-1", "b")
	physical.Add("X-Bare-Headers", "a")
	physical.Add("Vary", "Origin")
	physical.Add("Vary", "Accept")

	h := FromHTTP(physical)
	assert.Equal(t, Header{
		{"vary", "Origin"},
		{"vary", "Accept"},
		{"x-bare-headers", "a"},
		{"x-bare-headers-1", "b"},
		{"x-bare-status", "200"},
	}, h)

	back := ToHTTP(h)
	assert.Equal(t, []string{"Origin", "Accept"}, back.Values("Vary"))
	assert.Equal(t, "b", back.Get("X-Bare-Headers-1"))
}

func TestHeaderHelpers(t *testing.T) {
	h := Header{{"Accept", "a"}, {"X-One", "1"}, {"accept", "b"}}

	values := h.Values("ACCEPT")
	assert.Equal(t, []string{"a", "b"}, values)

	clone := h.Clone()
	clone.Set("accept", "c")
	assert.Equal(t, Header{{"accept", "c"}, {"X-One", "1"}}, clone)
	assert.Len(t, h, 3)

	clone.Set("host", "example.com")
	v, ok := clone.Get("Host")
	require.True(t, ok)
	assert.Equal(t, "example.com", v)

	clone.Del("x-one")
	_, ok = clone.Get("x-one")
	assert.False(t, ok)
}
