package header

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"
)

// MaxValueLength is the longest value, in bytes, emitted in one physical
// header. Common proxies and CDNs reject single headers above 4-8 KiB.
const MaxValueLength = 3072

// bareNamespace prefixes the protocol's own headers. A numbered header in
// this namespace can only be a chunk continuation.
const bareNamespace = "x-bare-"

// ErrCodec is matched by every error returned from Split and Join.
var ErrCodec = errors.New("header codec error")

// CodecError describes a malformed or ambiguous chunk sequence.
type CodecError struct {
	Name   string
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("header %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrCodec.
func (e *CodecError) Unwrap() error {
	return ErrCodec
}

// Split encodes logical headers into physical headers using MaxValueLength.
func Split(h Header) (Header, error) {
	return SplitN(h, MaxValueLength)
}

// SplitN encodes logical headers into physical headers. A value longer than
// limit becomes name, name-1, name-2, ... each carrying at most limit bytes.
// UTF-8 sequences are never cut in half.
func SplitN(h Header, limit int) (Header, error) {
	if limit < utf8.UTFMax {
		return nil, fmt.Errorf("chunk limit %d below %d: %w", limit, utf8.UTFMax, ErrCodec)
	}

	counts := make(map[string]int, len(h))
	for _, f := range h {
		counts[strings.ToLower(f.Name)]++
	}

	out := make(Header, 0, len(h))
	generated := make(map[int]bool)
	for _, f := range h {
		if !httpguts.ValidHeaderFieldName(f.Name) {
			return nil, &CodecError{Name: f.Name, Reason: "invalid name"}
		}
		if !httpguts.ValidHeaderFieldValue(f.Value) {
			return nil, &CodecError{Name: f.Name, Reason: "invalid value"}
		}

		if len(f.Value) <= limit {
			out = append(out, f)
			continue
		}
		if counts[strings.ToLower(f.Name)] > 1 {
			return nil, &CodecError{Name: f.Name, Reason: "cannot chunk a repeated header"}
		}
		for i, part := range chunk(f.Value, limit) {
			name := f.Name
			if i > 0 {
				name = f.Name + "-" + strconv.Itoa(i)
				generated[len(out)] = true
			}
			out = append(out, Field{Name: name, Value: part})
		}
	}

	// A caller field that reads as a continuation would be folded into
	// another header by Join.
	names := make(map[string]bool, len(out))
	for _, f := range out {
		names[strings.ToLower(f.Name)] = true
	}
	for i, f := range out {
		if generated[i] {
			continue
		}
		if base, _, ok := continuation(f.Name); ok && (names[base] || isBare(base)) {
			return nil, &CodecError{Name: f.Name, Reason: "name collides with a chunk continuation"}
		}
	}
	return out, nil
}

// Join reassembles chunked physical headers into logical headers. It is the
// exact inverse of Split.
func Join(h Header) (Header, error) {
	names := make(map[string]bool, len(h))
	for _, f := range h {
		names[strings.ToLower(f.Name)] = true
	}

	groups := make(map[string]map[int]string)
	out := make(Header, 0, len(h))
	for _, f := range h {
		base, n, ok := continuation(f.Name)
		if !ok || !(names[base] || isBare(base)) {
			out = append(out, f)
			continue
		}
		parts, exists := groups[base]
		if !exists {
			parts = make(map[int]string)
			groups[base] = parts
		}
		if _, dup := parts[n]; dup {
			return nil, &CodecError{Name: f.Name, Reason: "duplicate chunk"}
		}
		parts[n] = f.Value
	}
	if len(groups) == 0 {
		return out, nil
	}

	bases := make(map[string]int, len(groups))
	for _, f := range out {
		lower := strings.ToLower(f.Name)
		if _, ok := groups[lower]; ok {
			bases[lower]++
		}
	}
	for base, parts := range groups {
		switch bases[base] {
		case 0:
			return nil, &CodecError{Name: base, Reason: "continuation without base header"}
		case 1:
		default:
			return nil, &CodecError{Name: base, Reason: "continuation of a repeated header"}
		}
		for i := 1; i <= len(parts); i++ {
			if _, ok := parts[i]; !ok {
				return nil, &CodecError{Name: base, Reason: fmt.Sprintf("missing chunk %d", i)}
			}
		}
	}

	for i, f := range out {
		parts, ok := groups[strings.ToLower(f.Name)]
		if !ok {
			continue
		}
		var b strings.Builder
		b.WriteString(f.Value)
		for n := 1; n <= len(parts); n++ {
			b.WriteString(parts[n])
		}
		out[i].Value = b.String()
	}
	return out, nil
}

// continuation reports whether name has the form base-<n> with n >= 1 and
// no leading zero. base is returned lower-cased.
func continuation(name string) (string, int, bool) {
	idx := strings.LastIndexByte(name, '-')
	if idx <= 0 || idx == len(name)-1 {
		return "", 0, false
	}
	digits := name[idx+1:]
	if digits[0] == '0' {
		return "", 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, false
	}
	return strings.ToLower(name[:idx]), n, true
}

func isBare(lowerName string) bool {
	return strings.HasPrefix(lowerName, bareNamespace)
}

// chunk cuts value into pieces of at most limit bytes on rune boundaries.
func chunk(value string, limit int) []string {
	parts := make([]string, 0, len(value)/limit+1)
	for len(value) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		parts = append(parts, value[:cut])
		value = value[cut:]
	}
	return append(parts, value)
}
