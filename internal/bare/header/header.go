package header

import (
	"net/http"
	"sort"
	"strings"
)

// Field is a single (name, value) pair.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered header collection. Names are not required to be
// unique and compare case-insensitively.
type Header []Field

// Get returns the first value stored under name.
func (h Header) Get(name string) (string, bool) {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value stored under name, in order.
func (h Header) Values(name string) []string {
	var values []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}
	return values
}

// Add appends a field.
func (h *Header) Add(name, value string) {
	*h = append(*h, Field{Name: name, Value: value})
}

// Set replaces all fields named name with a single field. The field keeps
// the position of the first match, or is appended when there is none.
func (h *Header) Set(name, value string) {
	out := (*h)[:0]
	replaced := false
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
			continue
		}
		if !replaced {
			out = append(out, Field{Name: name, Value: value})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, Field{Name: name, Value: value})
	}
	*h = out
}

// Del removes all fields named name.
func (h *Header) Del(name string) {
	out := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	*h = out
}

// Clone returns a copy that shares no backing array with h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	copy(out, h)
	return out
}

// FromHTTP converts physical headers into an ordered collection. Names are
// lower-cased and sorted so the result is deterministic; values of one name
// keep their received order.
func FromHTTP(h http.Header) Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Header, 0, len(h))
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, v := range h[name] {
			out = append(out, Field{Name: lower, Value: v})
		}
	}
	return out
}

// ToHTTP converts the collection into physical headers.
func ToHTTP(h Header) http.Header {
	out := make(http.Header, len(h))
	for _, f := range h {
		out.Add(f.Name, f.Value)
	}
	return out
}
