// Package headers implements the case-insensitive, ordered multimap the
// specification assumes is available as an external collaborator (the
// "Headers container"). It is intentionally thin: canonicalization is
// delegated to net/textproto, the same mechanism net/http itself uses, so
// behavior matches what the platform HTTP stack expects on the wire.
package headers

import (
	"net/textproto"

	"github.com/sofatutor/gofetch/fetcherr"
)

// Headers is a case-insensitive, insertion-ordered multimap of header
// names to values.
type Headers struct {
	order  []string
	values map[string][]string
}

// New builds an empty Headers.
func New() *Headers {
	return &Headers{values: make(map[string][]string)}
}

// FromMap builds Headers from a plain single-valued record, e.g. the
// shape produced by decoding a JSON object.
func FromMap(m map[string]string) (*Headers, error) {
	h := New()
	for k, v := range m {
		if err := h.Add(k, v); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// FromMultiMap builds Headers from a multi-valued record, e.g.
// net/http.Header or a decoded map[string][]string.
func FromMultiMap(m map[string][]string) (*Headers, error) {
	h := New()
	for k, vs := range m {
		for _, v := range vs {
			if err := h.Add(k, v); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

// FromPairs builds Headers from an ordered tuple iterable, e.g.
// [][2]string{{"Accept", "*/*"}, ...}. Order and duplicate entries are
// both preserved, matching the Fetch spec's Headers-from-sequence
// constructor.
func FromPairs(pairs [][2]string) (*Headers, error) {
	h := New()
	for _, p := range pairs {
		if err := h.Add(p[0], p[1]); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Clone returns an independent copy.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return New()
	}
	out := New()
	out.order = append([]string(nil), h.order...)
	out.values = make(map[string][]string, len(h.values))
	for k, v := range h.values {
		out.values[k] = append([]string(nil), v...)
	}
	return out
}

func canonical(name string) (string, error) {
	if name == "" || !validToken(name) {
		return "", fetcherr.NewArgument("invalid header name: %q", name)
	}
	return textproto.CanonicalMIMEHeaderKey(name), nil
}

// validToken reports whether s is a valid RFC 7230 HTTP token: header
// names may not contain separators, control characters, or whitespace.
func validToken(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 128 {
			return false
		}
		if c <= 32 || c == 127 {
			return false
		}
		switch c {
		case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']', '?', '=', '{', '}':
			return false
		}
	}
	return true
}

// Set replaces all values for name with a single value.
func (h *Headers) Set(name, value string) error {
	key, err := canonical(name)
	if err != nil {
		return err
	}
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = []string{value}
	return nil
}

// Add appends value to any existing values for name.
func (h *Headers) Add(name, value string) error {
	key, err := canonical(name)
	if err != nil {
		return err
	}
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = append(h.values[key], value)
	return nil
}

// Get returns the first value for name, and whether it was present.
func (h *Headers) Get(name string) (string, bool) {
	key, err := canonical(name)
	if err != nil {
		return "", false
	}
	vs, ok := h.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Del removes all values for name.
func (h *Headers) Del(name string) {
	key, err := canonical(name)
	if err != nil {
		return
	}
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Values returns all values for name, in insertion order.
func (h *Headers) Values(name string) []string {
	key, err := canonical(name)
	if err != nil {
		return nil
	}
	return append([]string(nil), h.values[key]...)
}

// Len returns the number of distinct header names.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Range calls fn once per header name, in insertion order, with that
// name's values joined by ", " as WHATWG Headers.get does.
func (h *Headers) Range(fn func(name, value string) bool) {
	if h == nil {
		return
	}
	for _, key := range h.order {
		vs := h.values[key]
		if len(vs) == 0 {
			continue
		}
		joined := vs[0]
		for _, v := range vs[1:] {
			joined += ", " + v
		}
		if !fn(key, joined) {
			return
		}
	}
}

// ToHTTPHeader converts to a net/http.Header suitable for an outbound
// *http.Request, preserving multi-value entries.
func (h *Headers) ToHTTPHeader() map[string][]string {
	out := make(map[string][]string, h.Len())
	if h == nil {
		return out
	}
	for _, key := range h.order {
		out[key] = append([]string(nil), h.values[key]...)
	}
	return out
}
