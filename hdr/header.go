// Package hdr implements the ordered header list the HTTP/1 parser and
// response generator share: HeaderField and HeaderFieldList from spec.md
// §3. Unlike net/http's map[string][]string, duplicates keep their
// original order (required for Set-Cookie) and lookup is case-insensitive,
// first-match.
//
// Canonicalization follows the teacher's hdr package (itself a copy of
// net/http's textproto.CanonicalMIMEHeaderKey), kept byte-for-byte
// compatible so Host/User-Agent/If-Modified-Since style canonicalization
// behaves the same way.
package hdr

import (
	"io"

	"golang.org/x/net/http/httpguts"
)

// Well-known header names, canonical form. Grounded on
// _examples/badu-http/hdr/types_header.go.
const (
	Connection       = "Connection"
	ContentLength    = "Content-Length"
	ContentType      = "Content-Type"
	Date             = "Date"
	Host             = "Host"
	KeepAlive        = "Keep-Alive"
	Server           = "Server"
	TE               = "TE"
	Trailer          = "Trailer"
	TransferEncoding = "Transfer-Encoding"
	Upgrade          = "Upgrade"
)

// TrailerPrefix is prepended to a header map key when the Handler wants
// to send it as a trailer instead of a leading header. See response_server
// in the teacher for the same convention.
const TrailerPrefix = "Trailer:"

// HeaderField is a single (name, value) pair. Name is compared
// case-insensitively on lookup but stored canonicalized; Value is
// preserved verbatim.
type HeaderField struct {
	Name  string
	Value string
}

// HeaderFieldList is an ordered sequence of HeaderField. Duplicates are
// permitted (required for Set-Cookie); lookup is case-insensitive,
// first-match, per spec.md §3.
type HeaderFieldList struct {
	fields []HeaderField
}

// NewHeaderFieldList returns an empty list with capacity preallocated.
func NewHeaderFieldList(capacity int) *HeaderFieldList {
	return &HeaderFieldList{fields: make([]HeaderField, 0, capacity)}
}

// Add appends (name, value), canonicalizing name. It does not replace any
// existing field with the same name. A name that is not a valid HTTP
// field-name token (per RFC 7230, checked via httpguts the same way
// net/http's own transport validates outgoing headers) is silently
// dropped rather than producing a malformed wire response.
func (h *HeaderFieldList) Add(name, value string) {
	if !httpguts.ValidHeaderFieldName(name) {
		return
	}
	h.fields = append(h.fields, HeaderField{Name: CanonicalKey(name), Value: value})
}

// Set replaces all existing fields named name with a single field
// carrying value. See Add for the name-validity rule.
func (h *HeaderFieldList) Set(name, value string) {
	if !httpguts.ValidHeaderFieldName(name) {
		return
	}
	canon := CanonicalKey(name)
	h.Del(canon)
	h.fields = append(h.fields, HeaderField{Name: canon, Value: value})
}

// Get returns the first value associated with name, or "" if absent.
func (h *HeaderFieldList) Get(name string) string {
	canon := CanonicalKey(name)
	for _, f := range h.fields {
		if f.Name == canon {
			return f.Value
		}
	}
	return ""
}

// Has reports whether any field named name is present.
func (h *HeaderFieldList) Has(name string) bool {
	canon := CanonicalKey(name)
	for _, f := range h.fields {
		if f.Name == canon {
			return true
		}
	}
	return false
}

// Values returns every value associated with name, in insertion order.
func (h *HeaderFieldList) Values(name string) []string {
	canon := CanonicalKey(name)
	var out []string
	for _, f := range h.fields {
		if f.Name == canon {
			out = append(out, f.Value)
		}
	}
	return out
}

// Del removes every field named name.
func (h *HeaderFieldList) Del(name string) {
	canon := CanonicalKey(name)
	out := h.fields[:0]
	for _, f := range h.fields {
		if f.Name != canon {
			out = append(out, f)
		}
	}
	h.fields = out
}

// Len reports the number of fields, including duplicates.
func (h *HeaderFieldList) Len() int { return len(h.fields) }

// All iterates every field in insertion order.
func (h *HeaderFieldList) All() []HeaderField { return h.fields }

// Reset discards every field, keeping the backing array for reuse across
// pipelined requests on the same connection (HttpChannel reset, §4.3).
func (h *HeaderFieldList) Reset() {
	h.fields = h.fields[:0]
}

// Clone returns a deep copy safe to retain past the lifetime of h.
func (h *HeaderFieldList) Clone() *HeaderFieldList {
	out := NewHeaderFieldList(len(h.fields))
	out.fields = append(out.fields, h.fields...)
	return out
}

// WriteTo serializes every field as "Name: Value\r\n" in insertion order,
// skipping any field whose name is in exclude. Matches the wire format
// the teacher's Header.WriteSubset produces, minus alphabetic sorting
// (spec.md does not require sorted output, and preserving insertion
// order is what makes duplicate Set-Cookie fields predictable).
func (h *HeaderFieldList) WriteTo(w io.Writer, exclude map[string]bool) error {
	for _, f := range h.fields {
		if exclude != nil && exclude[f.Name] {
			continue
		}
		if _, err := io.WriteString(w, f.Name); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ": "); err != nil {
			return err
		}
		if _, err := io.WriteString(w, sanitizeValue(f.Value)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return err
		}
	}
	return nil
}

// sanitizeValue strips embedded CR/LF the way the teacher's
// headerNewlineToSpace replacer does, preventing header injection.
func sanitizeValue(v string) string {
	for i := 0; i < len(v); i++ {
		if v[i] == '\n' || v[i] == '\r' {
			b := []byte(v)
			for j := range b {
				if b[j] == '\n' || b[j] == '\r' {
					b[j] = ' '
				}
			}
			return string(b)
		}
	}
	return v
}
