// Package buf implements the growable byte buffer the HTTP/1 parser reads
// and writes against, plus a zero-copy subrange type that stays valid
// across buffer growth.
package buf

// Buffer is a growable byte vector with a separately tracked mark and
// cheap Ref subranges. A subrange never outlives the Buffer it points
// into; when the backing array is reallocated, live subranges remain
// valid because they only ever store an (offset, length) pair and are
// resolved against the current backing array on access (Design note 9,
// option (b)).
type Buffer struct {
	data []byte
	mark int
}

// NewBuffer returns an empty Buffer with capacity preallocated to cap.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Len is the number of live bytes currently held.
func (b *Buffer) Len() int { return len(b.data) }

// Cap is the current backing array capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Bytes exposes the full live slice. Callers must not retain it across a
// call to Append/Grow/Reset; take a Ref instead.
func (b *Buffer) Bytes() []byte { return b.data }

// Append grows the buffer by appending p, reallocating the backing array
// if necessary. Any Ref taken before Append remains valid: it is resolved
// lazily against b.data, not against a frozen slice.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Grow ensures at least n more bytes of capacity are available without a
// subsequent reallocation, which is how callers avoid invalidating
// in-flight subranges per Design note 9 option (a): reserve the maximum
// request size up front.
func (b *Buffer) Grow(n int) {
	if cap(b.data)-len(b.data) >= n {
		return
	}
	next := make([]byte, len(b.data), len(b.data)+n)
	copy(next, b.data)
	b.data = next
}

// Mark records the current length as the parser's resume point.
func (b *Buffer) Mark() { b.mark = len(b.data) }

// MarkAt sets the mark to an explicit offset, used when header folding
// (LWS) back-tracks the write position.
func (b *Buffer) MarkAt(offset int) { b.mark = offset }

// MarkOffset returns the last recorded mark.
func (b *Buffer) MarkOffset() int { return b.mark }

// Truncate drops all bytes at and after offset, used to discard a
// consumed message's bytes once the parser has moved on.
func (b *Buffer) Truncate(offset int) {
	b.data = b.data[:offset]
	if b.mark > offset {
		b.mark = offset
	}
}

// Reset discards all bytes, keeping the backing array for reuse.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.mark = 0
}

// Compact discards the first n bytes by shifting the remainder to the
// front. It does not rebase Refs taken against this Buffer: Refs are
// resolved by offset, not by pointer, so callers must rebase their own
// stored offsets by -n after calling Compact.
func (b *Buffer) Compact(n int) {
	if n <= 0 {
		return
	}
	copy(b.data, b.data[n:])
	b.data = b.data[:len(b.data)-n]
	b.mark -= n
	if b.mark < 0 {
		b.mark = 0
	}
}

// Ref is a zero-copy (offset, length) reference into a parent Buffer.
// It is cheap to copy and carries no pointer into the backing array, so
// it survives Buffer reallocation; it becomes invalid (and must not be
// read) once the referenced range has been Compact-ed away or the Buffer
// has been Reset.
type Ref struct {
	offset int
	length int
}

// Ref returns a subrange view of b starting at offset with the given
// length. It panics if the range is out of bounds, mirroring the
// parser's invariant that it never hands out a Ref past what it has
// already appended.
func (b *Buffer) Ref(offset, length int) Ref {
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		panic("buf: ref out of range")
	}
	return Ref{offset: offset, length: length}
}

// Len is the number of bytes the Ref spans.
func (r Ref) Len() int { return r.length }

// Empty reports whether the Ref spans zero bytes.
func (r Ref) Empty() bool { return r.length == 0 }

// Bytes resolves the Ref against the current state of parent. Resolving
// against a Buffer other than the one the Ref was cut from is undefined;
// callers are expected to thread the same *Buffer through the parser and
// its listener.
func (r Ref) Bytes(parent *Buffer) []byte {
	return parent.data[r.offset : r.offset+r.length]
}

// String resolves and copies the Ref's bytes into a new string. Use
// sparingly: it is the one place this package allocates.
func (r Ref) String(parent *Buffer) string {
	return string(r.Bytes(parent))
}
