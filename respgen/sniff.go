package respgen

import "bytes"

// sniffSig is a magic-byte signature tested against a response body's
// leading bytes, modeled on the two matcher fragments retrieved from the
// teacher's sniff package (exact_sig.go/text_sig.go): an exact byte-prefix
// match for known containers, and a control-byte scan that falls back to
// text/plain. The full WHATWG MIME sniffing algorithm those fragments
// belonged to was not retrieved intact, so only a small, self-contained
// subset is implemented here rather than attempting to complete it.
type sniffSig struct {
	sig []byte
	ct  string
}

var exactSigs = []sniffSig{
	{[]byte("\x00\x01\x00\x00"), "font/ttf"},
	{[]byte("OTTO"), "font/otf"},
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte("\xff\xd8\xff"), "image/jpeg"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	{[]byte("RIFF"), "image/webp"}, // narrowed below by the WEBP fourCC check
	{[]byte("%PDF-"), "application/pdf"},
	{[]byte("%!PS-Adobe-"), "application/postscript"},
	{[]byte("\x1f\x8b\x08"), "application/gzip"},
	{[]byte("PK\x03\x04"), "application/zip"},
}

const sniffLen = 512

// DetectContentType returns a best-guess MIME type for data's first
// bytes, or "application/octet-stream" if nothing matches and the data
// contains binary control bytes; falls back to a text/plain guess
// otherwise. An empty or all-whitespace body sniffs as text/plain.
func DetectContentType(data []byte) string {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}

	for _, sig := range exactSigs {
		if len(data) >= len(sig.sig) && bytes.Equal(data[:len(sig.sig)], sig.sig) {
			if sig.ct == "image/webp" && !(len(data) >= 12 && bytes.Equal(data[8:12], []byte("WEBP"))) {
				continue
			}
			return sig.ct
		}
	}

	firstNonWS := 0
	for firstNonWS < len(data) && isSniffWhitespace(data[firstNonWS]) {
		firstNonWS++
	}
	if ct := sniffText(data, firstNonWS); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func isSniffWhitespace(b byte) bool {
	switch b {
	case '\t', '\n', '\x0c', '\r', ' ':
		return true
	}
	return false
}

// sniffText mirrors text_sig.go's control-byte scan (WHATWG MIME Sniffing
// §5 step 4): any of these bytes disqualifies the body from text/plain.
func sniffText(data []byte, firstNonWS int) string {
	if firstNonWS >= len(data) {
		return "text/plain; charset=utf-8"
	}
	for _, b := range data[firstNonWS:] {
		switch {
		case b <= 0x08,
			b == 0x0B,
			0x0E <= b && b <= 0x1A,
			0x1C <= b && b <= 0x1F:
			return ""
		}
	}
	return "text/plain; charset=utf-8"
}
