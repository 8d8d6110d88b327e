package hdr

// CanonicalKey canonicalizes a header name the way net/http's
// textproto.CanonicalMIMEHeaderKey does: first letter and the letter
// after each hyphen are upper-cased, the rest lower-cased. Bytes outside
// the RFC 7230 token set leave the input unchanged (it is then compared
// byte-for-byte, case-sensitively, which is the documented fallback for
// non-token header names). Grounded on
// _examples/badu-http/hdr/utils_header.go's canonicalMIMEHeaderKey.
func CanonicalKey(s string) string {
	if isCanonical(s) {
		return s
	}
	a := []byte(s)
	for _, c := range a {
		if !validHeaderFieldByte(c) {
			return s
		}
	}
	upper := true
	for i, c := range a {
		switch {
		case upper && 'a' <= c && c <= 'z':
			c -= 'a' - 'A'
		case !upper && 'A' <= c && c <= 'Z':
			c += 'a' - 'A'
		}
		a[i] = c
		upper = c == '-'
	}
	if canon, ok := commonHeaders[string(a)]; ok {
		return canon
	}
	return string(a)
}

// isCanonical is a fast path for header names already in canonical form,
// avoiding an allocation for the overwhelming majority of real traffic.
func isCanonical(s string) bool {
	upper := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !validHeaderFieldByte(c) {
			return true // let the slow path's byte-set check reject it identically
		}
		if upper {
			if 'a' <= c && c <= 'z' {
				return false
			}
		} else if 'A' <= c && c <= 'Z' {
			return false
		}
		upper = c == '-'
	}
	return true
}

// validHeaderFieldByte reports whether b may appear in a token
// (RFC 7230 §3.2.6), the rule field-name obeys.
func validHeaderFieldByte(b byte) bool {
	return int(b) < len(isTokenTable) && isTokenTable[b]
}

var isTokenTable = [127]bool{
	'0': true, '1': true, '2': true, '3': true, '4': true, '5': true, '6': true, '7': true,
	'8': true, '9': true,

	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true, 'g': true, 'h': true,
	'i': true, 'j': true, 'k': true, 'l': true, 'm': true, 'n': true, 'o': true, 'p': true,
	'q': true, 'r': true, 's': true, 't': true, 'u': true, 'v': true, 'w': true, 'x': true,
	'y': true, 'z': true,

	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true, 'H': true,
	'I': true, 'J': true, 'K': true, 'L': true, 'M': true, 'N': true, 'O': true, 'P': true,
	'Q': true, 'R': true, 'S': true, 'T': true, 'U': true, 'V': true, 'W': true, 'X': true,
	'Y': true, 'Z': true,

	'!': true, '#': true, '$': true, '%': true, '&': true, '\'': true, '*': true, '+': true,
	'-': true, '.': true, '^': true, '_': true, '`': true, '|': true, '~': true,
}

// commonHeaders interns canonical spellings for well-known header names,
// mirroring the teacher's commonHeader map populated in its init().
var commonHeaders = map[string]string{
	"Accept":            "Accept",
	"Accept-Encoding":   "Accept-Encoding",
	"Accept-Language":   "Accept-Language",
	"Cache-Control":     "Cache-Control",
	Connection:          Connection,
	"Content-Encoding":  "Content-Encoding",
	ContentLength:       ContentLength,
	ContentType:         ContentType,
	Date:                Date,
	"Etag":              "Etag",
	"Expect":            "Expect",
	Host:                Host,
	"If-Modified-Since": "If-Modified-Since",
	"If-None-Match":     "If-None-Match",
	KeepAlive:           KeepAlive,
	"Location":          "Location",
	Server:              Server,
	"Set-Cookie":        "Set-Cookie",
	TE:                  TE,
	Trailer:             Trailer,
	TransferEncoding:    TransferEncoding,
	Upgrade:             Upgrade,
	"User-Agent":        "User-Agent",
}
