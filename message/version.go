// Package message implements the HttpRequest/HttpResponse object model
// from spec.md §3: method, path+query, version, headers, content-length
// hint, a bounded input stream, and the handled flag for Request;
// status/reason/headers/content-length-or-chunked/write-output handle
// for Response.
package message

// Version is the tagged HttpVersion variant from spec.md §3: {0.9, 1.0,
// 1.1, 2.0, Unknown}. Unknown triggers 505 at parse time.
type Version struct {
	Major int
	Minor int
}

var (
	Version09      = Version{0, 9}
	Version10      = Version{1, 0}
	Version11      = Version{1, 1}
	Version20      = Version{2, 0}
	VersionUnknown = Version{-1, -1}
)

// AtLeast reports whether v is >= other, comparing major then minor.
func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

func (v Version) String() string {
	switch v {
	case Version09:
		return "HTTP/0.9"
	case Version10:
		return "HTTP/1.0"
	case Version11:
		return "HTTP/1.1"
	case Version20:
		return "HTTP/2.0"
	default:
		return "HTTP/unknown"
	}
}

// Known reports whether v is one of the recognized variants.
func (v Version) Known() bool {
	return v == Version09 || v == Version10 || v == Version11 || v == Version20
}
