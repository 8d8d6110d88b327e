// Package respgen generates response bytes: status-line and header
// injection (Connection/Keep-Alive/Server/Date), chunked/fixed body
// framing, a 1-second-resolution Date cache, and a minimal content-type
// sniffer — the pieces spec.md §4.4 and §6 assign to the transport
// rather than the handler.
package respgen

// reasonPhrases is the canonical reason-phrase table for known status
// codes (RFC 7231 §6 plus the handful of widely deployed extension
// codes). badu-http's own status/reason table was not retrieved intact
// with this pack, so this table is written directly from RFC 7231
// conventions rather than adapted from a teacher file.
var reasonPhrases = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	417: "Expectation Failed",
	426: "Upgrade Required",
	428: "Precondition Required",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// ReasonPhrase returns the canonical reason phrase for status, or "" for
// an unrecognized code (spec.md §6: "unknown codes emit an empty
// reason").
func ReasonPhrase(status int) string {
	return reasonPhrases[status]
}
