package respgen

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/xzero/reactorhttp/hdr"
	"github.com/xzero/reactorhttp/message"
)

// Product is the value sent in the Server header when the handler did
// not set one. serverconfig has no setting for it.
var Product = "reactorhttp/1.0"

// crlf is written after every header line and chunk payload.
var crlf = []byte("\r\n")

// connectionHeaders collects the values respgen may need to inject so the
// transport's keep-alive/close decision and the generated bytes agree.
type ConnectionHeaders struct {
	Persistent    bool
	KeepAliveSecs int
	RequestsLeft  int // remaining pipelined requests allowed on this connection
}

// FileRegion is a body source backed by an *os.File plus an offset and
// length, restored from original_source/ per SPEC_FULL.md: pure framing
// work the generator already performs for fixed-length bodies, modeled
// directly on the teacher's response_server.go ReadFrom sendfile path
// (minus the net.TCPConn-specific sendfile optimization, since this
// server writes through a raw-fd Endpoint rather than net.Conn).
type FileRegion struct {
	File   *os.File
	Offset int64
	Length int64
}

// WriteResponse serializes resp's status line, headers, and body to w.
// version is the request's HTTP version (governs status-line form and
// whether chunked framing is legal); conn carries the persistence
// decision the transport already made (spec.md §4.4) so the Connection/
// Keep-Alive headers respgen writes match the behavior the transport
// will actually implement.
//
// Exactly one of resp.Body() or file should apply: pass file to send a
// FileRegion body sourced via io.Copy instead of resp's buffered bytes.
func WriteResponse(w io.Writer, resp *message.Response, version message.Version, conn ConnectionHeaders, dateCache *DateCache, file *FileRegion) (int64, error) {
	status := resp.Status
	if status == 0 {
		status = 200
	}

	body := resp.Body()
	bodyLen := int64(len(body))
	useFile := file != nil
	if useFile {
		bodyLen = file.Length
	}

	headers := resp.Headers.Clone()
	chunked := false

	if bodyAllowedForStatus(status) {
		if !headers.Has(hdr.ContentType) {
			var sniffed string
			if useFile {
				sniffed = "application/octet-stream"
			} else {
				sniffed = DetectContentType(body)
			}
			headers.Set(hdr.ContentType, sniffed)
		}
		switch {
		case useFile:
			// a FileRegion always carries an exact, known Length.
			headers.Set(hdr.ContentLength, strconv.FormatInt(bodyLen, 10))
		case headers.Has(hdr.ContentLength):
			// handler set the header directly; trust it verbatim.
		case resp.ContentLength >= 0:
			// handler called Response.SetContentLength: an explicit
			// length signal that survives channel.finish stripping
			// Transfer-Encoding/Connection headers from the response.
			headers.Set(hdr.ContentLength, strconv.FormatInt(resp.ContentLength, 10))
		case version.AtLeast(message.Version11):
			// no explicit length: switch to chunked per spec.md §4.4
			// rather than leaking a computed Content-Length the handler
			// never committed to.
			chunked = true
			headers.Set(hdr.TransferEncoding, "chunked")
		default:
			// HTTP/1.0 has no chunked mechanism; fall back to the
			// buffered body's actual length.
			headers.Set(hdr.ContentLength, strconv.FormatInt(bodyLen, 10))
		}
	} else {
		headers.Del(hdr.ContentLength)
		headers.Del(hdr.TransferEncoding)
		headers.Del(hdr.ContentType)
	}

	if !headers.Has(hdr.Date) {
		headers.Set(hdr.Date, string(dateCache.Bytes(time.Now())))
	}
	if !headers.Has(hdr.Server) {
		headers.Set(hdr.Server, Product)
	}

	if conn.Persistent {
		headers.Set(hdr.Connection, "keep-alive")
		headers.Set(hdr.KeepAlive, fmt.Sprintf("timeout=%d, max=%d", conn.KeepAliveSecs, conn.RequestsLeft))
	} else {
		headers.Set(hdr.Connection, "close")
	}

	reason := resp.Reason()
	if reason == "" {
		reason = ReasonPhrase(status)
	}

	var written int64
	n, err := fmt.Fprintf(w, "%s %d %s\r\n", version.String(), status, reason)
	written += int64(n)
	if err != nil {
		return written, err
	}
	if err := headers.WriteTo(w, nil); err != nil {
		return written, err
	}
	n, err = w.Write(crlf)
	written += int64(n)
	if err != nil {
		return written, err
	}

	var bn int64
	if useFile {
		bn, err = writeFileRegionBody(w, file, chunked)
	} else {
		bn, err = writeBufferedBody(w, body, chunked)
	}
	written += bn
	return written, err
}

// writeBufferedBody writes p either as one chunk (plus the terminating
// zero-chunk) or verbatim, matching the teacher's chunk_writer.go framing
// ("%x\r\n" + payload + "\r\n", final "0\r\n\r\n").
func writeBufferedBody(w io.Writer, p []byte, chunked bool) (int64, error) {
	var written int64
	if chunked {
		if len(p) > 0 {
			n, err := fmt.Fprintf(w, "%x\r\n", len(p))
			written += int64(n)
			if err != nil {
				return written, err
			}
			n, err = w.Write(p)
			written += int64(n)
			if err != nil {
				return written, err
			}
			n, err = w.Write(crlf)
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
		n, err := io.WriteString(w, "0\r\n\r\n")
		written += int64(n)
		return written, err
	}
	n, err := w.Write(p)
	return int64(n), err
}

// writeFileRegionBody copies Length bytes starting at Offset from file
// into w, framing the copy as one chunk when chunked, else verbatim.
func writeFileRegionBody(w io.Writer, file *FileRegion, chunked bool) (int64, error) {
	section := io.NewSectionReader(file.File, file.Offset, file.Length)
	if chunked {
		var written int64
		if file.Length > 0 {
			n, err := fmt.Fprintf(w, "%x\r\n", file.Length)
			written += int64(n)
			if err != nil {
				return written, err
			}
			cn, err := io.Copy(w, section)
			written += cn
			if err != nil {
				return written, err
			}
			n, err = w.Write(crlf)
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
		n, err := io.WriteString(w, "0\r\n\r\n")
		written += int64(n)
		return written, err
	}
	return io.Copy(w, section)
}

// bodyAllowedForStatus mirrors the teacher's bodyAllowedForStatus: 1xx,
// 204, and 304 never carry a body per RFC 7230 §3.3.
func bodyAllowedForStatus(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == 204:
		return false
	case status == 304:
		return false
	}
	return true
}
