package edge

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"strings"
)

// Hop-by-hop headers that must not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func removeHopHeaders(header http.Header) {
	for _, h := range hopHeaders {
		header.Del(h)
	}
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		dst[k] = append(dst[k][:0:0], vv...)
	}
	removeHopHeaders(dst)
}

func cloneHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	copyHeaders(dst, src)
	return dst
}

func copyBody(w http.ResponseWriter, body io.Reader) {
	io.Copy(w, body)
}

// readBody reads up to limit bytes. overflow reports that the body did not
// fit; the unread remainder stays on r for the caller to stream through.
func readBody(r io.Reader, limit int64) (body []byte, overflow bool, err error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, limit+1)
	if err != nil && err != io.EOF {
		return nil, false, err
	}
	if n > limit {
		return buf.Bytes(), true, nil
	}
	return buf.Bytes(), false, nil
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
