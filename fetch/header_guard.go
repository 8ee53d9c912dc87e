package fetch

import (
	"strconv"

	"github.com/sofatutor/gofetch/internal/headers"
)

const userAgent = "gofetch/1.0"

// guardHeaders normalizes outbound headers before dispatch (§4.5). It
// mutates a clone of the caller's headers rather than the original, since
// Request.headers is otherwise immutable after construction.
func guardHeaders(h *headers.Headers, body Body, compress bool) *headers.Headers {
	out := h.Clone()

	if !out.Has("User-Agent") {
		_ = out.Set("User-Agent", userAgent)
	}
	if !out.Has("Accept") {
		_ = out.Set("Accept", "*/*")
	}
	if compress && !out.Has("Accept-Encoding") {
		_ = out.Set("Accept-Encoding", "gzip,deflate")
	}

	if !body.IsNull() {
		if !out.Has("Content-Type") {
			if ct := extractContentType(body); ct != "" {
				_ = out.Set("Content-Type", ct)
			}
		}
	}

	if n, ok := getTotalBytes(body); ok {
		_ = out.Set("Content-Length", strconv.FormatInt(n, 10))
	} else {
		out.Del("Content-Length")
	}

	return out
}
