// Package decode implements transparent response decompression: picking a
// gzip/deflate/raw-deflate transform from Content-Encoding, tolerating
// slightly malformed gzip trailers, and leaving size/timeout enforcement
// to the body-consumption layer (package fetch) rather than pre-buffering.
package decode

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Select returns the body stream to hand to the Body Mixin: either the raw
// upstream stream unchanged, or one wrapping it in a decompressing
// transform (§4.6).
func Select(encoding string, status int, method string, compress bool, body io.ReadCloser, logger *zap.Logger) io.ReadCloser {
	switch {
	case encoding == "":
	case status == http.StatusNoContent || status == http.StatusNotModified:
	case method == http.MethodHead:
	case !compress:
	default:
		return selectByEncoding(strings.ToLower(strings.TrimSpace(encoding)), body, logger)
	}
	return body
}

func selectByEncoding(encoding string, body io.ReadCloser, logger *zap.Logger) io.ReadCloser {
	switch encoding {
	case "gzip", "x-gzip":
		return newTolerantGzipReader(body, logger)
	case "deflate":
		return newDeflateReader(body, logger)
	default:
		return body
	}
}

// tolerantGzipReader wraps a *gzip.Reader so that a truncated stream
// (any io.ErrUnexpectedEOF from the gzip reader, such as a short
// CRC32+ISIZE trailer) surfaces as a clean EOF rather than a read error,
// after handing back whatever bytes that read produced, matching the
// leniency real-world gzip-serving origins require.
type tolerantGzipReader struct {
	gz     *gzip.Reader
	orig   io.ReadCloser
	logger *zap.Logger
	done   bool
}

func newTolerantGzipReader(body io.ReadCloser, logger *zap.Logger) io.ReadCloser {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return &errReader{err: err, orig: body}
	}
	return &tolerantGzipReader{gz: gz, orig: body, logger: logger}
}

func (t *tolerantGzipReader) Read(p []byte) (int, error) {
	if t.done {
		return 0, io.EOF
	}
	n, err := t.gz.Read(p)
	if err != nil && errors.Is(err, io.ErrUnexpectedEOF) {
		t.done = true
		if t.logger != nil {
			t.logger.Debug("tolerating truncated gzip trailer")
		}
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}
	return n, err
}

func (t *tolerantGzipReader) Close() error {
	gzErr := t.gz.Close()
	origErr := t.orig.Close()
	if gzErr != nil && !errors.Is(gzErr, io.ErrUnexpectedEOF) {
		return gzErr
	}
	return origErr
}

// newDeflateReader peeks the first byte of the payload to tell a
// zlib-wrapped deflate stream from a raw (legacy, headerless) one: a
// zlib header's first byte has compression method 8 (CM=8) in its low
// nibble and a CINFO value of 7 or less in its high nibble.
func newDeflateReader(body io.ReadCloser, logger *zap.Logger) io.ReadCloser {
	br := bufio.NewReader(body)
	first, err := br.Peek(1)
	if err != nil {
		// Empty or unreadable body: nothing to inflate either way.
		return &passthroughReader{r: br, orig: body}
	}
	if looksZlibWrapped(first[0]) {
		zr, err := zlib.NewReader(br)
		if err != nil {
			return &errReader{err: err, orig: body}
		}
		if logger != nil {
			logger.Debug("deflate payload detected as zlib-wrapped")
		}
		return &readCloserPair{r: zr, closer: zr, orig: body}
	}
	if logger != nil {
		logger.Debug("deflate payload detected as raw deflate")
	}
	fr := flate.NewReader(br)
	return &readCloserPair{r: fr, closer: fr, orig: body}
}

func looksZlibWrapped(b byte) bool {
	return b&0x0f == 8 && b>>4 <= 7
}

// readCloserPair closes both the decompressing transform and the
// original upstream stream, so the connection is always released.
type readCloserPair struct {
	r      io.Reader
	closer io.Closer
	orig   io.ReadCloser
}

func (p *readCloserPair) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *readCloserPair) Close() error {
	err := p.closer.Close()
	origErr := p.orig.Close()
	if err != nil {
		return err
	}
	return origErr
}

// passthroughReader is used when there is nothing to decode (an empty
// deflate body) but the bytes already peeked into the bufio.Reader must
// still be exposed to the caller.
type passthroughReader struct {
	r    io.Reader
	orig io.ReadCloser
}

func (p *passthroughReader) Read(b []byte) (int, error) { return p.r.Read(b) }
func (p *passthroughReader) Close() error                { return p.orig.Close() }

// errReader always fails its first Read with err (a malformed
// gzip/zlib header), but still allows the caller to Close the
// underlying stream.
type errReader struct {
	err  error
	orig io.ReadCloser
}

func (e *errReader) Read([]byte) (int, error) { return 0, e.err }
func (e *errReader) Close() error              { return e.orig.Close() }
