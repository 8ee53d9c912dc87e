// Package fetch implements the core of a WHATWG-Fetch-compatible HTTP
// client: Request/Response construction, the Body Mixin, the Redirect
// Driver, and the top-level Fetch entry point. HTTP/1.x wire parsing,
// TLS, DNS, and connection pooling are left to net/http, treated
// throughout as the external "platform HTTP stack" collaborator.
package fetch

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sofatutor/gofetch/fetcherr"
)

type bodyKind int

const (
	bodyNull bodyKind = iota
	bodyText
	bodyBytes
	bodyBlob
	bodyStream
	bodyForm
)

// Body is the tagged union over the six body shapes a fetch request or
// response can carry: null, a UTF-8 string, an immutable byte buffer, a
// Blob, an opaque one-shot byte stream, or a multipart-form object. The
// first four are replayable (can be serialized to the wire any number
// of times); the last two are one-shot.
type Body struct {
	kind   bodyKind
	text   string
	bytes  []byte
	blob   *Blob
	stream io.ReadCloser
	form   *Form
}

// NullBody is the empty body.
func NullBody() Body { return Body{kind: bodyNull} }

// TextBody wraps a UTF-8 string body.
func TextBody(s string) Body { return Body{kind: bodyText, text: s} }

// BytesBody wraps an immutable byte buffer body (zero-copy).
func BytesBody(b []byte) Body { return Body{kind: bodyBytes, bytes: b} }

// BlobBody wraps a Blob body.
func BlobBody(b *Blob) Body { return Body{kind: bodyBlob, blob: b} }

// StreamBody wraps a one-shot opaque byte stream body.
func StreamBody(r io.ReadCloser) Body { return Body{kind: bodyStream, stream: r} }

// FormBody wraps a multipart-form body.
func FormBody(f *Form) Body { return Body{kind: bodyForm, form: f} }

// IsNull reports whether this is the null body.
func (b Body) IsNull() bool { return b.kind == bodyNull }

// replayable reports whether b can be re-serialized to the wire more
// than once (§3: null/text/bytes/blob are; stream/form are one-shot).
func (b Body) replayable() bool {
	switch b.kind {
	case bodyNull, bodyText, bodyBytes, bodyBlob:
		return true
	default:
		return false
	}
}

// BodyHolder is the Body Mixin (§4.1): the shared state and operations
// common to both Request and Response. Request and Response each embed
// a *BodyHolder so that, when one Request is built by wrapping another,
// the two holders can share the same pointer and therefore the same
// disturbed flag and body — transferred by reference, not cloned (§3
// invariants).
type BodyHolder struct {
	mu        sync.Mutex
	disturbed bool
	body      Body
	url       string
	logger    *zap.Logger
}

func newBodyHolder(body Body, url string) *BodyHolder {
	return &BodyHolder{body: body, url: url, logger: zap.NewNop()}
}

// SetLogger attaches a structured logger, replacing the no-op default.
func (h *BodyHolder) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	h.mu.Lock()
	h.logger = l
	h.mu.Unlock()
}

// discardStream closes the underlying stream without marking the
// holder disturbed, used to release a connection held by an
// intermediate redirect-hop response the caller will never read
// (§4.4: each hop's response body is otherwise orphaned once the
// driver moves on to the next hop).
func (h *BodyHolder) discardStream() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.body.kind == bodyStream && !h.disturbed {
		_ = h.body.stream.Close()
	}
}

// BodyUsed reports whether the body has already been consumed.
func (h *BodyHolder) BodyUsed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disturbed
}

// consume implements the Consume algorithm of §4.1: fails immediately if
// already disturbed, otherwise marks disturbed and materializes the body
// to bytes, applying the timeout/size-cap race for stream bodies. size
// and timeout are supplied by the caller (Request/Response) rather than
// stored on the holder, since a holder can be shared by reference
// between two Requests with different option overrides (§3: "the inner
// body is transferred by reference ... bodyUsed propagates").
func (h *BodyHolder) consume(ctx context.Context, sizeCap int64, timeout time.Duration) ([]byte, error) {
	h.mu.Lock()
	if h.disturbed {
		h.mu.Unlock()
		return nil, fetcherr.NewAlreadyUsed()
	}
	h.disturbed = true
	body := h.body
	h.mu.Unlock()

	switch body.kind {
	case bodyNull:
		return []byte{}, nil
	case bodyText:
		return []byte(body.text), nil
	case bodyBytes:
		return body.bytes, nil
	case bodyBlob:
		return body.blob.Bytes(), nil
	case bodyStream:
		return h.accumulate(ctx, body.stream, sizeCap, timeout)
	case bodyForm:
		pr, pw := io.Pipe()
		go func() {
			_, err := body.form.WriteTo(pw)
			_ = pw.CloseWithError(err)
		}()
		return h.accumulate(ctx, pr, sizeCap, timeout)
	default:
		return []byte{}, nil
	}
}

type chunkResult struct {
	buf []byte
	err error
}

// accumulate reads rc to completion, honoring both a size cap and a
// read timeout. Per §4.1/§5, only the first terminal event (error,
// timeout, size-exceeded, or clean end) takes effect; the timer is
// disarmed on every exit path, and the size check happens before an
// oversized chunk is appended so a single huge chunk is rejected too.
func (h *BodyHolder) accumulate(ctx context.Context, rc io.ReadCloser, sizeCap int64, timeout time.Duration) ([]byte, error) {
	resultCh := make(chan chunkResult, 1)
	go func() {
		buf := make([]byte, 0, 4096)
		tmp := make([]byte, 32*1024)
		for {
			n, err := rc.Read(tmp)
			if n > 0 {
				if sizeCap > 0 && int64(len(buf)+n) > sizeCap {
					_ = rc.Close()
					resultCh <- chunkResult{err: fetcherr.NewMaxSize(h.url, sizeCap)}
					return
				}
				buf = append(buf, tmp[:n]...)
			}
			if err != nil {
				_ = rc.Close()
				if err == io.EOF {
					resultCh <- chunkResult{buf: buf}
				} else {
					resultCh <- chunkResult{err: fetcherr.NewSystem(err)}
				}
				return
			}
		}
	}()

	var timerC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case r := <-resultCh:
		if r.err != nil {
			h.logger.Debug("body consume failed", zap.String("url", h.url), zap.Error(r.err))
		}
		return r.buf, r.err
	case <-timerC:
		_ = rc.Close()
		h.logger.Debug("body read timed out", zap.String("url", h.url), zap.Duration("timeout", timeout))
		return nil, fetcherr.NewBodyTimeout(h.url, timeout)
	case <-ctx.Done():
		_ = rc.Close()
		return nil, fetcherr.NewSystem(ctx.Err())
	}
}

// Buffer resolves to the full body bytes (non-standard escape hatch).
func (h *BodyHolder) Buffer(ctx context.Context, sizeCap int64, timeout time.Duration) ([]byte, error) {
	return h.consume(ctx, sizeCap, timeout)
}

// ArrayBuffer resolves to an immutable byte view over the body bytes.
func (h *BodyHolder) ArrayBuffer(ctx context.Context, sizeCap int64, timeout time.Duration) ([]byte, error) {
	b, err := h.consume(ctx, sizeCap, timeout)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Text resolves to the UTF-8-decoded string of the body bytes; no other
// encoding is ever honored, even if a charset is advertised (§4.1).
func (h *BodyHolder) Text(ctx context.Context, sizeCap int64, timeout time.Duration) (string, error) {
	b, err := h.consume(ctx, sizeCap, timeout)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSON resolves text() then parses it as JSON, failing with
// invalid-json (wrapping the parser's message) otherwise.
func (h *BodyHolder) JSON(ctx context.Context, sizeCap int64, timeout time.Duration) (any, error) {
	text, err := h.Text(ctx, sizeCap, timeout)
	if err != nil {
		return nil, err
	}
	v, perr := parseJSON(text)
	if perr != nil {
		return nil, fetcherr.NewInvalidJSON(perr)
	}
	return v, nil
}

// Blob resolves to a Blob wrapping the body bytes, tagged with the
// lower-cased Content-Type header if present, else empty type.
func (h *BodyHolder) Blob(ctx context.Context, contentType string, sizeCap int64, timeout time.Duration) (*Blob, error) {
	b, err := h.consume(ctx, sizeCap, timeout)
	if err != nil {
		return nil, err
	}
	return NewBlob(b, contentType), nil
}
