package fetch

import (
	"io"

	"github.com/sofatutor/gofetch/fetcherr"
)

// teeBody implements §4.7's clone rule for stream bodies: construct two
// independent pass-through readers fed from the same upstream, replace
// the owner's body with the first, and return the second. Both sides
// can be read concurrently without dropping bytes. Multipart-form
// bodies are not stream bodies in this sense (they are piped to the
// wire on demand, not tee-able mid-stream) so they fall through to the
// by-reference path in cloneBody below.
func teeBody(rc io.ReadCloser) (io.ReadCloser, io.ReadCloser) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	go func() {
		defer rc.Close()
		defer w1.Close()
		defer w2.Close()
		buf := make([]byte, 32*1024)
		for {
			n, err := rc.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				if werr := writeAll(w1, chunk); werr != nil {
					_ = w2.CloseWithError(werr)
					return
				}
				if werr := writeAll(w2, chunk); werr != nil {
					_ = w1.CloseWithError(werr)
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					_ = w1.CloseWithError(err)
					_ = w2.CloseWithError(err)
				}
				return
			}
		}
	}()
	return r1, r2
}

func writeAll(w io.Writer, p []byte) error {
	_, err := w.Write(p)
	return err
}

// cloneBody implements the body half of §4.7 Clone: fails if the
// holder is already disturbed, else either tees a live stream (leaving
// the original holder pointing at one tee) or shares the body by
// reference when it is replayable or a form (safe: replayable bodies
// re-serialize from scratch, and a form streams on demand each time).
func cloneBody(h *BodyHolder) (*BodyHolder, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disturbed {
		return nil, fetcherr.NewAlreadyUsed()
	}
	if h.body.kind == bodyStream {
		a, b := teeBody(h.body.stream)
		h.body = Body{kind: bodyStream, stream: a}
		clone := newBodyHolder(Body{kind: bodyStream, stream: b}, h.url)
		clone.SetLogger(h.logger)
		return clone, nil
	}
	clone := newBodyHolder(h.body, h.url)
	clone.SetLogger(h.logger)
	return clone, nil
}
