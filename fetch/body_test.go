package fetch

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofatutor/gofetch/fetcherr"
)

func assertFetchErrKind(t *testing.T, err error, kind fetcherr.Kind) {
	t.Helper()
	require.Error(t, err)
	var fe *fetcherr.FetchError
	require.True(t, errors.As(err, &fe), "expected a *fetcherr.FetchError, got %T: %v", err, err)
	assert.Equal(t, kind, fe.Type)
}

func TestTextBodyConsumeOnce(t *testing.T) {
	h := newBodyHolder(TextBody("hello world"), "http://example.test")
	text, err := h.Text(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.True(t, h.BodyUsed())

	_, err = h.Text(context.Background(), 0, 0)
	assertFetchErrKind(t, err, fetcherr.AlreadyUsed)
}

func TestJSONRoundTrip(t *testing.T) {
	h := newBodyHolder(TextBody(`{"a":1,"b":"x"}`), "http://example.test")
	v, err := h.JSON(context.Background(), 0, 0)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", m["b"])
}

func TestJSONInvalidFails(t *testing.T) {
	h := newBodyHolder(TextBody(`not json`), "http://example.test")
	_, err := h.JSON(context.Background(), 0, 0)
	assertFetchErrKind(t, err, fetcherr.InvalidJSON)
}

type closerReader struct {
	io.Reader
	closed bool
}

func (c *closerReader) Close() error { c.closed = true; return nil }

func TestStreamBodySizeCapRejectsFirstOversizedChunk(t *testing.T) {
	body := strings.Repeat("x", 6)
	h := newBodyHolder(StreamBody(&closerReader{Reader: strings.NewReader(body)}), "http://example.test")
	_, err := h.Buffer(context.Background(), 5, 0)
	assertFetchErrKind(t, err, fetcherr.MaxSize)
}

func TestStreamBodySizeCapExactBoundarySucceeds(t *testing.T) {
	body := strings.Repeat("x", 5)
	h := newBodyHolder(StreamBody(&closerReader{Reader: strings.NewReader(body)}), "http://example.test")
	b, err := h.Buffer(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, body, string(b))
}

type slowReader struct{ delay time.Duration }

func (s *slowReader) Read(p []byte) (int, error) {
	time.Sleep(s.delay)
	return 0, io.EOF
}
func (s *slowReader) Close() error { return nil }

func TestStreamBodyTimeout(t *testing.T) {
	h := newBodyHolder(StreamBody(&slowReader{delay: 50 * time.Millisecond}), "http://example.test")
	_, err := h.Buffer(context.Background(), 0, 5*time.Millisecond)
	assertFetchErrKind(t, err, fetcherr.BodyTimeout)
}

func TestBlobBodyResolvesBytesAndType(t *testing.T) {
	h := newBodyHolder(BlobBody(NewBlob([]byte("abc"), "Text/Plain")), "http://example.test")
	b, err := h.Blob(context.Background(), "text/plain", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b.Bytes())
	assert.Equal(t, "text/plain", b.Type())
}

func TestNullBodyResolvesEmpty(t *testing.T) {
	h := newBodyHolder(NullBody(), "http://example.test")
	b, err := h.Buffer(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, b)
}
