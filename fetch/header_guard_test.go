package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofatutor/gofetch/internal/headers"
)

func TestGuardHeadersSetsDefaults(t *testing.T) {
	out := guardHeaders(headers.New(), NullBody(), true)

	ua, ok := out.Get("User-Agent")
	assert.True(t, ok)
	assert.Equal(t, userAgent, ua)

	accept, ok := out.Get("Accept")
	assert.True(t, ok)
	assert.Equal(t, "*/*", accept)

	enc, ok := out.Get("Accept-Encoding")
	assert.True(t, ok)
	assert.Equal(t, "gzip,deflate", enc)
}

func TestGuardHeadersDoesNotOverrideUserValues(t *testing.T) {
	h := headers.New()
	require.NoError(t, h.Set("User-Agent", "custom/1.0"))
	require.NoError(t, h.Set("Accept", "application/json"))

	out := guardHeaders(h, NullBody(), true)
	ua, _ := out.Get("User-Agent")
	assert.Equal(t, "custom/1.0", ua)
	accept, _ := out.Get("Accept")
	assert.Equal(t, "application/json", accept)
}

func TestGuardHeadersSetsContentTypeFromBody(t *testing.T) {
	out := guardHeaders(headers.New(), TextBody("a=1"), true)
	ct, ok := out.Get("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain;charset=UTF-8", ct)
}

func TestGuardHeadersSetsContentLengthForKnownLengthBody(t *testing.T) {
	out := guardHeaders(headers.New(), BytesBody([]byte("abcde")), true)
	cl, ok := out.Get("Content-Length")
	assert.True(t, ok)
	assert.Equal(t, "5", cl)
}

func TestGuardHeadersOmitsAcceptEncodingWhenCompressDisabled(t *testing.T) {
	out := guardHeaders(headers.New(), NullBody(), false)
	assert.False(t, out.Has("Accept-Encoding"))
}
