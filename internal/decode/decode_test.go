package decode

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSelectGzipRoundTrip(t *testing.T) {
	payload := gzipBytes(t, "hello world")
	rc := Select("gzip", http.StatusOK, http.MethodGet, true, io.NopCloser(bytes.NewReader(payload)), nil)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))
	require.NoError(t, rc.Close())
}

func TestSelectGzipTruncatedTrailerTolerated(t *testing.T) {
	payload := gzipBytes(t, "hello world")
	truncated := payload[:len(payload)-4] // drop ISIZE, the last 4 bytes of the 8-byte trailer
	rc := Select("gzip", http.StatusOK, http.MethodGet, true, io.NopCloser(bytes.NewReader(truncated)), nil)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))
}

func TestSelectDeflateZlibWrapped(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte("zlib wrapped"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	rc := Select("deflate", http.StatusOK, http.MethodGet, true, io.NopCloser(&buf), nil)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "zlib wrapped", string(out))
}

func TestSelectDeflateRaw(t *testing.T) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte("raw deflate"))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	rc := Select("deflate", http.StatusOK, http.MethodGet, true, io.NopCloser(&buf), nil)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "raw deflate", string(out))
}

func TestSelectPassthroughCases(t *testing.T) {
	body := io.NopCloser(bytes.NewReader([]byte("untouched")))
	rc := Select("", http.StatusOK, http.MethodGet, true, body, nil)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "untouched", string(out))
}

func TestSelect204SkipsDecoding(t *testing.T) {
	body := io.NopCloser(bytes.NewReader(gzipBytes(t, "hello world")))
	rc := Select("gzip", http.StatusNoContent, http.MethodGet, true, body, nil)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.NotEqual(t, "hello world", string(out))
}

func TestSelectHeadSkipsDecoding(t *testing.T) {
	body := io.NopCloser(bytes.NewReader(gzipBytes(t, "hello world")))
	rc := Select("gzip", http.StatusOK, http.MethodHead, true, body, nil)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.NotEqual(t, "hello world", string(out))
}

func TestSelectCompressDisabledSkipsDecoding(t *testing.T) {
	body := io.NopCloser(bytes.NewReader(gzipBytes(t, "hello world")))
	rc := Select("gzip", http.StatusOK, http.MethodGet, false, body, nil)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.NotEqual(t, "hello world", string(out))
}
