package fetch

import (
	"fmt"
	"io"
)

// extractContentType implements §4.2's extractContentType(body): it is
// consulted only when the caller did not already set a Content-Type.
func extractContentType(b Body) string {
	switch b.kind {
	case bodyText:
		return "text/plain;charset=UTF-8"
	case bodyBlob:
		return b.blob.Type()
	case bodyBytes:
		return ""
	case bodyForm:
		return fmt.Sprintf("multipart/form-data;boundary=%s", b.form.Boundary())
	default:
		return ""
	}
}

// getTotalBytes implements §4.2's getTotalBytes(body). The second return
// value reports whether a concrete length is known; when false, callers
// must not set Content-Length (and should let the stack chunk-encode).
func getTotalBytes(b Body) (int64, bool) {
	switch b.kind {
	case bodyNull:
		return 0, true
	case bodyText:
		return int64(len(b.text)), true
	case bodyBytes:
		return int64(len(b.bytes)), true
	case bodyBlob:
		return b.blob.Size(), true
	case bodyForm:
		if b.form.HasKnownLength() {
			return b.form.Length(), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// writeToStream implements §4.2's writeToStream(dest, body): writes the
// body's bytes onto dest and signals completion by returning.
func writeToStream(dest io.Writer, b Body) error {
	switch b.kind {
	case bodyNull:
		return nil
	case bodyText:
		_, err := io.WriteString(dest, b.text)
		return err
	case bodyBytes:
		_, err := dest.Write(b.bytes)
		return err
	case bodyBlob:
		_, err := dest.Write(b.blob.Bytes())
		return err
	case bodyStream:
		_, err := io.Copy(dest, b.stream)
		return err
	case bodyForm:
		_, err := b.form.WriteTo(dest)
		return err
	default:
		return nil
	}
}

// bodyReader returns an io.Reader suitable for handing to
// http.NewRequestWithContext's body parameter, or nil for a null body.
func bodyReader(b Body) io.Reader {
	if b.kind == bodyNull {
		return nil
	}
	pr, pw := io.Pipe()
	go func() {
		err := writeToStream(pw, b)
		_ = pw.CloseWithError(err)
	}()
	return pr
}
