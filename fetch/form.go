package fetch

import (
	"io"
	"mime/multipart"
	"net/textproto"
)

// Form is the multipart-form-data body variant: the one body kind beyond
// Blob/stream that needs two extra capabilities — boundary production
// and optional length reporting (§3, §4.2). It is modeled as a concrete
// type rather than an interface since callers only ever need those two
// capabilities plus a write-to-the-wire method; see FormBody for the
// Body-variant view used by extractContentType/getTotalBytes/
// writeToStream.
type Form struct {
	boundary string
	fields   []formField
}

type formField struct {
	name        string
	filename    string // "" for a plain field
	contentType string
	data        []byte    // set when the part's content is known up front
	stream      io.Reader // set when the part is a one-shot stream (unknown length)
}

// NewForm creates an empty multipart form with a fresh random boundary.
func NewForm() *Form {
	// mime/multipart generates a collision-resistant boundary for us; we
	// only need the string, so the destination writer is never used.
	w := multipart.NewWriter(io.Discard)
	return &Form{boundary: w.Boundary()}
}

// AppendField adds a plain text field.
func (f *Form) AppendField(name, value string) {
	f.fields = append(f.fields, formField{name: name, data: []byte(value)})
}

// AppendFileBytes adds a file part whose full content is already known,
// keeping the form's length computable.
func (f *Form) AppendFileBytes(name, filename, contentType string, data []byte) {
	f.fields = append(f.fields, formField{name: name, filename: filename, contentType: contentType, data: data})
}

// AppendFileStream adds a file part backed by a one-shot io.Reader of
// unknown size. Its presence makes the form's total length unknowable.
func (f *Form) AppendFileStream(name, filename, contentType string, r io.Reader) {
	f.fields = append(f.fields, formField{name: name, filename: filename, contentType: contentType, stream: r})
}

// Boundary returns the multipart boundary token used by WriteTo.
func (f *Form) Boundary() string { return f.boundary }

// HasKnownLength reports whether every part's size is known up front,
// i.e. none of them is a streaming file part.
func (f *Form) HasKnownLength() bool {
	for _, part := range f.fields {
		if part.stream != nil {
			return false
		}
	}
	return true
}

// Length returns the exact encoded byte length. Only meaningful when
// HasKnownLength reports true; computed by serializing into a counting
// discard sink, since every part is already in memory in that case.
func (f *Form) Length() int64 {
	if !f.HasKnownLength() {
		return 0
	}
	counter := &countingWriter{}
	_, _ = f.writeTo(counter)
	return counter.n
}

// WriteTo serializes the form as multipart/form-data onto w, streaming
// any file-stream parts directly rather than buffering them.
func (f *Form) WriteTo(w io.Writer) (int64, error) {
	return f.writeTo(w)
}

func (f *Form) writeTo(w io.Writer) (int64, error) {
	counter := &countingWriter{w: w}
	mw := multipart.NewWriter(counter)
	if err := mw.SetBoundary(f.boundary); err != nil {
		return counter.n, err
	}
	for _, part := range f.fields {
		if err := writeFormPart(mw, part); err != nil {
			return counter.n, err
		}
	}
	if err := mw.Close(); err != nil {
		return counter.n, err
	}
	return counter.n, nil
}

func writeFormPart(mw *multipart.Writer, part formField) error {
	if part.filename == "" {
		return mw.WriteField(part.name, string(part.data))
	}
	var pw io.Writer
	var err error
	if part.contentType != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+part.name+`"; filename="`+part.filename+`"`)
		h.Set("Content-Type", part.contentType)
		pw, err = mw.CreatePart(h)
	} else {
		pw, err = mw.CreateFormFile(part.name, part.filename)
	}
	if err != nil {
		return err
	}
	if part.stream != nil {
		_, err = io.Copy(pw, part.stream)
		return err
	}
	_, err = pw.Write(part.data)
	return err
}

// countingWriter counts bytes written, optionally forwarding them to an
// underlying writer (nil means "count only", used by Length()).
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	if c.w == nil {
		return len(p), nil
	}
	return c.w.Write(p)
}
