package fetch

import "strings"

// Blob is a minimal immutable byte container paired with a MIME type,
// treated as a leaf value alongside Headers rather than something built
// out of smaller pieces. It exists so Body can hold a Blob variant
// without pulling in a larger dependency for what is, here, just tagged
// bytes.
type Blob struct {
	data     []byte
	mimeType string
}

// NewBlob wraps data, tagging it with mimeType lower-cased per the
// Body Mixin's blob() contract (§4.1).
func NewBlob(data []byte, mimeType string) *Blob {
	return &Blob{data: data, mimeType: strings.ToLower(mimeType)}
}

// Bytes returns the backing bytes. Callers must not mutate the result.
func (b *Blob) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Size returns the byte length.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.data))
}

// Type returns the lower-cased MIME type, or "" if none was set.
func (b *Blob) Type() string {
	if b == nil {
		return ""
	}
	return b.mimeType
}
