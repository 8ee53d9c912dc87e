package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBlobLowerCasesType(t *testing.T) {
	b := NewBlob([]byte("payload"), "Application/JSON")
	assert.Equal(t, "application/json", b.Type())
	assert.Equal(t, int64(len("payload")), b.Size())
	assert.Equal(t, []byte("payload"), b.Bytes())
}

func TestNilBlobIsSafe(t *testing.T) {
	var b *Blob
	assert.Nil(t, b.Bytes())
	assert.Equal(t, int64(0), b.Size())
	assert.Equal(t, "", b.Type())
}
