package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentID(t *testing.T) {
	a := ContentID([]byte("ct.dcm"), []byte("png"))
	assert.Equal(t, a, ContentID([]byte("ct.dcm"), []byte("png")))
	assert.NotEqual(t, a, ContentID([]byte("ct.dcmp"), []byte("ng")))
	assert.Len(t, a, 36)
}

func TestDicomUID(t *testing.T) {
	uid := DicomUID()
	assert.True(t, strings.HasPrefix(uid, "2.25."))
	assert.LessOrEqual(t, len(uid), 64)
	assert.NotEqual(t, uid, DicomUID())
	assert.NotEqual(t, RequestID(), RequestID())
}
