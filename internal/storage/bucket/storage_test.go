package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "a_processed.png", ObjectName("", "a_processed.png"))
	assert.Equal(t, "batches/42/a.png", ObjectName("batches/42", "a.png"))
	assert.Equal(t, "batches/a.png", ObjectName("batches/", "a.png"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("x.png"))
	assert.Equal(t, "image/jpeg", contentType("x.jpg"))
	assert.Equal(t, "application/octet-stream", contentType("x.unknownext"))
}
