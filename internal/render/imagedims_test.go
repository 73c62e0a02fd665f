package render

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onePixelPNG is a valid, minimal 1x1 white PNG, base64-encoded so the
// raw bytes don't need to be typed out literal-escaped.
const onePixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+A8AAQUBAScY42YAAAAASUVORK5CYII="

func TestDecodeImageDimensions_ValidPNGReportsSize(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(onePixelPNG)
	require.NoError(t, err)

	width, height, ok := decodeImageDimensions(data)
	require.True(t, ok)
	assert.Equal(t, 1, width)
	assert.Equal(t, 1, height)
}

func TestDecodeImageDimensions_NonImageDataReportsNotOK(t *testing.T) {
	_, _, ok := decodeImageDimensions([]byte("const x = 1;"))
	assert.False(t, ok)
}

func TestDecodeImageDimensions_TruncatedPNGHeaderReportsNotOK(t *testing.T) {
	_, _, ok := decodeImageDimensions([]byte("\x89PNGfake-binary-content"))
	assert.False(t, ok)
}
