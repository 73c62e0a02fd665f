package render

import (
	"bytes"
	"image"

	// Register format decoders consulted by image.DecodeConfig below.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// decodeImageDimensions sniffs an asset body for a recognized raster image
// format (PNG, GIF, JPEG, WebP) and returns its pixel dimensions. Most
// asset modules are not images, so a decode failure is the expected case
// for those and is reported through ok rather than an error.
func decodeImageDimensions(body []byte) (width, height int, ok bool) {
	config, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return 0, 0, false
	}
	return config.Width, config.Height, true
}
