package render

// AssetInfo is the metadata webpack-style tooling and downstream plugins
// (processAssets, afterEmit) consult about one emitted file (spec.md
// §4.7 "Asset info tracks").
type AssetInfo struct {
	// Minimized reports whether the asset's source has already passed
	// through a minifier.
	Minimized bool

	// Immutable reports whether the filename is content-derived and
	// therefore safe to cache forever (a [contenthash]/[chunkhash]
	// filename with no runtime-resolved dynamic path component).
	Immutable bool

	// FullHashFilename is set when the template includes the full
	// build hash ([hash]), since such assets must be re-emitted on
	// every build regardless of their own content hash.
	FullHashFilename string

	// SourceFilename is the source type the asset was rendered from
	// (e.g. "javascript", "css"), as RenderChunk sets it.
	SourceFilename string

	// Width and Height are the decoded pixel dimensions of an asset
	// recognized as a raster image (PNG, GIF, JPEG, WebP). Both are
	// zero for non-image assets or images in an unrecognized format.
	Width, Height int

	// RelatedFiles maps a relation kind ("sourcemap", ...) to the
	// filename of the related asset.
	RelatedFiles map[string]string

	// HotModuleReplacement and Version mark *.hot-update.js/json
	// assets (spec.md §6 "Hot-module-replacement wire format"), whose
	// emission bypasses normal content-hash versioning.
	HotModuleReplacement bool
	Version              string
}

// Asset pairs an emitted filename and its rendered bytes with the
// metadata plugins and the filesystem writer consult about it.
type Asset struct {
	Filename string
	Source   []byte
	Info     AssetInfo
}
