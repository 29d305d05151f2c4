// Package assets provides the pandoc LaTeX template and the Lua filters
// used to render scholar documents.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - compiled-in template and filters
//	    ├── FilesystemLoader  - a custom directory on disk (assets.dir)
//	    └── AssetResolver     - custom first, embedded on "not found"
//
// A custom directory only needs the files it overrides; everything else
// falls back to the embedded copy.
//
// # Directory Structure
//
//	{basePath}/
//	├── templates/
//	│   └── {name}.tex
//	└── filters/
//	    └── {name}.lua
//
// pandoc needs real files, so Materialize writes the resolved assets into
// the stage working directory before each conversion.
//
// # Security
//
// Asset names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
