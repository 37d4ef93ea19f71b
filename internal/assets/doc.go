// Package assets provides the CSS styles and HTML templates used to present
// converted documents and diagram previews.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles and templates (go:embed)
//	    ├── FilesystemLoader  - overrides read from a directory on disk
//	    └── AssetResolver     - custom-first lookup with embedded fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css      # page styles (default, compact)
//	└── templates/
//	    └── {name}.html     # page.html, diagram.html
//
// # Security
//
// Asset names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
