package rnginline

import (
	"io/fs"

	"github.com/jacoelho/rnginline/internal/postprocess"
	"github.com/jacoelho/rnginline/internal/urlhandler"
)

// Handler fetches the raw bytes of a referenced schema. CanHandle reports
// whether the handler claims a URL; Dereference fetches it. Handlers are
// consulted in registration order and the first claimant wins.
type Handler = urlhandler.Handler

// PostProcessor is a whole-tree pass applied to the merged schema after
// inlining completes.
type PostProcessor = postprocess.PostProcessor

// FileHandler returns a handler serving file: URLs from the local
// filesystem.
func FileHandler() Handler {
	return &urlhandler.File{}
}

// PackageDataHandler returns a handler serving pkgdata: URLs from the given
// named filesystems, typically embed.FS values.
func PackageDataHandler(packages map[string]fs.FS) Handler {
	return urlhandler.NewPackageData(packages)
}

// MemoryHandler returns a handler serving a fixed URL to content mapping,
// claiming exactly the URLs it was given.
func MemoryHandler(resources map[string][]byte) Handler {
	return urlhandler.NewMemory(resources)
}

// DefaultHandlers returns the handlers an Inliner uses when none are
// configured: the file handler and an empty package-data handler.
func DefaultHandlers() []Handler {
	return []Handler{
		FileHandler(),
		PackageDataHandler(nil),
	}
}

// FileURL converts a filesystem path into a file URL suitable for
// InlineURL or a default base URI. Relative paths produce relative URLs.
func FileURL(path string) string {
	return urlhandler.FileURL(path, false)
}

// PackageDataURL builds a pkgdata URL referencing a resource served by a
// PackageDataHandler.
func PackageDataURL(pkg, resourcePath string) (string, error) {
	return urlhandler.PackageDataURL(pkg, resourcePath)
}
