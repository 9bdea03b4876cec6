package urlhandler

import (
	"errors"
	"io/fs"
	"net/url"
	"regexp"
	"strings"

	rngerrors "github.com/jacoelho/rnginline/errors"
)

// PackageDataScheme is the URL scheme identifying schema fragments bundled
// as package resources: pkgdata://<package>/<resource-path>.
const PackageDataScheme = "pkgdata"

var packageNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)

// PackageData handles pkgdata: URLs against a fixed set of named
// filesystems, typically embed.FS values registered by the caller. There is
// no process-wide registry; each handler owns its own mapping.
type PackageData struct {
	packages map[string]fs.FS
}

// NewPackageData builds a handler serving the given package filesystems.
func NewPackageData(packages map[string]fs.FS) *PackageData {
	copied := make(map[string]fs.FS, len(packages))
	for name, fsys := range packages {
		copied[name] = fsys
	}
	return &PackageData{packages: copied}
}

// CanHandle reports whether u carries the pkgdata scheme.
func (*PackageData) CanHandle(u string) bool {
	return scheme(u) == PackageDataScheme
}

// Dereference reads the resource out of the named package's filesystem.
func (h *PackageData) Dereference(u string) ([]byte, error) {
	pkg, path, err := SplitPackageDataURL(u)
	if err != nil {
		return nil, err
	}
	fsys, ok := h.packages[pkg]
	if !ok {
		return nil, rngerrors.Newf(rngerrors.ErrResourceNotFound, "unknown package: %s", pkg).WithURI(u)
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, rngerrors.Newf(rngerrors.ErrResourceNotFound, "no resource %s in package %s", path, pkg).WithURI(u)
		}
		return nil, rngerrors.Newf(rngerrors.ErrResourceFetch, "read %s from package %s: %v", path, pkg, err).WithURI(u)
	}
	return data, nil
}

// PackageDataURL builds a pkgdata URL referencing a resource in a package.
func PackageDataURL(pkg, resourcePath string) (string, error) {
	if !packageNamePattern.MatchString(pkg) {
		return "", rngerrors.Newf(rngerrors.ErrMalformedURI, "not a valid package name: %s", pkg)
	}
	if strings.HasPrefix(resourcePath, "/") {
		return "", rngerrors.Newf(rngerrors.ErrMalformedURI, "resource path must not start with a slash: %s", resourcePath)
	}
	return PackageDataScheme + "://" + pkg + "/" + escapePath(resourcePath), nil
}

// SplitPackageDataURL decomposes a pkgdata URL into package name and
// resource path.
func SplitPackageDataURL(u string) (pkg, path string, err error) {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme != PackageDataScheme {
		return "", "", rngerrors.Newf(rngerrors.ErrMalformedURI, "not a pkgdata URL: %s", u)
	}
	pkg = parsed.Host
	if !packageNamePattern.MatchString(pkg) {
		return "", "", rngerrors.Newf(rngerrors.ErrMalformedURI, "not a valid package name: %s", pkg)
	}
	path = strings.TrimPrefix(parsed.Path, "/")
	if path == "" {
		return "", "", rngerrors.Newf(rngerrors.ErrMalformedURI, "pkgdata URL has no resource path: %s", u)
	}
	return pkg, path, nil
}
