package urlhandler

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	rngerrors "github.com/jacoelho/rnginline/errors"
)

// File handles file: URLs by reading the local filesystem.
type File struct{}

// CanHandle reports whether u carries the file scheme.
func (File) CanHandle(u string) bool {
	return scheme(u) == "file"
}

// Dereference reads the file the URL points to.
func (File) Dereference(u string) ([]byte, error) {
	path, err := FilePath(u)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rngerrors.Newf(rngerrors.ErrResourceNotFound, "file does not exist: %s", path).WithURI(u)
		}
		return nil, rngerrors.Newf(rngerrors.ErrResourceFetch, "read %s: %v", path, err).WithURI(u)
	}
	return data, nil
}

// FileURL builds a URL-reference pointing at a filesystem path. When abs is
// true the result carries the file scheme; otherwise it is a relative
// reference suitable for resolution against a base URL. The current
// directory has no effect on the result.
func FileURL(path string, abs bool) string {
	escaped := escapePath(filepath.ToSlash(path))
	if abs {
		return "file:" + escaped
	}
	return escaped
}

// FilePath decodes a file: URL (or scheme-less relative reference) into a
// filesystem path.
func FilePath(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", rngerrors.Newf(rngerrors.ErrMalformedURI, "not a valid URL: %s", u)
	}
	if parsed.Scheme != "file" && parsed.Scheme != "" {
		return "", rngerrors.Newf(rngerrors.ErrMalformedURI, "expected a file: or relative URL, got: %s", u)
	}
	if parsed.Host != "" && parsed.Host != "localhost" {
		return "", rngerrors.Newf(rngerrors.ErrMalformedURI, "file URL with remote host: %s", u)
	}
	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
		if unescaped, err := url.PathUnescape(path); err == nil {
			path = unescaped
		}
	}
	return filepath.FromSlash(path), nil
}

func escapePath(path string) string {
	// Escape segment-by-segment so separators survive.
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// CwdURL returns a file: URL for the current working directory, with the
// trailing slash resolution against it requires.
func CwdURL() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", rngerrors.Newf(rngerrors.ErrResourceFetch, "determine working directory: %v", err)
	}
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}
	return FileURL(dir, true), nil
}
