// Package urlhandler provides the URL handler capability used to fetch
// schema documents, plus the built-in file, package-data, and in-memory
// handlers.
package urlhandler

import (
	"net/url"

	rngerrors "github.com/jacoelho/rnginline/errors"
)

// Handler fetches the raw bytes a URL refers to. Handlers are consulted in
// order; the first whose CanHandle reports true services the URL.
type Handler interface {
	// CanHandle reports whether this handler services the given URL.
	CanHandle(u string) bool
	// Dereference fetches the bytes the URL refers to.
	Dereference(u string) ([]byte, error)
}

// For returns the first handler claiming u.
func For(handlers []Handler, u string) (Handler, error) {
	for _, h := range handlers {
		if h.CanHandle(u) {
			return h, nil
		}
	}
	return nil, rngerrors.Newf(rngerrors.ErrNoHandler, "no handler can handle url").WithURI(u)
}

func scheme(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return parsed.Scheme
}
