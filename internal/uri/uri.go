// Package uri implements RFC 3986 URI-reference resolution and the href
// escaping rules inlining depends on.
package uri

import (
	"net/url"
	"strings"

	rngerrors "github.com/jacoelho/rnginline/errors"
)

// IsURI reports whether text is an absolute URI with a scheme.
func IsURI(text string) bool {
	u, err := url.Parse(text)
	return err == nil && u.Scheme != ""
}

// IsURIReference reports whether text matches the URI-reference grammar,
// which also admits relative references without a scheme.
func IsURIReference(text string) bool {
	_, err := url.Parse(text)
	return err == nil
}

// Resolve resolves reference against base per RFC 3986 section 5.2.
// base must be an absolute URI; reference may be relative. A reference
// carrying its own scheme replaces base entirely.
func Resolve(base, reference string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", rngerrors.Newf(rngerrors.ErrMalformedURI, "base is not a valid URI: %s", base)
	}
	if b.Scheme == "" {
		return "", rngerrors.Newf(rngerrors.ErrMalformedURI, "base is not absolute: %s", base)
	}
	ref, err := url.Parse(reference)
	if err != nil {
		return "", rngerrors.Newf(rngerrors.ErrMalformedURI, "reference is not a valid URI-reference: %s", reference)
	}
	if b.Opaque != "" && ref.Scheme == "" && !strings.HasPrefix(ref.Path, "/") {
		// net/url refuses to merge against opaque bases such as
		// "file:relative"; a scheme-relative path is still well defined.
		return resolveOpaque(b, ref), nil
	}
	return b.ResolveReference(ref).String(), nil
}

func resolveOpaque(base, ref *url.URL) string {
	if ref.Opaque != "" {
		return base.Scheme + ":" + ref.Opaque + suffix(ref)
	}
	if ref.Path == "" {
		q := ref.RawQuery
		if q == "" {
			q = base.RawQuery
		}
		out := base.Scheme + ":" + base.Opaque
		if q != "" {
			out += "?" + q
		}
		if ref.Fragment != "" {
			out += "#" + ref.EscapedFragment()
		}
		return out
	}
	merged := base.Opaque
	if i := strings.LastIndex(merged, "/"); i >= 0 {
		merged = merged[:i+1] + ref.EscapedPath()
	} else {
		merged = ref.EscapedPath()
	}
	return base.Scheme + ":" + merged + suffix(ref)
}

func suffix(ref *url.URL) string {
	var out string
	if ref.RawQuery != "" {
		out += "?" + ref.RawQuery
	}
	if ref.Fragment != "" {
		out += "#" + ref.EscapedFragment()
	}
	return out
}

// hrefAllowed reports whether XLink 1.0 section 5.4 permits b unescaped in
// an href attribute value used as a URI.
func hrefAllowed(b byte) bool {
	if b >= 0x80 || b <= 0x1f {
		return false
	}
	switch b {
	case ' ', '<', '>', '"', '{', '}', '|', '\\', '^', '`', 0x7f:
		return false
	}
	return true
}

// EscapeHref percent-escapes the characters RELAX NG permits in href
// attributes but RFC 3986 does not permit in URIs.
func EscapeHref(href string) string {
	needs := false
	for i := 0; i < len(href); i++ {
		if !hrefAllowed(href[i]) {
			needs = true
			break
		}
	}
	if !needs {
		return href
	}

	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(href) + 8)
	for i := 0; i < len(href); i++ {
		c := href[i]
		if hrefAllowed(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0xf])
	}
	return b.String()
}
