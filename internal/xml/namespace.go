package xml

import (
	"github.com/jacoelho/rnginline/internal/uri"
)

// Declarations returns the namespace declarations carried by the element
// itself, in attribute order.
func (e *Element) Declarations() []Attr {
	var decls []Attr
	for _, a := range e.Attrs {
		if a.IsDeclaration() {
			decls = append(decls, a)
		}
	}
	return decls
}

// DeclaresPrefix reports whether the element itself declares the prefix.
// The empty prefix means the default namespace declaration.
func (e *Element) DeclaresPrefix(prefix string) bool {
	for _, a := range e.Attrs {
		if a.IsDeclaration() && a.Prefix() == prefix {
			return true
		}
	}
	return false
}

// ScopeDeclarations returns the prefix bindings in scope at the element,
// walking ancestor declarations with the usual shadowing. The empty key
// holds the default namespace.
func (e *Element) ScopeDeclarations() map[string]string {
	var chain []*Element
	for cur := e; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	scope := map[string]string{
		"xml": XMLNamespace,
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, a := range chain[i].Attrs {
			if a.IsDeclaration() {
				scope[a.Prefix()] = a.Value
			}
		}
	}
	return scope
}

// EffectiveNS returns the RELAX NG default namespace in effect at the
// element: the ns attribute of the nearest ancestor-or-self carrying one.
// ok is false when no ns attribute is in scope.
func (e *Element) EffectiveNS() (value string, ok bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, found := cur.Attr("ns"); found {
			return v, true
		}
	}
	return "", false
}

// EffectiveDatatypeLibrary returns the datatypeLibrary in effect at the
// element; the default is the empty library.
func (e *Element) EffectiveDatatypeLibrary() string {
	for cur := e; cur != nil; cur = cur.parent {
		if v, found := cur.Attr("datatypeLibrary"); found {
			return v
		}
	}
	return ""
}

// BaseURI computes the element's base URI: docBase with every xml:base
// attribute from the root down to the element resolved in turn.
func (e *Element) BaseURI(docBase string) (string, error) {
	var chain []*Element
	for cur := e; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	base := docBase
	for i := len(chain) - 1; i >= 0; i-- {
		xmlBase, ok := chain[i].AttrNS(XMLNamespace, "base")
		if !ok {
			continue
		}
		resolved, err := uri.Resolve(base, uri.EscapeHref(xmlBase))
		if err != nil {
			return "", err
		}
		base = resolved
	}
	return base, nil
}
