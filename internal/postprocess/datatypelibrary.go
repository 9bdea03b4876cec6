package postprocess

import (
	"github.com/jacoelho/rnginline/internal/xml"
)

// DatatypeLibrary implements the propagation half of RELAX NG
// simplification 4.3: the effective datatypeLibrary is resolved and set
// explicitly on every data and value element, then stripped from all other
// elements. Relocated subtrees can then never pick up a different library
// from their new ancestors.
type DatatypeLibrary struct{}

// PostProcess rewrites the tree in place and returns it.
func (DatatypeLibrary) PostProcess(doc *xml.Document) (*xml.Document, error) {
	if doc == nil || doc.Root == nil {
		return doc, nil
	}

	var dataValues []*xml.Element
	doc.Root.Walk(func(e *xml.Element) bool {
		if e.IsRNG("data") || e.IsRNG("value") {
			dataValues = append(dataValues, e)
		}
		return true
	})

	// Resolve before stripping; stripping first would lose the context the
	// resolution walks.
	resolved := make([]string, len(dataValues))
	for i, e := range dataValues {
		resolved[i] = e.EffectiveDatatypeLibrary()
	}

	doc.Root.Walk(func(e *xml.Element) bool {
		if !e.IsRNG("data") && !e.IsRNG("value") {
			e.RemoveAttr("datatypeLibrary")
		}
		return true
	})

	for i, e := range dataValues {
		e.SetAttr("datatypeLibrary", resolved[i])
	}

	return doc, nil
}
