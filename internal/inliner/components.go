package inliner

import (
	"github.com/jacoelho/rnginline/internal/xml"
)

// componentSet holds the start and define components of one grammar scope,
// grouped the way override matching and combine resolution need them.
type componentSet struct {
	starts  []*xml.Element
	defines map[string][]*xml.Element
	order   []string // define names in document order of first occurrence
}

// componentsUnder collects the components of a grammar, include, or div
// element: start and define children, recursing through div wrappers
// (including those introduced by earlier inlining) but never into nested
// grammars or pattern content, which open new scopes.
func componentsUnder(el *xml.Element) componentSet {
	set := componentSet{defines: make(map[string][]*xml.Element)}
	collectComponents(el, &set)
	return set
}

func collectComponents(el *xml.Element, set *componentSet) {
	for _, c := range el.Children {
		switch {
		case c.IsRNG("start"):
			set.starts = append(set.starts, c)
		case c.IsRNG("define"):
			name, _ := c.Attr("name")
			if _, seen := set.defines[name]; !seen {
				set.order = append(set.order, name)
			}
			set.defines[name] = append(set.defines[name], c)
		case c.IsRNG("div"):
			collectComponents(c, set)
		}
	}
}

// position identifies a stable insertion point: an index under a parent.
type position struct {
	parent *xml.Element
	index  int
}

// positionOf captures an element's current location before it is detached.
func positionOf(el *xml.Element) position {
	parent := el.Parent()
	return position{parent: parent, index: parent.ChildIndex(el)}
}
