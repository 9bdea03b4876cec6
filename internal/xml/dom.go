// Package xml implements the minimal mutable DOM the inliner performs
// document surgery on, with parsing and serialization that keep namespace
// declarations intact.
package xml

// Namespace URIs with fixed meaning during inlining.
const (
	// RNGNamespace is the RELAX NG structure namespace.
	RNGNamespace = "http://relaxng.org/ns/structure/1.0"
	// XMLNamespace is the namespace of the reserved xml: prefix.
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"
	// XMLNSNamespace marks namespace declaration attributes in parsed trees.
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// Attr is a single attribute. Namespace declarations are kept as ordinary
// attributes in the XMLNS namespace; the default declaration uses the local
// name "xmlns", prefixed declarations use the prefix as local name.
type Attr struct {
	Space string
	Local string
	Value string
}

// IsDeclaration reports whether the attribute is a namespace declaration.
func (a Attr) IsDeclaration() bool {
	return a.Space == XMLNSNamespace
}

// Prefix returns the declared prefix of a namespace declaration, empty for
// the default declaration.
func (a Attr) Prefix() string {
	if a.Local == "xmlns" {
		return ""
	}
	return a.Local
}

// Element is a node in the document tree. Text holds the character data
// directly inside the element; for RELAX NG only value, param, and name
// elements carry significant text.
type Element struct {
	Space    string
	Local    string
	Attrs    []Attr
	Children []*Element
	Text     string
	Line     int

	parent *Element
}

// Document is a parsed tree tagged with the base URI relative references
// inside it resolve against.
type Document struct {
	Root    *Element
	BaseURI string
}

// NewElement builds a parentless element in the given namespace.
func NewElement(space, local string) *Element {
	return &Element{Space: space, Local: local}
}

// Parent returns the parent element, nil for a root.
func (e *Element) Parent() *Element {
	return e.parent
}

// Is reports whether the element has the given namespace and local name.
func (e *Element) Is(space, local string) bool {
	return e.Space == space && e.Local == local
}

// IsRNG reports whether the element is a RELAX NG element with the given
// local name.
func (e *Element) IsRNG(local string) bool {
	return e.Space == RNGNamespace && e.Local == local
}

// Attr returns the value of a no-namespace attribute.
func (e *Element) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Space == "" && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrNS returns the value of a namespaced attribute.
func (e *Element) AttrNS(space, local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Space == space && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether a no-namespace attribute is present.
func (e *Element) HasAttr(local string) bool {
	_, ok := e.Attr(local)
	return ok
}

// SetAttr sets a no-namespace attribute, replacing an existing value.
func (e *Element) SetAttr(local, value string) {
	for i, a := range e.Attrs {
		if a.Space == "" && a.Local == local {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Local: local, Value: value})
}

// SetAttrNS sets a namespaced attribute, replacing an existing value.
func (e *Element) SetAttrNS(space, local, value string) {
	for i, a := range e.Attrs {
		if a.Space == space && a.Local == local {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Space: space, Local: local, Value: value})
}

// RemoveAttr removes a no-namespace attribute if present.
func (e *Element) RemoveAttr(local string) {
	for i, a := range e.Attrs {
		if a.Space == "" && a.Local == local {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// AppendChild attaches c as the last child of e.
func (e *Element) AppendChild(c *Element) {
	c.parent = e
	e.Children = append(e.Children, c)
}

// InsertChildren inserts the given elements at child index i.
func (e *Element) InsertChildren(i int, elements ...*Element) {
	if i < 0 {
		i = 0
	}
	if i > len(e.Children) {
		i = len(e.Children)
	}
	for _, c := range elements {
		c.parent = e
	}
	rest := make([]*Element, 0, len(e.Children)+len(elements))
	rest = append(rest, e.Children[:i]...)
	rest = append(rest, elements...)
	rest = append(rest, e.Children[i:]...)
	e.Children = rest
}

// ChildIndex returns the index of c among e's children, -1 if absent.
func (e *Element) ChildIndex(c *Element) int {
	for i, child := range e.Children {
		if child == c {
			return i
		}
	}
	return -1
}

// RemoveChild detaches c from e. It reports whether c was a child of e.
func (e *Element) RemoveChild(c *Element) bool {
	i := e.ChildIndex(c)
	if i < 0 {
		return false
	}
	c.parent = nil
	e.Children = append(e.Children[:i], e.Children[i+1:]...)
	return true
}

// Detach removes the element from its parent, if any.
func (e *Element) Detach() {
	if e.parent != nil {
		e.parent.RemoveChild(e)
	}
}

// ReplaceChild replaces old with the given elements, preserving position.
// It reports whether old was a child of e.
func (e *Element) ReplaceChild(old *Element, elements ...*Element) bool {
	i := e.ChildIndex(old)
	if i < 0 {
		return false
	}
	old.parent = nil
	for _, c := range elements {
		c.parent = e
	}
	rest := make([]*Element, 0, len(e.Children)-1+len(elements))
	rest = append(rest, e.Children[:i]...)
	rest = append(rest, elements...)
	rest = append(rest, e.Children[i+1:]...)
	e.Children = rest
	return true
}

// Clone returns a deep, parentless copy of the element.
func (e *Element) Clone() *Element {
	c := &Element{
		Space: e.Space,
		Local: e.Local,
		Text:  e.Text,
		Line:  e.Line,
	}
	if len(e.Attrs) > 0 {
		c.Attrs = append([]Attr(nil), e.Attrs...)
	}
	for _, child := range e.Children {
		c.AppendChild(child.Clone())
	}
	return c
}

// Walk visits the element and its descendants depth-first in document
// order. Returning false from fn prunes the visited element's subtree.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{BaseURI: d.BaseURI}
	if d.Root != nil {
		c.Root = d.Root.Clone()
	}
	return c
}
