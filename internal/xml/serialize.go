package xml

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
)

// WriteTo serializes the document. Element prefixes are re-derived from the
// namespace declarations in scope; declared prefix-to-URI bindings are
// preserved so QName attribute values keep their meaning.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	s := &serializer{w: bw}
	s.raw(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if d.Root != nil {
		s.element(d.Root, map[string]string{"xml": XMLNamespace})
	}
	s.raw("\n")
	if s.err == nil {
		s.err = bw.Flush()
	}
	return s.n, s.err
}

// Bytes serializes the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String serializes the document, panicking on write errors, which cannot
// occur with the in-memory buffer.
func (d *Document) String() string {
	data, err := d.Bytes()
	if err != nil {
		panic(err)
	}
	return string(data)
}

type serializer struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (s *serializer) raw(text string) {
	if s.err != nil {
		return
	}
	n, err := s.w.WriteString(text)
	s.n += int64(n)
	s.err = err
}

func (s *serializer) escaped(text string) {
	if s.err != nil {
		return
	}
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		s.err = err
		return
	}
	s.raw(buf.String())
}

func (s *serializer) element(e *Element, parentScope map[string]string) {
	scope := parentScope
	copied := false
	var extraDecls []Attr

	if len(e.Declarations()) > 0 {
		scope = make(map[string]string, len(parentScope)+2)
		for p, u := range parentScope {
			scope[p] = u
		}
		for _, a := range e.Attrs {
			if a.IsDeclaration() {
				scope[a.Prefix()] = a.Value
			}
		}
		copied = true
	}

	declare := func(prefix, ns string) {
		if !copied {
			c := make(map[string]string, len(parentScope)+2)
			for p, u := range parentScope {
				c[p] = u
			}
			scope = c
			copied = true
		}
		scope[prefix] = ns
		local := prefix
		if prefix == "" {
			local = "xmlns"
		}
		extraDecls = append(extraDecls, Attr{Space: XMLNSNamespace, Local: local, Value: ns})
	}

	name := s.elementName(e, scope, declare)

	s.raw("<")
	s.raw(name)
	for _, a := range e.Attrs {
		s.attribute(a, scope, declare)
	}
	for _, a := range extraDecls {
		s.writeAttr(declAttrName(a), a.Value)
	}

	if e.Text == "" && len(e.Children) == 0 {
		s.raw("/>")
		return
	}

	s.raw(">")
	if e.Text != "" {
		s.escaped(e.Text)
	}
	for _, c := range e.Children {
		s.element(c, scope)
	}
	s.raw("</")
	s.raw(name)
	s.raw(">")
}

// elementName picks the serialized tag name for e, declaring a namespace on
// the element when the scope has no usable binding.
func (s *serializer) elementName(e *Element, scope map[string]string, declare func(prefix, ns string)) string {
	if scope[""] == e.Space {
		return e.Local
	}
	if p, ok := prefixFor(scope, e.Space); ok {
		return p + ":" + e.Local
	}
	// No binding in scope: claim the default namespace for this subtree.
	// QName attribute values are unaffected, they resolve via prefixes.
	declare("", e.Space)
	return e.Local
}

func (s *serializer) attribute(a Attr, scope map[string]string, declare func(prefix, ns string)) {
	switch {
	case a.IsDeclaration():
		s.writeAttr(declAttrName(a), a.Value)
	case a.Space == "":
		s.writeAttr(a.Local, a.Value)
	case a.Space == XMLNamespace:
		s.writeAttr("xml:"+a.Local, a.Value)
	default:
		p, ok := prefixFor(scope, a.Space)
		if !ok {
			p = freshPrefix(scope)
			declare(p, a.Space)
		}
		s.writeAttr(p+":"+a.Local, a.Value)
	}
}

func (s *serializer) writeAttr(name, value string) {
	s.raw(" ")
	s.raw(name)
	s.raw(`="`)
	s.escaped(value)
	s.raw(`"`)
}

func declAttrName(a Attr) string {
	if a.Local == "xmlns" {
		return "xmlns"
	}
	return "xmlns:" + a.Local
}

// prefixFor picks the lexicographically smallest non-empty prefix bound to
// ns so output is deterministic regardless of map order.
func prefixFor(scope map[string]string, ns string) (string, bool) {
	var candidates []string
	for p, u := range scope {
		if p != "" && u == ns {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}

func freshPrefix(scope map[string]string) string {
	for i := 1; ; i++ {
		p := fmt.Sprintf("ns%d", i)
		if _, taken := scope[p]; !taken {
			return p
		}
	}
}
