package xml

import (
	"bytes"
	"encoding/xml"
	"io"

	rngerrors "github.com/jacoelho/rnginline/errors"
)

// Parse builds a document tree from XML input. baseURI tags the resulting
// document; it is not consulted during parsing.
func Parse(r io.Reader, baseURI string) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var stack []*Element
	var root *Element
	rootClosed := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := decoder.InputPos()
			return nil, rngerrors.Newf(rngerrors.ErrParse, "not well-formed: %v", err).WithURI(baseURI).WithLine(line)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				line, _ := decoder.InputPos()
				return nil, rngerrors.Newf(rngerrors.ErrParse, "unexpected element %s after document end", t.Name.Local).WithURI(baseURI).WithLine(line)
			}
			line, _ := decoder.InputPos()
			elem := &Element{
				Space: t.Name.Space,
				Local: t.Name.Local,
				Attrs: convertAttrs(t.Attr),
				Line:  line,
			}
			if len(stack) > 0 {
				stack[len(stack)-1].AppendChild(elem)
			} else {
				root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 && root != nil {
					rootClosed = true
				}
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, rngerrors.New(rngerrors.ErrParse, "document has no root element").WithURI(baseURI)
	}

	return &Document{Root: root, BaseURI: baseURI}, nil
}

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte, baseURI string) (*Document, error) {
	return Parse(bytes.NewReader(data), baseURI)
}

// convertAttrs normalizes namespace declarations and the reserved xml:
// prefix, which encoding/xml reports in raw form.
func convertAttrs(xmlAttrs []xml.Attr) []Attr {
	attrs := make([]Attr, 0, len(xmlAttrs))
	for _, a := range xmlAttrs {
		space := a.Name.Space
		local := a.Name.Local
		switch {
		case space == "" && local == "xmlns":
			space = XMLNSNamespace
		case space == "xmlns":
			space = XMLNSNamespace
		case space == "xml":
			space = XMLNamespace
		}
		attrs = append(attrs, Attr{Space: space, Local: local, Value: a.Value})
	}
	return attrs
}
