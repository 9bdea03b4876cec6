// Package postprocess holds the whole-tree rewrite passes applied once
// after inlining completes.
package postprocess

import (
	"github.com/jacoelho/rnginline/internal/xml"
)

// PostProcessor is a single whole-tree pass over the merged document.
type PostProcessor interface {
	PostProcess(doc *xml.Document) (*xml.Document, error)
}

// Defaults returns the default pipeline: datatype-library propagation.
func Defaults() []PostProcessor {
	return []PostProcessor{DatatypeLibrary{}}
}

// Run applies the passes in order.
func Run(doc *xml.Document, passes []PostProcessor) (*xml.Document, error) {
	for _, p := range passes {
		var err error
		doc, err = p.PostProcess(doc)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}
