// Package rnginline flattens multi-file RELAX NG schemas into a single
// self-contained document by recursively resolving and inlining include and
// externalRef elements, preserving validation semantics exactly.
package rnginline

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	rngerrors "github.com/jacoelho/rnginline/errors"
	"github.com/jacoelho/rnginline/internal/inliner"
	"github.com/jacoelho/rnginline/internal/postprocess"
	"github.com/jacoelho/rnginline/internal/uri"
	"github.com/jacoelho/rnginline/internal/urlhandler"
	"github.com/jacoelho/rnginline/internal/xml"
)

// Inliner merges references to external schemas into an input schema. The
// zero value is not usable; build one with New. An Inliner holds only
// configuration and may be reused for any number of inline calls.
type Inliner struct {
	handlers       []Handler
	postprocessors []PostProcessor
	defaultBaseURI string
	log            zerolog.Logger
}

// New builds an Inliner from the given options.
func New(opts Options) (*Inliner, error) {
	handlers := opts.handlers
	if handlers == nil {
		handlers = DefaultHandlers()
	}
	postprocessors := opts.postprocessors
	if postprocessors == nil {
		postprocessors = postprocess.Defaults()
	}
	defaultBase := opts.defaultBaseURI
	if defaultBase == "" {
		cwd, err := urlhandler.CwdURL()
		if err != nil {
			return nil, err
		}
		defaultBase = cwd
	} else if !uri.IsURI(defaultBase) {
		return nil, rngerrors.Newf(rngerrors.ErrMalformedURI,
			"default base URI is not an absolute URI: %s", defaultBase)
	}
	log := zerolog.Nop()
	if opts.logger != nil {
		log = *opts.logger
	}
	return &Inliner{
		handlers:       handlers,
		postprocessors: postprocessors,
		defaultBaseURI: defaultBase,
		log:            log,
	}, nil
}

// InlineFile inlines the schema at a filesystem path.
func (i *Inliner) InlineFile(path string) (*Schema, error) {
	return i.InlineURL(urlhandler.FileURL(path, false))
}

// InlineURL inlines the schema a URL reference points at. Relative
// references resolve against the default base URI, so plain paths reach
// the filesystem handler.
func (i *Inliner) InlineURL(url string) (*Schema, error) {
	if !uri.IsURIReference(url) {
		return nil, rngerrors.Newf(rngerrors.ErrMalformedURI, "not a valid URL reference: %s", url)
	}
	engine := i.engine()
	ctx := inliner.NewContext()

	absolute, err := uri.Resolve(i.defaultBaseURI, url)
	if err != nil {
		return nil, err
	}
	doc, err := engine.Dereference(absolute, ctx)
	if err != nil {
		return nil, err
	}
	return i.run(engine, ctx, doc)
}

// InlineReader inlines a schema read from r. baseURI establishes the base
// for relative references inside the document; it may be empty when the
// schema only uses absolute references.
func (i *Inliner) InlineReader(r io.Reader, baseURI string) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, rngerrors.Newf(rngerrors.ErrResourceFetch, "read input: %v", err)
	}
	return i.InlineBytes(data, baseURI)
}

// InlineBytes inlines an in-memory schema document.
func (i *Inliner) InlineBytes(data []byte, baseURI string) (*Schema, error) {
	if baseURI != "" && !uri.IsURIReference(baseURI) {
		return nil, rngerrors.Newf(rngerrors.ErrMalformedURI, "base URI is not a valid URI-reference: %s", baseURI)
	}
	doc, err := xml.ParseBytes(data, baseURI)
	if err != nil {
		return nil, err
	}
	return i.run(i.engine(), inliner.NewContext(), doc)
}

// InlineSchema re-inlines an already-loaded schema document. The input is
// not modified; inlining a schema that is already free of references
// returns a semantically identical copy.
func (i *Inliner) InlineSchema(s *Schema) (*Schema, error) {
	if s == nil || s.doc == nil {
		return nil, rngerrors.New(rngerrors.ErrInvalidGrammar, "nil schema")
	}
	return i.run(i.engine(), inliner.NewContext(), s.doc.Clone())
}

func (i *Inliner) engine() *inliner.Engine {
	return &inliner.Engine{
		Handlers:       i.handlers,
		DefaultBaseURI: i.defaultBaseURI,
		Log:            i.log,
	}
}

func (i *Inliner) run(engine *inliner.Engine, ctx *inliner.Context, doc *xml.Document) (*Schema, error) {
	merged, err := engine.Run(doc, ctx)
	if err != nil {
		return nil, err
	}
	merged, err = postprocess.Run(merged, i.postprocessors)
	if err != nil {
		return nil, err
	}
	return &Schema{doc: merged}, nil
}

// InlineFile inlines the schema at a filesystem path with default options.
func InlineFile(path string) (*Schema, error) {
	return inlineDefault(func(i *Inliner) (*Schema, error) { return i.InlineFile(path) })
}

// InlineURL inlines the schema at a URL with default options.
func InlineURL(url string) (*Schema, error) {
	return inlineDefault(func(i *Inliner) (*Schema, error) { return i.InlineURL(url) })
}

// InlineReader inlines a schema from a reader with default options.
func InlineReader(r io.Reader, baseURI string) (*Schema, error) {
	return inlineDefault(func(i *Inliner) (*Schema, error) { return i.InlineReader(r, baseURI) })
}

func inlineDefault(fn func(*Inliner) (*Schema, error)) (*Schema, error) {
	i, err := New(NewOptions())
	if err != nil {
		return nil, err
	}
	return fn(i)
}

// Schema is a fully inlined schema document, free of include and
// externalRef elements and consumable by any RELAX NG validator.
type Schema struct {
	doc *xml.Document
}

// WriteTo serializes the schema as XML.
func (s *Schema) WriteTo(w io.Writer) (int64, error) {
	if s == nil || s.doc == nil {
		return 0, rngerrors.New(rngerrors.ErrInvalidGrammar, "nil schema")
	}
	return s.doc.WriteTo(w)
}

// Bytes serializes the schema into memory.
func (s *Schema) Bytes() ([]byte, error) {
	if s == nil || s.doc == nil {
		return nil, rngerrors.New(rngerrors.ErrInvalidGrammar, "nil schema")
	}
	return s.doc.Bytes()
}

// String serializes the schema, or describes the error if serialization is
// impossible.
func (s *Schema) String() string {
	data, err := s.Bytes()
	if err != nil {
		return fmt.Sprintf("<schema error: %v>", err)
	}
	return string(data)
}

// WriteFile serializes the schema to a file.
func (s *Schema) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := s.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
