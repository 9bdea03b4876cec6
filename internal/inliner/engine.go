package inliner

import (
	"github.com/rs/zerolog"

	rngerrors "github.com/jacoelho/rnginline/errors"
	"github.com/jacoelho/rnginline/internal/uri"
	"github.com/jacoelho/rnginline/internal/urlhandler"
	"github.com/jacoelho/rnginline/internal/xml"
)

// Engine resolves every include and externalRef in a document tree,
// splicing the referenced content in place. It holds only configuration;
// all per-run state lives in a Context, so one engine serves any number of
// sequential runs.
type Engine struct {
	Handlers       []urlhandler.Handler
	DefaultBaseURI string // absolute; root fallback for every resolution
	Log            zerolog.Logger
}

// Run inlines the document in place and returns its fully merged form. Any
// error aborts the run; no partially merged tree is returned.
func (e *Engine) Run(doc *xml.Document, ctx *Context) (*xml.Document, error) {
	if err := e.inlineDoc(doc, ctx, nil); err != nil {
		return nil, err
	}
	return doc, nil
}

// Dereference fetches and parses the document at an absolute URL, through
// the context's byte cache. Each call parses a fresh tree: splicing
// consumes trees, and distinct inclusion sites must not share one.
func (e *Engine) Dereference(url string, ctx *Context) (*xml.Document, error) {
	data, ok := ctx.Cached(url)
	if ok {
		e.Log.Debug().Str("url", url).Msg("dereference cache hit")
	} else {
		handler, err := urlhandler.For(e.Handlers, url)
		if err != nil {
			return nil, err
		}
		data, err = handler.Dereference(url)
		if err != nil {
			return nil, err
		}
		ctx.Store(url, data)
		e.Log.Debug().Str("url", url).Int("bytes", len(data)).Msg("dereferenced")
	}
	return xml.ParseBytes(data, url)
}

// inlineDoc resolves every reference node inside doc, tracking doc's URL on
// the cycle-guard stack for the duration.
func (e *Engine) inlineDoc(doc *xml.Document, ctx *Context, trigger *xml.Element) error {
	if err := ctx.Push(doc.BaseURI, trigger); err != nil {
		return err
	}
	defer ctx.Pop()

	root := doc.Root
	switch {
	case root.IsRNG("include"):
		return rngerrors.New(rngerrors.ErrInvalidGrammar,
			"include cannot be the root element").WithURI(doc.BaseURI).WithLine(root.Line)
	case root.IsRNG("externalRef"):
		replacement, err := e.inlineExternalRef(root, doc, ctx)
		if err != nil {
			return err
		}
		doc.Root = replacement
		return nil
	default:
		return e.expand(root, doc, ctx)
	}
}

// expand walks an element's children, replacing each reference node with
// its fully resolved content. Children are snapshotted first; replacements
// are spliced in only once complete, so no node is mutated while its
// subtree is still being traversed.
func (e *Engine) expand(el *xml.Element, doc *xml.Document, ctx *Context) error {
	children := append([]*xml.Element(nil), el.Children...)
	for _, child := range children {
		switch {
		case child.IsRNG("include"):
			replacement, err := e.inlineInclude(child, doc, ctx)
			if err != nil {
				return err
			}
			el.ReplaceChild(child, replacement)
		case child.IsRNG("externalRef"):
			replacement, err := e.inlineExternalRef(child, doc, ctx)
			if err != nil {
				return err
			}
			el.ReplaceChild(child, replacement)
		default:
			if err := e.expand(child, doc, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// inlineInclude resolves one include element into a div holding the
// referenced grammar's content, per RELAX NG 4.7: recurse into the fetched
// grammar first, apply the include's overrides against the fully resolved
// tree, merge combine groups, then rewrite include and grammar to div.
func (e *Engine) inlineInclude(include *xml.Element, doc *xml.Document, ctx *Context) (*xml.Element, error) {
	url, err := e.hrefURL(include, doc)
	if err != nil {
		return nil, err
	}
	if ctx.InStack(url) {
		return nil, ctx.cycleError(url, include)
	}
	e.Log.Debug().Str("url", url).Int("line", include.Line).Msg("inlining include")

	fetched, err := e.Dereference(url, ctx)
	if err != nil {
		return nil, err
	}
	if !fetched.Root.IsRNG("grammar") {
		return nil, rngerrors.New(rngerrors.ErrInvalidGrammar,
			"include referenced a schema whose root is not a grammar element").
			WithURI(url).WithLine(include.Line)
	}

	if err := e.inlineDoc(fetched, ctx, include); err != nil {
		return nil, err
	}

	// Overrides may carry references of their own; resolve them under the
	// host document's context before they move.
	if err := e.expand(include, doc, ctx); err != nil {
		return nil, err
	}

	grammar := fetched.Root
	if err := applyOverrides(grammar, include, url); err != nil {
		return nil, err
	}
	if err := resolveCombineGroups(grammar, url); err != nil {
		return nil, err
	}

	preserveContext(grammar, "", false)

	grammar.Local = "div"
	include.Local = "div"
	include.RemoveAttr("href")
	include.InsertChildren(0, grammar)
	return include, nil
}

// inlineExternalRef resolves one externalRef element into the referenced
// document's root pattern, per RELAX NG 4.5.
func (e *Engine) inlineExternalRef(ref *xml.Element, doc *xml.Document, ctx *Context) (*xml.Element, error) {
	url, err := e.hrefURL(ref, doc)
	if err != nil {
		return nil, err
	}
	if ctx.InStack(url) {
		return nil, ctx.cycleError(url, ref)
	}
	e.Log.Debug().Str("url", url).Int("line", ref.Line).Msg("inlining externalRef")

	fetched, err := e.Dereference(url, ctx)
	if err != nil {
		return nil, err
	}
	if err := e.inlineDoc(fetched, ctx, ref); err != nil {
		return nil, err
	}

	overrideNS, haveOverride := ref.Attr("ns")
	preserveContext(fetched.Root, overrideNS, haveOverride)
	return fetched.Root, nil
}

// preserveContext adjusts a fetched document's root for splicing. The
// default namespace is inherited into referenced documents, so it needs no
// handling beyond the externalRef ns rule: an ns attribute on the reference
// transfers to a root lacking one. The datatype library is pinned against
// the empty default since it is never inherited across document boundaries
// (RELAX NG 4.9 note 2).
func preserveContext(root *xml.Element, overrideNS string, haveOverride bool) {
	if haveOverride && !root.HasAttr("ns") {
		root.SetAttr("ns", overrideNS)
	}
	if !root.HasAttr("datatypeLibrary") {
		root.SetAttr("datatypeLibrary", "")
	}
}

// hrefURL computes the absolute URL a reference node points at, resolving
// in order: default base URI, the document's base URI, the nearest xml:base
// chain, then the node's escaped href value.
func (e *Engine) hrefURL(el *xml.Element, doc *xml.Document) (string, error) {
	href, ok := el.Attr("href")
	if !ok || href == "" {
		return "", rngerrors.Newf(rngerrors.ErrMissingHref,
			"%s element has no href attribute", el.Local).
			WithURI(doc.BaseURI).WithLine(el.Line)
	}

	base := e.DefaultBaseURI
	if doc.BaseURI != "" {
		resolved, err := uri.Resolve(base, doc.BaseURI)
		if err != nil {
			return "", err
		}
		base = resolved
	}
	base, err := el.BaseURI(base)
	if err != nil {
		return "", err
	}
	return uri.Resolve(base, uri.EscapeHref(href))
}
