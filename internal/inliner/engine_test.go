package inliner

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rngerrors "github.com/jacoelho/rnginline/errors"
	"github.com/jacoelho/rnginline/internal/urlhandler"
	"github.com/jacoelho/rnginline/internal/xml"
)

func testEngine(resources map[string]string) *Engine {
	raw := make(map[string][]byte, len(resources))
	for u, src := range resources {
		raw[u] = []byte(src)
	}
	return &Engine{
		Handlers:       []urlhandler.Handler{urlhandler.NewMemory(raw)},
		DefaultBaseURI: "memory://test/",
		Log:            zerolog.Nop(),
	}
}

func runInline(t *testing.T, resources map[string]string, rootURL string) (*xml.Document, error) {
	t.Helper()
	engine := testEngine(resources)
	ctx := NewContext()
	doc, err := engine.Dereference(rootURL, ctx)
	require.NoError(t, err)
	return engine.Run(doc, ctx)
}

func findRNG(root *xml.Element, local string) []*xml.Element {
	var out []*xml.Element
	root.Walk(func(e *xml.Element) bool {
		if e.IsRNG(local) {
			out = append(out, e)
		}
		return true
	})
	return out
}

func TestRunInlinesInclude(t *testing.T) {
	doc, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<start><ref name="x"/></start>` +
			`<include href="b.rng"/>` +
			`</grammar>`,
		"memory://test/b.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<define name="x"><empty/></define>` +
			`</grammar>`,
	}, "memory://test/a.rng")
	require.NoError(t, err)

	assert.Empty(t, findRNG(doc.Root, "include"))
	assert.Empty(t, findRNG(doc.Root, "externalRef"))

	// include and the included grammar both become div wrappers.
	divs := findRNG(doc.Root, "div")
	require.Len(t, divs, 2)
	outer := doc.Root.Children[1]
	assert.True(t, outer.IsRNG("div"))
	assert.False(t, outer.HasAttr("href"))
	inner := outer.Children[0]
	assert.True(t, inner.IsRNG("div"))

	defines := findRNG(doc.Root, "define")
	require.Len(t, defines, 1)
	name, _ := defines[0].Attr("name")
	assert.Equal(t, "x", name)
}

func TestRunInlinesExternalRef(t *testing.T) {
	doc, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<start><externalRef href="ext.rng" ns="http://example.com/ns"/></start>` +
			`</grammar>`,
		"memory://test/ext.rng": `<element xmlns="http://relaxng.org/ns/structure/1.0" name="e"><text/></element>`,
	}, "memory://test/a.rng")
	require.NoError(t, err)

	assert.Empty(t, findRNG(doc.Root, "externalRef"))

	elements := findRNG(doc.Root, "element")
	require.Len(t, elements, 1)
	el := elements[0]

	// The externalRef ns attribute transfers to the replacement root.
	ns, ok := el.Attr("ns")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/ns", ns)

	// Fetched roots are pinned against the empty datatype library default.
	dtl, ok := el.Attr("datatypeLibrary")
	require.True(t, ok)
	assert.Equal(t, "", dtl)
}

func TestRunRootExternalRef(t *testing.T) {
	doc, err := runInline(t, map[string]string{
		"memory://test/a.rng":   `<externalRef xmlns="http://relaxng.org/ns/structure/1.0" href="ext.rng"/>`,
		"memory://test/ext.rng": `<text xmlns="http://relaxng.org/ns/structure/1.0"/>`,
	}, "memory://test/a.rng")
	require.NoError(t, err)
	assert.True(t, doc.Root.IsRNG("text"))
}

func TestRunTransitiveOverride(t *testing.T) {
	doc, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<start><ref name="x"/></start>` +
			`<include href="b.rng">` +
			`<define name="x"><notAllowed/></define>` +
			`</include>` +
			`</grammar>`,
		"memory://test/b.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<include href="c.rng"/>` +
			`</grammar>`,
		"memory://test/c.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<define name="x"><text/></define>` +
			`</grammar>`,
	}, "memory://test/a.rng")
	require.NoError(t, err)

	// The override replaces the definition pulled in two documents deep.
	defines := findRNG(doc.Root, "define")
	require.Len(t, defines, 1)
	require.Len(t, defines[0].Children, 1)
	assert.True(t, defines[0].Children[0].IsRNG("notAllowed"))
}

func TestRunInheritsNamespaceAcrossBoundary(t *testing.T) {
	doc, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0" ns="http://host">` +
			`<start><ref name="x"/></start>` +
			`<include href="b.rng"/>` +
			`</grammar>`,
		"memory://test/b.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<define name="x"><element name="e"><text/></element></define>` +
			`</grammar>`,
	}, "memory://test/a.rng")
	require.NoError(t, err)

	// The default namespace is inherited into included documents: the
	// fetched grammar gets no ns of its own, so its elements end up in the
	// host's namespace.
	inner := doc.Root.Children[1].Children[0]
	require.True(t, inner.IsRNG("div"))
	assert.False(t, inner.HasAttr("ns"))

	elements := findRNG(doc.Root, "element")
	require.Len(t, elements, 1)
	ns, ok := elements[0].EffectiveNS()
	require.True(t, ok)
	assert.Equal(t, "http://host", ns)
}

func TestRunInheritsNamespaceIntoExternalRef(t *testing.T) {
	doc, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0" ns="http://host">` +
			`<start><externalRef href="ext.rng"/></start>` +
			`</grammar>`,
		"memory://test/ext.rng": `<element xmlns="http://relaxng.org/ns/structure/1.0" name="e"><text/></element>`,
	}, "memory://test/a.rng")
	require.NoError(t, err)

	// No ns on the externalRef: the replacement inherits from the host.
	elements := findRNG(doc.Root, "element")
	require.Len(t, elements, 1)
	assert.False(t, elements[0].HasAttr("ns"))
	ns, ok := elements[0].EffectiveNS()
	require.True(t, ok)
	assert.Equal(t, "http://host", ns)
}

func TestRunCycleError(t *testing.T) {
	_, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<include href="b.rng"/>` +
			`</grammar>`,
		"memory://test/b.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<include href="a.rng"/>` +
			`</grammar>`,
	}, "memory://test/a.rng")

	inline, ok := rngerrors.AsInline(err)
	require.True(t, ok)
	assert.Equal(t, rngerrors.ErrCircularInclude, inline.Code)
	require.Len(t, inline.Cycle, 3)
	assert.Equal(t, "memory://test/a.rng", inline.Cycle[0])
	assert.Contains(t, inline.Cycle[1], "memory://test/b.rng (via <include>")
	assert.Contains(t, inline.Cycle[2], "memory://test/a.rng (via <include>")
}

func TestRunSelfInclude(t *testing.T) {
	_, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<include href="a.rng"/>` +
			`</grammar>`,
	}, "memory://test/a.rng")

	code, ok := rngerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, rngerrors.ErrCircularInclude, code)
}

func TestRunMissingHref(t *testing.T) {
	_, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<include/>` +
			`</grammar>`,
	}, "memory://test/a.rng")

	code, ok := rngerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, rngerrors.ErrMissingHref, code)
}

func TestRunIncludeTargetMustBeGrammar(t *testing.T) {
	_, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<include href="b.rng"/>` +
			`</grammar>`,
		"memory://test/b.rng": `<element xmlns="http://relaxng.org/ns/structure/1.0" name="e"><text/></element>`,
	}, "memory://test/a.rng")

	code, ok := rngerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, rngerrors.ErrInvalidGrammar, code)
}

func TestRunRootIncludeRejected(t *testing.T) {
	_, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<include xmlns="http://relaxng.org/ns/structure/1.0" href="b.rng"/>`,
	}, "memory://test/a.rng")

	code, ok := rngerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, rngerrors.ErrInvalidGrammar, code)
}

func TestRunUnresolvableReference(t *testing.T) {
	// The memory handler claims exactly its registered URLs, so an unknown
	// reference falls through every handler.
	_, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<include href="missing.rng"/>` +
			`</grammar>`,
	}, "memory://test/a.rng")

	code, ok := rngerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, rngerrors.ErrNoHandler, code)
}

func TestRunXMLBaseRedirectsResolution(t *testing.T) {
	doc, err := runInline(t, map[string]string{
		"memory://test/a.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0" xml:base="lib/">` +
			`<include href="b.rng"/>` +
			`</grammar>`,
		"memory://test/lib/b.rng": `<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
			`<define name="x"><empty/></define>` +
			`</grammar>`,
	}, "memory://test/a.rng")
	require.NoError(t, err)
	require.Len(t, findRNG(doc.Root, "define"), 1)
}

type countingHandler struct {
	inner urlhandler.Handler
	calls map[string]int
}

func (c *countingHandler) CanHandle(u string) bool { return c.inner.CanHandle(u) }

func (c *countingHandler) Dereference(u string) ([]byte, error) {
	c.calls[u]++
	return c.inner.Dereference(u)
}

func TestDereferenceCachesBytes(t *testing.T) {
	counter := &countingHandler{
		inner: urlhandler.NewMemory(map[string][]byte{
			"memory://test/a.rng": []byte(`<grammar xmlns="http://relaxng.org/ns/structure/1.0">` +
				`<start><choice><externalRef href="e.rng"/><externalRef href="e.rng"/></choice></start>` +
				`</grammar>`),
			"memory://test/e.rng": []byte(`<text xmlns="http://relaxng.org/ns/structure/1.0"/>`),
		}),
		calls: map[string]int{},
	}
	engine := &Engine{
		Handlers:       []urlhandler.Handler{counter},
		DefaultBaseURI: "memory://test/",
		Log:            zerolog.Nop(),
	}

	ctx := NewContext()
	doc, err := engine.Dereference("memory://test/a.rng", ctx)
	require.NoError(t, err)
	doc, err = engine.Run(doc, ctx)
	require.NoError(t, err)

	// Both references resolved, but the bytes were fetched once.
	assert.Equal(t, 1, counter.calls["memory://test/e.rng"])
	assert.Len(t, findRNG(doc.Root, "text"), 2)
}
