package inliner

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jacoelho/rnginline/internal/xml"
)

// nsContext is the namespace-relevant context of a tree location: the
// effective RELAX NG default namespace, the effective datatype library, and
// the prefix bindings in scope.
type nsContext struct {
	ns    string
	dtl   string
	decls map[string]string
}

// contextAt captures the context in effect at an element while it is still
// attached to its original tree.
func contextAt(el *xml.Element) nsContext {
	ns, _ := el.EffectiveNS()
	return nsContext{
		ns:    ns,
		dtl:   el.EffectiveDatatypeLibrary(),
		decls: el.ScopeDeclarations(),
	}
}

// preserveDefaultNS pins a relocated subtree's original effective default
// namespace when the move would change it.
func preserveDefaultNS(root *xml.Element, orig nsContext, target nsContext) {
	if root.HasAttr("ns") {
		return
	}
	if orig.ns != target.ns {
		root.SetAttr("ns", orig.ns)
	}
}

// preserveDatatypeLibrary pins the subtree's original effective datatype
// library when relocation would change it. The library is never inherited
// across document boundaries, so fetched roots are pinned against the empty
// default.
func preserveDatatypeLibrary(root *xml.Element, orig nsContext, target nsContext) {
	if root.HasAttr("datatypeLibrary") {
		return
	}
	if orig.dtl != target.dtl {
		root.SetAttr("datatypeLibrary", orig.dtl)
	}
}

// preservePrefixes keeps QName attribute values inside a relocated subtree
// resolving to their original namespace URIs. Prefixes the subtree uses but
// no longer finds (or finds bound differently) at the destination are
// redeclared on the subtree root; a prefix the destination binds to a
// different URI is renamed to a fresh one throughout the subtree, since
// prefix names are not part of the output contract but resolved URIs are.
func preservePrefixes(root *xml.Element, orig nsContext, target nsContext) {
	used := usedPrefixes(root)
	if len(used) == 0 {
		return
	}
	prefixes := make([]string, 0, len(used))
	for p := range used {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		if root.DeclaresPrefix(prefix) {
			continue
		}
		origURI, declared := orig.decls[prefix]
		if !declared {
			continue
		}
		targetURI, bound := target.decls[prefix]
		switch {
		case bound && targetURI == origURI:
			// Destination already agrees.
		case !bound:
			root.SetAttrNS(xml.XMLNSNamespace, prefix, origURI)
		default:
			fresh := freshPrefix(target.decls, used)
			renamePrefix(root, prefix, fresh)
			root.SetAttrNS(xml.XMLNSNamespace, fresh, origURI)
			used[fresh] = struct{}{}
		}
	}
}

// usedPrefixes collects the prefixes referenced by QName values in the
// subtree: name attributes and name element text.
func usedPrefixes(root *xml.Element) map[string]struct{} {
	used := make(map[string]struct{})
	root.Walk(func(e *xml.Element) bool {
		if v, ok := e.Attr("name"); ok {
			if p, found := qnamePrefix(v); found {
				used[p] = struct{}{}
			}
		}
		if e.IsRNG("name") {
			if p, found := qnamePrefix(strings.TrimSpace(e.Text)); found {
				used[p] = struct{}{}
			}
		}
		return true
	})
	return used
}

func qnamePrefix(value string) (string, bool) {
	i := strings.Index(value, ":")
	if i <= 0 {
		return "", false
	}
	return value[:i], true
}

// renamePrefix rewrites QName occurrences of old to fresh throughout the
// subtree, stopping at elements that redeclare old themselves.
func renamePrefix(el *xml.Element, old, fresh string) {
	if el.DeclaresPrefix(old) {
		return
	}
	if v, ok := el.Attr("name"); ok {
		if p, found := qnamePrefix(v); found && p == old {
			el.SetAttr("name", fresh+v[len(old):])
		}
	}
	if el.IsRNG("name") {
		trimmed := strings.TrimSpace(el.Text)
		if p, found := qnamePrefix(trimmed); found && p == old {
			el.Text = fresh + trimmed[len(old):]
		}
	}
	for _, c := range el.Children {
		renamePrefix(c, old, fresh)
	}
}

func freshPrefix(scope map[string]string, used map[string]struct{}) string {
	for i := 1; ; i++ {
		p := "ns" + strconv.Itoa(i)
		if _, taken := scope[p]; taken {
			continue
		}
		if _, taken := used[p]; taken {
			continue
		}
		return p
	}
}
