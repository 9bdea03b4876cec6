package inliner

import (
	rngerrors "github.com/jacoelho/rnginline/errors"
	"github.com/jacoelho/rnginline/internal/xml"
)

// applyOverrides replaces components of an included grammar with the
// override components carried by the include element. Matching searches the
// grammar's whole component scope, including div wrappers introduced by the
// grammar's own already-inlined includes, so transitively included
// definitions are visible. Each override must match something; replacements
// are inserted at the position of the first removed match.
func applyOverrides(grammar, include *xml.Element, includeURL string) error {
	overrides := componentsUnder(include)
	if len(overrides.starts) == 0 && len(overrides.order) == 0 {
		return nil
	}

	targets := componentsUnder(grammar)

	if len(overrides.starts) > 0 {
		if len(targets.starts) == 0 {
			return rngerrors.New(rngerrors.ErrOverrideTargetNotFound,
				"included grammar contains no start element to replace").
				WithName("start").WithURI(includeURL).WithLine(overrides.starts[0].Line)
		}
		relocate(overrides.starts, targets.starts)
	}

	for _, name := range overrides.order {
		matched := targets.defines[name]
		if len(matched) == 0 {
			els := overrides.defines[name]
			return rngerrors.Newf(rngerrors.ErrOverrideTargetNotFound,
				"included grammar contains no define named %q to replace", name).
				WithName(name).WithURI(includeURL).WithLine(els[0].Line)
		}
		relocate(overrides.defines[name], matched)
	}

	return nil
}

// relocate moves the override components into the grammar at the first
// matched component's position, removing every match. Context the overrides
// relied on at their original location (default namespace, datatype
// library, prefix bindings) is pinned so the move cannot change their
// meaning.
func relocate(overrides, matched []*xml.Element) {
	origins := make([]nsContext, len(overrides))
	for i, el := range overrides {
		origins[i] = contextAt(el)
	}

	pos := positionOf(matched[0])
	for _, el := range matched {
		el.Detach()
	}
	for _, el := range overrides {
		el.Detach()
	}
	pos.parent.InsertChildren(pos.index, overrides...)

	target := contextAt(pos.parent)
	for i, el := range overrides {
		preserveDefaultNS(el, origins[i], target)
		preserveDatatypeLibrary(el, origins[i], target)
		preservePrefixes(el, origins[i], target)
	}
}

// resolveCombineGroups merges same-named defines (and multiple starts)
// remaining in a grammar scope into single components, wrapping member
// bodies in the group's combine element. The merged component keeps the
// combine attribute so a same-named definition in an enclosing scope can
// still combine with it after splicing.
func resolveCombineGroups(grammar *xml.Element, url string) error {
	set := componentsUnder(grammar)

	if len(set.starts) > 1 {
		if err := mergeGroup(set.starts, "start", url); err != nil {
			return err
		}
	}
	for _, name := range set.order {
		members := set.defines[name]
		if len(members) > 1 {
			if err := mergeGroup(members, name, url); err != nil {
				return err
			}
		}
	}
	return nil
}

func mergeGroup(members []*xml.Element, name, url string) error {
	combine := ""
	declared := 0
	undeclared := 0
	for _, m := range members {
		v, ok := m.Attr("combine")
		if !ok {
			undeclared++
			continue
		}
		if v != "choice" && v != "interleave" {
			return rngerrors.Newf(rngerrors.ErrCombineMismatch,
				"invalid combine value %q", v).WithName(name).WithURI(url).WithLine(m.Line)
		}
		if declared > 0 && v != combine {
			return rngerrors.Newf(rngerrors.ErrCombineMismatch,
				"conflicting combine values %q and %q", combine, v).
				WithName(name).WithURI(url).WithLine(m.Line)
		}
		combine = v
		declared++
	}
	if declared == 0 || undeclared > 1 {
		return rngerrors.Newf(rngerrors.ErrCombineMismatch,
			"multiple definitions without a combine attribute").
			WithName(name).WithURI(url).WithLine(members[0].Line)
	}

	// Members may sit in different div scopes; capture each one's context
	// before anything moves.
	origins := make([]nsContext, len(members))
	for i, m := range members {
		origins[i] = contextAt(m)
	}

	merged := xml.NewElement(xml.RNGNamespace, members[0].Local)
	if members[0].IsRNG("define") {
		merged.SetAttr("name", name)
	}
	merged.SetAttr("combine", combine)

	wrapper := xml.NewElement(xml.RNGNamespace, combine)
	bodies := make([]*xml.Element, len(members))
	for i, m := range members {
		bodies[i] = memberBody(m)
		wrapper.AppendChild(bodies[i])
	}
	merged.AppendChild(wrapper)

	pos := positionOf(members[0])
	for _, m := range members {
		m.Detach()
	}
	pos.parent.InsertChildren(pos.index, merged)

	target := contextAt(pos.parent)
	for i, b := range bodies {
		preserveDefaultNS(b, origins[i], target)
		preserveDatatypeLibrary(b, origins[i], target)
		preservePrefixes(b, origins[i], target)
	}
	return nil
}

// memberBody turns one group member into a single pattern: its only child
// when nothing else is carried, otherwise its children wrapped in a group
// element keeping the member's remaining attributes (ns, datatypeLibrary,
// namespace declarations) in force.
func memberBody(m *xml.Element) *xml.Element {
	var extra []xml.Attr
	for _, a := range m.Attrs {
		if a.Space == "" && (a.Local == "name" || a.Local == "combine") {
			continue
		}
		extra = append(extra, a)
	}

	children := append([]*xml.Element(nil), m.Children...)
	if len(extra) == 0 && len(children) == 1 {
		body := children[0]
		body.Detach()
		return body
	}

	g := xml.NewElement(xml.RNGNamespace, "group")
	g.Attrs = extra
	for _, c := range children {
		c.Detach()
		g.AppendChild(c)
	}
	return g
}
