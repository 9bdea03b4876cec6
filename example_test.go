package rnginline_test

import (
	"fmt"
	"strings"

	"github.com/jacoelho/rnginline"
)

func ExampleInliner_InlineURL() {
	resources := map[string][]byte{
		"memory://schemas/doc.rng": []byte(`<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <start><ref name="doc"/></start>
  <include href="defs.rng"/>
</grammar>`),
		"memory://schemas/defs.rng": []byte(`<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <define name="doc"><element name="doc"><text/></element></define>
</grammar>`),
	}

	inliner, err := rnginline.New(rnginline.NewOptions().
		WithHandlers(rnginline.MemoryHandler(resources)))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	schema, err := inliner.InlineURL("memory://schemas/doc.rng")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	out := schema.String()
	fmt.Println(strings.Contains(out, "<include"))
	fmt.Println(strings.Contains(out, `<define name="doc">`))
	// Output:
	// false
	// true
}

func ExampleInliner_InlineBytes() {
	inliner, err := rnginline.New(rnginline.NewOptions())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	schema, err := inliner.InlineBytes([]byte(
		`<element xmlns="http://relaxng.org/ns/structure/1.0" name="note"><text/></element>`), "")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	_ = schema
	fmt.Println("schema inlined")
	// Output: schema inlined
}
