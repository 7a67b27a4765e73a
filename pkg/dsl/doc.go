/*
Package dsl builds circuits in Go code with a fluent API instead of placing
components one call at a time.

Parts are named by the caller and wired by name. Build resolves the kinds,
places the parts in declaration order and returns the graph together with
the generated component ids.

	b := dsl.New(registry.NewRegistry())
	b.Add("a", registry.KindButton)
	b.Add("b", registry.KindButton).At(0, 60)
	b.Add("sum", registry.KindXOR).At(100, 30).In(0, "a").In(1, "b")
	b.Add("out", registry.KindLamp).At(200, 30).In(0, "sum")

	c, err := b.Build()
	if err != nil {
		return err
	}
	lamp := c.Component("out")
*/
package dsl
