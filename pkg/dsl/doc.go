/*
Package dsl provides a fluent builder for constructing learning modules in Go.

It is an alternative to module documents for tests, seeding and generated content.
Nodes keep the order they were added in, so the first node is the start node. Edges
are derived from node data when the module is built.

Example usage:

	b := dsl.New("tour").Title("Tour")

	b.Add("welcome").
		Message("Welcome, {{.name}}").
		Then("route")

	b.Add("route").
		Router("Where to?").
		Choice("Basics", "basics").
		Choice("Advanced", "advanced")

	b.Add("basics").Message("Basics")
	b.Add("advanced").Message("Advanced")

	module, err := b.Build()
	// ... pass module to memory.NewStores(module)
*/
package dsl
