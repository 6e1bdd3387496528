package pathway_test

import (
	"context"
	"fmt"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/dsl"
)

func Example() {
	b := dsl.New("tour").Title("Tour")
	b.Add("welcome").Message("Welcome").Then("route")
	b.Add("route").
		Router("Where to?").
		Choice("Basics", "basics").
		Choice("Advanced", "advanced")
	b.Add("basics").Message("Basics")
	b.Add("advanced").Message("Advanced")

	module, err := b.Build()
	if err != nil {
		panic(err)
	}

	eng, err := pathway.New(pathway.WithStores(memory.NewStores(module)))
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	pb, _ := eng.Start(ctx, "tour", "ada")
	fmt.Println(pb.Node.Data.Title)

	pb, _ = eng.Next(ctx, "tour", "ada")
	for i, c := range pb.Router().Data.Choices {
		fmt.Printf("%d) %s\n", i, c.Text)
	}

	pb, _ = eng.Choose(ctx, "tour", "ada", 1)
	fmt.Println(pb.Node.Data.Title)

	pb, _ = eng.Next(ctx, "tour", "ada")
	fmt.Println("completed:", pb.Completed)

	// Output:
	// Welcome
	// 0) Basics
	// 1) Advanced
	// Advanced
	// completed: true
}
