package espalier_test

import (
	"context"
	"fmt"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/fakes"
	"github.com/aretw0/espalier/pkg/domain"
)

func ExampleResearcher_Research() {
	model := fakes.NewModel().
		On("search queries", "```json\n[\"espalier history\"]\n```").
		On("key findings", `["Espalier trains trees flat against a wall"]`).
		On("comprehensive summary", "Espalier is a pruning technique.")
	search := fakes.NewSearcher()
	search.Results["espalier history"] = []domain.SearchResult{{Content: "Roman gardens"}}

	r, err := espalier.New(model, search)
	if err != nil {
		panic(err)
	}

	report, err := r.Research(context.Background(), "espalier")
	if err != nil {
		panic(err)
	}

	fmt.Println(report.Result.SearchQueries)
	fmt.Println(report.Result.NumResults)
	fmt.Println(report.Result.Summary)
	fmt.Println(report.State.CurrentStep)
	// Output:
	// [espalier history]
	// 1
	// Espalier is a pruning technique.
	// generate_summary
}
