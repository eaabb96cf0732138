// Package trendscore ranks candidate topics by a deterministic trend score.
package trendscore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/trendflow/trendflow/internal/contract"
	"github.com/trendflow/trendflow/internal/modules"
)

// Module implements the trend scoring functionality
type Module struct{}

// Input contains the candidate topics to score
type Input struct {
	Topics []Topic `json:"topics"`
	Limit  int     `json:"limit"` // Max ranked entries to return (default: all)
}

// Topic is one candidate with its raw signals
type Topic struct {
	Name       string  `json:"name"`
	Mentions   float64 `json:"mentions"`
	GrowthRate float64 `json:"growthRate"` // Relative growth over the sampling window
}

// Output is the ranked scoreboard
type Output struct {
	Ranked []Ranked `json:"ranked"`
	Top    string   `json:"top"`
}

// Ranked is a topic with its computed score
type Ranked struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// New creates a new trend scoring module
func New() modules.Adapter {
	return &Module{}
}

// Name returns the module name
func (m *Module) Name() string {
	return "trendscore"
}

// Contract returns the module's published contract
func (m *Module) Contract() *contract.Contract {
	topic := contract.Object(map[string]*contract.Schema{
		"name":       contract.String(),
		"mentions":   contract.NumberRange(0, math.MaxFloat64),
		"growthRate": contract.Number(),
	}, "name", "mentions", "growthRate")

	input := contract.Object(map[string]*contract.Schema{
		"topics": contract.ArrayMin(topic, 1),
		"limit":  contract.NumberRange(1, 100),
	}, "topics")

	ranked := contract.Object(map[string]*contract.Schema{
		"name":  contract.String(),
		"score": contract.Number(),
	}, "name", "score")

	output := contract.Object(map[string]*contract.Schema{
		"ranked": contract.Array(ranked),
		"top":    contract.String(),
	}, "ranked", "top")

	return contract.MustNew("trendscore", "1.0.0", input, output)
}

// Execute scores every topic and returns them ranked best-first
func (m *Module) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in Input
	if err := modules.ParseInput(input, &in); err != nil {
		return nil, err
	}

	ranked := make([]Ranked, 0, len(in.Topics))
	for _, t := range in.Topics {
		if t.Name == "" {
			return nil, fmt.Errorf("topic with empty name")
		}
		ranked = append(ranked, Ranked{Name: t.Name, Score: score(t)})
	}

	// Stable ordering: score descending, then name, so equal signals always
	// produce the same ranking.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})

	if in.Limit > 0 && in.Limit < len(ranked) {
		ranked = ranked[:in.Limit]
	}

	return modules.Output(Output{Ranked: ranked, Top: ranked[0].Name})
}

// score combines reach and momentum. Mentions are log-dampened so a huge
// stale topic does not drown out a fast-growing small one.
func score(t Topic) float64 {
	reach := math.Log1p(t.Mentions)
	momentum := 1 + t.GrowthRate
	if momentum < 0 {
		momentum = 0
	}
	return math.Round(reach*momentum*100) / 100
}
