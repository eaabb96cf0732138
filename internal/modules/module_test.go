package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleParams struct {
	Topic    string  `json:"topic"`
	MaxWords int     `json:"maxWords"`
	Speed    float64 `json:"speed"`
	Nested   struct {
		Flag bool `json:"flag"`
	} `json:"nested"`
}

func TestParseInput(t *testing.T) {
	t.Run("maps fields by json tag", func(t *testing.T) {
		var p sampleParams
		err := ParseInput(map[string]any{
			"topic":    "foraging",
			"maxWords": 150,
			"speed":    1.5,
			"nested":   map[string]any{"flag": true},
		}, &p)
		require.NoError(t, err)
		assert.Equal(t, "foraging", p.Topic)
		assert.Equal(t, 150, p.MaxWords)
		assert.Equal(t, 1.5, p.Speed)
		assert.True(t, p.Nested.Flag)
	})

	t.Run("nil input", func(t *testing.T) {
		var p sampleParams
		assert.Error(t, ParseInput(nil, &p))
	})

	t.Run("non-pointer target", func(t *testing.T) {
		var p sampleParams
		assert.Error(t, ParseInput(map[string]any{}, p))
	})

	t.Run("pointer to non-struct target", func(t *testing.T) {
		var s string
		assert.Error(t, ParseInput(map[string]any{}, &s))
	})
}

func TestOutput(t *testing.T) {
	type result struct {
		Title string   `json:"title"`
		Score float64  `json:"score"`
		Tags  []string `json:"tags"`
	}

	out, err := Output(result{Title: "t", Score: 9, Tags: []string{"a"}})
	require.NoError(t, err)

	// The round-trip must produce the decoded JSON shapes the validator
	// accepts: float64 numbers and []any sequences.
	assert.Equal(t, "t", out["title"])
	assert.Equal(t, float64(9), out["score"])
	assert.Equal(t, []any{"a"}, out["tags"])
}
