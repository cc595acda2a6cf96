package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateDecode(t *testing.T) {
	raw := `{
		"Config": {"Debug": true},
		"Messages": "<p>welcome</p>",
		"TeamNames": {"t1": "Alpha"},
		"Puzzles": {"crypto": [10, 20], "web": [0]},
		"PointsLog": [[1000, "t1", "crypto", 10]],
		"Enabled": true
	}`
	var s State
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.True(t, s.Config.Debug)
	assert.True(t, s.Enabled)
	assert.Equal(t, "Alpha", s.TeamNames["t1"])
	assert.Equal(t, []int{10, 20}, s.PointsByCategory["crypto"])
	require.Len(t, s.PointsLog, 1)
	assert.Equal(t, Award{When: 1000, TeamID: "t1", Category: "crypto", Points: 10}, s.PointsLog[0])
}

func TestCategoriesUnionOfListingAndLog(t *testing.T) {
	s := State{
		PointsByCategory: map[string][]int{"web": {10}},
		PointsLog: AwardList{
			{When: 1, TeamID: "t", Category: "retired", Points: 5},
		},
	}
	assert.Equal(t, []string{"retired", "web"}, s.Categories())
}

func TestSentinelCategoryHasNoOpenPuzzles(t *testing.T) {
	s := State{PointsByCategory: map[string][]int{"crypto": {0}}}

	assert.False(t, s.HasUnsolved("crypto"))
	assert.False(t, s.HasUnsolved("nonexistent"))

	puzzles, err := s.Puzzles(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, puzzles)
}

func TestPuzzlesSkipsSentinelAndSorts(t *testing.T) {
	s := State{
		PointsByCategory: map[string][]int{
			"crypto": {20, 10, 0},
			"web":    {5},
		},
	}

	assert.True(t, s.HasUnsolved("web"))
	assert.False(t, s.HasUnsolved("crypto"))

	puzzles, err := s.Puzzles(nil, nil)
	require.NoError(t, err)
	require.Len(t, puzzles, 3)

	assert.Equal(t, "crypto", puzzles[0].Category)
	assert.Equal(t, 10, puzzles[0].Points)
	assert.Equal(t, 20, puzzles[1].Points)
	assert.Equal(t, "web", puzzles[2].Category)
	assert.Equal(t, 5, puzzles[2].Points)
}

func TestPuzzlesFilteredByCategory(t *testing.T) {
	s := State{
		PointsByCategory: map[string][]int{
			"crypto": {10},
			"web":    {5},
		},
	}
	puzzles, err := s.Puzzles(nil, nil, "web")
	require.NoError(t, err)
	require.Len(t, puzzles, 1)
	assert.Equal(t, "web", puzzles[0].Category)
}
