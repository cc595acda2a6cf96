package scoring

import (
	"encoding/json"
	"testing"

	"github.com/ctfboard/ctfboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleLog() models.AwardList {
	return models.AwardList{
		{When: 1000, TeamID: "teamA", Category: "crypto", Points: 50},
		{When: 1010, TeamID: "teamB", Category: "crypto", Points: 100},
		{When: 1020, TeamID: "teamA", Category: "web", Points: 100},
	}
}

func TestReplayFullScenario(t *testing.T) {
	snapshots := Replay(exampleLog(), nil)
	require.Len(t, snapshots, 3)

	final := snapshots[2]
	assert.Equal(t, int64(1020), final.When)
	assert.Equal(t, map[string]int{"crypto": 100, "web": 100}, final.MaxPoints)

	require.Len(t, final.Standings, 2)
	// teamA: 50/100 + 100/100 = 1.5, teamB: 100/100 = 1.0
	assert.Equal(t, "teamA", final.Standings[0].TeamID)
	assert.InDelta(t, 1.5, final.Standings[0].Overall, 1e-9)
	assert.Equal(t, "teamB", final.Standings[1].TeamID)
	assert.InDelta(t, 1.0, final.Standings[1].Overall, 1e-9)
}

func TestMaxPointsMonotone(t *testing.T) {
	snapshots := Replay(exampleLog(), nil)

	prev := map[string]int{}
	for _, snap := range snapshots {
		for category, max := range snap.MaxPoints {
			assert.GreaterOrEqual(t, max, prev[category],
				"MaxPoints[%s] decreased", category)
		}
		prev = snap.MaxPoints
	}
}

func TestOverallBoundedByCategoryCount(t *testing.T) {
	snapshots := Replay(exampleLog(), nil)
	final := snapshots[len(snapshots)-1]

	for _, row := range final.Standings {
		assert.LessOrEqual(t, row.Overall, float64(len(final.MaxPoints))+1e-9)
		for category, score := range row.CategoryScore {
			assert.GreaterOrEqual(t, score, 0.0, "category %s", category)
			assert.LessOrEqual(t, score, 1.0, "category %s", category)
		}
	}
}

func TestReplayDeterministic(t *testing.T) {
	names := map[string]string{"teamA": "Alpha", "teamB": "Bravo", "teamC": "Charlie"}

	first := Replay(exampleLog(), names)
	second := Replay(exampleLog(), names)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "re-running replay on an unchanged log must be byte-identical")
}

func TestOverallStableWithInexactRatios(t *testing.T) {
	// Normalized scores of 0.1, 0.2 and 0.3 sum to different float values
	// depending on addition order, so this log would expose any
	// order-dependent accumulation.
	log := models.AwardList{
		{When: 1, TeamID: "m", Category: "crypto", Points: 10},
		{When: 2, TeamID: "m", Category: "forensics", Points: 10},
		{When: 3, TeamID: "m", Category: "web", Points: 10},
		{When: 4, TeamID: "a", Category: "crypto", Points: 1},
		{When: 5, TeamID: "a", Category: "forensics", Points: 2},
		{When: 6, TeamID: "a", Category: "web", Points: 3},
	}

	want, err := json.Marshal(Final(log, nil))
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		got, err := json.Marshal(Final(log, nil))
		require.NoError(t, err)
		require.Equal(t, want, got, "final snapshot bytes changed between runs")
	}

	final := Final(log, nil)
	require.Equal(t, "a", final.Standings[1].TeamID)
	// Summed in ascending category order: crypto, forensics, web.
	assert.Equal(t, 0.1+0.2+0.3, final.Standings[1].Overall)

	tally := NewTally(nil)
	for _, award := range log {
		tally.Fold(award)
	}
	assert.Equal(t, final.Standings[1].Overall, tally.Overall("a"))
}

func TestReplaySortsOutOfOrderLog(t *testing.T) {
	log := exampleLog()
	// Deliver the log shuffled; the engine must sort before folding.
	log[0], log[2] = log[2], log[0]

	final := Final(log, nil)
	assert.Equal(t, "teamA", final.Standings[0].TeamID)
	assert.InDelta(t, 1.5, final.Standings[0].Overall, 1e-9)
}

func TestNormalizedScoreGuardsZeroMax(t *testing.T) {
	tally := NewTally(nil)
	assert.Equal(t, 0.0, tally.NormalizedScore("nobody", "empty"))

	snap := tally.Snapshot(0)
	assert.Empty(t, snap.Standings)
	assert.Empty(t, snap.MaxPoints)
}

func TestZeroAwardTeamsAppearInRoster(t *testing.T) {
	names := map[string]string{"teamA": "Alpha", "idle": "Idle Hands"}
	final := Final(exampleLog()[:1], names)

	require.Len(t, final.Standings, 2)
	assert.Equal(t, "teamA", final.Standings[0].TeamID)

	idle := final.Standings[1]
	assert.Equal(t, "idle", idle.TeamID)
	assert.Equal(t, "Idle Hands", idle.Name)
	assert.Equal(t, 0.0, idle.Overall)
	assert.Empty(t, idle.CategoryPoints)
}

func TestSnapshotIsolatedFromLaterFolds(t *testing.T) {
	tally := NewTally(nil)
	tally.Fold(models.Award{When: 1, TeamID: "a", Category: "c", Points: 10})
	snap := tally.Snapshot(1)

	tally.Fold(models.Award{When: 2, TeamID: "b", Category: "c", Points: 90})

	assert.Equal(t, 10, snap.MaxPoints["c"])
	assert.InDelta(t, 1.0, snap.Standings[0].Overall, 1e-9)
}

func TestTieBreakKeepsRosterOrder(t *testing.T) {
	log := models.AwardList{
		{When: 1, TeamID: "zeta", Category: "c", Points: 10},
		{When: 2, TeamID: "alpha", Category: "c", Points: 10},
	}
	final := Final(log, nil)

	require.Len(t, final.Standings, 2)
	// Both at 1.0; the stable sort keeps ascending-ID roster order.
	assert.Equal(t, "alpha", final.Standings[0].TeamID)
	assert.Equal(t, "zeta", final.Standings[1].TeamID)
}

func TestZeroPointAwardTolerated(t *testing.T) {
	log := models.AwardList{
		{When: 1, TeamID: "a", Category: "c", Points: 0},
	}
	final := Final(log, nil)
	require.Len(t, final.Standings, 1)
	assert.Equal(t, 0.0, final.Standings[0].Overall)
	assert.Equal(t, 0, final.MaxPoints["c"])
}
