// Package scoring folds the contest points log into normalized rankings
// and replays them for animated scoreboard display.
//
// Scoring is per-category max-normalized: a team's score in a category is
// its cumulative points divided by the highest cumulative total any single
// team has reached in that category so far, and its overall score is the
// sum of those ratios. Winning a category is worth 1 no matter how many
// points the category hands out, so a small category counts as much as a
// big one.
package scoring

import (
	"sort"

	"github.com/ctfboard/ctfboard/models"
)

// TeamStanding is one team's row in a ranking snapshot.
type TeamStanding struct {
	TeamID string `json:"id"`
	Name   string `json:"name"`

	// CategoryPoints is the team's cumulative point total per category.
	CategoryPoints map[string]int `json:"categoryPoints"`

	// CategoryScore is the normalized score per category, each in [0, 1].
	CategoryScore map[string]float64 `json:"categoryScore"`

	// Overall is the sum of the normalized category scores.
	Overall float64 `json:"overall"`
}

// Snapshot is the ranking after some prefix of the points log has been
// folded in. Standings are ordered by descending overall score; ties keep
// roster (ascending team ID) order.
type Snapshot struct {
	// When is the timestamp of the last folded award.
	When int64 `json:"when"`

	// MaxPoints is the highest cumulative score any team has reached,
	// per category. It never decreases as the log plays forward.
	MaxPoints map[string]int `json:"maxPoints"`

	Standings []TeamStanding `json:"standings"`
}

// Tally is the fold state for the points log. Its state only ever grows as
// awards are folded in; the replay engine depends on that monotonicity.
type Tally struct {
	teamNames map[string]string
	maxPoints map[string]int
	points    map[string]map[string]int // teamID -> category -> cumulative
}

// NewTally returns an empty fold state. teamNames is display-only and may
// be nil; identity is the team ID.
func NewTally(teamNames map[string]string) *Tally {
	return &Tally{
		teamNames: teamNames,
		maxPoints: make(map[string]int),
		points:    make(map[string]map[string]int),
	}
}

// Fold adds one award to the tally. Each award in the log must be folded
// exactly once.
func (t *Tally) Fold(a models.Award) {
	byCategory, ok := t.points[a.TeamID]
	if !ok {
		byCategory = make(map[string]int)
		t.points[a.TeamID] = byCategory
	}
	byCategory[a.Category] += a.Points

	if byCategory[a.Category] > t.maxPoints[a.Category] {
		t.maxPoints[a.Category] = byCategory[a.Category]
	}
}

// NormalizedScore returns a team's score in a category, in [0, 1]. A
// category nobody has scored in normalizes to 0, never NaN.
func (t *Tally) NormalizedScore(teamID, category string) float64 {
	max := t.maxPoints[category]
	if max == 0 {
		return 0
	}
	return float64(t.points[teamID][category]) / float64(max)
}

// Overall returns the sum of a team's normalized category scores.
// Categories the team has no points in contribute zero, not a penalty.
// The sum runs in ascending category order: float addition is not
// associative, so a fixed order is what keeps Overall byte-identical
// across re-runs.
func (t *Tally) Overall(teamID string) float64 {
	var sum float64
	for _, category := range t.scoredCategories(teamID) {
		sum += t.NormalizedScore(teamID, category)
	}
	return sum
}

// scoredCategories returns the categories a team has awards in, ascending.
func (t *Tally) scoredCategories(teamID string) []string {
	categories := make([]string, 0, len(t.points[teamID]))
	for category := range t.points[teamID] {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// roster returns every known team ID in ascending order: teams that have
// scored plus teams present in the name map. Sorting here is what makes
// replays byte-for-byte reproducible; the later ranking sort is stable on
// top of it.
func (t *Tally) roster() []string {
	seen := make(map[string]bool, len(t.points)+len(t.teamNames))
	for teamID := range t.points {
		seen[teamID] = true
	}
	for teamID := range t.teamNames {
		seen[teamID] = true
	}
	ids := make([]string, 0, len(seen))
	for teamID := range seen {
		ids = append(ids, teamID)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot captures the current ranking. The returned snapshot shares no
// state with the tally, so folding further awards never mutates it.
func (t *Tally) Snapshot(when int64) Snapshot {
	maxPoints := make(map[string]int, len(t.maxPoints))
	for category, max := range t.maxPoints {
		maxPoints[category] = max
	}

	roster := t.roster()
	standings := make([]TeamStanding, 0, len(roster))
	for _, teamID := range roster {
		row := TeamStanding{
			TeamID:         teamID,
			Name:           t.teamNames[teamID],
			CategoryPoints: make(map[string]int, len(t.points[teamID])),
			CategoryScore:  make(map[string]float64, len(t.points[teamID])),
		}
		// Same ascending category order as Overall, so the two can never
		// disagree in the low float bits.
		for _, category := range t.scoredCategories(teamID) {
			row.CategoryPoints[category] = t.points[teamID][category]
			row.CategoryScore[category] = t.NormalizedScore(teamID, category)
			row.Overall += row.CategoryScore[category]
		}
		standings = append(standings, row)
	}

	// Strictly descending by overall score. The sort is stable, so equal
	// scores keep roster order; no fairer tie-break is defined.
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Overall > standings[j].Overall
	})

	return Snapshot{
		When:      when,
		MaxPoints: maxPoints,
		Standings: standings,
	}
}
