package models

import "sort"

// StateConfig is the configuration block the server includes in /state.
type StateConfig struct {
	Debug bool
}

// State is one snapshot of contest state as returned by GET /state.
// Everything in it is produced by the server and read-only here.
type State struct {
	Config    StateConfig
	Messages  string
	TeamNames map[string]string

	// PointsByCategory maps category name to open puzzle point values.
	// A 0 entry is a sentinel meaning every puzzle in the category has
	// been opened.
	PointsByCategory map[string][]int `json:"Puzzles"`

	PointsLog AwardList

	// Enabled reports whether the server is accepting point awards.
	Enabled bool
}

// Categories returns the sorted set of known categories: the union of
// categories with open puzzles and categories present in the points log.
func (s *State) Categories() []string {
	seen := make(map[string]bool)
	for category := range s.PointsByCategory {
		seen[category] = true
	}
	for _, a := range s.PointsLog {
		seen[a.Category] = true
	}

	ret := make([]string, 0, len(seen))
	for category := range seen {
		ret = append(ret, category)
	}
	sort.Strings(ret)
	return ret
}

// HasUnsolved reports whether a category still has unsolved puzzles.
// The server adds a 0-point entry to a category's point list once
// everything in it has been opened, so this just checks for the sentinel.
func (s *State) HasUnsolved(category string) bool {
	points, ok := s.PointsByCategory[category]
	if !ok {
		return false
	}
	for _, p := range points {
		if p == 0 {
			return false
		}
	}
	return true
}

// Puzzles returns all open puzzles, sorted by (category, points). With no
// categories given, every category with open puzzles is included. The
// 0-point sentinel is never wrapped in a Puzzle.
func (s *State) Puzzles(fetcher ContentFetcher, submitter AnswerSubmitter, categories ...string) ([]*Puzzle, error) {
	if len(categories) == 0 {
		for _, category := range s.Categories() {
			if _, ok := s.PointsByCategory[category]; ok {
				categories = append(categories, category)
			}
		}
	}

	var ret []*Puzzle
	for _, category := range categories {
		points := append([]int(nil), s.PointsByCategory[category]...)
		sort.Ints(points)
		for _, p := range points {
			if p == 0 {
				// Sentinel: all puzzles in this category are open.
				continue
			}
			puzzle, err := NewPuzzle(fetcher, submitter, category, p)
			if err != nil {
				return nil, err
			}
			ret = append(ret, puzzle)
		}
	}
	return ret, nil
}
