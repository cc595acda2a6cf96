package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Award is one record of points granted to a team, as it appears in the
// server's points log. Awards are created only by the server and are
// read-only here. Points are never negative in practice but zero must be
// tolerated.
type Award struct {
	// Unix epoch time of this event
	When     int64
	TeamID   string
	Category string
	Points   int
}

// AwardList is a collection of award events.
type AwardList []Award

// ParseAward parses a text log entry ("<when> <teamid> <category> <points>")
// into an Award.
func ParseAward(s string) (Award, error) {
	var a Award

	s = strings.TrimSpace(s)

	n, err := fmt.Sscanf(s, "%d %s %s %d", &a.When, &a.TeamID, &a.Category, &a.Points)
	if err != nil {
		return Award{}, fmt.Errorf("malformed award entry %q: %w", s, err)
	} else if n != 4 {
		return Award{}, fmt.Errorf("malformed award entry %q: only parsed %d fields", s, n)
	}

	return a, nil
}

// String returns the text log entry form of an award.
func (a Award) String() string {
	return fmt.Sprintf("%d %s %s %d", a.When, a.TeamID, a.Category, a.Points)
}

// MarshalJSON encodes the award in the wire form used by /state:
// a 4-element array [when, teamID, category, points].
func (a Award) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{a.When, a.TeamID, a.Category, a.Points})
}

// UnmarshalJSON decodes the 4-element array wire form.
func (a *Award) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 4 {
		return fmt.Errorf("award entry has %d fields, want 4", len(fields))
	}
	if err := json.Unmarshal(fields[0], &a.When); err != nil {
		return fmt.Errorf("award timestamp: %w", err)
	}
	if err := json.Unmarshal(fields[1], &a.TeamID); err != nil {
		return fmt.Errorf("award team ID: %w", err)
	}
	if err := json.Unmarshal(fields[2], &a.Category); err != nil {
		return fmt.Errorf("award category: %w", err)
	}
	if err := json.Unmarshal(fields[3], &a.Points); err != nil {
		return fmt.Errorf("award points: %w", err)
	}
	return nil
}

// Equal reports whether two awards represent the same grant.
// Timestamps are ignored in this comparison!
func (a Award) Equal(o Award) bool {
	switch {
	case a.TeamID != o.TeamID:
		return false
	case a.Category != o.Category:
		return false
	case a.Points != o.Points:
		return false
	}
	return true
}

// Sorted returns a copy of the list ordered by timestamp. The sort is
// stable, so entries sharing a timestamp keep their log order. The server
// is supposed to deliver the log pre-sorted; this does not assume it did.
func (l AwardList) Sorted() AwardList {
	out := make(AwardList, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].When < out[j].When
	})
	return out
}
