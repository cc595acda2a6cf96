package models

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ctfboard/ctfboard/digest"
)

// ContentFetcher retrieves a file belonging to a puzzle from the contest
// server. Implemented by client.Server.
type ContentFetcher interface {
	GetContent(ctx context.Context, category string, points int, filename string) (*http.Response, error)
}

// AnswerSubmitter submits a puzzle answer for points. Implemented by
// client.Server. Pre-validation is advisory only; the server stays
// authoritative.
type AnswerSubmitter interface {
	SubmitAnswer(ctx context.Context, category string, points int, answer string) (string, error)
}

// PuzzleError captures a failed puzzle fetch. It is kept on the puzzle so
// display code can show the server's own words.
type PuzzleError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *PuzzleError) Error() string {
	return fmt.Sprintf("puzzle fetch failed: %s (%s)", e.StatusText, e.Body)
}

// PuzzleDebug is debugging information attached to a puzzle in devel mode.
type PuzzleDebug struct {
	Errors  []string
	Hints   []string
	Log     []string
	Notes   string
	Summary string
}

// PuzzleSuccess describes the criteria for succeeding at a puzzle.
type PuzzleSuccess struct {
	Minimum string
	Mastery string
}

// Puzzle is a single puzzle, identified by (category, points). Points are
// unique within a category only. A freshly constructed Puzzle knows nothing
// beyond its identity; call Populate to fill in the rest.
type Puzzle struct {
	Category string
	Points   int

	// Error holds the failure from the last Populate attempt, if any.
	Error *PuzzleError

	AnswerHashes  []string
	AnswerPattern string
	Answers       []string
	Attachments   []string
	Authors       []string
	Body          string
	Debug         PuzzleDebug
	KSAs          []string
	Objective     string
	Scripts       []string
	Success       PuzzleSuccess

	fetcher   ContentFetcher
	submitter AnswerSubmitter
}

// NewPuzzle constructs an unpopulated puzzle. Point values below 1 are a
// construction error: 0 is the "category exhausted" sentinel and is never
// wrapped in a Puzzle.
func NewPuzzle(fetcher ContentFetcher, submitter AnswerSubmitter, category string, points int) (*Puzzle, error) {
	if points < 1 {
		return nil, fmt.Errorf("invalid points value %d for category %q", points, category)
	}
	return &Puzzle{
		Category:  category,
		Points:    points,
		fetcher:   fetcher,
		submitter: submitter,
	}, nil
}

// Populate fetches puzzle.json for this puzzle and overlays its fields onto
// the receiver. On a non-2xx response the puzzle's Error field is filled in
// and returned; only Category and Points remain meaningful then, but list
// fields are still usable as empty slices. On success every absent
// list-valued field is defaulted to an empty slice so no consumer ever sees
// nil.
func (p *Puzzle) Populate(ctx context.Context) error {
	resp, err := p.Get(ctx, "puzzle.json")
	if err != nil {
		p.normalizeLists()
		return fmt.Errorf("fetching puzzle %s/%d: %w", p.Category, p.Points, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.normalizeLists()
		return fmt.Errorf("reading puzzle %s/%d: %w", p.Category, p.Points, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.Error = &PuzzleError{
			Status:     resp.StatusCode,
			StatusText: resp.Status,
			Body:       string(body),
		}
		p.normalizeLists()
		return p.Error
	}

	// Whole-object field overlay, like the original client's
	// Object.assign: fields present in the JSON replace ours, absent
	// fields are left alone.
	if err := json.Unmarshal(body, p); err != nil {
		p.normalizeLists()
		return fmt.Errorf("decoding puzzle %s/%d: %w", p.Category, p.Points, err)
	}
	p.Error = nil
	p.normalizeLists()
	return nil
}

// normalizeLists makes sure lists are lists. Partial server data must never
// leak nil slices into later logic.
func (p *Puzzle) normalizeLists() {
	if p.AnswerHashes == nil {
		p.AnswerHashes = []string{}
	}
	if p.Answers == nil {
		p.Answers = []string{}
	}
	if p.Attachments == nil {
		p.Attachments = []string{}
	}
	if p.Authors == nil {
		p.Authors = []string{}
	}
	if p.Debug.Errors == nil {
		p.Debug.Errors = []string{}
	}
	if p.Debug.Hints == nil {
		p.Debug.Hints = []string{}
	}
	if p.Debug.Log == nil {
		p.Debug.Log = []string{}
	}
	if p.KSAs == nil {
		p.KSAs = []string{}
	}
	if p.Scripts == nil {
		p.Scripts = []string{}
	}
}

// IsPossiblyCorrect reports whether any digest of candidate matches one of
// the puzzle's accepted answer digests. Idempotent, no network access.
func (p *Puzzle) IsPossiblyCorrect(candidate string) bool {
	return digest.Matches(candidate, p.AnswerHashes)
}

// SubmitAnswer sends candidate to the server for points. Verification here
// is advisory only, so this does not re-check the digests first.
func (p *Puzzle) SubmitAnswer(ctx context.Context, candidate string) (string, error) {
	return p.submitter.SubmitAnswer(ctx, p.Category, p.Points, candidate)
}

// Get retrieves a file belonging to this puzzle.
func (p *Puzzle) Get(ctx context.Context, filename string) (*http.Response, error) {
	return p.fetcher.GetContent(ctx, p.Category, p.Points, filename)
}
