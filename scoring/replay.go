package scoring

import (
	"context"
	"time"

	"github.com/ctfboard/ctfboard/models"
)

// Replay folds the points log from scratch and returns one ranking
// snapshot per log prefix: snapshot i is the state of the contest just
// after award i landed. The log is defensively sorted (stable on timestamp
// ties) before folding, and the input list is not modified.
//
// The same sequence backs both the animated scoreboard (walk every
// snapshot) and the static one (take the last), so the two views can never
// drift apart. Re-running Replay on an unchanged log yields an identical
// sequence.
func Replay(log models.AwardList, teamNames map[string]string) []Snapshot {
	sorted := log.Sorted()
	tally := NewTally(teamNames)

	snapshots := make([]Snapshot, 0, len(sorted))
	for _, award := range sorted {
		tally.Fold(award)
		snapshots = append(snapshots, tally.Snapshot(award.When))
	}
	return snapshots
}

// Final returns the ranking with the whole log folded in. An empty log
// still yields a usable snapshot carrying the team roster.
func Final(log models.AwardList, teamNames map[string]string) Snapshot {
	snapshots := Replay(log, teamNames)
	if len(snapshots) == 0 {
		return NewTally(teamNames).Snapshot(0)
	}
	return snapshots[len(snapshots)-1]
}

// Player walks a snapshot sequence at display speed. The per-step delay is
// derived from a target total duration so long logs do not animate forever,
// and clamped by a frame-rate ceiling so short logs do not flicker faster
// than the eye can follow.
type Player struct {
	snapshots []Snapshot
	delay     time.Duration
}

// NewPlayer sizes the step delay for a snapshot sequence. totalDuration
// and maxFPS must be positive.
func NewPlayer(snapshots []Snapshot, totalDuration time.Duration, maxFPS int) *Player {
	delay := totalDuration
	if len(snapshots) > 0 {
		delay = totalDuration / time.Duration(len(snapshots))
	}
	if min := time.Second / time.Duration(maxFPS); delay < min {
		delay = min
	}
	return &Player{snapshots: snapshots, delay: delay}
}

// StepDelay returns the pause between consecutive snapshots.
func (p *Player) StepDelay() time.Duration {
	return p.delay
}

// Play emits each snapshot in order, pausing StepDelay between steps.
// It returns early with ctx.Err() once the context is done, which is how a
// superseded replay goes quiet.
func (p *Player) Play(ctx context.Context, emit func(Snapshot)) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for i, snapshot := range p.snapshots {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		emit(snapshot)
		if i < len(p.snapshots)-1 {
			timer.Reset(p.delay)
		}
	}
	return nil
}
