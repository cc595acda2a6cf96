package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ctfboard/ctfboard/models"
	"github.com/ctfboard/ctfboard/scoring"
)

// StateSource is the slice of the server gateway the scoreboard needs.
type StateSource interface {
	GetState(ctx context.Context) (*models.State, error)
}

// ScoreboardService polls the upstream contest server, re-derives the
// ranking from the award log and fans the results out: the latest snapshot
// to the scoreboard room, the full paced sequence to the replay room, new
// awards to the archive and the feed.
//
// Refresh never mutates previously published snapshots; each poll replays
// the whole log from scratch.
type ScoreboardService struct {
	gateway StateSource
	hub     *scoring.Hub
	logger  *slog.Logger

	// Optional sinks; nil disables them.
	archive *ArchiveService
	feed    *FeedService

	replayDuration time.Duration
	replayMaxFPS   int

	mu         sync.Mutex
	state      *models.State
	snapshots  []scoring.Snapshot
	lastLogLen int

	// One replay player runs at a time. A newer log cancels the older
	// player before its replacement starts.
	generation   int
	cancelReplay context.CancelFunc
}

type ScoreboardServiceConfig struct {
	Gateway        StateSource
	Hub            *scoring.Hub
	Logger         *slog.Logger
	Archive        *ArchiveService
	Feed           *FeedService
	ReplayDuration time.Duration
	ReplayMaxFPS   int
}

func NewScoreboardService(cfg ScoreboardServiceConfig) *ScoreboardService {
	return &ScoreboardService{
		gateway:        cfg.Gateway,
		hub:            cfg.Hub,
		logger:         cfg.Logger,
		archive:        cfg.Archive,
		feed:           cfg.Feed,
		replayDuration: cfg.ReplayDuration,
		replayMaxFPS:   cfg.ReplayMaxFPS,
		lastLogLen:     -1,
	}
}

// Run polls upstream on interval until ctx is cancelled. A failed poll is
// logged and retried on the next tick; the previously published snapshot
// stays current in the meantime.
func (s *ScoreboardService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("initial scoreboard refresh failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			s.stopReplay()
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error("scoreboard refresh failed", slog.Any("error", err))
			}
		}
	}
}

// Refresh performs one poll: fetch state, replay the log, publish.
func (s *ScoreboardService) Refresh(ctx context.Context) error {
	state, err := s.gateway.GetState(ctx)
	if err != nil {
		return fmt.Errorf("fetching upstream state: %w", err)
	}

	log := state.PointsLog.Sorted()
	snapshots := scoring.Replay(log, state.TeamNames)

	s.mu.Lock()
	prevLen := s.lastLogLen
	s.state = state
	s.snapshots = snapshots
	s.lastLogLen = len(log)
	s.mu.Unlock()

	latest := scoring.NewTally(state.TeamNames).Snapshot(0)
	if len(snapshots) > 0 {
		latest = snapshots[len(snapshots)-1]
	}
	s.hub.BroadcastToRoom(scoring.RoomScoreboard, latest)

	if s.archive != nil {
		if n, err := s.archive.Store(ctx, log); err != nil {
			s.logger.Error("award archive write failed", slog.Any("error", err))
		} else if n > 0 {
			s.logger.Info("awards archived", slog.Int("new", n))
		}
	}

	if s.feed != nil && prevLen >= 0 && len(log) > prevLen {
		if err := s.feed.PublishAwards(ctx, log[prevLen:]); err != nil {
			s.logger.Error("award feed publish failed", slog.Any("error", err))
		}
	}

	if len(log) != prevLen {
		s.startReplay(snapshots)
	}
	return nil
}

// LatestSnapshot returns the newest ranking, or ErrNoSnapshot before the
// first successful poll.
func (s *ScoreboardService) LatestSnapshot() (scoring.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snapshots) == 0 {
		if s.state == nil {
			return scoring.Snapshot{}, ErrNoSnapshot
		}
		return scoring.Final(nil, s.state.TeamNames), nil
	}
	return s.snapshots[len(s.snapshots)-1], nil
}

// ReplaySnapshots returns the full snapshot sequence for the current log.
func (s *ScoreboardService) ReplaySnapshots() ([]scoring.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNoSnapshot
	}
	out := make([]scoring.Snapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out, nil
}

// State returns the last fetched upstream state.
func (s *ScoreboardService) State() (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNoSnapshot
	}
	return s.state, nil
}

// startReplay supersedes any running replay stream with a fresh one.
func (s *ScoreboardService) startReplay(snapshots []scoring.Snapshot) {
	s.mu.Lock()
	if s.cancelReplay != nil {
		s.cancelReplay()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelReplay = cancel
	s.mu.Unlock()

	if len(snapshots) == 0 {
		return
	}

	player := scoring.NewPlayer(snapshots, s.replayDuration, s.replayMaxFPS)
	go func() {
		err := player.Play(ctx, func(snap scoring.Snapshot) {
			s.hub.BroadcastToRoom(scoring.RoomReplay, snap)
		})
		if err != nil {
			s.logger.Debug("replay superseded", slog.Int("generation", gen))
			return
		}
		s.logger.Info("replay finished",
			slog.Int("generation", gen),
			slog.Int("steps", len(snapshots)))
	}()
}

func (s *ScoreboardService) stopReplay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelReplay != nil {
		s.cancelReplay()
		s.cancelReplay = nil
	}
}
