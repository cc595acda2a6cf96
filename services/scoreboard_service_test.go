package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ctfboard/ctfboard/models"
	"github.com/ctfboard/ctfboard/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStateSource struct {
	state *models.State
	err   error
	calls int
}

func (s *stubStateSource) GetState(ctx context.Context) (*models.State, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.state, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(source StateSource) *ScoreboardService {
	logger := discardLogger()
	hub := scoring.NewHub(logger)
	go hub.Run()
	return NewScoreboardService(ScoreboardServiceConfig{
		Gateway:        source,
		Hub:            hub,
		Logger:         logger,
		ReplayDuration: time.Second,
		ReplayMaxFPS:   24,
	})
}

func testState() *models.State {
	return &models.State{
		TeamNames: map[string]string{"t1": "Alpha", "t2": "Bravo"},
		PointsLog: models.AwardList{
			{When: 100, TeamID: "t1", Category: "crypto", Points: 10},
			{When: 200, TeamID: "t2", Category: "crypto", Points: 20},
		},
		Enabled: true,
	}
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	source := &stubStateSource{state: testState()}
	svc := newTestService(source)

	_, err := svc.LatestSnapshot()
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, svc.Refresh(context.Background()))

	snapshot, err := svc.LatestSnapshot()
	require.NoError(t, err)
	require.Len(t, snapshot.Standings, 2)
	assert.Equal(t, "t2", snapshot.Standings[0].TeamID)
	assert.Equal(t, 20, snapshot.MaxPoints["crypto"])
}

func TestRefreshKeepsReplaySequence(t *testing.T) {
	source := &stubStateSource{state: testState()}
	svc := newTestService(source)
	require.NoError(t, svc.Refresh(context.Background()))

	snapshots, err := svc.ReplaySnapshots()
	require.NoError(t, err)
	// One snapshot per award prefix.
	require.Len(t, snapshots, 2)
	assert.Equal(t, int64(100), snapshots[0].When)
	assert.Equal(t, int64(200), snapshots[1].When)
}

func TestRefreshWithEmptyLogPublishesRoster(t *testing.T) {
	source := &stubStateSource{state: &models.State{
		TeamNames: map[string]string{"t1": "Alpha"},
		Enabled:   true,
	}}
	svc := newTestService(source)
	require.NoError(t, svc.Refresh(context.Background()))

	snapshot, err := svc.LatestSnapshot()
	require.NoError(t, err)
	require.Len(t, snapshot.Standings, 1)
	assert.Equal(t, "t1", snapshot.Standings[0].TeamID)
	assert.Equal(t, 0.0, snapshot.Standings[0].Overall)
}

func TestRefreshErrorKeepsPreviousSnapshot(t *testing.T) {
	source := &stubStateSource{state: testState()}
	svc := newTestService(source)
	require.NoError(t, svc.Refresh(context.Background()))

	source.err = context.DeadlineExceeded
	require.Error(t, svc.Refresh(context.Background()))

	snapshot, err := svc.LatestSnapshot()
	require.NoError(t, err)
	assert.Len(t, snapshot.Standings, 2)
}

func TestRefreshIsIdempotentOnUnchangedLog(t *testing.T) {
	source := &stubStateSource{state: testState()}
	svc := newTestService(source)

	require.NoError(t, svc.Refresh(context.Background()))
	first, err := svc.LatestSnapshot()
	require.NoError(t, err)

	require.NoError(t, svc.Refresh(context.Background()))
	second, err := svc.LatestSnapshot()
	require.NoError(t, err)

	assert.Equal(t, first.Standings, second.Standings)
	assert.Equal(t, 2, source.calls)
}
