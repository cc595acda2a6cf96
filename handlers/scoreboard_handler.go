package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ctfboard/ctfboard/services"
)

type ScoreboardHandler struct {
	scoreboard *services.ScoreboardService
	archive    *services.ArchiveService
	mirror     *services.MirrorService
	logger     *slog.Logger
}

func NewScoreboardHandler(
	scoreboard *services.ScoreboardService,
	archive *services.ArchiveService,
	mirror *services.MirrorService,
	logger *slog.Logger,
) *ScoreboardHandler {
	return &ScoreboardHandler{
		scoreboard: scoreboard,
		archive:    archive,
		mirror:     mirror,
		logger:     logger,
	}
}

// GetScoreboard returns the latest ranking snapshot.
func (h *ScoreboardHandler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.scoreboard.LatestSnapshot()
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshot": snapshot}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// GetReplay returns the full snapshot sequence for the current log, one
// snapshot per award prefix.
func (h *ScoreboardHandler) GetReplay(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.scoreboard.ReplaySnapshots()
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshots": snapshots}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// GetState relays the last fetched upstream state.
func (h *ScoreboardHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.scoreboard.State()
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, state, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// Refresh forces an immediate upstream poll. Admin only.
func (h *ScoreboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.scoreboard.Refresh(r.Context()); err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	snapshot, err := h.scoreboard.LatestSnapshot()
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshot": snapshot}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// GetAwardHistory returns every archived award in log order. Admin only.
func (h *ScoreboardHandler) GetAwardHistory(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		mapServiceErrorToHTTP(h.logger, w, r, services.ErrArchiveDisabled)
		return
	}

	awards, err := h.archive.History(r.Context())
	if err != nil {
		serverErrorResponse(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"awards": awards}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}

// MirrorContent copies all open puzzle content to object storage. Admin
// only.
func (h *ScoreboardHandler) MirrorContent(w http.ResponseWriter, r *http.Request) {
	if h.mirror == nil {
		mapServiceErrorToHTTP(h.logger, w, r, services.ErrMirrorDisabled)
		return
	}

	state, err := h.scoreboard.State()
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	stored, err := h.mirror.MirrorState(r.Context(), state)
	if err != nil {
		serverErrorResponse(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"objects": stored}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}
