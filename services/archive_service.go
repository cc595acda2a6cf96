package services

import (
	"context"
	"database/sql"

	"github.com/ctfboard/ctfboard/models"
	"github.com/ctfboard/ctfboard/repositories"
)

// ArchiveService persists the observed award log to Postgres. Upstream
// re-delivers the full log on every poll, so Store is idempotent.
type ArchiveService struct {
	db   *sql.DB
	repo repositories.AwardRepository
}

func NewArchiveService(db *sql.DB, repo repositories.AwardRepository) *ArchiveService {
	return &ArchiveService{db: db, repo: repo}
}

// Store archives awards not seen before and returns how many were new.
func (s *ArchiveService) Store(ctx context.Context, awards models.AwardList) (int, error) {
	return s.repo.SaveAll(ctx, s.db, awards)
}

// History returns every archived award in log order.
func (s *ArchiveService) History(ctx context.Context) (models.AwardList, error) {
	return s.repo.ListAll(ctx, s.db)
}

// Size reports the number of archived awards.
func (s *ArchiveService) Size(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, s.db)
}
