package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ctfboard/ctfboard/models"
)

// AwardRepository archives the award log observed from the upstream
// server. The log is append-only upstream, but every poll re-delivers the
// whole thing, so writes deduplicate on the full award tuple; re-archiving
// the same log is a no-op.
type AwardRepository interface {
	SaveAll(ctx context.Context, exec SQLExecutor, awards models.AwardList) (int, error)
	ListAll(ctx context.Context, exec SQLExecutor) (models.AwardList, error)
	Count(ctx context.Context, exec SQLExecutor) (int, error)
}

type postgresAwardRepository struct {
	db *sql.DB
}

func NewPostgresAwardRepository(db *sql.DB) AwardRepository {
	return &postgresAwardRepository{db: db}
}

func (r *postgresAwardRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// SaveAll inserts awards, skipping any already archived. Returns the
// number of new rows.
func (r *postgresAwardRepository) SaveAll(ctx context.Context, exec SQLExecutor, awards models.AwardList) (int, error) {
	executor := r.getExecutor(exec)
	if len(awards) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO awards (awarded_at, team_id, category, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (awarded_at, team_id, category, points) DO NOTHING`

	inserted := 0
	for _, a := range awards {
		result, err := executor.ExecContext(ctx, query, a.When, a.TeamID, a.Category, a.Points)
		if err != nil {
			return inserted, fmt.Errorf("failed to archive award %s: %w", a, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to check archived award %s: %w", a, err)
		}
		inserted += int(rows)
	}
	return inserted, nil
}

func (r *postgresAwardRepository) ListAll(ctx context.Context, exec SQLExecutor) (models.AwardList, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT awarded_at, team_id, category, points
		FROM awards
		ORDER BY awarded_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	awards := make(models.AwardList, 0)
	for rows.Next() {
		var a models.Award
		if err := rows.Scan(&a.When, &a.TeamID, &a.Category, &a.Points); err != nil {
			return nil, err
		}
		awards = append(awards, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return awards, nil
}

func (r *postgresAwardRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM awards`).Scan(&count)
	return count, err
}
