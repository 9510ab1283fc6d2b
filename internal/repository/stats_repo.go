package repository

import (
	"database/sql"
	"fmt"

	"studypath/internal/database"
	"studypath/internal/models"
)

// StatsRepository handles the per-learner engagement ledger
type StatsRepository struct {
	db database.DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *StatsRepository) WithTx(tx *database.Tx) *StatsRepository {
	return &StatsRepository{db: tx}
}

// EnsureStats atomically creates the learner's ledger row if absent
func (r *StatsRepository) EnsureStats(learnerID int64) error {
	query := "INSERT INTO learner_stats (learner_id, xp, streak) VALUES (?, 0, 0)"

	if _, err := r.db.ExecInsertIgnore(query, "learner_id", learnerID); err != nil {
		return fmt.Errorf("failed to ensure learner stats: %w", err)
	}
	return nil
}

// GetStats retrieves the learner's ledger, or nil when no row exists yet
func (r *StatsRepository) GetStats(learnerID int64) (*models.LearnerStats, error) {
	query := "SELECT learner_id, xp, streak, last_streak_date FROM learner_stats WHERE learner_id = ?"

	stats := &models.LearnerStats{}
	var lastStreakDate sql.NullString

	err := r.db.QueryRow(query, learnerID).Scan(&stats.LearnerID, &stats.XP, &stats.Streak, &lastStreakDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner stats: %w", err)
	}

	stats.LastStreakDate = lastStreakDate.String
	return stats, nil
}

// SaveStats writes the ledger back
func (r *StatsRepository) SaveStats(stats *models.LearnerStats) error {
	query := "UPDATE learner_stats SET xp = ?, streak = ?, last_streak_date = ? WHERE learner_id = ?"

	var lastStreakDate interface{}
	if stats.LastStreakDate != "" {
		lastStreakDate = stats.LastStreakDate
	}

	_, err := r.db.Exec(query, stats.XP, stats.Streak, lastStreakDate, stats.LearnerID)
	if err != nil {
		return fmt.Errorf("failed to save learner stats: %w", err)
	}
	return nil
}
