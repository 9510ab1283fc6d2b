package repository

import (
	"database/sql"
	"fmt"
	"time"

	"studypath/internal/database"
	"studypath/internal/models"
)

// ProgressRepository handles per-(learner, topic) mastery state
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *ProgressRepository) WithTx(tx *database.Tx) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

// EnsureProgress atomically creates the (learner, topic) row if it is
// absent. Reports whether this call created it.
func (r *ProgressRepository) EnsureProgress(learnerID, topicID int64) (bool, error) {
	query := `
		INSERT INTO topic_progress (learner_id, topic_id, watch_progress, watch_complete, test_score, mastered)
		VALUES (?, ?, 0, ?, 0, ?)
	`

	created, err := r.db.ExecInsertIgnore(query, "learner_id, topic_id", learnerID, topicID, false, false)
	if err != nil {
		return false, fmt.Errorf("failed to ensure topic progress: %w", err)
	}
	return created, nil
}

// GetProgress retrieves the progress row, or nil if none exists yet
func (r *ProgressRepository) GetProgress(learnerID, topicID int64) (*models.TopicProgress, error) {
	query := `
		SELECT id, learner_id, topic_id, watch_progress, watch_complete, test_score, mastered, updated_at
		FROM topic_progress
		WHERE learner_id = ? AND topic_id = ?
	`

	p := &models.TopicProgress{}
	err := r.db.QueryRow(query, learnerID, topicID).Scan(
		&p.ID,
		&p.LearnerID,
		&p.TopicID,
		&p.WatchProgress,
		&p.WatchComplete,
		&p.TestScore,
		&p.Mastered,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic progress: %w", err)
	}

	return p, nil
}

// SaveProgress writes the scalar progress fields back. Each caller
// recomputes them from authoritative inputs, so last-writer-wins is fine.
func (r *ProgressRepository) SaveProgress(p *models.TopicProgress) error {
	query := `
		UPDATE topic_progress
		SET watch_progress = ?, watch_complete = ?, test_score = ?, mastered = ?, updated_at = ?
		WHERE learner_id = ? AND topic_id = ?
	`

	_, err := r.db.Exec(query, p.WatchProgress, p.WatchComplete, p.TestScore, p.Mastered, time.Now(), p.LearnerID, p.TopicID)
	if err != nil {
		return fmt.Errorf("failed to save topic progress: %w", err)
	}
	return nil
}
