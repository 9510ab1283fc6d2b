package repository

import (
	"database/sql"
	"fmt"
	"time"

	"studypath/internal/database"
	"studypath/internal/models"
)

// ReviewRepository handles spaced-repetition items and their attempt log
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *ReviewRepository) WithTx(tx *database.Tx) *ReviewRepository {
	return &ReviewRepository{db: tx}
}

// EnsureItem atomically creates the (learner, topic) review item if it is
// absent, with stage 0 and the given due time. Reports whether this call
// created it.
func (r *ReviewRepository) EnsureItem(learnerID, topicID int64, nextDue time.Time) (bool, error) {
	query := `
		INSERT INTO review_items (learner_id, topic_id, stage, next_due, active, wrong_total)
		VALUES (?, ?, 0, ?, ?, 0)
	`

	created, err := r.db.ExecInsertIgnore(query, "learner_id, topic_id", learnerID, topicID, nextDue, true)
	if err != nil {
		return false, fmt.Errorf("failed to ensure review item: %w", err)
	}
	return created, nil
}

const reviewColumns = "id, learner_id, topic_id, stage, next_due, active, wrong_total, last_wrong_at, created_at"

func scanReviewItem(row interface{ Scan(...interface{}) error }) (*models.ReviewItem, error) {
	item := &models.ReviewItem{}
	var nextDue, lastWrongAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.LearnerID,
		&item.TopicID,
		&item.Stage,
		&nextDue,
		&item.Active,
		&item.WrongTotal,
		&lastWrongAt,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if nextDue.Valid {
		item.NextDue = &nextDue.Time
	}
	if lastWrongAt.Valid {
		item.LastWrongAt = &lastWrongAt.Time
	}
	return item, nil
}

// GetItemForTopic retrieves the learner's review item for a topic, or nil
func (r *ReviewRepository) GetItemForTopic(learnerID, topicID int64) (*models.ReviewItem, error) {
	query := "SELECT " + reviewColumns + " FROM review_items WHERE learner_id = ? AND topic_id = ?"

	item, err := scanReviewItem(r.db.QueryRow(query, learnerID, topicID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	return item, nil
}

// GetLearnerItem retrieves a review item by ID scoped to its owner, or nil
// when the item does not exist or belongs to someone else
func (r *ReviewRepository) GetLearnerItem(itemID, learnerID int64) (*models.ReviewItem, error) {
	query := "SELECT " + reviewColumns + " FROM review_items WHERE id = ? AND learner_id = ?"

	item, err := scanReviewItem(r.db.QueryRow(query, itemID, learnerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	return item, nil
}

// SaveItem writes the item's scheduling state back
func (r *ReviewRepository) SaveItem(item *models.ReviewItem) error {
	query := `
		UPDATE review_items
		SET stage = ?, next_due = ?, active = ?, wrong_total = ?, last_wrong_at = ?
		WHERE id = ?
	`

	var nextDue interface{}
	if item.NextDue != nil {
		nextDue = *item.NextDue
	}
	var lastWrongAt interface{}
	if item.LastWrongAt != nil {
		lastWrongAt = *item.LastWrongAt
	}

	_, err := r.db.Exec(query, item.Stage, nextDue, item.Active, item.WrongTotal, lastWrongAt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to save review item: %w", err)
	}
	return nil
}

// AddAttempt appends to the item's audit trail of completed reviews
func (r *ReviewRepository) AddAttempt(itemID int64, score float64, at time.Time) (*models.ReviewAttempt, error) {
	query := "INSERT INTO review_attempts (review_item_id, score, attempted_at) VALUES (?, ?, ?)"

	id, err := r.db.ExecReturningID(query, itemID, score, at)
	if err != nil {
		return nil, fmt.Errorf("failed to record review attempt: %w", err)
	}

	return &models.ReviewAttempt{
		ID:           id,
		ReviewItemID: itemID,
		Score:        score,
		AttemptedAt:  at,
	}, nil
}

// DueItems retrieves active items due at or before the given time,
// earliest first, ties broken by item ID for a stable order
func (r *ReviewRepository) DueItems(learnerID int64, until time.Time) ([]models.DueReview, error) {
	query := `
		SELECT r.id, r.learner_id, r.topic_id, r.stage, r.next_due, r.active, r.wrong_total, r.last_wrong_at, r.created_at,
		       t.title
		FROM review_items r
		JOIN topics t ON t.id = r.topic_id
		WHERE r.learner_id = ? AND r.active = ? AND r.next_due <= ?
		ORDER BY r.next_due ASC, r.id ASC
	`

	rows, err := r.db.Query(query, learnerID, true, until)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reviews: %w", err)
	}
	defer rows.Close()

	var due []models.DueReview
	for rows.Next() {
		var d models.DueReview
		var nextDue, lastWrongAt sql.NullTime

		err := rows.Scan(
			&d.ID,
			&d.LearnerID,
			&d.TopicID,
			&d.Stage,
			&nextDue,
			&d.Active,
			&d.WrongTotal,
			&lastWrongAt,
			&d.CreatedAt,
			&d.TopicTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due review: %w", err)
		}

		if nextDue.Valid {
			d.NextDue = &nextDue.Time
		}
		if lastWrongAt.Valid {
			d.LastWrongAt = &lastWrongAt.Time
		}
		due = append(due, d)
	}

	return due, rows.Err()
}
