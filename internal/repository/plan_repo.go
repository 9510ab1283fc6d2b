package repository

import (
	"database/sql"
	"fmt"

	"studypath/internal/database"
	"studypath/internal/models"
)

// PlanRepository handles daily plans and their items
type PlanRepository struct {
	db database.DBTX
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db database.DBTX) *PlanRepository {
	return &PlanRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *PlanRepository) WithTx(tx *database.Tx) *PlanRepository {
	return &PlanRepository{db: tx}
}

// CreatePlan atomically creates the (learner, date) plan if it is absent.
// Reports whether this call created it; under a race the loser sees false
// and reads the winner's plan.
func (r *PlanRepository) CreatePlan(learnerID int64, planDate string) (bool, error) {
	query := `
		INSERT INTO daily_plans (learner_id, plan_date, completion_rate, is_completed)
		VALUES (?, ?, 0, ?)
	`

	created, err := r.db.ExecInsertIgnore(query, "learner_id, plan_date", learnerID, planDate, false)
	if err != nil {
		return false, fmt.Errorf("failed to create daily plan: %w", err)
	}
	return created, nil
}

const planColumns = "id, learner_id, plan_date, completion_rate, is_completed, created_at"

func scanPlan(row interface{ Scan(...interface{}) error }) (*models.DailyPlan, error) {
	plan := &models.DailyPlan{}
	err := row.Scan(
		&plan.ID,
		&plan.LearnerID,
		&plan.PlanDate,
		&plan.CompletionRate,
		&plan.IsCompleted,
		&plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// GetPlan retrieves the learner's plan for a date, or nil if none exists
func (r *PlanRepository) GetPlan(learnerID int64, planDate string) (*models.DailyPlan, error) {
	query := "SELECT " + planColumns + " FROM daily_plans WHERE learner_id = ? AND plan_date = ?"

	plan, err := scanPlan(r.db.QueryRow(query, learnerID, planDate))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily plan: %w", err)
	}
	return plan, nil
}

// GetPlanByID retrieves a plan by its ID, or nil
func (r *PlanRepository) GetPlanByID(planID int64) (*models.DailyPlan, error) {
	query := "SELECT " + planColumns + " FROM daily_plans WHERE id = ?"

	plan, err := scanPlan(r.db.QueryRow(query, planID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily plan: %w", err)
	}
	return plan, nil
}

// AddItem appends an item to a plan at the given position
func (r *PlanRepository) AddItem(planID int64, kind, title string, topicID, reviewItemID *int64, position int) (*models.DailyPlanItem, error) {
	query := `
		INSERT INTO daily_plan_items (plan_id, kind, title, topic_id, review_item_id, position, done)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var topicArg, reviewArg interface{}
	if topicID != nil {
		topicArg = *topicID
	}
	if reviewItemID != nil {
		reviewArg = *reviewItemID
	}

	id, err := r.db.ExecReturningID(query, planID, kind, title, topicArg, reviewArg, position, false)
	if err != nil {
		return nil, fmt.Errorf("failed to add plan item: %w", err)
	}

	return &models.DailyPlanItem{
		ID:           id,
		PlanID:       planID,
		Kind:         kind,
		Title:        title,
		TopicID:      topicID,
		ReviewItemID: reviewItemID,
		Position:     position,
	}, nil
}

func scanPlanItem(row interface{ Scan(...interface{}) error }) (*models.DailyPlanItem, error) {
	item := &models.DailyPlanItem{}
	var topicID, reviewItemID sql.NullInt64

	err := row.Scan(
		&item.ID,
		&item.PlanID,
		&item.Kind,
		&item.Title,
		&topicID,
		&reviewItemID,
		&item.Position,
		&item.Done,
	)
	if err != nil {
		return nil, err
	}

	if topicID.Valid {
		item.TopicID = &topicID.Int64
	}
	if reviewItemID.Valid {
		item.ReviewItemID = &reviewItemID.Int64
	}
	return item, nil
}

const planItemColumns = "id, plan_id, kind, title, topic_id, review_item_id, position, done"

// GetPlanItems retrieves a plan's items in position order
func (r *PlanRepository) GetPlanItems(planID int64) ([]models.DailyPlanItem, error) {
	query := "SELECT " + planItemColumns + " FROM daily_plan_items WHERE plan_id = ? ORDER BY position ASC"

	rows, err := r.db.Query(query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan items: %w", err)
	}
	defer rows.Close()

	var items []models.DailyPlanItem
	for rows.Next() {
		item, err := scanPlanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan item: %w", err)
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// GetItem retrieves a plan item by ID, or nil
func (r *PlanRepository) GetItem(itemID int64) (*models.DailyPlanItem, error) {
	query := "SELECT " + planItemColumns + " FROM daily_plan_items WHERE id = ?"

	item, err := scanPlanItem(r.db.QueryRow(query, itemID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan item: %w", err)
	}
	return item, nil
}

// MarkItemDone sets an item's done flag. The transition is one-way.
func (r *PlanRepository) MarkItemDone(itemID int64) error {
	query := "UPDATE daily_plan_items SET done = ? WHERE id = ?"
	if _, err := r.db.Exec(query, true, itemID); err != nil {
		return fmt.Errorf("failed to mark plan item done: %w", err)
	}
	return nil
}

// MarkTopicItemsDone bulk-completes a plan's new-topic and mini-test items
// for a topic. Review items are excluded: a review is only satisfied by
// completing its own cycle.
func (r *PlanRepository) MarkTopicItemsDone(planID, topicID int64) error {
	query := `
		UPDATE daily_plan_items
		SET done = ?
		WHERE plan_id = ? AND topic_id = ? AND kind IN (?, ?)
	`

	_, err := r.db.Exec(query, true, planID, topicID, models.ItemKindNewTopic, models.ItemKindMiniTest)
	if err != nil {
		return fmt.Errorf("failed to mark topic items done: %w", err)
	}
	return nil
}

// ItemCounts returns how many of a plan's items are done and the total
func (r *PlanRepository) ItemCounts(planID int64) (done, total int, err error) {
	query := "SELECT COUNT(*), COALESCE(SUM(CASE WHEN done THEN 1 ELSE 0 END), 0) FROM daily_plan_items WHERE plan_id = ?"

	if err := r.db.QueryRow(query, planID).Scan(&total, &done); err != nil {
		return 0, 0, fmt.Errorf("failed to count plan items: %w", err)
	}
	return done, total, nil
}

// NextPosition returns the next unused position in a plan
func (r *PlanRepository) NextPosition(planID int64) (int, error) {
	query := "SELECT COALESCE(MAX(position), 0) + 1 FROM daily_plan_items WHERE plan_id = ?"

	var position int
	if err := r.db.QueryRow(query, planID).Scan(&position); err != nil {
		return 0, fmt.Errorf("failed to get next plan position: %w", err)
	}
	return position, nil
}

// UpdateCompletion writes the recomputed aggregate completion state
func (r *PlanRepository) UpdateCompletion(planID int64, completionRate int, isCompleted bool) error {
	query := "UPDATE daily_plans SET completion_rate = ?, is_completed = ? WHERE id = ?"
	if _, err := r.db.Exec(query, completionRate, isCompleted, planID); err != nil {
		return fmt.Errorf("failed to update plan completion: %w", err)
	}
	return nil
}
