package service

import (
	"fmt"
	"time"

	"studypath/internal/database"
	"studypath/internal/models"
	"studypath/internal/repository"
)

// Awarder receives completion events for XP and streak accrual. It is
// best-effort: implementations report a status instead of failing the
// caller's operation.
type Awarder interface {
	Award(learnerID int64, itemCompleted, planCompleted bool) AwardStatus
}

// MarkItemResult is the outcome of marking a plan item done
type MarkItemResult struct {
	CompletionRate int
	IsCompleted    bool
	Engagement     AwardStatus
}

// PlanService composes and maintains each learner's daily task list
type PlanService struct {
	db         *database.DB
	planRepo   *repository.PlanRepository
	topicRepo  *repository.TopicRepository
	reviewRepo *repository.ReviewRepository
	awarder    Awarder
	now        func() time.Time
	location   *time.Location
}

// NewPlanService creates a new plan service
func NewPlanService(db *database.DB, planRepo *repository.PlanRepository, topicRepo *repository.TopicRepository, reviewRepo *repository.ReviewRepository, awarder Awarder, location *time.Location) *PlanService {
	if location == nil {
		location = time.Local
	}
	return &PlanService{
		db:         db,
		planRepo:   planRepo,
		topicRepo:  topicRepo,
		reviewRepo: reviewRepo,
		awarder:    awarder,
		now:        time.Now,
		location:   location,
	}
}

func (s *PlanService) today() string {
	return s.now().In(s.location).Format(models.PlanDateFormat)
}

// GetOrBuildPlan returns the learner's plan for a date, building it first
// if none exists. Building is exactly-once per (learner, date): the plan
// row's unique key plus the create-if-absent insert make one caller the
// builder, and every other concurrent caller reads the builder's plan.
// An empty date means today.
func (s *PlanService) GetOrBuildPlan(learnerID int64, date string) (*models.PlanWithItems, error) {
	if date == "" {
		date = s.today()
	}

	dayStart, err := time.ParseInLocation(models.PlanDateFormat, date, s.location)
	if err != nil {
		return nil, NewValidationError("date must be formatted YYYY-MM-DD")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	planRepo := s.planRepo.WithTx(tx)

	created, err := planRepo.CreatePlan(learnerID, date)
	if err != nil {
		return nil, err
	}

	plan, err := planRepo.GetPlan(learnerID, date)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("plan missing after create for learner %d on %s", learnerID, date)
	}

	if created {
		if err := s.buildItems(tx, plan, dayStart); err != nil {
			return nil, err
		}
	}

	items, err := planRepo.GetPlanItems(plan.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.PlanWithItems{Plan: *plan, Items: items}, nil
}

// buildItems fills a fresh plan: due reviews in due order, then the next
// unmastered topic, then that topic's paired mini test. Nothing is added
// for a category with nothing to add; a fully caught-up learner gets an
// empty plan.
func (s *PlanService) buildItems(tx *database.Tx, plan *models.DailyPlan, dayStart time.Time) error {
	planRepo := s.planRepo.WithTx(tx)
	position := 1

	dayEnd := dayStart.Add(24 * time.Hour)
	due, err := s.reviewRepo.WithTx(tx).DueItems(plan.LearnerID, dayEnd)
	if err != nil {
		return err
	}

	for _, review := range due {
		topicID := review.TopicID
		reviewItemID := review.ID
		title := models.DefaultItemTitle(models.ItemKindReview, review.TopicTitle)
		if _, err := planRepo.AddItem(plan.ID, models.ItemKindReview, title, &topicID, &reviewItemID, position); err != nil {
			return err
		}
		position++
	}

	topic, err := s.topicRepo.WithTx(tx).FirstUnmasteredTopic(plan.LearnerID)
	if err != nil {
		return err
	}
	if topic == nil {
		return nil
	}

	title := models.DefaultItemTitle(models.ItemKindNewTopic, topic.Title)
	if _, err := planRepo.AddItem(plan.ID, models.ItemKindNewTopic, title, &topic.ID, nil, position); err != nil {
		return err
	}
	position++

	title = models.DefaultItemTitle(models.ItemKindMiniTest, topic.Title)
	if _, err := planRepo.AddItem(plan.ID, models.ItemKindMiniTest, title, &topic.ID, nil, position); err != nil {
		return err
	}

	return nil
}

// MarkItemDone completes a plan item and recomputes the plan's aggregate
// state under one transaction. Re-marking a done item is a no-op, not an
// error. A transition forwards to the engagement awarder, which never
// fails this call.
func (s *PlanService) MarkItemDone(itemID, learnerID int64) (*MarkItemResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	planRepo := s.planRepo.WithTx(tx)

	item, err := planRepo.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	plan, err := planRepo.GetPlanByID(item.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrNotFound
	}
	if plan.LearnerID != learnerID {
		return nil, ErrForbidden
	}

	transitioned := !item.Done
	if transitioned {
		if err := planRepo.MarkItemDone(item.ID); err != nil {
			return nil, err
		}
	}

	rate, isCompleted, err := recalcPlan(planRepo, plan.ID)
	if err != nil {
		return nil, err
	}
	planJustCompleted := isCompleted && !plan.IsCompleted

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	result := &MarkItemResult{
		CompletionRate: rate,
		IsCompleted:    isCompleted,
		Engagement:     AwardApplied,
	}
	if transitioned {
		result.Engagement = s.awarder.Award(learnerID, true, planJustCompleted)
	}

	return result, nil
}

// TopicMastered implements MasteryObserver by syncing today's plan
func (s *PlanService) TopicMastered(learnerID, topicID int64) error {
	return s.MarkTopicDoneToday(learnerID, topicID)
}

// MarkTopicDoneToday bulk-completes today's new-topic and mini-test items
// for a mastered topic, then recomputes the plan's aggregate state. Review
// items are untouched. No-op when no plan exists for today.
func (s *PlanService) MarkTopicDoneToday(learnerID, topicID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	planRepo := s.planRepo.WithTx(tx)

	plan, err := planRepo.GetPlan(learnerID, s.today())
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	if err := planRepo.MarkTopicItemsDone(plan.ID, topicID); err != nil {
		return err
	}

	if _, _, err := recalcPlan(planRepo, plan.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// AppendItem adds an externally assigned item to a learner's plan for a
// date, building the plan first when it does not exist yet. An empty
// title is filled in from the kind and topic.
func (s *PlanService) AppendItem(learnerID int64, date, kind, title string, topicID *int64) (*models.DailyPlanItem, error) {
	if !models.ValidItemKind(kind) {
		return nil, NewValidationError("unknown plan item kind: " + kind)
	}

	topicTitle := ""
	if topicID != nil {
		topic, err := s.topicRepo.GetTopicByID(*topicID)
		if err != nil {
			return nil, err
		}
		if topic == nil {
			return nil, ErrNotFound
		}
		topicTitle = topic.Title
	}

	if title == "" {
		title = models.DefaultItemTitle(kind, topicTitle)
	}

	planWithItems, err := s.GetOrBuildPlan(learnerID, date)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	planRepo := s.planRepo.WithTx(tx)

	position, err := planRepo.NextPosition(planWithItems.Plan.ID)
	if err != nil {
		return nil, err
	}

	item, err := planRepo.AddItem(planWithItems.Plan.ID, kind, title, topicID, nil, position)
	if err != nil {
		return nil, err
	}

	if _, _, err := recalcPlan(planRepo, planWithItems.Plan.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

// recalcPlan recomputes and stores a plan's completion rate and flag from
// its item states
func recalcPlan(planRepo *repository.PlanRepository, planID int64) (int, bool, error) {
	done, total, err := planRepo.ItemCounts(planID)
	if err != nil {
		return 0, false, err
	}

	rate := models.CompletionRate(done, total)
	isCompleted := rate == 100

	if err := planRepo.UpdateCompletion(planID, rate, isCompleted); err != nil {
		return 0, false, err
	}
	return rate, isCompleted, nil
}
