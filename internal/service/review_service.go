package service

import (
	"fmt"
	"time"

	"studypath/internal/database"
	"studypath/internal/models"
	"studypath/internal/repository"
)

// reviewSchedule maps a review item's stage to the number of days until
// its next due time. An item advancing past the last entry is retired.
// The schedule is deliberately small and fixed: predictability over
// optimality is the product requirement.
var reviewSchedule = []int{1, 3, 7, 14}

// dueHorizon is the lookahead window for listing due reviews
const dueHorizon = 24 * time.Hour

// ReviewService runs the spaced-repetition scheduler
type ReviewService struct {
	db         *database.DB
	reviewRepo *repository.ReviewRepository
	now        func() time.Time
}

// NewReviewService creates a new review service
func NewReviewService(db *database.DB, reviewRepo *repository.ReviewRepository) *ReviewService {
	return &ReviewService{
		db:         db,
		reviewRepo: reviewRepo,
		now:        time.Now,
	}
}

// RegisterWrong records wrong answers for a topic, creating or reviving
// the learner's review item. A fresh, stage-0 or retired item restarts at
// stage 0 due tomorrow; a mid-schedule item is never regressed, its due
// time is only pulled forward. A wrong answer accelerates but never delays
// the next review.
func (s *ReviewService) RegisterWrong(learnerID, topicID int64, wrongCount int) error {
	if wrongCount <= 0 {
		return nil
	}

	now := s.now()
	due := now.Add(24 * time.Hour)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repo := s.reviewRepo.WithTx(tx)

	created, err := repo.EnsureItem(learnerID, topicID, due)
	if err != nil {
		return err
	}

	item, err := repo.GetItemForTopic(learnerID, topicID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("review item missing after ensure for learner %d topic %d", learnerID, topicID)
	}

	if created || item.Stage == 0 || !item.Active {
		item.Stage = 0
		item.NextDue = &due
	} else if item.NextDue == nil || due.Before(*item.NextDue) {
		item.NextDue = &due
	}

	item.Active = true
	item.WrongTotal += wrongCount
	item.LastWrongAt = &now

	if err := repo.SaveItem(item); err != nil {
		return err
	}

	return tx.Commit()
}

// CompleteReview records a finished review and advances the item one
// stage, retiring it past the end of the schedule. Returns ErrNotFound for
// a missing, foreign or inactive item.
func (s *ReviewService) CompleteReview(itemID, learnerID int64, score float64) (*models.ReviewItem, error) {
	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repo := s.reviewRepo.WithTx(tx)

	item, err := repo.GetLearnerItem(itemID, learnerID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Active {
		return nil, ErrNotFound
	}

	if _, err := repo.AddAttempt(item.ID, score, now); err != nil {
		return nil, err
	}

	item.Stage++
	if item.Stage >= len(reviewSchedule) {
		item.Active = false
		item.NextDue = nil
	} else {
		due := now.AddDate(0, 0, reviewSchedule[item.Stage])
		item.NextDue = &due
	}

	if err := repo.SaveItem(item); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

// DueItems lists the learner's active reviews due within the lookahead
// horizon, earliest first
func (s *ReviewService) DueItems(learnerID int64) ([]models.DueReview, error) {
	until := s.now().Add(dueHorizon)
	return retryRead(func() ([]models.DueReview, error) {
		return s.reviewRepo.DueItems(learnerID, until)
	})
}
