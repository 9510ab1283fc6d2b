package service

import (
	"fmt"
	"log"
	"time"

	"studypath/internal/database"
	"studypath/internal/models"
	"studypath/internal/repository"
)

// AwardStatus reports whether an engagement award was applied or degraded.
// Degraded awards are logged, never surfaced: gamification is best-effort
// and must not block the study flow.
type AwardStatus int

const (
	AwardApplied AwardStatus = iota
	AwardDegraded
)

func (s AwardStatus) String() string {
	if s == AwardDegraded {
		return "degraded"
	}
	return "applied"
}

// EngagementService maintains XP and streak counters
type EngagementService struct {
	db        *database.DB
	statsRepo *repository.StatsRepository
	now       func() time.Time
	location  *time.Location
}

// NewEngagementService creates a new engagement service
func NewEngagementService(db *database.DB, statsRepo *repository.StatsRepository, location *time.Location) *EngagementService {
	if location == nil {
		location = time.Local
	}
	return &EngagementService{
		db:        db,
		statsRepo: statsRepo,
		now:       time.Now,
		location:  location,
	}
}

// Award credits a completed item and, when the day just reached 100%, the
// daily bonus and streak. Storage failures degrade instead of propagating.
func (s *EngagementService) Award(learnerID int64, itemCompleted, planCompleted bool) AwardStatus {
	if err := s.award(learnerID, itemCompleted, planCompleted); err != nil {
		log.Printf("Engagement award degraded for learner %d: %v", learnerID, err)
		return AwardDegraded
	}
	return AwardApplied
}

func (s *EngagementService) award(learnerID int64, itemCompleted, planCompleted bool) error {
	if !itemCompleted && !planCompleted {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repo := s.statsRepo.WithTx(tx)

	if err := repo.EnsureStats(learnerID); err != nil {
		return err
	}

	stats, err := repo.GetStats(learnerID)
	if err != nil {
		return err
	}
	if stats == nil {
		return fmt.Errorf("stats missing after ensure for learner %d", learnerID)
	}

	if itemCompleted {
		stats.XP += models.XPPerItem
	}

	if planCompleted {
		now := s.now().In(s.location)
		today := now.Format(models.PlanDateFormat)
		yesterday := now.AddDate(0, 0, -1).Format(models.PlanDateFormat)
		stats.ApplyDayCompleted(today, yesterday)
	}

	if err := repo.SaveStats(stats); err != nil {
		return err
	}

	return tx.Commit()
}

// Stats returns the learner's XP and streak, zeros when nothing has been
// awarded yet
func (s *EngagementService) Stats(learnerID int64) (*models.LearnerStats, error) {
	stats, err := retryRead(func() (*models.LearnerStats, error) {
		return s.statsRepo.GetStats(learnerID)
	})
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &models.LearnerStats{LearnerID: learnerID}
	}
	return stats, nil
}
