package service

import (
	"fmt"
	"strings"

	"studypath/internal/database"
	"studypath/internal/models"
	"studypath/internal/repository"
)

// MasteryObserver is notified when a learner masters a topic, so today's
// plan can be synced. Wiring it as an explicit interface keeps the mastery
// tracker and the plan compositor independently testable.
type MasteryObserver interface {
	TopicMastered(learnerID, topicID int64) error
}

// WrongAnswerSink receives wrong-answer counts from graded tests
type WrongAnswerSink interface {
	RegisterWrong(learnerID, topicID int64, wrongCount int) error
}

// Answer is one submitted answer in a test submission
type Answer struct {
	QuestionID int64
	Answer     string
}

// MasteryService tracks per-topic watch progress and test scores and
// derives the mastered flag
type MasteryService struct {
	db           *database.DB
	progressRepo *repository.ProgressRepository
	topicRepo    *repository.TopicRepository
	reviews      WrongAnswerSink
	observer     MasteryObserver
}

// NewMasteryService creates a new mastery service
func NewMasteryService(db *database.DB, progressRepo *repository.ProgressRepository, topicRepo *repository.TopicRepository, reviews WrongAnswerSink, observer MasteryObserver) *MasteryService {
	return &MasteryService{
		db:           db,
		progressRepo: progressRepo,
		topicRepo:    topicRepo,
		reviews:      reviews,
		observer:     observer,
	}
}

// RecordWatchProgress stores a clamped watch percentage and recomputes the
// derived flags. A false-to-true mastered transition syncs today's plan.
func (s *MasteryService) RecordWatchProgress(learnerID, topicID int64, progress int) (*models.TopicProgress, error) {
	topic, err := s.topicRepo.GetTopicByID(topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, ErrNotFound
	}

	progressRow, becameMastered, err := s.updateProgress(learnerID, topicID, func(p *models.TopicProgress) {
		p.SetWatchProgress(progress)
	})
	if err != nil {
		return nil, err
	}

	if becameMastered {
		if err := s.observer.TopicMastered(learnerID, topicID); err != nil {
			return nil, fmt.Errorf("failed to sync plan after mastery: %w", err)
		}
	}

	return progressRow, nil
}

// RecordTestSubmission grades a submission against the topic's question
// bank and stores the score. Grading is case and whitespace insensitive.
// Question IDs not in the bank are silently ignored; only known questions
// count toward the total. The latest submission always wins. Wrong answers
// feed the review scheduler; a mastered transition syncs today's plan.
func (s *MasteryService) RecordTestSubmission(learnerID, topicID int64, answers []Answer) (*models.TestResult, error) {
	if len(answers) == 0 {
		return nil, NewValidationError("answers must not be empty")
	}

	topic, err := s.topicRepo.GetTopicByID(topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, ErrNotFound
	}

	correctMap, err := s.topicRepo.CorrectAnswers(topicID)
	if err != nil {
		return nil, err
	}

	total, correct := 0, 0
	for _, a := range answers {
		want, known := correctMap[a.QuestionID]
		if !known {
			continue
		}
		total++
		if normalizeAnswer(a.Answer) == normalizeAnswer(want) {
			correct++
		}
	}

	var score float64
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}
	wrong := total - correct

	progressRow, becameMastered, err := s.updateProgress(learnerID, topicID, func(p *models.TopicProgress) {
		p.SetTestScore(score)
	})
	if err != nil {
		return nil, err
	}

	if wrong > 0 {
		if err := s.reviews.RegisterWrong(learnerID, topicID, wrong); err != nil {
			return nil, fmt.Errorf("failed to schedule review: %w", err)
		}
	}

	if becameMastered {
		if err := s.observer.TopicMastered(learnerID, topicID); err != nil {
			return nil, fmt.Errorf("failed to sync plan after mastery: %w", err)
		}
	}

	return &models.TestResult{
		Score:    score,
		Total:    total,
		Correct:  correct,
		Wrong:    wrong,
		Mastered: progressRow.Mastered,
	}, nil
}

// updateProgress applies a mutation to the (learner, topic) progress row
// inside one transaction and reports whether mastered flipped true
func (s *MasteryService) updateProgress(learnerID, topicID int64, mutate func(*models.TopicProgress)) (*models.TopicProgress, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repo := s.progressRepo.WithTx(tx)

	if _, err := repo.EnsureProgress(learnerID, topicID); err != nil {
		return nil, false, err
	}

	p, err := repo.GetProgress(learnerID, topicID)
	if err != nil {
		return nil, false, err
	}
	if p == nil {
		return nil, false, fmt.Errorf("progress missing after ensure for learner %d topic %d", learnerID, topicID)
	}

	masteredBefore := p.Mastered
	mutate(p)

	if err := repo.SaveProgress(p); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	return p, p.Mastered && !masteredBefore, nil
}

func normalizeAnswer(answer string) string {
	return strings.ToUpper(strings.TrimSpace(answer))
}
