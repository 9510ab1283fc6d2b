package service

import (
	"path/filepath"
	"testing"
	"time"

	"studypath/internal/database"
	"studypath/internal/repository"
)

// testEnv wires the full service graph over a throwaway SQLite database
type testEnv struct {
	db         *database.DB
	topicRepo  *repository.TopicRepository
	reviewRepo *repository.ReviewRepository
	planRepo   *repository.PlanRepository
	mastery    *MasteryService
	reviews    *ReviewService
	plans      *PlanService
	engagement *EngagementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	topicRepo := repository.NewTopicRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	planRepo := repository.NewPlanRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	engagement := NewEngagementService(db, statsRepo, time.UTC)
	plans := NewPlanService(db, planRepo, topicRepo, reviewRepo, engagement, time.UTC)
	reviews := NewReviewService(db, reviewRepo)
	mastery := NewMasteryService(db, progressRepo, topicRepo, reviews, plans)

	return &testEnv{
		db:         db,
		topicRepo:  topicRepo,
		reviewRepo: reviewRepo,
		planRepo:   planRepo,
		mastery:    mastery,
		reviews:    reviews,
		plans:      plans,
		engagement: engagement,
	}
}

// setNow pins every clock in the service graph to a fixed time
func (e *testEnv) setNow(now time.Time) {
	e.reviews.now = func() time.Time { return now }
	e.plans.now = func() time.Time { return now }
	e.engagement.now = func() time.Time { return now }
}

func (e *testEnv) seedTopic(t *testing.T, title string, position int) int64 {
	t.Helper()
	id, err := e.db.ExecReturningID(
		"INSERT INTO topics (grade, subject, title, position) VALUES (?, ?, ?, ?)",
		5, "Math", title, position,
	)
	if err != nil {
		t.Fatalf("Failed to seed topic: %v", err)
	}
	return id
}

func (e *testEnv) seedQuestion(t *testing.T, topicID int64, text, correct string, position int) int64 {
	t.Helper()
	id, err := e.db.ExecReturningID(
		"INSERT INTO topic_questions (topic_id, text, choice_a, choice_b, choice_c, choice_d, correct, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		topicID, text, "alpha", "beta", "gamma", "delta", correct, position,
	)
	if err != nil {
		t.Fatalf("Failed to seed question: %v", err)
	}
	return id
}

// masterTopic drives a learner to mastery through the public operations
func (e *testEnv) masterTopic(t *testing.T, learnerID, topicID, questionID int64, correct string) {
	t.Helper()
	if _, err := e.mastery.RecordWatchProgress(learnerID, topicID, 100); err != nil {
		t.Fatalf("Failed to record watch progress: %v", err)
	}
	result, err := e.mastery.RecordTestSubmission(learnerID, topicID, []Answer{{QuestionID: questionID, Answer: correct}})
	if err != nil {
		t.Fatalf("Failed to submit test: %v", err)
	}
	if !result.Mastered {
		t.Fatalf("expected topic %d to be mastered", topicID)
	}
}
