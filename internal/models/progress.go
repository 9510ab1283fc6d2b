package models

import "time"

const (
	// WatchCompleteThreshold is the watch percentage at which a topic's
	// video counts as watched
	WatchCompleteThreshold = 80

	// MasteryScoreThreshold is the minimum test score for mastery
	MasteryScoreThreshold = 70.0
)

// TopicProgress tracks one learner's state on one topic: how much of the
// video they have watched and their latest test score. Mastered is
// monotonic; this subsystem never clears it.
type TopicProgress struct {
	ID            int64
	LearnerID     int64
	TopicID       int64
	WatchProgress int
	WatchComplete bool
	TestScore     float64
	Mastered      bool
	UpdatedAt     time.Time
}

// ClampWatchProgress limits a raw progress value to [0,100]
func ClampWatchProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// SetWatchProgress applies a clamped progress value and recomputes the
// derived flags
func (p *TopicProgress) SetWatchProgress(progress int) {
	p.WatchProgress = ClampWatchProgress(progress)
	p.WatchComplete = p.WatchProgress >= WatchCompleteThreshold
	p.RecomputeMastered()
}

// SetTestScore records the latest submission's score. Last submission
// wins; there is no keep-best policy.
func (p *TopicProgress) SetTestScore(score float64) {
	p.TestScore = score
	p.RecomputeMastered()
}

// RecomputeMastered derives the mastered flag. Once true it stays true.
func (p *TopicProgress) RecomputeMastered() {
	if p.WatchComplete && p.TestScore >= MasteryScoreThreshold {
		p.Mastered = true
	}
}

// TestResult summarizes one graded test submission
type TestResult struct {
	Score    float64
	Total    int
	Correct  int
	Wrong    int
	Mastered bool
}
