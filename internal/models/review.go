package models

import "time"

// ReviewItem is one learner's spaced-repetition slot for a topic. Stage
// indexes the fixed interval schedule; an item past the end of the
// schedule is retired (Active=false) until a new wrong answer revives it.
type ReviewItem struct {
	ID          int64
	LearnerID   int64
	TopicID     int64
	Stage       int
	NextDue     *time.Time
	Active      bool
	WrongTotal  int
	LastWrongAt *time.Time
	CreatedAt   time.Time
}

// ReviewAttempt is an append-only record of one completed review
type ReviewAttempt struct {
	ID           int64
	ReviewItemID int64
	Score        float64
	AttemptedAt  time.Time
}

// DueReview is a review item joined with its topic title for listing
type DueReview struct {
	ReviewItem
	TopicTitle string
}
