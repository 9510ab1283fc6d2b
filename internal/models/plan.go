package models

import "time"

// PlanDateFormat is how calendar dates are stored and exchanged
const PlanDateFormat = "2006-01-02"

// Plan item kinds
const (
	ItemKindReview   = "review"
	ItemKindNewTopic = "new_topic"
	ItemKindMiniTest = "mini_test"
	ItemKindCustom   = "custom"
)

// ValidItemKind reports whether a kind is one of the known plan item kinds
func ValidItemKind(kind string) bool {
	switch kind {
	case ItemKindReview, ItemKindNewTopic, ItemKindMiniTest, ItemKindCustom:
		return true
	}
	return false
}

// itemKindLabels are the title prefixes used when no title is supplied
var itemKindLabels = map[string]string{
	ItemKindReview:   "Review",
	ItemKindNewTopic: "New Topic",
	ItemKindMiniTest: "Mini Test",
	ItemKindCustom:   "Task",
}

// DefaultItemTitle builds a plan item title from its kind and, when one is
// attached, the topic title
func DefaultItemTitle(kind, topicTitle string) string {
	label, ok := itemKindLabels[kind]
	if !ok {
		label = "Task"
	}
	if topicTitle == "" {
		return label
	}
	return label + ": " + topicTitle
}

// DailyPlan is one learner's task list for one calendar date. There is
// exactly one plan per (learner, date) and its item set is fixed once
// built; only completion state changes afterwards.
type DailyPlan struct {
	ID             int64
	LearnerID      int64
	PlanDate       string
	CompletionRate int
	IsCompleted    bool
	CreatedAt      time.Time
}

// DailyPlanItem is one schedulable unit of a plan, ordered by Position.
// Done only ever moves false to true.
type DailyPlanItem struct {
	ID           int64
	PlanID       int64
	Kind         string
	Title        string
	TopicID      *int64
	ReviewItemID *int64
	Position     int
	Done         bool
}

// PlanWithItems bundles a plan with its ordered items
type PlanWithItems struct {
	Plan  DailyPlan
	Items []DailyPlanItem
}

// CompletionRate computes the percentage of done items, rounded down.
// An empty plan is 0%, never 100%, so it cannot signal a completed day.
func CompletionRate(done, total int) int {
	if total == 0 {
		return 0
	}
	return done * 100 / total
}
