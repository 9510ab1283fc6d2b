package models

// XP awards
const (
	XPPerItem = 10
	XPPerDay  = 50
)

// LearnerStats is a learner's engagement ledger: accumulated XP and the
// count of consecutive fully-completed days. LastStreakDate is a
// PlanDateFormat date, empty until the first completed day.
type LearnerStats struct {
	LearnerID      int64
	XP             int
	Streak         int
	LastStreakDate string
}

// ApplyDayCompleted advances the streak for a day reaching 100%. A day
// immediately after the previous streak date extends the streak; anything
// else, including the very first completed day, starts it at 1.
func (s *LearnerStats) ApplyDayCompleted(today, yesterday string) {
	if s.LastStreakDate == yesterday {
		s.Streak++
	} else {
		s.Streak = 1
	}
	s.LastStreakDate = today
	s.XP += XPPerDay
}
