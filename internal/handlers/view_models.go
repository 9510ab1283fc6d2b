package handlers

import (
	"time"

	"studypath/internal/models"
)

// questionView hides the correct letter from learners
type questionView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	A    string `json:"a"`
	B    string `json:"b"`
	C    string `json:"c"`
	D    string `json:"d"`
}

type progressView struct {
	WatchProgress int     `json:"watch_progress"`
	WatchComplete bool    `json:"watch_complete"`
	TestScore     float64 `json:"test_score"`
	Mastered      bool    `json:"mastered"`
}

type topicDetailView struct {
	Topic     topicView      `json:"topic"`
	Questions []questionView `json:"questions"`
	Progress  *progressView  `json:"progress"`
}

type topicView struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type dueReviewView struct {
	ID         int64      `json:"id"`
	TopicID    int64      `json:"topic_id"`
	TopicTitle string     `json:"topic_title"`
	Stage      int        `json:"stage"`
	NextDue    *time.Time `json:"next_due"`
	WrongTotal int        `json:"wrong_total"`
}

type reviewStateView struct {
	Active  bool       `json:"active"`
	Stage   int        `json:"stage"`
	NextDue *time.Time `json:"next_due"`
}

type planItemView struct {
	ID       int64  `json:"id"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	TopicID  *int64 `json:"topic_id"`
	Position int    `json:"position"`
	Done     bool   `json:"done"`
}

type planView struct {
	Date           string         `json:"date"`
	CompletionRate int            `json:"completion_rate"`
	IsCompleted    bool           `json:"is_completed"`
	Items          []planItemView `json:"items"`
}

func newProgressView(p *models.TopicProgress) *progressView {
	if p == nil {
		return nil
	}
	return &progressView{
		WatchProgress: p.WatchProgress,
		WatchComplete: p.WatchComplete,
		TestScore:     p.TestScore,
		Mastered:      p.Mastered,
	}
}

func newQuestionViews(questions []models.TopicQuestion) []questionView {
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{
			ID:   q.ID,
			Text: q.Text,
			A:    q.ChoiceA,
			B:    q.ChoiceB,
			C:    q.ChoiceC,
			D:    q.ChoiceD,
		})
	}
	return views
}

func newDueReviewViews(due []models.DueReview) []dueReviewView {
	views := make([]dueReviewView, 0, len(due))
	for _, d := range due {
		views = append(views, dueReviewView{
			ID:         d.ID,
			TopicID:    d.TopicID,
			TopicTitle: d.TopicTitle,
			Stage:      d.Stage,
			NextDue:    d.NextDue,
			WrongTotal: d.WrongTotal,
		})
	}
	return views
}

func newPlanView(plan *models.PlanWithItems) planView {
	items := make([]planItemView, 0, len(plan.Items))
	for _, item := range plan.Items {
		items = append(items, planItemView{
			ID:       item.ID,
			Kind:     item.Kind,
			Title:    item.Title,
			TopicID:  item.TopicID,
			Position: item.Position,
			Done:     item.Done,
		})
	}
	return planView{
		Date:           plan.Plan.PlanDate,
		CompletionRate: plan.Plan.CompletionRate,
		IsCompleted:    plan.Plan.IsCompleted,
		Items:          items,
	}
}
