package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"studypath/internal/models"
	"studypath/internal/repository"
	"studypath/internal/service"
)

// StudyHandler serves the scheduler's JSON API
type StudyHandler struct {
	mastery      *service.MasteryService
	reviews      *service.ReviewService
	plans        *service.PlanService
	engagement   *service.EngagementService
	topicRepo    *repository.TopicRepository
	progressRepo *repository.ProgressRepository
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(mastery *service.MasteryService, reviews *service.ReviewService, plans *service.PlanService, engagement *service.EngagementService, topicRepo *repository.TopicRepository, progressRepo *repository.ProgressRepository) *StudyHandler {
	return &StudyHandler{
		mastery:      mastery,
		reviews:      reviews,
		plans:        plans,
		engagement:   engagement,
		topicRepo:    topicRepo,
		progressRepo: progressRepo,
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// TopicsTree handles GET /api/topics/tree
func (h *StudyHandler) TopicsTree(w http.ResponseWriter, r *http.Request) {
	grade, _ := strconv.Atoi(r.URL.Query().Get("grade"))
	subject := r.URL.Query().Get("subject")

	topics, err := h.topicRepo.ListTopics(grade, subject)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list topics")
		return
	}

	respondData(w, models.BuildTopicTree(topics))
}

// TopicDetail handles GET /api/topics/{topicID}
func (h *StudyHandler) TopicDetail(w http.ResponseWriter, r *http.Request) {
	topicID, ok := pathID(r, "topicID")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "invalid topic id")
		return
	}

	topic, err := h.topicRepo.GetTopicByID(topicID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get topic")
		return
	}
	if topic == nil {
		respondFailure(w, http.StatusNotFound, "not found")
		return
	}

	questions, err := h.topicRepo.GetTopicQuestions(topicID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get questions")
		return
	}

	progress, err := h.progressRepo.GetProgress(LearnerFrom(r).ID, topicID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get progress")
		return
	}

	respondData(w, topicDetailView{
		Topic:     topicView{ID: topic.ID, Title: topic.Title},
		Questions: newQuestionViews(questions),
		Progress:  newProgressView(progress),
	})
}

// VideoProgress handles POST /api/topics/{topicID}/video-progress
func (h *StudyHandler) VideoProgress(w http.ResponseWriter, r *http.Request) {
	topicID, ok := pathID(r, "topicID")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "invalid topic id")
		return
	}

	var body struct {
		Progress json.Number `json:"progress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Out-of-range values are clamped downstream; only a non-numeric
	// progress is rejected.
	progress, err := strconv.Atoi(body.Progress.String())
	if err != nil {
		respondFailure(w, http.StatusBadRequest, "progress must be an integer")
		return
	}

	result, err := h.mastery.RecordWatchProgress(LearnerFrom(r).ID, topicID, progress)
	if err != nil {
		respondServiceError(w, r, err, "Failed to record watch progress")
		return
	}

	respondData(w, progressView{
		WatchProgress: result.WatchProgress,
		WatchComplete: result.WatchComplete,
		TestScore:     result.TestScore,
		Mastered:      result.Mastered,
	})
}

// TestSubmit handles POST /api/topics/{topicID}/test
func (h *StudyHandler) TestSubmit(w http.ResponseWriter, r *http.Request) {
	topicID, ok := pathID(r, "topicID")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "invalid topic id")
		return
	}

	var body struct {
		Answers []struct {
			QuestionID int64  `json:"question_id"`
			Answer     string `json:"answer"`
		} `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answers := make([]service.Answer, 0, len(body.Answers))
	for _, a := range body.Answers {
		answers = append(answers, service.Answer{QuestionID: a.QuestionID, Answer: a.Answer})
	}

	result, err := h.mastery.RecordTestSubmission(LearnerFrom(r).ID, topicID, answers)
	if err != nil {
		respondServiceError(w, r, err, "Failed to grade test submission")
		return
	}

	respondData(w, map[string]interface{}{
		"score":    result.Score,
		"total":    result.Total,
		"correct":  result.Correct,
		"wrong":    result.Wrong,
		"mastered": result.Mastered,
	})
}

// MyReviews handles GET /api/me/reviews
func (h *StudyHandler) MyReviews(w http.ResponseWriter, r *http.Request) {
	due, err := h.reviews.DueItems(LearnerFrom(r).ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list due reviews")
		return
	}

	respondData(w, newDueReviewViews(due))
}

// ReviewDone handles POST /api/reviews/{reviewID}/done
func (h *StudyHandler) ReviewDone(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := pathID(r, "reviewID")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "invalid review id")
		return
	}

	var body struct {
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.reviews.CompleteReview(reviewID, LearnerFrom(r).ID, body.Score)
	if err != nil {
		respondServiceError(w, r, err, "Failed to complete review")
		return
	}

	respondData(w, reviewStateView{
		Active:  item.Active,
		Stage:   item.Stage,
		NextDue: item.NextDue,
	})
}

// MyPlan handles GET /api/me/plan
func (h *StudyHandler) MyPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.plans.GetOrBuildPlan(LearnerFrom(r).ID, r.URL.Query().Get("date"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get daily plan")
		return
	}

	respondData(w, newPlanView(plan))
}

// PlanItemDone handles POST /api/plan/items/{itemID}/done
func (h *StudyHandler) PlanItemDone(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "itemID")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "invalid item id")
		return
	}

	result, err := h.plans.MarkItemDone(itemID, LearnerFrom(r).ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to mark plan item done")
		return
	}

	respondData(w, map[string]interface{}{
		"completion_rate": result.CompletionRate,
		"is_completed":    result.IsCompleted,
	})
}

// PlanAssign handles POST /api/plan/items (staff only)
func (h *StudyHandler) PlanAssign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LearnerID int64  `json:"learner_id"`
		Date      string `json:"date"`
		Kind      string `json:"kind"`
		Title     string `json:"title"`
		TopicID   *int64 `json:"topic_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.LearnerID <= 0 {
		respondFailure(w, http.StatusBadRequest, "learner_id is required")
		return
	}

	item, err := h.plans.AppendItem(body.LearnerID, body.Date, body.Kind, body.Title, body.TopicID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to assign plan item")
		return
	}

	respondData(w, planItemView{
		ID:       item.ID,
		Kind:     item.Kind,
		Title:    item.Title,
		TopicID:  item.TopicID,
		Position: item.Position,
		Done:     item.Done,
	})
}

// MyStats handles GET /api/me/stats
func (h *StudyHandler) MyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engagement.Stats(LearnerFrom(r).ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get engagement stats")
		return
	}

	respondData(w, map[string]interface{}{
		"xp":     stats.XP,
		"streak": stats.Streak,
	})
}
