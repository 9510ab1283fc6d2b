package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"studypath/internal/database"
	"studypath/internal/models"
)

// TopicRepository reads the topic catalog. The catalog is owned by the
// surrounding platform; this subsystem never mutates it.
type TopicRepository struct {
	db database.DBTX
}

// NewTopicRepository creates a new topic repository
func NewTopicRepository(db database.DBTX) *TopicRepository {
	return &TopicRepository{db: db}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *TopicRepository) WithTx(tx *database.Tx) *TopicRepository {
	return &TopicRepository{db: tx}
}

const topicColumns = "id, grade, subject, parent_id, title, position"

func scanTopic(row interface{ Scan(...interface{}) error }) (*models.Topic, error) {
	topic := &models.Topic{}
	var parentID sql.NullInt64
	err := row.Scan(&topic.ID, &topic.Grade, &topic.Subject, &parentID, &topic.Title, &topic.Position)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		topic.ParentID = &parentID.Int64
	}
	return topic, nil
}

// GetTopicByID retrieves a topic, or nil if it does not exist
func (r *TopicRepository) GetTopicByID(topicID int64) (*models.Topic, error) {
	query := "SELECT " + topicColumns + " FROM topics WHERE id = ?"

	topic, err := scanTopic(r.db.QueryRow(query, topicID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return topic, nil
}

// ListTopics retrieves topics in canonical order, optionally filtered by
// grade and subject (zero values mean no filter)
func (r *TopicRepository) ListTopics(grade int, subject string) ([]models.Topic, error) {
	query := "SELECT " + topicColumns + " FROM topics"
	var conds []string
	var args []interface{}

	if grade > 0 {
		conds = append(conds, "grade = ?")
		args = append(args, grade)
	}
	if subject != "" {
		conds = append(conds, "subject = ?")
		args = append(args, subject)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY position ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, *topic)
	}

	return topics, rows.Err()
}

// FirstUnmasteredTopic finds the learner's next topic to study: the first
// topic in canonical order they have not yet mastered. Returns nil when
// every topic is mastered.
func (r *TopicRepository) FirstUnmasteredTopic(learnerID int64) (*models.Topic, error) {
	query := `
		SELECT ` + topicColumns + `
		FROM topics
		WHERE id NOT IN (
			SELECT topic_id FROM topic_progress
			WHERE learner_id = ? AND mastered = ?
		)
		ORDER BY position ASC, id ASC
		LIMIT 1
	`

	topic, err := scanTopic(r.db.QueryRow(query, learnerID, true))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next topic: %w", err)
	}
	return topic, nil
}

// GetTopicQuestions retrieves a topic's question bank in display order
func (r *TopicRepository) GetTopicQuestions(topicID int64) ([]models.TopicQuestion, error) {
	query := `
		SELECT id, topic_id, text, choice_a, choice_b, choice_c, choice_d, correct, position
		FROM topic_questions
		WHERE topic_id = ?
		ORDER BY position ASC, id ASC
	`

	rows, err := r.db.Query(query, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.TopicQuestion
	for rows.Next() {
		var q models.TopicQuestion
		if err := rows.Scan(&q.ID, &q.TopicID, &q.Text, &q.ChoiceA, &q.ChoiceB, &q.ChoiceC, &q.ChoiceD, &q.Correct, &q.Position); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

// CorrectAnswers retrieves the question-id to correct-letter map for a topic
func (r *TopicRepository) CorrectAnswers(topicID int64) (map[int64]string, error) {
	questions, err := r.GetTopicQuestions(topicID)
	if err != nil {
		return nil, err
	}

	answers := make(map[int64]string, len(questions))
	for _, q := range questions {
		answers[q.ID] = q.Correct
	}
	return answers, nil
}
