package quizchat

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB stores generated quizzes, their parsed questions, and finished
// attempt scores.
type DB struct {
	db *sql.DB
}

// QuizInfo is a stored quiz's listing row.
type QuizInfo struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Tag          string    `json:"template"`
	NumQuestions int       `json:"num_questions"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttemptInfo is one finished attempt at a stored quiz.
type AttemptInfo struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quiz_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	CompletedAt time.Time `json:"completed_at"`
}

// OpenDB opens a quiz database at path, creating the file if needed.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// CreateTables creates the schema if it does not exist.
func (d *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			template TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			num_questions INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			question_num INTEGER NOT NULL,
			text TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_label TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
		)`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			completed_at DATETIME NOT NULL,
			FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
		)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// SaveQuiz persists a batch and its questions.
func (d *DB) SaveQuiz(batch *QuizBatch) error {
	_, err := d.db.Exec(
		"INSERT INTO quizzes (id, topic, template, raw_text, num_questions, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		batch.ID, batch.Topic, batch.Tag, batch.Raw, len(batch.Questions), batch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save quiz: %w", err)
	}

	for i, q := range batch.Questions {
		optionsJSON, err := optionsToJSON(q.Options)
		if err != nil {
			return err
		}
		_, err = d.db.Exec(
			"INSERT INTO questions (id, quiz_id, question_num, text, options, correct_label) VALUES (?, ?, ?, ?, ?, ?)",
			uuid.NewString(), batch.ID, i+1, q.Text, optionsJSON, q.CorrectLabel,
		)
		if err != nil {
			return fmt.Errorf("failed to save question %d: %w", i+1, err)
		}
	}
	return nil
}

// LoadQuiz rebuilds a batch from storage.
func (d *DB) LoadQuiz(id string) (*QuizBatch, error) {
	batch := &QuizBatch{ID: id}
	err := d.db.QueryRow(
		"SELECT topic, template, raw_text, created_at FROM quizzes WHERE id = ?", id,
	).Scan(&batch.Topic, &batch.Tag, &batch.Raw, &batch.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("quiz not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	rows, err := d.db.Query(
		"SELECT text, options, correct_label FROM questions WHERE quiz_id = ? ORDER BY question_num", id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q           Question
			optionsJSON string
		)
		if err := rows.Scan(&q.Text, &optionsJSON, &q.CorrectLabel); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		options, err := jsonToOptions(optionsJSON)
		if err != nil {
			return nil, err
		}
		q.Options = normalizeOptions(options)
		batch.Questions = append(batch.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return batch, nil
}

// ListQuizzes returns stored quizzes, newest first. limit <= 0 lists all.
func (d *DB) ListQuizzes(limit int) ([]QuizInfo, error) {
	query := "SELECT id, topic, template, num_questions, created_at FROM quizzes ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []QuizInfo
	for rows.Next() {
		var info QuizInfo
		if err := rows.Scan(&info.ID, &info.Topic, &info.Tag, &info.NumQuestions, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quizzes: %w", err)
	}
	return quizzes, nil
}

// RecordAttempt stores a finished attempt's score.
func (d *DB) RecordAttempt(quizID string, sum Summary) error {
	_, err := d.db.Exec(
		"INSERT INTO attempts (id, quiz_id, score, total, completed_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), quizID, sum.Score, sum.Total, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// Attempts returns finished attempts for a quiz, newest first.
func (d *DB) Attempts(quizID string) ([]AttemptInfo, error) {
	rows, err := d.db.Query(
		"SELECT id, quiz_id, score, total, completed_at FROM attempts WHERE quiz_id = ? ORDER BY completed_at DESC",
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []AttemptInfo
	for rows.Next() {
		var a AttemptInfo
		if err := rows.Scan(&a.ID, &a.QuizID, &a.Score, &a.Total, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}
	return attempts, nil
}

func optionsToJSON(options []string) (string, error) {
	data, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return string(data), nil
}

func jsonToOptions(optionsJSON string) ([]string, error) {
	var options []string
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return options, nil
}

// normalizeOptions restores the four-slot invariant on rows written by
// older schemas.
func normalizeOptions(options []string) []string {
	if len(options) == len(Labels) {
		return options
	}
	normalized := make([]string, len(Labels))
	copy(normalized, options)
	return normalized
}
