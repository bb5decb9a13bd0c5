package quizchat

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.CreateTables(); err != nil {
		t.Fatalf("CreateTables failed: %v", err)
	}
	return db
}

func TestSaveAndLoadQuiz(t *testing.T) {
	db := openTestDB(t)

	batch := &QuizBatch{
		ID:    "quiz-1",
		Topic: "machine learning",
		Tag:   "block",
		Raw:   "QUESTION 1\n...",
		Questions: []Question{
			{Text: "What is ML?", Options: []string{"x", "y", "z", "w"}, CorrectLabel: "C"},
			{Text: "Degraded", Options: []string{"a", "", "c", ""}, CorrectLabel: ""},
		},
		CreatedAt: time.Now(),
	}

	if err := db.SaveQuiz(batch); err != nil {
		t.Fatalf("SaveQuiz failed: %v", err)
	}

	loaded, err := db.LoadQuiz("quiz-1")
	if err != nil {
		t.Fatalf("LoadQuiz failed: %v", err)
	}
	if loaded.Topic != batch.Topic || loaded.Tag != batch.Tag || loaded.Raw != batch.Raw {
		t.Errorf("quiz metadata mismatch: %+v", loaded)
	}
	if !reflect.DeepEqual(loaded.Questions, batch.Questions) {
		t.Errorf("questions mismatch:\ngot  %+v\nwant %+v", loaded.Questions, batch.Questions)
	}
}

func TestLoadQuizNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LoadQuiz("missing"); err == nil {
		t.Fatal("expected an error for a missing quiz")
	}
}

func TestListQuizzes(t *testing.T) {
	db := openTestDB(t)

	for i, id := range []string{"a", "b", "c"} {
		batch := &QuizBatch{
			ID:        id,
			Topic:     "topic " + id,
			Tag:       "numbered",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
			Questions: []Question{{Text: "q", Options: []string{"1", "2", "3", "4"}, CorrectLabel: "A"}},
		}
		if err := db.SaveQuiz(batch); err != nil {
			t.Fatalf("SaveQuiz(%s) failed: %v", id, err)
		}
	}

	quizzes, err := db.ListQuizzes(0)
	if err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	if len(quizzes) != 3 {
		t.Fatalf("expected 3 quizzes, got %d", len(quizzes))
	}
	if quizzes[0].ID != "c" {
		t.Errorf("expected newest quiz first, got %q", quizzes[0].ID)
	}

	limited, err := db.ListQuizzes(1)
	if err != nil {
		t.Fatalf("ListQuizzes(1) failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit of 1, got %d", len(limited))
	}
}

func TestRecordAndListAttempts(t *testing.T) {
	db := openTestDB(t)

	batch := &QuizBatch{
		ID:        "quiz-1",
		Topic:     "topic",
		Tag:       "numbered",
		CreatedAt: time.Now(),
		Questions: []Question{{Text: "q", Options: []string{"1", "2", "3", "4"}, CorrectLabel: "A"}},
	}
	if err := db.SaveQuiz(batch); err != nil {
		t.Fatalf("SaveQuiz failed: %v", err)
	}

	sum := Summary{Score: 1, Total: 1, CorrectLabels: []string{"A"}}
	if err := db.RecordAttempt("quiz-1", sum); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	attempts, err := db.Attempts("quiz-1")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	a := attempts[0]
	if a.Score != 1 || a.Total != 1 || a.QuizID != "quiz-1" {
		t.Errorf("unexpected attempt %+v", a)
	}
	if a.CompletedAt.IsZero() {
		t.Error("attempt has no completion time")
	}
}
