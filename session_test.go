package quizchat

import (
	"errors"
	"reflect"
	"testing"
)

func testBatch(questions ...Question) *QuizBatch {
	return &QuizBatch{
		ID:        "test-batch",
		Topic:     "testing",
		Tag:       "numbered",
		Questions: questions,
	}
}

func knownQuestion(label string) Question {
	return Question{
		Text:         "Which one?",
		Options:      []string{"w", "x", "y", "z"},
		CorrectLabel: label,
	}
}

func TestStartSessionEmptyBatch(t *testing.T) {
	if _, err := StartSession(testBatch()); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, err := StartSession(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch for nil batch, got %v", err)
	}
}

func TestSessionSubmitFlow(t *testing.T) {
	unknown := knownQuestion("")
	batch := testBatch(knownQuestion("B"), unknown)

	sess, err := StartSession(batch)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if sess.Index() != 0 || sess.Score() != 0 {
		t.Fatalf("fresh session at index %d score %d", sess.Index(), sess.Score())
	}

	fb, err := sess.Submit("B")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !fb.Correct || fb.Score != 1 || fb.Index != 1 {
		t.Fatalf("expected correct, score 1, index 1; got %+v", fb)
	}

	// The second question has no known answer: nothing matches and the
	// index stays put.
	for _, label := range []string{"C", "A"} {
		fb, err = sess.Submit(label)
		if err != nil {
			t.Fatalf("Submit(%s) failed: %v", label, err)
		}
		if fb.Correct {
			t.Errorf("Submit(%s) credited a question with unknown answer", label)
		}
		if fb.Index != 1 || fb.Score != 1 {
			t.Errorf("Submit(%s): expected index 1 score 1, got %+v", label, fb)
		}
	}
	if sess.State() != StateInProgress {
		t.Errorf("expected session still in progress, got %s", sess.State())
	}
}

func TestSessionCaseInsensitiveMatch(t *testing.T) {
	sess, err := StartSession(testBatch(knownQuestion("C")))
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	fb, err := sess.Submit("c")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !fb.Correct {
		t.Error("lowercase submission should match uppercase label")
	}
}

func TestSessionCompletion(t *testing.T) {
	sess, err := StartSession(testBatch(knownQuestion("A"), knownQuestion("D")))
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if _, err := sess.Submit("A"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	fb, err := sess.Submit("D")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !fb.Completed {
		t.Fatal("expected completion after last correct answer")
	}
	if sess.State() != StateCompleted {
		t.Fatalf("expected completed state, got %s", sess.State())
	}

	if _, err := sess.Submit("A"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition after completion, got %v", err)
	}
	if _, err := sess.Current(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from Current after completion, got %v", err)
	}

	sum, err := sess.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Score != 2 || sum.Total != 2 {
		t.Errorf("expected 2/2, got %d/%d", sum.Score, sum.Total)
	}
	if want := []string{"A", "D"}; !reflect.DeepEqual(sum.CorrectLabels, want) {
		t.Errorf("expected labels %v, got %v", want, sum.CorrectLabels)
	}
}

func TestSessionSummaryMarksUnknown(t *testing.T) {
	sess, err := StartSession(testBatch(knownQuestion("A"), knownQuestion("")))
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if _, err := sess.Submit("A"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := sess.Skip(); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}

	sum, err := sess.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if want := []string{"A", "?"}; !reflect.DeepEqual(sum.CorrectLabels, want) {
		t.Errorf("expected labels %v, got %v", want, sum.CorrectLabels)
	}
	if sum.Score != 1 {
		t.Errorf("skip must not score: got %d", sum.Score)
	}
}

func TestSessionRestart(t *testing.T) {
	batch := testBatch(knownQuestion("A"), knownQuestion("B"))
	sess, err := StartSession(batch)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	sess.Submit("A")
	sess.Submit("B")
	if sess.State() != StateCompleted {
		t.Fatal("expected completed session")
	}

	sess.Restart()
	if sess.State() != StateInProgress || sess.Index() != 0 || sess.Score() != 0 {
		t.Fatalf("restart did not reset: state=%s index=%d score=%d", sess.State(), sess.Index(), sess.Score())
	}
	// The underlying batch is untouched.
	if batch.Questions[0].CorrectLabel != "A" || batch.Questions[1].CorrectLabel != "B" {
		t.Error("restart mutated the batch")
	}

	p, err := sess.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if p.Progress != "1/2" {
		t.Errorf("expected progress 1/2 after restart, got %q", p.Progress)
	}
}

func TestSessionScoreMonotonic(t *testing.T) {
	sess, err := StartSession(testBatch(
		knownQuestion("A"), knownQuestion("B"), knownQuestion(""), knownQuestion("D"),
	))
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	last := 0
	for _, label := range []string{"B", "A", "C", "B", "D", "A"} {
		fb, err := sess.Submit(label)
		if err != nil {
			t.Fatalf("Submit(%s) failed: %v", label, err)
		}
		if fb.Score < last {
			t.Fatalf("score decreased: %d -> %d", last, fb.Score)
		}
		if fb.Score > fb.Index {
			t.Fatalf("score %d exceeds progress %d", fb.Score, fb.Index)
		}
		last = fb.Score
	}
}

func TestSessionPresentation(t *testing.T) {
	sess, err := StartSession(testBatch(Question{
		Text:         "What is ML?",
		Options:      []string{"x", "y", "z", "w"},
		CorrectLabel: "C",
	}))
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	p, err := sess.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if p.Question != "What is ML?" {
		t.Errorf("unexpected question text %q", p.Question)
	}
	if want := []string{"x", "y", "z", "w"}; !reflect.DeepEqual(p.Options, want) {
		t.Errorf("expected options %v, got %v", want, p.Options)
	}
	if p.Progress != "1/1" {
		t.Errorf("expected progress 1/1, got %q", p.Progress)
	}
	if _, err := sess.Summary(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from Summary in progress, got %v", err)
	}
}

func TestResumeSession(t *testing.T) {
	batch := testBatch(knownQuestion("A"), knownQuestion("B"), knownQuestion("C"))

	t.Run("mid quiz", func(t *testing.T) {
		sess, err := ResumeSession(batch, 2, 1)
		if err != nil {
			t.Fatalf("ResumeSession failed: %v", err)
		}
		if sess.Index() != 2 || sess.Score() != 1 || sess.State() != StateInProgress {
			t.Fatalf("unexpected resumed state: index=%d score=%d state=%s", sess.Index(), sess.Score(), sess.State())
		}
	})

	t.Run("at end", func(t *testing.T) {
		sess, err := ResumeSession(batch, 3, 2)
		if err != nil {
			t.Fatalf("ResumeSession failed: %v", err)
		}
		if sess.State() != StateCompleted {
			t.Fatalf("expected completed state, got %s", sess.State())
		}
	})

	t.Run("out of range", func(t *testing.T) {
		if _, err := ResumeSession(batch, 4, 0); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		if _, err := ResumeSession(batch, 1, 2); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition for score > index, got %v", err)
		}
	})
}

func TestZeroSessionRejectsOperations(t *testing.T) {
	var sess QuizSession
	if _, err := sess.Submit("A"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition before start, got %v", err)
	}
	if sess.State() != StateNotStarted {
		t.Errorf("expected not-started state, got %s", sess.State())
	}
}
