package quizchat

import (
	"fmt"
	"strings"
	"sync"
)

// SessionState is the lifecycle phase of a quiz attempt.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateInProgress
	StateCompleted
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateInProgress:
		return "in progress"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// Feedback is the outcome of one answer submission.
type Feedback struct {
	Correct   bool
	Completed bool
	Score     int
	Index     int
}

// Presentation is what the UI renders for the question in play.
type Presentation struct {
	Question string
	Options  []string // 4 entries in A-D order
	Progress string   // "3/10"
}

// Summary reports a finished attempt. CorrectLabels holds one label per
// question, "?" where the parser found no answer.
type Summary struct {
	Score         int
	Total         int
	CorrectLabels []string
}

// QuizSession walks a learner through one batch. The batch is read-only
// for the session's lifetime; the session owns its index and score.
// Methods are safe for concurrent use — submissions are processed one
// at a time, in arrival order.
type QuizSession struct {
	mu    sync.Mutex
	batch *QuizBatch
	state SessionState
	index int
	score int
}

// StartSession begins a fresh attempt at batch. An empty batch cannot be
// started: the caller must surface a "quiz unavailable" state instead.
func StartSession(batch *QuizBatch) (*QuizSession, error) {
	if batch == nil || len(batch.Questions) == 0 {
		return nil, ErrEmptyBatch
	}
	return &QuizSession{batch: batch, state: StateInProgress}, nil
}

// ResumeSession rebuilds a session at a known position, for callers that
// persist attempt state between requests. index == batch length resumes
// in the completed state.
func ResumeSession(batch *QuizBatch, index, score int) (*QuizSession, error) {
	if batch == nil || len(batch.Questions) == 0 {
		return nil, ErrEmptyBatch
	}
	if index < 0 || index > len(batch.Questions) || score < 0 || score > index {
		return nil, fmt.Errorf("%w: resume at index %d score %d", ErrInvalidTransition, index, score)
	}
	s := &QuizSession{batch: batch, state: StateInProgress, index: index, score: score}
	if index == len(batch.Questions) {
		s.state = StateCompleted
	}
	return s, nil
}

// Submit grades label against the current question, case-insensitively.
// A correct answer scores a point and advances. A wrong answer leaves
// the index in place so the learner retries. A question whose correct
// label is unknown never matches — it is never silently credited.
func (s *QuizSession) Submit(label string) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return Feedback{}, fmt.Errorf("%w: submit while %s", ErrInvalidTransition, s.state)
	}

	q := s.batch.Questions[s.index]
	correct := q.HasAnswer() && strings.EqualFold(label, q.CorrectLabel)
	if correct {
		s.score++
		s.advanceLocked()
	}

	return Feedback{
		Correct:   correct,
		Completed: s.state == StateCompleted,
		Score:     s.score,
		Index:     s.index,
	}, nil
}

// Skip moves past the current question without credit. It covers
// questions left without a known answer, which Submit can never clear.
func (s *QuizSession) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return fmt.Errorf("%w: skip while %s", ErrInvalidTransition, s.state)
	}
	s.advanceLocked()
	return nil
}

func (s *QuizSession) advanceLocked() {
	s.index++
	if s.index == len(s.batch.Questions) {
		s.state = StateCompleted
	}
}

// Restart resets the attempt over the same batch, from any state.
func (s *QuizSession) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = 0
	s.score = 0
	s.state = StateInProgress
}

// State returns the current lifecycle phase.
func (s *QuizSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score returns the running score.
func (s *QuizSession) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Index returns the current question position.
func (s *QuizSession) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the presentation payload for the question in play.
func (s *QuizSession) Current() (Presentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return Presentation{}, fmt.Errorf("%w: current while %s", ErrInvalidTransition, s.state)
	}

	q := s.batch.Questions[s.index]
	options := make([]string, len(q.Options))
	copy(options, q.Options)

	return Presentation{
		Question: q.Text,
		Options:  options,
		Progress: fmt.Sprintf("%d/%d", s.index+1, len(s.batch.Questions)),
	}, nil
}

// Summary reports the finished attempt.
func (s *QuizSession) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return Summary{}, fmt.Errorf("%w: summary while %s", ErrInvalidTransition, s.state)
	}

	labels := make([]string, 0, len(s.batch.Questions))
	for _, q := range s.batch.Questions {
		if q.HasAnswer() {
			labels = append(labels, q.CorrectLabel)
		} else {
			labels = append(labels, "?")
		}
	}

	return Summary{
		Score:         s.score,
		Total:         len(s.batch.Questions),
		CorrectLabels: labels,
	}, nil
}
