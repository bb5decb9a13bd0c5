package quizchat

import "time"

// Labels are the four option labels in presentation order.
var Labels = [4]string{"A", "B", "C", "D"}

// Chat roles as the gateway expects them.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Question represents a single parsed multiple-choice question.
// Options always holds exactly 4 entries indexed by label A-D; an entry
// is the empty string when the generator's text had nothing usable for
// that label. CorrectLabel is "" when no answer marker was found.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectLabel string   `json:"correct_label"`
}

// HasAnswer reports whether the parser extracted a correct label.
func (q Question) HasAnswer() bool {
	return q.CorrectLabel != ""
}

// QuizBatch is the ordered set of questions produced by one generation
// call. Questions may be empty when the raw text held no recognizable
// question blocks; Raw is kept so callers can show the generator's
// output when that happens.
type QuizBatch struct {
	ID        string     `json:"id"`
	Topic     string     `json:"topic"`
	Tag       string     `json:"template"`
	Raw       string     `json:"raw,omitempty"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// Len returns the number of questions in the batch.
func (b *QuizBatch) Len() int {
	return len(b.Questions)
}

// DegradedIndexes lists positions of questions that parsed with a
// missing option or an unknown correct label. Degraded records are
// playable; an unknown correct label just never matches a submission.
func (b *QuizBatch) DegradedIndexes() []int {
	var degraded []int
	for i, q := range b.Questions {
		if !q.HasAnswer() {
			degraded = append(degraded, i)
			continue
		}
		for _, opt := range q.Options {
			if opt == "" {
				degraded = append(degraded, i)
				break
			}
		}
	}
	return degraded
}

// ChatTurn is one role/content message in a conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PairedTurn is a completed user/assistant exchange, the other history
// shape the presentation layer hands back.
type PairedTurn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}
