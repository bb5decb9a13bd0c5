package quizchat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	quizMaxTokens   = 1024
	quizTemperature = 0.7
)

// QuizMaker drives one quiz generation: template instruction -> gateway
// -> parsed batch.
type QuizMaker struct {
	gw         Gateway
	tmpl       Template
	transcript *TranscriptLogger

	// MaxTokens and Temperature apply to the generation call. Output
	// truncated at MaxTokens simply yields a shorter batch.
	MaxTokens   int
	Temperature float32
}

// NewQuizMaker creates a quiz maker over the given gateway and template.
func NewQuizMaker(gw Gateway, tmpl Template) *QuizMaker {
	return &QuizMaker{
		gw:          gw,
		tmpl:        tmpl,
		MaxTokens:   quizMaxTokens,
		Temperature: quizTemperature,
	}
}

// SetTranscript attaches a transcript logger for raw LLM traffic.
func (qm *QuizMaker) SetTranscript(t *TranscriptLogger) {
	qm.transcript = t
}

// MakeQuiz asks the gateway for numQuestions questions about topic and
// parses whatever comes back. Gateway failures are fatal for the
// request; parse shortfalls are not — the batch reflects what the
// generator actually produced, possibly fewer records or none.
func (qm *QuizMaker) MakeQuiz(ctx context.Context, topic string, numQuestions int) (*QuizBatch, error) {
	instruction := qm.tmpl.Instruction(topic, numQuestions)

	if qm.transcript != nil {
		qm.transcript.LogRequest(qm.tmpl.Tag(), instruction)
	}
	log.WithFields(logrus.Fields{
		"template":  qm.tmpl.Tag(),
		"topic":     topic,
		"questions": numQuestions,
	}).Debug("requesting quiz generation")

	raw, err := qm.gw.Generate(ctx, []ChatTurn{{Role: RoleSystem, Content: instruction}}, qm.MaxTokens, qm.Temperature)
	if err != nil {
		return nil, fmt.Errorf("quiz generation: %w", err)
	}

	if qm.transcript != nil {
		qm.transcript.LogResponse(qm.tmpl.Tag(), raw)
	}

	batch := &QuizBatch{
		ID:        uuid.NewString(),
		Topic:     topic,
		Tag:       qm.tmpl.Tag(),
		Raw:       raw,
		Questions: qm.tmpl.Parse(raw),
		CreatedAt: time.Now(),
	}

	log.WithFields(logrus.Fields{
		"template": qm.tmpl.Tag(),
		"parsed":   batch.Len(),
	}).Debug("parsed quiz batch")
	if degraded := batch.DegradedIndexes(); len(degraded) > 0 {
		log.WithFields(logrus.Fields{
			"quiz":     batch.ID,
			"degraded": degraded,
		}).Warn("batch contains degraded question records")
	}

	return batch, nil
}
