package quizchat

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TranscriptLogger writes every prompt and raw response for one quiz to
// a file under log/, so a bad generation can be replayed against the
// parser after the fact.
type TranscriptLogger struct {
	file *os.File
	mu   sync.Mutex
}

// NewTranscriptLogger creates a transcript log named after id.
func NewTranscriptLogger(id, templateTag, topic string) (*TranscriptLogger, error) {
	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join("log", fmt.Sprintf("%s.log", id))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	tl := &TranscriptLogger{file: file}
	tl.Logf("=== Transcript ===\n")
	tl.Logf("ID: %s\n", id)
	tl.Logf("Template: %s\n", templateTag)
	tl.Logf("Topic: %s\n", topic)
	tl.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	tl.Logf("=======================\n\n")

	return tl, nil
}

// Logf writes a timestamped entry.
func (tl *TranscriptLogger) Logf(format string, args ...any) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(tl.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	tl.file.Sync()
}

// LogRequest records a prompt sent to the gateway.
func (tl *TranscriptLogger) LogRequest(stage, prompt string) {
	tl.Logf("=== REQUEST (%s) ===\n", stage)
	tl.Logf("%s\n", prompt)
	tl.Logf("====================\n\n")
}

// LogResponse records the gateway's raw reply.
func (tl *TranscriptLogger) LogResponse(stage, response string) {
	tl.Logf("=== RESPONSE (%s) ===\n", stage)
	tl.Logf("%s\n", response)
	tl.Logf("=====================\n\n")
}

// LogChatTurn records one conversational turn.
func (tl *TranscriptLogger) LogChatTurn(role, content string) {
	tl.Logf("[%s] %s\n", role, content)
}

// Close finalizes and closes the transcript.
func (tl *TranscriptLogger) Close() error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return nil
	}
	fmt.Fprintf(tl.file, "[%s] === Transcript Complete ===\n", time.Now().Format("15:04:05.000"))
	return tl.file.Close()
}
