package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"quizchat"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
)

const sessionName = "quizchat-session"

type Server struct {
	db        *quizchat.DB
	gateway   quizchat.Gateway
	store     *sessions.CookieStore
	templates map[string]*template.Template
}

// PlayState is the cookie-persisted position in one quiz attempt.
type PlayState struct {
	QuizID string `json:"quiz_id"`
	Index  int    `json:"index"`
	Score  int    `json:"score"`
}

func init() {
	gob.Register(PlayState{})
	gob.Register([]quizchat.ChatTurn{})
}

func main() {
	quizchat.SetVerbose(os.Getenv("VERBOSE") != "")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = "local"
	}
	baseURL := os.Getenv("QUIZCHAT_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/v1"
	}
	model := os.Getenv("QUIZCHAT_MODEL")

	db, err := quizchat.OpenDB("./quizchat.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "quizchat-dev-secret"
	}
	store := sessions.NewCookieStore([]byte(secret))

	templates := make(map[string]*template.Template)
	for _, name := range []string{"home", "new_quiz", "question", "results", "chat"} {
		templates[name] = template.Must(template.ParseFiles(
			"templates/base.html",
			fmt.Sprintf("templates/%s.html", name),
		))
	}

	server := &Server{
		db:        db,
		gateway:   quizchat.NewOpenAIGateway(apiKey, baseURL, model),
		store:     store,
		templates: templates,
	}

	r := chi.NewRouter()
	r.Get("/", server.handleHome)
	r.Get("/quiz/new", server.handleNewQuizForm)
	r.Post("/quiz/new", server.handleNewQuiz)
	r.Get("/quiz/{quizID}", server.handleQuestion)
	r.Post("/quiz/{quizID}/answer", server.handleAnswer)
	r.Post("/quiz/{quizID}/skip", server.handleSkip)
	r.Get("/quiz/{quizID}/results", server.handleResults)
	r.Post("/quiz/{quizID}/restart", server.handleRestart)
	r.Get("/chat", server.handleChat)
	r.Post("/chat", server.handleChatMessage)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates[name].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.db.ListQuizzes(0)
	if err != nil {
		log.Printf("Failed to list quizzes: %v", err)
		http.Error(w, "Failed to list quizzes", http.StatusInternalServerError)
		return
	}
	s.render(w, "home", map[string]any{"Quizzes": quizzes})
}

func (s *Server) handleNewQuizForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "new_quiz", map[string]any{"Templates": quizchat.TemplateTags()})
}

func (s *Server) handleNewQuiz(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	topic := strings.TrimSpace(r.FormValue("topic"))
	if topic == "" {
		topic = "machine learning"
	}
	numQuestions, err := strconv.Atoi(r.FormValue("num_questions"))
	if err != nil || numQuestions <= 0 {
		numQuestions = 10
	}
	tmpl, err := quizchat.TemplateByTag(r.FormValue("template"))
	if err != nil {
		tmpl = quizchat.DefaultTemplate()
	}

	maker := quizchat.NewQuizMaker(s.gateway, tmpl)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	batch, err := maker.MakeQuiz(ctx, topic, numQuestions)
	if err != nil {
		log.Printf("Quiz generation failed: %v", err)
		s.render(w, "new_quiz", map[string]any{
			"Templates": quizchat.TemplateTags(),
			"Error":     "The model is unavailable. Please try again.",
		})
		return
	}

	if batch.Len() == 0 {
		s.render(w, "new_quiz", map[string]any{
			"Templates": quizchat.TemplateTags(),
			"Error":     "Could not parse a quiz from the model output.",
			"Raw":       batch.Raw,
		})
		return
	}

	if err := s.db.SaveQuiz(batch); err != nil {
		log.Printf("Failed to save quiz: %v", err)
		http.Error(w, "Failed to save quiz", http.StatusInternalServerError)
		return
	}

	s.savePlayState(w, r, PlayState{QuizID: batch.ID})
	http.Redirect(w, r, "/quiz/"+batch.ID, http.StatusSeeOther)
}

// resumeSession rehydrates the state machine for this request from the
// cookie position. A stale or missing cookie restarts the attempt.
func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request, quizID string) (*quizchat.QuizSession, *quizchat.QuizBatch, error) {
	batch, err := s.db.LoadQuiz(quizID)
	if err != nil {
		return nil, nil, err
	}

	state := s.playState(r)
	if state.QuizID != quizID {
		state = PlayState{QuizID: quizID}
		s.savePlayState(w, r, state)
	}

	sess, err := quizchat.ResumeSession(batch, state.Index, state.Score)
	if err != nil {
		sess, err = quizchat.StartSession(batch)
	}
	return sess, batch, err
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")

	sess, batch, err := s.resumeSession(w, r, quizID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if sess.State() == quizchat.StateCompleted {
		http.Redirect(w, r, "/quiz/"+quizID+"/results", http.StatusSeeOther)
		return
	}

	p, err := sess.Current()
	if err != nil {
		http.Error(w, "Failed to read question", http.StatusInternalServerError)
		return
	}

	type option struct{ Label, Text string }
	options := make([]option, 0, len(p.Options))
	for i, text := range p.Options {
		if text == "" {
			text = "(missing)"
		}
		options = append(options, option{Label: quizchat.Labels[i], Text: text})
	}

	s.render(w, "question", map[string]any{
		"QuizID":   quizID,
		"Topic":    batch.Topic,
		"Question": p.Question,
		"Options":  options,
		"Progress": p.Progress,
		"Score":    sess.Score(),
		"Feedback": r.URL.Query().Get("feedback"),
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	label := r.FormValue("answer")

	sess, batch, err := s.resumeSession(w, r, quizID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if sess.State() != quizchat.StateInProgress {
		http.Redirect(w, r, "/quiz/"+quizID+"/results", http.StatusSeeOther)
		return
	}

	fb, err := sess.Submit(label)
	if err != nil {
		http.Error(w, "Failed to submit answer", http.StatusInternalServerError)
		return
	}

	s.savePlayState(w, r, PlayState{QuizID: quizID, Index: fb.Index, Score: fb.Score})

	if fb.Completed {
		if sum, err := sess.Summary(); err == nil {
			if err := s.db.RecordAttempt(batch.ID, sum); err != nil {
				log.Printf("Failed to record attempt: %v", err)
			}
		}
		http.Redirect(w, r, "/quiz/"+quizID+"/results", http.StatusSeeOther)
		return
	}

	feedback := "wrong"
	if fb.Correct {
		feedback = "correct"
	}
	http.Redirect(w, r, fmt.Sprintf("/quiz/%s?feedback=%s", quizID, feedback), http.StatusSeeOther)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")

	sess, batch, err := s.resumeSession(w, r, quizID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if sess.State() == quizchat.StateInProgress {
		if err := sess.Skip(); err != nil {
			http.Error(w, "Failed to skip", http.StatusInternalServerError)
			return
		}
	}

	s.savePlayState(w, r, PlayState{QuizID: quizID, Index: sess.Index(), Score: sess.Score()})

	if sess.State() == quizchat.StateCompleted {
		if sum, err := sess.Summary(); err == nil {
			if err := s.db.RecordAttempt(batch.ID, sum); err != nil {
				log.Printf("Failed to record attempt: %v", err)
			}
		}
		http.Redirect(w, r, "/quiz/"+quizID+"/results", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/quiz/"+quizID, http.StatusSeeOther)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")

	sess, batch, err := s.resumeSession(w, r, quizID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if sess.State() != quizchat.StateCompleted {
		http.Redirect(w, r, "/quiz/"+quizID, http.StatusSeeOther)
		return
	}

	sum, err := sess.Summary()
	if err != nil {
		http.Error(w, "Failed to summarize quiz", http.StatusInternalServerError)
		return
	}

	type answer struct {
		Num   int
		Label string
	}
	answers := make([]answer, 0, len(sum.CorrectLabels))
	for i, label := range sum.CorrectLabels {
		answers = append(answers, answer{Num: i + 1, Label: label})
	}

	s.render(w, "results", map[string]any{
		"QuizID":  quizID,
		"Topic":   batch.Topic,
		"Score":   sum.Score,
		"Total":   sum.Total,
		"Answers": answers,
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	s.savePlayState(w, r, PlayState{QuizID: quizID})
	http.Redirect(w, r, "/quiz/"+quizID, http.StatusSeeOther)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.render(w, "chat", map[string]any{"History": s.chatHistory(r)})
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}

	history := s.chatHistory(r)
	raw := make([]any, 0, len(history))
	for _, turn := range history {
		raw = append(raw, turn)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	reply, err := quizchat.Chat(ctx, s.gateway, message, raw)
	if err != nil {
		log.Printf("Chat failed: %v", err)
		s.render(w, "chat", map[string]any{
			"History": history,
			"Error":   "The model is unavailable. Please try again.",
		})
		return
	}

	history = append(history,
		quizchat.ChatTurn{Role: quizchat.RoleUser, Content: message},
		quizchat.ChatTurn{Role: quizchat.RoleAssistant, Content: reply})

	session, _ := s.store.Get(r, sessionName)
	session.Values["chat"] = history
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}

	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (s *Server) playState(r *http.Request) PlayState {
	session, _ := s.store.Get(r, sessionName)
	if state, ok := session.Values["play"].(PlayState); ok {
		return state
	}
	return PlayState{}
}

func (s *Server) savePlayState(w http.ResponseWriter, r *http.Request, state PlayState) {
	session, _ := s.store.Get(r, sessionName)
	session.Values["play"] = state
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
}

func (s *Server) chatHistory(r *http.Request) []quizchat.ChatTurn {
	session, _ := s.store.Get(r, sessionName)
	if history, ok := session.Values["chat"].([]quizchat.ChatTurn); ok {
		return history
	}
	return nil
}
