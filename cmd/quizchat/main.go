package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"quizchat"
)

func main() {
	var (
		topic        = flag.String("topic", "machine learning", "Quiz topic")
		numQuestions = flag.Int("questions", 10, "Number of questions to request")
		templateTag  = flag.String("template", quizchat.DefaultTemplate().Tag(),
			fmt.Sprintf("Prompt/parser template (%s)", strings.Join(quizchat.TemplateTags(), ", ")))
		baseURL    = flag.String("base-url", "http://localhost:8080/v1", "OpenAI-compatible endpoint (e.g. a local llama.cpp server)")
		model      = flag.String("model", "", "Model name as served by the endpoint")
		apiKey     = flag.String("api-key", "", "API key (or set OPENAI_API_KEY; local servers ignore it)")
		outputFile = flag.String("output", "", "Output file for quiz JSON (default: stdout)")
		dbPath     = flag.String("db", "", "Optional sqlite database to record quizzes and attempts")
		playMode   = flag.Bool("play", false, "Play the quiz interactively")
		chatMode   = flag.Bool("chat", false, "Chat with the model instead of generating a quiz")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	quizchat.SetVerbose(*verbose)

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		// Local llama.cpp-style servers accept any token.
		*apiKey = "local"
	}

	gateway := quizchat.NewOpenAIGateway(*apiKey, *baseURL, *model)

	if *chatMode {
		runChat(gateway)
		return
	}

	tmpl, err := quizchat.TemplateByTag(*templateTag)
	if err != nil {
		log.Fatalf("Unknown template: %v", err)
	}

	maker := quizchat.NewQuizMaker(gateway, tmpl)

	transcript, err := quizchat.NewTranscriptLogger(time.Now().Format("20060102-150405"), tmpl.Tag(), *topic)
	if err != nil {
		// Generation still works without a transcript.
		log.Printf("Failed to create transcript log: %v", err)
	} else {
		maker.SetTranscript(transcript)
		defer transcript.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	batch, err := maker.MakeQuiz(ctx, *topic, *numQuestions)
	if err != nil {
		log.Fatalf("Failed to generate quiz: %v", err)
	}

	if batch.Len() == 0 {
		fmt.Fprintln(os.Stderr, "⚠️  Could not parse a quiz from the model output. Raw output follows:")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, batch.Raw)
		os.Exit(1)
	}

	var db *quizchat.DB
	if *dbPath != "" {
		db, err = quizchat.OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		if err := db.CreateTables(); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		if err := db.SaveQuiz(batch); err != nil {
			log.Fatalf("Failed to save quiz: %v", err)
		}
	}

	if *playMode {
		playQuiz(batch, db)
		return
	}

	output, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal quiz: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Quiz saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}

func playQuiz(batch *quizchat.QuizBatch, db *quizchat.DB) {
	sess, err := quizchat.StartSession(batch)
	if err != nil {
		log.Fatalf("Failed to start quiz: %v", err)
	}

	fmt.Printf("🎯 Quiz on: %s (%d questions)\n\n", batch.Topic, batch.Len())

	scanner := bufio.NewScanner(os.Stdin)

	for sess.State() == quizchat.StateInProgress {
		p, err := sess.Current()
		if err != nil {
			log.Fatalf("Failed to read question: %v", err)
		}

		fmt.Printf("Question %s:\n%s\n\n", p.Progress, p.Question)
		for i, option := range p.Options {
			if option == "" {
				option = "(missing)"
			}
			fmt.Printf("%s) %s\n", quizchat.Labels[i], option)
		}
		fmt.Println()

		answer := readAnswer(scanner)
		if answer == "S" {
			if err := sess.Skip(); err != nil {
				log.Fatalf("Failed to skip: %v", err)
			}
			fmt.Println("⏭️  Skipped.")
			fmt.Println()
			continue
		}

		fb, err := sess.Submit(answer)
		if err != nil {
			log.Fatalf("Failed to submit answer: %v", err)
		}
		if fb.Correct {
			fmt.Println("✅ Correct!")
		} else {
			fmt.Println("❌ Incorrect. Try again, or S to skip.")
		}
		fmt.Println()
	}

	sum, err := sess.Summary()
	if err != nil {
		log.Fatalf("Failed to summarize quiz: %v", err)
	}

	fmt.Println("🧾 Quiz complete!")
	fmt.Printf("Your score: %d/%d\n\n", sum.Score, sum.Total)
	fmt.Println("Correct answers:")
	for i, label := range sum.CorrectLabels {
		fmt.Printf("  %d. %s\n", i+1, label)
	}

	if db != nil {
		if err := db.RecordAttempt(batch.ID, sum); err != nil {
			log.Printf("Failed to record attempt: %v", err)
		}
	}
}

func readAnswer(scanner *bufio.Scanner) string {
	for {
		fmt.Print("Your answer (A/B/C/D, or S to skip): ")
		if !scanner.Scan() {
			fmt.Println()
			os.Exit(0)
		}
		answer := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		switch answer {
		case "A", "B", "C", "D", "S":
			return answer
		}
		fmt.Println("Please enter A, B, C, D, or S")
	}
}

func runChat(gateway *quizchat.OpenAIGateway) {
	fmt.Println("💬 Chat mode. Empty line to quit.")
	fmt.Println()

	transcript, err := quizchat.NewTranscriptLogger("chat-"+time.Now().Format("20060102-150405"), "", "chat")
	if err != nil {
		log.Printf("Failed to create transcript log: %v", err)
		transcript = nil
	} else {
		defer transcript.Close()
	}

	scanner := bufio.NewScanner(os.Stdin)
	var history []any

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			return
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		reply, err := quizchat.Chat(ctx, gateway, message, history)
		cancel()
		if err != nil {
			log.Fatalf("Chat failed: %v", err)
		}

		fmt.Printf("Model: %s\n\n", reply)
		if transcript != nil {
			transcript.LogChatTurn(quizchat.RoleUser, message)
			transcript.LogChatTurn(quizchat.RoleAssistant, reply)
		}
		history = append(history, quizchat.PairedTurn{User: message, Assistant: reply})
	}
}
