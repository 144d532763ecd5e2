package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"pdfchat/internal/chunker"
	"pdfchat/internal/config"
	"pdfchat/internal/domain"
	"pdfchat/internal/embedding/openai"
	"pdfchat/internal/embedding/tfidf"
	"pdfchat/internal/exam"
	"pdfchat/internal/ingest"
	"pdfchat/internal/pdfext"
	"pdfchat/internal/service"
	"pdfchat/internal/summarizer"
	"pdfchat/internal/tui"
	"pdfchat/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, dir string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/pdfchat/config.yaml if not provided)")
	flag.StringVar(&dir, "dir", "", "Directory of PDF files to load at startup (optional)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The completion service always needs the key; fail before any core
	// logic runs.
	if os.Getenv(cfg.OpenAI.APIKeyEnv) == "" {
		log.Fatalf("missing API key: set %s in the environment or a .env file", cfg.OpenAI.APIKeyEnv)
	}

	client, err := openai.NewClient(openai.Config{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
		EmbedModel:  cfg.OpenAI.EmbedModel,
		ChatModel:   cfg.OpenAI.ChatModel,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		BatchSize:   cfg.OpenAI.BatchSize,
	})
	if err != nil {
		log.Fatalf("openai client init failed: %v", err)
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		emb = client
	case "tfidf":
		emb = tfidf.NewEmbedder()
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	ch, err := chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		log.Fatalf("%v", err)
	}

	pipeline := ingest.NewPipeline(pdfext.NewExtractor(), ch, emb, func() domain.VectorIndex {
		return memory.NewIndex()
	})
	generator := exam.NewGenerator(client, cfg.Exam.NumQuestions, cfg.Exam.ChunksPerQuestion,
		rand.New(rand.NewSource(time.Now().UnixNano())))

	app := service.NewApp(service.Deps{
		Pipeline:         pipeline,
		Embedder:         emb,
		Completer:        client,
		Summarizer:       summarizer.NewFrequencySummarizer(),
		Generator:        generator,
		TopK:             cfg.Answer.TopK,
		SummarySentences: cfg.Summary.MaxSentences,
	})

	m := tui.New(app, dir)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
