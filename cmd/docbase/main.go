// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docbase"
	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/ingestion"
	"github.com/poiesic/docbase/server"
	"github.com/poiesic/docbase/storage"
	"github.com/poiesic/docbase/storage/badger"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/urfave/cli/v2"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	if key := os.Getenv("UNIDOC_LICENSE_API_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			log.Fatalf("invalid unidoc license key: %v", err)
		}
	}

	app := &cli.App{
		Name:  "docbase",
		Usage: "Document knowledge base with retrieval-grounded question answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serveCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
				),
			},
			{
				Name:      "ingest",
				Usage:     "Ingest a document and wait for it to become ready",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "session",
						Usage: "Session tag to record on the document",
					},
				),
			},
			{
				Name:      "status",
				Usage:     "Show ingestion status for a document",
				ArgsUsage: "<filename>",
				Action:    statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question against the knowledge base",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Restrict retrieval to one document",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible host URL for both embedding and chat",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API token for the AI host",
			EnvVars: []string{"DOCBASE_API_TOKEN"},
			Value:   "none",
		},
	}
}

func openDatabase(c *cli.Context) (*docbase.Database, error) {
	return docbase.NewDatabase(c.String("db"),
		docbase.WithAIOptions(
			ai.WithHost(c.String("ai-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
			ai.WithChatModel(c.String("chat-model")),
			ai.WithToken(c.String("api-token")),
		),
	)
}

func serveCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	srv := server.NewServer(db.Pipeline(), db.Router(), db.DocumentRepository())
	return srv.Run(c.String("addr"))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	job, err := db.Pipeline().Submit(ctx, ingestion.Upload{
		Filename:   filepath.Base(path),
		SessionTag: c.String("session"),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("submission rejected: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Job: %s\n", job.Id)

	for {
		snap, err := db.Pipeline().Status(ctx, job.DocumentId)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  %s\n", snap.State)

		if snap.State == core.JobStateReady {
			fmt.Fprintf(os.Stderr, "Ready: %d pages, %d chunks\n", snap.PageCount, snap.ChunkCount)
			return nil
		}
		if snap.State == core.JobStateFailed {
			return fmt.Errorf("ingestion failed: %s", snap.Detail)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one filename argument")
	}
	name := core.SanitizeFilename(c.Args().First())
	if name == "" {
		return fmt.Errorf("invalid filename")
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	jobs := badger.NewJobRepository(backend)
	job, err := jobs.LatestJobForDocument(context.Background(), core.DocumentID(name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no ingestion recorded for %s", name)
		}
		return err
	}

	fmt.Printf("Document: %s\n", name)
	fmt.Printf("Job:      %s\n", job.Id)
	fmt.Printf("State:    %s\n", job.State)
	if job.Detail != "" {
		fmt.Printf("Detail:   %s\n", job.Detail)
	}
	fmt.Printf("Pages:    %d\n", job.PageCount)
	fmt.Printf("Chunks:   %d\n", job.ChunkCount)
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one question argument")
	}
	question := c.Args().First()

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var scope core.ID
	if file := c.String("file"); file != "" {
		name := core.SanitizeFilename(file)
		if name == "" {
			return fmt.Errorf("invalid --file value")
		}
		scope = core.DocumentID(name)
	}

	resp, err := db.Router().Ask(context.Background(), question, "cli", scope)
	if err != nil {
		return err
	}

	fmt.Println(resp.Answer)
	if len(resp.Source) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for name, citation := range resp.Source {
			fmt.Printf("  %s (%s)\n", name, citation.SourceURL)
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
