package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/internal/services"
)

// Re-runs transcription for documents stuck in pending, processing or failed.
// Without --update only the affected rows are listed.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := models.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var contents []models.ProjectContent
	err = db.Where("transcription_status IN ? AND storage_key <> ''", []string{
		models.TranscriptionPending, models.TranscriptionProcessing, models.TranscriptionFailed,
	}).Order("created_at ASC").Find(&contents).Error
	if err != nil {
		log.Fatalf("Failed to query documents: %v", err)
	}

	fmt.Printf("Found %d documents to transcribe:\n\n", len(contents))
	fmt.Printf("%-36s %-36s %-12s %-40s\n", "ID", "Project", "Status", "Title")
	for _, c := range contents {
		title := c.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Printf("%-36s %-36s %-12s %-40s\n", c.ID, c.ProjectID, c.TranscriptionStatus, title)
	}

	if len(os.Args) < 2 || os.Args[1] != "--update" {
		fmt.Println("\nTo transcribe them, run: go run ./cmd/scripts/requeue_transcriptions --update")
		return
	}

	blobs, err := services.NewBlobStore(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	transcriber := services.NewTranscriptionService(db, blobs)

	var queue *services.AsyncQueue
	if cfg.Redis.Enabled {
		if queue, err = services.NewAsyncQueue(&cfg.Redis); err != nil {
			fmt.Printf("Redis unavailable, transcribing inline: %v\n", err)
			queue = nil
		} else {
			defer queue.Close()
		}
	}

	ctx := context.Background()
	done := 0
	for _, c := range contents {
		task := &services.TranscriptionTask{ContentID: c.ID, ProjectID: c.ProjectID}
		if queue != nil {
			err = queue.Enqueue(task)
		} else {
			err = transcriber.Process(ctx, task)
		}
		if err != nil {
			fmt.Printf("Failed %s: %v\n", c.ID, err)
			continue
		}
		done++
	}
	fmt.Printf("\nRequeued %d of %d documents\n", done, len(contents))
}
