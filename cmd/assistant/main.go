// assistant is an interactive console for the query pipeline: it reads one
// query per line, classifies it, and prints the matched products for
// product-routed intents. Useful for exercising a seeded database without an
// HTTP surface.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/roastery/assistant/internal/app"
	"github.com/roastery/assistant/internal/config"
	"github.com/roastery/assistant/internal/models"
	"github.com/roastery/assistant/internal/service"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

// logSink logs each query metric; good enough for an interactive session.
type logSink struct{}

func (logSink) Record(ctx context.Context, m models.QueryMetric) {
	slog.InfoContext(ctx, "query handled",
		"intent", m.Intent,
		"confidence", fmt.Sprintf("%.3f", m.Confidence),
		"fallback", m.FallbackUsed,
		"embedding_cache_hit", m.EmbeddingCacheHit,
		"search_cache_hit", m.SearchCacheHit,
		"results", m.SimilarityResultsCount,
		"total_ms", m.TotalDuration.Milliseconds(),
	)
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg, app.Options{Sink: logSink{}})
	if err != nil {
		slog.Error("Failed to assemble assistant", "error", err)

		return exitFailure
	}
	defer func() {
		if err := a.Close(ctx); err != nil {
			slog.Error("Shutdown error", "error", err)
		}
	}()

	fmt.Println("assistant console; empty line to exit")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")

		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			break
		}

		result, err := a.Pipeline.Handle(ctx, query)
		if err != nil {
			fmt.Printf("error: %v\n", err)

			continue
		}

		printResult(result)
	}

	return exitSuccess
}

func printResult(result service.PipelineResult) {
	intent := result.Intent

	if intent.FallbackUsed {
		fmt.Printf("intent: %s (fallback, best %.3f)\n", intent.Intent, intent.Confidence)
	} else {
		fmt.Printf("intent: %s (%.3f, matched %q)\n", intent.Intent, intent.Confidence, intent.ExemplarPhrase)
	}

	for i, p := range result.Products {
		fmt.Printf("  %d. %s ($%.2f) similarity %.3f\n", i+1, p.Name, p.Price, p.Similarity)
	}
}
