package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/xhad/ragmem/internal/models"
	appErr "github.com/xhad/ragmem/internal/pkg/errors"
	"github.com/xhad/ragmem/pkg/processor"
	"github.com/xhad/ragmem/pkg/rag"
)

type chatFlags struct {
	file    string
	url     string
	sources bool
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	var cf chatFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Load a text file or URL into memory and ask questions about it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			// Keep the terminal for the REPL unless asked otherwise.
			if !cmd.Flags().Changed("log-level") && cfg.Log.Level == "info" {
				cfg.Log.Level = "warn"
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			var bar atomic.Pointer[progressbar.ProgressBar]
			svc, err := newService(cfg, logger, func(done, total int) {
				if b := bar.Load(); b != nil {
					_ = b.Set(done)
				}
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			switch {
			case cf.file != "":
				data, err := os.ReadFile(cf.file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", cf.file, err)
				}
				color.Blue("\nLoading %s into memory\n", cf.file)
				if err := ingest(ctx, svc, &bar, cfg.Processor.ChunkSize, string(data)); err != nil {
					return err
				}
			case cf.url != "":
				var scraped int32
				s := newScraper(cfg, func(string) { atomic.AddInt32(&scraped, 1) })

				color.Blue("\nStarting pipeline for %s\n", cf.url)
				spinner := getSpinner("📄 Scraping pages...")
				stopTicker := tick(func() {
					spinner.Describe(color.CyanString("📄 Scraping pages... (%d fetched)", atomic.LoadInt32(&scraped)))
				})
				pages, err := s.Scrape(ctx, cf.url)
				stopTicker()
				_ = spinner.Finish()
				if err != nil {
					return fmt.Errorf("failed to scrape %s: %w", cf.url, err)
				}
				color.Green("\n✓ Scraped %d pages\n", len(pages))
				if err := ingest(ctx, svc, &bar, cfg.Processor.ChunkSize, joinPages(pages)); err != nil {
					return err
				}
			default:
				color.Yellow("\nNo --file or --url given; answers will have no context.")
			}

			return repl(ctx, svc, cf.sources)
		},
	}

	cmd.Flags().StringVar(&cf.file, "file", "", "Text file to load")
	cmd.Flags().StringVar(&cf.url, "url", "", "URL to scrape and load")
	cmd.Flags().BoolVar(&cf.sources, "sources", false, "Print the retrieved chunks with every answer")
	return cmd
}

func ingest(ctx context.Context, svc *rag.Service, bar *atomic.Pointer[progressbar.ProgressBar], chunkSize int, text string) error {
	b := getProgressBar(chunkCount(chunkSize, text), "🔄 Embedding chunks...")
	bar.Store(b)
	defer bar.Store(nil)

	result, err := svc.StoreText(ctx, text)
	_ = b.Finish()
	if err != nil && !errors.Is(err, appErr.ErrEmbeddingService) {
		return fmt.Errorf("failed to store text: %w", err)
	}
	if result.Embedded == 0 {
		color.Red("\n✗ None of %d chunks could be embedded; is the embedding model available?\n", result.Chunks)
		return nil
	}
	color.Green("\n✓ Stored %d of %d chunks", result.Embedded, result.Chunks)
	if result.Failed > 0 {
		color.Yellow(" (%d failed)", result.Failed)
	}
	fmt.Println()
	return nil
}

// chunkCount is the number of chunks StoreText will embed for text.
func chunkCount(chunkSize int, text string) int {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: chunkSize})
	chunks, err := p.Split(text)
	if err != nil {
		return 0
	}
	return len(chunks)
}

func joinPages(pages []models.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Content) != "" {
			parts = append(parts, p.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func repl(ctx context.Context, svc *rag.Service, showSources bool) error {
	// Interactive chat loop with colored output
	color.Cyan("\nChat with your knowledge base (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if strings.ToLower(query) == "exit" {
			break
		}
		if query == "" {
			continue
		}

		responseSpinner := getSpinner("🤖 Generating response...")
		reply, err := svc.Ask(ctx, query)
		_ = responseSpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		if showSources {
			for _, src := range reply.Sources {
				color.New(color.Faint).Printf("  [%d] %.3f %s\n", src.Chunk.Index, src.Score, preview(src.Chunk.Text, 80))
			}
		}
		assistantPrompt("Assistant: %s\n", reply.Answer)
	}

	return scanner.Err()
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > n {
		return string(r[:n]) + "…"
	}
	return text
}

// tick runs fn every 100ms until the returned stop func is called.
func tick(fn func()) func() {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fn()
			}
		}
	}()
	return func() { close(done) }
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
