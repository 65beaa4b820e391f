package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carrivo/assistant/config"
	"github.com/carrivo/assistant/internal/embedding"
	"github.com/carrivo/assistant/internal/search"
	"github.com/carrivo/assistant/internal/store"
)

const backfillBatchSize = 10

func backfillCmd() *cobra.Command {
	var execute bool
	var force bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Generate embeddings for rows that are missing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(configPath(cmd), execute, force)
		},
	}
	cmd.Flags().BoolVar(&execute, "execute", false, "write embeddings (default is a dry run)")
	cmd.Flags().BoolVar(&force, "force", false, "re-embed every row, not just rows without a vector")
	return cmd
}

func runBackfill(cfgPath string, execute, force bool) error {
	cfg := config.LoadConfig(cfgPath)
	logger := log.New(os.Stdout, "[BACKFILL] ", log.LstdFlags)
	ctx := context.Background()

	st, err := store.New(ctx, cfg.Storage.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer st.Close()

	embedder := embedding.New(cfg.Embedding, logger)
	if !embedder.Available() {
		return fmt.Errorf("embedding service unavailable at %s", cfg.Embedding.BaseURL)
	}

	embedFAQ := func(faq search.FAQ) error {
		if !execute {
			logger.Printf("would embed faq %s (%s)", faq.ID, faq.QuestionEn)
			return nil
		}
		vec, err := embedder.Embed(ctx, faqEmbeddingText(faq))
		if err != nil {
			return fmt.Errorf("embed faq %s: %w", faq.ID, err)
		}
		return st.UpdateFAQEmbedding(ctx, faq.ID, vec)
	}
	embedRoadmap := func(guide search.RoadmapGuide) error {
		if !execute {
			logger.Printf("would embed roadmap %s (%s)", guide.ID, guide.Title)
			return nil
		}
		vec, err := embedder.Embed(ctx, roadmapEmbeddingText(guide))
		if err != nil {
			return fmt.Errorf("embed roadmap %s: %w", guide.ID, err)
		}
		return st.UpdateRoadmapEmbedding(ctx, guide.ID, vec)
	}

	faqTotal := 0
	roadmapTotal := 0

	if force {
		faqs, err := st.ActiveFAQs(ctx)
		if err != nil {
			return fmt.Errorf("list faqs: %w", err)
		}
		for _, faq := range faqs {
			if err := embedFAQ(faq); err != nil {
				return err
			}
			faqTotal++
		}
		guides, err := st.PublishedRoadmaps(ctx, "")
		if err != nil {
			return fmt.Errorf("list roadmaps: %w", err)
		}
		for _, guide := range guides {
			if err := embedRoadmap(guide); err != nil {
				return err
			}
			roadmapTotal++
		}
	} else {
		for {
			faqs, err := st.FAQsMissingEmbedding(ctx, backfillBatchSize)
			if err != nil {
				return fmt.Errorf("list faqs: %w", err)
			}
			if len(faqs) == 0 {
				break
			}
			for _, faq := range faqs {
				if err := embedFAQ(faq); err != nil {
					return err
				}
				faqTotal++
			}
			// A dry run never shrinks the missing set, so one batch
			// is enough to show what would happen.
			if !execute {
				break
			}
		}
		for {
			guides, err := st.RoadmapsMissingEmbedding(ctx, backfillBatchSize)
			if err != nil {
				return fmt.Errorf("list roadmaps: %w", err)
			}
			if len(guides) == 0 {
				break
			}
			for _, guide := range guides {
				if err := embedRoadmap(guide); err != nil {
					return err
				}
				roadmapTotal++
			}
			if !execute {
				break
			}
		}
	}

	verb := "embedded"
	if !execute {
		verb = "would embed"
	}
	logger.Printf("%s %d faqs and %d roadmaps", verb, faqTotal, roadmapTotal)
	return nil
}

func faqEmbeddingText(f search.FAQ) string {
	return joinNonEmpty(f.QuestionAr, f.QuestionEn, f.AnswerAr, f.AnswerEn)
}

func roadmapEmbeddingText(g search.RoadmapGuide) string {
	return joinNonEmpty(g.Title, g.Description, g.Category)
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
