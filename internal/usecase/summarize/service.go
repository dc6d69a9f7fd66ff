// Package summarize produces article summaries with the language model. It is
// driven by summarize_article jobs and is safe to run more than once per article.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/domain/result"
	"newsletter-curator/internal/infra/llm"
	"newsletter-curator/internal/observability/logging"
	"newsletter-curator/internal/observability/metrics"
	"newsletter-curator/internal/repository"
)

// Outcome describes a successful run.
type Outcome string

const (
	OutcomeSummarized        Outcome = "summarized"
	OutcomeAlreadySummarized Outcome = "already_summarized"
	OutcomeNoContent         Outcome = "no_content"
)

// DefaultWordBudget is the approximate summary length requested from the model.
const DefaultWordBudget = 200

// ContentFetcher retrieves the readable text of an article page.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Service summarizes one article per call.
type Service struct {
	Articles repository.ArticleRepository
	LLM      llm.Client
	// Content is optional. When set, articles whose stored text is shorter
	// than EnrichBelow runes are summarized from the fetched page instead.
	Content     ContentFetcher
	EnrichBelow int
	WordBudget  int
}

// Summarize runs the idempotent summarization of articleID.
//
// Errors carry a result.Kind: not_found and config are final, transient may
// succeed on a later delivery.
func (s *Service) Summarize(ctx context.Context, articleID int64) result.Result[Outcome] {
	logger := logging.FromContext(ctx).With(slog.Int64("article_id", articleID))

	article, err := s.Articles.Get(ctx, articleID)
	if err != nil {
		return result.Wrap[Outcome](result.KindTransient, "load article", err)
	}
	if article == nil {
		return result.Err[Outcome](result.KindNotFound, fmt.Sprintf("Article with ID %d not found.", articleID))
	}

	if article.HasSummary() {
		metrics.RecordSummary(string(OutcomeAlreadySummarized))
		logger.Debug("article already summarized")
		return result.Ok(OutcomeAlreadySummarized)
	}

	text, ok := s.sourceText(ctx, article)
	if !ok {
		metrics.RecordSummary(string(OutcomeNoContent))
		logger.Info("article has no text to summarize")
		return result.Ok(OutcomeNoContent)
	}

	summary, err := s.LLM.Complete(ctx, BuildPrompt(text, s.wordBudget()))
	if err != nil {
		metrics.RecordSummary("failed")
		if errors.Is(err, llm.ErrNotConfigured) {
			logger.Warn("language model not configured, summary skipped")
			return result.Wrap[Outcome](result.KindConfig, "language model not configured", err)
		}
		return result.Wrap[Outcome](result.KindTransient, "language model call failed", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		metrics.RecordSummary("failed")
		return result.Err[Outcome](result.KindTransient, "language model returned empty summary")
	}

	updated, err := s.Articles.UpdateSummary(ctx, articleID, summary)
	if err != nil {
		return result.Wrap[Outcome](result.KindTransient, "store summary", err)
	}
	if !updated {
		// another delivery stored a summary between our read and write
		metrics.RecordSummary(string(OutcomeAlreadySummarized))
		return result.Ok(OutcomeAlreadySummarized)
	}

	metrics.RecordSummary(string(OutcomeSummarized))
	logger.Info("article summarized", slog.Int("summary_length", utf8.RuneCountInString(summary)))
	return result.Ok(OutcomeSummarized)
}

// HandleJob adapts Summarize to the queue handler signature.
func (s *Service) HandleJob(ctx context.Context, job *entity.Job) error {
	return s.Summarize(ctx, job.SubjectID).Err()
}

// sourceText picks full text, then summary, then title, preferring fetched page
// text when the stored text is short and enrichment is configured.
func (s *Service) sourceText(ctx context.Context, a *entity.Article) (string, bool) {
	if s.Content != nil && s.EnrichBelow > 0 && utf8.RuneCountInString(a.FullText) < s.EnrichBelow {
		fetched, err := s.Content.FetchContent(ctx, a.URL)
		if err != nil {
			slog.Debug("content enrichment failed, using stored text",
				slog.Int64("article_id", a.ID),
				slog.Any("error", err))
		} else if strings.TrimSpace(fetched) != "" && utf8.RuneCountInString(fetched) > utf8.RuneCountInString(a.FullText) {
			return fetched, true
		}
	}
	return a.SummarySource()
}

func (s *Service) wordBudget() int {
	if s.WordBudget > 0 {
		return s.WordBudget
	}
	return DefaultWordBudget
}

// BuildPrompt renders the summarization instruction followed by the text.
func BuildPrompt(text string, words int) string {
	return fmt.Sprintf("Summarize the following article concisely, focusing on key information, "+
		"in about %d words. Avoid jargon. If the text is empty or irrelevant, "+
		"return 'No relevant content to summarize.'\n\n%s", words, text)
}
