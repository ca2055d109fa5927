package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/redpen/internal/batch"
	"github.com/jackzampolin/redpen/internal/diff"
	"github.com/jackzampolin/redpen/internal/edits"
	"github.com/jackzampolin/redpen/internal/metrics"
	"github.com/jackzampolin/redpen/internal/prompts/copyedit"
	"github.com/jackzampolin/redpen/internal/providers"
	"github.com/jackzampolin/redpen/internal/store"
	"github.com/jackzampolin/redpen/internal/types"
)

// processBatch sends one batch to the backend and applies the returned
// operations to each of its chapters. Every chapter ends completed, failed,
// or (after a stop) back at not_started.
func (s *Scheduler) processBatch(ctx, stopCtx context.Context, workerID int, b *batch.Batch) {
	logger := s.logger.With("run_id", s.runID, "worker", workerID, "batch", b.Index)

	for _, ch := range b.Chapters {
		s.setStatus(ctx, ch, types.StatusInProgress, "")
		s.emit(s.chapterEvent(EventChapterStarted, ch, b, workerID))
	}

	user, lm := copyedit.BuildBatchWithContext(b.Chapters, s.contextFor(b))
	req := &providers.GenerateRequest{
		SystemPrompt: s.systemPrompt,
		UserContent:  user,
		Model:        s.model,
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
		RequestID:    uuid.NewString(),
	}

	start := time.Now()
	res, attempts, err := s.generate(ctx, stopCtx, req, logger)
	opts := metrics.RecordOpts{
		RunID:      s.runID,
		ProjectID:  s.projectID,
		BatchIndex: b.Index,
		WorkerID:   workerID,
		Attempts:   attempts,
	}
	if errors.Is(err, ErrStopped) {
		s.cancelBatch(ctx, b, workerID)
		return
	}
	if err != nil {
		s.recorder.RecordError(opts, s.gen.Name(), s.model, errorType(err), time.Since(start))
		logger.Error("backend call failed", "attempts", attempts, "error", err)
		s.failBatch(ctx, b, workerID, err)
		return
	}
	if rerr := s.recorder.RecordCall(opts, res); rerr != nil {
		logger.Warn("failed to record metrics", "error", rerr)
	}

	ops, perr := edits.ParseWithLimit(res.Content, lm.Total())
	var parseErrs edits.ParseErrors
	errors.As(perr, &parseErrs)
	if len(ops) == 0 && len(parseErrs) > 0 {
		err := fmt.Errorf("%w: %v", ErrMalformedResponse, perr)
		logger.Warn("no valid operations in response", "parse_errors", len(parseErrs))
		s.failBatch(ctx, b, workerID, err)
		return
	}
	if len(parseErrs) > 0 {
		logger.Warn("skipped malformed operations", "count", len(parseErrs), "first", parseErrs[0].Error())
	}

	routed, routeIssues := lm.Route(ops)
	issues := make(map[string][]edits.ApplyIssue)
	for _, ri := range routeIssues {
		id := ri.ChapterID
		if id == "" {
			id = b.Chapters[0].ID
		}
		issues[id] = append(issues[id], ri.ApplyIssue)
	}

	warnings := make([]string, 0, len(parseErrs))
	for _, pe := range parseErrs {
		warnings = append(warnings, pe.Error())
	}

	for _, ch := range b.Chapters {
		result := edits.Apply(ch.Lines, routed[ch.ID],
			edits.WithParseErrors(parseErrs),
			edits.WithIssues(issues[ch.ID]...))
		for _, issue := range result.Issues {
			logger.Info("edit not applied as written",
				"chapter", ch.ID,
				"kind", issue.Kind,
				"op_index", issue.Index,
				"op", issue.Op.String(),
				"detail", issue.Detail)
		}
		rec := diff.Compute(result.Original, result.Edited)

		cr := &store.ChapterResult{
			ChapterID:        ch.ID,
			ChapterNumber:    ch.Number,
			Title:            ch.Title,
			Original:         result.Original,
			Edited:           result.Edited,
			Applied:          result.Applied,
			Counts:           result.Counts,
			Issues:           result.Issues,
			Warnings:         warnings,
			Diff:             rec.Stats,
			RunID:            s.runID,
			BatchIndex:       b.Index,
			WorkerID:         workerID,
			Style:            s.style,
			PromptHash:       s.promptHash,
			Model:            res.ModelUsed,
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
			CostUSD:          res.CostUSD,
			RawResponse:      res.Content,
			ProcessedAt:      time.Now().UTC(),
		}
		if err := s.store.SaveResult(context.WithoutCancel(ctx), s.projectID, cr); err != nil {
			s.failChapter(ctx, ch, b, workerID, fmt.Errorf("save result: %w", err))
			continue
		}
		s.completeChapter(ctx, ch, b, workerID, result, rec.Stats)
	}
}

// contextFor returns the neighbouring chapters shown around b, if enabled.
func (s *Scheduler) contextFor(b *batch.Batch) copyedit.Context {
	if s.contextLines <= 0 || len(s.chapters) == 0 || len(b.Chapters) == 0 {
		return copyedit.Context{}
	}
	first, last := b.Chapters[0].ID, b.Chapters[len(b.Chapters)-1].ID
	c := copyedit.Context{Lines: s.contextLines}
	for i, ch := range s.chapters {
		if ch.ID == first && i > 0 {
			c.Previous = s.chapters[i-1]
		}
		if ch.ID == last && i+1 < len(s.chapters) {
			c.Next = s.chapters[i+1]
		}
	}
	return c
}

func (s *Scheduler) completeChapter(ctx context.Context, ch *types.Chapter, b *batch.Batch, workerID int, result *edits.Result, stats diff.Stats) {
	s.setStatus(ctx, ch, types.StatusCompleted, "")

	s.mu.Lock()
	s.completed++
	s.mu.Unlock()

	metrics.ChaptersProcessed.WithLabelValues(string(types.StatusCompleted)).Inc()
	metrics.EditsApplied.WithLabelValues("replace").Add(float64(result.Counts.Replacements))
	metrics.EditsApplied.WithLabelValues("insert").Add(float64(result.Counts.Insertions))
	metrics.EditsApplied.WithLabelValues("delete").Add(float64(result.Counts.Deletions))
	metrics.EditsApplied.WithLabelValues("merge").Add(float64(result.Counts.Merges))
	for _, is := range result.Issues {
		metrics.EditIssues.WithLabelValues(string(is.Kind)).Inc()
	}

	e := s.chapterEvent(EventChapterCompleted, ch, b, workerID)
	counts := result.Counts
	e.Counts = &counts
	e.Diff = &stats
	e.Issues = len(result.Issues)
	s.emit(e)
}

func (s *Scheduler) failChapter(ctx context.Context, ch *types.Chapter, b *batch.Batch, workerID int, cause error) {
	err := &ChapterError{ChapterID: ch.ID, Cause: cause}
	s.setStatus(ctx, ch, types.StatusFailed, err.Error())

	s.mu.Lock()
	s.failed++
	s.mu.Unlock()

	metrics.ChaptersProcessed.WithLabelValues(string(types.StatusFailed)).Inc()
	e := s.chapterEvent(EventChapterFailed, ch, b, workerID)
	e.Error = err.Error()
	s.emit(e)
}

// failBatch fails every chapter of b with the same cause.
func (s *Scheduler) failBatch(ctx context.Context, b *batch.Batch, workerID int, cause error) {
	for _, ch := range b.Chapters {
		s.failChapter(ctx, ch, b, workerID, cause)
	}
}

// cancelBatch returns the chapters of a batch abandoned by Stop to not_started.
func (s *Scheduler) cancelBatch(ctx context.Context, b *batch.Batch, workerID int) {
	for _, ch := range b.Chapters {
		s.setStatus(ctx, ch, types.StatusNotStarted, "")

		s.mu.Lock()
		s.cancelled++
		s.mu.Unlock()

		e := s.chapterEvent(EventChapterCancelled, ch, b, workerID)
		e.Error = ErrStopped.Error()
		s.emit(e)
	}
}

func (s *Scheduler) chapterEvent(kind EventKind, ch *types.Chapter, b *batch.Batch, workerID int) Event {
	return Event{
		Kind:          kind,
		ChapterID:     ch.ID,
		ChapterNumber: ch.Number,
		BatchIndex:    b.Index,
		WorkerID:      workerID,
	}
}
