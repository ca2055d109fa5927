package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jackzampolin/redpen/internal/batch"
	"github.com/jackzampolin/redpen/internal/chapters"
	"github.com/jackzampolin/redpen/internal/svcctx"
	"github.com/jackzampolin/redpen/internal/types"
)

// projectFlag overrides the project id derived from the chapters directory.
var projectFlag string

// project is a directory of chapter files and the id its results live under.
type project struct {
	ID       string
	Dir      string
	Chapters []*types.Chapter
}

// chapter returns the chapter with the given id or number.
func (p *project) chapter(ref string) (*types.Chapter, error) {
	for _, ch := range p.Chapters {
		if ch.ID == ref || fmt.Sprint(ch.Number) == ref {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("no chapter %q in %s", ref, p.Dir)
}

var unsafeIDChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// projectID derives a project id from a directory name.
func projectID(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	id := unsafeIDChars.ReplaceAllString(strings.ToLower(filepath.Base(abs)), "-")
	id = strings.Trim(id, "-.")
	if id == "" {
		return "default"
	}
	return id
}

// loadProject reads the chapters of dir.
func loadProject(svcs *svcctx.Services, dir string) (*project, error) {
	id := projectFlag
	if id == "" {
		id = projectID(dir)
	}

	chs, err := chapters.Load(chapters.Request{
		Dir:     dir,
		Counter: svcs.Estimator,
		Logger:  svcs.Logger,
	})
	if err != nil {
		return nil, err
	}
	if len(chs) == 0 {
		return nil, fmt.Errorf("no chapter files (%s) in %s", strings.Join(chapters.Extensions, ", "), dir)
	}
	if err := svcs.Home.EnsureProjectDir(id); err != nil {
		return nil, err
	}
	return &project{ID: id, Dir: dir, Chapters: chs}, nil
}

// planBatches sizes the batch budget for systemPrompt and groups chapters.
func planBatches(svcs *svcctx.Services, chs []*types.Chapter, systemPrompt string) (*batch.Plan, error) {
	cfg := svcs.Config.Get()
	budget := batch.Budget(
		cfg.LLM.MaxContextTokens,
		svcs.Estimator.CountMessages(systemPrompt, ""),
		cfg.Processing.SafetyMargin,
	)
	return batch.MakeWithOptions(chs, budget, batch.Options{
		MaxChapters: cfg.Processing.MaxChaptersPerBatch,
	})
}
