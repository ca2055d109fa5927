// Package tokens estimates token counts for batching and cost display.
//
// The estimator never needs the network: the word-based fallback is always
// available, and an exact BPE encoder is layered on top only when requested
// and loadable.
package tokens

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultEncoding is used when the model has no known encoding.
	DefaultEncoding = "cl100k_base"

	// wordsPerToken is the fallback ratio: one token per 0.75 words.
	wordsPerToken = 0.75

	// Chat framing overhead: every message is wrapped as
	// <im_start>{role}\n{content}<im_end>\n and every reply is primed.
	tokensPerMessage = 4
	tokensPerReply   = 2
)

// Config configures an Estimator.
type Config struct {
	// Exact enables the BPE tokenizer. Loading the encoding may fetch
	// vocabulary files; on any failure the estimator falls back silently
	// after logging a warning.
	Exact bool

	// Model selects the encoding (e.g. "gpt-4o"). Empty uses DefaultEncoding.
	Model string

	Logger *slog.Logger
}

// Estimator maps text to a token count.
// Safe for concurrent use.
type Estimator struct {
	enc *tiktoken.Tiktoken
}

// NewEstimator creates an estimator. It never fails: if the exact encoder
// cannot be loaded the word-based fallback is used.
func NewEstimator(cfg Config) *Estimator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Estimator{}
	if !cfg.Exact {
		return e
	}

	enc, err := loadEncoding(cfg.Model)
	if err != nil {
		logger.Warn("exact tokenizer unavailable, using word estimate",
			"model", cfg.Model,
			"error", err)
		return e
	}
	e.enc = enc
	return e
}

// Fallback returns an estimator that only uses the word-based heuristic.
func Fallback() *Estimator {
	return &Estimator{}
}

func loadEncoding(model string) (*tiktoken.Tiktoken, error) {
	if model != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return enc, nil
		}
	}
	return tiktoken.GetEncoding(DefaultEncoding)
}

// Exact reports whether the BPE encoder is in use.
func (e *Estimator) Exact() bool {
	return e != nil && e.enc != nil
}

// Estimate returns the token count of text. Never negative.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	if e.Exact() {
		return len(e.enc.Encode(text, nil, nil))
	}
	return EstimateWords(len(strings.Fields(text)))
}

// CountMessages estimates the prompt size of a system + user chat exchange,
// including message framing.
func (e *Estimator) CountMessages(system, user string) int {
	n := tokensPerReply
	for _, content := range []string{system, user} {
		n += tokensPerMessage + e.Estimate(content)
	}
	return n
}

// EstimateWords converts a word count to tokens: ceil(words / 0.75).
func EstimateWords(words int) int {
	if words <= 0 {
		return 0
	}
	// ceil(w / 0.75) == ceil(4w / 3)
	return (4*words + 2) / 3
}
