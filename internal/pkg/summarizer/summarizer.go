// Package summarizer produces short summaries of posts, either locally or via
// an OpenAI-compatible HTTP endpoint, and runs them in the background.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yigit/campusblog/internal/config"
)

// DefaultMaxLength bounds a summary when the configuration gives no limit
const DefaultMaxLength = 280

// Summarizer turns a post into a short summary
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

// New builds the summarizer selected by the summary provider setting
func New(cfg *config.Config) (Summarizer, error) {
	switch cfg.Summary.Provider {
	case config.SummaryProviderExtractive, "":
		return NewExtractive(cfg.Summary.MaxLength), nil
	case config.SummaryProviderHTTP:
		remote, err := NewHTTPSummarizer(HTTPConfig{
			Endpoint:  cfg.Summary.Endpoint,
			APIKey:    cfg.Summary.APIKey,
			Model:     cfg.Summary.Model,
			MaxLength: cfg.Summary.MaxLength,
		})
		if err != nil {
			return nil, err
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.Summary.Provider)
	}
}

// Extractive summarizes by keeping the leading sentences of the content that
// fit within MaxLength runes. It needs no network and never fails.
type Extractive struct {
	MaxLength int
}

// NewExtractive creates an extractive summarizer
func NewExtractive(maxLength int) *Extractive {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Extractive{MaxLength: maxLength}
}

// Summarize implements Summarizer
func (e *Extractive) Summarize(ctx context.Context, title, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := strings.Join(strings.Fields(content), " ")
	if text == "" {
		text = strings.Join(strings.Fields(title), " ")
	}

	var summary strings.Builder
	for _, sentence := range splitSentences(text) {
		if summary.Len() > 0 && utf8.RuneCountInString(summary.String())+1+utf8.RuneCountInString(sentence) > e.MaxLength {
			break
		}
		if summary.Len() > 0 {
			summary.WriteByte(' ')
		}
		summary.WriteString(sentence)
	}

	return truncate(summary.String(), e.MaxLength), nil
}

// splitSentences splits on '.', '!' or '?' followed by whitespace
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if (r == '.' || r == '!' || r == '?') && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			sentences = append(sentences, strings.TrimSpace(string(runes[start:i+1])))
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// truncate cuts s to at most max runes, ending with an ellipsis when cut
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRightFunc(string(runes[:max-1]), unicode.IsSpace)
	return cut + "…"
}
