package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/extract"
	"github.com/addness-teambase/ai-file-search/internal/index"
	"github.com/addness-teambase/ai-file-search/internal/llm"
	"github.com/addness-teambase/ai-file-search/internal/logging"
)

const (
	// maxExtractChars bounds how much extracted text is sent to the model.
	maxExtractChars = 8000
	// minContentChars is the threshold below which we summarize from the
	// filename instead of the content.
	minContentChars = 30
	// minSummaryChars is the shortest generation accepted as a summary.
	minSummaryChars = 10

	summaryTemperature = 0.4
	summaryMaxTokens   = 1000
)

// Summarizer produces a natural-language description of one file. It never
// fails visibly: extraction problems fall back to a filename-based prompt,
// and generation problems fall back to a canned description, so downstream
// rendering always has something to show.
type Summarizer struct {
	client llm.Client
	logger *zap.Logger
}

// NewSummarizer returns a Summarizer backed by client.
func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{client: client, logger: logging.Named("summarize")}
}

// Summarize describes file in relation to query. The second return value is
// the number of extracted characters actually used.
func (s *Summarizer) Summarize(ctx context.Context, file index.FileEntry, query string) (string, int) {
	content, err := extract.Text(file.Path, file.Extension)
	if err != nil {
		s.logger.Debug("extraction yielded no text",
			zap.String("file", file.Name), zap.Error(err))
		content = ""
	}
	if runes := []rune(content); len(runes) > maxExtractChars {
		content = string(runes[:maxExtractChars])
	}

	var prompt string
	if len([]rune(content)) >= minContentChars {
		prompt = contentPrompt(file.Name, query, content)
	} else {
		content = ""
		prompt = filenamePrompt(file.Name, file.Extension, query)
	}

	text, err := s.client.Generate(ctx, llm.Request{
		Prompt:          prompt,
		Temperature:     summaryTemperature,
		MaxOutputTokens: summaryMaxTokens,
	})
	if err != nil || len(strings.TrimSpace(text)) < minSummaryChars {
		if err != nil {
			s.logger.Debug("summary generation failed",
				zap.String("file", file.Name), zap.Error(err))
		}
		return fallbackSummary(file.Name, file.Extension, query), len(content)
	}
	return strings.TrimSpace(text), len(content)
}

func contentPrompt(name, query, content string) string {
	return fmt.Sprintf(`You are an assistant that summarizes file contents.

The user's search query: "%s"

Summarize the document below with the query's relevance in mind.
- Use 3 to 5 sentences.
- Cover the document's main points.
- Include concrete figures and proper nouns where present.

File name: %s

Document content:
%s

Summary (3-5 sentences):`, query, name, content)
}

func filenamePrompt(name, ext, query string) string {
	return fmt.Sprintf(`You are an assistant that guesses file contents.

The user's search query: "%s"

Describe what the file below likely contains, judging from its name.
- Use 2 to 3 sentences.
- Guess the file's kind and purpose.
- Explain how it may relate to the query.

File name: %s
File format: %s

Description (2-3 sentences):`, query, name, strings.ToUpper(ext))
}

func fallbackSummary(name, ext, query string) string {
	return fmt.Sprintf("%s - a %s file. It may be related to \"%s\". Open the file directly to review its contents.",
		name, strings.ToUpper(ext), query)
}
