// Package ask answers course questions over indexed materials.
//
// A question is embedded, the class's nearest chunks are retrieved,
// assembled into a bounded context block, and handed to the model
// together with the question. The answer is returned with a ranked
// source list so students can check where it came from.
package ask

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/askcampus/askcampus/internal/vecindex"
)

// Retrieval and assembly limits.
const (
	// DefaultTopK is the retrieval depth when the caller does not ask
	// for one.
	DefaultTopK = 24

	// MaxTopK caps caller-requested retrieval depth.
	MaxTopK = 50

	// ScoreThreshold drops hits below this cosine similarity before
	// assembly.
	ScoreThreshold = 0.25

	// ContextCap bounds how many chunks enter the prompt context.
	ContextCap = 20

	// SnippetChars bounds each chunk's contribution to the context.
	SnippetChars = 700

	// PreviewChars bounds the text preview attached to each source.
	PreviewChars = 240

	// MaxSources bounds the ranked source list.
	MaxSources = 8
)

const systemPrompt = `You are a course assistant. Answer the student's question using only the provided course material excerpts. If the excerpts do not contain the answer, say that you cannot find it in the course materials. Be concise and cite the material names you drew from.`

// Searcher defines the retrieval operation Service needs.
// *vecindex.Index satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...vecindex.SearchOption) ([]vecindex.Hit, error)
}

// ClassStore resolves a class's name before retrieval; a missing class
// reports material.ErrNotFound.
type ClassStore interface {
	FindClassName(ctx context.Context, classID int32) (string, error)
}

// Generator produces the model answer for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Source is one material the answer drew from, ranked by its best
// chunk's relevance.
type Source struct {
	MaterialID int32
	Name       string
	FileName   string
	Score      float64
	Preview    string
}

// Answer is the model's response plus its ranked sources.
type Answer struct {
	Text    string
	Sources []Source
}

// Service answers questions against one class's indexed materials.
type Service struct {
	searcher Searcher
	classes  ClassStore
	gen      Generator
	logger   *slog.Logger
}

// NewService creates an ask Service.
func NewService(searcher Searcher, classes ClassStore, gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		searcher: searcher,
		classes:  classes,
		gen:      gen,
		logger:   logger,
	}
}

// Ask retrieves the class's most relevant chunks for the question and
// generates an answer over them. topK <= 0 uses DefaultTopK; values
// above MaxTopK are clamped. A question with no retrievable context is
// still answered, with an explicit empty context block.
func (s *Service) Ask(ctx context.Context, question string, classID int32, topK int) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("question must not be empty")
	}

	className, err := s.classes.FindClassName(ctx, classID)
	if err != nil {
		return Answer{}, fmt.Errorf("class %d: %w", classID, err)
	}

	topK = clampTopK(topK)

	hits, err := s.searcher.Search(ctx, question,
		vecindex.WithClass(classID),
		vecindex.WithTopK(topK),
		vecindex.WithThreshold(ScoreThreshold),
	)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieving context: %w", err)
	}

	prompt := buildPrompt(question, classID, className, hits)

	text, err := s.gen.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	sources := rankSources(hits)
	s.logger.Debug("question answered",
		"class_id", classID, "hits", len(hits), "sources", len(sources))

	return Answer{Text: text, Sources: sources}, nil
}

func clampTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// buildPrompt assembles the course context line, the capped and
// truncated excerpt block, and the question. Each excerpt carries a
// "Source [id | name]:" tag so the model can attribute, and with no
// hits the context is an explicit "(none)" so the model never
// hallucinates missing material.
func buildPrompt(question string, classID int32, className string, hits []vecindex.Hit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course context: classId=%d courseName=%s\n\n", classID, className)
	b.WriteString("Course material excerpts:\n")

	if len(hits) == 0 {
		b.WriteString("(none)\n")
	}
	for i, h := range hits {
		if i >= ContextCap {
			break
		}
		fmt.Fprintf(&b, "Source [%d | %s]: %s\n", h.MaterialID, h.Name, truncate(h.Text, SnippetChars))
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// rankSources groups hits by material and ranks materials by their
// best chunk's relevance, capped at MaxSources. A material's many
// mediocre chunks never outrank another's single excellent one.
func rankSources(hits []vecindex.Hit) []Source {
	best := make(map[int32]Source)
	for _, h := range hits {
		score := FromDistance(h.Distance).Score()
		cur, seen := best[h.MaterialID]
		if !seen || score > cur.Score {
			best[h.MaterialID] = Source{
				MaterialID: h.MaterialID,
				Name:       h.Name,
				FileName:   h.FileName,
				Score:      score,
				Preview:    truncate(h.Text, PreviewChars),
			}
		}
	}

	sources := make([]Source, 0, len(best))
	for _, src := range best {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Score != sources[j].Score {
			return sources[i].Score > sources[j].Score
		}
		return sources[i].MaterialID < sources[j].MaterialID
	})

	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}
	return sources
}

// truncate bounds text to max runes, marking the cut with an ellipsis.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
