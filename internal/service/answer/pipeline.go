// Package answer runs a question through the full reply pipeline: language
// resolution, translation, retrieval, generation and outbreak annotation.
package answer

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gramacare/backend/internal/service/ai"
	"github.com/gramacare/backend/internal/service/language"
	"github.com/gramacare/backend/internal/service/outbreak"
	"github.com/gramacare/backend/internal/service/retrieval"
)

// ErrEmptyQuery is returned when the question is blank.
var ErrEmptyQuery = errors.New("query required")

// Generator produces an English answer from an English question plus context.
type Generator interface {
	GenerateAnswer(ctx context.Context, question string, contextChunks []string) (string, error)
}

// Pipeline answers user questions. Every collaborator except the retriever
// may be nil; the pipeline degrades rather than fails.
type Pipeline struct {
	retriever  *retrieval.Service
	generator  Generator
	translator language.Translator
	outbreaks  *outbreak.Client
	gate       bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGenerator sets the model-backed generator. Without one, answers come
// from the retrieval fallback.
func WithGenerator(g Generator) Option {
	return func(p *Pipeline) { p.generator = g }
}

// WithTranslator sets the translator for non-English questions.
func WithTranslator(t language.Translator) Option {
	return func(p *Pipeline) { p.translator = t }
}

// WithOutbreakClient enables outbreak notes on covid and dengue questions.
func WithOutbreakClient(c *outbreak.Client) Option {
	return func(p *Pipeline) { p.outbreaks = c }
}

// WithHealthGate rejects questions without healthcare keywords.
func WithHealthGate(enabled bool) Option {
	return func(p *Pipeline) { p.gate = enabled }
}

// NewPipeline builds a pipeline over the given retriever.
func NewPipeline(retriever *retrieval.Service, opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever:  retriever,
		translator: language.NoopTranslator{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.translator == nil {
		p.translator = language.NoopTranslator{}
	}
	return p
}

// Answer resolves the reply and its language for one question. langHint is
// the caller's language preference; "auto" or "" detects from the text.
func (p *Pipeline) Answer(ctx context.Context, query, langHint string) (string, string, error) {
	if strings.TrimSpace(query) == "" {
		return "", "", ErrEmptyQuery
	}

	if p.gate && !isHealthRelated(query) {
		return RefusalReply, "en", nil
	}

	target := language.Resolve(query, langHint)

	questionEN := query
	if target != "en" {
		questionEN = p.translator.Translate(ctx, query, "en")
	}

	chunks := p.retriever.Retrieve(ctx, questionEN)

	answerEN := p.generate(ctx, questionEN, chunks)

	if p.outbreaks != nil && outbreak.Relevant(questionEN) {
		if note := p.outbreaks.Note(ctx); note != "" {
			answerEN += "\n\n" + note
		}
	}

	reply := answerEN
	if target != "en" {
		reply = p.translator.Translate(ctx, answerEN, target)
	}
	return reply, target, nil
}

func (p *Pipeline) generate(ctx context.Context, questionEN string, chunks []string) string {
	if p.generator == nil {
		return ai.FallbackAnswer(chunks)
	}

	answer, err := p.generator.GenerateAnswer(ctx, questionEN, chunks)
	if err != nil {
		log.Printf("[answer] generation failed, using fallback: %v", err)
		return ai.FallbackAnswer(chunks)
	}
	return answer
}
