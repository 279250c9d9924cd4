// Package resolver decides how each utterance is answered: knowledge store
// lookup first, then the optional intent classifier, then the generative
// fallback — writing novel answers back into the knowledge store and every
// exchange into the session transcript.
package resolver

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brmartins/sabia/internal/intent"
	"github.com/brmartins/sabia/internal/knowledge"
	"github.com/brmartins/sabia/internal/llm"
	"github.com/brmartins/sabia/internal/memory"
	"github.com/brmartins/sabia/internal/normalize"
	"github.com/brmartins/sabia/internal/observability"
	"github.com/brmartins/sabia/internal/policy"
	"github.com/brmartins/sabia/internal/transcript"
)

// Source identifies which stage of the pipeline produced the answer.
type Source string

const (
	SourceInvalid   Source = "invalid"
	SourceKnowledge Source = "knowledge"
	SourceIntent    Source = "intent"
	SourceGenerated Source = "generated"
	SourceApology   Source = "apology"
)

// User-facing degradation strings. Every failure in the pipeline ends in one
// of these rather than an error surfaced to the caller.
const (
	AnswerInvalidQuery = "Envie uma mensagem válida."
	AnswerApology      = "Tive um problema ao tentar responder."
)

// Request is one utterance to resolve.
type Request struct {
	UserID    string
	SessionID string
	Text      string
}

// Result is the resolved answer. Failures arrive here as data (Source), never
// as an error from Resolve.
type Result struct {
	TurnID string `json:"turn_id"`
	Answer string `json:"answer"`
	Source Source `json:"source"`
}

// Config carries the resolver's tunables.
type Config struct {
	Model           string
	Temperature     float64
	SampleLimit     int
	GenerateTimeout time.Duration
	Persona         string
}

// Resolver orchestrates the answer pipeline.
type Resolver struct {
	cfg         Config
	knowledge   knowledge.Store
	memory      *memory.BufferStore
	transcripts transcript.Store
	classifier  intent.Classifier
	generator   llm.Client
	metrics     *observability.Metrics
}

func New(
	cfg Config,
	kb knowledge.Store,
	buf *memory.BufferStore,
	transcripts transcript.Store,
	classifier intent.Classifier,
	generator llm.Client,
	metrics *observability.Metrics,
) *Resolver {
	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = 5
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	if strings.TrimSpace(cfg.Persona) == "" {
		cfg.Persona = defaultPersona
	}
	if classifier == nil {
		classifier = intent.Disabled{}
	}
	return &Resolver{
		cfg:         cfg,
		knowledge:   kb,
		memory:      buf,
		transcripts: transcripts,
		classifier:  classifier,
		generator:   generator,
		metrics:     metrics,
	}
}

// Resolve runs the pipeline for one utterance. It never fails: invalid input
// and downstream errors degrade to a textual Result with the matching Source.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	started := time.Now()
	defer func() {
		r.observeStage("total", started)
	}()

	question := strings.TrimSpace(req.Text)
	key := normalize.Normalize(question)
	if key == "" {
		return r.finish(Result{TurnID: uuid.NewString(), Answer: AnswerInvalidQuery, Source: SourceInvalid})
	}

	// Fast path: the store already knows this question. No knowledge write.
	lookupStart := time.Now()
	answer, found, err := r.knowledge.FindAnswer(ctx, key)
	r.observeStage("lookup", lookupStart)
	if err != nil {
		// LookupFailure: treat as a miss and keep going.
		log.Printf("resolver: knowledge lookup failed, treating as miss: %v", err)
		r.countProviderError("knowledge")
		found = false
	}
	if found {
		res := Result{TurnID: uuid.NewString(), Answer: answer, Source: SourceKnowledge}
		r.memory.Append(req.UserID, question, answer)
		r.appendTranscript(ctx, req, res)
		return r.finish(res)
	}

	// Optional local classifier: a confident label answers without touching
	// the fallback or the knowledge store.
	classifyStart := time.Now()
	pred := r.classifier.Classify(key)
	r.observeStage("classify", classifyStart)
	if pred.Label != intent.LabelNoMatch {
		if canned, ok := r.classifier.Respond(pred.Label, key); ok {
			res := Result{TurnID: uuid.NewString(), Answer: canned, Source: SourceIntent}
			r.memory.Append(req.UserID, question, canned)
			r.appendTranscript(ctx, req, res)
			return r.finish(res)
		}
	}

	// Generative fallback.
	generateStart := time.Now()
	generated, err := r.generate(ctx, req.UserID, question)
	r.observeStage("generate", generateStart)
	if err != nil {
		// FallbackFailure: degrade to the fixed apology, never a fault.
		log.Printf("resolver: generation failed for user %s: %v", req.UserID, err)
		r.countProviderError("llm")
		res := Result{TurnID: uuid.NewString(), Answer: AnswerApology, Source: SourceApology}
		r.appendTranscript(ctx, req, res)
		return r.finish(res)
	}

	res := Result{TurnID: uuid.NewString(), Answer: generated, Source: SourceGenerated}

	// Best-effort accretion: a persistence failure loses the new entry but
	// never blocks the answer.
	persistStart := time.Now()
	inserted, err := r.knowledge.Insert(ctx, knowledge.Entry{
		Question:    question,
		QuestionKey: key,
		Answer:      generated,
		Origin:      knowledge.OriginGenerated,
	})
	if err != nil {
		log.Printf("resolver: knowledge insert failed for %q: %v", key, err)
		r.countProviderError("knowledge")
	} else if inserted && r.metrics != nil {
		r.metrics.KnowledgeInserts.WithLabelValues(string(knowledge.OriginGenerated)).Inc()
	}
	r.observeStage("persist", persistStart)

	r.memory.Append(req.UserID, question, generated)
	r.appendTranscript(ctx, req, res)
	return r.finish(res)
}

func (r *Resolver) generate(ctx context.Context, userID, question string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, r.cfg.GenerateTimeout)
	defer cancel()

	samples, err := r.knowledge.Sample(genCtx, r.cfg.SampleLimit)
	if err != nil {
		// Coarse retrieval only; prompt quality degrades, generation proceeds.
		log.Printf("resolver: knowledge sample failed: %v", err)
		samples = nil
	}

	resp, err := r.generator.Complete(genCtx, llm.Request{
		Model:       r.cfg.Model,
		Temperature: r.cfg.Temperature,
		Messages:    BuildPrompt(r.cfg.Persona, samples, r.memory.Context(userID), question),
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

// appendTranscript persists the turn to the session log, redacting PII first.
// PersistFailure here is logged and swallowed.
func (r *Resolver) appendTranscript(ctx context.Context, req Request, res Result) {
	if strings.TrimSpace(req.SessionID) == "" {
		return
	}
	question, redactedQ := policy.RedactPII(strings.TrimSpace(req.Text))
	answer, redactedA := policy.RedactPII(res.Answer)
	err := r.transcripts.AppendTurn(ctx, transcript.Turn{
		ID:        res.TurnID,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Question:  question,
		Answer:    answer,
		Source:    string(res.Source),
		Redacted:  redactedQ || redactedA,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("resolver: transcript append failed for session %s: %v", req.SessionID, err)
		r.countProviderError("transcript")
	}
}

func (r *Resolver) finish(res Result) Result {
	if r.metrics != nil {
		r.metrics.Resolutions.WithLabelValues(string(res.Source)).Inc()
	}
	return res
}

func (r *Resolver) observeStage(stage string, started time.Time) {
	if r.metrics == nil {
		return
	}
	d := time.Since(started)
	r.metrics.ObserveResolveStage(stage, d)
	if stage == "total" {
		r.metrics.ResolveLatency.Observe(float64(d.Milliseconds()))
	}
}

func (r *Resolver) countProviderError(provider string) {
	if r.metrics != nil {
		r.metrics.ProviderErrors.WithLabelValues(provider).Inc()
	}
}
