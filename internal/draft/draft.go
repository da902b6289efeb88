// Package draft asks Gemini, grounded on Google Search, to write a document
// draft and collects the sources it cites.
package draft

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/iburimskiy/leafdraft/internal/config"
	"github.com/iburimskiy/leafdraft/internal/logging"
)

// SourceKind tells where a citation came from.
type SourceKind string

const (
	SourceWeb     SourceKind = "web"
	SourceMaps    SourceKind = "maps"
	SourceUnknown SourceKind = "unknown"
)

// defaultSourceTitle labels citations that arrive without a title.
const defaultSourceTitle = "Regulatory Source"

// Source is one grounding citation.
type Source struct {
	Title string     `json:"title"`
	URI   string     `json:"uri"`
	Kind  SourceKind `json:"source_type"`
}

// Document is a generated draft.
type Document struct {
	ID        string
	Prompt    string
	Content   string
	Sources   []Source
	CreatedAt time.Time
}

// Stage reports progress while a draft is produced.
type Stage int

const (
	StageSearching  Stage = iota // request sent, nothing received yet
	StageGenerating              // text is streaming in
)

func (s Stage) String() string {
	switch s {
	case StageSearching:
		return "searching"
	case StageGenerating:
		return "generating"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ContentStreamer is the part of the genai Models service used here.
type ContentStreamer interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Options tunes a Generator.
type Options struct {
	Model        string
	Temperature  float32
	GoogleSearch bool
	Timeout      time.Duration // 0 disables
}

// Generator produces drafts.
type Generator struct {
	models ContentStreamer
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New wraps a content streamer.
func New(models ContentStreamer, opts Options, logger *zap.Logger) *Generator {
	if opts.Model == "" {
		opts.Model = config.DefaultModel
	}
	return &Generator{
		models: models,
		opts:   opts,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// NewClient connects to the Gemini API using the draft config.
func NewClient(ctx context.Context, cfg config.DraftConfig, logger *zap.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return New(client.Models, Options{
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		GoogleSearch: cfg.GoogleSearch,
		Timeout:      timeout,
	}, logger), nil
}

// Generate drafts a document for request. progress, if set, is called with
// StageSearching once the request is sent and StageGenerating when the
// first text arrives.
func (g *Generator) Generate(ctx context.Context, request string, progress func(Stage)) (*Document, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, ErrEmptyPrompt
	}
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	id := uuid.NewString()
	log := g.logger.With(zap.String("request_id", id))
	log.Info("Drafting document",
		zap.String("prompt", request),
		zap.String("model", g.opts.Model),
		zap.Bool("google_search", g.opts.GoogleSearch))

	report(progress, StageSearching)

	var (
		text    strings.Builder
		sources sourceSet
		started bool
	)
	stream := g.models.GenerateContentStream(ctx, g.opts.Model, genai.Text(BuildPrompt(request)), g.contentConfig())
	for resp, err := range stream {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			log.Warn("Draft request failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrRequest, err)
		}
		chunk := responseText(resp)
		if chunk != "" && !started {
			started = true
			report(progress, StageGenerating)
		}
		text.WriteString(chunk)
		sources.addFrom(resp)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	content := strings.TrimSpace(text.String())
	if content == "" {
		log.Warn("Draft response was empty")
		return nil, ErrEmptyResponse
	}

	doc := &Document{
		ID:        id,
		Prompt:    request,
		Content:   content,
		Sources:   sources.list,
		CreatedAt: g.now(),
	}
	log.Info("Draft ready",
		zap.Int("chars", len(content)),
		zap.Int("sources", len(doc.Sources)))
	return doc, nil
}

func (g *Generator) contentConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.opts.Temperature),
	}
	if g.opts.GoogleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func report(progress func(Stage), s Stage) {
	if progress != nil {
		progress(s)
	}
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// sourceSet collects web citations in arrival order, one per URI.
type sourceSet struct {
	list []Source
	seen map[string]bool
}

func (s *sourceSet) addFrom(resp *genai.GenerateContentResponse) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		if s.seen[chunk.Web.URI] {
			continue
		}
		s.seen[chunk.Web.URI] = true

		title := strings.TrimSpace(chunk.Web.Title)
		if title == "" {
			title = defaultSourceTitle
		}
		s.list = append(s.list, Source{Title: title, URI: chunk.Web.URI, Kind: SourceWeb})
	}
}
