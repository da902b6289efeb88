package draft

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/iburimskiy/leafdraft/internal/config"
)

type step struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeStreamer struct {
	steps []step
	calls int

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeStreamer) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.calls++
	f.model, f.contents, f.config = model, contents, cfg
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, s := range f.steps {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(s.resp, s.err) {
				return
			}
		}
	}
}

func textChunk(text string, chunks ...*genai.GroundingChunk) *genai.GenerateContentResponse {
	c := &genai.Candidate{
		Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
	}
	if len(chunks) > 0 {
		c.GroundingMetadata = &genai.GroundingMetadata{GroundingChunks: chunks}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{c}}
}

func web(title, uri string) *genai.GroundingChunk {
	return &genai.GroundingChunk{Web: &genai.GroundingChunkWeb{Title: title, URI: uri}}
}

func newTestGenerator(f *fakeStreamer, opts Options) *Generator {
	g := New(f, opts, nil)
	g.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g
}

func TestGenerateCollectsTextAndSources(t *testing.T) {
	f := &fakeStreamer{steps: []step{
		{resp: textChunk("# Initial Study\n\n")},
		{resp: textChunk("## Executive Summary\n[Project Name]",
			web("", "https://example.gov/a"),
			web("CEQA Guidelines", "https://example.gov/b"),
			web("dup", "https://example.gov/a"),
			&genai.GroundingChunk{},
		)},
	}}
	g := newTestGenerator(f, Options{Temperature: 0.3, GoogleSearch: true})

	var stages []Stage
	doc, err := g.Generate(context.Background(), "  initial study for a solar farm  ", func(s Stage) {
		stages = append(stages, s)
	})
	require.NoError(t, err)

	assert.Equal(t, "# Initial Study\n\n## Executive Summary\n[Project Name]", doc.Content)
	assert.Equal(t, "initial study for a solar farm", doc.Prompt)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, 2026, doc.CreatedAt.Year())

	want := []Source{
		{Title: "Regulatory Source", URI: "https://example.gov/a", Kind: SourceWeb},
		{Title: "CEQA Guidelines", URI: "https://example.gov/b", Kind: SourceWeb},
	}
	if diff := cmp.Diff(want, doc.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Stage{StageSearching, StageGenerating}, stages)

	assert.Equal(t, config.DefaultModel, f.model)
	require.NotNil(t, f.config.Temperature)
	assert.Equal(t, float32(0.3), *f.config.Temperature)
	require.Len(t, f.config.Tools, 1)
	assert.NotNil(t, f.config.Tools[0].GoogleSearch)
	require.Len(t, f.contents, 1)
	assert.Contains(t, f.contents[0].Parts[0].Text, `"initial study for a solar farm"`)
}

func TestGenerateWithoutSearchTool(t *testing.T) {
	f := &fakeStreamer{steps: []step{{resp: textChunk("Memo")}}}
	g := newTestGenerator(f, Options{Model: "gemini-2.5-pro"})

	doc, err := g.Generate(context.Background(), "memo", nil)
	require.NoError(t, err)
	assert.Empty(t, f.config.Tools)
	assert.Equal(t, "gemini-2.5-pro", f.model)
	assert.Empty(t, doc.Sources)
}

func TestGenerateSkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "planning the outline", Thought: true},
			{Text: "Final text"},
		}},
	}}}
	g := newTestGenerator(&fakeStreamer{steps: []step{{resp: resp}}}, Options{})

	doc, err := g.Generate(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "Final text", doc.Content)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	f := &fakeStreamer{}
	g := newTestGenerator(f, Options{})

	_, err := g.Generate(context.Background(), " \n\t", nil)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Zero(t, f.calls)
}

func TestGenerateEmptyResponse(t *testing.T) {
	f := &fakeStreamer{steps: []step{
		{resp: &genai.GenerateContentResponse{}},
		{resp: textChunk("   ", web("t", "https://example.gov"))},
	}}
	g := newTestGenerator(f, Options{})

	var stages []Stage
	_, err := g.Generate(context.Background(), "x", func(s Stage) { stages = append(stages, s) })
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, "empty_response", Reason(err))
	assert.Equal(t, []Stage{StageSearching, StageGenerating}, stages)
}

func TestGenerateStreamError(t *testing.T) {
	boom := errors.New("quota exceeded")
	f := &fakeStreamer{steps: []step{
		{resp: textChunk("partial")},
		{err: boom},
	}}
	g := newTestGenerator(f, Options{})

	doc, err := g.Generate(context.Background(), "x", nil)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrRequest)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "request", Reason(err))
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newTestGenerator(&fakeStreamer{steps: []step{{resp: textChunk("late")}}}, Options{})

	_, err := g.Generate(ctx, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "canceled", Reason(err))
}

// stalledStreamer never answers; it yields only once ctx is done.
type stalledStreamer struct{}

func (stalledStreamer) GenerateContentStream(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		<-ctx.Done()
		yield(nil, ctx.Err())
	}
}

func TestGenerateTimeout(t *testing.T) {
	g := New(stalledStreamer{}, Options{Timeout: time.Millisecond}, nil)

	doc, err := g.Generate(context.Background(), "x", nil)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrRequest)
	assert.Equal(t, "timeout", Reason(err))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.DraftConfig{}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, "missing_api_key", Reason(err))
}

func TestNewClientRejectsBadTimeout(t *testing.T) {
	_, err := NewClient(context.Background(), config.DraftConfig{APIKey: "k", Timeout: "later"}, nil)
	assert.ErrorContains(t, err, "invalid draft timeout")
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("  Phase I site assessment ")
	assert.True(t, strings.HasPrefix(p, `User Request: Create a document draft for: "Phase I site assessment".`))
	assert.Contains(t, p, "Provide ONLY the document content.")
}

func TestUseCase(t *testing.T) {
	uc, ok := UseCase(1)
	require.True(t, ok)
	assert.Equal(t, "Environmental Impact Report (EIR)", uc)

	uc, ok = UseCase(len(UseCases))
	require.True(t, ok)
	assert.Equal(t, "Land Use & Zoning Document", uc)

	_, ok = UseCase(0)
	assert.False(t, ok)
	_, ok = UseCase(len(UseCases) + 1)
	assert.False(t, ok)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "empty_prompt", Reason(ErrEmptyPrompt))
	assert.Equal(t, "timeout", Reason(context.DeadlineExceeded))
	assert.Equal(t, "unknown", Reason(errors.New("other")))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "searching", StageSearching.String())
	assert.Equal(t, "generating", StageGenerating.String())
	assert.Equal(t, "stage(7)", Stage(7).String())
}
