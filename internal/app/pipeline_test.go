package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/voxtype/voxtype/internal/command"
	"github.com/voxtype/voxtype/internal/correct"
	"github.com/voxtype/voxtype/internal/observe"
	"github.com/voxtype/voxtype/internal/segmenter"
	"github.com/voxtype/voxtype/pkg/provider/llm"
	llmmock "github.com/voxtype/voxtype/pkg/provider/llm/mock"
)

// fakeOutput records emitted text and control actions.
type fakeOutput struct {
	texts      []string
	newLines   int
	paragraphs int
	emitErr    error
}

func (f *fakeOutput) Emit(_ context.Context, u segmenter.Utterance) error {
	if f.emitErr != nil {
		return f.emitErr
	}
	f.texts = append(f.texts, u.Text)
	return nil
}

func (f *fakeOutput) NewLine(context.Context) error      { f.newLines++; return nil }
func (f *fakeOutput) NewParagraph(context.Context) error { f.paragraphs++; return nil }

// recordSink is a minimal secondary sink.
type recordSink struct {
	texts []string
	err   error
}

func (r *recordSink) Emit(_ context.Context, u segmenter.Utterance) error {
	if r.err != nil {
		return r.err
	}
	r.texts = append(r.texts, u.Text)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(corrector *correct.Corrector, out *fakeOutput, extras ...namedSink) *pipeline {
	return newPipeline(testLogger(), observe.NewNopMetrics(), corrector, command.New(), out, extras...)
}

func emit(t *testing.T, p *pipeline, text string) {
	t.Helper()
	if err := p.Emit(context.Background(), segmenter.Utterance{Text: text}); err != nil {
		t.Fatalf("Emit(%q) returned error: %v", text, err)
	}
}

func TestPipeline_EmitsTextToAllSinks(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	extra := &recordSink{}
	p := newTestPipeline(nil, out, namedSink{name: "history", sink: extra})

	emit(t, p, "hello world")

	if len(out.texts) != 1 || out.texts[0] != "hello world" {
		t.Errorf("output texts = %v, want [hello world]", out.texts)
	}
	if len(extra.texts) != 1 || extra.texts[0] != "hello world" {
		t.Errorf("extra sink texts = %v, want [hello world]", extra.texts)
	}
}

func TestPipeline_NewLineCommand(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	extra := &recordSink{}
	p := newTestPipeline(nil, out, namedSink{name: "history", sink: extra})

	emit(t, p, "new line")

	if out.newLines != 1 {
		t.Errorf("newLines = %d, want 1", out.newLines)
	}
	if len(out.texts) != 0 {
		t.Errorf("command phrase must not be typed, got %v", out.texts)
	}
	if len(extra.texts) != 0 {
		t.Errorf("command phrase must not be recorded, got %v", extra.texts)
	}
}

func TestPipeline_NewParagraphCommand(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	p := newTestPipeline(nil, out)

	emit(t, p, "New Paragraph.")

	if out.paragraphs != 1 {
		t.Errorf("paragraphs = %d, want 1", out.paragraphs)
	}
}

func TestPipeline_PauseAndResumeByVoice(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	p := newTestPipeline(nil, out)

	emit(t, p, "stop dictation")
	emit(t, p, "this should be dropped")
	emit(t, p, "start dictation")
	emit(t, p, "this should be typed")

	if len(out.texts) != 1 || out.texts[0] != "this should be typed" {
		t.Errorf("output texts = %v, want only the post-resume utterance", out.texts)
	}
}

func TestPipeline_EditingActionDroppedWhilePaused(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	p := newTestPipeline(nil, out)

	emit(t, p, "pause dictation")
	emit(t, p, "new line")

	if out.newLines != 0 {
		t.Errorf("newLines = %d, want 0 while paused", out.newLines)
	}
}

func TestPipeline_CommandsDisabled(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	p := newTestPipeline(nil, out)
	p.setCommandsEnabled(false)

	emit(t, p, "new line")

	if out.newLines != 0 {
		t.Errorf("newLines = %d, want 0 with commands disabled", out.newLines)
	}
	if len(out.texts) != 1 || out.texts[0] != "new line" {
		t.Errorf("output texts = %v, want the phrase typed literally", out.texts)
	}
}

func TestPipeline_CorrectionApplied(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.CompletionResponse{
		Content: `{"corrected_text":"deploy to Kubernetes","corrections":[{"original":"cooper netties","corrected":"Kubernetes","confidence":0.9}]}`,
	}}
	corrector := correct.New(provider, []string{"Kubernetes"})

	out := &fakeOutput{}
	p := newTestPipeline(corrector, out)

	emit(t, p, "deploy to cooper netties")

	if len(out.texts) != 1 || out.texts[0] != "deploy to Kubernetes" {
		t.Errorf("output texts = %v, want corrected text", out.texts)
	}
}

func TestPipeline_CorrectionErrorFallsBackToRawText(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{CompleteErr: errors.New("api unreachable")}
	corrector := correct.New(provider, []string{"Kubernetes"})

	out := &fakeOutput{}
	p := newTestPipeline(corrector, out)

	emit(t, p, "deploy to cooper netties")

	if len(out.texts) != 1 || out.texts[0] != "deploy to cooper netties" {
		t.Errorf("output texts = %v, want the raw text", out.texts)
	}
}

func TestPipeline_SinkFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("disk full")
	out := &fakeOutput{}
	failing := &recordSink{err: sinkErr}
	healthy := &recordSink{}
	p := newTestPipeline(nil, out,
		namedSink{name: "history", sink: failing},
		namedSink{name: "feed", sink: healthy},
	)

	err := p.Emit(context.Background(), segmenter.Utterance{Text: "hello"})
	if !errors.Is(err, sinkErr) {
		t.Errorf("Emit error = %v, want to wrap %v", err, sinkErr)
	}
	if len(out.texts) != 1 {
		t.Errorf("output must still receive the text, got %v", out.texts)
	}
	if len(healthy.texts) != 1 {
		t.Errorf("healthy sink must still receive the text, got %v", healthy.texts)
	}
}

func TestPipeline_TogglePause(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	p := newTestPipeline(nil, out)

	if !p.togglePause() {
		t.Error("first toggle should pause")
	}
	emit(t, p, "dropped")
	if p.togglePause() {
		t.Error("second toggle should resume")
	}
	emit(t, p, "typed")

	if len(out.texts) != 1 || out.texts[0] != "typed" {
		t.Errorf("output texts = %v, want only the post-resume utterance", out.texts)
	}
}
