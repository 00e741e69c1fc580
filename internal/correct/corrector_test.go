package correct

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxtype/voxtype/pkg/provider/llm"
	llmmock "github.com/voxtype/voxtype/pkg/provider/llm/mock"
)

var testDictionary = []string{"Kubernetes", "PostgreSQL", "voxtype"}

func TestCorrectAppliesModelOutput(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{
		Response: &llm.CompletionResponse{
			Content: `{"corrected_text": "deploy it on Kubernetes", "corrections": [{"original": "cooper netties", "corrected": "Kubernetes", "confidence": 0.93}]}`,
		},
	}
	c := New(provider, testDictionary)

	got, corrections, err := c.Correct(context.Background(), "deploy it on cooper netties")
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "deploy it on Kubernetes" {
		t.Fatalf("want corrected text, got %q", got)
	}
	if len(corrections) != 1 || corrections[0].Corrected != "Kubernetes" {
		t.Fatalf("unexpected corrections %+v", corrections)
	}
}

func TestCorrectSendsDictionaryInPrompt(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{
		Response: &llm.CompletionResponse{Content: `{"corrected_text": "x", "corrections": []}`},
	}
	c := New(provider, testDictionary)

	if _, _, err := c.Correct(context.Background(), "x"); err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if len(provider.CompleteCalls) != 1 {
		t.Fatalf("want 1 call, got %d", len(provider.CompleteCalls))
	}
	prompt := provider.CompleteCalls[0].Req.SystemPrompt
	for _, term := range testDictionary {
		if !strings.Contains(prompt, "- "+term) {
			t.Errorf("system prompt missing dictionary term %q", term)
		}
	}
}

func TestCorrectEmptyDictionarySkipsModel(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{}
	c := New(provider, nil)

	got, corrections, err := c.Correct(context.Background(), "untouched")
	if err != nil || got != "untouched" || corrections != nil {
		t.Fatalf("want passthrough, got (%q, %v, %v)", got, corrections, err)
	}
	if len(provider.CompleteCalls) != 0 {
		t.Fatal("empty dictionary must not call the model")
	}
}

func TestCorrectUnparseableResponseFallsBack(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{
		Response: &llm.CompletionResponse{Content: "Sure! Here is the corrected text: ..."},
	}
	c := New(provider, testDictionary)

	got, corrections, err := c.Correct(context.Background(), "original words")
	if err != nil {
		t.Fatalf("unparseable response must not error, got %v", err)
	}
	if got != "original words" || corrections != nil {
		t.Fatalf("want original text back, got (%q, %v)", got, corrections)
	}
}

func TestCorrectProviderErrorReturnsOriginal(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{CompleteErr: errors.New("network down")}
	c := New(provider, testDictionary)

	got, _, err := c.Correct(context.Background(), "keep me")
	if err == nil {
		t.Fatal("want provider error surfaced")
	}
	if got != "keep me" {
		t.Fatalf("want original text on error, got %q", got)
	}
}

func TestParseResponseStripsMarkdownFences(t *testing.T) {
	t.Parallel()

	content := "```json\n{\"corrected_text\": \"hello voxtype\", \"corrections\": []}\n```"
	got, _, err := parseResponse(content, "orig")
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if got != "hello voxtype" {
		t.Fatalf("want fenced JSON parsed, got %q", got)
	}
}

func TestParseResponseSkipsNoopCorrections(t *testing.T) {
	t.Parallel()

	content := `{"corrected_text": "a b", "corrections": [
		{"original": "a", "corrected": "a", "confidence": 0.9},
		{"original": "", "corrected": "b", "confidence": 0.9},
		{"original": "x", "corrected": "y", "confidence": 0.5}
	]}`
	_, corrections, err := parseResponse(content, "orig")
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(corrections) != 1 || corrections[0].Original != "x" {
		t.Fatalf("want only the real substitution, got %+v", corrections)
	}
}

func TestParseResponseEmptyCorrectedTextKeepsOriginal(t *testing.T) {
	t.Parallel()

	got, _, err := parseResponse(`{"corrected_text": "", "corrections": []}`, "orig")
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if got != "orig" {
		t.Fatalf("want original text, got %q", got)
	}
}
